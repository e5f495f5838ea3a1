package csync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	require.Equal(t, 2, m.Len())

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = m.Take("b")
	require.True(t, ok)
	require.Equal(t, 2, v)
	_, ok = m.Get("b")
	require.False(t, ok)

	m.Del("a")
	require.Zero(t, m.Len())
}

func TestMapSeqAllowsMutation(t *testing.T) {
	t.Parallel()

	m := NewMapFrom(map[string]int{"a": 1, "b": 2, "c": 3})
	sum := 0
	for k, v := range m.Seq2() {
		m.Del(k)
		sum += v
	}
	require.Equal(t, 6, sum)
	require.Zero(t, m.Len())
}

func TestMapConcurrent(t *testing.T) {
	t.Parallel()

	m := NewMap[int, int]()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(i, i)
			m.Get(i)
		}()
	}
	wg.Wait()
	require.Equal(t, 50, m.Len())

	m.Reset()
	require.Zero(t, m.Len())
}
