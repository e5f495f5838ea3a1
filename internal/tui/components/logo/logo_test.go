package logo

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogo(t *testing.T) {
	t.Parallel()

	t.Run("size", func(t *testing.T) {
		t.Parallel()
		w, h := Standard().Size()
		assert.Equal(t, 3, h)
		assert.Equal(t, 23, w)
	})

	t.Run("fits", func(t *testing.T) {
		t.Parallel()
		out := ansi.Strip(Standard().Render(40, 9))
		require.NotEmpty(t, out)
		assert.Contains(t, out, "▀█▀")
	})

	t.Run("falls back when too small", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "vstack", Standard().Render(10, 1))
		assert.Equal(t, "vst", Standard().Render(3, 10))
		assert.Empty(t, Standard().Render(0, 0))
	})
}
