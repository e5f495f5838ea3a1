package vstack

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/scroll"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

type testSurface = surface[section.StringKey, section.TextItem]

func text(_ section.Position, it section.TextItem) string { return it.Text }

func items(prefix string, n int) []section.TextItem {
	out := make([]section.TextItem, n)
	for i := range n {
		id := fmt.Sprintf("%s%d", prefix, i)
		out[i] = section.TextItem{Key: id, Text: id}
	}
	return out
}

func sec(key string, its ...section.TextItem) section.TextSection {
	return section.TextSection{Key: section.StringKey(key), Items: its}
}

func newTestSurface(opts ...Option) *testSurface {
	opts = append([]Option{WithID("test"), WithoutSettle()}, opts...)
	return New[section.StringKey](text, opts...).(*testSurface)
}

// drain runs cmd and every batched command under it.
func drain(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			out = append(out, msg)
		}
	}
	return out
}

// run is drain, except the surface's own messages are fed back to it.
func run(s *testSurface, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case scrollDueMsg, settleMsg, animTickMsg, flashTickMsg:
			_, next := s.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func fulfilled(msgs []tea.Msg) []ScrollFulfilledMsg {
	var out []ScrollFulfilledMsg
	for _, m := range msgs {
		if f, ok := m.(ScrollFulfilledMsg); ok {
			out = append(out, f)
		}
	}
	return out
}

func events(msgs []tea.Msg) []EventKind {
	var out []EventKind
	for _, m := range msgs {
		if e, ok := m.(ScrollEventMsg); ok {
			out = append(out, e.Kind)
		}
	}
	return out
}

func TestSurface(t *testing.T) {
	t.Parallel()

	t.Run("renders visible rows", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 3))
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 5)...)}, false))

		assert.Equal(t, "a0  \na1  \na2  ", s.View())
		assert.Equal(t, 0, s.Offset())
	})

	t.Run("empty surface renders blank lines", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(3, 2))
		run(s, s.Init())

		assert.Equal(t, "   \n   ", s.View())
		_, _, ok := s.VisibleRange()
		assert.False(t, ok)
	})

	t.Run("zero size renders nothing", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface()
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 5)...)}, false))

		assert.Empty(t, s.View())
		assert.Zero(t, s.PoolStats(pool.ItemClass).Live)
	})

	t.Run("inverted layout", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(2, 4), WithInverted(true))
		run(s, s.SetSections([]section.TextSection{sec("A",
			section.TextItem{Key: "m", Text: "x\ny"},
			section.TextItem{Key: "n", Text: "z"},
		)}, false))

		golden.RequireEqual(t, []byte(s.View()))
	})

	t.Run("inverted scrolling keeps the anchor at the bottom", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 3), WithInverted(true))
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false))
		assert.Equal(t, "a2  \na1  \na0  ", s.View())

		run(s, s.MoveUp(1))
		assert.Equal(t, 1, s.Offset())
		assert.Equal(t, "a3  \na2  \na1  ", s.View())

		run(s, s.GoToTop())
		assert.Equal(t, 7, s.Offset())
		run(s, s.GoToBottom())
		assert.Equal(t, 0, s.Offset())
	})

	t.Run("section headers and gaps from layout policy", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(3, 6), WithSectionLayout(func(int, Environment) LayoutSpec {
			return LayoutSpec{HeaderHeight: 1, SectionGap: 1}
		}))
		run(s, s.SetSections([]section.TextSection{
			sec("A", items("a", 2)...),
			sec("B", items("b", 1)...),
		}, false))

		assert.Equal(t, "A  \na0 \na1 \n   \nB  \nb0 ", s.View())
		assert.Equal(t, 2, s.PoolStats(pool.HeaderClass).Live)
		assert.Equal(t, 3, s.PoolStats(pool.ItemClass).Live)
	})

	t.Run("fixed item height clips content", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(3, 3), WithSectionLayout(func(int, Environment) LayoutSpec {
			return LayoutSpec{ItemHeight: 1}
		}))
		run(s, s.SetSections([]section.TextSection{sec("A",
			section.TextItem{Key: "1", Text: "one\nlong"},
			section.TextItem{Key: "2", Text: "two"},
		)}, false))

		assert.Equal(t, "one\ntwo\n   ", s.View())
	})
}

func TestSurfaceRecycling(t *testing.T) {
	t.Parallel()

	t.Run("only visible rows and overscan hold containers", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 5))
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 100)...)}, false))

		st := s.PoolStats(pool.ItemClass)
		assert.Equal(t, 5+DefaultOverscan, st.Live)
		assert.Equal(t, 5+DefaultOverscan, st.Created)

		run(s, s.MoveDown(50))
		st = s.PoolStats(pool.ItemClass)
		assert.Equal(t, 5+2*DefaultOverscan, st.Live)
		assert.Equal(t, 5+2*DefaultOverscan, st.Created)
		assert.Equal(t, 5+DefaultOverscan, st.Reused)
		assert.Zero(t, st.Idle)
	})

	t.Run("unchanged items keep their containers across edits", func(t *testing.T) {
		t.Parallel()
		displayed := map[string]int{}
		var s *testSurface
		s = newTestSurface(WithSize(4, 10), WithWillDisplay(func(pos section.Position, _ *pool.Container) {
			displayed[s.vp.sections[pos.Section].items[pos.Item].id]++
		}))
		all := items("a", 5)
		run(s, s.SetSections([]section.TextSection{sec("A", all...)}, false))
		before := s.vp.sections[0].items[2].container

		run(s, s.SetSections([]section.TextSection{sec("A", all[1:]...)}, false))

		el := s.vp.sections[0].items[1]
		require.Equal(t, "a2", el.id)
		assert.Same(t, before, el.container)
		assert.Equal(t, map[string]int{"a0": 1, "a1": 1, "a2": 1, "a3": 1, "a4": 1}, displayed)
		assert.Equal(t, 4, s.PoolStats(pool.ItemClass).Live)
		assert.Equal(t, "a1  \na2  \na3  \na4  ", s.View()[:19])
	})

	t.Run("changed content is rebound in place", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 3))
		all := items("a", 3)
		run(s, s.SetSections([]section.TextSection{sec("A", all...)}, false))
		before := s.vp.sections[0].items[1].container

		changed := []section.TextItem{all[0], {Key: "a1", Text: "one\ntwo"}, all[2]}
		run(s, s.SetSections([]section.TextSection{sec("A", changed...)}, false))

		assert.Same(t, before, s.vp.sections[0].items[1].container)
		assert.Equal(t, "a0  \none \ntwo ", s.View())
	})

	t.Run("identical snapshot short circuits", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 3))
		data := []section.TextSection{sec("A", items("a", 3)...)}
		run(s, s.SetSections(data, false))
		first := s.Snapshot()
		stats := s.PoolStats(pool.ItemClass)

		run(s, s.SetSections(data, false))

		assert.Equal(t, first.Hash(), s.Snapshot().Hash())
		assert.Equal(t, stats, s.PoolStats(pool.ItemClass))
	})

	t.Run("removed sections return their containers", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 10), WithSectionLayout(func(int, Environment) LayoutSpec {
			return LayoutSpec{HeaderHeight: 1}
		}))
		run(s, s.SetSections([]section.TextSection{
			sec("A", items("a", 2)...),
			sec("B", items("b", 2)...),
		}, false))
		require.Equal(t, 4, s.PoolStats(pool.ItemClass).Live)

		run(s, s.SetSections([]section.TextSection{sec("B", items("b", 2)...)}, false))

		assert.Equal(t, 2, s.PoolStats(pool.ItemClass).Live)
		assert.Equal(t, 1, s.PoolStats(pool.HeaderClass).Live)
		assert.Equal(t, s.pool.Live(), len(s.bound))
	})
}

type countingTree struct {
	text   string
	closed *int
}

func (c countingTree) Render(int) string { return c.text }
func (c countingTree) Close() error {
	*c.closed++
	return nil
}

func TestSurfaceSupplementary(t *testing.T) {
	t.Parallel()

	var built, closed int
	s := newTestSurface(
		WithSize(4, 6),
		WithSectionLayout(func(int, Environment) LayoutSpec {
			return LayoutSpec{HeaderHeight: 1}
		}),
		WithSupplementary(func(kind pool.Class, pos section.Position) pool.Tree {
			built++
			return countingTree{text: fmt.Sprintf("#%d", pos.Section), closed: &closed}
		}),
	)
	run(s, s.SetSections([]section.TextSection{
		sec("A", items("a", 1)...),
		sec("B", items("b", 1)...),
	}, false))
	assert.Equal(t, 2, built)
	assert.Equal(t, "#0  \na0  \n#1  \nb0  \n    \n    ", s.View())

	run(s, s.SetSections([]section.TextSection{
		sec("B", items("b", 1)...),
		sec("A", items("a", 1)...),
	}, false))

	assert.Equal(t, 2, closed)
	assert.Equal(t, 4, built)
	assert.Equal(t, "#0  \nb0  \n#1  \na0  \n    \n    ", s.View())
}

func TestSurfaceScrollTo(t *testing.T) {
	t.Parallel()

	t.Run("request waits for its target", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(10, 3))
		target := section.Position{Section: 0, Item: 20}

		assert.Empty(t, run(s, s.ScrollTo(scroll.Request{Target: target})))
		_, pending := s.PendingScroll()
		require.True(t, pending)

		cmd := s.SetSections([]section.TextSection{sec("A", items("a", 30)...)}, false)
		// execution is deferred to the next event loop iteration
		assert.Equal(t, 0, s.Offset())

		got := fulfilled(run(s, cmd))
		require.Equal(t, []ScrollFulfilledMsg{{SurfaceID: "test", Target: target}}, got)
		assert.Equal(t, 19, s.Offset())
		first, last, ok := s.VisibleRange()
		require.True(t, ok)
		assert.Equal(t, section.Position{Section: 0, Item: 19}, first)
		assert.Equal(t, section.Position{Section: 0, Item: 21}, last)
		_, pending = s.PendingScroll()
		assert.False(t, pending)
	})

	t.Run("superseded request is never fulfilled", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(10, 3))
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 30)...)}, false))

		first := s.ScrollTo(scroll.Request{Target: section.Position{Item: 5}})
		second := s.ScrollTo(scroll.Request{Target: section.Position{Item: 10}})

		got := append(fulfilled(run(s, first)), fulfilled(run(s, second))...)
		require.Len(t, got, 1)
		assert.Equal(t, section.Position{Item: 10}, got[0].Target)
		assert.Equal(t, 9, s.Offset())
	})

	t.Run("target removed before execution goes back to pending", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(10, 3))
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false))

		due := s.ScrollTo(scroll.Request{Target: section.Position{Item: 5}})
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 3)...)}, false))

		assert.Empty(t, fulfilled(run(s, due)))
		_, pending := s.PendingScroll()
		require.True(t, pending)

		got := fulfilled(run(s, s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false)))
		assert.Len(t, got, 1)
	})

	t.Run("animated scroll reaches its target", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 5), WithScrollEvents())
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 50)...)}, false))

		msgs := run(s, s.ScrollTo(scroll.Request{Target: section.Position{Item: 30}, Animated: true}))

		assert.Len(t, fulfilled(msgs), 1)
		kinds := events(msgs)
		assert.Contains(t, kinds, ScrollBegin)
		assert.Contains(t, kinds, Scrolled)
		assert.Contains(t, kinds, ScrollEnd)
		assert.Equal(t, 28, s.Offset())
		assert.False(t, s.ViewportState().Animating)
	})
}

func TestSurfaceEvents(t *testing.T) {
	t.Parallel()

	t.Run("scrolling reports viewport state", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 3), WithScrollEvents())
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false))

		msgs := run(s, s.MoveDown(1))
		require.Len(t, msgs, 1)
		ev, ok := msgs[0].(ScrollEventMsg)
		require.True(t, ok)
		assert.Equal(t, Scrolled, ev.Kind)
		assert.Equal(t, "test", ev.SurfaceID)
		assert.Equal(t, 1, ev.State.Offset)
		assert.Equal(t, 7, ev.State.MaxOffset)

		// already at the top
		run(s, s.GoToTop())
		assert.Empty(t, run(s, s.MoveUp(1)))
	})

	t.Run("drag follows the pointer", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 5), WithEnableMouse(), WithScrollEvents())
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 20)...)}, false))

		_, cmd := s.Update(tea.MouseClickMsg{X: 1, Y: 2, Button: tea.MouseLeft})
		assert.Equal(t, []EventKind{DragBegin}, events(run(s, cmd)))
		require.True(t, s.Dragging())

		_, cmd = s.Update(tea.MouseMotionMsg{X: 1, Y: 0})
		run(s, cmd)
		assert.Equal(t, 2, s.Offset())

		_, cmd = s.Update(tea.MouseReleaseMsg{X: 1, Y: 0})
		assert.Equal(t, []EventKind{DragEnd}, events(run(s, cmd)))
		assert.False(t, s.Dragging())
	})

	t.Run("gesture predicate leaves drags to the ancestor", func(t *testing.T) {
		t.Parallel()
		var seen Gesture
		s := newTestSurface(WithSize(4, 5), WithEnableMouse(), WithGesturePredicate(func(g Gesture, _ ViewportState) bool {
			seen = g
			return false
		}))
		s.SetOrigin(10, 10)
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 20)...)}, false))

		s.Update(tea.MouseClickMsg{X: 12, Y: 13, Button: tea.MouseLeft})
		assert.False(t, s.Dragging())
		assert.Equal(t, Gesture{Kind: GesturePan, X: 2, Y: 3, Button: tea.MouseLeft}, seen)

		s.Update(tea.MouseMotionMsg{X: 12, Y: 10})
		assert.Equal(t, 0, s.Offset())
	})

	t.Run("wheel outside the surface is ignored", func(t *testing.T) {
		t.Parallel()
		s := newTestSurface(WithSize(4, 5), WithEnableMouse())
		run(s, s.SetSections([]section.TextSection{sec("A", items("a", 20)...)}, false))

		s.Update(tea.MouseWheelMsg{X: 8, Y: 1, Button: tea.MouseWheelDown})
		assert.Equal(t, 0, s.Offset())
		_, cmd := s.Update(tea.MouseWheelMsg{X: 1, Y: 1, Button: tea.MouseWheelDown})
		run(s, cmd)
		assert.Equal(t, DefaultScrollSize, s.Offset())
	})
}

func TestSurfaceAnimatedEdits(t *testing.T) {
	t.Parallel()

	s := newTestSurface(WithSize(4, 3))
	run(s, s.SetSections([]section.TextSection{sec("A", items("a", 1)...)}, false))
	assert.Empty(t, s.flashing)

	cmd := s.SetSections([]section.TextSection{sec("A", items("a", 2)...)}, true)
	require.Equal(t, flashFrames, s.vp.sections[0].items[1].flash)
	assert.Zero(t, s.vp.sections[0].items[0].flash)

	run(s, cmd)
	assert.Empty(t, s.flashing)
	assert.Zero(t, s.vp.sections[0].items[1].flash)
	assert.Equal(t, "a0  \na1  \n    ", s.View())
}

func TestSurfaceSettle(t *testing.T) {
	t.Parallel()

	s := New[section.StringKey](text, WithID("settle"), WithSize(4, 3)).(*testSurface)
	msgs := drain(s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false))
	assert.Contains(t, msgs, tea.Msg(settleMsg{surface: "settle"}))

	s.Update(settleMsg{surface: "settle"})
	assert.True(t, s.hasSettled)
	assert.Equal(t, 0, s.Offset())

	msgs = drain(s.SetSections([]section.TextSection{sec("A", items("a", 12)...)}, false))
	assert.NotContains(t, msgs, tea.Msg(settleMsg{surface: "settle"}))
}

func TestSurfaceIgnoresForeignMessages(t *testing.T) {
	t.Parallel()

	s := newTestSurface(WithSize(4, 3))
	run(s, s.SetSections([]section.TextSection{sec("A", items("a", 10)...)}, false))
	due := s.ScrollTo(scroll.Request{Target: section.Position{Item: 8}})
	for _, msg := range drain(due) {
		if d, ok := msg.(scrollDueMsg); ok {
			d.surface = "other"
			_, cmd := s.Update(d)
			assert.Nil(t, cmd)
		}
	}
	assert.Equal(t, 0, s.Offset())
}

func TestSurfaceRenderCache(t *testing.T) {
	t.Parallel()

	calls := 0
	s := New[section.StringKey](func(_ section.Position, it section.TextItem) string {
		calls++
		return it.Text
	}, WithID("cache"), WithoutSettle(), WithSize(4, 5)).(*testSurface)
	run(s, s.SetSections([]section.TextSection{sec("A", items("a", 100)...)}, false))
	require.Equal(t, 5+DefaultOverscan, calls)

	run(s, s.MoveDown(50))
	scrolled := calls
	run(s, s.GoToTop())
	assert.Equal(t, scrolled, calls, "rows seen before come from the cache")
	assert.Equal(t, "a0", s.vp.sections[0].items[0].container.Content())

	_, ok := s.vp.cache.items.Get("a0")
	require.True(t, ok)
	run(s, s.SetSections([]section.TextSection{sec("A", items("a", 100)[1:]...)}, false))
	_, ok = s.vp.cache.items.Get("a0")
	assert.False(t, ok, "removed items are evicted")

	run(s, s.SetSize(6, 5))
	assert.LessOrEqual(t, s.vp.cache.len(), 5+DefaultOverscan)
}
