package demo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujuhre12/vstack/internal/config"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

// cmdTimeout drops commands that take longer, such as cursor blinks and
// file watchers.
const cmdTimeout = 300 * time.Millisecond

func exec(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

// run feeds every message produced by cmd back into m until nothing is
// left.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10000, "commands never settled")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := exec(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyPressMsg
		switch k {
		case "enter":
			msg = tea.KeyPressMsg{Code: tea.KeyEnter}
		case "esc":
			msg = tea.KeyPressMsg{Code: tea.KeyEscape}
		case "tab":
			msg = tea.KeyPressMsg{Code: tea.KeyTab}
		default:
			r := []rune(k)[0]
			msg = tea.KeyPressMsg{Code: r, Text: k}
		}
		_, cmd := m.Update(msg)
		run(t, m, cmd)
	}
}

func newTestModel(t *testing.T, sections []section.TextSection, file string, mutate ...func(*config.Config)) *Model {
	t.Helper()
	cfg := config.Defaults(t.TempDir())
	cfg.Surface.DisableAnim = true
	for _, fn := range mutate {
		fn(cfg)
	}
	m := New(cfg, sections, file)
	run(t, m, m.Init())
	_, cmd := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	run(t, m, cmd)
	return m
}

func visible(m *Model) (first, last section.Position) {
	first, last, _ = m.list.VisibleRange()
	return first, last
}

func TestModelLayout(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, SampleSections(), "")
	assert.Equal(t, 12, m.listHeight)
	assert.Equal(t, 5, m.drawerHeight)
	w, h := m.drawer.GetSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 5, h)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Inbox item 0")
	assert.Contains(t, view, "› Inbox item 0")
	assert.Contains(t, view, "scroll to item 20")
}

func TestModelScrollRequests(t *testing.T) {
	t.Parallel()

	t.Run("animated request clears when fulfilled", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "", func(c *config.Config) {
			c.Surface.DisableAnim = false
		})
		_, cmd := m.Update(tea.KeyPressMsg{Code: 's', Text: "s"})
		assert.Contains(t, m.pending, "list")
		run(t, m, cmd)
		assert.Empty(t, m.pending)
		first, last := visible(m)
		assert.LessOrEqual(t, first.Item, 20)
		assert.GreaterOrEqual(t, last.Item, 20)
	})

	t.Run("jump goes to the focused surface", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		press(t, m, "tab")
		_, cmd := m.Update(tea.KeyPressMsg{Code: 'S', Text: "S"})
		assert.Contains(t, m.pending, "drawer")
		assert.NotContains(t, m.pending, "list")
		run(t, m, cmd)
		assert.Empty(t, m.pending)
		assert.Zero(t, m.list.Offset())
		assert.Positive(t, m.drawer.Offset())
	})

	t.Run("request waits for data", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, nil, "")
		press(t, m, "S")
		assert.Contains(t, m.pending, "list")

		m.sections = SampleSections()
		run(t, m, m.applyFilter(false))
		assert.Empty(t, m.pending)
		first, last := visible(m)
		assert.LessOrEqual(t, first.Item, 20)
		assert.GreaterOrEqual(t, last.Item, 20)
	})
}

func TestModelSearch(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, SampleSections(), "")
	press(t, m, "/")
	require.True(t, m.searching)

	press(t, m, "i", "t", "e", "m", " ", "1")
	assert.Equal(t, "item 1", m.query)
	snap := m.list.Snapshot()
	assert.Equal(t, 4, snap.Len(), "Drafts stays visible while empty")
	assert.Equal(t, 23, snap.TotalItems())
	assert.Equal(t, snap.Hash(), m.drawer.Snapshot().Hash())

	press(t, m, "enter")
	assert.False(t, m.searching)
	assert.Equal(t, "item 1", m.query)
	assert.Contains(t, ansi.Strip(m.View()), `filter "item 1"`)

	press(t, m, "/", "esc")
	assert.False(t, m.searching)
	assert.Empty(t, m.query)
	assert.Equal(t, 88, m.list.Snapshot().TotalItems())
}

func TestModelKeys(t *testing.T) {
	t.Parallel()

	t.Run("invert flips only the drawer", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		press(t, m, "i")
		assert.True(t, m.drawer.Inverted())
		assert.False(t, m.list.Inverted())
		assert.True(t, m.cfg.Demo.Inverted)
		press(t, m, "i")
		assert.False(t, m.drawer.Inverted())
	})

	t.Run("tab switches focus", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		assert.True(t, m.list.IsFocused())
		press(t, m, "tab")
		assert.False(t, m.list.IsFocused())
		assert.True(t, m.drawer.IsFocused())
		press(t, m, "tab")
		assert.True(t, m.list.IsFocused())
	})

	t.Run("navigation keys reach the focused surface", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		press(t, m, "j")
		assert.Positive(t, m.list.Offset())
		assert.Zero(t, m.drawer.Offset())
	})

	t.Run("quit", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})
}

func TestModelEmptyState(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil, "")
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "▀█▀")
	assert.NotContains(t, view, "Inbox")
}

func TestModelDrawerDrag(t *testing.T) {
	t.Parallel()

	drag := func(t *testing.T, m *Model, from, to int) {
		t.Helper()
		_, cmd := m.Update(tea.MouseClickMsg{X: 5, Y: from, Button: tea.MouseLeft})
		run(t, m, cmd)
		_, cmd = m.Update(tea.MouseMotionMsg{X: 5, Y: to, Button: tea.MouseLeft})
		run(t, m, cmd)
		_, cmd = m.Update(tea.MouseReleaseMsg{X: 5, Y: to, Button: tea.MouseLeft})
		run(t, m, cmd)
	}

	t.Run("handle resizes", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "")
		drag(t, m, m.handleRow(), m.handleRow()-3)
		assert.Equal(t, 8, m.drawerHeight)
		assert.Equal(t, 9, m.listHeight)
		_, h := m.drawer.GetSize()
		assert.Equal(t, 8, h)
	})

	t.Run("body resizes until expanded", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, SampleSections(), "", func(c *config.Config) {
			c.Surface.Mouse = true
		})
		drag(t, m, m.handleRow()+2, m.handleRow()-8)
		assert.Equal(t, 15, m.drawerHeight)
		assert.Zero(t, m.drawer.Offset())

		drag(t, m, m.handleRow(), -100)
		require.True(t, m.drawerExpanded())
		assert.Equal(t, 16, m.drawerHeight)

		// fully open, the drawer scrolls its own content
		drag(t, m, m.handleRow()+6, m.handleRow()+2)
		assert.Equal(t, 16, m.drawerHeight)
		assert.Equal(t, 4, m.drawer.Offset())
	})
}

func TestModelFile(t *testing.T) {
	t.Parallel()

	const (
		before = "sections:\n  - key: Notes\n    items:\n      - id: a\n        text: first\n      - id: b\n        text: second\n"
		after  = "sections:\n  - key: Notes\n    items:\n      - id: a\n        text: first\n"
	)

	path := filepath.Join(t.TempDir(), "sections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(before), 0o644))

	m := newTestModel(t, nil, path)
	require.NotNil(t, m.watcher)
	t.Cleanup(func() { m.watcher.Close() })
	assert.Equal(t, 2, m.list.Snapshot().TotalItems())

	done := make(chan tea.Msg, 1)
	go func() { done <- waitForChange(m.watcher, path)() }()
	require.NoError(t, os.WriteFile(path, []byte(after), 0o644))

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no change seen")
	}
	changed, ok := msg.(fileChangedMsg)
	require.True(t, ok, "got %T", msg)
	assert.True(t, changed.watch)

	_, cmd := m.Update(fileChangedMsg{sections: changed.sections})
	run(t, m, cmd)
	assert.Equal(t, 1, m.list.Snapshot().TotalItems())
	assert.Equal(t, 1, m.drawer.Snapshot().TotalItems())
}

func TestModelFileErrors(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, SampleSections(), "")
	_, cmd := m.Update(loadCmd(filepath.Join(t.TempDir(), "missing.yaml"))())
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "missing.yaml")
	assert.Equal(t, 88, m.list.Snapshot().TotalItems())
}
