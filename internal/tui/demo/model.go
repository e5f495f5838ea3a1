// Package demo is an interactive owner of two render surfaces: a main list
// and a drawer that can be dragged open and inverted.
package demo

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/fsnotify/fsnotify"
	"github.com/tujuhre12/vstack/internal/config"
	"github.com/tujuhre12/vstack/internal/tui/components/logo"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/scroll"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"github.com/tujuhre12/vstack/internal/tui/exp/vstack"
	"github.com/tujuhre12/vstack/internal/tui/styles"
)

type (
	textSurface = vstack.Surface[section.StringKey, section.TextItem]
	focusTarget int
)

const (
	focusList focusTarget = iota
	focusDrawer
)

// title, drawer handle and footer
const chromeHeight = 3

// scrollTarget is what s and S bring into view.
var scrollTarget = section.Position{Section: 0, Item: 20}

type drawerDrag struct {
	active bool
	startY int
	startH int
}

type Model struct {
	cfg  *config.Config
	file string

	sections []section.TextSection
	list     textSurface
	drawer   textSurface

	search    textinput.Model
	searching bool
	query     string

	focus        focusTarget
	width        int
	height       int
	listHeight   int
	drawerHeight int
	drag         drawerDrag

	// pending scroll requests by surface ID, dropped once fulfilled
	pending map[string]scroll.Request

	logo      *logo.Logo
	watcher   *fsnotify.Watcher
	keyMap    KeyMap
	searchMap searchKeyMap
	status    string
}

// New builds the demo. When file is set its sections replace sections once
// loaded and the file is watched for changes.
func New(cfg *config.Config, sections []section.TextSection, file string) *Model {
	t := styles.CurrentTheme()
	m := &Model{
		cfg:          cfg,
		file:         file,
		sections:     sections,
		drawerHeight: -1,
		pending:      make(map[string]scroll.Request),
		logo:         logo.Standard(),
		keyMap:       DefaultKeyMap(),
		searchMap:    defaultSearchKeyMap(),
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter items"
	m.search = ti

	m.list = vstack.New[section.StringKey, section.TextItem](
		func(_ section.Position, item section.TextItem) string {
			return t.Item.Render(item.Text)
		},
		m.surfaceOptions(
			vstack.WithID("list"),
			vstack.WithFocus(true),
		)...,
	)

	inverted := cfg.Demo != nil && cfg.Demo.Inverted
	m.drawer = vstack.New[section.StringKey, section.TextItem](
		func(_ section.Position, item section.TextItem) string {
			return t.Muted.Render("› " + item.Text)
		},
		m.surfaceOptions(
			vstack.WithID("drawer"),
			vstack.WithInverted(inverted),
			vstack.WithGesturePredicate(func(vstack.Gesture, vstack.ViewportState) bool {
				return m.drawerExpanded()
			}),
		)...,
	)

	if file != "" {
		w, err := watchFile(file)
		if err != nil {
			slog.Warn("Failed to watch sections file", "path", file, "error", err)
		} else {
			m.watcher = w
		}
	}
	return m
}

func (m *Model) surfaceOptions(extra ...vstack.Option) []vstack.Option {
	so := m.cfg.Surface
	if so == nil {
		so = &config.SurfaceOptions{}
	}
	opts := []vstack.Option{
		vstack.WithGap(so.Gap),
		vstack.WithOverscan(so.Overscan),
		vstack.WithAnimation(!so.DisableAnim),
		vstack.WithScrollEvents(),
	}
	if so.StrictDiff {
		opts = append(opts, vstack.WithStrictDiff())
	}
	if so.DisableSettle {
		opts = append(opts, vstack.WithoutSettle())
	}
	if so.Mouse {
		opts = append(opts, vstack.WithEnableMouse())
	}

	spec := vstack.LayoutSpec{Gap: so.Gap, SectionGap: so.SectionGap}
	if so.Headers {
		spec.HeaderHeight = 1
		t := styles.CurrentTheme()
		opts = append(opts, vstack.WithSupplementary(func(kind pool.Class, pos section.Position) pool.Tree {
			if kind != pool.HeaderClass {
				return nil
			}
			return vstack.Text(t.Header.Render(m.sectionTitle(pos.Section)))
		}))
	}
	opts = append(opts, vstack.WithSectionLayout(func(int, vstack.Environment) vstack.LayoutSpec {
		return spec
	}))
	return append(opts, extra...)
}

// sectionTitle names section i of the currently shown sections. Both surfaces
// always show the same sections.
func (m *Model) sectionTitle(i int) string {
	snap := m.list.Snapshot()
	if i < 0 || i >= snap.Len() {
		return ""
	}
	return snap.Key(i).String()
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.list.Init(),
		m.drawer.Init(),
		m.applyFilter(false),
	}
	if m.file != "" {
		cmds = append(cmds, loadCmd(m.file))
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher, m.file))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.drawerHeight < 0 {
			m.drawerHeight = max(msg.Height-chromeHeight, 0) / 3
		}
		m.search.SetWidth(max(msg.Width-4, 1))
		return m, m.layout()
	case fileChangedMsg:
		m.sections = msg.sections
		m.status = fmt.Sprintf("loaded %s", m.file)
		cmds := []tea.Cmd{m.applyFilter(true)}
		if msg.watch && m.watcher != nil {
			cmds = append(cmds, waitForChange(m.watcher, m.file))
		}
		return m, tea.Batch(cmds...)
	case fileErrorMsg:
		slog.Error("Failed to load sections", "path", m.file, "error", msg.err)
		m.status = msg.err.Error()
		if msg.watch && m.watcher != nil {
			return m, waitForChange(m.watcher, m.file)
		}
		return m, nil
	case watchClosedMsg:
		slog.Debug("Sections watcher closed", "path", m.file)
		m.watcher = nil
		return m, nil
	case vstack.ScrollFulfilledMsg:
		if req, ok := m.pending[msg.SurfaceID]; ok && req.Target == msg.Target {
			delete(m.pending, msg.SurfaceID)
			m.status = fmt.Sprintf("%s reached %s", msg.SurfaceID, msg.Target)
		}
		return m, nil
	case vstack.ScrollEventMsg:
		if msg.Kind != vstack.Scrolled {
			m.status = fmt.Sprintf("%s %s %d/%d", msg.SurfaceID, msg.Kind, msg.State.Offset, msg.State.MaxOffset)
		}
		return m, nil
	case tea.MouseClickMsg:
		cmd := m.forward(msg)
		if msg.Button == tea.MouseLeft && m.startsDrawerDrag(msg.Y) {
			m.drag = drawerDrag{active: true, startY: msg.Y, startH: m.drawerHeight}
		}
		return m, cmd
	case tea.MouseMotionMsg:
		if m.drag.active {
			m.drawerHeight = m.drag.startH - (msg.Y - m.drag.startY)
			return m, m.layout()
		}
		return m, m.forward(msg)
	case tea.MouseReleaseMsg:
		m.drag = drawerDrag{}
		return m, m.forward(msg)
	case tea.KeyPressMsg:
		if m.searching {
			return m, m.updateSearch(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, m.forward(msg)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.watcher != nil {
			m.watcher.Close()
		}
		return tea.Quit
	case key.Matches(msg, m.keyMap.ScrollAnimated):
		return m.scrollTo(scrollTarget, true)
	case key.Matches(msg, m.keyMap.ScrollNow):
		return m.scrollTo(scrollTarget, false)
	case key.Matches(msg, m.keyMap.Search):
		m.searching = true
		return m.search.Focus()
	case key.Matches(msg, m.keyMap.Invert):
		inverted := !m.drawer.Inverted()
		if err := m.cfg.SetInverted(inverted); err != nil {
			slog.Warn("Failed to persist drawer orientation", "error", err)
		}
		return m.drawer.SetInverted(inverted)
	case key.Matches(msg, m.keyMap.SwitchFocus):
		if m.focus == focusList {
			m.focus = focusDrawer
			return tea.Batch(m.list.Blur(), m.drawer.Focus())
		}
		m.focus = focusList
		return tea.Batch(m.drawer.Blur(), m.list.Focus())
	case key.Matches(msg, m.keyMap.Reload):
		if m.file == "" {
			return nil
		}
		return loadCmd(m.file)
	}
	_, cmd := m.focused().Update(msg)
	return cmd
}

func (m *Model) updateSearch(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.searchMap.Accept):
		m.searching = false
		m.search.Blur()
		return nil
	case key.Matches(msg, m.searchMap.Cancel):
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		return m.applyFilter(true)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.query {
		m.query = v
		return tea.Batch(cmd, m.applyFilter(true))
	}
	return cmd
}

// applyFilter shows the sections matching the current query on both
// surfaces.
func (m *Model) applyFilter(animated bool) tea.Cmd {
	shown := section.Search(m.sections, m.query)
	return tea.Batch(
		m.list.SetSections(shown, animated),
		m.drawer.SetSections(shown, animated),
	)
}

func (m *Model) scrollTo(target section.Position, animated bool) tea.Cmd {
	s := m.focused()
	req := scroll.Request{Target: target, Animated: animated}
	m.pending[s.ID()] = req
	m.status = fmt.Sprintf("%s scrolling to %s", s.ID(), target)
	return s.ScrollTo(req)
}

func (m *Model) forward(msg tea.Msg) tea.Cmd {
	_, listCmd := m.list.Update(msg)
	_, drawerCmd := m.drawer.Update(msg)
	return tea.Batch(listCmd, drawerCmd)
}

func (m *Model) focused() textSurface {
	if m.focus == focusDrawer {
		return m.drawer
	}
	return m.list
}

// layout stacks the title, the list, the drawer handle, the drawer and the
// footer.
func (m *Model) layout() tea.Cmd {
	avail := max(m.height-chromeHeight, 1)
	m.drawerHeight = min(max(m.drawerHeight, 0), avail-1)
	m.listHeight = avail - m.drawerHeight
	m.list.SetOrigin(0, 1)
	m.drawer.SetOrigin(0, m.handleRow()+1)
	return tea.Batch(
		m.list.SetSize(m.width, m.listHeight),
		m.drawer.SetSize(m.width, m.drawerHeight),
	)
}

func (m *Model) handleRow() int {
	return 1 + m.listHeight
}

func (m *Model) drawerExpanded() bool {
	return m.drawerHeight >= max(m.height-chromeHeight, 1)-1
}

// startsDrawerDrag reports whether a press at row y resizes the drawer. The
// handle always does; the drawer body does until the drawer is fully open,
// after which its surface takes the drag.
func (m *Model) startsDrawerDrag(y int) bool {
	if y == m.handleRow() {
		return true
	}
	inDrawer := y > m.handleRow() && y <= m.handleRow()+m.drawerHeight
	return inDrawer && !m.drawer.Dragging()
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	parts := []string{m.titleView()}
	if m.list.Snapshot().TotalItems() == 0 {
		parts = append(parts, m.emptyView())
	} else {
		parts = append(parts, m.list.View())
	}
	parts = append(parts, m.handleView())
	if m.drawerHeight > 0 {
		parts = append(parts, m.drawer.View())
	}
	parts = append(parts, m.footerView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) emptyView() string {
	v := m.logo.Render(m.width, m.listHeight)
	return lipgloss.NewStyle().Width(m.width).Height(m.listHeight).Render(v)
}

func (m *Model) titleView() string {
	t := styles.CurrentTheme()
	title := t.Title.Render(logo.Short)
	if m.status != "" {
		title += " " + t.Muted.Render(m.status)
	}
	return ansi.Truncate(title, m.width, "…")
}

func (m *Model) handleView() string {
	t := styles.CurrentTheme()
	c := t.Border
	if m.focus == focusDrawer || m.drag.active {
		c = t.Primary
	}
	return lipgloss.NewStyle().Foreground(c).Render(strings.Repeat("─", m.width))
}

func (m *Model) footerView() string {
	if m.searching {
		return m.search.View()
	}
	t := styles.CurrentTheme()
	bindings := m.keyMap.KeyBindings()
	help := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		help = append(help, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	if m.query != "" {
		help = append([]string{fmt.Sprintf("filter %q", m.query)}, help...)
	}
	return ansi.Truncate(t.Muted.Render(strings.Join(help, " • ")), m.width, "…")
}
