// Package vstack renders sectioned collections as a recycled, virtually
// scrolled bubbletea model.
package vstack

import (
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/tujuhre12/vstack/internal/tui/exp/diff"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/scroll"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"github.com/tujuhre12/vstack/internal/tui/util"
)

type Surface[K section.Key, T section.Item[T]] interface {
	util.Model
	SetSize(width, height int) tea.Cmd
	GetSize() (int, int)
	// SetOrigin places the surface on screen for mouse hit testing.
	SetOrigin(x, y int)
	Focus() tea.Cmd
	Blur() tea.Cmd
	IsFocused() bool

	ID() string
	SetSnapshot(next section.Snapshot[K, T], animated bool) tea.Cmd
	SetSections(sections []section.Section[K, T], animated bool) tea.Cmd
	Snapshot() section.Snapshot[K, T]
	SetInverted(bool) tea.Cmd
	Inverted() bool

	ScrollTo(scroll.Request) tea.Cmd
	PendingScroll() (scroll.Request, bool)
	IsValidPosition(section.Position) bool
	VisibleRange() (first, last section.Position, ok bool)
	Offset() int
	ViewportState() ViewportState
	Dragging() bool

	MoveUp(int) tea.Cmd
	MoveDown(int) tea.Cmd
	GoToTop() tea.Cmd
	GoToBottom() tea.Cmd

	PoolStats(pool.Class) pool.Stats
}

// ItemTemplate renders one item. It must not keep state between calls: its
// result is bound to whatever container the pool lends.
type ItemTemplate[T any] func(pos section.Position, item T) string

// SupplementaryTemplate builds the tree hosted by a header or footer. It is
// called lazily, the first time the container becomes visible. A nil tree
// leaves the container empty. Positions carry the section index only.
type SupplementaryTemplate func(kind pool.Class, pos section.Position) pool.Tree

// WillDisplay is called whenever an item container is bound for display.
type WillDisplay func(pos section.Position, c *pool.Container)

const DefaultOverscan = 2

type confOptions struct {
	width, height int
	gap           int
	inverted      bool
	keyMap        KeyMap
	focused       bool
	enableMouse   bool
	events        bool
	animation     bool
	strict        bool
	settle        bool
	overscan      int
	id            string

	supplementary SupplementaryTemplate
	layoutPolicy  LayoutPolicy
	gesture       GesturePredicate
	willDisplay   WillDisplay
}

type Option func(*confOptions)

// WithSize sets the size of the surface.
func WithSize(width, height int) Option {
	return func(o *confOptions) {
		o.width = width
		o.height = height
	}
}

// WithGap sets the gap between items when no layout policy is set.
func WithGap(gap int) Option {
	return func(o *confOptions) {
		o.gap = gap
	}
}

// WithInverted flips the surface so the first item sits at the bottom and
// offset 0 is the bottom edge.
func WithInverted(inverted bool) Option {
	return func(o *confOptions) {
		o.inverted = inverted
	}
}

func WithSupplementary(tmpl SupplementaryTemplate) Option {
	return func(o *confOptions) {
		o.supplementary = tmpl
	}
}

// WithSectionLayout sets the policy consulted once per section per layout
// pass.
func WithSectionLayout(policy LayoutPolicy) Option {
	return func(o *confOptions) {
		o.layoutPolicy = policy
	}
}

// WithGesturePredicate decides whether a drag belongs to the surface. A nil
// predicate accepts every drag that starts inside the surface.
func WithGesturePredicate(pred GesturePredicate) Option {
	return func(o *confOptions) {
		o.gesture = pred
	}
}

func WithWillDisplay(fn WillDisplay) Option {
	return func(o *confOptions) {
		o.willDisplay = fn
	}
}

// WithScrollEvents makes the surface emit ScrollEventMsg.
func WithScrollEvents() Option {
	return func(o *confOptions) {
		o.events = true
	}
}

func WithKeyMap(keyMap KeyMap) Option {
	return func(o *confOptions) {
		o.keyMap = keyMap
	}
}

// WithAnimation enables or disables animated edits and scrolls.
func WithAnimation(enabled bool) Option {
	return func(o *confOptions) {
		o.animation = enabled
	}
}

// WithStrictDiff reconciles every snapshot, even when its hash matches the
// current one.
func WithStrictDiff() Option {
	return func(o *confOptions) {
		o.strict = true
	}
}

// WithoutSettle skips the one-time settle pass after the first sized render.
func WithoutSettle() Option {
	return func(o *confOptions) {
		o.settle = false
	}
}

func WithID(id string) Option {
	return func(o *confOptions) {
		o.id = id
	}
}

func WithFocus(focus bool) Option {
	return func(o *confOptions) {
		o.focused = focus
	}
}

func WithEnableMouse() Option {
	return func(o *confOptions) {
		o.enableMouse = true
	}
}

// WithOverscan sets how many rows beyond each edge keep their containers.
func WithOverscan(rows int) Option {
	return func(o *confOptions) {
		o.overscan = max(rows, 0)
	}
}

type surface[K section.Key, T section.Item[T]] struct {
	*confOptions

	template ItemTemplate[T]
	pool     *pool.Pool
	coord    scroll.Coordinator

	snap    section.Snapshot[K, T]
	hasSnap bool
	vp      viewport[K, T]

	rows          []row[K, T]
	itemRowBase   []int
	contentHeight int
	layoutDirty   bool
	bound         map[slotRef]**pool.Container

	offset           int
	originX, originY int
	hasSettled       bool
	anim             animation
	drag             dragState
	flashing         []*element[T]
	flashGen         int

	renderMu sync.Mutex
	rendered string
}

// New returns a surface rendering items with tmpl. A nil tmpl renders an
// item's View, SearchText or ID, whichever it has first.
func New[K section.Key, T section.Item[T]](tmpl ItemTemplate[T], opts ...Option) Surface[K, T] {
	s := &surface[K, T]{
		confOptions: &confOptions{
			keyMap:    DefaultKeyMap(),
			focused:   true,
			animation: true,
			settle:    true,
			overscan:  DefaultOverscan,
		},
		template:    tmpl,
		pool:        pool.New(),
		snap:        section.NewSnapshot[K, T](),
		layoutDirty: true,
		bound:       make(map[slotRef]**pool.Container),
	}
	for _, opt := range opts {
		opt(s.confOptions)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.template == nil {
		s.template = defaultTemplate[T]
	}
	s.pool.Register(pool.ItemClass, nil)
	s.pool.Register(pool.HeaderClass, nil)
	s.pool.Register(pool.FooterClass, nil)
	s.vp.pool = s.pool
	s.vp.cache = newRenderCache[T]()
	return s
}

func defaultTemplate[T section.Item[T]](_ section.Position, item T) string {
	switch v := any(item).(type) {
	case interface{ View() string }:
		return v.View()
	case section.Searchable:
		return v.SearchText()
	}
	return item.ID()
}

// Init implements Surface.
func (s *surface[K, T]) Init() tea.Cmd {
	return s.pass()
}

// Update implements Surface.
func (s *surface[K, T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scrollDueMsg:
		if msg.surface == s.id {
			return s, s.executeScroll(msg.ticket)
		}
	case settleMsg:
		if msg.surface == s.id {
			s.settleNow()
		}
	case animTickMsg:
		if msg.surface == s.id {
			return s, s.animStep(msg.gen)
		}
	case flashTickMsg:
		if msg.surface == s.id {
			return s, s.flashStep(msg.gen)
		}
	case tea.MouseWheelMsg:
		if s.enableMouse && s.contains(msg.X, msg.Y) {
			return s, s.handleMouseWheel(msg)
		}
	case tea.MouseClickMsg:
		if s.enableMouse {
			return s, s.handleMouseClick(msg)
		}
	case tea.MouseMotionMsg:
		if s.enableMouse {
			return s, s.handleMouseMotion(msg)
		}
	case tea.MouseReleaseMsg:
		if s.enableMouse {
			return s, s.handleMouseRelease(msg)
		}
	case tea.KeyPressMsg:
		if s.focused {
			switch {
			case key.Matches(msg, s.keyMap.Down):
				return s, s.MoveDown(1)
			case key.Matches(msg, s.keyMap.Up):
				return s, s.MoveUp(1)
			case key.Matches(msg, s.keyMap.HalfPageDown):
				return s, s.MoveDown(s.height / 2)
			case key.Matches(msg, s.keyMap.HalfPageUp):
				return s, s.MoveUp(s.height / 2)
			case key.Matches(msg, s.keyMap.PageDown):
				return s, s.MoveDown(s.height)
			case key.Matches(msg, s.keyMap.PageUp):
				return s, s.MoveUp(s.height)
			case key.Matches(msg, s.keyMap.End):
				return s, s.GoToBottom()
			case key.Matches(msg, s.keyMap.Home):
				return s, s.GoToTop()
			}
		}
	}
	return s, nil
}

// View implements Surface.
func (s *surface[K, T]) View() string {
	if s.width <= 0 || s.height <= 0 {
		return ""
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.rendered
}

func (s *surface[K, T]) SetSize(width, height int) tea.Cmd {
	if s.width == width && s.height == height {
		return nil
	}
	if s.width != width {
		s.vp.cache.reset()
	}
	s.width = width
	s.height = height
	s.layoutDirty = true
	return s.pass()
}

func (s *surface[K, T]) GetSize() (int, int) {
	return s.width, s.height
}

func (s *surface[K, T]) SetOrigin(x, y int) {
	s.originX = x
	s.originY = y
}

func (s *surface[K, T]) Focus() tea.Cmd {
	s.focused = true
	return nil
}

func (s *surface[K, T]) Blur() tea.Cmd {
	s.focused = false
	return nil
}

func (s *surface[K, T]) IsFocused() bool {
	return s.focused
}

func (s *surface[K, T]) ID() string {
	return s.id
}

// SetSnapshot makes next the displayed data. The change is diffed against the
// current snapshot and replayed onto the live viewport in one batch, so
// unchanged items keep their containers. A snapshot with the same structural
// hash is not diffed at all unless the surface was built WithStrictDiff.
func (s *surface[K, T]) SetSnapshot(next section.Snapshot[K, T], animated bool) tea.Cmd {
	if s.hasSnap && !s.strict && next.Hash() == s.snap.Hash() {
		return s.pass()
	}
	animated = animated && s.animation && s.hasSnap

	script := diff.Reconcile(s.snap, next)
	flashed := s.vp.batch(script, next, animated)
	s.snap = next
	s.hasSnap = true
	if !script.Empty() {
		s.layoutDirty = true
	}
	if dropped := s.pool.Trim(s.idleCap()); dropped > 0 {
		slog.Debug("Trimmed idle containers", "surface", s.id, "dropped", dropped)
	}
	slog.Debug("Applied edit script",
		"surface", s.id,
		"edits", len(script),
		"inserts", script.Count(diff.InsertItem),
		"removes", script.Count(diff.RemoveItem),
		"moves", script.Count(diff.MoveItem),
		"reloads", script.Count(diff.ReloadItem),
		"animated", animated,
	)

	var cmds []tea.Cmd
	if len(flashed) > 0 {
		cmds = append(cmds, s.startFlash(flashed))
	}
	cmds = append(cmds, s.pass())
	return tea.Batch(cmds...)
}

func (s *surface[K, T]) SetSections(sections []section.Section[K, T], animated bool) tea.Cmd {
	return s.SetSnapshot(section.NewSnapshot(sections...), animated)
}

func (s *surface[K, T]) Snapshot() section.Snapshot[K, T] {
	return s.snap
}

func (s *surface[K, T]) SetInverted(inverted bool) tea.Cmd {
	if s.inverted == inverted {
		return nil
	}
	s.inverted = inverted
	s.layoutDirty = true
	return s.pass()
}

func (s *surface[K, T]) Inverted() bool {
	return s.inverted
}

// IsValidPosition checks pos against the live viewport.
func (s *surface[K, T]) IsValidPosition(pos section.Position) bool {
	return s.vp.valid(pos)
}

func (s *surface[K, T]) PoolStats(c pool.Class) pool.Stats {
	return s.pool.Stats(c)
}

func (s *surface[K, T]) Dragging() bool {
	return s.drag.active
}

// pass renders and then checks the pending scroll request, scheduling it for
// the next event loop iteration when its target is valid.
func (s *surface[K, T]) pass() tea.Cmd {
	cmds := []tea.Cmd{s.render()}
	if t, ok := s.coord.OnRenderPass(s.IsValidPosition); ok {
		cmds = append(cmds, util.CmdHandler(scrollDueMsg{surface: s.id, ticket: t}))
	}
	return tea.Batch(cmds...)
}

// idleCap is how many idle containers per class survive an edit batch: one
// screen and its overscan.
func (s *surface[K, T]) idleCap() int {
	return max(s.height, 1) + 2*s.overscan
}

func (s *surface[K, T]) event(kind EventKind) tea.Cmd {
	if !s.events {
		return nil
	}
	return util.CmdHandler(ScrollEventMsg{SurfaceID: s.id, Kind: kind, State: s.ViewportState()})
}
