package vstack

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"github.com/tujuhre12/vstack/internal/tui/styles"
	"github.com/tujuhre12/vstack/internal/tui/util"
)

// Environment is what a layout policy sees of its surface.
type Environment struct {
	Width    int
	Height   int
	Inverted bool
}

// LayoutSpec sizes one section. Headers and footers exist only with a
// positive height. An ItemHeight of zero measures every item from its
// rendered content; a positive one clips or pads items to it.
type LayoutSpec struct {
	ItemHeight   int
	Gap          int
	HeaderHeight int
	FooterHeight int
	SectionGap   int
}

// LayoutPolicy returns the layout of section index.
type LayoutPolicy func(index int, env Environment) LayoutSpec

// maxPasses bounds the measure and relayout loop of one render.
const maxPasses = 4

type row[K any, T any] struct {
	kind     pool.Class
	sec      int
	item     int
	ls       *liveSection[K, T]
	el       *element[T]
	start    int
	height   int
	measured bool
}

func (r row[K, T]) end() int { return r.start + r.height - 1 }

type slotRef struct {
	slot uint64
	kind pool.Class
}

func (s *surface[K, T]) sectionSpec(index int, env Environment) LayoutSpec {
	if s.layoutPolicy != nil {
		return s.layoutPolicy(index, env)
	}
	return LayoutSpec{Gap: s.gap}
}

// layout lays every row out in logical order, top to bottom.
func (s *surface[K, T]) layout() {
	s.rows = s.rows[:0]
	s.itemRowBase = s.itemRowBase[:0]
	env := Environment{Width: s.width, Height: s.height, Inverted: s.inverted}
	y := 0
	for si, ls := range s.vp.sections {
		spec := s.sectionSpec(si, env)
		if spec.HeaderHeight > 0 {
			s.rows = append(s.rows, row[K, T]{kind: pool.HeaderClass, sec: si, ls: ls, start: y, height: spec.HeaderHeight})
			y += spec.HeaderHeight
		}
		s.itemRowBase = append(s.itemRowBase, len(s.rows))
		for ii, el := range ls.items {
			if ii > 0 {
				y += max(spec.Gap, 0)
			}
			h, measured := spec.ItemHeight, false
			if h <= 0 {
				h, measured = max(el.height, 1), true
			}
			s.rows = append(s.rows, row[K, T]{
				kind:     pool.ItemClass,
				sec:      si,
				item:     ii,
				ls:       ls,
				el:       el,
				start:    y,
				height:   h,
				measured: measured,
			})
			y += h
		}
		if spec.FooterHeight > 0 {
			s.rows = append(s.rows, row[K, T]{kind: pool.FooterClass, sec: si, ls: ls, start: y, height: spec.FooterHeight})
			y += spec.FooterHeight
		}
		if si < len(s.vp.sections)-1 {
			y += max(spec.SectionGap, 0)
		}
	}
	s.contentHeight = y
	s.layoutDirty = false
}

// rowsIn returns the range of rows overlapping lines lo through hi.
func (s *surface[K, T]) rowsIn(lo, hi int) (int, int) {
	i := sort.Search(len(s.rows), func(i int) bool { return s.rows[i].end() >= lo })
	j := sort.Search(len(s.rows), func(j int) bool { return s.rows[j].start > hi })
	return i, max(i, j)
}

func (s *surface[K, T]) viewPosition() (int, int) {
	return s.offset, s.offset + s.height - 1
}

func (s *surface[K, T]) maxOffset() int {
	return max(0, s.contentHeight-s.height)
}

func (s *surface[K, T]) clamp() {
	s.offset = min(max(s.offset, 0), s.maxOffset())
}

// render lays out, binds the visible rows and composes the view. The first
// sized render with content schedules the settle pass.
func (s *surface[K, T]) render() tea.Cmd {
	if s.width <= 0 || s.height <= 0 {
		return nil
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	for range maxPasses {
		if s.layoutDirty {
			s.layout()
		}
		s.clamp()
		if !s.bindVisible() {
			break
		}
		s.layoutDirty = true
	}
	if s.layoutDirty {
		s.layout()
		s.clamp()
		s.bindVisible()
	}
	s.rendered = s.compose()

	if s.settle && !s.hasSettled && s.vp.itemCount() > 0 {
		s.hasSettled = true
		return util.CmdHandler(settleMsg{surface: s.id})
	}
	return nil
}

// bindVisible gives a container to every row in view or in the overscan.
// Rows that left go back to the pool first, so the newcomers reuse them. It
// reports whether a measured height changed.
func (s *surface[K, T]) bindVisible() bool {
	for _, ls := range s.vp.sections {
		if ls.dirty {
			s.vp.release(&ls.header)
			s.vp.release(&ls.footer)
			ls.dirty = false
		}
	}

	lo, hi := s.viewPosition()
	i, j := s.rowsIn(lo, hi)
	i = max(0, i-s.overscan)
	j = min(len(s.rows), j+s.overscan)
	visible := s.rows[i:j]

	next := make(map[slotRef]**pool.Container, len(visible))
	for _, r := range visible {
		ref, slot := s.slotOf(r)
		next[ref] = slot
	}
	for ref, slot := range s.bound {
		if _, ok := next[ref]; !ok {
			s.vp.release(slot)
		}
	}
	s.bound = next

	var changed bool
	for _, r := range visible {
		_, slot := s.slotOf(r)
		if s.bindRow(r, slot) {
			changed = true
		}
	}
	return changed
}

func (s *surface[K, T]) slotOf(r row[K, T]) (slotRef, **pool.Container) {
	switch r.kind {
	case pool.HeaderClass:
		return slotRef{slot: r.ls.slot, kind: r.kind}, &r.ls.header
	case pool.FooterClass:
		return slotRef{slot: r.ls.slot, kind: r.kind}, &r.ls.footer
	}
	return slotRef{slot: r.el.slot, kind: r.kind}, &r.el.container
}

func (s *surface[K, T]) bindRow(r row[K, T], slot **pool.Container) bool {
	if r.kind != pool.ItemClass {
		if *slot == nil {
			*slot = s.bindSupplementary(r)
		}
		return false
	}

	pos := section.Position{Section: r.sec, Item: r.item}
	c := *slot
	switch {
	case c == nil:
		c = s.pool.Acquire(pool.ItemClass)
		c.Bind(s.vp.cache.render(s.template, pos, r.el.item, s.width))
		*slot = c
		r.el.dirty = false
		if s.willDisplay != nil {
			s.willDisplay(pos, c)
		}
	case r.el.dirty:
		content := s.vp.cache.render(s.template, pos, r.el.item, s.width)
		if err := c.Rebind(content); err != nil {
			slog.Warn("Failed to reset container on rebind", "surface", s.id, "container", c.ID(), "error", err)
			c.Bind(content)
		}
		r.el.dirty = false
		if s.willDisplay != nil {
			s.willDisplay(pos, c)
		}
	}

	if !r.measured {
		return false
	}
	h := c.Height()
	r.el.height = h
	return h != r.height
}

func (s *surface[K, T]) bindSupplementary(r row[K, T]) *pool.Container {
	c := s.pool.Acquire(r.kind)
	pos := section.Position{Section: r.sec}
	kind := r.kind
	tree := c.Host(func() pool.Tree {
		if s.supplementary == nil {
			if kind == pool.HeaderClass {
				return Text(r.ls.key.String())
			}
			return nil
		}
		return s.supplementary(kind, pos)
	})
	if tree != nil {
		c.Bind(tree.Render(s.width))
	} else {
		c.Bind("")
	}
	return c
}

// rowLines returns exactly r.height lines of r's content, in logical order.
func (s *surface[K, T]) rowLines(r row[K, T]) []string {
	var src []string
	if _, slot := s.slotOf(r); *slot != nil {
		c := *slot
		if tree := c.Tree(); tree != nil {
			src = strings.Split(tree.Render(s.width), "\n")
		} else {
			src = c.Lines()
		}
	}
	lines := make([]string, r.height)
	copy(lines, src)
	if s.inverted {
		slices.Reverse(lines)
	}
	return lines
}

// compose builds the visible lines. An inverted surface composes the flipped
// stream with each row's lines flipped back, then flips the whole window, so
// rows read bottom-up while their content stays upright.
func (s *surface[K, T]) compose() string {
	t := styles.CurrentTheme()
	lo, hi := s.viewPosition()
	i, j := s.rowsIn(lo, hi)

	lines := make([]string, 0, s.height)
	y := lo
	for _, r := range s.rows[i:j] {
		for ; y < r.start && y <= hi; y++ {
			lines = append(lines, "")
		}
		content := s.rowLines(r)
		for k := y - r.start; k < r.height && y <= hi; k++ {
			line := content[k]
			if r.el != nil && r.el.flash > 0 {
				line = t.Flash.Render(ansi.Strip(line))
			}
			lines = append(lines, line)
			y++
		}
	}
	for len(lines) < s.height {
		lines = append(lines, "")
	}
	if s.inverted {
		slices.Reverse(lines)
	}
	for k, line := range lines {
		lines[k] = fit(line, s.width)
	}
	return strings.Join(lines, "\n")
}

// fit truncates or pads line to exactly width cells.
func fit(line string, width int) string {
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return line
}
