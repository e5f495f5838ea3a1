package vstack

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/scroll"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"github.com/tujuhre12/vstack/internal/tui/util"
)

const (
	// DefaultScrollSize is how many lines a wheel step scrolls.
	DefaultScrollSize = 2

	animFrame  = time.Second / 60
	flashFrame = 120 * time.Millisecond
)

type animation struct {
	active bool
	gen    int
	target section.Position
}

// ScrollTo replaces any pending request with req. The request is checked on
// every render pass and executed, on the following event loop iteration,
// once its target exists.
func (s *surface[K, T]) ScrollTo(req scroll.Request) tea.Cmd {
	s.coord.Request(req)
	return s.pass()
}

func (s *surface[K, T]) PendingScroll() (scroll.Request, bool) {
	return s.coord.Pending()
}

func (s *surface[K, T]) executeScroll(t scroll.Ticket) tea.Cmd {
	if !s.coord.Execute(t, s.IsValidPosition) {
		return nil
	}
	var cmd tea.Cmd
	if t.Animated && s.animation {
		cmd = s.animateTo(t.Target)
	} else {
		cmd = tea.Batch(s.stopAnim(), s.jumpTo(t.Target))
	}
	slog.Debug("Scrolled to item", "surface", s.id, "target", t.Target, "animated", t.Animated)
	return tea.Batch(cmd, util.CmdHandler(ScrollFulfilledMsg{SurfaceID: s.id, Target: t.Target}))
}

// targetOffset is the offset that centers pos in the viewport. Items taller
// than the viewport are aligned to their first line.
func (s *surface[K, T]) targetOffset(pos section.Position) (int, bool) {
	if !s.vp.valid(pos) {
		return 0, false
	}
	if s.layoutDirty {
		s.layout()
	}
	r := s.rows[s.itemRowBase[pos.Section]+pos.Item]
	off := r.start
	if r.height < s.height {
		off -= (s.height - r.height) / 2
	}
	return min(max(off, 0), s.maxOffset()), true
}

// jumpTo scrolls to pos without animation. Rendering may measure rows around
// the target, so the offset is recomputed until it is stable.
func (s *surface[K, T]) jumpTo(pos section.Position) tea.Cmd {
	old := s.offset
	var cmds []tea.Cmd
	for range maxPasses {
		off, ok := s.targetOffset(pos)
		if !ok || off == s.offset {
			break
		}
		s.offset = off
		cmds = append(cmds, s.render())
	}
	if s.offset != old {
		cmds = append(cmds, s.event(Scrolled))
	}
	return tea.Batch(cmds...)
}

func (s *surface[K, T]) animateTo(pos section.Position) tea.Cmd {
	s.anim.gen++
	begin := !s.anim.active
	s.anim.active = true
	s.anim.target = pos
	var cmds []tea.Cmd
	if begin {
		cmds = append(cmds, s.event(ScrollBegin))
	}
	cmds = append(cmds, s.animTick())
	return tea.Batch(cmds...)
}

func (s *surface[K, T]) animTick() tea.Cmd {
	id, gen := s.id, s.anim.gen
	return tea.Tick(animFrame, func(time.Time) tea.Msg {
		return animTickMsg{surface: id, gen: gen}
	})
}

// animStep moves a third of the remaining distance, at least one line.
func (s *surface[K, T]) animStep(gen int) tea.Cmd {
	if !s.anim.active || gen != s.anim.gen {
		return nil
	}
	target, ok := s.targetOffset(s.anim.target)
	if !ok || target == s.offset {
		return s.stopAnim()
	}
	d := target - s.offset
	step := d / 3
	if step == 0 {
		step = 1
		if d < 0 {
			step = -1
		}
	}
	s.offset += step
	return tea.Batch(s.render(), s.event(Scrolled), s.animTick())
}

func (s *surface[K, T]) stopAnim() tea.Cmd {
	if !s.anim.active {
		return nil
	}
	s.anim.active = false
	s.anim.gen++
	return s.event(ScrollEnd)
}

// settleNow runs once, after the first sized render: it lays the far edge
// out and returns to the anchor, so later scroll targets see measured rows.
func (s *surface[K, T]) settleNow() {
	anchor := s.offset
	s.offset = s.maxOffset()
	s.render()
	s.offset = anchor
	s.render()
	slog.Debug("Surface settled", "surface", s.id, "content_height", s.contentHeight)
}

func (s *surface[K, T]) setOffset(offset int) tea.Cmd {
	old := s.offset
	s.offset = offset
	cmd := s.render()
	if s.width <= 0 || s.height <= 0 {
		s.offset = max(offset, 0)
	}
	if s.offset == old {
		return cmd
	}
	return tea.Batch(cmd, s.event(Scrolled))
}

// scrollBy moves the viewport n lines visually down.
func (s *surface[K, T]) scrollBy(n int) tea.Cmd {
	stop := s.stopAnim()
	if s.inverted {
		n = -n
	}
	return tea.Batch(stop, s.setOffset(s.offset+n))
}

func (s *surface[K, T]) MoveDown(n int) tea.Cmd {
	return s.scrollBy(n)
}

func (s *surface[K, T]) MoveUp(n int) tea.Cmd {
	return s.scrollBy(-n)
}

func (s *surface[K, T]) GoToTop() tea.Cmd {
	stop := s.stopAnim()
	if s.inverted {
		return tea.Batch(stop, s.setOffset(s.maxOffset()))
	}
	return tea.Batch(stop, s.setOffset(0))
}

func (s *surface[K, T]) GoToBottom() tea.Cmd {
	stop := s.stopAnim()
	if s.inverted {
		return tea.Batch(stop, s.setOffset(0))
	}
	return tea.Batch(stop, s.setOffset(s.maxOffset()))
}

func (s *surface[K, T]) Offset() int {
	return s.offset
}

func (s *surface[K, T]) ViewportState() ViewportState {
	return ViewportState{
		Offset:        s.offset,
		MaxOffset:     s.maxOffset(),
		ContentHeight: s.contentHeight,
		Width:         s.width,
		Height:        s.height,
		Inverted:      s.inverted,
		Dragging:      s.drag.active,
		Animating:     s.anim.active,
	}
}

// VisibleRange returns the first and last item in view, in data order.
func (s *surface[K, T]) VisibleRange() (first, last section.Position, ok bool) {
	if s.layoutDirty {
		s.layout()
	}
	lo, hi := s.viewPosition()
	i, j := s.rowsIn(lo, hi)
	for _, r := range s.rows[i:j] {
		if r.kind != pool.ItemClass {
			continue
		}
		pos := section.Position{Section: r.sec, Item: r.item}
		if !ok {
			first, ok = pos, true
		}
		last = pos
	}
	return first, last, ok
}

func (s *surface[K, T]) startFlash(flashed []*element[T]) tea.Cmd {
	start := len(s.flashing) == 0
	s.flashing = append(s.flashing, flashed...)
	if !start {
		return nil
	}
	s.flashGen++
	return s.flashTick()
}

func (s *surface[K, T]) flashTick() tea.Cmd {
	id, gen := s.id, s.flashGen
	return tea.Tick(flashFrame, func(time.Time) tea.Msg {
		return flashTickMsg{surface: id, gen: gen}
	})
}

func (s *surface[K, T]) flashStep(gen int) tea.Cmd {
	if gen != s.flashGen {
		return nil
	}
	live := s.flashing[:0]
	for _, el := range s.flashing {
		if el.flash > 0 {
			el.flash--
		}
		if el.flash > 0 {
			live = append(live, el)
		}
	}
	clear(s.flashing[len(live):])
	s.flashing = live
	cmd := s.render()
	if len(s.flashing) == 0 {
		return cmd
	}
	return tea.Batch(cmd, s.flashTick())
}
