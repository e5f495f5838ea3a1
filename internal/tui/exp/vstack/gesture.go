package vstack

import (
	tea "github.com/charmbracelet/bubbletea/v2"
)

type GestureKind int

const (
	GesturePan GestureKind = iota
)

// Gesture describes a drag that starts on the surface. X and Y are relative
// to the surface origin.
type Gesture struct {
	Kind   GestureKind
	X, Y   int
	Button tea.MouseButton
}

// GesturePredicate decides whether the surface owns a gesture. Returning
// false leaves it to whatever contains the surface, such as a draggable
// panel.
type GesturePredicate func(g Gesture, state ViewportState) bool

// AcceptAll is the default predicate.
func AcceptAll(Gesture, ViewportState) bool { return true }

type dragState struct {
	active      bool
	startY      int
	startOffset int
}

func (s *surface[K, T]) contains(x, y int) bool {
	return x >= s.originX && x < s.originX+s.width &&
		y >= s.originY && y < s.originY+s.height
}

func (s *surface[K, T]) handleMouseWheel(msg tea.MouseWheelMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.Button {
	case tea.MouseWheelDown:
		cmd = s.MoveDown(DefaultScrollSize)
	case tea.MouseWheelUp:
		cmd = s.MoveUp(DefaultScrollSize)
	}
	return cmd
}

func (s *surface[K, T]) handleMouseClick(msg tea.MouseClickMsg) tea.Cmd {
	if msg.Button != tea.MouseLeft || !s.contains(msg.X, msg.Y) {
		return nil
	}
	g := Gesture{Kind: GesturePan, X: msg.X - s.originX, Y: msg.Y - s.originY, Button: msg.Button}
	pred := s.gesture
	if pred == nil {
		pred = AcceptAll
	}
	if !pred(g, s.ViewportState()) {
		return nil
	}
	stop := s.stopAnim()
	s.drag = dragState{active: true, startY: msg.Y, startOffset: s.offset}
	return tea.Batch(stop, s.event(DragBegin))
}

// handleMouseMotion follows the pointer: content moves with the drag, so a
// downward drag reveals what is visually above.
func (s *surface[K, T]) handleMouseMotion(msg tea.MouseMotionMsg) tea.Cmd {
	if !s.drag.active {
		return nil
	}
	dy := msg.Y - s.drag.startY
	if s.inverted {
		return s.setOffset(s.drag.startOffset + dy)
	}
	return s.setOffset(s.drag.startOffset - dy)
}

func (s *surface[K, T]) handleMouseRelease(tea.MouseReleaseMsg) tea.Cmd {
	if !s.drag.active {
		return nil
	}
	s.drag = dragState{}
	return s.event(DragEnd)
}
