package vstack

import (
	"github.com/tujuhre12/vstack/internal/tui/exp/scroll"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

// ScrollFulfilledMsg is sent once per scroll request, after the surface has
// issued the scroll to Target.
type ScrollFulfilledMsg struct {
	SurfaceID string
	Target    section.Position
}

type EventKind int

const (
	ScrollBegin EventKind = iota
	Scrolled
	ScrollEnd
	DragBegin
	DragEnd
)

func (k EventKind) String() string {
	switch k {
	case ScrollBegin:
		return "scroll-begin"
	case Scrolled:
		return "scrolled"
	case ScrollEnd:
		return "scroll-end"
	case DragBegin:
		return "drag-begin"
	case DragEnd:
		return "drag-end"
	}
	return "unknown"
}

// ScrollEventMsg reports raw viewport state. Surfaces only emit it when built
// with WithScrollEvents.
type ScrollEventMsg struct {
	SurfaceID string
	Kind      EventKind
	State     ViewportState
}

// ViewportState is the physical scroll state of a surface. Offset counts
// lines from the anchor edge: the top, or the bottom when inverted.
type ViewportState struct {
	Offset        int
	MaxOffset     int
	ContentHeight int
	Width         int
	Height        int
	Inverted      bool
	Dragging      bool
	Animating     bool
}

// AtStart reports whether the anchor edge is in view.
func (s ViewportState) AtStart() bool { return s.Offset <= 0 }

// AtEnd reports whether the far edge is in view.
func (s ViewportState) AtEnd() bool { return s.Offset >= s.MaxOffset }

type (
	scrollDueMsg struct {
		surface string
		ticket  scroll.Ticket
	}
	settleMsg struct {
		surface string
	}
	animTickMsg struct {
		surface string
		gen     int
	}
	flashTickMsg struct {
		surface string
		gen     int
	}
)
