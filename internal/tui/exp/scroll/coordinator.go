// Package scroll coordinates deferred scroll-to-item requests.
package scroll

import (
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

// State of a Coordinator.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Request asks a surface to bring Target into view.
type Request struct {
	Target   section.Position
	Animated bool
}

// Ticket is a request that passed validation on a render pass and is
// scheduled for execution once layout settles.
type Ticket struct {
	Request
	gen uint64
}

// Coordinator holds at most one scroll request. A request stays pending
// until a render pass finds its target valid; a newer request replaces an
// older one, and the older one is never signalled as fulfilled.
type Coordinator struct {
	state     State
	pending   Request
	gen       uint64
	fulfilled uint64
}

// Request replaces any pending or scheduled request with r.
func (c *Coordinator) Request(r Request) {
	c.gen++
	c.pending = r
	c.state = Pending
}

// Cancel drops the current request without signalling it.
func (c *Coordinator) Cancel() {
	c.gen++
	c.pending = Request{}
	c.state = Idle
}

func (c *Coordinator) State() State { return c.state }

// Pending returns the pending request, if any.
func (c *Coordinator) Pending() (Request, bool) {
	return c.pending, c.state == Pending
}

// OnRenderPass checks the pending request against valid. When the target is
// valid the coordinator goes idle and returns a ticket to execute on the
// next event loop iteration. An invalid target keeps the request pending for
// the next pass.
func (c *Coordinator) OnRenderPass(valid func(section.Position) bool) (Ticket, bool) {
	if c.state != Pending || !valid(c.pending.Target) {
		return Ticket{}, false
	}
	c.state = Idle
	return Ticket{Request: c.pending, gen: c.gen}, true
}

// Execute is called when a ticket comes due. It returns true when the
// caller must issue the scroll and then signal fulfilment. A ticket that was
// superseded, already executed, or whose target went stale in the meantime
// returns false; a stale target goes back to pending.
func (c *Coordinator) Execute(t Ticket, valid func(section.Position) bool) bool {
	if t.gen != c.gen || t.gen == c.fulfilled {
		return false
	}
	if !valid(t.Target) {
		c.pending = t.Request
		c.state = Pending
		return false
	}
	c.fulfilled = t.gen
	c.pending = Request{}
	return true
}
