// Package pool lends reusable containers keyed by reuse class.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrReset wraps failures of a container's reset hook.
var ErrReset = errors.New("container reset failed")

// ResetFunc is a per-class teardown run on every release, after the
// container's own bindings are cleared.
type ResetFunc func(*Container) error

// Stats are the counters of one reuse class.
type Stats struct {
	Live      int
	Idle      int
	Created   int
	Reused    int
	Discarded int
}

type class struct {
	reset ResetFunc
	free  []*Container
	stats Stats
}

// Pool hands out containers and takes them back. Free lists grow without
// bound; live containers are bounded by what the caller keeps on screen.
type Pool struct {
	mu      sync.Mutex
	classes map[Class]*class
	nextID  uint64
}

func New() *Pool {
	return &Pool{classes: make(map[Class]*class)}
}

// Register declares a reuse class. reset may be nil.
func (p *Pool) Register(c Class, reset ResetFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cl, ok := p.classes[c]; ok {
		cl.reset = reset
		return
	}
	p.classes[c] = &class{reset: reset}
}

// Acquire returns an idle container of class c, or a new one. The container
// carries no binding from a previous use. Acquiring an unregistered class, or
// finding a container of another class on the free list, panics: recycling it
// would corrupt whatever it is bound to next.
func (p *Pool) Acquire(c Class) *Container {
	p.mu.Lock()
	defer p.mu.Unlock()
	cl, ok := p.classes[c]
	if !ok {
		panic(fmt.Sprintf("pool: acquire of unregistered reuse class %q", c))
	}

	var ctr *Container
	if n := len(cl.free); n > 0 {
		ctr = cl.free[n-1]
		cl.free[n-1] = nil
		cl.free = cl.free[:n-1]
		cl.stats.Idle--
		cl.stats.Reused++
		if ctr.class != c {
			panic(fmt.Sprintf("pool: container %d of class %q on the %q free list", ctr.id, ctr.class, c))
		}
	} else {
		p.nextID++
		ctr = &Container{id: p.nextID, class: c, pool: p}
		cl.stats.Created++
	}
	ctr.live = true
	cl.stats.Live++
	return ctr
}

// Release resets ctr and returns it to its free list. If the reset fails the
// container is dropped instead of being recycled half cleared.
func (p *Pool) Release(ctr *Container) {
	if ctr == nil {
		return
	}
	if ctr.pool != p {
		panic(fmt.Sprintf("pool: container %d released to a pool that did not create it", ctr.id))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cl := p.classes[ctr.class]
	if !ctr.live {
		slog.Warn("Container released twice", "container", ctr.id, "class", ctr.class)
		return
	}
	ctr.live = false
	cl.stats.Live--

	err := ctr.reset()
	if err == nil && cl.reset != nil {
		if hookErr := cl.reset(ctr); hookErr != nil {
			err = errors.Join(ErrReset, hookErr)
		}
	}
	if err != nil {
		slog.Warn("Discarding container", "container", ctr.id, "class", ctr.class, "error", err)
		cl.stats.Discarded++
		return
	}
	cl.free = append(cl.free, ctr)
	cl.stats.Idle++
}

// Trim drops idle containers beyond keep in every class and returns how many
// were dropped.
func (p *Pool) Trim(keep int) int {
	keep = max(keep, 0)
	p.mu.Lock()
	defer p.mu.Unlock()
	dropped := 0
	for _, cl := range p.classes {
		if len(cl.free) <= keep {
			continue
		}
		n := len(cl.free) - keep
		clear(cl.free[keep:])
		cl.free = cl.free[:keep]
		cl.stats.Idle -= n
		dropped += n
	}
	return dropped
}

// Stats returns the counters of class c.
func (p *Pool) Stats(c Class) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cl, ok := p.classes[c]; ok {
		return cl.stats
	}
	return Stats{}
}

// Live counts containers acquired and not yet released, across classes.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, cl := range p.classes {
		n += cl.stats.Live
	}
	return n
}
