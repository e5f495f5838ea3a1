package vstack

import (
	"log/slog"
	"slices"

	"github.com/tujuhre12/vstack/internal/tui/exp/diff"
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

// flashFrames is how many flash ticks an animated insert or reload stays
// highlighted.
const flashFrames = 3

// element is one item on the live surface. Its slot number is unique per
// surface, so repeated identities never share a container.
type element[T any] struct {
	slot      uint64
	id        string
	item      T
	height    int
	container *pool.Container
	dirty     bool
	flash     int
}

type liveSection[K any, T any] struct {
	slot   uint64
	key    K
	items  []*element[T]
	header *pool.Container
	footer *pool.Container
	// supplementary content depends on the section index
	dirty bool
}

// viewport is the live structure shown by a surface. Edit scripts are
// replayed against it in one batch, so it implements diff.Target.
type viewport[K section.Key, T section.Item[T]] struct {
	pool     *pool.Pool
	cache    *renderCache[T]
	sections []*liveSection[K, T]
	nextSlot uint64

	// batch state
	next     section.Snapshot[K, T]
	animated bool
	flashed  []*element[T]
}

var _ diff.Target = (*viewport[section.StringKey, section.TextItem])(nil)

func (v *viewport[K, T]) slot() uint64 {
	v.nextSlot++
	return v.nextSlot
}

// batch replays script so the viewport shows next, and returns the elements
// to highlight when animated. A viewport that does not match next afterwards
// is rebuilt from scratch.
func (v *viewport[K, T]) batch(script diff.Script, next section.Snapshot[K, T], animated bool) []*element[T] {
	v.next = next
	v.animated = animated
	v.flashed = nil
	defer func() {
		v.next = section.Snapshot[K, T]{}
		v.animated = false
	}()

	diff.Apply(script, v)
	if !v.matches(next) {
		slog.Error("Viewport diverged from snapshot, reloading", "edits", len(script))
		v.reload(next)
		return nil
	}
	for si, ls := range v.sections {
		for ii, el := range ls.items {
			el.item = next.Items(si)[ii]
		}
	}
	return v.flashed
}

func (v *viewport[K, T]) matches(next section.Snapshot[K, T]) bool {
	if len(v.sections) != next.Len() {
		return false
	}
	for si, ls := range v.sections {
		if ls.key != next.Key(si) || len(ls.items) != next.ItemCount(si) {
			return false
		}
		for ii, item := range next.Items(si) {
			if ls.items[ii].id != item.ID() {
				return false
			}
		}
	}
	return true
}

// reload drops every element and builds the viewport from next.
func (v *viewport[K, T]) reload(next section.Snapshot[K, T]) {
	for _, ls := range v.sections {
		v.releaseSection(ls)
	}
	v.sections = make([]*liveSection[K, T], 0, next.Len())
	for si := range next.Len() {
		ls := &liveSection[K, T]{slot: v.slot(), key: next.Key(si)}
		for _, item := range next.Items(si) {
			ls.items = append(ls.items, &element[T]{slot: v.slot(), id: item.ID(), item: item})
		}
		v.sections = append(v.sections, ls)
	}
}

func (v *viewport[K, T]) release(c **pool.Container) {
	if *c != nil {
		v.pool.Release(*c)
		*c = nil
	}
}

func (v *viewport[K, T]) releaseSection(ls *liveSection[K, T]) {
	v.release(&ls.header)
	v.release(&ls.footer)
	for _, el := range ls.items {
		v.release(&el.container)
		v.cache.evict(el.id)
	}
}

func (v *viewport[K, T]) markSupplementary() {
	for _, ls := range v.sections {
		ls.dirty = true
	}
}

func (v *viewport[K, T]) InsertSection(index int) {
	ls := &liveSection[K, T]{slot: v.slot(), key: v.next.Key(index)}
	v.sections = slices.Insert(v.sections, index, ls)
	v.markSupplementary()
}

func (v *viewport[K, T]) RemoveSection(index int) {
	v.releaseSection(v.sections[index])
	v.sections = slices.Delete(v.sections, index, index+1)
	v.markSupplementary()
}

func (v *viewport[K, T]) MoveSection(from, to int) {
	ls := v.sections[from]
	v.sections = slices.Delete(v.sections, from, from+1)
	v.sections = slices.Insert(v.sections, to, ls)
	v.markSupplementary()
}

func (v *viewport[K, T]) InsertItem(sec, index int) {
	item := v.next.Items(sec)[index]
	el := &element[T]{slot: v.slot(), id: item.ID(), item: item}
	ls := v.sections[sec]
	ls.items = slices.Insert(ls.items, index, el)
	v.flash(el)
}

func (v *viewport[K, T]) RemoveItem(sec, index int) {
	ls := v.sections[sec]
	v.release(&ls.items[index].container)
	v.cache.evict(ls.items[index].id)
	ls.items = slices.Delete(ls.items, index, index+1)
}

func (v *viewport[K, T]) MoveItem(fromSec, fromIndex, toSec, toIndex int) {
	src := v.sections[fromSec]
	el := src.items[fromIndex]
	src.items = slices.Delete(src.items, fromIndex, fromIndex+1)
	dst := v.sections[toSec]
	dst.items = slices.Insert(dst.items, toIndex, el)
	// the template receives the position, so moved content is rebound
	el.dirty = true
}

func (v *viewport[K, T]) ReloadItem(sec, index int) {
	el := v.sections[sec].items[index]
	el.item = v.next.Items(sec)[index]
	el.height = 0
	el.dirty = true
	v.flash(el)
}

func (v *viewport[K, T]) flash(el *element[T]) {
	if !v.animated {
		return
	}
	if el.flash == 0 {
		v.flashed = append(v.flashed, el)
	}
	el.flash = flashFrames
}

func (v *viewport[K, T]) valid(pos section.Position) bool {
	return pos.Section >= 0 && pos.Section < len(v.sections) &&
		pos.Item >= 0 && pos.Item < len(v.sections[pos.Section].items)
}

func (v *viewport[K, T]) itemCount() int {
	n := 0
	for _, ls := range v.sections {
		n += len(ls.items)
	}
	return n
}
