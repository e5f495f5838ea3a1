package vstack

import (
	"github.com/tujuhre12/vstack/internal/csync"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

type renderedItem struct {
	hash    uint64
	width   int
	pos     section.Position
	content string
}

// renderCache holds template output by item ID. Only items that report a
// content hash are cached; an entry is valid for the hash, width and
// position it was rendered with.
type renderCache[T section.Item[T]] struct {
	items *csync.Map[string, renderedItem]
}

func newRenderCache[T section.Item[T]]() *renderCache[T] {
	return &renderCache[T]{items: csync.NewMap[string, renderedItem]()}
}

func (c *renderCache[T]) render(tmpl ItemTemplate[T], pos section.Position, item T, width int) string {
	h, ok := any(item).(section.ContentHasher)
	if !ok {
		return tmpl(pos, item)
	}
	id, hash := item.ID(), h.ContentHash()
	if r, ok := c.items.Get(id); ok && r.hash == hash && r.width == width && r.pos == pos {
		return r.content
	}
	content := tmpl(pos, item)
	c.items.Set(id, renderedItem{hash: hash, width: width, pos: pos, content: content})
	return content
}

func (c *renderCache[T]) evict(id string) {
	c.items.Del(id)
}

func (c *renderCache[T]) reset() {
	c.items.Reset()
}

func (c *renderCache[T]) len() int {
	return c.items.Len()
}
