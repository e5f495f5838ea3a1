// Package section holds the immutable model a surface renders: sections of
// identified items, filtered by visibility into snapshots.
package section

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/zeebo/xxh3"
)

// Key identifies a section. Keys are drawn from a fixed, enumerable set and
// must be unique within a snapshot. String is used as the default header
// text.
type Key interface {
	comparable
	String() string
}

// Item is a value shown in a section. ID is its identity across snapshots;
// Equal compares content and decides whether a bound container must be
// rebound even though the identity is unchanged.
type Item[T any] interface {
	ID() string
	Equal(other T) bool
}

// Searchable items expose the text matched by Filter.
type Searchable interface {
	SearchText() string
}

// ContentHasher items contribute their content to Snapshot.Hash, so content
// only edits are not short-circuited.
type ContentHasher interface {
	ContentHash() uint64
}

// Position addresses an item by section and item index.
type Position struct {
	Section int `json:"section" yaml:"section"`
	Item    int `json:"item" yaml:"item"`
}

func (p Position) String() string {
	return fmt.Sprintf("[%d,%d]", p.Section, p.Item)
}

// Section is one section with its ordered items.
type Section[K Key, T Item[T]] struct {
	Key           K
	Items         []T
	ShowWhenEmpty bool
}

// Visible reports whether the section takes part in a snapshot.
func (s Section[K, T]) Visible() bool {
	return s.ShowWhenEmpty || len(s.Items) > 0
}

// Filter returns a copy of the section holding only the items whose search
// text contains query, ignoring case. Items that are not Searchable are
// matched on their ID. An empty query keeps every item.
func (s Section[K, T]) Filter(query string) Section[K, T] {
	if query == "" {
		return s
	}
	q := strings.ToLower(query)
	items := make([]T, 0, len(s.Items))
	for _, item := range s.Items {
		if strings.Contains(strings.ToLower(searchText(item)), q) {
			items = append(items, item)
		}
	}
	return Section[K, T]{Key: s.Key, Items: items, ShowWhenEmpty: s.ShowWhenEmpty}
}

// FuzzyFilter is like Filter but keeps fuzzy matches, best match first.
func (s Section[K, T]) FuzzyFilter(query string) Section[K, T] {
	if query == "" {
		return s
	}
	matches := fuzzy.FindFrom(query, itemSource[T](s.Items))
	items := make([]T, 0, len(matches))
	for _, m := range matches {
		items = append(items, s.Items[m.Index])
	}
	return Section[K, T]{Key: s.Key, Items: items, ShowWhenEmpty: s.ShowWhenEmpty}
}

type itemSource[T any] []T

func (s itemSource[T]) String(i int) string { return searchText(s[i]) }
func (s itemSource[T]) Len() int { return len(s) }

func searchText(item any) string {
	if s, ok := item.(Searchable); ok {
		return s.SearchText()
	}
	if i, ok := item.(interface{ ID() string }); ok {
		return i.ID()
	}
	return ""
}

// Search applies Filter to every section.
func Search[K Key, T Item[T]](sections []Section[K, T], query string) []Section[K, T] {
	out := make([]Section[K, T], len(sections))
	for i, s := range sections {
		out[i] = s.Filter(query)
	}
	return out
}

// Snapshot is the ordered set of visible sections at one instant. It is
// built once and never mutated; slices returned by its accessors are
// read-only.
type Snapshot[K Key, T Item[T]] struct {
	sections []Section[K, T]
	hash     uint64
}

// NewSnapshot drops invisible sections and freezes the rest. Item slices
// are copied, so later edits by the owner do not leak in.
func NewSnapshot[K Key, T Item[T]](sections ...Section[K, T]) Snapshot[K, T] {
	visible := make([]Section[K, T], 0, len(sections))
	for _, s := range sections {
		if !s.Visible() {
			continue
		}
		items := make([]T, len(s.Items))
		copy(items, s.Items)
		visible = append(visible, Section[K, T]{Key: s.Key, Items: items, ShowWhenEmpty: s.ShowWhenEmpty})
	}
	snap := Snapshot[K, T]{sections: visible}
	snap.hash = snap.computeHash()
	return snap
}

// computeHash combines section keys and item identities, in order, plus
// content hashes where items provide them. Collisions are accepted: equal
// hashes are treated as "nothing changed".
func (s Snapshot[K, T]) computeHash() uint64 {
	h := xxh3.New()
	var buf [8]byte
	for _, sec := range s.sections {
		_, _ = h.WriteString(sec.Key.String())
		_, _ = h.Write([]byte{0x1e})
		for _, item := range sec.Items {
			_, _ = h.WriteString(item.ID())
			_, _ = h.Write([]byte{0x1f})
			if c, ok := any(item).(ContentHasher); ok {
				binary.LittleEndian.PutUint64(buf[:], c.ContentHash())
				_, _ = h.Write(buf[:])
			}
		}
		_, _ = h.Write([]byte{0x1d})
	}
	return h.Sum64()
}

// Hash is the structural hash of the snapshot.
func (s Snapshot[K, T]) Hash() uint64 { return s.hash }

// Len is the number of visible sections.
func (s Snapshot[K, T]) Len() int { return len(s.sections) }

// Key returns the key of section i.
func (s Snapshot[K, T]) Key(i int) K { return s.sections[i].Key }

// Items returns the items of section i.
func (s Snapshot[K, T]) Items(i int) []T { return s.sections[i].Items }

// ItemCount returns the number of items in section i, or -1 when i is out of
// range.
func (s Snapshot[K, T]) ItemCount(i int) int {
	if i < 0 || i >= len(s.sections) {
		return -1
	}
	return len(s.sections[i].Items)
}

// TotalItems counts the items across all sections.
func (s Snapshot[K, T]) TotalItems() int {
	n := 0
	for _, sec := range s.sections {
		n += len(sec.Items)
	}
	return n
}

// Valid reports whether pos addresses an item of this snapshot.
func (s Snapshot[K, T]) Valid(pos Position) bool {
	return pos.Section >= 0 && pos.Section < len(s.sections) &&
		pos.Item >= 0 && pos.Item < len(s.sections[pos.Section].Items)
}

// Item returns the item at pos.
func (s Snapshot[K, T]) Item(pos Position) (T, bool) {
	if !s.Valid(pos) {
		var zero T
		return zero, false
	}
	return s.sections[pos.Section].Items[pos.Item], true
}

// IndexOf finds the first position holding the identity id.
func (s Snapshot[K, T]) IndexOf(id string) (Position, bool) {
	for si, sec := range s.sections {
		for ii, item := range sec.Items {
			if item.ID() == id {
				return Position{Section: si, Item: ii}, true
			}
		}
	}
	return Position{}, false
}

// SectionIndex finds the index of the section with key k.
func (s Snapshot[K, T]) SectionIndex(k K) int {
	for i, sec := range s.sections {
		if sec.Key == k {
			return i
		}
	}
	return -1
}

// Sections returns the visible sections.
func (s Snapshot[K, T]) Sections() []Section[K, T] { return s.sections }
