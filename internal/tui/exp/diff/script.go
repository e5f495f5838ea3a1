package diff

import (
	"fmt"
	"strings"
)

// Kind is the kind of a structural edit.
type Kind int

const (
	InsertSection Kind = iota
	RemoveSection
	MoveSection
	InsertItem
	RemoveItem
	MoveItem
	ReloadItem
)

var kindNames = [...]string{
	InsertSection: "insertSection",
	RemoveSection: "removeSection",
	MoveSection:   "moveSection",
	InsertItem:    "insertItem",
	RemoveItem:    "removeItem",
	MoveItem:      "moveItem",
	ReloadItem:    "reloadItem",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown edit kind %q", b)
}

// Op is one edit. Indices are relative to the state left by the previous
// op in the script.
//
// Section ops use Section (and ToSection for moves). Item ops use Section
// and Index, plus ToSection and ToIndex for moves. A move removes the element
// first and then inserts it at the destination.
//
// Inserts and reloads are emitted after every removal and move, so their
// coordinates are also final coordinates in the next snapshot.
type Op struct {
	Kind      Kind   `json:"kind" yaml:"kind"`
	Section   int    `json:"section" yaml:"section"`
	Index     int    `json:"index" yaml:"index"`
	ToSection int    `json:"to_section" yaml:"to_section"`
	ToIndex   int    `json:"to_index" yaml:"to_index"`
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
}

func (o Op) String() string {
	switch o.Kind {
	case InsertSection, RemoveSection:
		return fmt.Sprintf("%s(%d %q)", o.Kind, o.Section, o.ID)
	case MoveSection:
		return fmt.Sprintf("%s(%d → %d %q)", o.Kind, o.Section, o.ToSection, o.ID)
	case MoveItem:
		return fmt.Sprintf("%s([%d,%d] → [%d,%d] %q)", o.Kind, o.Section, o.Index, o.ToSection, o.ToIndex, o.ID)
	default:
		return fmt.Sprintf("%s([%d,%d] %q)", o.Kind, o.Section, o.Index, o.ID)
	}
}

// Script is an ordered edit script.
type Script []Op

// Empty reports whether the script has no edits.
func (s Script) Empty() bool { return len(s) == 0 }

// Count returns how many ops of kind k the script holds.
func (s Script) Count(k Kind) int {
	n := 0
	for _, op := range s {
		if op.Kind == k {
			n++
		}
	}
	return n
}

func (s Script) String() string {
	if len(s) == 0 {
		return "(no changes)"
	}
	var b strings.Builder
	for i, op := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(op.String())
	}
	return b.String()
}

// Target is anything that can replay a script, such as a viewport's batch
// update.
type Target interface {
	InsertSection(index int)
	RemoveSection(index int)
	MoveSection(from, to int)
	InsertItem(section, index int)
	RemoveItem(section, index int)
	MoveItem(fromSection, fromIndex, toSection, toIndex int)
	ReloadItem(section, index int)
}

// Apply replays s against t in order.
func Apply(s Script, t Target) {
	for _, op := range s {
		switch op.Kind {
		case InsertSection:
			t.InsertSection(op.Section)
		case RemoveSection:
			t.RemoveSection(op.Section)
		case MoveSection:
			t.MoveSection(op.Section, op.ToSection)
		case InsertItem:
			t.InsertItem(op.Section, op.Index)
		case RemoveItem:
			t.RemoveItem(op.Section, op.Index)
		case MoveItem:
			t.MoveItem(op.Section, op.Index, op.ToSection, op.ToIndex)
		case ReloadItem:
			t.ReloadItem(op.Section, op.Index)
		}
	}
}
