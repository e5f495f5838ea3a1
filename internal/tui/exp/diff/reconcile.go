// Package diff turns two snapshots into an ordered edit script.
package diff

import (
	"slices"

	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

type workItem struct {
	id string
	// target position in the next snapshot, -1 when the item goes away
	sec, idx int
	changed  bool
}

type workSection struct {
	key    string
	target int
	items  []*workItem
}

type pos struct{ sec, idx int }

// Reconcile compares prev against next and returns the edits that turn a
// surface showing prev into one showing next.
//
// Sections are matched by key and items by identity, across sections. Kept
// items whose relative order changed become moves (the longest increasing
// run per section stays put), identity matches with different content become
// reloads. Reconcile never fails: a repeated section key or item identity
// matches its first occurrence and every later copy is removed or inserted
// as a distinct element.
func Reconcile[K section.Key, T section.Item[T]](prev, next section.Snapshot[K, T]) Script {
	var script Script

	nextSections := make(map[K]int, next.Len())
	nextItems := make(map[string]pos)
	for si := range next.Len() {
		k := next.Key(si)
		if _, dup := nextSections[k]; !dup {
			nextSections[k] = si
		}
		for ii, item := range next.Items(si) {
			if _, dup := nextItems[item.ID()]; !dup {
				nextItems[item.ID()] = pos{si, ii}
			}
		}
	}

	// Claim matches in old order; a section key or identity is claimed once.
	work := make([]*workSection, 0, prev.Len())
	keptSections := make(map[K]bool, prev.Len())
	claimed := make(map[pos]bool)
	for si := range prev.Len() {
		k := prev.Key(si)
		ws := &workSection{key: k.String(), target: -1}
		if ti, ok := nextSections[k]; ok && !keptSections[k] {
			keptSections[k] = true
			ws.target = ti
		}
		for _, item := range prev.Items(si) {
			wi := &workItem{id: item.ID(), sec: -1, idx: -1}
			if p, ok := nextItems[item.ID()]; ok && ws.target >= 0 && !claimed[p] {
				claimed[p] = true
				wi.sec, wi.idx = p.sec, p.idx
				n, _ := next.Item(section.Position{Section: p.sec, Item: p.idx})
				wi.changed = !item.Equal(n)
			}
			ws.items = append(ws.items, wi)
		}
		work = append(work, ws)
	}

	// Removed sections, last first.
	for si := len(work) - 1; si >= 0; si-- {
		if work[si].target < 0 {
			script = append(script, Op{Kind: RemoveSection, Section: si, ID: work[si].key})
			work = slices.Delete(work, si, si+1)
		}
	}

	// Removed items, last first within each section.
	for si, ws := range work {
		for ii := len(ws.items) - 1; ii >= 0; ii-- {
			if ws.items[ii].sec < 0 {
				script = append(script, Op{Kind: RemoveItem, Section: si, Index: ii, ID: ws.items[ii].id})
				ws.items = slices.Delete(ws.items, ii, ii+1)
			}
		}
	}

	// Kept sections that changed relative order.
	targets := make([]int, len(work))
	for i, ws := range work {
		targets[i] = ws.target
	}
	stable := increasingRun(targets)
	ordered := slices.Clone(work)
	slices.SortFunc(ordered, func(a, b *workSection) int { return a.target - b.target })
	var prevSec *workSection
	for _, ws := range ordered {
		if !stable[ws.target] {
			from := slices.Index(work, ws)
			work = slices.Delete(work, from, from+1)
			to := 0
			if prevSec != nil {
				to = slices.Index(work, prevSec) + 1
			}
			work = slices.Insert(work, to, ws)
			if from != to {
				script = append(script, Op{Kind: MoveSection, Section: from, ToSection: to, ID: ws.key})
			}
		}
		prevSec = ws
	}

	// New sections, ascending. Kept sections are in target order, so each
	// insert lands on its final index.
	for si := range next.Len() {
		k := next.Key(si)
		if keptSections[k] && nextSections[k] == si {
			continue
		}
		script = append(script, Op{Kind: InsertSection, Section: si, ID: k.String()})
		work = slices.Insert(work, si, &workSection{key: k.String(), target: si})
	}

	// Item moves, section by section in target order.
	for si, ws := range work {
		var local []int
		for _, wi := range ws.items {
			if wi.sec == si {
				local = append(local, wi.idx)
			}
		}
		stay := increasingRun(local)

		wanted := make([]*workItem, 0, len(ws.items))
		for _, s := range work {
			for _, wi := range s.items {
				if wi.sec == si {
					wanted = append(wanted, wi)
				}
			}
		}
		slices.SortFunc(wanted, func(a, b *workItem) int { return a.idx - b.idx })

		var prevItem *workItem
		for _, wi := range wanted {
			if !stay[wi.idx] {
				fromSec, fromIdx := locate(work, wi)
				src := work[fromSec]
				src.items = slices.Delete(src.items, fromIdx, fromIdx+1)
				to := 0
				if prevItem != nil {
					to = slices.Index(ws.items, prevItem) + 1
				}
				ws.items = slices.Insert(ws.items, to, wi)
				if fromSec != si || fromIdx != to {
					script = append(script, Op{
						Kind:      MoveItem,
						Section:   fromSec,
						Index:     fromIdx,
						ToSection: si,
						ToIndex:   to,
						ID:        wi.id,
					})
				}
			}
			prevItem = wi
		}
	}

	// New items, ascending. Every section now holds exactly its matched
	// items in target order.
	for si := range next.Len() {
		ws := work[si]
		for ii, item := range next.Items(si) {
			if claimed[pos{si, ii}] {
				continue
			}
			script = append(script, Op{Kind: InsertItem, Section: si, Index: ii, ID: item.ID()})
			ws.items = slices.Insert(ws.items, ii, &workItem{id: item.ID(), sec: si, idx: ii})
		}
	}

	for si, ws := range work {
		for ii, wi := range ws.items {
			if wi.changed {
				script = append(script, Op{Kind: ReloadItem, Section: si, Index: ii, ID: wi.id})
			}
		}
	}

	return script
}

func locate(work []*workSection, wi *workItem) (int, int) {
	for si, ws := range work {
		if ii := slices.Index(ws.items, wi); ii >= 0 {
			return si, ii
		}
	}
	return -1, -1
}

// increasingRun returns the values of seq that form one longest strictly
// increasing subsequence. Values are assumed distinct.
func increasingRun(seq []int) map[int]bool {
	stable := make(map[int]bool, len(seq))
	if len(seq) == 0 {
		return stable
	}
	// tails[k] is the index in seq of the smallest tail of a run of length k+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		stable[seq[i]] = true
	}
	return stable
}
