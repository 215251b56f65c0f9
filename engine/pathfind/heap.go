package pathfind

import "github.com/nathoo/hexcore/types"

// entry is a pending heap element: a candidate visit to loc.
type entry struct {
	loc  types.Loc
	node Node
	seq  int
}

// nodeHeap orders entries so that the visit preserving the most turns, and
// within equal turns the most moves, pops first. Ties break by insertion
// order so results are stable across runs.
type nodeHeap struct {
	items []entry
	next  int
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.node.TurnsLeft != b.node.TurnsLeft {
		return a.node.TurnsLeft > b.node.TurnsLeft
	}
	if a.node.MovesLeft != b.node.MovesLeft {
		return a.node.MovesLeft > b.node.MovesLeft
	}
	return a.seq < b.seq
}

func (h *nodeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *nodeHeap) Push(x any) {
	e := x.(entry)
	e.seq = h.next
	h.next++
	h.items = append(h.items, e)
}

func (h *nodeHeap) Pop() any {
	old := h.items
	n := len(old)
	e := old[n-1]
	h.items = old[:n-1]
	return e
}
