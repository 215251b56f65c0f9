// Package pathfind implements the turn-aware shortest-path engine: best-first
// expansion over the hex topology plus a directed tunnel set, with per-turn
// movement accounting, enemy blocking and zone-of-control truncation.
package pathfind

import (
	"container/heap"
	"sort"

	"github.com/rs/zerolog"

	"github.com/nathoo/hexcore/engine/hexgrid"
	"github.com/nathoo/hexcore/types"
)

// heuristicTurns bounds the search horizon of HeuristicDistance. Any two
// hexes anyone actually asks about are far closer than this.
const heuristicTurns = 1 << 20

// Engine owns the tunnel set and the heuristic-distance cache. Queries
// borrow the rest of the game state through their Query.
type Engine struct {
	topo    hexgrid.Topology
	tunnels map[types.Loc]map[types.Loc]bool
	heur    map[[2]types.Loc]int
	log     zerolog.Logger
}

// New returns an engine over the given topology.
func New(topo hexgrid.Topology) *Engine {
	return &Engine{
		topo:    topo,
		tunnels: make(map[types.Loc]map[types.Loc]bool),
		heur:    make(map[[2]types.Loc]int),
		log:     zerolog.Nop(),
	}
}

// SetLogger installs a logger; the default discards everything.
func (e *Engine) SetLogger(log zerolog.Logger) {
	e.log = log
}

// AddTunnel adds the directed passage a→b and reports whether the tunnel
// set changed. A change empties the heuristic cache.
func (e *Engine) AddTunnel(a, b types.Loc) bool {
	set, ok := e.tunnels[a]
	if !ok {
		set = make(map[types.Loc]bool)
		e.tunnels[a] = set
	}
	if set[b] {
		return false
	}
	set[b] = true
	e.invalidateHeuristics()
	e.log.Debug().Stringer("from", a).Stringer("to", b).Msg("tunnel added")
	return true
}

// RemoveTunnel erases the directed passage a→b and reports whether the
// tunnel set changed. A change empties the heuristic cache.
func (e *Engine) RemoveTunnel(a, b types.Loc) bool {
	set, ok := e.tunnels[a]
	if !ok || !set[b] {
		return false
	}
	delete(set, b)
	if len(set) == 0 {
		delete(e.tunnels, a)
	}
	e.invalidateHeuristics()
	e.log.Debug().Stringer("from", a).Stringer("to", b).Msg("tunnel removed")
	return true
}

func (e *Engine) invalidateHeuristics() {
	if len(e.heur) > 0 {
		e.heur = make(map[[2]types.Loc]int)
	}
}

// neighbors returns the expansion frontier of loc: the six topological
// neighbors followed by tunnel exits in location order.
func (e *Engine) neighbors(loc types.Loc) []types.Loc {
	hex := e.topo.Neighbors(loc)
	out := hex[:6:6]
	if set, ok := e.tunnels[loc]; ok && len(set) > 0 {
		exits := make([]types.Loc, 0, len(set))
		for b := range set {
			exits = append(exits, b)
		}
		sort.Slice(exits, func(i, j int) bool { return exits[i].Less(exits[j]) })
		out = append(out, exits...)
	}
	return out
}

// ComputeTree expands the full shortest-path tree for q.
func (e *Engine) ComputeTree(q Query) Tree {
	return e.computeTree(q, nil)
}

// ComputeTreeTo expands only until dst pops, then returns the sub-tree
// holding the path from dst back to the root. It fails with a *QueryError
// when dst is unreachable.
func (e *Engine) ComputeTreeTo(dst types.Loc, q Query) (Tree, error) {
	tree := e.computeTree(q, &dst)
	if _, ok := tree[dst]; !ok {
		return nil, &QueryError{Dest: dst}
	}
	return tree, nil
}

func (e *Engine) computeTree(q Query, dst *types.Loc) Tree {
	tree := make(Tree)
	if !q.onMap(q.Start) {
		return tree
	}

	h := &nodeHeap{}
	heap.Push(h, entry{
		loc:  q.Start,
		node: Node{MovesLeft: q.Moves, TurnsLeft: q.Turns, Pred: q.Start},
	})

	for h.Len() > 0 {
		en := heap.Pop(h).(entry)
		if _, seen := tree[en.loc]; seen {
			// A better visit already claimed this hex.
			continue
		}
		tree[en.loc] = en.node
		if dst != nil && en.loc == *dst {
			return backtrack(tree, en.loc)
		}

		for _, n := range e.neighbors(en.loc) {
			if _, seen := tree[n]; seen {
				continue
			}
			if !q.onMap(n) {
				continue
			}
			if q.ViewingSide != 0 && q.Sides != nil && q.Sides.AllyAdjustedShroud(n, q.ViewingSide) {
				continue
			}

			movesLeft, turnsLeft := en.node.MovesLeft, en.node.TurnsLeft
			firstTurn := q.FirstTurnCost != nil && turnsLeft == q.Turns
			var cost int
			if firstTurn {
				cost = q.FirstTurnCost(n)
			} else {
				cost = q.costAt(n)
			}
			if cost > movesLeft && turnsLeft > 0 {
				turnsLeft--
				movesLeft = q.MaxMoves
				if firstTurn {
					// The walker left its starting turn; the override no
					// longer applies.
					cost = q.costAt(n)
				}
			}
			if cost > movesLeft {
				continue
			}
			movesLeft -= cost

			if q.MovingSide != 0 {
				if e.visibleEnemyAt(q, n, false) {
					continue
				}
				if !q.IgnoreZoC && movesLeft > 0 && e.inEnemyZoC(q, n) {
					movesLeft = 0
				}
			}

			heap.Push(h, entry{
				loc:  n,
				node: Node{MovesLeft: movesLeft, TurnsLeft: turnsLeft, Pred: en.loc},
			})
		}
	}
	return tree
}

// visibleEnemyAt reports whether a unit hostile to q.MovingSide stands at
// loc and is visible to the query. With mustExertZoC, only units that emit
// zone of control count.
func (e *Engine) visibleEnemyAt(q Query, loc types.Loc, mustExertZoC bool) bool {
	if q.Units == nil {
		return false
	}
	u, ok := q.Units.At(loc)
	if !ok {
		return false
	}
	if q.Sides != nil {
		if q.Sides.AreAllied(u.Side, q.MovingSide) {
			return false
		}
	} else if u.Side == q.MovingSide {
		return false
	}
	if mustExertZoC && !u.EmitsZoC {
		return false
	}
	if u.Hidden {
		return false
	}
	if q.ViewingSide != 0 && q.Sides != nil && q.Sides.AllyAdjustedFog(loc, q.ViewingSide) {
		return false
	}
	return true
}

// inEnemyZoC reports whether loc is adjacent (topologically — tunnels carry
// no zone of control) to a visible enemy that exerts it.
func (e *Engine) inEnemyZoC(q Query, loc types.Loc) bool {
	for _, n := range e.topo.Neighbors(loc) {
		if e.visibleEnemyAt(q, n, true) {
			return true
		}
	}
	return false
}

// backtrack extracts the sub-tree holding only the path from loc to the
// root.
func backtrack(tree Tree, loc types.Loc) Tree {
	sub := make(Tree)
	for {
		node := tree[loc]
		sub[loc] = node
		if node.Pred == loc {
			return sub
		}
		loc = node.Pred
	}
}

// ReachableHexes returns the key set of the full tree, in location order.
func (e *Engine) ReachableHexes(q Query) []types.Loc {
	tree := e.ComputeTree(q)
	out := make([]types.Loc, 0, len(tree))
	for l := range tree {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ReachableHexesWithPaths returns one path per reachable hex, reached hex
// first and root last, in location order of the reached hex.
func (e *Engine) ReachableHexesWithPaths(q Query) []types.Path {
	tree := e.ComputeTree(q)
	locs := make([]types.Loc, 0, len(tree))
	for l := range tree {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Less(locs[j]) })
	out := make([]types.Path, 0, len(locs))
	for _, l := range locs {
		out = append(out, pathFrom(tree, l))
	}
	return out
}

// ShortestPath returns the path to dst, reached hex first and root last, or
// an empty path when dst is unreachable.
func (e *Engine) ShortestPath(dst types.Loc, q Query) types.Path {
	tree, err := e.ComputeTreeTo(dst, q)
	if err != nil {
		return nil
	}
	return pathFrom(tree, dst)
}

// ShortestPathDistance returns the number of turns the path to dst consumes:
// zero exactly when dst is the start, and otherwise one for the starting
// turn plus one per max-moves refresh. It fails with a *QueryError when dst
// is unreachable.
func (e *Engine) ShortestPathDistance(dst types.Loc, q Query) (int, error) {
	tree, err := e.ComputeTreeTo(dst, q)
	if err != nil {
		return 0, err
	}
	if dst == q.Start {
		return 0, nil
	}
	return q.Turns - tree[dst].TurnsLeft + 1, nil
}

// HeuristicDistance returns the hex distance between a and b over an
// unbounded unit-cost map that honors tunnels. Results are memoized until
// the tunnel set changes.
func (e *Engine) HeuristicDistance(a, b types.Loc) int {
	key := [2]types.Loc{a, b}
	if d, ok := e.heur[key]; ok {
		return d
	}
	// The starting turn carries one move, so a single step costs one turn.
	d, err := e.ShortestPathDistance(b, Query{
		Start:    a,
		Moves:    1,
		Turns:    heuristicTurns,
		MaxMoves: 1,
	})
	if err != nil {
		// Unreachable cannot happen on an unbounded map within the horizon;
		// treat it as the horizon itself.
		d = heuristicTurns
	}
	e.heur[key] = d
	return d
}

// pathFrom walks predecessors from loc to the root self-loop.
func pathFrom(tree Tree, loc types.Loc) types.Path {
	path := types.Path{loc}
	for {
		node := tree[loc]
		if node.Pred == loc {
			return path
		}
		loc = node.Pred
		path = append(path, loc)
	}
}
