package pathfind

import (
	"fmt"

	"github.com/nathoo/hexcore/engine/sides"
	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/types"
)

// CostFunc maps a location to a non-negative movement cost.
type CostFunc func(types.Loc) int

// Query carries everything a pathfinding operation reads. Terrain, Units and
// Sides are borrowed; a query never mutates game state.
//
// Moves is the movement remaining in the current turn; Turns is the number of
// full turns available after it; MaxMoves is the per-turn maximum restored on
// each turn advance. MovingSide and ViewingSide use 0 for "unset".
type Query struct {
	Start types.Loc

	// Cost is the primary cost map; nil means uniform cost 1.
	Cost CostFunc
	// FirstTurnCost, when set, replaces Cost while the walker is still in
	// its starting turn.
	FirstTurnCost CostFunc

	Moves    int
	Turns    int
	MaxMoves int

	MovingSide  int
	ViewingSide int
	IgnoreZoC   bool

	// Terrain bounds the walkable map; nil means unbounded.
	Terrain types.TerrainMap
	Units   *unitmap.Index
	Sides   *sides.Cache
}

// costAt evaluates the primary cost map at l.
func (q *Query) costAt(l types.Loc) int {
	if q.Cost == nil {
		return 1
	}
	return q.Cost(l)
}

// onMap reports whether l is walkable terrain for this query.
func (q *Query) onMap(l types.Loc) bool {
	if q.Terrain == nil {
		return true
	}
	_, ok := q.Terrain[l]
	return ok
}

// Node is one entry of a shortest-path tree. The root's Pred is itself; the
// self-loop terminates path reconstruction.
type Node struct {
	MovesLeft int
	TurnsLeft int
	Pred      types.Loc
}

// Tree maps each reached location to its pathing node. Every non-root
// entry's predecessor is also in the tree.
type Tree map[types.Loc]Node

// QueryError reports a destination outside the reachable tree.
type QueryError struct {
	Dest types.Loc
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("pathfind: destination %v not reachable", e.Dest)
}
