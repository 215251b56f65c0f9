// Package hexgrid implements the offset-coordinate hex topology used by the
// map. Columns alternate a half-tile vertical shift; which parity is shifted
// up is a property of the Topology so both conventions stay expressible, but
// the engine uses exactly one (EvenColumnsUp) everywhere.
package hexgrid

import "github.com/nathoo/hexcore/types"

// Shift selects which column parity sits half a tile higher.
type Shift int

const (
	// EvenColumnsUp shifts even-x columns up. This is the engine's
	// convention.
	EvenColumnsUp Shift = iota
	// OddColumnsUp shifts odd-x columns up.
	OddColumnsUp
)

// Topology computes adjacency on an unbounded hex grid.
type Topology struct {
	shift Shift
}

// New returns a topology with the given shift convention.
func New(s Shift) Topology {
	return Topology{shift: s}
}

// Default returns the engine's standard topology.
func Default() Topology {
	return Topology{shift: EvenColumnsUp}
}

// shiftedUp reports whether column x sits half a tile higher.
func (t Topology) shiftedUp(x int) bool {
	even := x%2 == 0
	if t.shift == EvenColumnsUp {
		return even
	}
	return !even
}

// Neighbors returns the six hexes adjacent to l, in a fixed order: north,
// south, then the west pair and the east pair, upper hex first. Adjacency is
// symmetric: b is in Neighbors(a) exactly when a is in Neighbors(b).
func (t Topology) Neighbors(l types.Loc) [6]types.Loc {
	// A shifted-up column meets its side columns at rows y-1 and y; the
	// other parity meets them at rows y and y+1.
	up, down := 0, 1
	if t.shiftedUp(l.X) {
		up, down = -1, 0
	}
	return [6]types.Loc{
		{X: l.X, Y: l.Y - 1},
		{X: l.X, Y: l.Y + 1},
		{X: l.X - 1, Y: l.Y + up},
		{X: l.X - 1, Y: l.Y + down},
		{X: l.X + 1, Y: l.Y + up},
		{X: l.X + 1, Y: l.Y + down},
	}
}

// Adjacent reports whether a and b share an edge.
func (t Topology) Adjacent(a, b types.Loc) bool {
	for _, n := range t.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}
