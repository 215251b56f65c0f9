package pathfind

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/hexcore/engine/hexgrid"
	"github.com/nathoo/hexcore/engine/sides"
	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/types"
)

func grid3x3() types.TerrainMap {
	m := make(types.TerrainMap)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			m[types.Loc{X: x, Y: y}] = "Gg"
		}
	}
	return m
}

func constCost(c int) CostFunc {
	return func(types.Loc) int { return c }
}

func newEngine() *Engine {
	return New(hexgrid.Default())
}

func TestTreeRootSelfLoop(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	tree := e.ComputeTree(Query{Start: start, Terrain: grid3x3(), Moves: 2, MaxMoves: 2})

	root, ok := tree[start]
	if !ok {
		t.Fatal("start missing from tree")
	}
	if root.Pred != start {
		t.Errorf("root pred = %v, want self-loop %v", root.Pred, start)
	}
}

func TestTreePredecessorsAreEntries(t *testing.T) {
	e := newEngine()
	e.AddTunnel(types.Loc{X: 0, Y: 0}, types.Loc{X: 2, Y: 0})
	q := Query{Start: types.Loc{X: 1, Y: 1}, Terrain: grid3x3(), Moves: 3, Turns: 1, MaxMoves: 3}
	tree := e.ComputeTree(q)

	topo := hexgrid.Default()
	for loc, node := range tree {
		if node.Pred == loc {
			continue
		}
		if _, ok := tree[node.Pred]; !ok {
			t.Fatalf("pred %v of %v not in tree", node.Pred, loc)
		}
		if !topo.Adjacent(node.Pred, loc) && !(node.Pred == types.Loc{X: 0, Y: 0} && loc == types.Loc{X: 2, Y: 0}) {
			t.Errorf("%v not adjacent (or tunneled) to its pred %v", loc, node.Pred)
		}
	}
}

// One step of movement: the reachable set is the start plus its on-map
// neighbors, nothing further.
func TestReachableSingleStep(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	got := e.ReachableHexes(Query{
		Start:    start,
		Terrain:  grid3x3(),
		Cost:     constCost(2),
		Moves:    2,
		Turns:    0,
		MaxMoves: 2,
	})

	want := []types.Loc{start}
	for _, n := range hexgrid.Default().Neighbors(start) {
		want = append(want, n)
	}
	wantSet := make(map[types.Loc]bool)
	for _, l := range want {
		wantSet[l] = true
	}
	if len(got) != len(wantSet) {
		t.Fatalf("reachable = %v, want start plus its six neighbors", got)
	}
	for _, l := range got {
		if !wantSet[l] {
			t.Errorf("unexpected reachable hex %v", l)
		}
	}
}

func TestReachableWholeBoard(t *testing.T) {
	e := newEngine()
	got := e.ReachableHexes(Query{
		Start:    types.Loc{X: 1, Y: 1},
		Terrain:  grid3x3(),
		Moves:    2,
		Turns:    0,
		MaxMoves: 2,
	})
	if len(got) != 9 {
		t.Errorf("two unit-cost steps from the center should cover the 3x3 board, got %v", got)
	}
}

// Turn accounting across a max-moves refresh: hexes one costly step out are
// reached at the end of the current turn, hexes two steps out burn into the
// next turn.
func TestTurnAdvanceRefreshesMoves(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	tree := e.ComputeTree(Query{
		Start:    start,
		Terrain:  grid3x3(),
		Cost:     constCost(2),
		Moves:    2,
		Turns:    1,
		MaxMoves: 3,
	})

	ring1 := types.Loc{X: 1, Y: 0}
	if n, ok := tree[ring1]; !ok || n.TurnsLeft != 1 || n.MovesLeft != 0 {
		t.Errorf("ring-1 hex node = %+v, %v; want turns_left=1 moves_left=0", n, ok)
	}
	corner := types.Loc{X: 0, Y: 0}
	if n, ok := tree[corner]; !ok || n.TurnsLeft != 0 || n.MovesLeft != 1 {
		t.Errorf("corner node = %+v, %v; want turns_left=0 moves_left=1 via refresh", n, ok)
	}
}

func TestFirstTurnOverrideRecomputedOnAdvance(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	dst := types.Loc{X: 1, Y: 0}
	tree := e.ComputeTree(Query{
		Start:         start,
		Terrain:       grid3x3(),
		Cost:          constCost(1),
		FirstTurnCost: constCost(2),
		Moves:         1,
		Turns:         1,
		MaxMoves:      1,
	})

	// The override prices the step at 2, beyond this turn's single move;
	// after the turn advance the primary map prices it at 1.
	n, ok := tree[dst]
	if !ok {
		t.Fatal("destination unreachable; override was not recomputed on turn advance")
	}
	if n.TurnsLeft != 0 || n.MovesLeft != 0 {
		t.Errorf("node = %+v, want turns_left=0 moves_left=0", n)
	}
}

func TestVisibleEnemyBlocks(t *testing.T) {
	enemy := types.Loc{X: 1, Y: 2}
	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: enemy, Side: 2})

	e := newEngine()
	q := Query{
		Start:      types.Loc{X: 1, Y: 1},
		Terrain:    grid3x3(),
		Moves:      2,
		MaxMoves:   2,
		MovingSide: 1,
		Units:      units,
		Sides:      sides.New(nil),
		IgnoreZoC:  true,
	}
	tree := e.ComputeTree(q)
	if _, ok := tree[enemy]; ok {
		t.Error("hex holding a visible enemy was entered")
	}
}

func TestHiddenEnemyDoesNotBlock(t *testing.T) {
	enemy := types.Loc{X: 1, Y: 2}
	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: enemy, Side: 2, Hidden: true})

	e := newEngine()
	tree := e.ComputeTree(Query{
		Start:      types.Loc{X: 1, Y: 1},
		Terrain:    grid3x3(),
		Moves:      2,
		MaxMoves:   2,
		MovingSide: 1,
		Units:      units,
		Sides:      sides.New(nil),
		IgnoreZoC:  true,
	})
	if _, ok := tree[enemy]; !ok {
		t.Error("hidden enemy blocked movement")
	}
}

func TestAlliedUnitDoesNotBlock(t *testing.T) {
	ally := types.Loc{X: 1, Y: 2}
	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: ally, Side: 2})

	sc := sides.New(func(a, b int) (bool, error) { return true, nil })

	e := newEngine()
	tree := e.ComputeTree(Query{
		Start:      types.Loc{X: 1, Y: 1},
		Terrain:    grid3x3(),
		Moves:      2,
		MaxMoves:   2,
		MovingSide: 1,
		Units:      units,
		Sides:      sc,
		IgnoreZoC:  true,
	})
	if _, ok := tree[ally]; !ok {
		t.Error("allied unit blocked movement")
	}
}

// A fogged enemy is invisible to the viewing side and neither blocks nor
// exerts zone of control; clearing the fog restores both.
func TestFoggedEnemyInvisible(t *testing.T) {
	enemy := types.Loc{X: 1, Y: 2}
	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: enemy, Side: 2, EmitsZoC: true})

	sc := sides.New(nil)
	base := Query{
		Start:       types.Loc{X: 1, Y: 1},
		Terrain:     grid3x3(),
		Moves:       2,
		MaxMoves:    2,
		MovingSide:  1,
		ViewingSide: 1,
		Units:       units,
		Sides:       sc,
		IgnoreZoC:   true,
	}

	e := newEngine()
	tree := e.ComputeTree(base)
	if _, ok := tree[enemy]; !ok {
		t.Fatal("fogged enemy blocked movement")
	}

	sc.SetShareVision(1, true)
	sc.SetFog(1, enemy, false)
	tree = e.ComputeTree(base)
	if _, ok := tree[enemy]; ok {
		t.Error("enemy under cleared fog did not block")
	}
}

// An adjacent zone-of-control enemy truncates remaining movement to zero on
// entry; IgnoreZoC restores the moves.
func TestZoCTruncatesMoves(t *testing.T) {
	enemy := types.Loc{X: 1, Y: 2}
	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: enemy, Side: 2, EmitsZoC: true})

	inZoC := types.Loc{X: 0, Y: 2} // adjacent to the enemy
	q := Query{
		Start:      types.Loc{X: 1, Y: 1},
		Terrain:    grid3x3(),
		Moves:      2,
		MaxMoves:   2,
		MovingSide: 1,
		Units:      units,
		Sides:      sides.New(nil),
	}

	e := newEngine()
	tree := e.ComputeTree(q)
	if n, ok := tree[inZoC]; !ok || n.MovesLeft != 0 {
		t.Errorf("node at %v = %+v, %v; want moves_left truncated to 0", inZoC, n, ok)
	}

	// A ring-1 hex not adjacent to the enemy keeps its movement.
	free := types.Loc{X: 1, Y: 0}
	if n := tree[free]; n.MovesLeft != 1 {
		t.Errorf("node at %v = %+v; want moves_left=1", free, n)
	}

	q.IgnoreZoC = true
	tree = e.ComputeTree(q)
	if n := tree[inZoC]; n.MovesLeft != 1 {
		t.Errorf("with IgnoreZoC node at %v = %+v; want moves_left=1", inZoC, n)
	}
}

func TestZoCNotExertedThroughTunnels(t *testing.T) {
	// Enemy far away, connected to the probe hex only by a tunnel; tunnels
	// carry movement, not zone of control.
	enemy := types.Loc{X: 10, Y: 10}
	probe := types.Loc{X: 1, Y: 0}
	terrain := grid3x3()
	terrain[enemy] = "Gg"

	units := unitmap.New(nil)
	units.Insert(unitmap.Record{ID: 1, Loc: enemy, Side: 2, EmitsZoC: true})

	e := newEngine()
	e.AddTunnel(probe, enemy)
	tree := e.ComputeTree(Query{
		Start:      types.Loc{X: 1, Y: 1},
		Terrain:    terrain,
		Moves:      2,
		MaxMoves:   2,
		MovingSide: 1,
		Units:      units,
		Sides:      sides.New(nil),
	})
	if n, ok := tree[probe]; !ok || n.MovesLeft != 1 {
		t.Errorf("node at %v = %+v, %v; tunnel exit enemy must not exert ZoC", probe, n, ok)
	}
}

func TestShroudedHexSkipped(t *testing.T) {
	hidden := types.Loc{X: 1, Y: 0}
	sc := sides.New(nil)
	sc.SetShroud(1, hidden, true)

	e := newEngine()
	tree := e.ComputeTree(Query{
		Start:       types.Loc{X: 1, Y: 1},
		Terrain:     grid3x3(),
		Moves:       2,
		MaxMoves:    2,
		ViewingSide: 1,
		Sides:       sc,
	})
	if _, ok := tree[hidden]; ok {
		t.Error("shrouded hex entered")
	}
}

func TestShortestPathOrder(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	dst := types.Loc{X: 0, Y: 0}
	path := e.ShortestPath(dst, Query{Start: start, Terrain: grid3x3(), Moves: 2, MaxMoves: 2})

	if len(path) != 3 {
		t.Fatalf("path = %v, want three hexes", path)
	}
	if path[0] != dst || path[len(path)-1] != start {
		t.Errorf("path = %v, want reached hex first, root last", path)
	}
	topo := hexgrid.Default()
	for i := 0; i+1 < len(path); i++ {
		if !topo.Adjacent(path[i], path[i+1]) {
			t.Errorf("path step %v -> %v not adjacent", path[i+1], path[i])
		}
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	e := newEngine()
	off := types.Loc{X: 9, Y: 9}
	q := Query{Start: types.Loc{X: 1, Y: 1}, Terrain: grid3x3(), Moves: 2, MaxMoves: 2}

	if path := e.ShortestPath(off, q); len(path) != 0 {
		t.Errorf("path to off-map hex = %v, want empty", path)
	}

	_, err := e.ShortestPathDistance(off, q)
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("distance error = %v, want *QueryError", err)
	}
	if qerr.Dest != off {
		t.Errorf("QueryError.Dest = %v, want %v", qerr.Dest, off)
	}
}

func TestShortestPathDistance(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	q := Query{Start: start, Terrain: grid3x3(), Cost: constCost(2), Moves: 2, Turns: 1, MaxMoves: 3}

	if d, err := e.ShortestPathDistance(start, q); err != nil || d != 0 {
		t.Errorf("distance to start = %d, %v; want 0", d, err)
	}
	if d, err := e.ShortestPathDistance(types.Loc{X: 1, Y: 0}, q); err != nil || d != 1 {
		t.Errorf("distance one step = %d, %v; want 1", d, err)
	}
	if d, err := e.ShortestPathDistance(types.Loc{X: 0, Y: 0}, q); err != nil || d != 2 {
		t.Errorf("distance across refresh = %d, %v; want 2", d, err)
	}
}

func TestReachableHexesMatchesTreeKeys(t *testing.T) {
	e := newEngine()
	q := Query{Start: types.Loc{X: 1, Y: 1}, Terrain: grid3x3(), Moves: 2, MaxMoves: 2}

	tree := e.ComputeTree(q)
	hexes := e.ReachableHexes(q)
	if len(hexes) != len(tree) {
		t.Fatalf("ReachableHexes len %d, tree len %d", len(hexes), len(tree))
	}
	for _, l := range hexes {
		if _, ok := tree[l]; !ok {
			t.Errorf("hex %v not a tree key", l)
		}
	}
}

func TestReachableHexesWithPaths(t *testing.T) {
	e := newEngine()
	start := types.Loc{X: 1, Y: 1}
	paths := e.ReachableHexesWithPaths(Query{Start: start, Terrain: grid3x3(), Moves: 1, MaxMoves: 1})

	if len(paths) != 7 {
		t.Fatalf("paths = %v, want 7", paths)
	}
	for _, p := range paths {
		if p[len(p)-1] != start {
			t.Errorf("path %v does not end at the root", p)
		}
	}
	// Deterministic ordering by reached hex.
	again := e.ReachableHexesWithPaths(Query{Start: start, Terrain: grid3x3(), Moves: 1, MaxMoves: 1})
	if !reflect.DeepEqual(paths, again) {
		t.Error("paths differ across identical queries")
	}
}

// Tunnels augment adjacency and any mutation drops cached heuristics.
func TestTunnelsAndHeuristicCache(t *testing.T) {
	e := newEngine()
	a := types.Loc{X: 0, Y: 0}
	b := types.Loc{X: 2, Y: 2}

	base := e.HeuristicDistance(a, b)
	if base < 2 {
		t.Fatalf("baseline distance = %d, want at least 2", base)
	}

	e.AddTunnel(a, b)
	if d := e.HeuristicDistance(a, b); d != 1 {
		t.Errorf("distance with tunnel = %d, want 1", d)
	}

	e.RemoveTunnel(a, b)
	if d := e.HeuristicDistance(a, b); d != base {
		t.Errorf("distance after removal = %d, want %d (stale cache?)", d, base)
	}
}

func TestRedundantTunnelMutationKeepsCache(t *testing.T) {
	e := newEngine()
	a := types.Loc{X: 0, Y: 0}
	b := types.Loc{X: 2, Y: 2}

	e.AddTunnel(a, b)
	if d := e.HeuristicDistance(a, b); d != 1 {
		t.Fatalf("distance = %d, want 1", d)
	}
	e.AddTunnel(a, b) // no change
	if len(e.heur) == 0 {
		t.Error("no-op AddTunnel emptied the heuristic cache")
	}
	e.RemoveTunnel(b, a) // absent, no change
	if len(e.heur) == 0 {
		t.Error("no-op RemoveTunnel emptied the heuristic cache")
	}
}

// A single step — topological or tunneled — costs exactly one turn.
func TestHeuristicDistanceSingleStep(t *testing.T) {
	e := newEngine()
	a := types.Loc{X: 0, Y: 0}

	if d := e.HeuristicDistance(a, types.Loc{X: 0, Y: 1}); d != 1 {
		t.Errorf("adjacent distance = %d, want 1", d)
	}

	far := types.Loc{X: 2, Y: 2}
	e.AddTunnel(a, far)
	if d := e.HeuristicDistance(a, far); d != 1 {
		t.Errorf("tunneled distance = %d, want 1", d)
	}

	if d := e.HeuristicDistance(a, types.Loc{X: 2, Y: 0}); d != 2 {
		t.Errorf("two-step distance = %d, want 2", d)
	}
}

func TestHeuristicDistanceSymmetricGround(t *testing.T) {
	e := newEngine()
	a := types.Loc{X: 0, Y: 0}
	b := types.Loc{X: 2, Y: 2}
	if d1, d2 := e.HeuristicDistance(a, b), e.HeuristicDistance(b, a); d1 != d2 {
		t.Errorf("plain hex distance asymmetric: %d vs %d", d1, d2)
	}
	if d := e.HeuristicDistance(a, a); d != 0 {
		t.Errorf("distance to self = %d, want 0", d)
	}
}

func TestComputeTreeDeterministic(t *testing.T) {
	e := newEngine()
	e.AddTunnel(types.Loc{X: 1, Y: 1}, types.Loc{X: 0, Y: 0})
	q := Query{Start: types.Loc{X: 1, Y: 1}, Terrain: grid3x3(), Moves: 3, Turns: 1, MaxMoves: 3}

	first := e.ComputeTree(q)
	for i := 0; i < 5; i++ {
		if again := e.ComputeTree(q); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func TestOffMapStartYieldsEmptyTree(t *testing.T) {
	e := newEngine()
	tree := e.ComputeTree(Query{Start: types.Loc{X: 9, Y: 9}, Terrain: grid3x3(), Moves: 2, MaxMoves: 2})
	if len(tree) != 0 {
		t.Errorf("tree from off-map start = %v, want empty", tree)
	}
}
