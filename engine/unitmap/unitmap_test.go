package unitmap

import (
	"testing"

	"github.com/nathoo/hexcore/types"
)

func TestInsertAndLookup(t *testing.T) {
	x := New(nil)
	if err := x.Insert(Record{ID: 1, Loc: types.Loc{X: 0, Y: 0}, Side: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := x.Insert(Record{ID: 2, Loc: types.Loc{X: 1, Y: 0}, Side: 2, EmitsZoC: true}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := x.Insert(Record{ID: 1, Loc: types.Loc{X: 5, Y: 5}}); err == nil {
		t.Error("duplicate id accepted")
	}
	if err := x.Insert(Record{ID: 3, Loc: types.Loc{X: 0, Y: 0}}); err == nil {
		t.Error("duplicate location accepted")
	}

	rec, ok := x.ByID(2)
	if !ok || !rec.EmitsZoC || rec.Side != 2 {
		t.Errorf("ByID(2) = %+v, %v", rec, ok)
	}
	rec, ok = x.At(types.Loc{X: 0, Y: 0})
	if !ok || rec.ID != 1 {
		t.Errorf("At((0,0)) = %+v, %v", rec, ok)
	}
	if _, ok := x.At(types.Loc{X: 9, Y: 9}); ok {
		t.Error("At on empty hex reported a unit")
	}
	if x.Len() != 2 {
		t.Errorf("Len = %d, want 2", x.Len())
	}
}

func TestMoveTo(t *testing.T) {
	x := New(nil)
	x.Insert(Record{ID: 1, Loc: types.Loc{X: 0, Y: 0}})
	x.Insert(Record{ID: 2, Loc: types.Loc{X: 1, Y: 0}})

	if err := x.MoveTo(1, types.Loc{X: 1, Y: 0}); err == nil {
		t.Error("move onto occupied hex accepted")
	}
	if err := x.MoveTo(1, types.Loc{X: 2, Y: 2}); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if _, ok := x.At(types.Loc{X: 0, Y: 0}); ok {
		t.Error("old location still indexed after move")
	}
	if rec, ok := x.At(types.Loc{X: 2, Y: 2}); !ok || rec.ID != 1 {
		t.Errorf("At((2,2)) = %+v, %v", rec, ok)
	}
	// Moving onto one's own hex is a no-op, not a collision.
	if err := x.MoveTo(1, types.Loc{X: 2, Y: 2}); err != nil {
		t.Errorf("self-move: %v", err)
	}
}

func TestRemove(t *testing.T) {
	x := New(nil)
	x.Insert(Record{ID: 7, Loc: types.Loc{X: 3, Y: 3}})
	if !x.Remove(7) {
		t.Fatal("Remove(7) = false")
	}
	if x.Remove(7) {
		t.Error("second Remove(7) = true")
	}
	if _, ok := x.At(types.Loc{X: 3, Y: 3}); ok {
		t.Error("location still indexed after removal")
	}
}

func TestDirtyRefresh(t *testing.T) {
	truth := map[uint32]State{
		1: {Loc: types.Loc{X: 0, Y: 0}, Side: 2, Hidden: true, EmitsZoC: true},
	}
	x := New(func(id uint32) (State, bool) {
		s, ok := truth[id]
		return s, ok
	})
	x.Insert(Record{ID: 1, Loc: types.Loc{X: 0, Y: 0}, Side: 1, Dirty: true})

	rec, ok := x.ByID(1)
	if !ok {
		t.Fatal("ByID(1) missing")
	}
	if rec.Side != 2 || !rec.Hidden || !rec.EmitsZoC || rec.Dirty {
		t.Errorf("refresh did not apply: %+v", rec)
	}

	// A clean record is not refreshed again.
	truth[1] = State{Loc: types.Loc{X: 0, Y: 0}, Side: 9}
	rec, _ = x.ByID(1)
	if rec.Side != 2 {
		t.Errorf("clean record was refreshed: %+v", rec)
	}
}

func TestRefreshMovedUnitNoLongerBlocksHex(t *testing.T) {
	moved := types.Loc{X: 5, Y: 5}
	x := New(func(id uint32) (State, bool) {
		return State{Loc: moved, Side: 1}, true
	})
	x.Insert(Record{ID: 1, Loc: types.Loc{X: 0, Y: 0}, Dirty: true})

	if _, ok := x.At(types.Loc{X: 0, Y: 0}); ok {
		t.Error("unit that moved during refresh still reported at old hex")
	}
	if rec, ok := x.At(moved); !ok || rec.ID != 1 {
		t.Errorf("unit not reindexed at new hex: %+v, %v", rec, ok)
	}
}

func TestRefreshDropsDeadUnit(t *testing.T) {
	x := New(func(id uint32) (State, bool) {
		return State{}, false
	})
	x.Insert(Record{ID: 1, Loc: types.Loc{X: 0, Y: 0}, Dirty: true})

	if _, ok := x.ByID(1); ok {
		t.Error("dead unit still reported by id")
	}
	if x.Len() != 0 {
		t.Errorf("Len = %d after refresh dropped the unit", x.Len())
	}
}

func TestMarkAllDirty(t *testing.T) {
	calls := 0
	x := New(func(id uint32) (State, bool) {
		calls++
		return State{Loc: types.Loc{X: int(id), Y: 0}, Side: 1}, true
	})
	x.Insert(Record{ID: 1, Loc: types.Loc{X: 1, Y: 0}})
	x.Insert(Record{ID: 2, Loc: types.Loc{X: 2, Y: 0}})
	x.MarkAllDirty()
	x.ByID(1)
	x.ByID(2)
	if calls != 2 {
		t.Errorf("refresh calls = %d, want 2", calls)
	}
}

func TestIDsSorted(t *testing.T) {
	x := New(nil)
	for _, id := range []uint32{5, 1, 3} {
		x.Insert(Record{ID: id, Loc: types.Loc{X: int(id), Y: 0}})
	}
	ids := x.IDs()
	want := []uint32{1, 3, 5}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", ids, want)
		}
	}
}
