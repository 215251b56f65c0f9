// Package unitmap maintains the native-side unit index: one backing record
// per unit, reachable both by id and by map location. Side, visibility and
// zone-of-control fields are caches of script-owned truth; a record marked
// dirty is refreshed from the owner before anything reads it.
package unitmap

import (
	"fmt"
	"sort"

	"github.com/nathoo/hexcore/types"
)

// Record is the cached state of one unit. Everything except ID and Loc is
// borrowed from the script; Dirty marks that the borrow may be stale.
type Record struct {
	ID       uint32
	Loc      types.Loc
	Side     int
	Hidden   bool
	EmitsZoC bool
	Dirty    bool
}

// State is the refreshed truth for a unit, as reported by its owner.
type State struct {
	Loc      types.Loc
	Side     int
	Hidden   bool
	EmitsZoC bool
}

// RefreshFunc fetches the current state of a unit. ok=false means the unit
// no longer exists and must be dropped from the index.
type RefreshFunc func(id uint32) (State, bool)

// Index is the unit container, unique by id and by location. No two live
// units may share a location.
type Index struct {
	byID    map[uint32]*Record
	byLoc   map[types.Loc]*Record
	refresh RefreshFunc
}

// New returns an empty index. refresh may be nil, in which case dirty
// records are served as-is.
func New(refresh RefreshFunc) *Index {
	return &Index{
		byID:    make(map[uint32]*Record),
		byLoc:   make(map[types.Loc]*Record),
		refresh: refresh,
	}
}

// Insert adds a unit. It fails if the id or the location is already taken.
func (x *Index) Insert(r Record) error {
	if _, ok := x.byID[r.ID]; ok {
		return fmt.Errorf("unit id %d already present", r.ID)
	}
	if other, ok := x.byLoc[r.Loc]; ok {
		return fmt.Errorf("location %v already occupied by unit %d", r.Loc, other.ID)
	}
	rec := r
	x.byID[rec.ID] = &rec
	x.byLoc[rec.Loc] = &rec
	return nil
}

// Remove drops a unit by id; it reports whether the unit existed.
func (x *Index) Remove(id uint32) bool {
	rec, ok := x.byID[id]
	if !ok {
		return false
	}
	delete(x.byID, id)
	delete(x.byLoc, rec.Loc)
	return true
}

// ByID returns the record for id, refreshed if dirty.
func (x *Index) ByID(id uint32) (Record, bool) {
	rec, ok := x.byID[id]
	if !ok {
		return Record{}, false
	}
	if rec.Dirty {
		rec = x.refreshRecord(rec)
		if rec == nil {
			return Record{}, false
		}
	}
	return *rec, true
}

// At returns the unit standing at loc, refreshed if dirty. A unit whose
// refresh moved it elsewhere does not count as standing at loc.
func (x *Index) At(loc types.Loc) (Record, bool) {
	rec, ok := x.byLoc[loc]
	if !ok {
		return Record{}, false
	}
	if rec.Dirty {
		rec = x.refreshRecord(rec)
		if rec == nil || rec.Loc != loc {
			return Record{}, false
		}
	}
	return *rec, true
}

// MoveTo relocates a unit. It fails if the unit is unknown or the target
// location is occupied by another unit.
func (x *Index) MoveTo(id uint32, loc types.Loc) error {
	rec, ok := x.byID[id]
	if !ok {
		return fmt.Errorf("unit id %d not present", id)
	}
	if other, ok := x.byLoc[loc]; ok && other != rec {
		return fmt.Errorf("location %v already occupied by unit %d", loc, other.ID)
	}
	delete(x.byLoc, rec.Loc)
	rec.Loc = loc
	x.byLoc[loc] = rec
	return nil
}

// SetState overwrites a unit's cached script-side fields and clears Dirty.
func (x *Index) SetState(id uint32, s State) error {
	rec, ok := x.byID[id]
	if !ok {
		return fmt.Errorf("unit id %d not present", id)
	}
	if rec.Loc != s.Loc {
		if other, ok := x.byLoc[s.Loc]; ok && other != rec {
			return fmt.Errorf("location %v already occupied by unit %d", s.Loc, other.ID)
		}
		delete(x.byLoc, rec.Loc)
		x.byLoc[s.Loc] = rec
	}
	rec.Loc = s.Loc
	rec.Side = s.Side
	rec.Hidden = s.Hidden
	rec.EmitsZoC = s.EmitsZoC
	rec.Dirty = false
	return nil
}

// MarkDirty flags one unit for refresh-on-read.
func (x *Index) MarkDirty(id uint32) {
	if rec, ok := x.byID[id]; ok {
		rec.Dirty = true
	}
}

// MarkAllDirty flags every unit for refresh-on-read.
func (x *Index) MarkAllDirty() {
	for _, rec := range x.byID {
		rec.Dirty = true
	}
}

// refreshRecord pulls fresh truth for rec. It returns the updated record, or
// nil when the owner no longer knows the unit (in which case it is removed).
func (x *Index) refreshRecord(rec *Record) *Record {
	if x.refresh == nil {
		return rec
	}
	s, ok := x.refresh(rec.ID)
	if !ok {
		delete(x.byID, rec.ID)
		delete(x.byLoc, rec.Loc)
		return nil
	}
	if s.Loc != rec.Loc {
		// Reindex; if the new hex is somehow occupied the newcomer wins,
		// matching script truth over the stale native view.
		delete(x.byLoc, rec.Loc)
		x.byLoc[s.Loc] = rec
	}
	rec.Loc = s.Loc
	rec.Side = s.Side
	rec.Hidden = s.Hidden
	rec.EmitsZoC = s.EmitsZoC
	rec.Dirty = false
	return rec
}

// Len returns the number of live units.
func (x *Index) Len() int {
	return len(x.byID)
}

// IDs returns all unit ids in ascending order.
func (x *Index) IDs() []uint32 {
	ids := make([]uint32, 0, len(x.byID))
	for id := range x.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every record in ascending id order, without refreshing.
func (x *Index) Each(fn func(Record)) {
	for _, id := range x.IDs() {
		fn(*x.byID[id])
	}
}

// Clear empties the index.
func (x *Index) Clear() {
	x.byID = make(map[uint32]*Record)
	x.byLoc = make(map[types.Loc]*Record)
}
