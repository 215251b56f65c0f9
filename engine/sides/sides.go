// Package sides caches per-side visibility state and the pairwise alliance
// predicate. Alliance truth lives script-side; the cache memoizes it and is
// cleared wholesale at engine-defined points (end of turn, Sides
// reassignment) rather than entry by entry.
package sides

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/nathoo/hexcore/types"
)

// AlliedFunc asks the owner whether two sides share a team. It is consulted
// only on ally-cache misses.
type AlliedFunc func(a, b int) (bool, error)

// Cache holds the per-side visibility tables and the alliance memo.
type Cache struct {
	shareVision map[int]bool
	shareMaps   map[int]bool
	fog         map[int]map[types.Loc]bool
	shroud      map[int]map[types.Loc]bool
	fogOverride map[int]map[types.Loc]bool

	allied AlliedFunc
	memo   map[[2]int]bool
}

// New returns an empty cache. allied may be nil, in which case only the
// diagonal is allied.
func New(allied AlliedFunc) *Cache {
	return &Cache{
		shareVision: make(map[int]bool),
		shareMaps:   make(map[int]bool),
		fog:         make(map[int]map[types.Loc]bool),
		shroud:      make(map[int]map[types.Loc]bool),
		fogOverride: make(map[int]map[types.Loc]bool),
		allied:      allied,
		memo:        make(map[[2]int]bool),
	}
}

// AreAllied reports whether sides a and b share a team. The result is
// memoized under the canonical (min,max) key; a side is always allied with
// itself. Script errors degrade to "not allied".
func (c *Cache) AreAllied(a, b int) bool {
	if a == b {
		return true
	}
	key := [2]int{a, b}
	if b < a {
		key = [2]int{b, a}
	}
	if v, ok := c.memo[key]; ok {
		return v
	}
	v := false
	if c.allied != nil {
		got, err := c.allied(key[0], key[1])
		if err == nil {
			v = got
		}
	}
	c.memo[key] = v
	return v
}

// ClearAllyCache empties the alliance memo.
func (c *Cache) ClearAllyCache() {
	c.memo = make(map[[2]int]bool)
}

// SetShareVision records whether a side shares its vision with allies.
func (c *Cache) SetShareVision(side int, share bool) {
	c.shareVision[side] = share
}

// SetShareMaps records whether a side shares its explored map with allies.
func (c *Cache) SetShareMaps(side int, share bool) {
	c.shareMaps[side] = share
}

// SetFog sets one side's fog state at a location.
func (c *Cache) SetFog(side int, loc types.Loc, fogged bool) {
	t, ok := c.fog[side]
	if !ok {
		t = make(map[types.Loc]bool)
		c.fog[side] = t
	}
	t[loc] = fogged
}

// SetShroud sets one side's shroud state at a location.
func (c *Cache) SetShroud(side int, loc types.Loc, shrouded bool) {
	t, ok := c.shroud[side]
	if !ok {
		t = make(map[types.Loc]bool)
		c.shroud[side] = t
	}
	t[loc] = shrouded
}

// ReplaceShroud swaps in a whole shroud table for a side.
func (c *Cache) ReplaceShroud(side int, table map[types.Loc]bool) {
	c.shroud[side] = table
}

// SetFogOverride sets a temporary fog override for one side at a location.
func (c *Cache) SetFogOverride(side int, loc types.Loc, fogged bool) {
	t, ok := c.fogOverride[side]
	if !ok {
		t = make(map[types.Loc]bool)
		c.fogOverride[side] = t
	}
	t[loc] = fogged
}

// ClearFogOverride drops a side's fog overrides.
func (c *Cache) ClearFogOverride(side int) {
	delete(c.fogOverride, side)
}

// TrueFog reports the side's raw fog at loc. Unset means fogged.
func (c *Cache) TrueFog(loc types.Loc, side int) bool {
	if t, ok := c.fog[side]; ok {
		if v, ok := t[loc]; ok {
			return v
		}
	}
	return true
}

// TrueShroud reports the side's raw shroud at loc. Unset means unshrouded.
func (c *Cache) TrueShroud(loc types.Loc, side int) bool {
	if t, ok := c.shroud[side]; ok {
		if v, ok := t[loc]; ok {
			return v
		}
	}
	return false
}

// FogOverride returns the side's fog override at loc, if any.
func (c *Cache) FogOverride(loc types.Loc, side int) (bool, bool) {
	if t, ok := c.fogOverride[side]; ok {
		if v, ok := t[loc]; ok {
			return v, true
		}
	}
	return false, false
}

// OverrideAdjustedFog is TrueFog with the override applied when present.
func (c *Cache) OverrideAdjustedFog(loc types.Loc, side int) bool {
	if v, ok := c.FogOverride(loc, side); ok {
		return v
	}
	return c.TrueFog(loc, side)
}

// AllyAdjustedFog reports fog at loc as seen by side once vision-sharing
// allies are taken into account: the hex is clear if any vision-sharing ally
// (the side itself included) sees it clear.
func (c *Cache) AllyAdjustedFog(loc types.Loc, side int) bool {
	for _, t := range c.sharingSides(c.shareVision) {
		if c.AreAllied(t, side) && !c.OverrideAdjustedFog(loc, t) {
			return false
		}
	}
	return true
}

// AllyAdjustedShroud reports shroud at loc as seen by side once map-sharing
// allies are taken into account.
func (c *Cache) AllyAdjustedShroud(loc types.Loc, side int) bool {
	for _, t := range c.sharingSides(c.shareMaps) {
		if c.AreAllied(t, side) && !c.TrueShroud(loc, t) {
			return false
		}
	}
	return c.TrueShroud(loc, side)
}

// sharingSides returns the sides flagged true in table, in ascending order
// so ally-cache population is deterministic.
func (c *Cache) sharingSides(table map[int]bool) []int {
	ids := maps.Keys(table)
	sort.Ints(ids)
	out := ids[:0]
	for _, s := range ids {
		if table[s] {
			out = append(out, s)
		}
	}
	return out
}
