package kernel

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/types"
)

// registerEngineTable exposes the native callbacks the init script drives
// while it assembles the game tables. Every entry is a trampoline that
// recovers the host from the interpreter registry and dispatches to a
// member.
func (k *Kernel) registerEngineTable() {
	funcs := map[string]lua.LGFunction{
		"construct_side":  dispatch((*Kernel).intfConstructSide),
		"construct_unit":  dispatch((*Kernel).intfConstructUnit),
		"is_map_location": dispatch((*Kernel).intfIsMapLocation),
		"update_label":    dispatch((*Kernel).intfUpdateLabel),
		"update_terrain":  dispatch((*Kernel).intfUpdateTerrain),
		"update_unit":     dispatch((*Kernel).intfUpdateUnit),
		"update_village":  dispatch((*Kernel).intfUpdateVillage),
	}
	k.L.SetGlobal("engine", k.L.SetFuncs(k.L.NewTable(), funcs))
}

// locFromLValue accepts the two script-side location forms: the "x,y" wire
// string and an {x=…, y=…} table.
func locFromLValue(v lua.LValue) (types.Loc, bool) {
	switch v := v.(type) {
	case lua.LString:
		return types.ParseLoc(string(v))
	case *lua.LTable:
		x, xok := v.RawGetString("x").(lua.LNumber)
		y, yok := v.RawGetString("y").(lua.LNumber)
		if !xok || !yok {
			return types.Loc{}, false
		}
		return types.Loc{X: int(x), Y: int(y)}, true
	}
	return types.Loc{}, false
}

// checkLoc reads argument n as a location or raises a script error.
func (k *Kernel) checkLoc(L *lua.LState, n int) types.Loc {
	loc, ok := locFromLValue(L.Get(n))
	if !ok {
		L.ArgError(n, "expected an \"x,y\" string or {x=, y=} table")
	}
	return loc
}

// intfConstructSide records a side's controller, teams and vision-sharing
// flags in the native caches. Signature: engine.construct_side(n, cfg).
func (k *Kernel) intfConstructSide(L *lua.LState) int {
	side := L.CheckInt(1)
	cfg := L.CheckTable(2)

	info := k.game.Side(side)
	info.Controller = types.ParseController(getString(cfg, "controller"))
	info.Teams = splitTeams(getString(cfg, "teams"))
	k.game.Sides.SetShareVision(side, getBool(cfg, "share_vision", false))
	k.game.Sides.SetShareMaps(side, getBool(cfg, "share_maps", false))
	// The alliance graph may have changed shape.
	k.game.Sides.ClearAllyCache()

	k.log.Debug().Int("side", side).Stringer("controller", info.Controller).
		Msg("side constructed")
	return 0
}

// intfConstructUnit assigns the next unit id and indexes the unit.
// Signature: engine.construct_unit(cfg) -> id.
func (k *Kernel) intfConstructUnit(L *lua.LState) int {
	cfg := L.CheckTable(1)
	k.nextUnitID++
	rec := unitmap.Record{
		ID:       k.nextUnitID,
		Loc:      types.Loc{X: getInt(cfg, "x", 0), Y: getInt(cfg, "y", 0)},
		Side:     getInt(cfg, "side", 0),
		Hidden:   getBool(cfg, "hidden", false),
		EmitsZoC: getBool(cfg, "emits_zoc", false),
	}
	if err := k.game.Units.Insert(rec); err != nil {
		L.RaiseError("construct_unit: %v", err)
		return 0
	}
	L.Push(lua.LNumber(rec.ID))
	return 1
}

// intfIsMapLocation reports whether the argument denotes an on-map hex.
func (k *Kernel) intfIsMapLocation(L *lua.LState) int {
	loc, ok := locFromLValue(L.Get(1))
	L.Push(lua.LBool(ok && k.game.IsOnMap(loc)))
	return 1
}

// intfUpdateLabel sets or (with empty text) removes a map label.
// Signature: engine.update_label(loc, owner, text).
func (k *Kernel) intfUpdateLabel(L *lua.LState) int {
	loc := k.checkLoc(L, 1)
	owner := L.CheckInt(2)
	text := L.OptString(3, "")
	if text == "" {
		delete(k.game.Labels, loc)
		return 0
	}
	k.game.Labels[loc] = types.Label{Loc: loc, Owner: owner, Text: text}
	return 0
}

// intfUpdateTerrain writes terrain at a hex; an empty terrain id erases it.
// Signature: engine.update_terrain(loc, terrain).
func (k *Kernel) intfUpdateTerrain(L *lua.LState) int {
	loc := k.checkLoc(L, 1)
	k.game.SetTerrain(loc, types.TerrainID(L.OptString(2, "")))
	return 0
}

// intfUpdateUnit marks a unit's native record stale; the index refreshes it
// from the Units table before the next read.
// Signature: engine.update_unit(id).
func (k *Kernel) intfUpdateUnit(L *lua.LState) int {
	k.game.Units.MarkDirty(uint32(L.CheckInt(1)))
	return 0
}

// intfUpdateVillage records a village and its owner (0 = unowned); a
// negative owner removes the village. Signature:
// engine.update_village(loc, owner).
func (k *Kernel) intfUpdateVillage(L *lua.LState) int {
	loc := k.checkLoc(L, 1)
	owner := L.CheckInt(2)
	if owner < 0 {
		delete(k.game.Villages, loc)
		return 0
	}
	k.game.Villages[loc] = types.Village{Loc: loc, Owner: owner}
	return 0
}
