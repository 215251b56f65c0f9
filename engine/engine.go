// Package engine holds the native game-state container: the terrain map,
// unit index, sides cache and pathfinding engine that the script host keeps
// in sync with the script-side game tables.
package engine

import (
	"github.com/nathoo/hexcore/engine/hexgrid"
	"github.com/nathoo/hexcore/engine/pathfind"
	"github.com/nathoo/hexcore/engine/sides"
	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/types"
)

// SideInfo is the native cache of one script-side side entry.
type SideInfo struct {
	Controller types.Controller
	Result     types.SideResult
	Teams      []string
}

// GameData aggregates everything the host owns natively. The script owns
// the truth for units and sides; these structures cache it for pathfinding
// and the visibility queries.
type GameData struct {
	Topo     hexgrid.Topology
	Terrain  types.TerrainMap
	Units    *unitmap.Index
	Sides    *sides.Cache
	Pathfind *pathfind.Engine
	Labels   map[types.Loc]types.Label
	Villages map[types.Loc]types.Village
	SideInfo map[int]*SideInfo
}

// New builds an empty GameData. refresh and allied are the host hooks that
// reach back into script for unit and alliance truth; either may be nil.
func New(refresh unitmap.RefreshFunc, allied sides.AlliedFunc) *GameData {
	topo := hexgrid.Default()
	return &GameData{
		Topo:     topo,
		Terrain:  make(types.TerrainMap),
		Units:    unitmap.New(refresh),
		Sides:    sides.New(allied),
		Pathfind: pathfind.New(topo),
		Labels:   make(map[types.Loc]types.Label),
		Villages: make(map[types.Loc]types.Village),
		SideInfo: make(map[int]*SideInfo),
	}
}

// IsOnMap reports whether l has terrain.
func (g *GameData) IsOnMap(l types.Loc) bool {
	_, ok := g.Terrain[l]
	return ok
}

// SetTerrain writes terrain at l; an empty id erases the hex from the map.
func (g *GameData) SetTerrain(l types.Loc, id types.TerrainID) {
	if id == "" {
		delete(g.Terrain, l)
		return
	}
	g.Terrain[l] = id
}

// Side returns the cached record for a side, creating it on first use.
func (g *GameData) Side(n int) *SideInfo {
	s, ok := g.SideInfo[n]
	if !ok {
		s = &SideInfo{}
		g.SideInfo[n] = s
	}
	return s
}

// NSides returns the number of sides constructed so far.
func (g *GameData) NSides() int {
	return len(g.SideInfo)
}

// Query returns a pathfinding query pre-wired to this game state.
func (g *GameData) Query(start types.Loc) pathfind.Query {
	return pathfind.Query{
		Start:   start,
		Terrain: g.Terrain,
		Units:   g.Units,
		Sides:   g.Sides,
	}
}
