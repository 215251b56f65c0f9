// Package types defines the shared data structures for the hexcore engine.
// This package contains only type definitions and trivial accessors — no
// game logic.
package types

import "fmt"

// Loc is a map location in offset hex coordinates. Locations order
// lexicographically: by x, then by y.
type Loc struct {
	X int
	Y int
}

// Less reports whether l sorts before m.
func (l Loc) Less(m Loc) bool {
	return l.X < m.X || (l.X == m.X && l.Y < m.Y)
}

// String renders the wire form used to key the script-side game tables.
func (l Loc) String() string {
	return fmt.Sprintf("%d,%d", l.X, l.Y)
}

// ParseLoc parses the "x,y" wire form.
func ParseLoc(s string) (Loc, bool) {
	var l Loc
	if _, err := fmt.Sscanf(s, "%d,%d", &l.X, &l.Y); err != nil {
		return Loc{}, false
	}
	if s != l.String() {
		return Loc{}, false
	}
	return l, true
}

// TerrainID is an opaque short terrain code.
type TerrainID string

// TerrainMap maps on-map locations to terrain. Locations absent from the
// map are off-map; pathfinding treats them as impassable.
type TerrainMap map[Loc]TerrainID

// Path is a sequence of locations, reached hex first, path root last.
type Path []Loc

// Label is a piece of text attached to a map location by a side.
type Label struct {
	Loc   Loc
	Owner int
	Text  string
}

// Village is a capturable location with an owning side (0 = unowned).
type Village struct {
	Loc   Loc
	Owner int
}

// Phase is the kernel lifecycle phase.
type Phase int

const (
	PhaseInitial Phase = iota
	PhasePreload
	PhasePrestart
	PhaseStart
	PhasePlay
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "INITIAL"
	case PhasePreload:
		return "PRELOAD"
	case PhasePrestart:
		return "PRESTART"
	case PhaseStart:
		return "START"
	case PhasePlay:
		return "PLAY"
	case PhaseEnd:
		return "END"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// SideResult is the outcome recorded for a side.
type SideResult int

const (
	ResultNone SideResult = iota
	ResultVictory
	ResultDefeat
)

func (r SideResult) String() string {
	switch r {
	case ResultVictory:
		return "VICTORY"
	case ResultDefeat:
		return "DEFEAT"
	}
	return "NONE"
}

// Controller identifies who plays a side.
type Controller int

const (
	ControllerEmpty Controller = iota
	ControllerHuman
	ControllerAI
	ControllerNetwork
	ControllerNetworkAI
)

func (c Controller) String() string {
	switch c {
	case ControllerHuman:
		return "HUMAN"
	case ControllerAI:
		return "AI"
	case ControllerNetwork:
		return "NETWORK"
	case ControllerNetworkAI:
		return "NETWORK_AI"
	}
	return "EMPTY"
}

// ParseController maps the script-side controller strings. Unknown values
// fall back to EMPTY.
func ParseController(s string) Controller {
	switch s {
	case "human":
		return ControllerHuman
	case "ai":
		return ControllerAI
	case "network":
		return ControllerNetwork
	case "network_ai":
		return ControllerNetworkAI
	}
	return ControllerEmpty
}
