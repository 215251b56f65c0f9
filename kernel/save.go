package kernel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/hexcore/engine"
	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/gml"
	"github.com/nathoo/hexcore/types"
)

// Snapshot serializes the native caches and turn counters as a GML body.
// The tree prints and re-parses losslessly; iteration orders are sorted so
// identical states produce identical text.
func (k *Kernel) Snapshot() *gml.Body {
	b := &gml.Body{Name: "snapshot"}
	addAttr := func(key, value string) {
		b.Children = append(b.Children, gml.Attr{Key: key, Value: value})
	}
	addAttr("turn", strconv.Itoa(k.turn))
	addAttr("side", strconv.Itoa(k.currentSide))
	addAttr("phase", k.phase.String())
	addAttr("next_unit_id", strconv.Itoa(int(k.nextUnitID)))

	for _, loc := range sortedLocs(k.game.Terrain) {
		b.Children = append(b.Children, &gml.Body{Name: "terrain", Children: []gml.Node{
			gml.Attr{Key: "x", Value: strconv.Itoa(loc.X)},
			gml.Attr{Key: "y", Value: strconv.Itoa(loc.Y)},
			gml.Attr{Key: "type", Value: string(k.game.Terrain[loc])},
		}})
	}

	sideIDs := make([]int, 0, len(k.game.SideInfo))
	for id := range k.game.SideInfo {
		sideIDs = append(sideIDs, id)
	}
	sort.Ints(sideIDs)
	for _, id := range sideIDs {
		info := k.game.SideInfo[id]
		teams := ""
		for i, t := range info.Teams {
			if i > 0 {
				teams += ","
			}
			teams += t
		}
		b.Children = append(b.Children, &gml.Body{Name: "side", Children: []gml.Node{
			gml.Attr{Key: "side", Value: strconv.Itoa(id)},
			gml.Attr{Key: "controller", Value: controllerWire(info.Controller)},
			gml.Attr{Key: "teams", Value: teams},
		}})
	}

	// Read through ByID so dirty records refresh against script truth
	// before they are serialized.
	for _, id := range k.game.Units.IDs() {
		r, ok := k.game.Units.ByID(id)
		if !ok {
			continue
		}
		b.Children = append(b.Children, &gml.Body{Name: "unit", Children: []gml.Node{
			gml.Attr{Key: "id", Value: strconv.Itoa(int(r.ID))},
			gml.Attr{Key: "x", Value: strconv.Itoa(r.Loc.X)},
			gml.Attr{Key: "y", Value: strconv.Itoa(r.Loc.Y)},
			gml.Attr{Key: "side", Value: strconv.Itoa(r.Side)},
			gml.Attr{Key: "hidden", Value: yesNo(r.Hidden)},
			gml.Attr{Key: "emits_zoc", Value: yesNo(r.EmitsZoC)},
		}})
	}

	for _, loc := range sortedLocs(k.game.Labels) {
		l := k.game.Labels[loc]
		b.Children = append(b.Children, &gml.Body{Name: "label", Children: []gml.Node{
			gml.Attr{Key: "x", Value: strconv.Itoa(loc.X)},
			gml.Attr{Key: "y", Value: strconv.Itoa(loc.Y)},
			gml.Attr{Key: "owner", Value: strconv.Itoa(l.Owner)},
			gml.Attr{Key: "text", Value: l.Text},
		}})
	}

	for _, loc := range sortedLocs(k.game.Villages) {
		v := k.game.Villages[loc]
		b.Children = append(b.Children, &gml.Body{Name: "village", Children: []gml.Node{
			gml.Attr{Key: "x", Value: strconv.Itoa(loc.X)},
			gml.Attr{Key: "y", Value: strconv.Itoa(loc.Y)},
			gml.Attr{Key: "owner", Value: strconv.Itoa(v.Owner)},
		}})
	}

	return b
}

// RestoreSnapshot replaces the native caches and counters with the contents
// of a snapshot body. The script-side tables are not touched; callers that
// restore mid-session are expected to rebuild them and mark units dirty as
// needed. Tunnels and visibility overrides are runtime state and are not
// part of a snapshot.
func (k *Kernel) RestoreSnapshot(b *gml.Body) error {
	if b.Name != "snapshot" {
		return fmt.Errorf("kernel: expected [snapshot], got [%s]", b.Name)
	}

	game := engine.New(k.refreshUnit, k.areAllied)
	turn, side, nextID := 1, 1, 0
	phase := types.PhasePlay

	for _, n := range b.Children {
		switch n := n.(type) {
		case gml.Attr:
			switch n.Key {
			case "turn":
				turn = atoiOr(n.Value, 1)
			case "side":
				side = atoiOr(n.Value, 1)
			case "next_unit_id":
				nextID = atoiOr(n.Value, 0)
			case "phase":
				phase = parsePhase(n.Value)
			}
		case *gml.Body:
			if err := restoreBody(game, n); err != nil {
				return err
			}
		}
	}

	k.game = game
	k.turn = turn
	k.currentSide = side
	k.nextUnitID = uint32(nextID)
	k.phase = phase
	return nil
}

func restoreBody(game *engine.GameData, b *gml.Body) error {
	get := func(key string) string {
		v, _ := b.Get(key)
		return v
	}
	loc := types.Loc{X: atoiOr(get("x"), 0), Y: atoiOr(get("y"), 0)}

	switch b.Name {
	case "terrain":
		game.SetTerrain(loc, types.TerrainID(get("type")))
	case "side":
		id := atoiOr(get("side"), 0)
		info := game.Side(id)
		info.Controller = types.ParseController(get("controller"))
		if teams := get("teams"); teams != "" {
			info.Teams = splitTeams(teams)
		}
	case "unit":
		rec := unitmap.Record{
			ID:       uint32(atoiOr(get("id"), 0)),
			Loc:      loc,
			Side:     atoiOr(get("side"), 0),
			Hidden:   get("hidden") == "yes",
			EmitsZoC: get("emits_zoc") == "yes",
		}
		if err := game.Units.Insert(rec); err != nil {
			return fmt.Errorf("kernel: restoring unit: %w", err)
		}
	case "label":
		game.Labels[loc] = types.Label{Loc: loc, Owner: atoiOr(get("owner"), 0), Text: get("text")}
	case "village":
		game.Villages[loc] = types.Village{Loc: loc, Owner: atoiOr(get("owner"), 0)}
	default:
		return fmt.Errorf("kernel: unknown snapshot body [%s]", b.Name)
	}
	return nil
}

func sortedLocs[V any](m map[types.Loc]V) []types.Loc {
	locs := make([]types.Loc, 0, len(m))
	for l := range m {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Less(locs[j]) })
	return locs
}

func splitTeams(s string) []string {
	var teams []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			teams = append(teams, name)
		}
	}
	return teams
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func controllerWire(c types.Controller) string {
	switch c {
	case types.ControllerHuman:
		return "human"
	case types.ControllerAI:
		return "ai"
	case types.ControllerNetwork:
		return "network"
	case types.ControllerNetworkAI:
		return "network_ai"
	}
	return ""
}

func parsePhase(s string) types.Phase {
	for _, p := range []types.Phase{
		types.PhaseInitial, types.PhasePreload, types.PhasePrestart,
		types.PhaseStart, types.PhasePlay, types.PhaseEnd,
	} {
		if p.String() == s {
			return p
		}
	}
	return types.PhasePlay
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
