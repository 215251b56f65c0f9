package hexgrid

import (
	"testing"

	"github.com/nathoo/hexcore/types"
)

func TestNeighbors(t *testing.T) {
	topo := Default()

	tests := []struct {
		name string
		loc  types.Loc
		want [6]types.Loc
	}{
		{
			name: "odd column",
			loc:  types.Loc{X: 1, Y: 1},
			want: [6]types.Loc{
				{X: 1, Y: 0}, {X: 1, Y: 2},
				{X: 0, Y: 1}, {X: 0, Y: 2},
				{X: 2, Y: 1}, {X: 2, Y: 2},
			},
		},
		{
			name: "even column",
			loc:  types.Loc{X: 2, Y: 2},
			want: [6]types.Loc{
				{X: 2, Y: 1}, {X: 2, Y: 3},
				{X: 1, Y: 1}, {X: 1, Y: 2},
				{X: 3, Y: 1}, {X: 3, Y: 2},
			},
		},
		{
			name: "origin",
			loc:  types.Loc{X: 0, Y: 0},
			want: [6]types.Loc{
				{X: 0, Y: -1}, {X: 0, Y: 1},
				{X: -1, Y: -1}, {X: -1, Y: 0},
				{X: 1, Y: -1}, {X: 1, Y: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := topo.Neighbors(tt.loc); got != tt.want {
				t.Errorf("Neighbors(%v) = %v, want %v", tt.loc, got, tt.want)
			}
		})
	}
}

// Adjacency must be symmetric for every hex pair, whatever the shift
// convention.
func TestAdjacencySymmetric(t *testing.T) {
	for _, topo := range []Topology{New(EvenColumnsUp), New(OddColumnsUp)} {
		for x := -2; x <= 2; x++ {
			for y := -2; y <= 2; y++ {
				a := types.Loc{X: x, Y: y}
				for _, b := range topo.Neighbors(a) {
					if !topo.Adjacent(b, a) {
						t.Errorf("shift %v: %v adjacent to %v but not vice versa", topo.shift, a, b)
					}
				}
			}
		}
	}
}

func TestNeighborsDistinct(t *testing.T) {
	topo := Default()
	a := types.Loc{X: 3, Y: -1}
	seen := map[types.Loc]bool{a: true}
	for _, n := range topo.Neighbors(a) {
		if seen[n] {
			t.Errorf("duplicate or self neighbor %v", n)
		}
		seen[n] = true
	}
}

func TestAdjacentRejectsNonNeighbors(t *testing.T) {
	topo := Default()
	a := types.Loc{X: 1, Y: 1}
	for _, b := range []types.Loc{
		{X: 1, Y: 1},
		{X: 1, Y: 3},
		{X: 3, Y: 1},
		{X: 0, Y: 0},
		{X: 2, Y: 0},
	} {
		if topo.Adjacent(a, b) {
			t.Errorf("Adjacent(%v, %v) = true, want false", a, b)
		}
	}
}
