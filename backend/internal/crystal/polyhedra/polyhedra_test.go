package polyhedra

import (
	"math/rand"
	"testing"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
)

func TestClassifyByBridgeCount(t *testing.T) {
	cases := map[int]LinkClass{0: NoLink, 1: Vertex, 2: Edge, 3: Face, 5: Face}
	for n, want := range cases {
		if got := ClassifyByBridgeCount(n); got != want {
			t.Errorf("ClassifyByBridgeCount(%d) = %v, want %v", n, got, want)
		}
	}
}

// Two cation centres (0,1) both ionic-bonded to two shared same-cell
// anions (2,3): an edge-sharing link.
func TestFindLinksEdgeSharing(t *testing.T) {
	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 2})
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 3})
	m.CreateIonicBond(1, lattice.TranslatedIndex{Original: 2})
	m.CreateIonicBond(1, lattice.TranslatedIndex{Original: 3})

	links := FindLinks(m)
	if len(links) != 1 {
		t.Fatalf("expected exactly one link, got %+v", links)
	}
	if links[0].Class() != Edge {
		t.Errorf("expected edge-sharing (2 bridges), got %v with bridges %+v", links[0].Class(), links[0].Bridges)
	}
}

func TestFindLinksRespectsLatticeOffsets(t *testing.T) {
	m := constraints.NewManager()
	// a=0, b=1 bonded across one cell (offset I=1).
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1, LatticePoint: lattice.LatticePoint{I: 1}})
	// x=2 bonded to a in the home cell (Lax = 0).
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 2})
	// For x to bridge, b's bond to x must satisfy Lax == Lab + Lbx, i.e.
	// Lbx == Lax - Lab == 0 - 1 == -1.
	m.CreateIonicBond(1, lattice.TranslatedIndex{Original: 2, LatticePoint: lattice.LatticePoint{I: -1}})

	links := FindLinks(m)
	if len(links) != 1 || len(links[0].Bridges) != 1 {
		t.Fatalf("expected one link with one consistent bridge, got %+v", links)
	}
}

func TestFindLinksRejectsInconsistentImage(t *testing.T) {
	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 2})
	// b's bond to x has a different image than Lab+Lbx would require (Lab=0, so Lbx must be 0 too).
	m.CreateIonicBond(1, lattice.TranslatedIndex{Original: 2, LatticePoint: lattice.LatticePoint{I: 1}})

	links := FindLinks(m)
	if len(links) != 0 {
		t.Errorf("mismatched lattice images should not bridge, got %+v", links)
	}
}

func TestEraseInfeasibleIonicPolyhedraConnectionsPrunesToTarget(t *testing.T) {
	cation := species.IonicSpecies{Z: 13, Charge: 3}
	anion := species.IonicSpecies{Z: 8, Charge: -2}
	speciesOf := []species.IonicSpecies{cation, cation, anion, anion, anion}

	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})
	for _, x := range []lattice.OriginalIndex{2, 3, 4} {
		m.CreateIonicBond(0, lattice.TranslatedIndex{Original: x})
		m.CreateIonicBond(1, lattice.TranslatedIndex{Original: x})
	}

	links := FindLinks(m)
	if len(links) != 1 || links[0].Class() != Face {
		t.Fatalf("test setup invariant violated: expected a face link, got %+v", links)
	}

	table := FeasibleBridging{NewSpeciesPair(cation, cation): 2}
	EraseInfeasibleIonicPolyhedraConnections(m, speciesOf, table, rand.New(rand.NewSource(1)))

	after := FindLinks(m)
	if len(after) != 1 {
		t.Fatalf("expected the link to survive at reduced size, got %+v", after)
	}
	if len(after[0].Bridges) != 2 {
		t.Errorf("expected pruning down to 2 bridges, got %d: %+v", len(after[0].Bridges), after[0].Bridges)
	}
}

func TestClosestFeasibleCommonBridgingNeverGrows(t *testing.T) {
	cation := species.IonicSpecies{Z: 13, Charge: 3}
	anion := species.IonicSpecies{Z: 8, Charge: -2}
	table := FeasibleBridging{NewSpeciesPair(cation, anion): 4}

	if got := table.ClosestFeasibleCommonBridging(cation, anion, 2); got != 2 {
		t.Errorf("observed below the limit should pass through unchanged, got %d", got)
	}
	if got := table.ClosestFeasibleCommonBridging(cation, anion, 6); got != 4 {
		t.Errorf("observed above the limit should clamp to 4, got %d", got)
	}
}
