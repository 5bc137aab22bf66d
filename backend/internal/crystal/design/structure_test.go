package design

import (
	"math/rand"
	"testing"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

func cubicCell(side float64) linalg.Mat3 {
	return linalg.NewMat3FromColumns(
		linalg.NewVec3(side, 0, 0),
		linalg.NewVec3(0, side, 0),
		linalg.NewVec3(0, 0, side),
	)
}

// TestSingleIonicPairInWindow: two atoms with opposite charge at a
// distance within the ionic bond window must be recorded as an ionic
// bond, and nowhere else.
func TestSingleIonicPairInWindow(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	oneIonicBond := species.CoordinationConstraints{IonicNumber: species.IntBound{Min: 1, Max: 1}}
	atoms := []ConstrainingAtom{
		{Species: na, Radii: species.AtomRadii{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}}, Coordination: oneIonicBond, Position: linalg.NewVec3(0, 0, 0)},
		{Species: cl, Radii: species.AtomRadii{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}}, Coordination: oneIonicBond, Position: linalg.NewVec3(2.0, 0, 0)},
	}
	s, err := New(cubicCell(10.0), atoms, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A cutoff of 1.5 * 2.2 = 3.3 reaches the pair at 2.0 but none of the
	// periodic images (the nearest lies 8.0 away).
	s.UpdateTracingIndexPairs(1.5)
	s.CreateInteratomicDistanceConstraints(1.5)
	s.CreateChemicalBonds()

	bonded := s.Manager().Keys(constraints.IonicBond)
	if len(bonded) != 1 {
		t.Fatalf("expected exactly one ionic bond, got %d", len(bonded))
	}
	for _, kind := range []constraints.BondKind{
		constraints.CovalentBond, constraints.CovalentExclusion,
		constraints.IonicExclusion, constraints.IonicRepulsion,
	} {
		if got := len(s.Manager().Keys(kind)); got != 0 {
			t.Errorf("expected no %s entries, got %d", kind, got)
		}
	}

	feasible, err := s.IsFeasible(0.0, 0.9)
	if err != nil {
		t.Fatalf("IsFeasible: %v", err)
	}
	if !feasible {
		t.Error("expected feasible structure")
	}
}

// TestImportStructureRoundTrip exercises the build/import round trip:
// positions and cell must come back unchanged when the objective
// snapshot is unmodified.
func TestImportStructureRoundTrip(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	atoms := []ConstrainingAtom{
		{Species: na, Radii: species.AtomRadii{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}}, Position: linalg.NewVec3(0, 0, 0)},
		{Species: cl, Radii: species.AtomRadii{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}}, Position: linalg.NewVec3(2.0, 0, 0)},
	}
	s, err := New(cubicCell(10.0), atoms, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	g, err := s.BuildObjective()
	if err != nil {
		t.Fatalf("BuildObjective: %v", err)
	}
	if len(g.Atoms) != s.Len() {
		t.Fatalf("objective atom count %d != structure atom count %d", len(g.Atoms), s.Len())
	}

	if err := s.ImportStructure(g); err != nil {
		t.Fatalf("ImportStructure: %v", err)
	}
	for i, a := range s.Atoms() {
		if a.Position != atoms[i].Position {
			t.Errorf("atom %d position changed on idempotent round trip: %v != %v", i, a.Position, atoms[i].Position)
		}
	}
	if s.Basis() != cubicCell(10.0) {
		t.Error("basis changed on idempotent round trip")
	}
}

// TestImportStructureMismatchedLength checks the ErrInfeasibleObjective
// programmer-error guard.
func TestImportStructureMismatchedLength(t *testing.T) {
	atoms := []ConstrainingAtom{{Position: linalg.NewVec3(0, 0, 0)}}
	s, err := New(cubicCell(10.0), atoms, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g, err := s.BuildObjective()
	if err != nil {
		t.Fatalf("BuildObjective: %v", err)
	}
	g.Atoms = append(g.Atoms, g.Atoms[0])
	if err := s.ImportStructure(g); err == nil {
		t.Error("expected mismatched-length import to fail")
	}
}

// TestDistortStructureChangesCellAndPositions checks the perturbation
// applies a nonzero displacement without collapsing the cell, across a
// handful of seeds (the distortion direction is random).
func TestDistortStructureChangesCellAndPositions(t *testing.T) {
	atoms := []ConstrainingAtom{
		{Radii: species.AtomRadii{Covalent: species.RadiusRange{Min: 0.5, Max: 0.8}}, Position: linalg.NewVec3(1, 1, 1)},
		{Radii: species.AtomRadii{Covalent: species.RadiusRange{Min: 0.5, Max: 0.8}}, Position: linalg.NewVec3(3, 3, 3)},
	}
	for seed := int64(0); seed < 5; seed++ {
		s, err := New(cubicCell(10.0), atoms, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		before := s.Atoms()
		if err := s.DistortStructure(); err != nil {
			t.Fatalf("DistortStructure: %v", err)
		}
		if s.Cell().Volume() <= 0 {
			t.Fatal("distortion collapsed the cell")
		}
		after := s.Atoms()
		changed := false
		for i := range before {
			if before[i].Position != after[i].Position {
				changed = true
			}
		}
		if !changed {
			t.Error("expected distortion to move at least one atom")
		}
	}
}

func TestNewRejectsDegenerateCell(t *testing.T) {
	degenerate := linalg.NewMat3FromColumns(linalg.NewVec3(1, 0, 0), linalg.NewVec3(0, 1, 0), linalg.NewVec3(1, 1, 0))
	if _, err := New(degenerate, nil, rand.New(rand.NewSource(0))); err == nil {
		t.Error("expected degenerate (zero-volume) cell to be rejected")
	}
}
