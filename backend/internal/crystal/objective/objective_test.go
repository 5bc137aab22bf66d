package objective

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

func cubic(a float64) linalg.Mat3 {
	return linalg.NewMat3FromColumns(
		linalg.NewVec3(a, 0, 0),
		linalg.NewVec3(0, a, 0),
		linalg.NewVec3(0, 0, a),
	)
}

// TestStructureFeasibleIonicPair: an in-window ionic pair with
// satisfied coordination bounds is feasible.
func TestStructureFeasibleIonicPair(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(2.0, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := []species.CoordinationConstraints{
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Min: 0, Max: 1}},
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Min: 0, Max: 1}},
	}

	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})

	s, err := New(cubic(10.0), positions, []species.IonicSpecies{na, cl}, radii, coord, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsFeasible(0.0, 0.9) {
		t.Error("expected the in-window ionic pair to be feasible")
	}
}

// TestStructureExclusionViolation: a pair far inside its exclusion
// radius is infeasible (the dynamic monotonic-increase half of this
// scenario lives in the optimizer tests).
func TestStructureExclusionViolation(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(0.5, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := []species.CoordinationConstraints{
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Max: -1}},
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Max: -1}},
	}

	m := constraints.NewManager()
	m.CreateIonicExclusion(0, lattice.TranslatedIndex{Original: 1})

	s, err := New(cubic(10.0), positions, []species.IonicSpecies{na, cl}, radii, coord, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.IsFeasible(0.0, 0.9) {
		t.Error("expected the too-close excluded pair to be infeasible")
	}
}

// TestStructureRebuiltFromSameInputsIsStructurallyIdentical: rebuilding
// a Structure twice from the same
// basis/positions/species/radii/coordination/manager inputs must
// produce bit-identical pair lists and atom state, with go-cmp doing
// the field-by-field diff.
func TestStructureRebuiltFromSameInputsIsStructurallyIdentical(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(2.0, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := []species.CoordinationConstraints{
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Min: 0, Max: 1}},
		{CovalentNumber: species.IntBound{Max: -1}, IonicNumber: species.IntBound{Min: 0, Max: 1}},
	}
	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})

	speciesOf := []species.IonicSpecies{na, cl}
	first, err := New(cubic(10.0), positions, speciesOf, radii, coord, m)
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	second, err := New(cubic(10.0), positions, speciesOf, radii, coord, m)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebuilding from identical inputs produced a different Structure (-first +second):\n%s", diff)
	}
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	m := constraints.NewManager()
	_, err := New(cubic(10.0),
		[]linalg.Vec3{linalg.NewVec3(0, 0, 0)},
		[]species.IonicSpecies{{Z: 1}, {Z: 2}},
		[]species.AtomRadii{{}},
		[]species.CoordinationConstraints{{}},
		m,
	)
	if err == nil {
		t.Error("expected an error for mismatched parallel slice lengths")
	}
}
