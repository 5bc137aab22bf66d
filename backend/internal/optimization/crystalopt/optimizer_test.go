package crystalopt

import (
	"testing"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
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

// TestExclusionViolationIncreasesDistanceMonotonically:
// two opposite-charge ionic atoms 0.5 apart in a cubic(10) cell, with an
// ionic_excluded relationship between them, must have their separation
// increase monotonically over 100 steps of (k_rep=1.0, eta_atom=0.01,
// eta_cell=0, p=0, rho=0.9): strictly while the pair is closer than the
// exclusion distance rho*(1.2+1.0) = 1.98, never decreasing afterwards,
// and ending with the exclusion satisfied.
func TestExclusionViolationIncreasesDistanceMonotonically(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(0.5, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := make([]species.CoordinationConstraints, 2)

	m := constraints.NewManager()
	m.CreateIonicExclusion(0, lattice.TranslatedIndex{Original: 1})

	s, err := objective.New(cubic(10.0), positions, []species.IonicSpecies{na, cl}, radii, coord, m)
	if err != nil {
		t.Fatalf("unexpected error building structure: %v", err)
	}

	params := StructuralOptimizationParameters{
		KRep: 1.0, KAttr: 0.0,
		EtaAtom: 0.01, EtaCell: 0.0,
		Pressure: 0.0,
		Rho:      0.9,
	}
	exclusionDistance := params.Rho * (1.2 + 1.0)

	prevDistance := s.Atoms[1].Position.Sub(s.Atoms[0].Position).Norm()
	for step := 0; step < 100; step++ {
		if err := Step(s, params); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		d := s.Atoms[1].Position.Sub(s.Atoms[0].Position).Norm()
		if d < prevDistance {
			t.Fatalf("step %d: distance decreased: %g -> %g", step, prevDistance, d)
		}
		if prevDistance < exclusionDistance-1e-9 && d <= prevDistance {
			t.Fatalf("step %d: distance inside the exclusion did not strictly increase: %g -> %g", step, prevDistance, d)
		}
		prevDistance = d
	}
	if !s.IsFeasible(0.0, params.Rho) {
		t.Errorf("expected the exclusion to be satisfied after 100 steps, final distance %g", prevDistance)
	}
}

// TestBondAttractsWithinLongRangeWindow checks the reciprocal half of the
// sign convention: a bonded pair outside r_max must be pulled together.
func TestBondAttractsWithinLongRangeWindow(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(3.0, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := make([]species.CoordinationConstraints, 2)

	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})

	s, err := objective.New(cubic(10.0), positions, []species.IonicSpecies{na, cl}, radii, coord, m)
	if err != nil {
		t.Fatalf("unexpected error building structure: %v", err)
	}

	params := StructuralOptimizationParameters{
		KRep: 1.0, KAttr: 1.0,
		EtaAtom: 0.01, EtaCell: 0.0,
	}

	before := s.Atoms[1].Position.Sub(s.Atoms[0].Position).Norm()
	if err := Step(s, params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := s.Atoms[1].Position.Sub(s.Atoms[0].Position).Norm()
	if after >= before {
		t.Errorf("bond beyond r_max should pull atoms together: before=%g after=%g", before, after)
	}
}

type recordingRecorder struct {
	steps []int
}

func (r *recordingRecorder) Record(step int, s *objective.Structure) {
	r.steps = append(r.steps, step)
}

func TestExecuteReportsAtRecordInterval(t *testing.T) {
	na := species.IonicSpecies{Z: 11, Charge: 1}
	cl := species.IonicSpecies{Z: 17, Charge: -1}
	positions := []linalg.Vec3{linalg.NewVec3(0, 0, 0), linalg.NewVec3(2.0, 0, 0)}
	radii := []species.AtomRadii{
		{Ionic: species.RadiusRange{Min: 1.0, Max: 1.2}},
		{Ionic: species.RadiusRange{Min: 0.8, Max: 1.0}},
	}
	coord := make([]species.CoordinationConstraints, 2)
	m := constraints.NewManager()
	m.CreateIonicBond(0, lattice.TranslatedIndex{Original: 1})

	s, err := objective.New(cubic(10.0), positions, []species.IonicSpecies{na, cl}, radii, coord, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := DefaultLocalParameters()
	params.MaxStepCount = 10
	params.RecordInterval = 3

	rec := &recordingRecorder{}
	if err := Execute(s, params, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{3, 6, 9}; !intSliceEqual(rec.steps, want) {
		t.Errorf("expected recordings at %v, got %v", want, rec.steps)
	}
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
