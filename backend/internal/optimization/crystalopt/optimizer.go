package crystalopt

import (
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// Recorder is given a snapshot of the structure being optimized every
// record_interval steps and on forced triggers. Implementations must not
// retain s beyond the call, since the optimizer mutates it in place
// immediately afterwards.
type Recorder interface {
	Record(step int, s *objective.Structure)
}

// pairForce evaluates the force-kernel branch for a pair at
// displacement against the window [rMin, rMax]: the repulsive branch
// always increases the pair's distance, the attractive branch always
// decreases it. Force f is the force applied to the first ("a") atom of
// the pair; the second ("b") atom receives -f.
func pairForce(displacement linalg.Vec3, rMin, rMax, kRep, kAttr float64, repulsiveOnly bool) (f linalg.Vec3, active bool) {
	norm := displacement.Norm()
	if norm < 1e-12 {
		return linalg.Zero3(), false
	}
	dir := displacement.Scale(1.0 / norm)
	d2 := displacement.NormSquare()

	switch {
	case d2 < rMin*rMin:
		return dir.Scale(-kRep), true
	case !repulsiveOnly && d2 > rMax*rMax:
		return dir.Scale(kAttr), true
	default:
		return linalg.Zero3(), false
	}
}

type forcePass struct {
	s             *objective.Structure
	cellTransform [3]linalg.Vec3
	params        StructuralOptimizationParameters
}

func (fp *forcePass) apply(a, b lattice.OriginalIndex, displacement, f linalg.Vec3) {
	fp.s.Atoms[a].Force = fp.s.Atoms[a].Force.Add(f)
	fp.s.Atoms[b].Force = fp.s.Atoms[b].Force.Sub(f)

	fracDisp := fp.s.InverseBasis.MulVec(displacement).Array()
	for c := 0; c < 3; c++ {
		fp.cellTransform[c] = fp.cellTransform[c].Sub(f.Scale(fracDisp[c]))
	}
}

func (fp *forcePass) sameCellPairs(pairs []lattice.Pair, rMin, rMax func(a, b lattice.OriginalIndex) (float64, float64), repulsiveOnly bool) {
	for _, p := range pairs {
		d := fp.s.Atoms[p.B].Position.Sub(fp.s.Atoms[p.A].Position)
		lo, hi := rMin(p.A, p.B)
		if f, active := pairForce(d, lo, hi, fp.params.KRep, fp.params.KAttr, repulsiveOnly); active {
			fp.apply(p.A, p.B, d, f)
		}
	}
}

func (fp *forcePass) translatedPairs(pairs []lattice.TranslatedPair, rMin, rMax func(a, b lattice.OriginalIndex) (float64, float64), repulsiveOnly bool) {
	for _, p := range pairs {
		offset := p.B.LatticePoint.TranslationVector(fp.s.Basis)
		d := fp.s.Atoms[p.B.Original].Position.Add(offset).Sub(fp.s.Atoms[p.A].Position)
		lo, hi := rMin(p.A, p.B.Original)
		if f, active := pairForce(d, lo, hi, fp.params.KRep, fp.params.KAttr, repulsiveOnly); active {
			fp.apply(p.A, p.B.Original, d, f)
		}
	}
}

// Step advances s by one integrator step under params: zero the
// forces, accumulate the pressure term on the cell, run every pair
// list through the force kernel, then move atoms and deform the basis.
func Step(s *objective.Structure, params StructuralOptimizationParameters) error {
	for i := range s.Atoms {
		s.Atoms[i].Force = linalg.Zero3()
	}

	fp := &forcePass{s: s, params: params}

	cols := [3]linalg.Vec3{s.Basis.Col0, s.Basis.Col1, s.Basis.Col2}
	for k := 0; k < 3; k++ {
		fp.cellTransform[k] = fp.cellTransform[k].AddScaled(params.Pressure, cols[(k+1)%3].Cross(cols[(k+2)%3]))
	}

	covalentWindow := func(a, b lattice.OriginalIndex) (float64, float64) {
		ra, rb := s.Atoms[a].Radii.Covalent, s.Atoms[b].Radii.Covalent
		return ra.Min + rb.Min, ra.Max + rb.Max
	}
	ionicWindow := func(a, b lattice.OriginalIndex) (float64, float64) {
		ra, rb := s.Atoms[a].Radii.Ionic, s.Atoms[b].Radii.Ionic
		return ra.Min + rb.Min, ra.Max + rb.Max
	}
	covalentExclusionThreshold := func(a, b lattice.OriginalIndex) (float64, float64) {
		ra, rb := s.Atoms[a].Radii.Covalent, s.Atoms[b].Radii.Covalent
		rMin := params.Rho * (ra.Max + rb.Max)
		return rMin, rMin
	}
	ionicExclusionThreshold := func(a, b lattice.OriginalIndex) (float64, float64) {
		ra, rb := s.Atoms[a].Radii.Ionic, s.Atoms[b].Radii.Ionic
		rMin := params.Rho * (ra.Max + rb.Max)
		return rMin, rMin
	}
	repulsionThreshold := func(a, b lattice.OriginalIndex) (float64, float64) {
		ra, rb := s.Atoms[a].Radii.IonicRepulsion, s.Atoms[b].Radii.IonicRepulsion
		rMin := ra.Min + rb.Min
		return rMin, rMin
	}

	fp.sameCellPairs(s.CovalentBondedSameCell, covalentWindow, covalentWindow, false)
	fp.translatedPairs(s.CovalentBondedTranslated, covalentWindow, covalentWindow, false)
	fp.sameCellPairs(s.IonicBondedSameCell, ionicWindow, ionicWindow, false)
	fp.translatedPairs(s.IonicBondedTranslated, ionicWindow, ionicWindow, false)

	fp.sameCellPairs(s.CovalentExcludedSameCell, covalentExclusionThreshold, covalentExclusionThreshold, true)
	fp.translatedPairs(s.CovalentExcludedTranslated, covalentExclusionThreshold, covalentExclusionThreshold, true)
	fp.sameCellPairs(s.IonicExcludedSameCell, ionicExclusionThreshold, ionicExclusionThreshold, true)
	fp.translatedPairs(s.IonicExcludedTranslated, ionicExclusionThreshold, ionicExclusionThreshold, true)
	fp.sameCellPairs(s.IonicRepulsedSameCell, repulsionThreshold, repulsionThreshold, true)
	fp.translatedPairs(s.IonicRepulsedTranslated, repulsionThreshold, repulsionThreshold, true)

	for i := range s.Atoms {
		s.Atoms[i].Position = s.Atoms[i].Position.AddScaled(params.EtaAtom, s.Atoms[i].Force)
	}

	cellTransform := linalg.NewMat3FromColumns(fp.cellTransform[0], fp.cellTransform[1], fp.cellTransform[2])
	s.Basis = s.Basis.AddScaled(params.EtaCell, cellTransform)

	inverse, err := s.Basis.Inverse()
	if err != nil {
		return err
	}
	s.InverseBasis = inverse
	return nil
}

// Execute runs params.MaxStepCount integrator steps, reporting to rec (if
// non-nil) every params.RecordInterval steps. Stops early and returns the
// step-advance error the first time Step fails (a degenerate cell).
func Execute(s *objective.Structure, params StructuralOptimizationParameters, rec Recorder) error {
	for step := 0; step < params.MaxStepCount; step++ {
		if err := Step(s, params); err != nil {
			return err
		}
		if rec != nil && params.RecordInterval > 0 && (step+1)%params.RecordInterval == 0 {
			rec.Record(step+1, s)
		}
	}
	return nil
}
