package design

import (
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// randomSymmetricStress builds a symmetric 3x3 "stress tensor" with
// every independent entry drawn uniformly from [-amplitude, amplitude].
func (s *Structure) randomSymmetricStress(amplitude float64) linalg.Mat3 {
	u := func() float64 { return (s.rng.Float64()*2 - 1) * amplitude }
	s00, s01, s02 := u(), u(), u()
	s11, s12 := u(), u()
	s22 := u()
	return linalg.NewMat3FromColumns(
		linalg.NewVec3(s00, s01, s02),
		linalg.NewVec3(s01, s11, s12),
		linalg.NewVec3(s02, s12, s22),
	)
}

// randomUnitVector samples a direction uniformly on the unit sphere via
// the standard normal-then-normalize construction.
func (s *Structure) randomUnitVector() linalg.Vec3 {
	for {
		v := linalg.NewVec3(s.rng.NormFloat64(), s.rng.NormFloat64(), s.rng.NormFloat64())
		if n := v.Norm(); n > 1e-9 {
			return v.Scale(1 / n)
		}
	}
}

// distort applies a stress tensor of the given amplitude to the cell
// and an isotropic jitter of magnitude uniform in [0, jitterScale] *
// radius to every atom. Returns ErrInvalidCell if the perturbed basis
// collapses to non-positive volume.
func (s *Structure) distort(stressAmplitude, jitterScale float64) error {
	stress := s.randomSymmetricStress(stressAmplitude)
	basis := s.cell.Basis()
	newBasis := basis.Add(stress.Mul(basis))
	if err := s.SetBasis(newBasis); err != nil {
		return err
	}

	for i := range s.atoms {
		a := &s.atoms[i]
		displaced := a.Position.Add(stress.MulVec(a.Position))
		magnitude := s.rng.Float64() * jitterScale * atomRadiusForPerturbation(a.Radii)
		a.Position = displaced.Add(s.randomUnitVector().Scale(magnitude))
	}
	return nil
}

// DistortStructure applies the small-amplitude perturbation (stress
// entries in [-0.1,0.1], jitter scale 0.1) used as the routine escape
// from a precise-refinement failure.
func (s *Structure) DistortStructure() error {
	return s.distort(0.1, 0.1)
}

// DistortStructureLargely applies the double-amplitude perturbation
// (stress entries in [-0.2,0.2], jitter scale 0.2) used by the
// watchdog when global optimization stalls without reaching
// coordination feasibility.
func (s *Structure) DistortStructureLargely() error {
	return s.distort(0.2, 0.2)
}
