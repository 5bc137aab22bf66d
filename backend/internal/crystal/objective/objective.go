// Package objective implements the optimizer-facing flat crystal
// structure: a frozen snapshot of atom positions, radii, forces, and
// the ten constraint pair lists the force kernel and feasibility
// predicates iterate over. It never talks back to the design-facing
// structure that built it.
package objective

import (
	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// ErrInfeasibleObjective is returned when an objective structure is built
// or imported from parallel slices whose lengths disagree — a programmer
// error, never a property of the physical structure itself.
var ErrInfeasibleObjective = errors.New("objective: atom list and species/coordination-constraint lists have mismatched lengths")

// Atom is one atom's optimizer-facing state: identity, radii, current
// Cartesian position, and the force accumulated against it this step.
type Atom struct {
	Species  species.IonicSpecies
	Radii    species.AtomRadii
	Position linalg.Vec3
	Force    linalg.Vec3
}

// Structure is the flat, optimizer-facing crystal structure.
type Structure struct {
	Basis        linalg.Mat3
	InverseBasis linalg.Mat3

	Atoms          []Atom
	CoordinationOf []species.CoordinationConstraints

	CovalentBondedSameCell     []lattice.Pair
	CovalentBondedTranslated   []lattice.TranslatedPair
	CovalentExcludedSameCell   []lattice.Pair
	CovalentExcludedTranslated []lattice.TranslatedPair
	IonicBondedSameCell        []lattice.Pair
	IonicBondedTranslated      []lattice.TranslatedPair
	IonicExcludedSameCell      []lattice.Pair
	IonicExcludedTranslated    []lattice.TranslatedPair
	IonicRepulsedSameCell      []lattice.Pair
	IonicRepulsedTranslated    []lattice.TranslatedPair
}

// New builds a Structure from a basis, a parallel atom/species/constraint
// triple, and the bond/exclusion/repulsion ledger. It errors (does not
// panic) on mismatched slice lengths, since unlike an internal geometry
// bug this is the one place a caller could plausibly misuse the API.
func New(
	basis linalg.Mat3,
	positions []linalg.Vec3,
	speciesOf []species.IonicSpecies,
	radiiOf []species.AtomRadii,
	coordOf []species.CoordinationConstraints,
	m *constraints.Manager,
) (*Structure, error) {
	n := len(positions)
	if len(speciesOf) != n || len(radiiOf) != n || len(coordOf) != n {
		return nil, errors.WithStack(ErrInfeasibleObjective)
	}

	inverse, err := basis.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "objective: degenerate basis")
	}

	atoms := make([]Atom, n)
	for i := range atoms {
		atoms[i] = Atom{Species: speciesOf[i], Radii: radiiOf[i], Position: positions[i]}
	}

	s := &Structure{
		Basis:          basis,
		InverseBasis:   inverse,
		Atoms:          atoms,
		CoordinationOf: append([]species.CoordinationConstraints(nil), coordOf...),

		CovalentBondedSameCell:     m.SameCellKeys(constraints.CovalentBond),
		CovalentBondedTranslated:   m.TranslatedKeys(constraints.CovalentBond),
		CovalentExcludedSameCell:   m.SameCellKeys(constraints.CovalentExclusion),
		CovalentExcludedTranslated: m.TranslatedKeys(constraints.CovalentExclusion),
		IonicBondedSameCell:        m.SameCellKeys(constraints.IonicBond),
		IonicBondedTranslated:      m.TranslatedKeys(constraints.IonicBond),
		IonicExcludedSameCell:      m.SameCellKeys(constraints.IonicExclusion),
		IonicExcludedTranslated:    m.TranslatedKeys(constraints.IonicExclusion),
		IonicRepulsedSameCell:      m.SameCellKeys(constraints.IonicRepulsion),
		IonicRepulsedTranslated:    m.TranslatedKeys(constraints.IonicRepulsion),
	}
	return s, nil
}

func (s *Structure) distanceSquared(a lattice.OriginalIndex, b lattice.OriginalIndex) float64 {
	d := s.Atoms[b].Position.Sub(s.Atoms[a].Position)
	return d.NormSquare()
}

func (s *Structure) distanceSquaredTranslated(tp lattice.TranslatedPair) float64 {
	offset := tp.B.LatticePoint.TranslationVector(s.Basis)
	d := s.Atoms[tp.B.Original].Position.Add(offset).Sub(s.Atoms[tp.A].Position)
	return d.NormSquare()
}

// IsFeasible runs every feasibility predicate over all ten constraint
// pair lists, plus the per-atom coordination-composition check, with
// error rate eps and exclusion ratio rho.
func (s *Structure) IsFeasible(eps, rho float64) bool {
	for i, cc := range s.CoordinationOf {
		if !s.hasFeasibleCoordinationComposition(lattice.OriginalIndex(i), cc) {
			return false
		}
	}

	for _, p := range s.CovalentBondedSameCell {
		if !s.covalentBondFeasible(p.A, p.B, eps) {
			return false
		}
	}
	for _, p := range s.CovalentBondedTranslated {
		if !s.covalentBondFeasibleTranslated(p, eps) {
			return false
		}
	}
	for _, p := range s.CovalentExcludedSameCell {
		if !s.covalentExclusionFeasible(p.A, p.B, eps, rho) {
			return false
		}
	}
	for _, p := range s.CovalentExcludedTranslated {
		if !s.covalentExclusionFeasibleTranslated(p, eps, rho) {
			return false
		}
	}
	for _, p := range s.IonicBondedSameCell {
		if !s.ionicBondFeasible(p.A, p.B, eps) {
			return false
		}
	}
	for _, p := range s.IonicBondedTranslated {
		if !s.ionicBondFeasibleTranslated(p, eps) {
			return false
		}
	}
	for _, p := range s.IonicExcludedSameCell {
		if !s.ionicExclusionFeasible(p.A, p.B, eps, rho) {
			return false
		}
	}
	for _, p := range s.IonicExcludedTranslated {
		if !s.ionicExclusionFeasibleTranslated(p, eps, rho) {
			return false
		}
	}
	for _, p := range s.IonicRepulsedSameCell {
		if !s.ionicRepulsionFeasible(p.A, p.B, eps) {
			return false
		}
	}
	for _, p := range s.IonicRepulsedTranslated {
		if !s.ionicRepulsionFeasibleTranslated(p, eps) {
			return false
		}
	}
	return true
}

// CoordinationFeasible reports whether every atom's bonded-neighbor
// composition satisfies its coordination constraints, independent of the
// bond-length feasibility predicates. The designer driver uses this to
// decide whether a structure has cleared coordination pruning and is
// ready for local/precise refinement.
func (s *Structure) CoordinationFeasible() bool {
	for i, cc := range s.CoordinationOf {
		if !s.hasFeasibleCoordinationComposition(lattice.OriginalIndex(i), cc) {
			return false
		}
	}
	return true
}

func (s *Structure) covalentBondFeasible(a, b lattice.OriginalIndex, eps float64) bool {
	ra, rb := s.Atoms[a].Radii.Covalent, s.Atoms[b].Radii.Covalent
	return constraints.BondFeasible(s.distanceSquared(a, b), ra.Min+rb.Min, ra.Max+rb.Max, eps)
}
func (s *Structure) covalentBondFeasibleTranslated(p lattice.TranslatedPair, eps float64) bool {
	ra, rb := s.Atoms[p.A].Radii.Covalent, s.Atoms[p.B.Original].Radii.Covalent
	return constraints.BondFeasible(s.distanceSquaredTranslated(p), ra.Min+rb.Min, ra.Max+rb.Max, eps)
}
func (s *Structure) ionicBondFeasible(a, b lattice.OriginalIndex, eps float64) bool {
	ra, rb := s.Atoms[a].Radii.Ionic, s.Atoms[b].Radii.Ionic
	return constraints.BondFeasible(s.distanceSquared(a, b), ra.Min+rb.Min, ra.Max+rb.Max, eps)
}
func (s *Structure) ionicBondFeasibleTranslated(p lattice.TranslatedPair, eps float64) bool {
	ra, rb := s.Atoms[p.A].Radii.Ionic, s.Atoms[p.B.Original].Radii.Ionic
	return constraints.BondFeasible(s.distanceSquaredTranslated(p), ra.Min+rb.Min, ra.Max+rb.Max, eps)
}
func (s *Structure) covalentExclusionFeasible(a, b lattice.OriginalIndex, eps, rho float64) bool {
	ra, rb := s.Atoms[a].Radii.Covalent, s.Atoms[b].Radii.Covalent
	return constraints.ExclusionFeasible(s.distanceSquared(a, b), ra.Max+rb.Max, eps, rho)
}
func (s *Structure) covalentExclusionFeasibleTranslated(p lattice.TranslatedPair, eps, rho float64) bool {
	ra, rb := s.Atoms[p.A].Radii.Covalent, s.Atoms[p.B.Original].Radii.Covalent
	return constraints.ExclusionFeasible(s.distanceSquaredTranslated(p), ra.Max+rb.Max, eps, rho)
}
func (s *Structure) ionicExclusionFeasible(a, b lattice.OriginalIndex, eps, rho float64) bool {
	ra, rb := s.Atoms[a].Radii.Ionic, s.Atoms[b].Radii.Ionic
	return constraints.ExclusionFeasible(s.distanceSquared(a, b), ra.Max+rb.Max, eps, rho)
}
func (s *Structure) ionicExclusionFeasibleTranslated(p lattice.TranslatedPair, eps, rho float64) bool {
	ra, rb := s.Atoms[p.A].Radii.Ionic, s.Atoms[p.B.Original].Radii.Ionic
	return constraints.ExclusionFeasible(s.distanceSquaredTranslated(p), ra.Max+rb.Max, eps, rho)
}
func (s *Structure) ionicRepulsionFeasible(a, b lattice.OriginalIndex, eps float64) bool {
	ra, rb := s.Atoms[a].Radii.IonicRepulsion, s.Atoms[b].Radii.IonicRepulsion
	return constraints.RepulsionFeasible(s.distanceSquared(a, b), ra.Min+rb.Min, eps)
}
func (s *Structure) ionicRepulsionFeasibleTranslated(p lattice.TranslatedPair, eps float64) bool {
	ra, rb := s.Atoms[p.A].Radii.IonicRepulsion, s.Atoms[p.B.Original].Radii.IonicRepulsion
	return constraints.RepulsionFeasible(s.distanceSquaredTranslated(p), ra.Min+rb.Min, eps)
}

// hasFeasibleCoordinationComposition checks atom c's bonded-neighbor
// composition (covalent + ionic, same-cell + translated) against its
// coordination constraints.
func (s *Structure) hasFeasibleCoordinationComposition(c lattice.OriginalIndex, cc species.CoordinationConstraints) bool {
	if !cc.HasFeasibleCompositions() {
		covCount, ionCount := s.countBondsOf(c)
		return cc.CovalentNumber.Contains(covCount) && cc.IonicNumber.Contains(ionCount)
	}

	current := s.compositionOf(c)
	for _, allowed := range cc.AllowedCompositions {
		if compositionsEqual(allowed, current) {
			return true
		}
	}
	return false
}

func (s *Structure) countBondsOf(c lattice.OriginalIndex) (covalent, ionic int) {
	count := func(sameCell []lattice.Pair, translated []lattice.TranslatedPair) int {
		n := 0
		for _, p := range sameCell {
			if p.A == c || p.B == c {
				n++
			}
		}
		for _, p := range translated {
			if p.A == c || p.B.Original == c {
				n++
			}
		}
		return n
	}
	return count(s.CovalentBondedSameCell, s.CovalentBondedTranslated), count(s.IonicBondedSameCell, s.IonicBondedTranslated)
}

func (s *Structure) compositionOf(c lattice.OriginalIndex) species.Composition {
	comp := make(species.Composition)
	add := func(partner lattice.OriginalIndex) { comp[s.Atoms[partner].Species]++ }
	for _, p := range s.CovalentBondedSameCell {
		if p.A == c {
			add(p.B)
		} else if p.B == c {
			add(p.A)
		}
	}
	for _, p := range s.CovalentBondedTranslated {
		if p.A == c {
			add(p.B.Original)
		} else if p.B.Original == c {
			add(p.A)
		}
	}
	for _, p := range s.IonicBondedSameCell {
		if p.A == c {
			add(p.B)
		} else if p.B == c {
			add(p.A)
		}
	}
	for _, p := range s.IonicBondedTranslated {
		if p.A == c {
			add(p.B.Original)
		} else if p.B.Original == c {
			add(p.A)
		}
	}
	return comp
}

func compositionsEqual(a, b species.Composition) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
