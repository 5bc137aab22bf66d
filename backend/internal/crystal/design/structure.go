package design

import (
	"math/rand"

	pkgerrors "github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/cell"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/polyhedra"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// Structure is the design-facing constraining crystal structure. It
// exclusively owns its atom list, its neighbor index, its constraint
// manager, and its RNG.
type Structure struct {
	cell    *cell.UnitCell
	atoms   []ConstrainingAtom
	manager *constraints.Manager
	rng     *rand.Rand

	tracingSameCell        []lattice.Pair
	tracingTranslated      []lattice.TranslatedPair
	constrainingSameCell   []lattice.Pair
	constrainingTranslated []lattice.TranslatedPair
}

// New builds a Structure from a basis and an atom list, taking ownership
// of rng as its RNG. Returns ErrInvalidCell if the basis has non-positive
// volume.
func New(basis linalg.Mat3, atoms []ConstrainingAtom, rng *rand.Rand) (*Structure, error) {
	c, err := cell.NewUnitCell(basis)
	if err != nil {
		return nil, pkgerrors.Wrap(ErrInvalidCell, err.Error())
	}
	return &Structure{
		cell:    c,
		atoms:   append([]ConstrainingAtom(nil), atoms...),
		manager: constraints.NewManager(),
		rng:     rng,
	}, nil
}

// Len returns the number of atoms.
func (s *Structure) Len() int { return len(s.atoms) }

// Atoms returns a copy of the current atom list.
func (s *Structure) Atoms() []ConstrainingAtom {
	return append([]ConstrainingAtom(nil), s.atoms...)
}

// Basis returns the current unit-cell basis.
func (s *Structure) Basis() linalg.Mat3 { return s.cell.Basis() }

// Cell exposes the owned unit cell (read-only use expected; mutate only
// through SetBasis/ReduceStructure/perturbation).
func (s *Structure) Cell() *cell.UnitCell { return s.cell }

// Manager exposes the owned constraint ledger for read-only queries.
func (s *Structure) Manager() *constraints.Manager { return s.manager }

// SetBasis installs a new basis, rejecting a non-positive-volume result.
func (s *Structure) SetBasis(basis linalg.Mat3) error {
	if err := s.cell.SetBasis(basis); err != nil {
		return pkgerrors.Wrap(ErrInvalidCell, err.Error())
	}
	return nil
}

func (s *Structure) positions() []linalg.Vec3 {
	out := make([]linalg.Vec3, len(s.atoms))
	for i, a := range s.atoms {
		out[i] = a.Position
	}
	return out
}

func (s *Structure) speciesOf() []species.IonicSpecies {
	out := make([]species.IonicSpecies, len(s.atoms))
	for i, a := range s.atoms {
		out[i] = a.Species
	}
	return out
}

func (s *Structure) radiiOf() []species.AtomRadii {
	out := make([]species.AtomRadii, len(s.atoms))
	for i, a := range s.atoms {
		out[i] = a.Radii
	}
	return out
}

func (s *Structure) coordinationOf() []species.CoordinationConstraints {
	out := make([]species.CoordinationConstraints, len(s.atoms))
	for i, a := range s.atoms {
		out[i] = a.Coordination
	}
	return out
}

// pairRadius is the tracing/constraining cutoff radius sum for a pair
// of atoms: the sum of each atom's largest declared radius.
func (s *Structure) pairRadius(a, b lattice.OriginalIndex) float64 {
	return maxRadius(s.atoms[a].Radii) + maxRadius(s.atoms[b].Radii)
}

func (s *Structure) geometry() constraints.Geometry {
	return constraints.Geometry{
		Basis:     s.cell.Basis(),
		Positions: s.positions(),
		Species:   s.speciesOf(),
		Radii:     s.radiiOf(),
	}
}

// BuildObjective snapshots the current structure into a fresh
// objective.Structure: atoms, species/coordination lists for
// re-import, and the ten frozen constraint pair lists.
func (s *Structure) BuildObjective() (*objective.Structure, error) {
	return objective.New(s.cell.Basis(), s.positions(), s.speciesOf(), s.radiiOf(), s.coordinationOf(), s.manager)
}

// ImportStructure copies the basis and atom positions of g back into
// s. It never imports g's constraint lists: those remain s's exclusive
// property, only ever mutated through s's own derivation and pruning
// methods.
func (s *Structure) ImportStructure(g *objective.Structure) error {
	if len(g.Atoms) != len(s.atoms) {
		return pkgerrors.Wrap(objective.ErrInfeasibleObjective, "design: import structure atom count mismatch")
	}
	if err := s.SetBasis(g.Basis); err != nil {
		return err
	}
	for i := range s.atoms {
		s.atoms[i].Position = g.Atoms[i].Position
	}
	return nil
}

// IsFeasible builds a transient objective snapshot and runs its
// feasibility predicates.
func (s *Structure) IsFeasible(eps, rho float64) (bool, error) {
	g, err := s.BuildObjective()
	if err != nil {
		return false, err
	}
	return g.IsFeasible(eps, rho), nil
}

// HasFeasibleCoordinationComposition builds a transient objective
// snapshot and checks only the per-atom coordination-composition
// predicate, independent of bond length (used by the driver to decide
// whether to proceed to local refinement).
func (s *Structure) HasFeasibleCoordinationComposition() (bool, error) {
	g, err := s.BuildObjective()
	if err != nil {
		return false, err
	}
	return g.CoordinationFeasible(), nil
}

// NeighborParameters bundles the cutoff ratios and polyhedra
// feasibility table needed to (re)derive the neighbor index,
// constraint ledger, and polyhedra connectivity from scratch.
type NeighborParameters struct {
	TracerCutoffRatio      float64
	ConstrainerCutoffRatio float64
	PolyhedraTable         polyhedra.FeasibleBridging
}

// UpdateTracingIndexPairs recomputes the tracing pairs.
func (s *Structure) UpdateTracingIndexPairs(tracerCutoffRatio float64) {
	s.tracingSameCell, s.tracingTranslated = lattice.UpdateTracingIndexPairs(
		s.cell.Basis(), s.positions(), s.pairRadius, tracerCutoffRatio)
}

// CreateInteratomicDistanceConstraints filters the current tracing
// pairs down to the constraining cutoff.
func (s *Structure) CreateInteratomicDistanceConstraints(constrainerCutoffRatio float64) {
	s.constrainingSameCell, s.constrainingTranslated = lattice.CreateInteratomicDistanceConstraints(
		s.cell.Basis(), s.positions(), s.pairRadius,
		s.tracingSameCell, s.tracingTranslated, constrainerCutoffRatio)
}

// CreateChemicalBonds derives bonds/repulsions over the current
// constraining pairs.
func (s *Structure) CreateChemicalBonds() {
	constraints.CreateChemicalBonds(s.manager, s.geometry(), s.constrainingSameCell, s.constrainingTranslated)
}

// OptimizeCoordinationCompositions prunes over-coordinated centres.
func (s *Structure) OptimizeCoordinationCompositions() {
	constraints.OptimizeCoordinationCompositions(s.manager, s.geometry(), s.coordinationOf())
}

// ErasePolyhedra prunes ionic polyhedra links that exceed table.
func (s *Structure) ErasePolyhedra(table polyhedra.FeasibleBridging) {
	polyhedra.EraseInfeasibleIonicPolyhedraConnections(s.manager, s.speciesOf(), table, s.rng)
}

// RebuildNeighborData reruns the full tracing -> constraining ->
// chemical-bond-derivation -> polyhedra-pruning chain from scratch,
// the step every cell reduction and neighbor-staleness timeout
// triggers.
func (s *Structure) RebuildNeighborData(p NeighborParameters) {
	s.UpdateTracingIndexPairs(p.TracerCutoffRatio)
	s.CreateInteratomicDistanceConstraints(p.ConstrainerCutoffRatio)
	s.CreateChemicalBonds()
	s.OptimizeCoordinationCompositions()
	s.ErasePolyhedra(p.PolyhedraTable)
}

// NormalizeFractionalCoordinates wraps every atom's fractional
// coordinate into [0,1)^3, changing no inter-atom distance.
func (s *Structure) NormalizeFractionalCoordinates() {
	basis := s.cell.Basis()
	inverse := s.cell.InverseBasis()
	fractional := make([]linalg.Vec3, len(s.atoms))
	for i, a := range s.atoms {
		fractional[i] = inverse.MulVec(a.Position)
	}
	lattice.NormalizeFractionalCoordinates(fractional)
	for i := range s.atoms {
		s.atoms[i].Position = basis.MulVec(fractional[i])
	}
}

// EraseInfeasibleBonds removes any bond/exclusion/repulsion whose
// current Cartesian distance no longer satisfies its feasibility
// predicate under (eps, rho) — the designer's failure-path bond
// cleanup.
func (s *Structure) EraseInfeasibleBonds(eps, rho float64) {
	g := s.geometry()
	check := func(kind constraints.BondKind, feasible func(d2, rMin, rMax float64) bool) {
		for _, key := range s.manager.Keys(kind) {
			d2 := pairDistanceSquared(g, key.A, key.B)
			ra, rb := s.atoms[key.A].Radii, s.atoms[key.B.Original].Radii
			var rMin, rMax float64
			switch kind {
			case constraints.CovalentBond:
				rMin, rMax = ra.Covalent.Min+rb.Covalent.Min, ra.Covalent.Max+rb.Covalent.Max
			case constraints.IonicBond:
				rMin, rMax = ra.Ionic.Min+rb.Ionic.Min, ra.Ionic.Max+rb.Ionic.Max
			case constraints.CovalentExclusion:
				rMax = ra.Covalent.Max + rb.Covalent.Max
			case constraints.IonicExclusion:
				rMax = ra.Ionic.Max + rb.Ionic.Max
			case constraints.IonicRepulsion:
				rMin = ra.IonicRepulsion.Min + rb.IonicRepulsion.Min
			}
			if !feasible(d2, rMin, rMax) {
				s.manager.EraseKey(key)
			}
		}
	}
	check(constraints.CovalentBond, func(d2, rMin, rMax float64) bool { return constraints.BondFeasible(d2, rMin, rMax, eps) })
	check(constraints.IonicBond, func(d2, rMin, rMax float64) bool { return constraints.BondFeasible(d2, rMin, rMax, eps) })
	check(constraints.CovalentExclusion, func(d2, _, rMax float64) bool { return constraints.ExclusionFeasible(d2, rMax, eps, rho) })
	check(constraints.IonicExclusion, func(d2, _, rMax float64) bool { return constraints.ExclusionFeasible(d2, rMax, eps, rho) })
	check(constraints.IonicRepulsion, func(d2, rMin, _ float64) bool { return constraints.RepulsionFeasible(d2, rMin, eps) })
}

func pairDistanceSquared(g constraints.Geometry, a lattice.OriginalIndex, b lattice.TranslatedIndex) float64 {
	offset := b.LatticePoint.TranslationVector(g.Basis)
	d := g.Positions[b.Original].Add(offset).Sub(g.Positions[a])
	return d.NormSquare()
}
