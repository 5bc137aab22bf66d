package design

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// ReduceStructure invokes oracle to Delaunay-reduce the basis, raising
// ErrInfeasibleReduction if the result has non-positive volume, then
// rebuilds the full neighbor/constraint/polyhedra chain exactly as a
// fresh build would.
func (s *Structure) ReduceStructure(oracle symmetry.Oracle, p NeighborParameters) error {
	basis := s.cell.Basis()
	fractional := make([]linalg.Vec3, len(s.atoms))
	inverse := s.cell.InverseBasis()
	for i, a := range s.atoms {
		fractional[i] = inverse.MulVec(a.Position)
	}

	if err := oracle.DelaunayReduce(&basis, fractional); err != nil {
		return pkgerrors.Wrap(err, "design: delaunay reduction failed")
	}
	if basis.Determinant() <= 0 {
		return pkgerrors.WithStack(ErrInfeasibleReduction)
	}
	if err := s.SetBasis(basis); err != nil {
		return pkgerrors.Wrap(ErrInfeasibleReduction, err.Error())
	}
	for i := range s.atoms {
		s.atoms[i].Position = basis.MulVec(fractional[i])
	}

	s.RebuildNeighborData(p)
	return nil
}
