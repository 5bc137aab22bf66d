// Package cell implements the periodic unit cell: the 3x3 basis whose
// columns are the lattice vectors a, b, c, plus the fractional/Cartesian
// conversions every other crystal package builds on.
package cell

import (
	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// UnitCell owns a basis matrix and its cached inverse. Callers must go
// through SetBasis (never mutate Basis in place) so the cache stays valid.
type UnitCell struct {
	basis        linalg.Mat3
	inverseBasis linalg.Mat3
}

// NewUnitCell builds a cell from its basis vectors, refreshing the
// inverse cache immediately. Returns an error if the basis is degenerate
// (det <= 0) — a left-handed or collapsed cell is never valid here.
func NewUnitCell(basis linalg.Mat3) (*UnitCell, error) {
	c := &UnitCell{}
	if err := c.SetBasis(basis); err != nil {
		return nil, err
	}
	return c, nil
}

// Basis returns the current basis matrix (columns a, b, c).
func (c *UnitCell) Basis() linalg.Mat3 {
	return c.basis
}

// InverseBasis returns the cached B^-1.
func (c *UnitCell) InverseBasis() linalg.Mat3 {
	return c.inverseBasis
}

// SetBasis installs a new basis and refreshes the inverse cache.
// Rejects any basis with non-positive determinant.
func (c *UnitCell) SetBasis(basis linalg.Mat3) error {
	det := basis.Determinant()
	if det <= 0 {
		return errors.Errorf("cell: basis determinant must be positive, got %g", det)
	}
	inv, err := basis.Inverse()
	if err != nil {
		return errors.Wrap(err, "cell: failed to invert basis")
	}
	c.basis = basis
	c.inverseBasis = inv
	return nil
}

// Volume returns |det(B)|.
func (c *UnitCell) Volume() float64 {
	d := c.basis.Determinant()
	if d < 0 {
		return -d
	}
	return d
}

// FractionalToCartesian converts a fractional coordinate to Cartesian: B*f.
func (c *UnitCell) FractionalToCartesian(fractional linalg.Vec3) linalg.Vec3 {
	return c.basis.MulVec(fractional)
}

// CartesianToFractional converts a Cartesian coordinate to fractional: B^-1*x.
func (c *UnitCell) CartesianToFractional(cartesian linalg.Vec3) linalg.Vec3 {
	return c.inverseBasis.MulVec(cartesian)
}

// TranslationVector returns B*(i,j,k) for a lattice point (i,j,k).
func (c *UnitCell) TranslationVector(i, j, k int) linalg.Vec3 {
	return c.FractionalToCartesian(linalg.NewVec3(float64(i), float64(j), float64(k)))
}

// Clone returns a deep (value) copy; Mat3/Vec3 are plain value types so
// this is just a struct copy, exposed for clarity at call sites that
// snapshot the cell into an ObjectiveCrystalStructure.
func (c *UnitCell) Clone() *UnitCell {
	clone := *c
	return &clone
}
