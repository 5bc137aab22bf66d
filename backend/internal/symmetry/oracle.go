// Package symmetry declares the oracle contract the crystal designer
// treats as an external collaborator: Delaunay reduction,
// primitive/conventional cell reduction, and space-group/Wyckoff
// determination. None of it is implemented here from first principles —
// see latreduce for the module's own conservative default adapter.
package symmetry

import "github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"

// SiteInfo is the symmetry-derived annotation an oracle attaches to an
// atom once a space group has been determined: its crystallographic
// site label, Wyckoff letter, and site-symmetry symbol.
type SiteInfo struct {
	Label        string
	Wyckoff      string
	SiteSymmetry string
}

// SymmetryOp is a (rotation, translation) pair consistent with a
// declared space group: rotation is integer-valued in the reduced
// basis, translation is fractional in [0,1)^3.
type SymmetryOp struct {
	Rotation    linalg.Mat3
	Translation linalg.Vec3
}

// Oracle is the abstract contract the designer driver calls into for
// every symmetry-aware operation. Fractional coordinates are always
// passed and returned in the same atom order; ToPrimitive and
// Conventionalize may change the number of atoms (and so return fresh
// slices rather than mutating in place), while DelaunayReduce only
// reshapes the basis and wraps coordinates, so it mutates fractional in
// place.
type Oracle interface {
	// DelaunayReduce mutates basis to a Delaunay-reduced cell and wraps
	// fractional into [0,1)^3, preserving atom count and order.
	DelaunayReduce(basis *linalg.Mat3, fractional []linalg.Vec3) error

	// ToPrimitive reduces to the primitive cell, returning the new basis,
	// fractional coordinates, and per-atom site info, plus the detected
	// space-group number.
	ToPrimitive(basis linalg.Mat3, fractional []linalg.Vec3, sites []SiteInfo) (
		newBasis linalg.Mat3, newFractional []linalg.Vec3, newSites []SiteInfo, spaceGroupNumber int, err error)

	// Conventionalize is the analogous reduction to the conventional cell.
	Conventionalize(basis linalg.Mat3, fractional []linalg.Vec3, sites []SiteInfo) (
		newBasis linalg.Mat3, newFractional []linalg.Vec3, newSites []SiteInfo, spaceGroupNumber int, err error)

	// UpdateSymmetryInformation populates site labels/Wyckoff/site-symmetry
	// without changing cell or positions.
	UpdateSymmetryInformation(basis linalg.Mat3, fractional []linalg.Vec3, sites []SiteInfo) (
		updatedSites []SiteInfo, spaceGroupNumber int, err error)

	// SymmetryOperations returns the operations consistent with the
	// declared space group; implementations retry at precision*0.8, up to
	// 20 attempts, before failing with ErrSymmetryOracleFailure.
	SymmetryOperations(basis linalg.Mat3, spaceGroupNumber int, precision float64) ([]SymmetryOp, error)
}

// MaxSymmetryRetries bounds the precision-relaxation retry loop
// SymmetryOperations implementations must apply.
const MaxSymmetryRetries = 20

// PrecisionBackoff is the multiplicative precision relaxation applied
// between retries.
const PrecisionBackoff = 0.8
