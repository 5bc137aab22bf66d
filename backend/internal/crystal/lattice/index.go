// Package lattice implements the periodic-image bookkeeping every other
// crystal package is built on: lattice points, original/translated atom
// indices, and the tracing/constraining neighbor enumeration.
package lattice

import "github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"

// LatticePoint is an integer translation (i, j, k) indexing a periodic
// image of the unit cell.
type LatticePoint struct {
	I, J, K int
}

// IsOrigin reports whether the lattice point is (0,0,0).
func (p LatticePoint) IsOrigin() bool {
	return p.I == 0 && p.J == 0 && p.K == 0
}

// Negate returns the reversed lattice point (-i,-j,-k).
func (p LatticePoint) Negate() LatticePoint {
	return LatticePoint{I: -p.I, J: -p.J, K: -p.K}
}

// Add returns the component-wise sum of two lattice points.
func (p LatticePoint) Add(other LatticePoint) LatticePoint {
	return LatticePoint{I: p.I + other.I, J: p.J + other.J, K: p.K + other.K}
}

// IsLexicographicallyPositive reports whether p is the canonical
// representative of {p, -p}: the first non-zero component is positive.
// Used to break ties when a translated pair's two endpoints share the
// same original index (self-image across a cell boundary).
func (p LatticePoint) IsLexicographicallyPositive() bool {
	switch {
	case p.I != 0:
		return p.I > 0
	case p.J != 0:
		return p.J > 0
	default:
		return p.K > 0
	}
}

// TranslationVector returns basis * (i,j,k) in Cartesian space.
func (p LatticePoint) TranslationVector(basis linalg.Mat3) linalg.Vec3 {
	return basis.MulVec(linalg.NewVec3(float64(p.I), float64(p.J), float64(p.K)))
}

// OriginalIndex indexes an atom in the source unit cell's atom list.
type OriginalIndex int

// TranslatedIndex is an atom in a specific periodic image: the original
// atom translated by LatticePoint.
type TranslatedIndex struct {
	Original     OriginalIndex
	LatticePoint LatticePoint
}

// IsInOriginalCell reports whether this translated index refers to the
// origin image, i.e. is equivalent to a plain OriginalIndex.
func (t TranslatedIndex) IsInOriginalCell() bool {
	return t.LatticePoint.IsOrigin()
}

// Reverse returns the translated index seen from the other endpoint: same
// original atom, negated lattice point.
func (t TranslatedIndex) Reverse() TranslatedIndex {
	return TranslatedIndex{Original: t.Original, LatticePoint: t.LatticePoint.Negate()}
}

// RelativeLatticePointTo returns the lattice point of t as seen relative
// to other, i.e. the offset that carries other's image to t's image when
// both translated indices are expressed relative to the same original
// cell. This is the arithmetic polyhedra pruning needs when re-anchoring
// a bond from one bridging atom to another.
func (t TranslatedIndex) RelativeLatticePointTo(other TranslatedIndex) LatticePoint {
	return LatticePoint{
		I: t.LatticePoint.I - other.LatticePoint.I,
		J: t.LatticePoint.J - other.LatticePoint.J,
		K: t.LatticePoint.K - other.LatticePoint.K,
	}
}
