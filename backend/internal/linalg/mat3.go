package linalg

import "math"

// EpsilonDeterminant is the smallest |det(M)| this package will invert;
// below it, Inverse reports errSingular instead of dividing by ~0.
const EpsilonDeterminant = 1e-10

// Mat3 is a 3x3 matrix stored column-major: Col0, Col1, Col2 are its
// three columns (for a UnitCell these are the lattice vectors a, b, c).
type Mat3 struct {
	Col0, Col1, Col2 Vec3
}

// NewMat3FromColumns builds a matrix from its three columns.
func NewMat3FromColumns(a, b, c Vec3) Mat3 {
	return Mat3{Col0: a, Col1: b, Col2: c}
}

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		Col0: Vec3{1, 0, 0},
		Col1: Vec3{0, 1, 0},
		Col2: Vec3{0, 0, 1},
	}
}

// At returns M[row, col], row and col in [0,2].
func (m Mat3) At(row, col int) float64 {
	var c Vec3
	switch col {
	case 0:
		c = m.Col0
	case 1:
		c = m.Col1
	default:
		c = m.Col2
	}
	switch row {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// Add returns m + other, component-wise.
func (m Mat3) Add(other Mat3) Mat3 {
	return Mat3{m.Col0.Add(other.Col0), m.Col1.Add(other.Col1), m.Col2.Add(other.Col2)}
}

// Sub returns m - other.
func (m Mat3) Sub(other Mat3) Mat3 {
	return Mat3{m.Col0.Sub(other.Col0), m.Col1.Sub(other.Col1), m.Col2.Sub(other.Col2)}
}

// Scale returns m * s.
func (m Mat3) Scale(s float64) Mat3 {
	return Mat3{m.Col0.Scale(s), m.Col1.Scale(s), m.Col2.Scale(s)}
}

// AddScaled returns m + scale*other, the form the integrator applies to the basis.
func (m Mat3) AddScaled(scale float64, other Mat3) Mat3 {
	return Mat3{
		m.Col0.AddScaled(scale, other.Col0),
		m.Col1.AddScaled(scale, other.Col1),
		m.Col2.AddScaled(scale, other.Col2),
	}
}

// MulVec returns M * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m.Col0.X*v.X + m.Col1.X*v.Y + m.Col2.X*v.Z,
		Y: m.Col0.Y*v.X + m.Col1.Y*v.Y + m.Col2.Y*v.Z,
		Z: m.Col0.Z*v.X + m.Col1.Z*v.Y + m.Col2.Z*v.Z,
	}
}

// Mul returns M * other.
func (m Mat3) Mul(other Mat3) Mat3 {
	return Mat3{
		Col0: m.MulVec(other.Col0),
		Col1: m.MulVec(other.Col1),
		Col2: m.MulVec(other.Col2),
	}
}

// Transpose returns M^T.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		Col0: Vec3{m.Col0.X, m.Col1.X, m.Col2.X},
		Col1: Vec3{m.Col0.Y, m.Col1.Y, m.Col2.Y},
		Col2: Vec3{m.Col0.Z, m.Col1.Z, m.Col2.Z},
	}
}

// Determinant returns det(M), computed as the scalar triple product of
// its columns.
func (m Mat3) Determinant() float64 {
	cross := Vec3{
		X: m.Col1.Y*m.Col2.Z - m.Col1.Z*m.Col2.Y,
		Y: m.Col1.Z*m.Col2.X - m.Col1.X*m.Col2.Z,
		Z: m.Col1.X*m.Col2.Y - m.Col1.Y*m.Col2.X,
	}
	return m.Col0.Dot(cross)
}

// FrobeniusNorm returns sqrt(sum of squares of all entries).
func (m Mat3) FrobeniusNorm() float64 {
	return math.Sqrt(m.Col0.NormSquare() + m.Col1.NormSquare() + m.Col2.NormSquare())
}

// ErrSingular is returned by Inverse when |det(M)| < EpsilonDeterminant.
type ErrSingular struct{ Determinant float64 }

func (e ErrSingular) Error() string {
	return "linalg: matrix is numerically singular (|det| below epsilon)"
}

// Inverse returns M^-1 via the closed-form adjugate/determinant formula,
// failing when the determinant is too small to divide by safely.
func (m Mat3) Inverse() (Mat3, error) {
	det := m.Determinant()
	if math.Abs(det) < EpsilonDeterminant {
		return Mat3{}, ErrSingular{Determinant: det}
	}

	a00, a10, a20 := m.Col0.X, m.Col0.Y, m.Col0.Z
	a01, a11, a21 := m.Col1.X, m.Col1.Y, m.Col1.Z
	a02, a12, a22 := m.Col2.X, m.Col2.Y, m.Col2.Z

	invDet := 1.0 / det

	// Adjugate transpose of cofactors, scaled by 1/det.
	cof00 := a11*a22 - a12*a21
	cof01 := -(a10*a22 - a12*a20)
	cof02 := a10*a21 - a11*a20

	cof10 := -(a01*a22 - a02*a21)
	cof11 := a00*a22 - a02*a20
	cof12 := -(a00*a21 - a01*a20)

	cof20 := a01*a12 - a02*a11
	cof21 := -(a00*a12 - a02*a10)
	cof22 := a00*a11 - a01*a10

	return Mat3{
		Col0: Vec3{cof00 * invDet, cof01 * invDet, cof02 * invDet},
		Col1: Vec3{cof10 * invDet, cof11 * invDet, cof12 * invDet},
		Col2: Vec3{cof20 * invDet, cof21 * invDet, cof22 * invDet},
	}, nil
}
