// Package latreduce is the module's own conservative default
// implementation of the symmetry.Oracle contract: a Selling/Delaunay
// basis reduction plus a translation-based primitive-cell search. It
// is not a certified space-group database — SymmetryOperations only
// ever returns the identity plus, for the space-group numbers it pairs
// with inversion, a single inversion —
// but it is a fully wired, deterministic default so the designer
// driver never blocks on a missing collaborator.
package latreduce

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// Adapter implements symmetry.Oracle. FractionalTolerance governs both
// the centering-vector search (ToPrimitive/Conventionalize) and the
// inversion-center check (SymmetryOperations); the zero value selects
// DefaultFractionalTolerance.
type Adapter struct {
	FractionalTolerance float64
}

// DefaultFractionalTolerance is used when Adapter.FractionalTolerance
// is zero.
const DefaultFractionalTolerance = 1e-2

func (a Adapter) tolerance() float64 {
	if a.FractionalTolerance > 0 {
		return a.FractionalTolerance
	}
	return DefaultFractionalTolerance
}

var _ symmetry.Oracle = Adapter{}

// DelaunayReduce applies Selling's algorithm to the basis (a,b,c), then
// re-expresses every fractional coordinate against the reduced basis and
// wraps it into [0,1)^3. Atom count and order are preserved.
func (a Adapter) DelaunayReduce(basis *linalg.Mat3, fractional []linalg.Vec3) error {
	oldBasis := *basis
	cartesian := make([]linalg.Vec3, len(fractional))
	for i, f := range fractional {
		cartesian[i] = oldBasis.MulVec(f)
	}

	reduced, err := sellingReduce(oldBasis)
	if err != nil {
		return err
	}

	newInverse, err := reduced.Inverse()
	if err != nil {
		return err
	}
	for i := range fractional {
		fractional[i] = newInverse.MulVec(cartesian[i])
	}
	wrapFractional(fractional)

	*basis = reduced
	return nil
}

// sellingReduce implements the classical four-vector (Selling parameter)
// Delaunay reduction: b4 = -(b1+b2+b3); while any pairwise dot product
// among {b1..b4} is positive, fold it away. The sum of squared norms is
// strictly non-increasing at every step, so the loop is capped rather
// than relied upon to terminate exactly — a conservative default, not a
// certified reduction.
func sellingReduce(basis linalg.Mat3) (linalg.Mat3, error) {
	b := [4]linalg.Vec3{basis.Col0, basis.Col1, basis.Col2, linalg.Zero3()}
	b[3] = linalg.Zero3().Sub(b[0]).Sub(b[1]).Sub(b[2])

	const maxIterations = 200
	for iter := 0; iter < maxIterations; iter++ {
		improved := false
		for i := 0; i < 4 && !improved; i++ {
			for j := 0; j < 4 && !improved; j++ {
				if i == j {
					continue
				}
				if b[i].Dot(b[j]) > 1e-12 {
					for k := 0; k < 4; k++ {
						if k != i && k != j {
							b[k] = b[k].Add(b[i])
						}
					}
					b[i] = b[i].Scale(-1)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	candidates := []linalg.Vec3{b[0], b[1], b[2], b[3], b[0].Add(b[1]), b[1].Add(b[2]), b[0].Add(b[2])}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].NormSquare() < candidates[j].NormSquare() })

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			for k := j + 1; k < len(candidates); k++ {
				m := linalg.NewMat3FromColumns(candidates[i], candidates[j], candidates[k])
				det := m.Determinant()
				if math.Abs(det) < linalg.EpsilonDeterminant {
					continue
				}
				if det < 0 {
					m = linalg.NewMat3FromColumns(candidates[j], candidates[i], candidates[k])
				}
				return m, nil
			}
		}
	}
	return linalg.Mat3{}, symmetry.ErrOracleDegenerate
}

func wrapFractional(fractional []linalg.Vec3) {
	wrap := func(x float64) float64 {
		f := x - math.Floor(x)
		if f >= 1.0 {
			f -= 1.0
		}
		return f
	}
	for i, f := range fractional {
		fractional[i] = linalg.NewVec3(wrap(f.X), wrap(f.Y), wrap(f.Z))
	}
}

// gramEigenOrdering ranks the three basis columns by the
// eigen-ordering of their Gram matrix, longest principal axis first,
// giving the conventional-cell report a canonical axis order.
func gramEigenOrdering(basis linalg.Mat3) []int {
	g := mat.NewSymDense(3, nil)
	cols := [3]linalg.Vec3{basis.Col0, basis.Col1, basis.Col2}
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			g.SetSym(i, j, cols[i].Dot(cols[j]))
		}
	}
	var eig mat.EigenSym
	order := []int{0, 1, 2}
	if !eig.Factorize(g, true) {
		return order
	}
	values := eig.Values(nil)
	sort.Slice(order, func(i, j int) bool { return values[order[i]] > values[order[j]] })
	return order
}
