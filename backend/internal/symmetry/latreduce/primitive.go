package latreduce

import (
	"math"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// centeringTransform is the fractional (old-basis) coordinates of a
// recognized centering's primitive basis vectors, one column per new
// basis vector. Applying it contracts the conventional cell down by the
// centering's index (2 for C/I, 4 for F).
var centeringTransform = map[centeringKind]linalg.Mat3{
	centeredC: linalg.NewMat3FromColumns(
		linalg.NewVec3(0.5, 0.5, 0), linalg.NewVec3(-0.5, 0.5, 0), linalg.NewVec3(0, 0, 1)),
	centeredI: linalg.NewMat3FromColumns(
		linalg.NewVec3(-0.5, 0.5, 0.5), linalg.NewVec3(0.5, -0.5, 0.5), linalg.NewVec3(0.5, 0.5, -0.5)),
	centeredF: linalg.NewMat3FromColumns(
		linalg.NewVec3(0, 0.5, 0.5), linalg.NewVec3(0.5, 0, 0.5), linalg.NewVec3(0.5, 0.5, 0)),
}

// heuristicSpaceGroupNumber returns a small, deterministic placeholder
// number for the detected Bravais centering and point symmetry. These
// are illustrative representatives of the right crystal class (P1/P-1,
// C2, I222, F222) — not a certified assignment; a real structure's
// true space-group number must come from a certified database behind
// the same Oracle interface.
func heuristicSpaceGroupNumber(kind centeringKind, inversion bool) int {
	switch kind {
	case centeredF:
		return 22 // F222, generic orthorhombic all-face-centered representative
	case centeredI:
		return 23 // I222, generic orthorhombic body-centered representative
	case centeredC:
		return 5 // C2, generic monoclinic C-centered representative
	default:
		if inversion {
			return 2 // P-1
		}
		return 1 // P1
	}
}

// ToPrimitive folds a recognized centering (C, I, or F) into its
// primitive cell, deduplicating the atoms the centering translation maps
// onto each other and keeping the first representative's site info.
// Cells without a recognized centering are returned unchanged (already
// primitive, as far as this adapter can tell).
func (a Adapter) ToPrimitive(basis linalg.Mat3, fractional []linalg.Vec3, sites []symmetry.SiteInfo) (
	linalg.Mat3, []linalg.Vec3, []symmetry.SiteInfo, int, error) {

	tol := a.tolerance()
	kind, vectors := detectCentering(fractional, tol)
	inversion := detectInversion(fractional, tol)
	spaceGroup := heuristicSpaceGroupNumber(kind, inversion)

	transform, recognized := centeringTransform[kind]
	if kind == centeredC && vectors[0] != standardCenteringVectors[0] {
		// A or B centering: the primitive basis is the face vector, the c
		// axis, and the axis the face vector leaves out.
		normal := linalg.NewVec3(1, 0, 0)
		if vectors[0].Y == 0 {
			normal = linalg.NewVec3(0, 1, 0)
		}
		transform = linalg.NewMat3FromColumns(vectors[0], linalg.NewVec3(0, 0, 1), normal)
		if transform.Determinant() < 0 {
			transform = linalg.NewMat3FromColumns(linalg.NewVec3(0, 0, 1), vectors[0], normal)
		}
	}
	if !recognized {
		return basis, append([]linalg.Vec3(nil), fractional...), append([]symmetry.SiteInfo(nil), sites...), spaceGroup, nil
	}

	newBasis := basis.Mul(transform)
	newInverse, err := newBasis.Inverse()
	if err != nil {
		return linalg.Mat3{}, nil, nil, 0, symmetry.ErrOracleDegenerate
	}

	var newFractional []linalg.Vec3
	var newSites []symmetry.SiteInfo
	for i, f := range fractional {
		cart := basis.MulVec(f)
		pf := newInverse.MulVec(cart)
		wrapped := wrapUnit(pf)

		duplicate := false
		for _, existing := range newFractional {
			if fracDistance(wrapped, existing) <= tol {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		newFractional = append(newFractional, wrapped)
		if i < len(sites) {
			newSites = append(newSites, sites[i])
		} else {
			newSites = append(newSites, symmetry.SiteInfo{})
		}
	}

	return newBasis, newFractional, newSites, spaceGroup, nil
}

// Conventionalize never changes the lattice itself: expanding a
// genuinely primitive cell into its conventional supercell requires
// knowing the target centering ahead of time (information a certified
// space-group database supplies and this conservative default does not
// guess). What it does do is reorder the basis columns into the
// canonical principal-axis order (longest first, via the Gram-matrix
// eigendecomposition) so that equivalent cells reaching this method
// through different column permutations report the same conventional
// basis, and re-express every fractional coordinate against it.
func (a Adapter) Conventionalize(basis linalg.Mat3, fractional []linalg.Vec3, sites []symmetry.SiteInfo) (
	linalg.Mat3, []linalg.Vec3, []symmetry.SiteInfo, int, error) {

	tol := a.tolerance()
	kind, _ := detectCentering(fractional, tol)
	inversion := detectInversion(fractional, tol)
	spaceGroup := heuristicSpaceGroupNumber(kind, inversion)

	order := gramEigenOrdering(basis)
	cols := [3]linalg.Vec3{basis.Col0, basis.Col1, basis.Col2}
	newBasis := linalg.NewMat3FromColumns(cols[order[0]], cols[order[1]], cols[order[2]])
	if newBasis.Determinant() < 0 {
		// An odd column permutation flips handedness; negating one
		// column restores it without leaving the lattice.
		newBasis = linalg.NewMat3FromColumns(newBasis.Col0, newBasis.Col1, newBasis.Col2.Scale(-1))
	}
	newInverse, err := newBasis.Inverse()
	if err != nil {
		return linalg.Mat3{}, nil, nil, 0, symmetry.ErrOracleDegenerate
	}

	newFractional := make([]linalg.Vec3, len(fractional))
	for i, f := range fractional {
		newFractional[i] = wrapUnit(newInverse.MulVec(basis.MulVec(f)))
	}
	return newBasis, newFractional, append([]symmetry.SiteInfo(nil), sites...), spaceGroup, nil
}

// UpdateSymmetryInformation assigns Wyckoff-style labels by grouping
// atoms into orbits under the detected centering translations and
// inversion, without touching cell or positions.
func (a Adapter) UpdateSymmetryInformation(basis linalg.Mat3, fractional []linalg.Vec3, sites []symmetry.SiteInfo) (
	[]symmetry.SiteInfo, int, error) {

	tol := a.tolerance()
	kind, vectors := detectCentering(fractional, tol)
	inversion := detectInversion(fractional, tol)
	spaceGroup := heuristicSpaceGroupNumber(kind, inversion)

	orbits := assignOrbits(fractional, vectors, inversion, tol)
	letters := "abcdefghijklmnopqrstuvwxyz"
	orbitLetter := make(map[int]byte)
	next := 0
	updated := make([]symmetry.SiteInfo, len(fractional))
	for i, orbit := range orbits {
		letter, seen := orbitLetter[orbit]
		if !seen {
			letter = letters[next%len(letters)]
			orbitLetter[orbit] = letter
			next++
		}
		siteSymmetry := "1"
		if inversion {
			siteSymmetry = "-1"
		}
		updated[i] = symmetry.SiteInfo{
			Label:        string(letter),
			Wyckoff:      string(letter),
			SiteSymmetry: siteSymmetry,
		}
	}
	_ = sites // input site info is advisory only; this adapter derives its own
	return updated, spaceGroup, nil
}

// assignOrbits groups atom indices by the equivalence relation generated
// by the detected centering translations and (if present) inversion,
// returning one orbit id per atom.
func assignOrbits(fractional []linalg.Vec3, centerings []linalg.Vec3, inversion bool, tol float64) []int {
	n := len(fractional)
	orbit := make([]int, n)
	for i := range orbit {
		orbit[i] = i
	}
	find := func(x int) int {
		for orbit[x] != x {
			x = orbit[x]
		}
		return x
	}
	union := func(x, y int) {
		rx, ry := find(x), find(y)
		if rx != ry {
			orbit[rx] = ry
		}
	}

	for _, t := range centerings {
		if perm, ok := permutationUnderTranslation(fractional, t, tol); ok {
			for i, j := range perm {
				union(i, j)
			}
		}
	}
	if inversion {
		for i, f := range fractional {
			target := linalg.Zero3().Sub(f)
			for j, g := range fractional {
				if fracDistance(target, g) <= tol {
					union(i, j)
					break
				}
			}
		}
	}
	for i := range orbit {
		orbit[i] = find(i)
	}
	return orbit
}

// SymmetryOperations returns the identity plus, when spaceGroupNumber is
// 2, 22 or 23 (the numbers this adapter reports for P-1, F and I
// cells), the inversion operation; the basis is not inspected. A
// non-positive spaceGroupNumber fails with ErrSymmetryOracleFailure.
// The result does not depend on precision, so this adapter makes a
// single attempt and has no precision-relaxation retry loop.
func (a Adapter) SymmetryOperations(basis linalg.Mat3, spaceGroupNumber int, precision float64) ([]symmetry.SymmetryOp, error) {
	if spaceGroupNumber <= 0 {
		return nil, symmetry.ErrSymmetryOracleFailure
	}
	ops := []symmetry.SymmetryOp{{Rotation: linalg.Identity3(), Translation: linalg.Zero3()}}
	if spaceGroupNumber == 2 || spaceGroupNumber == 22 || spaceGroupNumber == 23 {
		ops = append(ops, symmetry.SymmetryOp{
			Rotation:    linalg.NewMat3FromColumns(linalg.NewVec3(-1, 0, 0), linalg.NewVec3(0, -1, 0), linalg.NewVec3(0, 0, -1)),
			Translation: linalg.Zero3(),
		})
	}
	return ops, nil
}

func wrapUnit(v linalg.Vec3) linalg.Vec3 {
	wrap := func(x float64) float64 {
		f := x - math.Floor(x)
		if f >= 1.0 {
			f -= 1.0
		}
		return f
	}
	return linalg.NewVec3(wrap(v.X), wrap(v.Y), wrap(v.Z))
}
