package lattice

import (
	"math"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// PERFORMANCE: periodic neighbor enumeration is the one place a naive
// per-pair, per-image loop is genuinely O(n^2 * images); we keep it that
// way because crystal compositions in this search are small (single-digit
// to low-double-digit atom counts per conventional cell) and the
// bookkeeping correctness matters far more here than constant factors —
// see internal/crystal/design, which calls this on every cell reduction.

// Pair is a same-cell neighbor pair, canonically ordered A < B.
type Pair struct {
	A, B OriginalIndex
}

// TranslatedPair is an (original, translated) neighbor pair. By
// construction A < B.Original, or A == B.Original with B.LatticePoint
// lexicographically positive (self-image across a cell boundary).
type TranslatedPair struct {
	A OriginalIndex
	B TranslatedIndex
}

// PairRadius returns the cutoff-governing radius sum for a pair of
// original atoms — ordinarily the sum of each atom's largest declared
// radius (covalent, ionic, or ionic-repulsion, whichever is largest).
type PairRadius func(a, b OriginalIndex) float64

// latticeBound returns a safe (over-approximating) per-axis image bound
// so that no pair within reach of the cutoff is missed. Along each axis
// it divides the reach by the perpendicular spacing between the lattice
// planes spanned by the other two columns (cell volume over the area of
// their cross product); the filtering pass afterwards still enforces
// exact distances, so the margin only costs a few wasted candidate images.
func latticeBound(basis linalg.Mat3, reach float64) (int, int, int) {
	volume := math.Abs(basis.Determinant())
	axisBound := func(u, v linalg.Vec3) int {
		area := u.Cross(v).Norm()
		if volume < 1e-9 || area < 1e-9 {
			return 0
		}
		return int(math.Ceil(reach*area/volume)) + 1
	}
	return axisBound(basis.Col1, basis.Col2), axisBound(basis.Col2, basis.Col0), axisBound(basis.Col0, basis.Col1)
}

// UpdateTracingIndexPairs enumerates every same-cell and translated
// neighbor pair whose current Cartesian distance is below
// cutoffRatio * PairRadius(a,b), scanning lattice images |i|,|j|,|k| <= K
// with K sized so that no qualifying image is skipped (see latticeBound).
func UpdateTracingIndexPairs(
	basis linalg.Mat3,
	positions []linalg.Vec3,
	radius PairRadius,
	cutoffRatio float64,
) (sameCell []Pair, translated []TranslatedPair) {
	n := len(positions)
	if n == 0 {
		return nil, nil
	}

	maxRadius := 0.0
	for a := OriginalIndex(0); int(a) < n; a++ {
		for b := a + 1; int(b) < n; b++ {
			if r := radius(a, b); r > maxRadius {
				maxRadius = r
			}
		}
	}
	reach := cutoffRatio * maxRadius
	boundI, boundJ, boundK := latticeBound(basis, reach)

	for a := OriginalIndex(0); int(a) < n; a++ {
		for b := a + 1; int(b) < n; b++ {
			cutoff := cutoffRatio * radius(a, b)
			d := positions[b].Sub(positions[a])
			if d.NormSquare() < cutoff*cutoff {
				sameCell = append(sameCell, Pair{A: a, B: b})
			}
		}
	}

	for i := -boundI; i <= boundI; i++ {
		for j := -boundJ; j <= boundJ; j++ {
			for k := -boundK; k <= boundK; k++ {
				lp := LatticePoint{I: i, J: j, K: k}
				if lp.IsOrigin() {
					continue // already covered by the same-cell pass above
				}

				t := lp.TranslationVector(basis)

				for a := OriginalIndex(0); int(a) < n; a++ {
					for b := OriginalIndex(0); int(b) < n; b++ {
						if int(a) == int(b) {
							if !lp.IsLexicographicallyPositive() {
								continue // self-image: keep one canonical half
							}
						} else if int(b) < int(a) {
							continue // keep A < B.Original for distinct atoms
						}

						cutoff := cutoffRatio * radius(a, b)
						d := positions[b].Add(t).Sub(positions[a])
						if d.NormSquare() < cutoff*cutoff {
							translated = append(translated, TranslatedPair{
								A: a,
								B: TranslatedIndex{Original: b, LatticePoint: lp},
							})
						}
					}
				}
			}
		}
	}

	return sameCell, translated
}

// CreateInteratomicDistanceConstraints filters an already-computed tracing
// result down to the tighter constrainer cutoff. The result is always a
// subset of (sameCell, translated): every constraining pair was already a
// tracing pair, just re-checked against constrainerCutoffRatio <
// tracerCutoffRatio.
func CreateInteratomicDistanceConstraints(
	basis linalg.Mat3,
	positions []linalg.Vec3,
	radius PairRadius,
	sameCell []Pair,
	translated []TranslatedPair,
	constrainerCutoffRatio float64,
) (constrainedSameCell []Pair, constrainedTranslated []TranslatedPair) {
	for _, p := range sameCell {
		cutoff := constrainerCutoffRatio * radius(p.A, p.B)
		d := positions[p.B].Sub(positions[p.A])
		if d.NormSquare() < cutoff*cutoff {
			constrainedSameCell = append(constrainedSameCell, p)
		}
	}

	for _, tp := range translated {
		cutoff := constrainerCutoffRatio * radius(tp.A, tp.B.Original)
		t := tp.B.LatticePoint.TranslationVector(basis)
		d := positions[tp.B.Original].Add(t).Sub(positions[tp.A])
		if d.NormSquare() < cutoff*cutoff {
			constrainedTranslated = append(constrainedTranslated, tp)
		}
	}

	return constrainedSameCell, constrainedTranslated
}

// NormalizeFractionalCoordinates maps every fractional coordinate into
// [0,1)^3 by subtracting floor, component-wise. Idempotent, and leaves
// every inter-atom distance unchanged (it only relabels which image of
// the lattice each atom is considered to sit in).
func NormalizeFractionalCoordinates(fractional []linalg.Vec3) {
	wrap := func(x float64) float64 {
		f := x - math.Floor(x)
		if f >= 1.0 { // guard against floating-point floor edge cases
			f -= 1.0
		}
		return f
	}
	for i := range fractional {
		fractional[i] = linalg.NewVec3(wrap(fractional[i].X), wrap(fractional[i].Y), wrap(fractional[i].Z))
	}
}
