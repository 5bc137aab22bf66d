package latreduce

import (
	"math"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// standardCenteringVectors are the conventional-cell centering
// translations this adapter knows how to recognize and fold into a
// primitive cell: A/B/C single-face centering is covered generically by
// the three face vectors, I (body) centering, and F (all-face)
// centering. Anything else is reported as primitive (P).
var standardCenteringVectors = []linalg.Vec3{
	linalg.NewVec3(0.5, 0.5, 0),
	linalg.NewVec3(0.5, 0, 0.5),
	linalg.NewVec3(0, 0.5, 0.5),
	linalg.NewVec3(0.5, 0.5, 0.5),
}

// centeringKind names which of the recognized Bravais centerings is
// present, purely for the heuristic space-group-number placeholder
// this adapter reports.
type centeringKind int

const (
	primitiveP centeringKind = iota
	centeredC
	centeredI
	centeredF
)

func wrapDelta(x float64) float64 {
	d := x - math.Round(x)
	return d
}

func fracDistance(a, b linalg.Vec3) float64 {
	dx := wrapDelta(a.X - b.X)
	dy := wrapDelta(a.Y - b.Y)
	dz := wrapDelta(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// permutationUnderTranslation reports whether translating every
// fractional coordinate by t and wrapping produces a bijection onto the
// same atom set (within tol), and if so returns that permutation:
// perm[i] is the index whose original position matches atom i + t.
func permutationUnderTranslation(fractional []linalg.Vec3, t linalg.Vec3, tol float64) (perm []int, ok bool) {
	n := len(fractional)
	perm = make([]int, n)
	used := make([]bool, n)
	for i, f := range fractional {
		target := f.Add(t)
		best, bestDist := -1, math.MaxFloat64
		for j, g := range fractional {
			if used[j] {
				continue
			}
			if d := fracDistance(target, g); d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 || bestDist > tol {
			return nil, false
		}
		used[best] = true
		perm[i] = best
	}
	return perm, true
}

// detectCentering tests the standard centering vectors against the
// current fractional coordinates and classifies the Bravais centering:
// all three face vectors present means F, the body vector alone means
// I, and any single face vector means C/A/B (treated uniformly as
// "centeredC" since the adapter never changes axis labeling).
func detectCentering(fractional []linalg.Vec3, tol float64) (centeringKind, []linalg.Vec3) {
	var present []linalg.Vec3
	for _, v := range standardCenteringVectors {
		if _, ok := permutationUnderTranslation(fractional, v, tol); ok {
			present = append(present, v)
		}
	}
	faceCount := 0
	hasBody := false
	for _, v := range present {
		if v == standardCenteringVectors[3] {
			hasBody = true
		} else {
			faceCount++
		}
	}
	switch {
	case faceCount == 3:
		return centeredF, standardCenteringVectors[:3]
	case hasBody:
		return centeredI, []linalg.Vec3{standardCenteringVectors[3]}
	case faceCount > 0:
		for _, v := range present {
			if v != standardCenteringVectors[3] {
				return centeredC, []linalg.Vec3{v}
			}
		}
	}
	return primitiveP, nil
}

// detectInversion reports whether some center c exists such that every
// atom has a partner at 2c - f (mod 1). Only the origin and the
// centroid are tried, which covers every conventional-cell convention
// this adapter's centering detection produces.
func detectInversion(fractional []linalg.Vec3, tol float64) bool {
	tryCenter := func(c linalg.Vec3) bool {
		for _, f := range fractional {
			target := c.Scale(2).Sub(f)
			matched := false
			for _, g := range fractional {
				if fracDistance(target, g) <= tol {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	}
	if tryCenter(linalg.Zero3()) {
		return true
	}
	centroid := linalg.Zero3()
	for _, f := range fractional {
		centroid = centroid.Add(f)
	}
	centroid = centroid.Scale(1 / float64(len(fractional)))
	return tryCenter(centroid)
}
