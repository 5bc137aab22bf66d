// Package initgen implements the default random initial-structure
// generator: given a target composition it places atoms on a coarse
// grid inside a trial cubic cell sized from the sum of covalent
// volumes, then jitters every position. It sits behind a plain
// function so a smarter generator can replace it without touching the
// designer driver.
package initgen

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/design"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// ErrEmptyComposition is returned when Generate is asked to build a
// structure with no atoms.
var ErrEmptyComposition = errors.New("initgen: composition must declare at least one atom")

// SpeciesCount is one entry of a target composition: how many atoms of
// Species to place, and the radii/coordination constraints every
// placed atom carries.
type SpeciesCount struct {
	Species      species.IonicSpecies
	Count        int
	Radii        species.AtomRadii
	Coordination species.CoordinationConstraints
}

// PackingFraction is the default fraction of the trial cell's volume
// the summed covalent spheres are allowed to occupy; values well below
// 1 leave enough room for the grid jitter to never overlap a neighbor
// cell's atom by more than the covalent window allows.
const PackingFraction = 0.35

// JitterFraction is the fraction of one grid cell's spacing each atom
// is displaced by, in each of the three fractional directions.
const JitterFraction = 0.15

// Generate builds a cubic trial cell sized by cellSide (summed sphere
// volumes scaled by 1/PackingFraction), places each composition entry's
// Count atoms on a coarse cubic grid inside it, jitters
// every position, and returns the resulting constraining structure
// ready for the designer driver's first pass.
func Generate(composition []SpeciesCount, rng *rand.Rand) (*design.Structure, error) {
	total := 0
	for _, c := range composition {
		total += c.Count
	}
	if total == 0 {
		return nil, ErrEmptyComposition
	}

	side := cellSide(composition, total)
	basis := linalg.NewMat3FromColumns(
		linalg.NewVec3(side, 0, 0),
		linalg.NewVec3(0, side, 0),
		linalg.NewVec3(0, 0, side),
	)

	atoms := gridAtoms(composition, total, basis, rng)
	return design.New(basis, atoms, rng)
}

// cellSide returns the trial cubic cell's edge length, sized so the
// sum of every atom's sphere volume occupies PackingFraction of the
// cell's total volume. Each sphere's radius is the larger of the
// species' covalent and ionic maximum radius (1.0 when neither is
// declared).
func cellSide(composition []SpeciesCount, total int) float64 {
	volume := 0.0
	for _, c := range composition {
		r := maxCovalentRadius(c.Radii)
		sphereVolume := (4.0 / 3.0) * math.Pi * r * r * r
		volume += sphereVolume * float64(c.Count)
	}
	if volume <= 0 {
		volume = float64(total)
	}
	return math.Cbrt(volume / PackingFraction)
}

func maxCovalentRadius(r species.AtomRadii) float64 {
	max := r.Covalent.Max
	if r.Ionic.Max > max {
		max = r.Ionic.Max
	}
	if max <= 0 {
		max = 1.0
	}
	return max
}

// gridAtoms expands composition into a flat atom list of length total,
// placing each on the smallest cubic grid that fits total points, then
// displacing every position by an independent fractional jitter.
func gridAtoms(composition []SpeciesCount, total int, basis linalg.Mat3, rng *rand.Rand) []design.ConstrainingAtom {
	n := int(math.Ceil(math.Cbrt(float64(total))))
	spacing := 1.0 / float64(n)

	// Deterministic iteration order over species (sorted), so the same
	// composition always maps to the same grid assignment before jitter.
	sorted := append([]SpeciesCount(nil), composition...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Species.Less(sorted[j].Species) })

	atoms := make([]design.ConstrainingAtom, 0, total)
	idx := 0
	for _, c := range sorted {
		for k := 0; k < c.Count; k++ {
			gx, gy, gz := gridCoord(idx, n)
			idx++

			jitter := func() float64 { return (rng.Float64()*2 - 1) * JitterFraction * spacing }
			fractional := linalg.NewVec3(
				(float64(gx)+0.5)*spacing+jitter(),
				(float64(gy)+0.5)*spacing+jitter(),
				(float64(gz)+0.5)*spacing+jitter(),
			)
			atoms = append(atoms, design.ConstrainingAtom{
				Species:      c.Species,
				Radii:        c.Radii,
				Coordination: c.Coordination,
				Position:     basis.MulVec(fractional),
			})
		}
	}
	return atoms
}

func gridCoord(idx, n int) (x, y, z int) {
	x = idx % n
	y = (idx / n) % n
	z = idx / (n * n)
	return
}
