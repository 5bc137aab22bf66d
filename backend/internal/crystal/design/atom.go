// Package design implements the design-facing constraining crystal
// structure: it owns the atom list, the periodic neighbor index, the
// constraint manager, and the polyhedra analysis, and is the only
// thing in this module that mutates any of them directly. It builds
// flat objective.Structure snapshots for the optimizer and re-imports
// their results; it never holds a back-pointer to a snapshot it built.
package design

import (
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// ConstrainingAtom is the design-facing atom form: identity, its three
// radius ranges, its coordination constraints, and its current Cartesian
// position. Unlike objective.Atom it carries no force — forces only ever
// exist on an objective snapshot during an optimizer pass.
type ConstrainingAtom struct {
	Species      species.IonicSpecies
	Radii        species.AtomRadii
	Coordination species.CoordinationConstraints
	Position     linalg.Vec3
}

// maxRadius returns the largest of an atom's three declared radii, the
// quantity the tracing cutoff is sized from.
func maxRadius(r species.AtomRadii) float64 {
	m := r.Covalent.Max
	if r.Ionic.Max > m {
		m = r.Ionic.Max
	}
	if r.IonicRepulsion.Max > m {
		m = r.IonicRepulsion.Max
	}
	return m
}

// atomRadiusForPerturbation is the radius a distortion jitter's
// magnitude is bounded by: the covalent radius when declared (the
// usual case for a bonding-capable species), falling back to the
// largest declared radius otherwise.
func atomRadiusForPerturbation(r species.AtomRadii) float64 {
	if r.Covalent.Max > 0 {
		return r.Covalent.Max
	}
	return maxRadius(r)
}
