package constraints

import (
	"math"
	"sort"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

// Geometry is the read-only view derive.go needs of the structure it is
// deriving bonds for: positions in the home cell, and the basis used to
// resolve translated-pair distances.
type Geometry struct {
	Basis     linalg.Mat3
	Positions []linalg.Vec3
	Species   []species.IonicSpecies
	Radii     []species.AtomRadii
}

func (g Geometry) distanceSquared(a lattice.OriginalIndex, b lattice.TranslatedIndex) float64 {
	offset := b.LatticePoint.TranslationVector(g.Basis)
	d := g.Positions[b.Original].Add(offset).Sub(g.Positions[a])
	return d.NormSquare()
}

func covalentCapable(r species.AtomRadii) bool { return r.Covalent.Max > 0 }
func ionicCapable(r species.AtomRadii) bool     { return r.Ionic.Max > 0 }

func withinWindow(d2 float64, rr species.RadiusRange) bool {
	return d2 >= rr.Min*rr.Min && d2 <= rr.Max*rr.Max
}

func sumRange(a, b species.RadiusRange) species.RadiusRange {
	return species.RadiusRange{Min: a.Min + b.Min, Max: a.Max + b.Max}
}

// CreateChemicalBonds applies the bond derivation rules to every
// candidate pair already known to lie within the constraining cutoff
// (sameCell and translated, as produced by
// lattice.CreateInteratomicDistanceConstraints), populating m with
// covalent bonds, ionic bonds, ionic repulsions, and — for bondable
// pairs whose current distance misses the bond window — exclusions.
// An exclusion never replaces a relationship the pair already carries:
// a bond that has drifted out of its window keeps its restoring
// attraction until the caller erases it explicitly.
func CreateChemicalBonds(m *Manager, g Geometry, sameCell []lattice.Pair, translated []lattice.TranslatedPair) {
	for _, p := range sameCell {
		derivePair(m, g, p.A, lattice.TranslatedIndex{Original: p.B})
	}
	for _, p := range translated {
		derivePair(m, g, p.A, p.B)
	}
}

func derivePair(m *Manager, g Geometry, a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	sa, sb := g.Species[a], g.Species[b.Original]
	ra, rb := g.Radii[a], g.Radii[b.Original]
	d2 := g.distanceSquared(a, b)

	innatelyBondable := (covalentCapable(ra) && covalentCapable(rb)) || (ionicCapable(ra) && ionicCapable(rb))
	oppositeCharge := sa.Charge*sb.Charge < 0
	sameSignNonZero := sa.Charge != 0 && sb.Charge != 0 && sa.Charge*sb.Charge > 0

	covWindow := sumRange(ra.Covalent, rb.Covalent)
	ionWindow := sumRange(ra.Ionic, rb.Ionic)

	if innatelyBondable {
		switch {
		case oppositeCharge && ionicCapable(ra) && ionicCapable(rb):
			if withinWindow(d2, ionWindow) {
				m.CreateIonicBond(a, b)
			} else {
				createIfAbsent(m, a, b, IonicExclusion)
			}
		case sameSignNonZero:
			if covalentCapable(ra) && covalentCapable(rb) && withinWindow(d2, covWindow) {
				m.CreateCovalentBond(a, b)
			} else {
				createIfAbsent(m, a, b, IonicRepulsion)
			}
		case covalentCapable(ra) && covalentCapable(rb):
			if withinWindow(d2, covWindow) {
				m.CreateCovalentBond(a, b)
			} else {
				createIfAbsent(m, a, b, CovalentExclusion)
			}
		}
		return
	}

	if sameSignNonZero {
		m.CreateIonicRepulsion(a, b)
	}
}

// createIfAbsent records kind for the pair only when it carries no
// relationship yet, so re-derivation never downgrades an existing bond.
func createIfAbsent(m *Manager, a lattice.OriginalIndex, b lattice.TranslatedIndex, kind BondKind) {
	if _, exists := m.Lookup(a, b); !exists {
		m.set(a, b, kind)
	}
}

// coordinationPartner is one bonded neighbor of a centre atom, carrying
// enough context to prune it (its canonical key) and to rank it by
// descending bond length.
type coordinationPartner struct {
	key      ConstrainerKey
	species  species.IonicSpecies
	distance float64
}

func coordinationPartners(m *Manager, g Geometry, c lattice.OriginalIndex) []coordinationPartner {
	var out []coordinationPartner
	for _, kind := range []BondKind{CovalentBond, IonicBond} {
		for _, key := range m.Keys(kind) {
			var other lattice.TranslatedIndex
			switch {
			case key.A == c:
				other = key.B
			case key.B.Original == c:
				other = key.B.Reverse()
				other.Original = key.A
			default:
				continue
			}
			d2 := g.distanceSquared(c, other)
			out = append(out, coordinationPartner{
				key:      key,
				species:  g.Species[other.Original],
				distance: math.Sqrt(d2),
			})
		}
	}
	return out
}

func compositionOf(partners []coordinationPartner) species.Composition {
	comp := make(species.Composition)
	for _, p := range partners {
		comp[p.species]++
	}
	return comp
}

func containsComposition(allowed []species.Composition, current species.Composition) bool {
	for _, a := range allowed {
		if compositionsEqual(a, current) {
			return true
		}
	}
	return false
}

func compositionsEqual(a, b species.Composition) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// OptimizeCoordinationCompositions prunes excess coordination: for
// every centre atom whose bonded-neighbor composition doesn't
// match an allowed composition, prune the longest excess bonds of each
// over-represented species until it does; for atoms governed only by
// coordination-number bounds, prune the longest covalent and ionic bonds
// independently down to the clamped counts.
func OptimizeCoordinationCompositions(m *Manager, g Geometry, constraintsOf []species.CoordinationConstraints) {
	for c := lattice.OriginalIndex(0); int(c) < len(constraintsOf); c++ {
		cc := constraintsOf[c]
		partners := coordinationPartners(m, g, c)

		if cc.HasFeasibleCompositions() {
			current := compositionOf(partners)
			if containsComposition(cc.AllowedCompositions, current) {
				continue
			}
			target := cc.ClosestFeasible(current)
			pruneToComposition(m, partners, target)
			continue
		}

		if !cc.HasFeasibleCovalentCoordinationNumbers() && !cc.HasFeasibleIonicCoordinationNumbers() {
			continue
		}
		covCount, ionCount := 0, 0
		for _, p := range partners {
			if kind, ok := m.Lookup(p.key.A, p.key.B); ok {
				if kind == CovalentBond {
					covCount++
				} else if kind == IonicBond {
					ionCount++
				}
			}
		}
		targetCov, targetIon := cc.ClosestLowerBound(covCount, ionCount)
		pruneToCounts(m, partners, targetCov, targetIon)
	}
}

// pruneToComposition drops the longest bonds of each over-represented
// species until every species count matches target exactly.
func pruneToComposition(m *Manager, partners []coordinationPartner, target species.Composition) {
	bySpecies := make(map[species.IonicSpecies][]coordinationPartner)
	for _, p := range partners {
		bySpecies[p.species] = append(bySpecies[p.species], p)
	}
	for sp, group := range bySpecies {
		want := target[sp]
		sort.Slice(group, func(i, j int) bool { return group[i].distance > group[j].distance })
		for len(group) > want {
			m.EraseKey(group[0].key)
			group = group[1:]
		}
	}
}

// pruneToCounts drops the longest covalent bonds down to targetCov and
// the longest ionic bonds down to targetIon, independently.
func pruneToCounts(m *Manager, partners []coordinationPartner, targetCov, targetIon int) {
	var covalent, ionic []coordinationPartner
	for _, p := range partners {
		kind, ok := m.Lookup(p.key.A, p.key.B)
		if !ok {
			continue
		}
		if kind == CovalentBond {
			covalent = append(covalent, p)
		} else if kind == IonicBond {
			ionic = append(ionic, p)
		}
	}
	prune := func(group []coordinationPartner, target int) {
		sort.Slice(group, func(i, j int) bool { return group[i].distance > group[j].distance })
		for len(group) > target {
			m.EraseKey(group[0].key)
			group = group[1:]
		}
	}
	prune(covalent, targetCov)
	prune(ionic, targetIon)
}
