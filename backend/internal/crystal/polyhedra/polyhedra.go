// Package polyhedra implements the coordination-polyhedra connectivity
// analyzer: for every ionic bond, it finds the anions
// bridging both endpoints and classifies the link as vertex-, edge-, or
// face-sharing, then prunes links that exceed a per-species-pair
// feasibility table.
package polyhedra

import (
	"math/rand"
	"sort"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
)

// LinkClass is the polyhedra-sharing classification of a link.
type LinkClass int

const (
	NoLink LinkClass = iota
	Vertex
	Edge
	Face
)

// ClassifyByBridgeCount maps a bridging-anion count to its LinkClass.
func ClassifyByBridgeCount(n int) LinkClass {
	switch {
	case n <= 0:
		return NoLink
	case n == 1:
		return Vertex
	case n == 2:
		return Edge
	default:
		return Face
	}
}

// Link is one ionic-bond-centred coordination-polyhedra connection: the
// canonical ionic bond key for (a,b), and every common bridging anion,
// each expressed as a lattice.TranslatedIndex seen from a's frame.
type Link struct {
	Key     constraints.ConstrainerKey
	Bridges []lattice.TranslatedIndex
}

// Class reports the link's vertex/edge/face classification.
func (l Link) Class() LinkClass { return ClassifyByBridgeCount(len(l.Bridges)) }

// FindLinks enumerates every ionic bond in m and, for each, the anions
// that bridge both endpoints: x is bonded (ionically) to both a and b,
// and x's lattice image as seen through a agrees with x's lattice image
// as seen through b once the a-b bond's own offset is accounted for
// (Lax == Lab + Lbx).
func FindLinks(m *constraints.Manager) []Link {
	var links []Link
	for _, key := range m.Keys(constraints.IonicBond) {
		a, b := key.A, key.B.Original
		lab := key.B.LatticePoint

		bondsOfA := bondedIonicFrom(m, a)
		bondsOfB := bondedIonicFrom(m, b)

		byAtomB := make(map[lattice.OriginalIndex][]lattice.LatticePoint, len(bondsOfB))
		for _, t := range bondsOfB {
			byAtomB[t.Original] = append(byAtomB[t.Original], t.LatticePoint)
		}

		var bridges []lattice.TranslatedIndex
		for _, ta := range bondsOfA {
			if ta.Original == a || ta.Original == b {
				continue // a bridging anion cannot be one of the link's own endpoints
			}
			for _, lbx := range byAtomB[ta.Original] {
				if ta.LatticePoint == lab.Add(lbx) {
					bridges = append(bridges, ta)
					break
				}
			}
		}
		if len(bridges) > 0 {
			sort.Slice(bridges, func(i, j int) bool {
				if bridges[i].Original != bridges[j].Original {
					return bridges[i].Original < bridges[j].Original
				}
				li, lj := bridges[i].LatticePoint, bridges[j].LatticePoint
				if li.I != lj.I {
					return li.I < lj.I
				}
				if li.J != lj.J {
					return li.J < lj.J
				}
				return li.K < lj.K
			})
			links = append(links, Link{Key: key, Bridges: bridges})
		}
	}
	return links
}

// bondedIonicFrom returns every ionic-bonded translated neighbor of atom,
// expressed as seen from atom.
func bondedIonicFrom(m *constraints.Manager, atom lattice.OriginalIndex) []lattice.TranslatedIndex {
	var out []lattice.TranslatedIndex
	for _, key := range m.Keys(constraints.IonicBond) {
		switch {
		case key.A == atom:
			out = append(out, key.B)
		case key.B.Original == atom:
			out = append(out, lattice.TranslatedIndex{Original: key.A, LatticePoint: key.B.LatticePoint.Negate()})
		}
	}
	return out
}

// FeasibleBridging is the per-species-pair table of how many common
// bridging anions a polyhedra link between two centre species may carry
// before it must be pruned. A pair absent from the table is unconstrained.
type FeasibleBridging map[SpeciesPair]int

// SpeciesPair is an unordered pair of centre species used as the
// feasibility table's key.
type SpeciesPair struct {
	First, Second species.IonicSpecies
}

// NewSpeciesPair builds the canonical (Z,charge)-ordered pair key.
func NewSpeciesPair(a, b species.IonicSpecies) SpeciesPair {
	if a.Less(b) {
		return SpeciesPair{First: a, Second: b}
	}
	return SpeciesPair{First: b, Second: a}
}

// ClosestFeasibleCommonBridging returns the largest bridging-anion count
// the table permits between species a and b, clamped to at most observed
// (the table only ever trims, never grows, a bridging set).
func (f FeasibleBridging) ClosestFeasibleCommonBridging(a, b species.IonicSpecies, observed int) int {
	limit, ok := f[NewSpeciesPair(a, b)]
	if !ok || limit >= observed {
		return observed
	}
	return limit
}

// willChooseOriginalAtomIndex is the deterministic endpoint-choice rule
// used when a bridging bond must be dropped from one of a link's two
// centres: a parity of the link key's indices and lattice offset, so
// the same link always sheds from the same side without any extra
// state. True keeps the bonds of the first (smaller-indexed) centre.
func willChooseOriginalAtomIndex(key constraints.ConstrainerKey) bool {
	offset := key.B.LatticePoint.I + key.B.LatticePoint.J + key.B.LatticePoint.K
	return (int(key.A)+int(key.B.Original)+offset)%2 == 0
}

// EraseInfeasibleIonicPolyhedraConnections prunes every link whose
// bridging-anion count exceeds the feasibility table: it shuffles the
// excess anions (seeded by rng, for reproducibility) and drops bonds
// until the multiset size matches the feasible target, preferring (per
// willChooseOriginalAtomIndex) to keep the bond incident to the link's
// smaller-indexed endpoint.
func EraseInfeasibleIonicPolyhedraConnections(
	m *constraints.Manager,
	speciesOf []species.IonicSpecies,
	table FeasibleBridging,
	rng *rand.Rand,
) {
	for _, link := range FindLinks(m) {
		a, b := link.Key.A, link.Key.B.Original
		target := table.ClosestFeasibleCommonBridging(speciesOf[a], speciesOf[b], len(link.Bridges))
		if target >= len(link.Bridges) {
			continue
		}

		shuffled := append([]lattice.TranslatedIndex(nil), link.Bridges...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		excess := shuffled[target:]
		preferA := willChooseOriginalAtomIndex(link.Key)
		for _, x := range excess {
			lab := link.Key.B.LatticePoint
			lbx := lattice.LatticePoint{
				I: x.LatticePoint.I - lab.I,
				J: x.LatticePoint.J - lab.J,
				K: x.LatticePoint.K - lab.K,
			}
			if preferA {
				// Keep a's bond to x; drop b's bond to x.
				m.Erase(b, lattice.TranslatedIndex{Original: x.Original, LatticePoint: lbx})
			} else {
				m.Erase(a, x)
			}
		}
	}
}
