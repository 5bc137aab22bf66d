// Package constraints implements the per-pair bond/exclusion/repulsion
// ledger: creation and erasure of covalent and ionic relationships
// between atoms, the feasibility predicates that govern them, and the
// derivation rules that (re)populate the ledger from raw geometry.
package constraints

import "github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"

// BondKind enumerates the five mutually-exclusive relationships a pair
// of atoms may carry.
type BondKind int

const (
	CovalentBond BondKind = iota
	CovalentExclusion
	IonicBond
	IonicExclusion
	IonicRepulsion
)

func (k BondKind) String() string {
	switch k {
	case CovalentBond:
		return "covalent_bond"
	case CovalentExclusion:
		return "covalent_exclusion"
	case IonicBond:
		return "ionic_bond"
	case IonicExclusion:
		return "ionic_exclusion"
	case IonicRepulsion:
		return "ionic_repulsion"
	default:
		return "unknown_bond_kind"
	}
}

// ConstrainerKey canonically identifies an unordered pair of atoms,
// possibly across a periodic image: A < B.Original always holds, except
// for a self-image pair (A == B.Original) where B.LatticePoint is
// constrained to be lexicographically positive. There is exactly one
// ConstrainerKey per physical pair — see Canonicalize.
type ConstrainerKey struct {
	A lattice.OriginalIndex
	B lattice.TranslatedIndex
}

// Canonicalize builds the canonical ConstrainerKey for the pair (a, b),
// reversing the translated endpoint when necessary so that A < B.Original,
// or — for a self-image pair — so that B.LatticePoint is lexicographically
// positive. Panics on a same-cell self-pair (a == b with zero offset),
// which can never be a valid constraint.
func Canonicalize(a lattice.OriginalIndex, b lattice.TranslatedIndex) ConstrainerKey {
	switch {
	case a < b.Original:
		return ConstrainerKey{A: a, B: b}
	case a > b.Original:
		return ConstrainerKey{
			A: b.Original,
			B: lattice.TranslatedIndex{Original: a, LatticePoint: b.LatticePoint.Negate()},
		}
	default: // a == b.Original: self-image pair across a cell boundary
		if b.LatticePoint.IsOrigin() {
			panic("constraints: a same-cell pair cannot relate an atom to itself")
		}
		if b.LatticePoint.IsLexicographicallyPositive() {
			return ConstrainerKey{A: a, B: b}
		}
		return ConstrainerKey{A: a, B: lattice.TranslatedIndex{Original: a, LatticePoint: b.LatticePoint.Negate()}}
	}
}

// IsSameCell reports whether the key refers to an unbroken same-cell pair.
func (k ConstrainerKey) IsSameCell() bool {
	return k.B.IsInOriginalCell()
}

// Pair renders a same-cell key as a lattice.Pair. Only valid if IsSameCell.
func (k ConstrainerKey) Pair() lattice.Pair {
	return lattice.Pair{A: k.A, B: k.B.Original}
}

// TranslatedPair renders the key as a lattice.TranslatedPair.
func (k ConstrainerKey) TranslatedPair() lattice.TranslatedPair {
	return lattice.TranslatedPair{A: k.A, B: k.B}
}

// FromPair builds the canonical key for an already-ordered same-cell pair.
func FromPair(p lattice.Pair) ConstrainerKey {
	return Canonicalize(p.A, lattice.TranslatedIndex{Original: p.B})
}

// FromTranslatedPair builds the canonical key for a translated pair.
func FromTranslatedPair(p lattice.TranslatedPair) ConstrainerKey {
	return Canonicalize(p.A, p.B)
}
