package constraints

import (
	"sort"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/lattice"
)

// Manager is the per-structure bond/exclusion/repulsion ledger. The zero
// value is ready to use. A single map from canonical key to kind is the
// source of truth: assigning a new kind to a key that already carries one
// implements "remove from the conflicting collection first" for free,
// since a key can only ever map to one BondKind.
type Manager struct {
	kind map[ConstrainerKey]BondKind
}

// NewManager returns an empty ledger.
func NewManager() *Manager {
	return &Manager{kind: make(map[ConstrainerKey]BondKind)}
}

func (m *Manager) ensure() {
	if m.kind == nil {
		m.kind = make(map[ConstrainerKey]BondKind)
	}
}

// set records key as kind, overwriting whatever relationship (if any) it
// previously carried.
func (m *Manager) set(a lattice.OriginalIndex, b lattice.TranslatedIndex, kind BondKind) {
	m.ensure()
	m.kind[Canonicalize(a, b)] = kind
}

// CreateCovalentBond records a covalent bond between a and b, replacing
// any other relationship the pair previously carried.
func (m *Manager) CreateCovalentBond(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	m.set(a, b, CovalentBond)
}

// CreateCovalentExclusion records a covalent exclusion violation.
func (m *Manager) CreateCovalentExclusion(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	m.set(a, b, CovalentExclusion)
}

// CreateIonicBond records an ionic bond between a and b.
func (m *Manager) CreateIonicBond(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	m.set(a, b, IonicBond)
}

// CreateIonicExclusion records an ionic exclusion violation.
func (m *Manager) CreateIonicExclusion(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	m.set(a, b, IonicExclusion)
}

// CreateIonicRepulsion records an ionic repulsion between like-charged ions.
func (m *Manager) CreateIonicRepulsion(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	m.set(a, b, IonicRepulsion)
}

// Erase removes whatever relationship the pair (a,b) carries, if any.
func (m *Manager) Erase(a lattice.OriginalIndex, b lattice.TranslatedIndex) {
	if m.kind == nil {
		return
	}
	delete(m.kind, Canonicalize(a, b))
}

// EraseKey removes a relationship by its already-canonical key.
func (m *Manager) EraseKey(key ConstrainerKey) {
	if m.kind == nil {
		return
	}
	delete(m.kind, key)
}

// Lookup returns the relationship kind for (a,b) and whether one exists.
func (m *Manager) Lookup(a lattice.OriginalIndex, b lattice.TranslatedIndex) (BondKind, bool) {
	if m.kind == nil {
		return 0, false
	}
	k, ok := m.kind[Canonicalize(a, b)]
	return k, ok
}

// HasCovalentBondWith reports whether a and the translated atom b carry a
// covalent bond.
func (m *Manager) HasCovalentBondWith(a lattice.OriginalIndex, b lattice.TranslatedIndex) bool {
	k, ok := m.Lookup(a, b)
	return ok && k == CovalentBond
}

// HasIonicBondWith reports whether a and the translated atom b carry an
// ionic bond.
func (m *Manager) HasIonicBondWith(a lattice.OriginalIndex, b lattice.TranslatedIndex) bool {
	k, ok := m.Lookup(a, b)
	return ok && k == IonicBond
}

// Keys returns every canonical key currently carrying the given kind, in
// a deterministic order (sorted by A, then by B.Original, then by
// lattice point).
func (m *Manager) Keys(kind BondKind) []ConstrainerKey {
	out := make([]ConstrainerKey, 0, len(m.kind))
	for k, v := range m.kind {
		if v == kind {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i], out[j]) })
	return out
}

// SameCellKeys and TranslatedKeys split Keys(kind) by whether each key
// refers to an unbroken same-cell pair or a translated one — the split
// the objective structure (G) needs for its 5x2 ConstrainerKey lists.
func (m *Manager) SameCellKeys(kind BondKind) []lattice.Pair {
	var out []lattice.Pair
	for _, k := range m.Keys(kind) {
		if k.IsSameCell() {
			out = append(out, k.Pair())
		}
	}
	return out
}

func (m *Manager) TranslatedKeys(kind BondKind) []lattice.TranslatedPair {
	var out []lattice.TranslatedPair
	for _, k := range m.Keys(kind) {
		if !k.IsSameCell() {
			out = append(out, k.TranslatedPair())
		}
	}
	return out
}

// BondedOriginals returns, in ascending order, every original atom
// same-cell-bonded (of the given kind) to atom.
func (m *Manager) BondedOriginals(atom lattice.OriginalIndex, kind BondKind) []lattice.OriginalIndex {
	var out []lattice.OriginalIndex
	for k, v := range m.kind {
		if v != kind {
			continue
		}
		if !k.IsSameCell() {
			continue
		}
		if k.A == atom {
			out = append(out, k.B.Original)
		} else if k.B.Original == atom {
			out = append(out, k.A)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BondedTranslated returns every translated neighbor bonded (of the given
// kind) to atom, expressed as seen from atom (i.e. already Reverse()'d
// where atom is the key's B endpoint).
func (m *Manager) BondedTranslated(atom lattice.OriginalIndex, kind BondKind) []lattice.TranslatedIndex {
	var out []lattice.TranslatedIndex
	for k, v := range m.kind {
		if v != kind {
			continue
		}
		if k.IsSameCell() {
			continue
		}
		if k.A == atom {
			out = append(out, k.B)
		} else if k.B.Original == atom {
			out = append(out, lattice.TranslatedIndex{Original: k.A, LatticePoint: k.B.LatticePoint.Negate()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Original != out[j].Original {
			return out[i].Original < out[j].Original
		}
		li, lj := out[i].LatticePoint, out[j].LatticePoint
		if li.I != lj.I {
			return li.I < lj.I
		}
		if li.J != lj.J {
			return li.J < lj.J
		}
		return li.K < lj.K
	})
	return out
}

func lessKey(a, b ConstrainerKey) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	if a.B.Original != b.B.Original {
		return a.B.Original < b.B.Original
	}
	la, lb := a.B.LatticePoint, b.B.LatticePoint
	if la.I != lb.I {
		return la.I < lb.I
	}
	if la.J != lb.J {
		return la.J < lb.J
	}
	return la.K < lb.K
}
