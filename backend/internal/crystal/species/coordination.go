package species

import (
	"sort"
	"strconv"
)

// Composition is a multiset over IonicSpecies: how many neighbors of
// each species a centre atom currently has, or is allowed to have.
type Composition map[IonicSpecies]int

// Total returns the sum of counts across all species.
func (c Composition) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (c Composition) Clone() Composition {
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// distance is the L1 distance between two compositions over the union of
// their keys; it is the metric ClosestFeasible minimizes.
func (c Composition) distance(other Composition) int {
	seen := make(map[IonicSpecies]bool, len(c)+len(other))
	d := 0
	for k := range c {
		seen[k] = true
	}
	for k := range other {
		seen[k] = true
	}
	for k := range seen {
		diff := c[k] - other[k]
		if diff < 0 {
			diff = -diff
		}
		d += diff
	}
	return d
}

// IntBound is an inclusive integer bound; Max < 0 means unbounded above.
type IntBound struct {
	Min int
	Max int
}

// Contains reports whether n is within [Min, Max] (Max<0 meaning +inf).
func (b IntBound) Contains(n int) bool {
	if n < b.Min {
		return false
	}
	if b.Max >= 0 && n > b.Max {
		return false
	}
	return true
}

// Clamp returns the closest value to n that lies within the bound: Max
// when n exceeds it, Min when n falls below Min, and n otherwise.
func (b IntBound) Clamp(n int) int {
	if b.Max >= 0 && n > b.Max {
		return b.Max
	}
	if n < b.Min {
		return b.Min
	}
	return n
}

// CoordinationConstraints describes the feasible coordination
// environments of a centre atom: a disjunction of allowed compositions
// (if any are declared) plus independent bounds on the covalent and
// ionic coordination numbers.
type CoordinationConstraints struct {
	AllowedCompositions []Composition
	CovalentNumber      IntBound
	IonicNumber         IntBound
}

// HasFeasibleCompositions reports whether any full composition is declared.
func (c CoordinationConstraints) HasFeasibleCompositions() bool {
	return len(c.AllowedCompositions) > 0
}

// HasFeasibleCovalentCoordinationNumbers reports whether the covalent
// bound admits at least one non-negative coordination number.
func (c CoordinationConstraints) HasFeasibleCovalentCoordinationNumbers() bool {
	return c.CovalentNumber.Min >= 0 && (c.CovalentNumber.Max < 0 || c.CovalentNumber.Max >= c.CovalentNumber.Min)
}

// HasFeasibleIonicCoordinationNumbers reports whether the ionic bound
// admits at least one non-negative coordination number.
func (c CoordinationConstraints) HasFeasibleIonicCoordinationNumbers() bool {
	return c.IonicNumber.Min >= 0 && (c.IonicNumber.Max < 0 || c.IonicNumber.Max >= c.IonicNumber.Min)
}

// MaxCoordinationNumber returns the largest total coordination number any
// allowed composition reaches, or the larger of the two count bounds when
// no composition list is declared. Returns -1 if unbounded.
func (c CoordinationConstraints) MaxCoordinationNumber() int {
	if c.HasFeasibleCompositions() {
		max := 0
		for _, comp := range c.AllowedCompositions {
			if t := comp.Total(); t > max {
				max = t
			}
		}
		return max
	}
	if c.CovalentNumber.Max < 0 || c.IonicNumber.Max < 0 {
		return -1
	}
	if c.CovalentNumber.Max > c.IonicNumber.Max {
		return c.CovalentNumber.Max
	}
	return c.IonicNumber.Max
}

// ClosestFeasible returns the allowed composition nearest (by L1 distance
// over species counts) to current. Ties break on the lower total count,
// then on species-sorted lexicographic order, for determinism.
func (c CoordinationConstraints) ClosestFeasible(current Composition) Composition {
	if len(c.AllowedCompositions) == 0 {
		return current.Clone()
	}

	best := c.AllowedCompositions[0]
	bestDist := current.distance(best)
	for _, candidate := range c.AllowedCompositions[1:] {
		d := current.distance(candidate)
		switch {
		case d < bestDist:
			best, bestDist = candidate, d
		case d == bestDist && candidate.Total() < best.Total():
			best = candidate
		case d == bestDist && candidate.Total() == best.Total() && compositionKey(candidate) < compositionKey(best):
			best = candidate
		}
	}
	return best.Clone()
}

// ClosestLowerBound clamps the current covalent/ionic coordination
// numbers into their respective bounds (a count above Max comes down to
// Max, a count below Min is raised to Min), used when only count bounds
// (not full compositions) constrain the centre atom.
func (c CoordinationConstraints) ClosestLowerBound(currentCovalent, currentIonic int) (targetCovalent, targetIonic int) {
	return c.CovalentNumber.Clamp(currentCovalent), c.IonicNumber.Clamp(currentIonic)
}

// compositionKey renders a deterministic sort key for tie-breaking.
func compositionKey(c Composition) string {
	keys := make([]IonicSpecies, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := ""
	for _, k := range keys {
		out += k.String() + ":" + strconv.Itoa(c[k]) + ","
	}
	return out
}
