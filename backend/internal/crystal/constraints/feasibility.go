package constraints

// The five feasibility predicates below are pure functions of squared
// distance and radius sums; they never mutate the ledger and are shared
// between the constraint manager and objective.Structure.IsFeasible,
// which re-runs them over frozen snapshots.

// BondFeasible reports whether a bonded pair's squared distance d2 lies
// within the eps-widened window [(1-eps)^2*rMin^2, (1+eps)^2*rMax^2].
func BondFeasible(d2, rMin, rMax, eps float64) bool {
	lo := (1 - eps) * rMin
	hi := (1 + eps) * rMax
	return d2 >= lo*lo && d2 <= hi*hi
}

// ExclusionFeasible reports whether an excluded pair's squared distance
// d2 is at least the eps-narrowed, rho-scaled minimum approach distance.
func ExclusionFeasible(d2, rMax, eps, rho float64) bool {
	lo := (1 - eps) * rho * rMax
	return d2 >= lo*lo
}

// RepulsionFeasible reports whether a repulsed pair's squared distance d2
// is at least the eps-narrowed sum of repulsion-minimum radii.
func RepulsionFeasible(d2, rRepMin, eps float64) bool {
	lo := (1 - eps) * rRepMin
	return d2 >= lo*lo
}
