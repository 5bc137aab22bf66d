package species

import "testing"

func TestIonicSpeciesOrdering(t *testing.T) {
	na := IonicSpecies{Z: 11, Charge: 1}
	cl := IonicSpecies{Z: 17, Charge: -1}
	if !na.Less(cl) {
		t.Error("Na (Z11) should order before Cl (Z17)")
	}
	if cl.Less(na) == false && na.Less(cl) == false {
		t.Error("ordering must be strict")
	}
}

func TestIonicSpeciesChargeSign(t *testing.T) {
	cation := IonicSpecies{Z: 20, Charge: 2}
	anion := IonicSpecies{Z: 8, Charge: -2}
	if !cation.IsCation() || cation.IsAnion() {
		t.Error("Ca2+ should be classified as a cation, not an anion")
	}
	if !anion.IsAnion() || anion.IsCation() {
		t.Error("O2- should be classified as an anion, not a cation")
	}
}

func TestNewRadiusRangeValidation(t *testing.T) {
	if _, err := NewRadiusRange(-1, 2); err == nil {
		t.Error("negative minimum should be rejected")
	}
	if _, err := NewRadiusRange(2, 1); err == nil {
		t.Error("maximum below minimum should be rejected")
	}
	rr, err := NewRadiusRange(0.8, 1.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.Min != 0.8 || rr.Max != 1.2 {
		t.Errorf("got %+v", rr)
	}
}

func TestIntBoundContainsAndClamp(t *testing.T) {
	b := IntBound{Min: 2, Max: 6}
	if b.Contains(1) || !b.Contains(2) || !b.Contains(6) || b.Contains(7) {
		t.Error("Contains boundary handling incorrect")
	}
	if got := b.Clamp(9); got != 6 {
		t.Errorf("Clamp should cap to Max: got %d want 6", got)
	}
	if got := b.Clamp(0); got != 2 {
		t.Errorf("Clamp should raise to Min: got %d want 2", got)
	}

	unbounded := IntBound{Min: 0, Max: -1}
	if got := unbounded.Clamp(100); got != 100 {
		t.Errorf("unbounded Max should never clamp down: got %d", got)
	}
}

func TestCoordinationConstraintsClosestFeasible(t *testing.T) {
	na := IonicSpecies{Z: 11, Charge: 1}
	cl := IonicSpecies{Z: 17, Charge: -1}

	allowed := []Composition{
		{cl: 6},
		{cl: 4, na: 2},
	}
	cc := CoordinationConstraints{AllowedCompositions: allowed}

	if !cc.HasFeasibleCompositions() {
		t.Fatal("expected feasible compositions")
	}
	if got := cc.MaxCoordinationNumber(); got != 6 {
		t.Errorf("MaxCoordinationNumber: got %d want 6", got)
	}

	current := Composition{cl: 7}
	closest := cc.ClosestFeasible(current)
	if closest.Total() != 6 || closest[cl] != 6 {
		t.Errorf("expected {cl:6} to be closest to {cl:7}, got %+v", closest)
	}
}

func TestCoordinationConstraintsClosestLowerBound(t *testing.T) {
	cc := CoordinationConstraints{
		CovalentNumber: IntBound{Min: 0, Max: 4},
		IonicNumber:    IntBound{Min: 0, Max: 6},
	}
	gotCov, gotIon := cc.ClosestLowerBound(7, 9)
	if gotCov != 4 || gotIon != 6 {
		t.Errorf("ClosestLowerBound: got (%d,%d) want (4,6)", gotCov, gotIon)
	}
}
