package linalg

import (
	"math"
	"testing"
)

func approxMat(a, b Mat3, tol float64) bool {
	diff := a.Sub(b)
	return diff.FrobeniusNorm() < tol
}

func TestMat3IdentityInverse(t *testing.T) {
	id := Identity3()
	inv, err := id.Inverse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxMat(inv, id, 1e-12) {
		t.Errorf("inverse of identity should be identity, got %+v", inv)
	}
}

func TestMat3InverseRoundTrip(t *testing.T) {
	m := NewMat3FromColumns(
		NewVec3(2, 0, 0),
		NewVec3(1, 3, 0),
		NewVec3(0, 1, 4),
	)
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roundTrip := m.Mul(inv)
	if !approxMat(roundTrip, Identity3(), 1e-9) {
		t.Errorf("M * M^-1 should be identity, got %+v", roundTrip)
	}

	roundTrip2 := inv.Mul(m)
	if !approxMat(roundTrip2, Identity3(), 1e-9) {
		t.Errorf("M^-1 * M should be identity, got %+v", roundTrip2)
	}
}

func TestMat3SingularInverseFails(t *testing.T) {
	m := NewMat3FromColumns(
		NewVec3(1, 2, 3),
		NewVec3(2, 4, 6),
		NewVec3(0, 1, 1),
	)
	if _, err := m.Inverse(); err == nil {
		t.Error("expected singular matrix to fail inversion")
	}
}

func TestMat3Determinant(t *testing.T) {
	m := NewMat3FromColumns(
		NewVec3(1, 0, 0),
		NewVec3(0, 2, 0),
		NewVec3(0, 0, 3),
	)
	if got := m.Determinant(); math.Abs(got-6) > 1e-12 {
		t.Errorf("Determinant: got %v want 6", got)
	}
}

func TestMat3Transpose(t *testing.T) {
	m := NewMat3FromColumns(
		NewVec3(1, 2, 3),
		NewVec3(4, 5, 6),
		NewVec3(7, 8, 9),
	)
	tr := m.Transpose()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if m.At(r, c) != tr.At(c, r) {
				t.Errorf("Transpose mismatch at (%d,%d)", r, c)
			}
		}
	}
}
