package linalg

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -1, 2)

	if got := a.Add(b); got != (Vec3{5, 1, 5}) {
		t.Errorf("Add: got %+v", got)
	}
	if got := a.Sub(b); got != (Vec3{-3, 3, 1}) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale: got %+v", got)
	}
	if got := a.Dot(b); got != 4-2+6 {
		t.Errorf("Dot: got %v", got)
	}
}

func TestVec3Norm(t *testing.T) {
	v := NewVec3(3, 4, 0)
	if got := v.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm: got %v want 5", got)
	}
	if got := v.NormSquare(); got != 25 {
		t.Errorf("NormSquare: got %v want 25", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(0, 5, 0).Normalize()
	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("Normalize did not produce a unit vector: %+v", v)
	}
}

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross: x * y = %+v, want z", got)
	}
	if got := y.Cross(x); got != (Vec3{0, 0, -1}) {
		t.Errorf("Cross: y * x = %+v, want -z", got)
	}
}

func TestVec3AddScaled(t *testing.T) {
	a := NewVec3(1, 1, 1)
	b := NewVec3(2, 0, -2)
	got := a.AddScaled(0.5, b)
	want := NewVec3(2, 1, 0)
	if got != want {
		t.Errorf("AddScaled: got %+v want %+v", got, want)
	}
}
