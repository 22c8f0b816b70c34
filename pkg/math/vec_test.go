package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{1, 2, 2}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}

	zero := Vec3{}.Normalize()
	if zero != (Vec3{}) {
		t.Errorf("Vec3{}.Normalize() = %v, want zero vector", zero)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{2, 4, 6}

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got := a.Lerp(b, 0.5); got != (Vec3{1, 2, 3}) {
		t.Errorf("Lerp(0.5) = %v, want {1 2 3}", got)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -3}
	b := Vec3{2, -4, 0}

	if got := a.Min(b); got != (Vec3{1, -4, -3}) {
		t.Errorf("Min = %v", got)
	}
	if got := a.Max(b); got != (Vec3{2, 5, 0}) {
		t.Errorf("Max = %v", got)
	}
}
