package math

import (
	stdmath "math"
	"testing"
)

func quatApproxEq(a, b Quat, eps float32) bool {
	// q and -q represent the same rotation
	if a.Dot(b) < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
	}
	d := Quat{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W}
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z+d.W*d.W < eps*eps
}

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.W != 1 || q.X != 0 || q.Y != 0 || q.Z != 0 {
		t.Errorf("QuatIdentity() = %v", q)
	}
}

func TestQuatSlerpEndpoints(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{0, 0, 1}, 0)
	b := QuatFromAxisAngle(Vec3{0, 0, 1}, stdmath.Pi/2)

	if got := a.Slerp(b, 0); !quatApproxEq(got, a, 1e-5) {
		t.Errorf("Slerp(0) = %v, want %v", got, a)
	}
	if got := a.Slerp(b, 1); !quatApproxEq(got, b, 1e-5) {
		t.Errorf("Slerp(1) = %v, want %v", got, b)
	}
}

func TestQuatSlerpShortestArc(t *testing.T) {
	// 350 degrees around Z should interpolate through 355, not 175
	a := QuatFromAxisAngle(Vec3{0, 0, 1}, 0)
	b := QuatFromAxisAngle(Vec3{0, 0, 1}, 350*stdmath.Pi/180)

	mid := a.Slerp(b, 0.5)
	want := QuatFromAxisAngle(Vec3{0, 0, 1}, -5*stdmath.Pi/180)
	if !quatApproxEq(mid, want, 1e-4) {
		t.Errorf("Slerp(0.5) = %v, want %v (shortest arc)", mid, want)
	}
}

func TestQuatEulerRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float32
	}{
		{"zero", 0, 0, 0},
		{"x only", 0.5, 0, 0},
		{"y only", 0, -0.7, 0},
		{"z only", 0, 0, 1.2},
		{"combined", 0.3, -0.4, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromEuler(tt.x, tt.y, tt.z)
			x, y, z := q.ToEuler()
			back := QuatFromEuler(x, y, z)
			if !quatApproxEq(q, back, 1e-4) {
				t.Errorf("round trip %v -> (%v %v %v) -> %v", q, x, y, z, back)
			}
		})
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	q := Quat{0, 0, 0, 0}.Normalize()
	if q != QuatIdentity() {
		t.Errorf("Normalize(zero) = %v, want identity", q)
	}
}
