package common

import (
	"math"
	"testing"
)

func TestClampMagnitude(t *testing.T) {
	cases := []struct {
		name string
		in   Vec3
		max  float64
		want Vec3
	}{
		{"within", V3(3, 4, 0), 10, V3(3, 4, 0)},
		{"exact", V3(3, 4, 0), 5, V3(3, 4, 0)},
		{"rescaled", V3(30, 40, 0), 5, V3(3, 4, 0)},
		{"zero", Vec3{}, 1, Vec3{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClampMagnitude(c.in, c.max)
			if Distance(got, c.want) > 1e-9 {
				t.Fatalf("ClampMagnitude(%v, %v) = %v, want %v", c.in, c.max, got, c.want)
			}
		})
	}
}

func TestNormalizeZeroSafe(t *testing.T) {
	if got := (Vec3{}).Normalize(); !got.IsZero() {
		t.Fatalf("expected zero vector, got %v", got)
	}
	n := V3(0, 0, 7).Normalize()
	if math.Abs(n.Len()-1) > 1e-12 || n.Z != 1 {
		t.Fatalf("unexpected normalized vector %v", n)
	}
}

func TestClampAndSign(t *testing.T) {
	if Clamp(2, -1, 1) != 1 || Clamp(-2, -1, 1) != -1 || Clamp(0.5, -1, 1) != 0.5 {
		t.Fatal("Clamp out of range")
	}
	if Sign(-3) != -1 || Sign(0) != 0 || Sign(2) != 1 {
		t.Fatal("Sign mismatch")
	}
}
