package common

import "math"

// Vec3 is a float64 3D vector. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

var (
	Zero3 = Vec3{}
	Up    = Vec3{Y: 1}
)

func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) LenSq() float64 {
	return v.Dot(v)
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// Normalize returns the unit vector, or zero for a zero vector.
func (v Vec3) Normalize() Vec3 {
	mag := v.Len()
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Flatten drops the vertical component.
func (v Vec3) Flatten() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// ClampMagnitude limits v to maxMag while preserving direction.
// Returns v unchanged if its magnitude is already within maxMag.
func ClampMagnitude(v Vec3, maxMag float64) Vec3 {
	mag := v.Len()
	if mag <= maxMag || mag == 0 {
		return v
	}
	return v.Scale(maxMag / mag)
}

// Distance returns |a-b|.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}
