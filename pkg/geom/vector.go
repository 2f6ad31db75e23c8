package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// VerySmallThreshold is the per-axis bound under which a vector is treated as
// effectively stationary.
const VerySmallThreshold = 0.01

// IsVerySmall3D reports whether every component is within VerySmallThreshold of zero.
func IsVerySmall3D(v mgl32.Vec3) bool {
	return math32.Abs(v[0]) < VerySmallThreshold &&
		math32.Abs(v[1]) < VerySmallThreshold &&
		math32.Abs(v[2]) < VerySmallThreshold
}

// IsZero3D reports whether every component is exactly zero.
func IsZero3D(v mgl32.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// HasNaN reports whether any component is NaN.
func HasNaN(v mgl32.Vec3) bool {
	return math32.IsNaN(v[0]) || math32.IsNaN(v[1]) || math32.IsNaN(v[2])
}

// DistSqr returns the squared 3D distance between a and b.
func DistSqr(a, b mgl32.Vec3) float32 {
	return a.Sub(b).LenSqr()
}

// Length2D returns the magnitude of the XY components.
func Length2D(v mgl32.Vec3) float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1])
}

// Flatten returns v with its Z component zeroed.
func Flatten(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], 0}
}

// Vec2D converts the XY components to a 2D vector.
func Vec2D(v mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{v[0], v[1]}
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
