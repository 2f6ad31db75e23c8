// Package geom holds the small amount of linear algebra the simulation needs:
// an object transform that is advanced by incremental rotations, vector
// predicates shared by the integrator, and a broadphase quad tree.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a rigid transform (3x3 rotation plus translation) stored as a
// homogeneous column-major matrix.
//
// Rotations are applied in place by post-multiplying an incremental rotation.
// The matrix is never rebuilt from stored Euler angles: the decomposition is
// order-dependent and too slow to redo for every object every frame. Reading
// the yaw angle back out with ZRotation is the one safe extraction.
type Transform struct {
	m mgl32.Mat4
}

// Identity returns a transform at the origin with no rotation.
func Identity() Transform {
	return Transform{m: mgl32.Ident4()}
}

// NewTransform returns an unrotated transform at pos.
func NewTransform(pos mgl32.Vec3) Transform {
	return Transform{m: mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())}
}

// FromAngles builds a fresh transform at pos with the given yaw, pitch and
// roll. Roll is applied about -X, matching the convention used when an object
// is flipped upright after a bounce.
func FromAngles(pos mgl32.Vec3, yaw, pitch, roll float32) Transform {
	rot := mgl32.HomogRotate3DZ(yaw).
		Mul4(mgl32.HomogRotate3DY(pitch)).
		Mul4(mgl32.HomogRotate3DX(-roll))
	t := Transform{m: rot}
	t.SetPosition(pos)
	return t
}

// FromMatrix wraps an existing matrix.
func FromMatrix(m mgl32.Mat4) Transform {
	return Transform{m: m}
}

// Matrix returns the underlying matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	return t.m
}

// Position returns the translation component.
func (t Transform) Position() mgl32.Vec3 {
	return mgl32.Vec3{t.m[12], t.m[13], t.m[14]}
}

// SetPosition replaces the translation component.
func (t *Transform) SetPosition(pos mgl32.Vec3) {
	t.m[12] = pos.X()
	t.m[13] = pos.Y()
	t.m[14] = pos.Z()
}

// Translate adds to the translation component.
func (t *Transform) Translate(dx, dy, dz float32) {
	t.m[12] += dx
	t.m[13] += dy
	t.m[14] += dz
}

// Z returns the height component of the translation.
func (t Transform) Z() float32 {
	return t.m[14]
}

// SetZ replaces the height component of the translation.
func (t *Transform) SetZ(z float32) {
	t.m[14] = z
}

// XVector is the object's local X (forward) axis in world space.
func (t Transform) XVector() mgl32.Vec3 {
	return t.m.Col(0).Vec3()
}

// ZVector is the object's local Z (up) axis in world space.
func (t Transform) ZVector() mgl32.Vec3 {
	return t.m.Col(2).Vec3()
}

// ZRotation returns the yaw angle in radians.
func (t Transform) ZRotation() float32 {
	return math32.Atan2(t.m.At(1, 0), t.m.At(0, 0))
}

// RotateX post-multiplies a rotation about the local X axis.
func (t *Transform) RotateX(theta float32) {
	t.m = t.m.Mul4(mgl32.HomogRotate3DX(theta))
}

// RotateY post-multiplies a rotation about the local Y axis.
func (t *Transform) RotateY(theta float32) {
	t.m = t.m.Mul4(mgl32.HomogRotate3DY(theta))
}

// RotateZ post-multiplies a rotation about the local Z axis.
func (t *Transform) RotateZ(theta float32) {
	t.m = t.m.Mul4(mgl32.HomogRotate3DZ(theta))
}

// UnitDirection2D is the facing direction projected onto the ground plane.
func (t Transform) UnitDirection2D() mgl32.Vec3 {
	yaw := t.ZRotation()
	return mgl32.Vec3{math32.Cos(yaw), math32.Sin(yaw), 0}
}

// HasNaNTranslation reports whether any translation component is NaN.
func (t Transform) HasNaNTranslation() bool {
	return HasNaN(t.Position())
}
