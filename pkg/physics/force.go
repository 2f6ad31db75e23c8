// pkg/physics/force.go
package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/geom"
)

// MotiveFrames is how many frames a motive force keeps the object in motive mode.
func (b *Behavior) MotiveFrames() uint32 {
	return uint32(b.env.Global.LogicFramesPerSecond / 3)
}

// ApplyForce accumulates force at the center of mass. NaN forces are dropped.
// A force from outside the object's own Update wakes it, even a zero one.
func (b *Behavior) ApplyForce(force mgl32.Vec3) {
	if geom.HasNaN(force) {
		b.env.Logger.Warn(b.logCtx(), "rejecting NaN force",
			"object", b.obj.ID(), "force", force)
		return
	}

	mod := force
	if b.IsMotive() {
		// While thrusting only the lateral part is accepted.
		dir := b.obj.UnitDirection2D()
		lateral := force[0]*-dir[1] + force[1]*dir[0]
		mod[0] = lateral * -dir[1]
		mod[1] = lateral * dir[0]
	}

	b.accel = b.accel.Add(mod.Mul(1 / b.Mass()))

	if !b.flag(FlagIsInUpdate) {
		b.wake()
	}
}

// ApplyMotiveForce applies a thrust force and opens the motive window.
func (b *Behavior) ApplyMotiveForce(force mgl32.Vec3) {
	b.motiveForceExpires = 0
	b.ApplyForce(force)
	b.motiveForceExpires = b.frame() + b.MotiveFrames()
}

func (b *Behavior) applyGravitationalForces() {
	b.accel[2] += b.env.Global.Gravity
}

func (b *Behavior) applyFrictionalForces() {
	if !b.flag(FlagApplyFriction2DWhenAirborne) && b.obj.IsSignificantlyAboveTerrain() {
		aero := -b.AerodynamicFriction()
		b.accel = b.accel.Add(b.vel.Mul(aero))
		b.applyYPRDamping(1 + aero)
		return
	}

	b.applyYPRDamping(1 - DefaultLateralFriction)

	if b.vel[0] == 0 && b.vel[1] == 0 {
		return
	}

	dir := b.obj.UnitDirection2D()
	mass := b.Mass()

	lateralDot := b.vel[0]*-dir[1] + b.vel[1]*dir[0]
	lf := mass * b.LateralFriction()
	force := mgl32.Vec3{
		-(lf * lateralDot * -dir[1]),
		-(lf * lateralDot * dir[0]),
		0,
	}

	if !b.IsMotive() {
		forwardDot := b.vel[0]*dir[0] + b.vel[1]*dir[1]
		ff := mass * b.ForwardFriction()
		force[0] += -(ff * forwardDot * dir[0])
		force[1] += -(ff * forwardDot * dir[1])
	}
	b.ApplyForce(force)
}

// handleBounce computes the upward impulse for an object reaching the ground
// and flips it upright on the working transform.
func (b *Behavior) handleBounce(mtx *geom.Transform, oldZ, newZ, groundZ float32) (mgl32.Vec3, bool) {
	if !b.flag(FlagAllowBounce) || newZ > groundZ {
		return mgl32.Vec3{}, false
	}

	stiffness := clampf(b.env.Global.GroundStiffness, minStiffness, maxStiffness)

	var desiredAccelZ float32
	vz := b.vel[2]
	if oldZ > groundZ && vz < 0 {
		desiredAccelZ = math32.Abs(vz) * stiffness
	}
	force := mgl32.Vec3{0, 0, b.Mass() * desiredAccelZ}

	b.applyYPRDamping(bounceDamping)

	if vz < 0 {
		var roll float32
		if mtx.ZVector()[2] <= 0 {
			roll = math32.Pi
		}
		// Pitch stays level so the object is not flipped twice.
		*mtx = geom.FromAngles(mtx.Position(), mtx.ZRotation(), 0, roll)
	}
	return force, true
}

func (b *Behavior) integrateRotation(mtx *geom.Transform) {
	factor := b.data.PitchRollYawFactor
	yaw := b.yawRate * factor
	pitch := b.pitchRate * factor
	roll := b.rollRate * factor

	// A listing center of mass drives pitch toward straight up or down.
	if offset := b.CenterOfMassOffset(); offset != 0 {
		x := mtx.XVector()
		pitchAngle := math32.Atan2(x[2], math32.Sqrt(x[0]*x[0]+x[1]*x[1]))
		var remaining float32
		if offset > 0 {
			remaining = math32.Pi/2 - pitchAngle
		} else {
			remaining = -math32.Pi/2 + pitchAngle
		}
		pitch *= math32.Sin(remaining)
	}

	mtx.RotateX(roll)
	mtx.RotateY(pitch)
	mtx.RotateZ(yaw)
}
