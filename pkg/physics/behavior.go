// Package physics implements the per-object rigid-body behavior: force
// accumulation, Euler integration against terrain, pairwise collision
// response, and the crush classifier that lets heavy vehicles run over
// lighter ones instead of bouncing off them.
package physics

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
)

// Flags is the persisted runtime flag set of a behavior.
type Flags uint32

const (
	FlagAllowBounce Flags = 1 << iota
	FlagAllowCollideForce
	FlagIsInFreefall
	FlagStickToGround
	FlagAllowToFall
	FlagHasPitchRollYaw
	FlagIsInUpdate
	FlagWasAirborneLastFrame
	FlagUpdateEverRun
	FlagApplyFriction2DWhenAirborne
	FlagImmuneToFallingDamage
)

// TurningType records which way a locomotor is steering.
type TurningType int32

const (
	TurnNegative TurningType = -1
	TurnNone     TurningType = 0
	TurnPositive TurningType = 1
)

// SleepTime is the scheduling hint returned by Update.
type SleepTime int

const (
	// SleepNone asks to be updated again next frame.
	SleepNone SleepTime = iota
	// SleepForever means the object is settled until something disturbs it.
	SleepForever
)

func (s SleepTime) String() string {
	if s == SleepForever {
		return "forever"
	}
	return "none"
}

const (
	invalidVelMag   float32 = -1
	velocitySnap    float32 = 0.001
	minFriction     float32 = 0.01
	minAeroFriction float32 = 0.0
	maxFriction     float32 = 0.99
	minStiffness    float32 = 0.01
	maxStiffness    float32 = 0.99
	immobileMass    float32 = 999999
	maxOverlap      float32 = 5.0
	bounceDamping   float32 = 0.7
	fallAngleTan    float32 = 3.0
	fallTinyDelta   float32 = 0.01
)

// Behavior is the physics state of one object.
type Behavior struct {
	obj  *entity.Object
	data *ModuleData
	env  Env

	accel     mgl32.Vec3
	prevAccel mgl32.Vec3
	vel       mgl32.Vec3
	velMag    float32

	yawRate   float32
	rollRate  float32
	pitchRate float32

	mass               float32
	motiveForceExpires uint32
	flags              Flags
	extraBounciness    float32
	extraFriction      float32
	turning            TurningType

	currentOverlap       entity.ObjectID
	previousOverlap      entity.ObjectID
	lastCollidee         entity.ObjectID
	ignoreCollisionsWith entity.ObjectID

	// Not persisted; rebuilt on load.
	projectile  entity.ProjectileCollider
	bounceSound string
	asleep      bool
}

// NewBehavior attaches a physics behavior to obj.
func NewBehavior(obj *entity.Object, data *ModuleData, env Env) *Behavior {
	b := &Behavior{
		obj:  obj,
		data: data,
		env:  env.withDefaults(),
		mass: data.Mass,
	}
	b.SetAllowBouncing(data.AllowBouncing)
	b.SetAllowCollideForce(data.AllowCollideForce)
	obj.SetPhysics(b)
	return b
}

// OnObjectCreated captures the projectile collision hook once every module
// of the object exists.
func (b *Behavior) OnObjectCreated() {
	b.projectile = nil
	if b.obj.IsKindOf(entity.KindProjectile) {
		b.projectile = b.obj.Projectile()
	}
}

// Object returns the object this behavior moves.
func (b *Behavior) Object() *entity.Object { return b.obj }

// Data returns the shared tuning.
func (b *Behavior) Data() *ModuleData { return b.data }

func (b *Behavior) flag(f Flags) bool { return b.flags&f != 0 }

func (b *Behavior) setFlag(f Flags, on bool) {
	if on {
		b.flags |= f
	} else {
		b.flags &^= f
	}
}

// Flags returns the raw flag set.
func (b *Behavior) Flags() Flags { return b.flags }

func (b *Behavior) frame() uint32 {
	if b.env.Clock == nil {
		return 0
	}
	return b.env.Clock.Frame()
}

func (b *Behavior) logCtx() context.Context {
	return logging.WithFrame(context.Background(), b.frame())
}

func clampf(v, lo, hi float32) float32 {
	return geom.Clamp(v, lo, hi)
}

// AerodynamicFriction is the clamped air resistance per frame.
func (b *Behavior) AerodynamicFriction() float32 {
	return clampf(b.data.AerodynamicFriction+b.extraFriction, minAeroFriction, maxFriction)
}

// ForwardFriction is the clamped friction along the facing direction.
func (b *Behavior) ForwardFriction() float32 {
	return clampf(b.data.ForwardFriction+b.extraFriction, minFriction, maxFriction)
}

// LateralFriction is the clamped friction across the facing direction.
func (b *Behavior) LateralFriction() float32 {
	return clampf(b.data.LateralFriction+b.extraFriction, minFriction, maxFriction)
}

// ZFriction is the clamped vertical friction.
func (b *Behavior) ZFriction() float32 {
	return clampf(b.data.ZFriction+b.extraFriction, minFriction, maxFriction)
}

// CenterOfMassOffset biases pitch toward nose-up (positive) or nose-down.
func (b *Behavior) CenterOfMassOffset() float32 { return b.data.CenterOfMassOffset }

// Mass is the base mass plus any cargo.
func (b *Behavior) Mass() float32 {
	mass := b.mass
	if c := b.obj.Contain(); c != nil {
		mass += c.ContainedItemsMass()
	}
	return mass
}

// SetMass replaces the base mass.
func (b *Behavior) SetMass(m float32) { b.mass = m }

func (b *Behavior) Velocity() mgl32.Vec3             { return b.vel }
func (b *Behavior) Acceleration() mgl32.Vec3         { return b.accel }
func (b *Behavior) PreviousAcceleration() mgl32.Vec3 { return b.prevAccel }

func (b *Behavior) YawRate() float32   { return b.yawRate }
func (b *Behavior) PitchRate() float32 { return b.pitchRate }
func (b *Behavior) RollRate() float32  { return b.rollRate }

// VelocityMagnitude returns |velocity|, computed lazily.
func (b *Behavior) VelocityMagnitude() float32 {
	if b.velMag == invalidVelMag {
		b.velMag = b.vel.Len()
	}
	return b.velMag
}

// ForwardSpeed2D is the ground speed signed by whether it runs with or
// against the facing direction.
func (b *Behavior) ForwardSpeed2D() float32 {
	dir := b.obj.UnitDirection2D()
	vx := b.vel[0] * dir[0]
	vy := b.vel[1] * dir[1]
	speed := math32.Sqrt(vx*vx + vy*vy)
	if vx+vy >= 0 {
		return speed
	}
	return -speed
}

// ForwardSpeed3D is ForwardSpeed2D using the full 3D facing vector.
func (b *Behavior) ForwardSpeed3D() float32 {
	dir := b.obj.Transform().XVector()
	vx := b.vel[0] * dir[0]
	vy := b.vel[1] * dir[1]
	vz := b.vel[2] * dir[2]
	speed := math32.Sqrt(vx*vx + vy*vy + vz*vz)
	if vx+vy+vz >= 0 {
		return speed
	}
	return -speed
}

func (b *Behavior) updatePitchRollYawFlag() {
	b.setFlag(FlagHasPitchRollYaw, b.pitchRate != 0 || b.rollRate != 0 || b.yawRate != 0)
}

func (b *Behavior) SetYawRate(r float32) {
	b.yawRate = r
	b.updatePitchRollYawFlag()
}

func (b *Behavior) SetPitchRate(r float32) {
	b.pitchRate = r
	b.updatePitchRollYawFlag()
}

func (b *Behavior) SetRollRate(r float32) {
	b.rollRate = r
	b.updatePitchRollYawFlag()
}

func (b *Behavior) applyYPRDamping(factor float32) {
	b.pitchRate *= factor
	b.rollRate *= factor
	b.yawRate *= factor
	b.updatePitchRollYawFlag()
}

// SetAngles rebuilds the orientation from absolute angles at the current
// position. Only for snapping; incremental motion goes through Update.
func (b *Behavior) SetAngles(yaw, pitch, roll float32) {
	b.obj.SetTransform(geom.FromAngles(b.obj.Position(), yaw, pitch, roll))
}

// ScrubVelocityZ limits vertical speed to desired, keeping its sign.
func (b *Behavior) ScrubVelocityZ(desired float32) {
	if math32.Abs(desired) < velocitySnap {
		b.vel[2] = 0
	} else if (desired < 0 && b.vel[2] < desired) || (desired > 0 && b.vel[2] > desired) {
		b.vel[2] = desired
	}
	b.velMag = invalidVelMag
}

// ScrubVelocity2D limits ground speed to desired, keeping direction.
func (b *Behavior) ScrubVelocity2D(desired float32) {
	if desired < velocitySnap {
		b.vel[0] = 0
		b.vel[1] = 0
	} else {
		cur := geom.Length2D(b.vel)
		if desired > cur {
			return
		}
		scale := desired / cur
		b.vel[0] *= scale
		b.vel[1] *= scale
	}
	b.velMag = invalidVelMag
}

// AddVelocity adds v directly to the velocity.
func (b *Behavior) AddVelocity(v mgl32.Vec3) {
	b.vel = b.vel.Add(v)
	b.velMag = invalidVelMag
}

// TransferVelocityTo adds this velocity to other's.
func (b *Behavior) TransferVelocityTo(other *Behavior) {
	if other == nil {
		return
	}
	other.vel = other.vel.Add(b.vel)
	other.velMag = invalidVelMag
}

// ResetDynamicPhysics stops all linear and angular motion.
func (b *Behavior) ResetDynamicPhysics() {
	b.accel = mgl32.Vec3{}
	b.prevAccel = mgl32.Vec3{}
	b.vel = mgl32.Vec3{}
	b.velMag = 0
	b.turning = TurnNone
	b.yawRate = 0
	b.rollRate = 0
	b.pitchRate = 0
	b.setFlag(FlagHasPitchRollYaw, false)
	b.asleep = b.CalcSleepTime() == SleepForever
}

// AddOverlap records obj as the current overlap partner.
func (b *Behavior) AddOverlap(obj *entity.Object) {
	if obj != nil && !b.IsCurrentlyOverlapped(obj) {
		b.currentOverlap = obj.ID()
	}
}

func (b *Behavior) IsCurrentlyOverlapped(obj *entity.Object) bool {
	return obj != nil && obj.ID() == b.currentOverlap
}

func (b *Behavior) WasPreviouslyOverlapped(obj *entity.Object) bool {
	return obj != nil && obj.ID() == b.previousOverlap
}

func (b *Behavior) CurrentOverlap() entity.ObjectID  { return b.currentOverlap }
func (b *Behavior) PreviousOverlap() entity.ObjectID { return b.previousOverlap }
func (b *Behavior) LastCollidee() entity.ObjectID    { return b.lastCollidee }

// SetIgnoreCollisionsWith suppresses collisions with obj; nil clears it.
func (b *Behavior) SetIgnoreCollisionsWith(obj *entity.Object) {
	if obj == nil {
		b.ignoreCollisionsWith = entity.InvalidID
		return
	}
	b.ignoreCollisionsWith = obj.ID()
}

// IsIgnoringCollisionsWith reports whether id is the designated ignoree.
func (b *Behavior) IsIgnoringCollisionsWith(id entity.ObjectID) bool {
	return id != entity.InvalidID && id == b.ignoreCollisionsWith
}

func (b *Behavior) SetExtraFriction(f float32)   { b.extraFriction = f }
func (b *Behavior) SetExtraBounciness(f float32) { b.extraBounciness = f }
func (b *Behavior) ExtraFriction() float32       { return b.extraFriction }
func (b *Behavior) ExtraBounciness() float32     { return b.extraBounciness }

func (b *Behavior) SetAllowBouncing(v bool)             { b.setFlag(FlagAllowBounce, v) }
func (b *Behavior) SetAllowCollideForce(v bool)         { b.setFlag(FlagAllowCollideForce, v) }
func (b *Behavior) AllowCollideForce() bool             { return b.flag(FlagAllowCollideForce) }
func (b *Behavior) SetStickToGround(v bool)             { b.setFlag(FlagStickToGround, v) }
func (b *Behavior) SetAllowToFall(v bool)               { b.setFlag(FlagAllowToFall, v) }
func (b *Behavior) SetFreefall(v bool)                  { b.setFlag(FlagIsInFreefall, v) }
func (b *Behavior) IsInFreefall() bool                  { return b.flag(FlagIsInFreefall) }
func (b *Behavior) SetImmuneToFallingDamage(v bool)     { b.setFlag(FlagImmuneToFallingDamage, v) }

func (b *Behavior) SetApplyFriction2DWhenAirborne(v bool) {
	b.setFlag(FlagApplyFriction2DWhenAirborne, v)
}

func (b *Behavior) SetTurning(t TurningType) { b.turning = t }
func (b *Behavior) Turning() TurningType     { return b.turning }

// SetBounceSound names the sound played on landing; empty disables it.
func (b *Behavior) SetBounceSound(name string) { b.bounceSound = name }

// IsMotive reports whether a thrust force is still steering the object.
func (b *Behavior) IsMotive() bool {
	return b.motiveForceExpires > b.frame()
}

// IsAsleep reports whether the last Update settled the object.
func (b *Behavior) IsAsleep() bool { return b.asleep }

func (b *Behavior) wake() {
	if !b.asleep {
		return
	}
	b.asleep = false
	b.env.Events.Publish(event.NewObjectEvent(event.ObjectWoke, "physics", uint32(b.obj.ID()), 0, b.obj.Position()))
}
