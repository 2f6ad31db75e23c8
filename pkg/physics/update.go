// pkg/physics/update.go
package physics

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/damage"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

var errReentrantUpdate = errors.New("physics update re-entered")

// Update advances the object by one frame and returns whether it may sleep.
// Calling Update on an object already inside Update is a programming error
// and panics.
func (b *Behavior) Update() SleepTime {
	obj := b.obj
	d := b.data

	if b.flag(FlagIsInUpdate) {
		b.env.Logger.Error(b.logCtx(), "physics update re-entered", errReentrantUpdate, "object", obj.ID())
		panic(errReentrantUpdate)
	}
	b.setFlag(FlagIsInUpdate, true)
	defer b.setFlag(FlagIsInUpdate, false)

	airborneAtStart := obj.IsAboveTerrain()
	if !b.flag(FlagUpdateEverRun) {
		// Avoid a bogus landing on the very first frame.
		b.setFlag(FlagWasAirborneLastFrame, airborneAtStart)
	}

	prevPos := obj.Position()
	b.prevAccel = b.accel

	var (
		activeVelZ     float32
		bounceForce    mgl32.Vec3
		gotBounceForce bool
	)

	if !obj.IsDisabledByType(entity.DisabledHeld) {
		mtx := obj.Transform()

		b.applyGravitationalForces()
		b.applyFrictionalForces()

		b.vel = b.vel.Add(b.accel)
		for i := 0; i < 3; i++ {
			if math32.Abs(b.vel[i]) < velocitySnap {
				b.vel[i] = 0
			}
		}
		b.velMag = invalidVelMag

		oldZ := mtx.Z()
		if obj.TestStatus(entity.StatusBraking) {
			// A braking locomotor holds ground position; projectiles do not fall either.
			if !obj.IsKindOf(entity.KindProjectile) {
				mtx.Translate(0, 0, b.vel[2])
			}
		} else {
			mtx.Translate(b.vel[0], b.vel[1], b.vel[2])
		}

		if mtx.HasNaNTranslation() {
			b.env.Logger.Error(b.logCtx(), "object position is NaN, destroying", nil, "object", obj.ID())
			b.env.Registry.Destroy(obj)
			return b.settleDestroyed()
		}

		if b.flag(FlagHasPitchRollYaw) {
			b.integrateRotation(&mtx)
		}

		pos := mtx.Position()
		groundZ := b.env.Terrain.LayerHeight(pos.X(), pos.Y(), obj.Layer())
		bounceForce, gotBounceForce = b.handleBounce(&mtx, oldZ, mtx.Z(), groundZ)

		activeVelZ = b.vel[2]
		if mtx.Z() <= groundZ {
			// Going down a slope keeps a small negative vz; only remove the excess.
			b.vel[2] += groundZ - mtx.Z()
			if b.vel[2] > 0 {
				b.vel[2] = 0
			}
			b.velMag = invalidVelMag
			mtx.SetZ(groundZ)
			b.setFlag(FlagAllowToFall, false)
		} else if b.flag(FlagIsInFreefall) {
			obj.SetDisabled(entity.DisabledFreefall)
			obj.SetModelCondition(entity.ConditionFreefall)
		} else if b.flag(FlagStickToGround) && !b.flag(FlagAllowToFall) {
			mtx.SetZ(groundZ)
		}

		obj.SetTransform(mtx)
	}

	b.accel = mgl32.Vec3{}
	b.previousOverlap = b.currentOverlap
	b.currentOverlap = entity.InvalidID

	if gotBounceForce && b.flag(FlagAllowBounce) {
		b.ApplyForce(bounceForce)
	}

	airborneAtEnd := obj.IsAboveTerrain()

	// Compare with last frame, not with the start of this call: something
	// else (a parachute, say) may have moved the object in between.
	if b.flag(FlagWasAirborneLastFrame) && !airborneAtEnd && !b.flag(FlagImmuneToFallingDamage) {
		b.land(prevPos, activeVelZ)
	}

	if !airborneAtEnd {
		b.setFlag(FlagIsInFreefall, false)
		obj.ClearDisabled(entity.DisabledFreefall)
		obj.ClearModelCondition(entity.ConditionFreefall)
	}

	if d.KillWhenRestingOnGround && !airborneAtEnd && geom.IsVerySmall3D(b.vel) {
		if !obj.IsKindOf(entity.KindDrone) || obj.IsEffectivelyDead() || obj.IsDisabledByType(entity.DisabledUnmanned) {
			obj.Kill()
		}
	}

	b.setFlag(FlagUpdateEverRun, true)
	b.setFlag(FlagWasAirborneLastFrame, airborneAtEnd)

	sleep := b.CalcSleepTime()
	b.asleep = sleep == SleepForever
	return sleep
}

// settleDestroyed ends an Update for an object that was destroyed mid-frame.
// The last finite transform is kept and no terrain query is made.
func (b *Behavior) settleDestroyed() SleepTime {
	b.vel = mgl32.Vec3{}
	b.velMag = 0
	b.accel = mgl32.Vec3{}
	b.previousOverlap = b.currentOverlap
	b.currentOverlap = entity.InvalidID
	b.setFlag(FlagUpdateEverRun, true)
	b.asleep = true
	return SleepForever
}

// land handles the airborne to grounded transition.
func (b *Behavior) land(prevPos mgl32.Vec3, activeVelZ float32) {
	obj := b.obj
	d := b.data

	b.doBounceSound(prevPos)
	b.env.Events.Publish(event.NewObjectEvent(event.ObjectLanded, "physics", uint32(obj.ID()), 0, obj.Position()))

	obj.OnCollide(nil, obj.Position(), mgl32.Vec3{0, 0, -1})

	// Fall distance is back-computed from speed. Projectiles never take it.
	netSpeed := -activeVelZ - d.MinFallSpeedForDamage
	if netSpeed <= 0 || b.projectile != nil {
		return
	}

	// Only steep falls hurt, so driving down a hill does not.
	steepX := math32.Abs(b.vel[0]) <= fallTinyDelta || math32.Abs(activeVelZ/b.vel[0]) >= fallAngleTan
	steepY := math32.Abs(b.vel[1]) <= fallTinyDelta || math32.Abs(activeVelZ/b.vel[1]) >= fallAngleTan
	if !steepX || !steepY {
		return
	}

	amount := netSpeed * b.Mass() * d.FallHeightDamageFactor
	b.env.Logger.Debug(b.logCtx(), "falling damage",
		"object", obj.ID(), "netSpeed", netSpeed, "amount", amount)
	obj.AttemptDamage(damage.Info{
		Type:      damage.Falling,
		DeathType: damage.DeathSplatted,
		SourceID:  uint32(obj.ID()),
		Amount:    amount,
	})
	if obj.IsEffectivelyDead() {
		obj.SetModelCondition(entity.ConditionSplatted)
	}
}

const (
	normalBounceVelZ float32 = 0.25
	normalBounceMass float32 = 50
)

// doBounceSound plays the landing sound scaled by how hard the object hit.
// Velocity was already clamped this frame, so the drop is measured from the
// previous position instead.
func (b *Behavior) doBounceSound(prevPos mgl32.Vec3) {
	if b.bounceSound == "" {
		return
	}
	vel := clampf(math32.Abs(prevPos.Z()-b.obj.Position().Z()), 0, normalBounceVelZ)
	mass := clampf(math32.Abs(b.Mass()), 0, normalBounceMass)

	volume := (0.25 + 0.75*vel/normalBounceVelZ) * (0.25 + 0.75*mass/normalBounceMass)
	b.env.Events.Publish(event.NewSoundEvent("physics", uint32(b.obj.ID()), b.bounceSound, volume))
}

// CalcSleepTime returns SleepForever only for a settled object: no motion,
// no spin, no thrust, resting on the ground layer, no overlap partners, and
// updated at least once.
func (b *Behavior) CalcSleepTime() SleepTime {
	if geom.IsZero3D(b.vel) &&
		geom.IsZero3D(b.accel) &&
		!b.flag(FlagHasPitchRollYaw) &&
		!b.IsMotive() &&
		b.obj.Layer() == terrain.LayerGround && !b.obj.IsAboveTerrain() &&
		b.currentOverlap == entity.InvalidID &&
		b.previousOverlap == entity.InvalidID &&
		b.flag(FlagUpdateEverRun) {
		return SleepForever
	}
	return SleepNone
}
