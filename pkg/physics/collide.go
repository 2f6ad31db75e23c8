// pkg/physics/collide.go
package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
)

// OnCollide resolves contact with other for this object only; other resolves
// its own side separately. A nil other means the ground.
func (b *Behavior) OnCollide(other *entity.Object, loc, normal mgl32.Vec3) {
	if b.projectile != nil && b.projectile.HandleCollision(other) {
		return
	}

	obj := b.obj
	objContainedBy := obj.ContainedBy()

	if other == nil {
		// Tell our container, which is handy for parachutes.
		if objContainedBy != nil {
			objContainedBy.OnCollide(nil, loc, normal)
		}
		return
	}

	if other.ContainedBy() == obj || objContainedBy == other {
		return
	}

	if obj.TestStatus(entity.StatusParachuting) && other.TestStatus(entity.StatusParachuting) {
		return
	}

	ai := obj.AI()
	if ai != nil && ai.IgnoredObstacleID() == other.ID() {
		if obj.IsKindOf(entity.KindInfantry) && other.IsDisabledByType(entity.DisabledUnmanned) {
			b.boardUnmannedVehicle(other)
		}
		return
	}
	if aiOther := other.AI(); aiOther != nil && aiOther.IgnoredObstacleID() == obj.ID() {
		return
	}
	if b.IsIgnoringCollisionsWith(other.ID()) {
		return
	}

	otherImmobile := other.IsKindOf(entity.KindImmobile)
	if otherPhysics := other.Physics(); otherPhysics != nil {
		if otherPhysics.IsIgnoringCollisionsWith(obj.ID()) {
			return
		}
	} else if !otherImmobile {
		// No physics and not immobile: insubstantial.
		return
	}

	// Overlap does not need other to have physics, so it is checked first.
	if b.CheckForOverlapCollision(other) {
		return
	}

	mass := b.Mass()
	if obj.IsKindOf(entity.KindImmobile) {
		mass = immobileMass
	}

	// AI units move on their own initiative rather than being bounced,
	// unless dead or parachuting into something immobile.
	if ai != nil && !((obj.IsEffectivelyDead() || obj.TestStatus(entity.StatusParachuting)) && otherImmobile) {
		if !ai.ProcessCollision(b, other) {
			return
		}
	}

	usCenter := obj.Geometry().CenterPosition(obj.Position())
	themCenter := other.Geometry().CenterPosition(other.Position())
	delta := themCenter.Sub(usCenter)

	var distSqr, usRadius, themRadius float32
	if obj.IsAboveTerrain() {
		usRadius = obj.Geometry().BoundingSphereRadius
		themRadius = other.Geometry().BoundingSphereRadius
		distSqr = delta.LenSqr()
	} else {
		usRadius = obj.Geometry().BoundingCircleRadius
		themRadius = other.Geometry().BoundingCircleRadius
		delta[2] = 0
		distSqr = delta.LenSqr()
	}

	radiusSum := usRadius + themRadius
	if distSqr > radiusSum*radiusSum {
		return
	}

	b.lastCollidee = other.ID()

	dist := math32.Sqrt(distSqr)
	overlap := radiusSum - dist
	// Coincident centers would make the force infinite.
	if dist < 1 {
		dist = 1
	}

	if !b.flag(FlagAllowCollideForce) {
		return
	}

	var factor float32
	if otherImmobile && !obj.IsDestroyed() {
		if obj.TestStatus(entity.StatusParachuting) {
			b.nudgeOutOfStructure(delta, dist, usRadius)
			return
		}

		// Enough force to at least stop, else we pass through the structure.
		stiffness := clampf(b.env.Global.StructureStiffness, minStiffness, maxStiffness)
		minBounceSpeed := 1 / (float32(b.env.Global.LogicFramesPerSecond) * 5)
		mag := b.VelocityMagnitude()
		if mag < minBounceSpeed {
			mag = minBounceSpeed
		}
		factor = -mag * mass * stiffness

		if delta[2] < 0 && obj.Position().Z() >= b.env.Global.DefaultStructureRubbleHeight {
			if other.IsKindOf(entity.KindStructure) {
				if obj.IsKindOf(entity.KindVehicle) {
					b.fireWeapon(b.data.BuildingCrashWeapon)
				}
				b.env.Registry.Destroy(obj)
				return
			}
			if obj.IsKindOf(entity.KindVehicle) {
				b.fireWeapon(b.data.NonBuildingCrashWeapon)
			}
		}

		// Discard the old velocity; a computed counter-force would bounce
		// violently if we are still touching next frame.
		b.vel = mgl32.Vec3{}
		b.velMag = invalidVelMag
	} else {
		if overlap > maxOverlap {
			overlap = maxOverlap
		}
		factor = -overlap
	}

	force := delta.Mul(factor / dist)
	if geom.HasNaN(force) {
		b.env.Logger.Warn(b.logCtx(), "collision produced NaN force",
			"object", obj.ID(), "other", other.ID())
		return
	}
	b.ApplyForce(force)
}

// nudgeOutOfStructure pushes a parachuting object's outermost container
// straight back out, since forces do nothing while it brakes.
func (b *Behavior) nudgeOutOfStructure(delta mgl32.Vec3, dist, usRadius float32) {
	target := b.obj
	for c := target.ContainedBy(); c != nil; c = c.ContainedBy() {
		target = c
	}

	out := usRadius * 0.1
	pos := target.Position()
	pos[0] -= out * delta[0] / dist
	pos[1] -= out * delta[1] / dist
	target.SetPosition(pos)

	if p := target.Physics(); p != nil {
		p.ScrubVelocity2D(0)
	}
}

func (b *Behavior) fireWeapon(name string) {
	if b.env.Weapons == nil || name == "" {
		return
	}
	b.env.Weapons.CreateAndFireTempWeapon(name, b.obj, b.obj.Position())
}

// boardUnmannedVehicle makes this infantry the new crew of vehicle. The
// vehicle changes sides and takes the infantry's script name; the infantry
// is consumed.
func (b *Behavior) boardUnmannedVehicle(vehicle *entity.Object) {
	obj := b.obj
	vehicle.ClearDisabled(entity.DisabledUnmanned)
	vehicle.SetCaptured(true)
	vehicle.Defect(obj.Team())
	b.env.Registry.TransferName(obj.Name(), vehicle)
	b.env.Registry.Destroy(obj)

	b.env.Events.Publish(event.NewObjectEvent(event.ObjectCaptured, "physics", uint32(vehicle.ID()), uint32(obj.ID()), vehicle.Position()))
	b.env.Logger.Debug(b.logCtx(), "unmanned vehicle captured",
		"vehicle", vehicle.ID(), "pilot", obj.ID(), "team", obj.Team())
}
