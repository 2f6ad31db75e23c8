// pkg/entity/object.go
package entity

import (
	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/damage"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

// ObjectSpec describes an object to create.
type ObjectSpec struct {
	Name           string
	Kind           KindOf
	Team           int
	Position       mgl32.Vec3
	Yaw            float32
	Geometry       Geometry
	Layer          terrain.Layer
	CrusherLevel   uint8
	CrushableLevel uint8
	Squishable     bool
	Body           Body
	AI             AIUpdate
	Projectile     ProjectileCollider
}

// Object is the simulation-side view of a game object. The physics core reads
// and mutates it only through these accessors.
type Object struct {
	basic    ecs.BasicEntity
	id       ObjectID
	registry *Registry

	name           string
	kind           KindOf
	team           int
	captured       bool
	transform      geom.Transform
	geometry       Geometry
	layer          terrain.Layer
	disabled       DisabledType
	status         Status
	conditions     ModelCondition
	crusherLevel   uint8
	crushableLevel uint8
	squishable     bool
	destroyed      bool

	containedBy ObjectID
	contain     Container
	body        Body
	ai          AIUpdate
	projectile  ProjectileCollider
	physics     PhysicsModule
	collide     []CollideModule
}

// ID returns the object's handle.
func (o *Object) ID() ObjectID { return o.id }

// GetBasicEntity satisfies ecs system membership.
func (o *Object) GetBasicEntity() *ecs.BasicEntity { return &o.basic }

func (o *Object) Name() string { return o.name }
func (o *Object) Team() int    { return o.team }

// Position returns the translation of the object's transform.
func (o *Object) Position() mgl32.Vec3 { return o.transform.Position() }

// SetPosition moves the object without touching its orientation.
func (o *Object) SetPosition(pos mgl32.Vec3) { o.transform.SetPosition(pos) }

// Transform returns a copy of the object's transform.
func (o *Object) Transform() geom.Transform { return o.transform }

// SetTransform replaces the object's transform.
func (o *Object) SetTransform(t geom.Transform) { o.transform = t }

// UnitDirection2D is the facing direction flattened onto the ground plane.
func (o *Object) UnitDirection2D() mgl32.Vec3 { return o.transform.UnitDirection2D() }

func (o *Object) Geometry() Geometry       { return o.geometry }
func (o *Object) Layer() terrain.Layer     { return o.layer }
func (o *Object) SetLayer(l terrain.Layer) { o.layer = l }

// IsKindOf reports whether the object carries every tag in k.
func (o *Object) IsKindOf(k KindOf) bool { return o.kind&k == k }

func (o *Object) IsDisabledByType(t DisabledType) bool { return o.disabled&t != 0 }
func (o *Object) SetDisabled(t DisabledType)           { o.disabled |= t }
func (o *Object) ClearDisabled(t DisabledType)         { o.disabled &^= t }

func (o *Object) TestStatus(s Status) bool { return o.status&s != 0 }

// SetStatus sets or clears s.
func (o *Object) SetStatus(s Status, on bool) {
	if on {
		o.status |= s
	} else {
		o.status &^= s
	}
}

func (o *Object) HasModelCondition(c ModelCondition) bool { return o.conditions&c != 0 }
func (o *Object) SetModelCondition(c ModelCondition)      { o.conditions |= c }
func (o *Object) ClearModelCondition(c ModelCondition)    { o.conditions &^= c }

func (o *Object) CrusherLevel() uint8   { return o.crusherLevel }
func (o *Object) CrushableLevel() uint8 { return o.crushableLevel }
func (o *Object) Squishable() bool      { return o.squishable }

// Defect moves the object to another team.
func (o *Object) Defect(team int) {
	o.team = team
}

func (o *Object) SetCaptured(v bool) { o.captured = v }
func (o *Object) IsCaptured() bool   { return o.captured }

// Relationship reports how o regards other. Order matters: it is o's view.
func (o *Object) Relationship(other *Object) Relationship {
	if other == nil {
		return Neutral
	}
	if o.team == other.team {
		return Allies
	}
	if o.team == NeutralTeam || other.team == NeutralTeam {
		return Neutral
	}
	return Enemies
}

// CanCrushOrSquish reports whether o may run over other.
func (o *Object) CanCrushOrSquish(other *Object, test CrushSquishTest) bool {
	if other == nil {
		return false
	}
	// An unmanned vehicle may still be rolling after its crew bailed.
	if o.IsDisabledByType(DisabledUnmanned) {
		return false
	}
	if o.Relationship(other) == Allies {
		return false
	}
	if o.crusherLevel == 0 {
		return false
	}
	if test == TestSquishOnly || test == TestCrushOrSquish {
		if other.squishable {
			return true
		}
	}
	if test == TestCrushOnly || test == TestCrushOrSquish {
		if o.crusherLevel > other.crushableLevel {
			return true
		}
	}
	return false
}

// ContainedBy resolves the object's container, or nil.
func (o *Object) ContainedBy() *Object {
	if o.containedBy == InvalidID {
		return nil
	}
	return o.registry.Find(o.containedBy)
}

func (o *Object) Contain() Container             { return o.contain }
func (o *Object) SetContain(c Container)         { o.contain = c }
func (o *Object) Body() Body                     { return o.body }
func (o *Object) AI() AIUpdate                   { return o.ai }
func (o *Object) SetAI(ai AIUpdate)              { o.ai = ai }
func (o *Object) Projectile() ProjectileCollider { return o.projectile }
func (o *Object) Physics() PhysicsModule         { return o.physics }

// SetPhysics attaches the physics behavior. It also receives collisions.
func (o *Object) SetPhysics(p PhysicsModule) {
	o.physics = p
	o.AddCollideModule(p)
}

// AddCollideModule registers m for OnCollide fan-out.
func (o *Object) AddCollideModule(m CollideModule) {
	if m != nil {
		o.collide = append(o.collide, m)
	}
}

// OnCollide notifies every collide module. A nil other means the ground.
func (o *Object) OnCollide(other *Object, loc, normal mgl32.Vec3) {
	for _, m := range o.collide {
		m.OnCollide(other, loc, normal)
	}
}

// AttemptDamage forwards to the body. Objects without a body are unaffected.
func (o *Object) AttemptDamage(info damage.Info) damage.Result {
	if o.body == nil || o.destroyed {
		return damage.Result{}
	}
	wasDead := o.body.IsDead()
	res := o.body.AttemptDamage(info)

	if o.registry != nil && !wasDead {
		ev := event.NewObjectEvent(event.ObjectDamaged, info.Type.String(), uint32(o.id), info.SourceID, o.Position())
		ev.Amount = res.ActualDealt
		o.registry.events.Publish(ev)
		if o.body.IsDead() {
			o.registry.events.Publish(event.NewObjectEvent(event.ObjectKilled, info.Type.String(), uint32(o.id), info.SourceID, o.Position()))
		}
	}
	return res
}

// Kill applies unresistable damage large enough to finish any body.
func (o *Object) Kill() {
	o.AttemptDamage(damage.Info{
		Type:      damage.Unresistable,
		DeathType: damage.DeathNormal,
		SourceID:  uint32(o.id),
		Amount:    damage.HugeAmount,
	})
}

// IsEffectivelyDead reports whether the body has no health left.
func (o *Object) IsEffectivelyDead() bool {
	return o.body != nil && o.body.IsDead()
}

// IsDestroyed reports whether the object has been queued for removal.
func (o *Object) IsDestroyed() bool { return o.destroyed }

// HeightAboveTerrain is the height over the object's own layer surface.
func (o *Object) HeightAboveTerrain() float32 {
	pos := o.Position()
	return pos.Z() - o.registry.terrain.LayerHeight(pos.X(), pos.Y(), o.layer)
}

// IsAboveTerrain reports any clearance at all over the surface.
func (o *Object) IsAboveTerrain() bool {
	return o.HeightAboveTerrain() > 0
}

// IsSignificantlyAboveTerrain reports clearance greater than three frames of
// gravity, enough to count as flying rather than bumping over terrain.
func (o *Object) IsSignificantlyAboveTerrain() bool {
	return o.HeightAboveTerrain() > -(3 * o.registry.gravity)
}
