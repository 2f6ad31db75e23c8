// pkg/entity/modules.go
package entity

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/damage"
)

// An Object exposes optional capabilities. Each accessor on Object returns nil
// when the capability is absent and callers branch around it.

// CollideModule receives contact notifications. A nil other means the ground.
type CollideModule interface {
	OnCollide(other *Object, loc, normal mgl32.Vec3)
}

// PhysicsModule is the part of the physics behavior other objects may query.
type PhysicsModule interface {
	CollideModule
	IsIgnoringCollisionsWith(id ObjectID) bool
	ScrubVelocity2D(desired float32)
	Mass() float32
}

// AIUpdate is an attached controller that moves under its own initiative.
type AIUpdate interface {
	IgnoredObstacleID() ObjectID
	// ProcessCollision reports whether a physics force should still be applied.
	ProcessCollision(self PhysicsModule, other *Object) bool
}

// ProjectileCollider lets projectile logic claim a collision before physics.
type ProjectileCollider interface {
	HandleCollision(other *Object) bool
}

// Container holds other objects as cargo.
type Container interface {
	ContainedItemsMass() float32
	Contains(id ObjectID) bool
}

// Body owns health and the crushed-end marks used by the crush classifier.
type Body interface {
	AttemptDamage(info damage.Info) damage.Result
	Health() float32
	IsDead() bool
	FrontCrushed() bool
	BackCrushed() bool
	SetFrontCrushed(bool)
	SetBackCrushed(bool)
}

// BasicBody is a plain health pool. Armor scales incoming damage per type;
// types not listed take full damage. Unresistable damage ignores armor.
type BasicBody struct {
	MaxHealth    float32
	Armor        map[damage.Type]float32
	health       float32
	frontCrushed bool
	backCrushed  bool
	lastDamage   damage.Info
}

// NewBasicBody returns a body at full health.
func NewBasicBody(maxHealth float32) *BasicBody {
	return &BasicBody{MaxHealth: maxHealth, health: maxHealth}
}

// AttemptDamage subtracts the scaled amount from health.
func (b *BasicBody) AttemptDamage(info damage.Info) damage.Result {
	b.lastDamage = info
	if b.IsDead() {
		return damage.Result{}
	}

	amount := info.Amount
	if scale, ok := b.Armor[info.Type]; ok && info.Type != damage.Unresistable {
		amount *= scale
	}
	if amount <= 0 {
		return damage.Result{}
	}

	clipped := amount
	if clipped > b.health {
		clipped = b.health
	}
	b.health -= clipped
	return damage.Result{ActualDealt: amount, Clipped: clipped}
}

// Health returns the remaining health.
func (b *BasicBody) Health() float32 { return b.health }

// IsDead reports whether health is exhausted.
func (b *BasicBody) IsDead() bool { return b.health <= 0 }

// LastDamage returns the most recent damage request, including zero-amount ones.
func (b *BasicBody) LastDamage() damage.Info { return b.lastDamage }

func (b *BasicBody) FrontCrushed() bool     { return b.frontCrushed }
func (b *BasicBody) BackCrushed() bool      { return b.backCrushed }
func (b *BasicBody) SetFrontCrushed(v bool) { b.frontCrushed = v }
func (b *BasicBody) SetBackCrushed(v bool)  { b.backCrushed = v }

// BasicContain carries other objects. Contained objects report the owner as
// their container and contribute their physics mass to it.
type BasicContain struct {
	owner *Object
	items []ObjectID
}

// NewBasicContain attaches an empty container to owner.
func NewBasicContain(owner *Object) *BasicContain {
	c := &BasicContain{owner: owner}
	owner.contain = c
	return c
}

// Add puts obj inside the container.
func (c *BasicContain) Add(obj *Object) {
	if obj == nil || c.Contains(obj.ID()) {
		return
	}
	c.items = append(c.items, obj.ID())
	obj.containedBy = c.owner.ID()
}

// Remove takes obj out of the container.
func (c *BasicContain) Remove(obj *Object) {
	if obj == nil {
		return
	}
	for i, id := range c.items {
		if id == obj.ID() {
			c.items = append(c.items[:i], c.items[i+1:]...)
			obj.containedBy = InvalidID
			return
		}
	}
}

// Contains reports whether id is cargo of this container.
func (c *BasicContain) Contains(id ObjectID) bool {
	for _, item := range c.items {
		if item == id {
			return true
		}
	}
	return false
}

// ContainedItemsMass sums the physics mass of every live item.
func (c *BasicContain) ContainedItemsMass() float32 {
	var mass float32
	for _, id := range c.items {
		item := c.owner.registry.Find(id)
		if item == nil {
			continue
		}
		if p := item.Physics(); p != nil {
			mass += p.Mass()
		}
	}
	return mass
}
