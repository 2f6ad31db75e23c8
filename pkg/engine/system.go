// pkg/engine/system.go
package engine

import (
	"context"
	"sort"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
	"github.com/opd-ai/go-rtsphysics/pkg/physics"
)

// quadCapacity is the number of objects per quad before it subdivides.
const quadCapacity = 10

type physicsEntity struct {
	basic    *ecs.BasicEntity
	obj      *entity.Object
	behavior *physics.Behavior
}

// PhysicsSystem steps every awake behavior, then finds touching pairs and
// tells both sides. Static objects have a nil behavior and only collide.
type PhysicsSystem struct {
	entities  []*physicsEntity
	registry  *entity.Registry
	worldSize float32
	clock     physics.Clock
	logger    *logging.Logger

	// Pairs dispatched during the last Update, for diagnostics.
	lastPairs int
}

// NewPhysicsSystem creates a system over a square world centered on the origin.
func NewPhysicsSystem(registry *entity.Registry, worldSize float32, clock physics.Clock, logger *logging.Logger) *PhysicsSystem {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PhysicsSystem{
		registry:  registry,
		worldSize: worldSize,
		clock:     clock,
		logger:    logger,
	}
}

// Add registers obj with the system. b may be nil for static objects.
func (s *PhysicsSystem) Add(obj *entity.Object, b *physics.Behavior) {
	e := &physicsEntity{basic: obj.GetBasicEntity(), obj: obj, behavior: b}
	i := sort.Search(len(s.entities), func(i int) bool {
		return s.entities[i].obj.ID() >= obj.ID()
	})
	s.entities = append(s.entities, nil)
	copy(s.entities[i+1:], s.entities[i:])
	s.entities[i] = e
}

// Remove satisfies the ecs.System interface
func (s *PhysicsSystem) Remove(basic ecs.BasicEntity) {
	for i, e := range s.entities {
		if e.basic.ID() == basic.ID() {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered objects.
func (s *PhysicsSystem) Len() int { return len(s.entities) }

// LastPairs returns how many touching pairs the last Update dispatched.
func (s *PhysicsSystem) LastPairs() int { return s.lastPairs }

// Update satisfies the ecs.System interface. dt is ignored: the physics core
// always advances exactly one logic frame.
func (s *PhysicsSystem) Update(dt float32) {
	s.integrate()
	s.lastPairs = s.collide()
	if n := s.registry.ProcessDestroyList(); n > 0 {
		s.logger.Debug(s.ctx(), "removed destroyed objects", "count", n)
	}
}

func (s *PhysicsSystem) integrate() {
	for _, e := range s.entities {
		if e.behavior == nil || e.obj.IsDestroyed() || e.behavior.IsAsleep() {
			continue
		}
		e.behavior.Update()
	}
}

// collide runs the broadphase and returns the number of touching pairs.
func (s *PhysicsSystem) collide() int {
	tree := geom.NewQuadTree[*physicsEntity](geom.Rect{
		Center: mgl32.Vec2{0, 0},
		Width:  s.worldSize,
		Height: s.worldSize,
	}, quadCapacity)

	var maxRadius float32
	for _, e := range s.entities {
		if e.obj.IsDestroyed() {
			continue
		}
		if !tree.Insert(geom.Vec2D(e.obj.Position()), e) {
			s.logger.Debug(s.ctx(), "object outside the world, skipping collisions",
				"object", e.obj.ID(), "position", e.obj.Position())
			continue
		}
		if r := collisionRadius(e.obj); r > maxRadius {
			maxRadius = r
		}
	}

	pairs := 0
	for _, a := range s.entities {
		if a.obj.IsDestroyed() {
			continue
		}
		reach := 2 * (collisionRadius(a.obj) + maxRadius)
		area := geom.Rect{Center: geom.Vec2D(a.obj.Position()), Width: reach, Height: reach}

		candidates := tree.Query(area)
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].obj.ID() < candidates[j].obj.ID()
		})
		for _, b := range candidates {
			// Each pair once, and only if something in it can move.
			if b.obj.ID() <= a.obj.ID() || (a.behavior == nil && b.behavior == nil) {
				continue
			}
			if s.dispatch(a.obj, b.obj) {
				pairs++
			}
			if a.obj.IsDestroyed() {
				break
			}
		}
	}
	return pairs
}

// dispatch tests one pair and notifies both objects if they touch.
func (s *PhysicsSystem) dispatch(a, b *entity.Object) bool {
	if b.IsDestroyed() {
		return false
	}
	threeD := a.IsAboveTerrain() || b.IsAboveTerrain()
	hit := geom.CheckCollision(collisionShape(a, threeD), collisionShape(b, threeD), threeD)
	if !hit.Collided {
		return false
	}

	loc := a.Position().Add(hit.Normal.Mul(radiusFor(a, threeD)))
	a.OnCollide(b, loc, hit.Normal)
	if !b.IsDestroyed() && !a.IsDestroyed() {
		b.OnCollide(a, loc, hit.Normal.Mul(-1))
	}
	return true
}

func (s *PhysicsSystem) ctx() context.Context {
	var frame uint32
	if s.clock != nil {
		frame = s.clock.Frame()
	}
	return logging.WithFrame(context.Background(), frame)
}

// physicsIDs returns the ids of every object with physics, ascending.
func (s *PhysicsSystem) physicsIDs() []entity.ObjectID {
	ids := make([]entity.ObjectID, 0, len(s.entities))
	for _, e := range s.entities {
		if e.behavior != nil {
			ids = append(ids, e.obj.ID())
		}
	}
	return ids
}

func collisionRadius(obj *entity.Object) float32 {
	g := obj.Geometry()
	if g.BoundingSphereRadius > g.BoundingCircleRadius {
		return g.BoundingSphereRadius
	}
	return g.BoundingCircleRadius
}

func radiusFor(obj *entity.Object, threeD bool) float32 {
	if threeD {
		return obj.Geometry().BoundingSphereRadius
	}
	return obj.Geometry().BoundingCircleRadius
}

func collisionShape(obj *entity.Object, threeD bool) geom.Circle {
	return geom.Circle{
		Center: obj.Geometry().CenterPosition(obj.Position()),
		Radius: radiusFor(obj, threeD),
	}
}
