// pkg/entity/registry.go
package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

// ErrDuplicateID is returned when an id is already registered.
var ErrDuplicateID = errors.New("duplicate object id")

// Registry owns every live object and resolves ObjectID handles. Destroyed
// objects stay resolvable until ProcessDestroyList runs at the end of a frame.
type Registry struct {
	objects     map[ObjectID]*Object
	names       map[string]ObjectID
	destroyList []ObjectID
	terrain     terrain.Oracle
	gravity     float32
	events      *event.Bus
	onRemove    []func(*Object)
}

// NewRegistry creates an empty registry. A nil bus disables notifications.
func NewRegistry(oracle terrain.Oracle, gravity float32, bus *event.Bus) *Registry {
	return &Registry{
		objects: make(map[ObjectID]*Object),
		names:   make(map[string]ObjectID),
		terrain: oracle,
		gravity: gravity,
		events:  bus,
	}
}

// Create builds an object from spec and registers it.
func (r *Registry) Create(spec ObjectSpec) (*Object, error) {
	basic := ecs.NewBasic()
	id := ObjectID(basic.ID())
	if _, exists := r.objects[id]; exists || id == InvalidID {
		return nil, fmt.Errorf("create %q as %d: %w", spec.Name, id, ErrDuplicateID)
	}

	layer := spec.Layer
	if layer == LayerUnset {
		layer = terrain.LayerGround
	}

	obj := &Object{
		basic:          basic,
		id:             id,
		registry:       r,
		name:           spec.Name,
		kind:           spec.Kind,
		team:           spec.Team,
		transform:      geom.FromAngles(spec.Position, spec.Yaw, 0, 0),
		geometry:       spec.Geometry,
		layer:          layer,
		crusherLevel:   spec.CrusherLevel,
		crushableLevel: spec.CrushableLevel,
		squishable:     spec.Squishable,
		body:           spec.Body,
		ai:             spec.AI,
		projectile:     spec.Projectile,
	}
	r.objects[id] = obj
	if spec.Name != "" {
		r.names[spec.Name] = id
	}
	return obj, nil
}

// LayerUnset lets ObjectSpec default to the ground layer.
const LayerUnset = terrain.LayerInvalid

// Find resolves id, returning nil if the object no longer exists.
func (r *Registry) Find(id ObjectID) *Object {
	if r == nil || id == InvalidID {
		return nil
	}
	return r.objects[id]
}

// FindByName resolves a script name.
func (r *Registry) FindByName(name string) *Object {
	id, ok := r.names[name]
	if !ok {
		return nil
	}
	return r.Find(id)
}

// Destroy marks obj destroyed and queues it for removal. It is idempotent.
// A nil registry only marks the object.
func (r *Registry) Destroy(obj *Object) {
	if obj == nil || obj.destroyed {
		return
	}
	obj.destroyed = true
	if r == nil {
		return
	}
	r.destroyList = append(r.destroyList, obj.id)
	r.events.Publish(event.NewObjectEvent(event.ObjectDestroyed, "registry", uint32(obj.id), 0, obj.Position()))
}

// OnRemove registers fn to run as each destroyed object leaves the registry.
func (r *Registry) OnRemove(fn func(*Object)) {
	r.onRemove = append(r.onRemove, fn)
}

// ProcessDestroyList removes every object destroyed since the last call.
func (r *Registry) ProcessDestroyList() int {
	n := len(r.destroyList)
	for _, id := range r.destroyList {
		obj := r.objects[id]
		if obj == nil {
			continue
		}
		for _, fn := range r.onRemove {
			fn(obj)
		}
		if r.names[obj.name] == id {
			delete(r.names, obj.name)
		}
		delete(r.objects, id)
	}
	r.destroyList = r.destroyList[:0]
	return n
}

// TransferName hands name to obj. Whoever held it before loses it.
func (r *Registry) TransferName(name string, obj *Object) {
	if r == nil || obj == nil || name == "" {
		return
	}
	if prev := r.FindByName(name); prev != nil {
		prev.name = ""
	}
	if obj.name != "" && r.names[obj.name] == obj.id {
		delete(r.names, obj.name)
	}
	obj.name = name
	r.names[name] = obj.id
}

// Each calls fn for every object in ascending id order.
func (r *Registry) Each(fn func(*Object)) {
	ids := make([]ObjectID, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if obj := r.objects[id]; obj != nil {
			fn(obj)
		}
	}
}

// Len returns the number of registered objects.
func (r *Registry) Len() int { return len(r.objects) }

func (r *Registry) Terrain() terrain.Oracle { return r.terrain }
func (r *Registry) Gravity() float32        { return r.gravity }
func (r *Registry) Events() *event.Bus      { return r.events }
