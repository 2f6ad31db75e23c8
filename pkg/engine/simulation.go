// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
	"github.com/opd-ai/go-rtsphysics/pkg/physics"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
	"github.com/opd-ai/go-rtsphysics/pkg/validation"
	"github.com/opd-ai/go-rtsphysics/pkg/xfer"
)

// ErrUnknownObject is returned when a saved object is missing from the scene
// being loaded into.
var ErrUnknownObject = errors.New("unknown object")

const saveVersion uint8 = 1

// SpawnSpec describes an object to add to the simulation.
type SpawnSpec struct {
	Object entity.ObjectSpec
	// Template tunes the physics behavior. Nil uses the built-in defaults.
	Template *config.PhysicsTemplate
	// Static objects take part in collisions but have no physics of their own.
	Static      bool
	Velocity    mgl32.Vec3
	BounceSound string
}

// Simulation owns one world of physics objects and advances it a logic frame
// at a time. Event handlers run inside Step and must not call back into the
// simulation.
type Simulation struct {
	Config   *config.GlobalConfig
	Registry *entity.Registry
	Terrain  terrain.Oracle
	EventBus *event.Bus
	World    *ecs.World
	System   *PhysicsSystem
	Weapons  *TempWeaponStore

	logger *logging.Logger
	frame  uint32
	mu     sync.Mutex
}

// NewSimulation creates an empty world. A nil logger discards output.
func NewSimulation(cfg *config.GlobalConfig, oracle terrain.Oracle, logger *logging.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	bus := event.NewEventBus()
	registry := entity.NewRegistry(oracle, cfg.Gravity, bus)
	sim := &Simulation{
		Config:   cfg,
		Registry: registry,
		Terrain:  oracle,
		EventBus: bus,
		World:    &ecs.World{},
		logger:   logger,
	}
	sim.Weapons = NewTempWeaponStore(cfg.Weapons, registry, bus, logger)
	sim.System = NewPhysicsSystem(registry, cfg.WorldSize, sim, logger)
	sim.World.AddSystem(sim.System)

	registry.OnRemove(func(obj *entity.Object) {
		sim.World.RemoveEntity(*obj.GetBasicEntity())
	})
	return sim, nil
}

// Frame returns the number of completed logic frames.
func (s *Simulation) Frame() uint32 { return s.frame }

func (s *Simulation) env() physics.Env {
	return physics.Env{
		Clock:    s,
		Terrain:  s.Terrain,
		Registry: s.Registry,
		Weapons:  s.Weapons,
		Events:   s.EventBus,
		Logger:   s.logger,
		Global:   s.Config,
	}
}

// Spawn creates an object and, unless it is static, its physics behavior.
func (s *Simulation) Spawn(spec SpawnSpec) (*entity.Object, *physics.Behavior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validation.ValidateObjectSpec(&spec.Object); err != nil {
		return nil, nil, err
	}

	tmpl := spec.Template
	if tmpl == nil {
		tmpl = config.DefaultPhysicsTemplate()
	}
	var data *physics.ModuleData
	if !spec.Static {
		var err error
		if data, err = physics.NewModuleData(tmpl, s.Config); err != nil {
			return nil, nil, fmt.Errorf("spawn %q: %w", spec.Object.Name, err)
		}
	}

	obj, err := s.Registry.Create(spec.Object)
	if err != nil {
		return nil, nil, fmt.Errorf("spawn %q: %w", spec.Object.Name, err)
	}

	if spec.Static {
		s.System.Add(obj, nil)
		return obj, nil, nil
	}

	b := physics.NewBehavior(obj, data, s.env())
	b.OnObjectCreated()
	b.AddVelocity(spec.Velocity)
	b.SetBounceSound(spec.BounceSound)
	s.System.Add(obj, b)

	s.logger.Debug(s.ctx(), "spawned object",
		"id", obj.ID(), "name", obj.Name(), "template", tmpl.Name)
	return obj, b, nil
}

// Physics returns the behavior of the object with the given id, or nil.
func (s *Simulation) Physics(id entity.ObjectID) *physics.Behavior {
	obj := s.Registry.Find(id)
	if obj == nil {
		return nil
	}
	b, _ := obj.Physics().(*physics.Behavior)
	return b
}

// VisitBodies calls fn for every object with physics, in id order, while
// holding the simulation lock. fn must not call back into the simulation.
func (s *Simulation) VisitBodies(fn func(*physics.Behavior)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.System.physicsIDs() {
		if b := s.Physics(id); b != nil {
			fn(b)
		}
	}
}

// Step advances the world by one logic frame.
func (s *Simulation) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.World.Update(s.Config.SecondsPerFrame())
	s.frame++
}

// Run advances the world by frames logic frames, stopping early if ctx is
// cancelled.
func (s *Simulation) Run(ctx context.Context, frames int) error {
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
	s.logger.Info(s.ctx(), "simulation finished",
		"frames", frames, "objects", s.Registry.Len())
	return nil
}

func (s *Simulation) ctx() context.Context {
	return logging.WithFrame(context.Background(), s.frame)
}

// Save writes the frame counter, every physics object's transform and its
// physics state.
func (s *Simulation) Save(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfer(xfer.NewSaveXfer(w))
}

// Load restores a Save stream onto a scene that already holds the same
// objects, then rebuilds what is not persisted.
func (s *Simulation) Load(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfer(xfer.NewLoadXfer(r))
}

// CRC checksums the physics state of the world, for desync checks.
func (s *Simulation) CRC() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := xfer.NewCRCXfer()
	if err := s.transfer(c); err != nil {
		return 0, err
	}
	return c.Sum(), nil
}

func (s *Simulation) transfer(x xfer.Xfer) error {
	version := saveVersion
	if err := x.Version(&version, saveVersion); err != nil {
		return logging.WrapError(err, "simulation version")
	}
	if err := x.UnsignedInt(&s.frame); err != nil {
		return logging.WrapError(err, "frame")
	}

	ids := s.System.physicsIDs()
	count := uint32(len(ids))
	if err := x.UnsignedInt(&count); err != nil {
		return logging.WrapError(err, "object count")
	}

	for i := uint32(0); i < count; i++ {
		var raw uint32
		if x.Mode() != xfer.ModeLoad {
			raw = uint32(ids[i])
		}
		if err := x.ObjectID(&raw); err != nil {
			return logging.WrapError(err, "object %d id", i)
		}

		b := s.Physics(entity.ObjectID(raw))
		if b == nil {
			return fmt.Errorf("object %d: %w", raw, ErrUnknownObject)
		}
		if err := transferTransform(x, b.Object()); err != nil {
			return logging.WrapError(err, "object %d transform", raw)
		}
		if err := b.Xfer(x); err != nil {
			return logging.WrapError(err, "object %d physics", raw)
		}
		if x.Mode() == xfer.ModeLoad {
			b.LoadPostProcess()
		}
	}
	return nil
}

func transferTransform(x xfer.Xfer, obj *entity.Object) error {
	m := obj.Transform().Matrix()
	for i := range m {
		if err := x.Real(&m[i]); err != nil {
			return err
		}
	}
	if x.Mode() == xfer.ModeLoad {
		obj.SetTransform(geom.FromMatrix(m))
	}
	return nil
}
