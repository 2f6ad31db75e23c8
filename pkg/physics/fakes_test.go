package physics

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

type fakeClock struct{ frame uint32 }

func (c *fakeClock) Frame() uint32 { return c.frame }

type weaponShot struct {
	name   string
	source entity.ObjectID
	pos    mgl32.Vec3
}

type weaponRecorder struct{ shots []weaponShot }

func (w *weaponRecorder) CreateAndFireTempWeapon(name string, source *entity.Object, pos mgl32.Vec3) {
	w.shots = append(w.shots, weaponShot{name: name, source: source.ID(), pos: pos})
}

type fakeAI struct {
	ignore    entity.ObjectID
	wantForce bool
	calls     int
}

func (a *fakeAI) IgnoredObstacleID() entity.ObjectID { return a.ignore }

func (a *fakeAI) ProcessCollision(self entity.PhysicsModule, other *entity.Object) bool {
	a.calls++
	return a.wantForce
}

type fakeProjectile struct {
	handled bool
	calls   int
}

func (p *fakeProjectile) HandleCollision(other *entity.Object) bool {
	p.calls++
	return p.handled
}

// collideRecorder is an extra collide module that remembers what it was told.
type collideRecorder struct {
	hits   int
	ground int
	onHit  func()
}

func (c *collideRecorder) OnCollide(other *entity.Object, loc, normal mgl32.Vec3) {
	c.hits++
	if other == nil {
		c.ground++
	}
	if c.onHit != nil {
		c.onHit()
	}
}

type testWorld struct {
	reg     *entity.Registry
	bus     *event.Bus
	clock   *fakeClock
	weapons *weaponRecorder
	global  *config.GlobalConfig
	env     Env
}

func newTestWorld(groundZ float32) *testWorld {
	global := config.DefaultConfig()
	bus := event.NewEventBus()
	reg := entity.NewRegistry(terrain.Flat{Height: groundZ}, global.Gravity, bus)
	w := &testWorld{
		reg:     reg,
		bus:     bus,
		clock:   &fakeClock{},
		weapons: &weaponRecorder{},
		global:  global,
	}
	w.env = Env{
		Clock:    w.clock,
		Registry: reg,
		Weapons:  w.weapons,
		Global:   global,
	}
	return w
}

func (w *testWorld) object(t *testing.T, spec entity.ObjectSpec) *entity.Object {
	t.Helper()
	if spec.Geometry == (entity.Geometry{}) {
		spec.Geometry = entity.NewCylinder(2, 2)
	}
	obj, err := w.reg.Create(spec)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", spec.Name, err)
	}
	return obj
}

// spawn creates an object with physics. A nil data uses the defaults.
func (w *testWorld) spawn(t *testing.T, spec entity.ObjectSpec, data *ModuleData) (*entity.Object, *Behavior) {
	t.Helper()
	obj := w.object(t, spec)
	if data == nil {
		data = DefaultModuleData(w.global)
	}
	b := NewBehavior(obj, data, w.env)
	b.OnObjectCreated()
	return obj, b
}

// record collects every published event of the given types.
func (w *testWorld) record(types ...event.Type) *[]event.Event {
	var got []event.Event
	for _, typ := range types {
		w.bus.Subscribe(typ, func(e event.Event) { got = append(got, e) })
	}
	return &got
}

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func nearVec(a, b mgl32.Vec3) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}
