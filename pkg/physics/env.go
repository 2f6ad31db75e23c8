// pkg/physics/env.go
package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

// Clock reports the current logic frame.
type Clock interface {
	Frame() uint32
}

// WeaponFirer detonates a named temporary weapon. Unknown names are ignored.
type WeaponFirer interface {
	CreateAndFireTempWeapon(name string, source *entity.Object, pos mgl32.Vec3)
}

// Env carries the collaborators a behavior needs. Terrain defaults to the
// registry's oracle and must agree with it.
type Env struct {
	Clock    Clock
	Terrain  terrain.Oracle
	Registry *entity.Registry
	Weapons  WeaponFirer
	Events   *event.Bus
	Logger   *logging.Logger
	Global   *config.GlobalConfig
}

func (e Env) withDefaults() Env {
	if e.Global == nil {
		e.Global = config.DefaultConfig()
	}
	if e.Logger == nil {
		e.Logger = logging.Discard()
	}
	if e.Terrain == nil && e.Registry != nil {
		e.Terrain = e.Registry.Terrain()
	}
	if e.Events == nil && e.Registry != nil {
		e.Events = e.Registry.Events()
	}
	return e
}
