// pkg/engine/weapons.go
package engine

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
	"github.com/opd-ai/go-rtsphysics/pkg/damage"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
)

// TempWeaponStore fires one-shot area weapons, such as the blast of a vehicle
// crashing into a building.
type TempWeaponStore struct {
	weapons  map[string]config.WeaponConfig
	registry *entity.Registry
	events   *event.Bus
	logger   *logging.Logger
}

// NewTempWeaponStore creates a store over the configured weapons.
func NewTempWeaponStore(weapons map[string]config.WeaponConfig, registry *entity.Registry, bus *event.Bus, logger *logging.Logger) *TempWeaponStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TempWeaponStore{
		weapons:  weapons,
		registry: registry,
		events:   bus,
		logger:   logger,
	}
}

// CreateAndFireTempWeapon damages every object within the weapon's radius of
// pos, the source included. Unknown weapon names are ignored.
func (s *TempWeaponStore) CreateAndFireTempWeapon(name string, source *entity.Object, pos mgl32.Vec3) {
	w, ok := s.weapons[name]
	if !ok {
		s.logger.Debug(context.Background(), "no such temporary weapon", "weapon", name)
		return
	}
	dt, _ := damage.ParseType(w.DamageType)

	var sourceID uint32
	if source != nil {
		sourceID = uint32(source.ID())
	}

	var victims []uint32
	radiusSqr := w.Radius * w.Radius
	s.registry.Each(func(obj *entity.Object) {
		if obj.IsDestroyed() || geom.DistSqr(obj.Position(), pos) > radiusSqr {
			return
		}
		obj.AttemptDamage(damage.Info{
			Type:      dt,
			DeathType: damage.DeathNormal,
			SourceID:  sourceID,
			Amount:    w.Damage,
		})
		victims = append(victims, uint32(obj.ID()))
	})

	s.events.Publish(event.NewWeaponEvent("weapons", name, sourceID, pos, victims))
	s.logger.Debug(context.Background(), "temporary weapon fired",
		"weapon", name, "source", sourceID, "victims", len(victims))
}
