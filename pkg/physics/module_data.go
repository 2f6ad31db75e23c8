// pkg/physics/module_data.go
package physics

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
)

// Built-in tuning. Frictions are fractions per frame.
const (
	DefaultMass                = 1.0
	DefaultForwardFriction     = 0.15
	DefaultLateralFriction     = 0.15
	DefaultZFriction           = 0.8
	DefaultAerodynamicFriction = 0.0
	DefaultMinFallHeight       = 40.0
	DefaultFallDamageFactor    = 1.0
	DefaultPitchRollYawFactor  = 2.0
)

// ModuleData is the immutable per-type tuning shared by every behavior
// created from the same template.
type ModuleData struct {
	Mass                float32
	ForwardFriction     float32
	LateralFriction     float32
	ZFriction           float32
	AerodynamicFriction float32
	CenterOfMassOffset  float32

	AllowBouncing           bool
	AllowCollideForce       bool
	KillWhenRestingOnGround bool

	// MinFallSpeedForDamage is always positive.
	MinFallSpeedForDamage  float32
	FallHeightDamageFactor float32
	PitchRollYawFactor     float32

	BuildingCrashWeapon    string
	NonBuildingCrashWeapon string
}

// HeightToSpeed is the speed reached by falling height units: v = sqrt(2gh).
func HeightToSpeed(gravity, height float32) float32 {
	return math32.Sqrt(math32.Abs(2 * gravity * height))
}

// DefaultModuleData returns the built-in tuning for the given world.
func DefaultModuleData(global *config.GlobalConfig) *ModuleData {
	return &ModuleData{
		Mass:                   DefaultMass,
		ForwardFriction:        DefaultForwardFriction,
		LateralFriction:        DefaultLateralFriction,
		ZFriction:              DefaultZFriction,
		AerodynamicFriction:    DefaultAerodynamicFriction,
		AllowCollideForce:      true,
		MinFallSpeedForDamage:  HeightToSpeed(global.Gravity, DefaultMinFallHeight),
		FallHeightDamageFactor: DefaultFallDamageFactor,
		PitchRollYawFactor:     DefaultPitchRollYawFactor,
		BuildingCrashWeapon:    config.DefaultBuildingCrashWeapon,
		NonBuildingCrashWeapon: config.DefaultNonBuildingCrashWeapon,
	}
}

// NewModuleData converts a designer template into runtime tuning. Frictions
// given per second become per frame and the fall height becomes a speed.
func NewModuleData(t *config.PhysicsTemplate, global *config.GlobalConfig) (*ModuleData, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if global.LogicFramesPerSecond <= 0 {
		return nil, fmt.Errorf("%w: logicFramesPerSecond must be positive", config.ErrInvalidConfig)
	}

	d := DefaultModuleData(global)
	perFrame := global.SecondsPerFrame()
	convert := func(perSecond *float32, dst *float32) {
		if perSecond != nil {
			*dst = *perSecond * perFrame
		}
	}
	convert(t.ForwardFriction, &d.ForwardFriction)
	convert(t.LateralFriction, &d.LateralFriction)
	convert(t.ZFriction, &d.ZFriction)
	convert(t.AerodynamicFriction, &d.AerodynamicFriction)

	if t.MinFallHeightForDamage != nil {
		d.MinFallSpeedForDamage = HeightToSpeed(global.Gravity, *t.MinFallHeightForDamage)
	}

	d.Mass = t.Mass
	d.CenterOfMassOffset = t.CenterOfMassOffset
	d.AllowBouncing = t.AllowBouncing
	d.AllowCollideForce = t.AllowCollideForce
	d.KillWhenRestingOnGround = t.KillWhenRestingOnGround
	d.FallHeightDamageFactor = t.FallHeightDamageFactor
	d.PitchRollYawFactor = t.PitchRollYawFactor
	d.BuildingCrashWeapon = t.VehicleCrashesIntoBuildingWeapon
	d.NonBuildingCrashWeapon = t.VehicleCrashesIntoNonBuildingWeapon
	return d, nil
}
