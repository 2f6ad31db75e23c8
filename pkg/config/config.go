// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/opd-ai/go-rtsphysics/pkg/damage"
)

// ErrInvalidConfig is wrapped by every validation and override failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// GlobalConfig holds the world-wide physics constants.
type GlobalConfig struct {
	// Gravity is added to vertical acceleration every frame (units/frame²).
	Gravity                      float32                 `json:"gravity"`
	GroundStiffness              float32                 `json:"groundStiffness"`
	StructureStiffness           float32                 `json:"structureStiffness"`
	DefaultStructureRubbleHeight float32                 `json:"defaultStructureRubbleHeight"`
	LogicFramesPerSecond         int                     `json:"logicFramesPerSecond"`
	WorldSize                    float32                 `json:"worldSize"`
	Weapons                      map[string]WeaponConfig `json:"weapons"`
}

// WeaponConfig describes a temporary area weapon fired by the simulation
// itself, such as a vehicle crashing into a building.
type WeaponConfig struct {
	Radius     float32 `json:"radius"`
	Damage     float32 `json:"damage"`
	DamageType string  `json:"damageType"`
}

// SecondsPerFrame is the duration of one logic frame.
func (c *GlobalConfig) SecondsPerFrame() float32 {
	return 1 / float32(c.LogicFramesPerSecond)
}

// LoadConfig loads a configuration from a file. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *GlobalConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the stock world constants.
func DefaultConfig() *GlobalConfig {
	return &GlobalConfig{
		Gravity:                      -1.0,
		GroundStiffness:              0.5,
		StructureStiffness:           0.5,
		DefaultStructureRubbleHeight: 1.0,
		LogicFramesPerSecond:         30,
		WorldSize:                    4000,
		Weapons: map[string]WeaponConfig{
			"VehicleCrashesIntoBuildingWeapon": {
				Radius:     15,
				Damage:     100,
				DamageType: "EXPLOSION",
			},
			"VehicleCrashesIntoNonBuildingWeapon": {
				Radius:     5,
				Damage:     25,
				DamageType: "EXPLOSION",
			},
		},
	}
}

// Validate checks the configuration for values the simulation cannot run with.
func (c *GlobalConfig) Validate() error {
	if c.LogicFramesPerSecond <= 0 {
		return fmt.Errorf("%w: logicFramesPerSecond must be positive, got %d", ErrInvalidConfig, c.LogicFramesPerSecond)
	}
	if c.WorldSize <= 0 {
		return fmt.Errorf("%w: worldSize must be positive, got %v", ErrInvalidConfig, c.WorldSize)
	}
	if c.Gravity > 0 {
		return fmt.Errorf("%w: gravity must point down, got %v", ErrInvalidConfig, c.Gravity)
	}

	names := make([]string, 0, len(c.Weapons))
	for name := range c.Weapons {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w := c.Weapons[name]
		if w.Radius <= 0 {
			return fmt.Errorf("%w: weapon %q radius must be positive", ErrInvalidConfig, name)
		}
		if _, ok := damage.ParseType(w.DamageType); !ok {
			return fmt.Errorf("%w: weapon %q has unknown damage type %q", ErrInvalidConfig, name, w.DamageType)
		}
	}
	return nil
}
