// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// ApplyEnvironmentOverrides replaces configuration values with any set in the
// RTSPHYS_* environment variables. A malformed value is an error.
func ApplyEnvironmentOverrides(cfg *GlobalConfig) error {
	floats := []struct {
		key    string
		target *float32
	}{
		{"RTSPHYS_GRAVITY", &cfg.Gravity},
		{"RTSPHYS_GROUND_STIFFNESS", &cfg.GroundStiffness},
		{"RTSPHYS_STRUCTURE_STIFFNESS", &cfg.StructureStiffness},
		{"RTSPHYS_RUBBLE_HEIGHT", &cfg.DefaultStructureRubbleHeight},
		{"RTSPHYS_WORLD_SIZE", &cfg.WorldSize},
	}

	for _, f := range floats {
		v, ok := os.LookupEnv(f.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, f.key, v, err)
		}
		*f.target = float32(parsed)
	}

	if v := os.Getenv("RTSPHYS_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RTSPHYS_FPS=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.LogicFramesPerSecond = fps
	}

	return nil
}
