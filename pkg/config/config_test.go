package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if config.Gravity != -1.0 {
		t.Errorf("Expected Gravity -1.0, got %v", config.Gravity)
	}
	if config.GroundStiffness != 0.5 || config.StructureStiffness != 0.5 {
		t.Errorf("Expected stiffness 0.5/0.5, got %v/%v", config.GroundStiffness, config.StructureStiffness)
	}
	if config.DefaultStructureRubbleHeight != 1.0 {
		t.Errorf("Expected rubble height 1.0, got %v", config.DefaultStructureRubbleHeight)
	}
	if config.LogicFramesPerSecond != 30 {
		t.Errorf("Expected 30 frames per second, got %d", config.LogicFramesPerSecond)
	}
	for _, name := range []string{DefaultBuildingCrashWeapon, DefaultNonBuildingCrashWeapon} {
		if _, ok := config.Weapons[name]; !ok {
			t.Errorf("Expected default weapon %q", name)
		}
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.json")

	original := DefaultConfig()
	original.Gravity = -2.5
	original.WorldSize = 1234

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Gravity != -2.5 || loaded.WorldSize != 1234 {
		t.Errorf("loaded gravity/worldSize = %v/%v", loaded.Gravity, loaded.WorldSize)
	}
	if len(loaded.Weapons) != len(original.Weapons) {
		t.Errorf("loaded %d weapons, want %d", len(loaded.Weapons), len(original.Weapons))
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"gravity": -0.5}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Gravity != -0.5 {
		t.Errorf("Gravity = %v, want -0.5", cfg.Gravity)
	}
	if cfg.LogicFramesPerSecond != 30 {
		t.Errorf("LogicFramesPerSecond = %d, want default 30", cfg.LogicFramesPerSecond)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"gravity": "down"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"malformed json", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GlobalConfig)
	}{
		{"zero fps", func(c *GlobalConfig) { c.LogicFramesPerSecond = 0 }},
		{"negative world", func(c *GlobalConfig) { c.WorldSize = -1 }},
		{"upward gravity", func(c *GlobalConfig) { c.Gravity = 0.5 }},
		{"zero radius weapon", func(c *GlobalConfig) {
			c.Weapons["Bad"] = WeaponConfig{Radius: 0, Damage: 1, DamageType: "EXPLOSION"}
		}},
		{"unknown damage type", func(c *GlobalConfig) {
			c.Weapons["Bad"] = WeaponConfig{Radius: 1, Damage: 1, DamageType: "LASER"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	t.Setenv("RTSPHYS_GRAVITY", "-2")
	t.Setenv("RTSPHYS_GROUND_STIFFNESS", "0.25")
	t.Setenv("RTSPHYS_STRUCTURE_STIFFNESS", "0.75")
	t.Setenv("RTSPHYS_RUBBLE_HEIGHT", "3")
	t.Setenv("RTSPHYS_FPS", "15")
	t.Setenv("RTSPHYS_WORLD_SIZE", "800")

	cfg := DefaultConfig()
	if err := ApplyEnvironmentOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}

	if cfg.Gravity != -2 || cfg.GroundStiffness != 0.25 || cfg.StructureStiffness != 0.75 {
		t.Errorf("float overrides not applied: %+v", cfg)
	}
	if cfg.DefaultStructureRubbleHeight != 3 || cfg.WorldSize != 800 {
		t.Errorf("rubble/world overrides not applied: %+v", cfg)
	}
	if cfg.LogicFramesPerSecond != 15 {
		t.Errorf("LogicFramesPerSecond = %d, want 15", cfg.LogicFramesPerSecond)
	}
}

func TestApplyEnvironmentOverrides_Malformed(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RTSPHYS_GRAVITY", "heavy"},
		{"RTSPHYS_FPS", "30.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := ApplyEnvironmentOverrides(DefaultConfig())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestApplyEnvironmentOverrides_UnsetLeavesDefaults(t *testing.T) {
	for _, key := range []string{"RTSPHYS_GRAVITY", "RTSPHYS_FPS", "RTSPHYS_WORLD_SIZE"} {
		t.Setenv(key, "")
	}
	cfg := DefaultConfig()
	if err := ApplyEnvironmentOverrides(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Gravity != -1 || cfg.LogicFramesPerSecond != 30 {
		t.Errorf("defaults changed: %+v", cfg)
	}
}
