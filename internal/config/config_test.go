package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Vehicle != DefaultVehicle {
		t.Errorf("expected vehicle %s, got %s", DefaultVehicle, cfg.Vehicle)
	}
	if cfg.Dt != 0.01 || cfg.MaxTime != 120 {
		t.Errorf("expected dt 0.01 and max time 120, got %f and %f", cfg.Dt, cfg.MaxTime)
	}
	if !cfg.Afterburner || !cfg.TakeoffWeight {
		t.Error("afterburner and takeoff weight should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dragsim.yaml")

	cfg := DefaultConfig()
	cfg.Vehicle = "f16_viper"
	cfg.Opponent = "f15_eagle"
	cfg.Environment = *GetPreset("hot_day")
	cfg.ThrustMultiplier = 1.2

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Vehicle != "f16_viper" || loaded.Opponent != "f15_eagle" {
		t.Errorf("vehicles not preserved: %s vs %s", loaded.Vehicle, loaded.Opponent)
	}
	if loaded.Environment.Temperature != 40 {
		t.Errorf("expected temperature 40, got %f", loaded.Environment.Temperature)
	}
	if loaded.ThrustMultiplier != 1.2 {
		t.Errorf("expected thrust multiplier 1.2, got %f", loaded.ThrustMultiplier)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("vehicle: bugatti_chiron\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Vehicle != "bugatti_chiron" {
		t.Errorf("expected bugatti_chiron, got %s", loaded.Vehicle)
	}
	if loaded.Dt != sim.DefaultDt || loaded.Environment.Surface != DefaultSurface {
		t.Errorf("expected defaults to survive, got dt %f surface %q", loaded.Dt, loaded.Environment.Surface)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad surface", func(c *Config) { c.Environment.Surface = "gravel" }, physics.ErrUnknownSurface},
		{"zero dt", func(c *Config) { c.Dt = 0 }, sim.ErrInvalidConfig},
		{"negative max time", func(c *Config) { c.MaxTime = -1 }, sim.ErrInvalidConfig},
		{"zero power", func(c *Config) { c.PowerMultiplier = 0 }, sim.ErrParameterBounds},
		{"zero thrust", func(c *Config) { c.ThrustMultiplier = 0 }, sim.ErrParameterBounds},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestEnvironment(t *testing.T) {
	env, err := GetPreset("rain").Environment()
	if err != nil {
		t.Fatalf("environment: %v", err)
	}
	if env.Surface != physics.Wet {
		t.Errorf("expected wet, got %s", env.Surface)
	}
	if env.AirDensity != physics.Density(12, 0) {
		t.Errorf("expected derived density, got %f", env.AirDensity)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("dashboard")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.Temperature != 24 || p.Altitude != 120 {
		t.Errorf("expected 24°C at 120 m, got %f at %f", p.Temperature, p.Altitude)
	}

	p.Temperature = 99
	if Presets["dashboard"].Temperature != 24 {
		t.Error("GetPreset should return a copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		if _, err := GetPreset(name).Environment(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	if names := ListPresets(); names[0] != "arctic" {
		t.Errorf("expected sorted presets, got %v", names)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		name     string
		steps    []float64
		expected int
		last     float64
	}{
		{"temperature", TemperatureSteps(), 21, 60},
		{"altitude", AltitudeSteps(), 11, 5000},
		{"multiplier", MultiplierSteps(), 8, 1.5},
	}

	for _, tt := range tests {
		if len(tt.steps) != tt.expected {
			t.Errorf("%s: expected %d steps, got %d", tt.name, tt.expected, len(tt.steps))
			continue
		}
		if last := tt.steps[len(tt.steps)-1]; last-tt.last > 1e-9 || tt.last-last > 1e-9 {
			t.Errorf("%s: expected last %f, got %f", tt.name, tt.last, last)
		}
	}

	if Steps(1, 0, 1) != nil || Steps(0, 1, 0) != nil {
		t.Error("expected nil for empty ranges")
	}
}
