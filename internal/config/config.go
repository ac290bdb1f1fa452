package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

const (
	DefaultVehicle     = "tesla_model_s_plaid"
	DefaultTemperature = 24.0
	DefaultAltitude    = 120.0
	DefaultSurface     = "dry"
	DefaultAddr        = ":8080"
	DefaultCacheSize   = 256
	DefaultLogLevel    = "info"
)

// Dashboard ranges. They bound sweep defaults and flag hints; the physics
// accepts anything.
const (
	MinTemperature  = -40.0
	MaxTemperature  = 60.0
	TemperatureStep = 5.0
	MinAltitude     = 0.0
	MaxAltitude     = 5000.0
	AltitudeStep    = 500.0
	MinMultiplier   = 0.8
	MaxMultiplier   = 1.5
	MultiplierStep  = 0.1
)

type Config struct {
	Vehicle          string            `yaml:"vehicle"`
	Opponent         string            `yaml:"opponent,omitempty"`
	Environment      EnvironmentConfig `yaml:"environment"`
	PowerMultiplier  float64           `yaml:"power_multiplier"`
	ThrustMultiplier float64           `yaml:"thrust_multiplier"`
	Afterburner      bool              `yaml:"afterburner"`
	TakeoffWeight    bool              `yaml:"takeoff_weight"`
	Dt               float64           `yaml:"dt"`
	MaxTime          float64           `yaml:"max_time"`
	Catalog          string            `yaml:"catalog,omitempty"`
	Log              LogConfig         `yaml:"log"`
	Server           ServerConfig      `yaml:"server"`
}

type EnvironmentConfig struct {
	Temperature float64 `yaml:"temperature"`
	Altitude    float64 `yaml:"altitude"`
	Surface     string  `yaml:"surface"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	CacheSize int    `yaml:"cache_size"`
}

func DefaultConfig() *Config {
	opts := vehicles.DefaultOptions()
	return &Config{
		Vehicle: DefaultVehicle,
		Environment: EnvironmentConfig{
			Temperature: DefaultTemperature,
			Altitude:    DefaultAltitude,
			Surface:     DefaultSurface,
		},
		PowerMultiplier:  opts.PowerMultiplier,
		ThrustMultiplier: opts.ThrustMultiplier,
		Afterburner:      opts.UseAfterburner,
		TakeoffWeight:    opts.UseTakeoffWeight,
		Dt:               sim.DefaultDt,
		MaxTime:          sim.DefaultMaxTime,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Server: ServerConfig{
			Addr:      DefaultAddr,
			CacheSize: DefaultCacheSize,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := physics.ParseSurface(c.Environment.Surface); err != nil {
		return err
	}
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if !(c.PowerMultiplier > 0) {
		return fmt.Errorf("%w: power multiplier must be positive, got %g", sim.ErrParameterBounds, c.PowerMultiplier)
	}
	if !(c.ThrustMultiplier > 0) {
		return fmt.Errorf("%w: thrust multiplier must be positive, got %g", sim.ErrParameterBounds, c.ThrustMultiplier)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("config: cache size must not be negative, got %d", c.Server.CacheSize)
	}
	return nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, MaxTime: c.MaxTime}
}

func (c *Config) Options() vehicles.Options {
	return vehicles.Options{
		PowerMultiplier:  c.PowerMultiplier,
		ThrustMultiplier: c.ThrustMultiplier,
		UseAfterburner:   c.Afterburner,
		UseTakeoffWeight: c.TakeoffWeight,
	}
}

// Environment resolves the configured conditions, deriving air density.
func (e EnvironmentConfig) Environment() (physics.Environment, error) {
	surface, err := physics.ParseSurface(e.Surface)
	if err != nil {
		return physics.Environment{}, err
	}
	return physics.NewEnvironment(e.Temperature, e.Altitude, surface), nil
}

// Steps returns lo, lo+step, ... up to and including hi.
func Steps(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return nil
	}
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func TemperatureSteps() []float64 { return Steps(MinTemperature, MaxTemperature, TemperatureStep) }
func AltitudeSteps() []float64    { return Steps(MinAltitude, MaxAltitude, AltitudeStep) }
func MultiplierSteps() []float64  { return Steps(MinMultiplier, MaxMultiplier, MultiplierStep) }
