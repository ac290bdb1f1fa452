package vehicles

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragsim/internal/metrics"
	"github.com/san-kum/dragsim/internal/models"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
)

// CarSpec is a ground vehicle plus its published reference figures.
type CarSpec struct {
	models.GroundVehicle `yaml:",inline"`
	Acceleration0To100   float64 `json:"acceleration_0_100,omitempty" yaml:"acceleration_0_100,omitempty"`
	TopSpeed             float64 `json:"top_speed,omitempty" yaml:"top_speed,omitempty"`
}

// JetSpec is an airborne vehicle plus its published reference figures.
type JetSpec struct {
	models.AirborneVehicle `yaml:",inline"`
	MaxLoadedWeight        float64 `json:"max_loaded_weight,omitempty" yaml:"max_loaded_weight,omitempty"`
	MaxSpeed               float64 `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`
}

// Vehicle is a catalog entry. Exactly one of Car and Jet is set, matching
// Category; both encode as "specs".
type Vehicle struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Manufacturer string       `json:"manufacturer" yaml:"manufacturer"`
	Category     sim.Category `json:"category" yaml:"category"`
	Year         int          `json:"year" yaml:"year"`
	ImageURL     string       `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	Car          *CarSpec     `json:"-" yaml:"-"`
	Jet          *JetSpec     `json:"-" yaml:"-"`
}

type plain Vehicle

func (v Vehicle) specs() any {
	if v.Car != nil {
		return v.Car
	}
	return v.Jet
}

func (v Vehicle) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plain
		Specs any `json:"specs"`
	}{plain(v), v.specs()})
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var raw struct {
		plain
		Specs json.RawMessage `json:"specs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Vehicle(raw.plain)
	return v.decodeSpecs(func(out any) error { return json.Unmarshal(raw.Specs, out) })
}

func (v *Vehicle) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		plain `yaml:",inline"`
		Specs yaml.Node `yaml:"specs"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = Vehicle(raw.plain)
	return v.decodeSpecs(raw.Specs.Decode)
}

func (v *Vehicle) decodeSpecs(decode func(any) error) error {
	switch v.Category {
	case sim.Car:
		v.Car = &CarSpec{}
		return decode(v.Car)
	case sim.FighterJet:
		v.Jet = &JetSpec{}
		return decode(v.Jet)
	default:
		return fmt.Errorf("%w: %q (vehicle %s)", ErrUnknownCategory, v.Category, v.ID)
	}
}

func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: empty id", sim.ErrParameterBounds)
	}
	var err error
	switch {
	case v.Category == sim.Car && v.Car != nil:
		err = v.Car.Validate()
	case v.Category == sim.FighterJet && v.Jet != nil:
		err = v.Jet.Validate()
	case v.Category == sim.Car || v.Category == sim.FighterJet:
		err = fmt.Errorf("%w: missing specs", sim.ErrParameterBounds)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCategory, v.Category)
	}
	if err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	return nil
}

// Options covers both vehicle classes; each simulator reads its own
// fields.
type Options struct {
	PowerMultiplier  float64 `json:"power_multiplier" yaml:"power_multiplier"`
	ThrustMultiplier float64 `json:"thrust_multiplier" yaml:"thrust_multiplier"`
	UseAfterburner   bool    `json:"use_afterburner" yaml:"use_afterburner"`
	UseTakeoffWeight bool    `json:"use_takeoff_weight" yaml:"use_takeoff_weight"`
}

func DefaultOptions() Options {
	g, a := models.DefaultGroundOptions(), models.DefaultAirborneOptions()
	return Options{
		PowerMultiplier:  g.PowerMultiplier,
		ThrustMultiplier: a.ThrustMultiplier,
		UseAfterburner:   a.UseAfterburner,
		UseTakeoffWeight: a.UseTakeoffWeight,
	}
}

func (o Options) Ground() models.GroundOptions {
	return models.GroundOptions{PowerMultiplier: o.PowerMultiplier}
}

func (o Options) Airborne() models.AirborneOptions {
	return models.AirborneOptions{
		UseTakeoffWeight: o.UseTakeoffWeight,
		UseAfterburner:   o.UseAfterburner,
		ThrustMultiplier: o.ThrustMultiplier,
	}
}

// Stepper returns the force model for v.
func (v Vehicle) Stepper(env physics.Environment, opts Options, cfg sim.Config) (sim.Stepper, error) {
	switch {
	case v.Category == sim.Car && v.Car != nil:
		return models.NewGroundStepper(v.Car.GroundVehicle, env, opts.Ground())
	case v.Category == sim.FighterJet && v.Jet != nil:
		return models.NewAirborneStepper(v.Jet.AirborneVehicle, env, opts.Airborne(), cfg.Dt)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, v.Category)
}

// Simulate runs v with the standard metrics attached.
func (v Vehicle) Simulate(env physics.Environment, opts Options, cfg sim.Config) (*sim.Result, error) {
	return v.SimulateWith(metrics.NewSimulator(), env, opts, cfg)
}

// SimulateWith runs v on s, stamps the vehicle id and name on the result
// and publishes it to the process metrics.
func (v Vehicle) SimulateWith(s *sim.Simulator, env physics.Environment, opts Options, cfg sim.Config) (*sim.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := v.Stepper(env, opts, cfg)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}

	r, err := s.Run(st, cfg)
	if r != nil {
		r.VehicleID = v.ID
		r.VehicleName = v.Name
	}
	if err != nil {
		return r, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}

	metrics.RecordRun(r)
	return r, nil
}
