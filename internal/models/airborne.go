package models

import (
	"fmt"
	"math"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
)

// RunwayOverrun is the fraction of the runway after which a takeoff roll
// is aborted.
const RunwayOverrun = 1.5

// AirborneVehicle is a jet on its takeoff roll. Thrust is in kN.
type AirborneVehicle struct {
	DryThrust       float64 `json:"dry_thrust" yaml:"dry_thrust"`
	WetThrust       float64 `json:"wet_thrust" yaml:"wet_thrust"`
	EmptyWeight     float64 `json:"empty_weight" yaml:"empty_weight"`     // kg
	TakeoffWeight   float64 `json:"takeoff_weight" yaml:"takeoff_weight"` // kg
	DragCoefficient float64 `json:"drag_coefficient" yaml:"drag_coefficient"`
	WingArea        float64 `json:"wing_area" yaml:"wing_area"`         // m²
	TakeoffSpeed    float64 `json:"takeoff_speed" yaml:"takeoff_speed"` // km/h
	RunwayLength    float64 `json:"runway_length" yaml:"runway_length"` // m
}

func (a AirborneVehicle) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"dry_thrust", a.DryThrust},
		{"wet_thrust", a.WetThrust},
		{"empty_weight", a.EmptyWeight},
		{"takeoff_weight", a.TakeoffWeight},
		{"wing_area", a.WingArea},
		{"takeoff_speed", a.TakeoffSpeed},
		{"runway_length", a.RunwayLength},
	}
	for _, c := range checks {
		if !(c.value > 0) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", sim.ErrParameterBounds, c.name, c.value)
		}
	}
	if !(a.DragCoefficient >= 0) {
		return fmt.Errorf("%w: drag_coefficient must be non-negative, got %g", sim.ErrParameterBounds, a.DragCoefficient)
	}
	return nil
}

type AirborneOptions struct {
	UseTakeoffWeight bool    `json:"use_takeoff_weight" yaml:"use_takeoff_weight"`
	UseAfterburner   bool    `json:"use_afterburner" yaml:"use_afterburner"`
	ThrustMultiplier float64 `json:"thrust_multiplier" yaml:"thrust_multiplier"`
}

func DefaultAirborneOptions() AirborneOptions {
	return AirborneOptions{
		UseTakeoffWeight: true,
		UseAfterburner:   true,
		ThrustMultiplier: 1.0,
	}
}

func (o AirborneOptions) Validate() error {
	if !(o.ThrustMultiplier > 0) || math.IsInf(o.ThrustMultiplier, 0) {
		return fmt.Errorf("%w: thrust multiplier must be positive, got %g", sim.ErrParameterBounds, o.ThrustMultiplier)
	}
	return nil
}

type airborneStepper struct {
	c          physics.Constants
	spec       AirborneVehicle
	opts       AirborneOptions
	mass       float64
	rho        float64
	takeoffMs  float64
	extraSteps int
	liftoff    int // step of takeoff, -1 until then
}

// NewAirborneStepper returns the takeoff-roll model. dt is needed to stop
// the run one simulated second after takeoff.
func NewAirborneStepper(spec AirborneVehicle, env physics.Environment, opts AirborneOptions, dt float64) (sim.Stepper, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := physics.Standard()
	mass := spec.EmptyWeight
	if opts.UseTakeoffWeight {
		mass = spec.TakeoffWeight
	}
	// First sample at least one second past takeoff.
	extra := 0
	if dt > 0 {
		extra = int(math.Ceil(1/dt - 1e-9))
	}
	return &airborneStepper{
		c:          c,
		spec:       spec,
		opts:       opts,
		mass:       mass,
		rho:        physics.Density(env.Temperature, env.Altitude),
		takeoffMs:  spec.TakeoffSpeed / c.MsToKmh,
		extraSteps: extra,
		liftoff:    -1,
	}, nil
}

func (j *airborneStepper) Category() sim.Category { return sim.FighterJet }

func (j *airborneStepper) Accel(v float64) float64 {
	thrust := JetThrust(j.c, j.spec.DryThrust, j.spec.WetThrust, j.opts.UseAfterburner, j.opts.ThrustMultiplier, v)
	drag := Drag(j.rho, v, j.spec.DragCoefficient, j.spec.WingArea)
	return (thrust - drag) / j.mass
}

func (j *airborneStepper) Observe(r *sim.Result, s sim.Sample) (sim.Termination, bool) {
	if j.liftoff < 0 && s.Speed >= j.takeoffMs {
		sim.Latch(&r.Takeoff, s.Time)
		sim.Latch(&r.JetMilestones.RunwayDistance, s.Distance)
		j.liftoff = s.Step
	}
	if j.liftoff >= 0 && s.Step-j.liftoff >= j.extraSteps {
		return sim.Takeoff, true
	}
	if s.Distance > RunwayOverrun*j.spec.RunwayLength {
		return sim.Overrun, true
	}
	return "", false
}

// SimulateAirborneVehicle runs a takeoff roll for a jet.
func SimulateAirborneVehicle(spec AirborneVehicle, env physics.Environment, opts AirborneOptions, cfg sim.Config) (*sim.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := NewAirborneStepper(spec, env, opts, cfg.Dt)
	if err != nil {
		return nil, err
	}
	return sim.Run(st, cfg)
}
