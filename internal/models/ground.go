package models

import (
	"fmt"
	"math"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
)

const (
	// Runs stop once the car passes CarSpeedCapKmh.
	CarSpeedCapKmh = 150.0
	// Runs stop once |a| drops below EquilibriumAccel (m/s²).
	EquilibriumAccel = 0.01

	MilestoneSpeedKmh   = 100.0
	QuarterMileDistance = 400.0
	OneKmDistance       = 1000.0
)

// GroundVehicle is a wheeled, engine-driven vehicle.
type GroundVehicle struct {
	Mass            float64       `json:"curb_weight" yaml:"curb_weight"` // kg
	Drivetrain      physics.Drive `json:"drivetrain" yaml:"drivetrain"`
	DragCoefficient float64       `json:"drag_coefficient" yaml:"drag_coefficient"`
	FrontalArea     float64       `json:"frontal_area" yaml:"frontal_area"` // m²
	Horsepower      float64       `json:"horsepower" yaml:"horsepower"`
	Torque          float64       `json:"torque" yaml:"torque"` // N·m
}

func (g GroundVehicle) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"curb_weight", g.Mass},
		{"frontal_area", g.FrontalArea},
		{"horsepower", g.Horsepower},
		{"torque", g.Torque},
	}
	for _, c := range checks {
		if !(c.value > 0) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", sim.ErrParameterBounds, c.name, c.value)
		}
	}
	if !(g.DragCoefficient >= 0) {
		return fmt.Errorf("%w: drag_coefficient must be non-negative, got %g", sim.ErrParameterBounds, g.DragCoefficient)
	}
	if g.Drivetrain < physics.AWD || g.Drivetrain > physics.FWD {
		return fmt.Errorf("%w: %d", physics.ErrUnknownDrivetrain, int(g.Drivetrain))
	}
	return nil
}

type GroundOptions struct {
	PowerMultiplier float64 `json:"power_multiplier" yaml:"power_multiplier"`
}

func DefaultGroundOptions() GroundOptions {
	return GroundOptions{PowerMultiplier: 1.0}
}

func (o GroundOptions) Validate() error {
	if !(o.PowerMultiplier > 0) || math.IsInf(o.PowerMultiplier, 0) {
		return fmt.Errorf("%w: power multiplier must be positive, got %g", sim.ErrParameterBounds, o.PowerMultiplier)
	}
	return nil
}

type groundStepper struct {
	c         physics.Constants
	spec      GroundVehicle
	mult      float64
	rho       float64
	tireLimit float64
	rolling   float64
}

// NewGroundStepper validates its inputs and returns the force model for
// spec under env. Forces that don't depend on speed are computed once.
func NewGroundStepper(spec GroundVehicle, env physics.Environment, opts GroundOptions) (sim.Stepper, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := physics.Standard()
	return &groundStepper{
		c:         c,
		spec:      spec,
		mult:      opts.PowerMultiplier,
		rho:       physics.Density(env.Temperature, env.Altitude),
		tireLimit: TireLimit(c, spec.Mass, env.Surface, spec.Drivetrain),
		rolling:   RollingResistance(c, spec.Mass),
	}, nil
}

func (g *groundStepper) Category() sim.Category { return sim.Car }

func (g *groundStepper) Accel(v float64) float64 {
	engine := EngineForce(g.c, g.spec.Horsepower, g.spec.Torque, g.mult, v)
	avail := math.Min(g.tireLimit, engine)
	drag := Drag(g.rho, v, g.spec.DragCoefficient, g.spec.FrontalArea)
	return (avail - drag - g.rolling) / g.spec.Mass
}

func (g *groundStepper) Observe(r *sim.Result, s sim.Sample) (sim.Termination, bool) {
	if n := r.Len(); n >= 2 && r.Velocity[n-2] < MilestoneSpeedKmh && r.Velocity[n-1] >= MilestoneSpeedKmh {
		sim.Latch(&r.To100, s.Time)
	}
	if s.Distance >= QuarterMileDistance {
		sim.Latch(&r.QuarterMile, s.Time)
	}
	if s.Distance >= OneKmDistance {
		sim.Latch(&r.OneKm, s.Time)
	}

	if math.Abs(s.Acceleration) < EquilibriumAccel {
		return sim.Equilibrium, true
	}
	if s.Velocity > CarSpeedCapKmh {
		return sim.SpeedCap, true
	}
	return "", false
}

// SimulateGroundVehicle runs a standing-start acceleration run for a car.
func SimulateGroundVehicle(spec GroundVehicle, env physics.Environment, opts GroundOptions, cfg sim.Config) (*sim.Result, error) {
	st, err := NewGroundStepper(spec, env, opts)
	if err != nil {
		return nil, err
	}
	return sim.Run(st, cfg)
}
