package optim

import (
	"fmt"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

// Sweepable parameters.
const (
	ParamMultiplier  = "multiplier"
	ParamTemperature = "temperature"
	ParamAltitude    = "altitude"
)

// VehicleRunner returns a run function for Search that applies the grid
// parameters over the base environment and options. "multiplier" scales
// engine power for cars and thrust for jets.
func VehicleRunner(v vehicles.Vehicle, env physics.Environment, opts vehicles.Options, cfg sim.Config) func(map[string]float64) (*sim.Result, error) {
	return func(params map[string]float64) (*sim.Result, error) {
		e, o := env, opts
		for name, val := range params {
			switch name {
			case ParamMultiplier:
				if v.Category == sim.FighterJet {
					o.ThrustMultiplier = val
				} else {
					o.PowerMultiplier = val
				}
			case ParamTemperature:
				e.Temperature = val
			case ParamAltitude:
				e.Altitude = val
			default:
				return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
			}
		}
		return v.Simulate(e.Refresh(), o, cfg)
	}
}
