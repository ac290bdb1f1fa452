package sim

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive timestep or time limit.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrParameterBounds indicates a vehicle parameter outside its valid range.
	ErrParameterBounds = errors.New("sim: parameter out of valid bounds")

	// ErrUnstable indicates the run produced NaN or Inf.
	ErrUnstable = errors.New("sim: simulation unstable (non-finite state)")
)
