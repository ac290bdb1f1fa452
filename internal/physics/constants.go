package physics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSurface    = errors.New("physics: unknown surface condition")
	ErrUnknownDrivetrain = errors.New("physics: unknown drivetrain")
)

type Surface int

const (
	Dry Surface = iota
	Wet
	Icy
)

var surfaceNames = [...]string{"dry", "wet", "icy"}

func (s Surface) String() string {
	if s < Dry || s > Icy {
		return fmt.Sprintf("surface(%d)", int(s))
	}
	return surfaceNames[s]
}

func ParseSurface(name string) (Surface, error) {
	for i, n := range surfaceNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Surface(i), nil
		}
	}
	return Dry, fmt.Errorf("%w: %q", ErrUnknownSurface, name)
}

func (s Surface) MarshalText() ([]byte, error) {
	if s < Dry || s > Icy {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSurface, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Surface) UnmarshalText(text []byte) error {
	v, err := ParseSurface(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Drive names the wheels that put power on the road. The weight share
// table is indexed by it.
type Drive int

const (
	AWD Drive = iota
	RWD
	FWD
)

var driveNames = [...]string{"AWD", "RWD", "FWD"}

func (d Drive) String() string {
	if d < AWD || d > FWD {
		return fmt.Sprintf("drive(%d)", int(d))
	}
	return driveNames[d]
}

func ParseDrive(name string) (Drive, error) {
	for i, n := range driveNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Drive(i), nil
		}
	}
	return AWD, fmt.Errorf("%w: %q", ErrUnknownDrivetrain, name)
}

func (d Drive) MarshalText() ([]byte, error) {
	if d < AWD || d > FWD {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDrivetrain, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Drive) UnmarshalText(text []byte) error {
	v, err := ParseDrive(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Constants is the physical and tuning constant set shared by every
// simulation. Obtain it with Standard; the tables are unexported so a
// value can't be modified after construction.
type Constants struct {
	Gravity       float64 // m/s²
	RSpecific     float64 // J/(kg·K)
	ISATempKelvin float64
	ISAPressurePa float64
	ISADensity    float64 // kg/m³
	LapseRate     float64 // K/m
	MinDensity    float64 // kg/m³
	WheelRadius   float64 // m
	RollingCoeff  float64
	WattsPerHP    float64
	StandstillVel float64 // m/s, below which the engine is torque-limited
	KelvinOffset  float64
	MsToKmh       float64
	friction      [3]float64
	weightShare   [3]float64
}

var standard = Constants{
	Gravity:       9.81,
	RSpecific:     287.05,
	ISATempKelvin: 288.15,
	ISAPressurePa: 101325,
	ISADensity:    1.225,
	LapseRate:     0.0065,
	MinDensity:    0.01,
	WheelRadius:   0.33,
	RollingCoeff:  0.013,
	WattsPerHP:    745.7,
	StandstillVel: 0.1,
	KelvinOffset:  273.15,
	MsToKmh:       3.6,
	friction:      [3]float64{Dry: 1.0, Wet: 0.75, Icy: 0.35},
	weightShare:   [3]float64{AWD: 1.0, RWD: 0.5, FWD: 0.55},
}

// Standard returns a copy of the process-wide constant set.
func Standard() Constants {
	return standard
}

// Friction returns the tire friction coefficient for the surface. Unknown
// surfaces get the dry value.
func (c Constants) Friction(s Surface) float64 {
	if s < Dry || s > Icy {
		return c.friction[Dry]
	}
	return c.friction[s]
}

// WeightShare is the fraction of vehicle weight on the driven wheels.
func (c Constants) WeightShare(d Drive) float64 {
	if d < AWD || d > FWD {
		return c.weightShare[AWD]
	}
	return c.weightShare[d]
}
