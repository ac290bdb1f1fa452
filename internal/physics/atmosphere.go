package physics

import (
	"fmt"
	"math"
)

// Density returns air density in kg/m³ for a surface temperature (°C) and
// altitude (m) using the ISA troposphere model: linear lapse rate for
// temperature, barometric formula for pressure, ideal gas law for density.
//
// Temperatures at altitude at or below absolute zero, and any result below
// the floor, yield MinDensity rather than an error.
func Density(temperatureC, altitudeM float64) float64 {
	c := standard

	t0 := temperatureC + c.KelvinOffset
	th := t0 - c.LapseRate*altitudeM
	if th <= 0 {
		return c.MinDensity
	}

	// P = P0·(T/T0)^(g/(R·L)); with th < t0 pressure falls with height.
	// The negated exponent found in some references gives the same sea
	// level value but makes density grow with altitude (1.4130 kg/m³ at
	// 1000 m instead of 1.1116).
	exponent := c.Gravity / (c.RSpecific * c.LapseRate)
	pressure := c.ISAPressurePa * math.Pow(th/t0, exponent)
	rho := pressure / (c.RSpecific * th)

	return math.Max(rho, c.MinDensity)
}

// Calibration reports how far the model is from the ISA sea level density.
type Calibration struct {
	Density  float64 `json:"density"`
	Expected float64 `json:"expected"`
	RelError float64 `json:"relative_error"`
	Passed   bool    `json:"passed"`
}

// CalibrationTolerance is the relative error allowed at 15 °C, sea level.
const CalibrationTolerance = 0.01

func Calibrate() Calibration {
	rho := Density(15, 0)
	expected := standard.ISADensity
	relErr := math.Abs(rho-expected) / expected
	return Calibration{
		Density:  rho,
		Expected: expected,
		RelError: relErr,
		Passed:   relErr < CalibrationTolerance,
	}
}

func (c Calibration) String() string {
	return fmt.Sprintf("ISA SL: %.4f kg/m³ (expected: %.3f, error: %.2f%%)", c.Density, c.Expected, c.RelError*100)
}
