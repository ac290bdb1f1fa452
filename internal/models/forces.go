package models

import (
	"math"

	"github.com/san-kum/dragsim/internal/physics"
)

const (
	// Above this speed jet thrust is derated.
	DerateOnsetKmh = 1200.0
	DerateSpanKmh  = 2000.0
	DerateMaxLoss  = 0.2
	DerateFloor    = 0.8
)

// Drag is the aerodynamic drag force in N at speed v (m/s).
func Drag(rho, v, cd, area float64) float64 {
	return 0.5 * rho * v * v * cd * area
}

// TireLimit is the largest tractive force the driven wheels can transmit.
func TireLimit(c physics.Constants, mass float64, s physics.Surface, d physics.Drive) float64 {
	return c.Friction(s) * mass * c.Gravity * c.WeightShare(d)
}

// EngineForce is torque-limited at standstill and power-limited above it.
func EngineForce(c physics.Constants, hp, torque, multiplier, v float64) float64 {
	if v < c.StandstillVel {
		return torque / c.WheelRadius
	}
	return hp * multiplier * c.WattsPerHP / v
}

func RollingResistance(c physics.Constants, mass float64) float64 {
	return c.RollingCoeff * mass * c.Gravity
}

// DerateFactor scales jet thrust down linearly past DerateOnsetKmh, never
// below DerateFloor.
func DerateFactor(kmh float64) float64 {
	if kmh <= DerateOnsetKmh {
		return 1
	}
	return math.Max(DerateFloor, 1-(kmh-DerateOnsetKmh)/DerateSpanKmh*DerateMaxLoss)
}

// JetThrust returns thrust in N. dry and wet are in kN.
func JetThrust(c physics.Constants, dry, wet float64, afterburner bool, multiplier, v float64) float64 {
	base := dry
	if afterburner {
		base = wet
	}
	return base * DerateFactor(v*c.MsToKmh) * multiplier * 1000
}
