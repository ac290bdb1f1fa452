// Package physics holds the shared physical model of dragsim.
//
//   - [Constants]: gravity, gas constant, ISA reference values and the
//     friction / weight distribution tables, as one immutable value
//   - [Density]: ISA troposphere air density
//   - [Environment]: temperature, altitude, surface and derived density
//
// Nothing here holds mutable state; every function is safe to call from
// any goroutine.
package physics
