// Package models holds the force models for the vehicle classes. Each
// model is a sim.Stepper: it returns the acceleration for a given speed and
// latches milestones and termination from the recorded samples.
package models
