// Package race runs two vehicles under the same conditions and picks a
// winner by the milestone both classes share.
package race

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

// Metric names the milestone a race is decided on.
type Metric string

const (
	To100       Metric = "time_0_to_100"
	TakeoffTime Metric = "time_takeoff"
	ToSpeed     Metric = "time_to_100_kmh"
)

// MixedSpeed decides car against jet. Neither class records distance
// milestones the other reaches: cars stop at the speed cap and jets one
// second after rotation.
const MixedSpeed = 100.0

type Entry struct {
	Vehicle vehicles.Vehicle
	Options vehicles.Options
}

// Comparison is the outcome of one race. Winner is 1 or 2 for the
// respective vehicle and 0 when nobody wins.
type Comparison struct {
	Vehicle1     *sim.Result `json:"vehicle1"`
	Vehicle2     *sim.Result `json:"vehicle2"`
	WinnerMetric Metric      `json:"winner_metric"`
	Time1        *float64    `json:"time1,omitempty"`
	Time2        *float64    `json:"time2,omitempty"`
	Winner       int         `json:"winner"`
	WinnerID     string      `json:"winner_id,omitempty"`
}

// Margin is how much faster the winner was, in seconds.
func (c *Comparison) Margin() (float64, bool) {
	if c.Winner == 0 || c.Time1 == nil || c.Time2 == nil {
		return 0, false
	}
	d := *c.Time1 - *c.Time2
	if d < 0 {
		d = -d
	}
	return d, true
}

// Run simulates a and b concurrently under env.
func Run(ctx context.Context, a, b Entry, env physics.Environment, cfg sim.Config) (*Comparison, error) {
	entries := [2]Entry{a, b}
	var results [2]*sim.Result

	g, ctx := errgroup.WithContext(ctx)
	for i := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := entries[i].Vehicle.Simulate(env, entries[i].Options, cfg)
			if err != nil {
				return fmt.Errorf("race: vehicle %d: %w", i+1, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Compare(results[0], results[1]), nil
}

// Compare decides a race between two finished results.
func Compare(r1, r2 *sim.Result) *Comparison {
	c := &Comparison{
		Vehicle1:     r1,
		Vehicle2:     r2,
		WinnerMetric: MetricFor(r1.Category, r2.Category),
	}
	c.Time1 = timeFor(r1, c.WinnerMetric)
	c.Time2 = timeFor(r2, c.WinnerMetric)

	switch {
	case c.Time1 == nil && c.Time2 == nil:
	case c.Time2 == nil:
		c.Winner = 1
	case c.Time1 == nil:
		c.Winner = 2
	case *c.Time1 < *c.Time2:
		c.Winner = 1
	case *c.Time2 < *c.Time1:
		c.Winner = 2
	}

	switch c.Winner {
	case 1:
		c.WinnerID = r1.VehicleID
	case 2:
		c.WinnerID = r2.VehicleID
	}
	return c
}

// MetricFor picks the deciding milestone for a pairing.
func MetricFor(a, b sim.Category) Metric {
	switch {
	case a == sim.Car && b == sim.Car:
		return To100
	case a == sim.FighterJet && b == sim.FighterJet:
		return TakeoffTime
	default:
		return ToSpeed
	}
}

func timeFor(r *sim.Result, m Metric) *float64 {
	var (
		t  float64
		ok bool
	)
	switch m {
	case To100:
		t, ok = r.Time0To100()
	case TakeoffTime:
		t, ok = r.TimeTakeoff()
	case ToSpeed:
		t, ok = TimeToSpeed(r, MixedSpeed)
	}
	if !ok {
		return nil
	}
	return &t
}

// TimeToSpeed is the time of the first sample at or above kmh.
func TimeToSpeed(r *sim.Result, kmh float64) (float64, bool) {
	return r.TimeToSpeed(kmh)
}

// TimeToDistance is the time of the first sample at or past m metres.
func TimeToDistance(r *sim.Result, m float64) (float64, bool) {
	return r.TimeToDistance(m)
}
