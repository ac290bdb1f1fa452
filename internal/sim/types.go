package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/dragsim/internal/physics"
)

// Category is the discriminant of a Result.
type Category string

const (
	Car        Category = "car"
	FighterJet Category = "fighter_jet"
)

// Termination names the condition that ended a run.
type Termination string

const (
	Equilibrium Termination = "equilibrium"
	SpeedCap    Termination = "speed_cap"
	Takeoff     Termination = "takeoff"
	Overrun     Termination = "overrun"
	MaxTime     Termination = "max_time"
)

const (
	DefaultDt      = 0.01
	DefaultMaxTime = 120.0
)

type Config struct {
	Dt      float64 `json:"dt" yaml:"dt"`
	MaxTime float64 `json:"max_time" yaml:"max_time"`
}

func DefaultConfig() Config {
	return Config{
		Dt:      DefaultDt,
		MaxTime: DefaultMaxTime,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if !(c.MaxTime > 0) || math.IsInf(c.MaxTime, 0) {
		return fmt.Errorf("%w: max time must be positive, got %f", ErrInvalidConfig, c.MaxTime)
	}
	return nil
}

// MaxSteps is the most samples a run under c can record.
func (c Config) MaxSteps() int {
	return int(math.Ceil(c.MaxTime/c.Dt)) + 1
}

// Sample is one recorded step. Distance and Velocity are the values after
// the step; Time is the clock at its start.
type Sample struct {
	Step         int
	Time         float64 // s
	Distance     float64 // m
	Velocity     float64 // km/h
	Speed        float64 // m/s, same instant as Velocity
	Acceleration float64 // m/s²
	GForce       float64
}

// Stepper is a force model driven by Run. Implementations are built fresh
// for each run and may keep per-run state.
type Stepper interface {
	Category() Category
	// Accel returns the net acceleration in m/s² at velocity v (m/s).
	Accel(v float64) float64
	// Observe sees every sample after it is recorded on r. It latches
	// milestones and reports whether the run ends here.
	Observe(r *Result, s Sample) (Termination, bool)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// CarMilestones are set only on car results.
type CarMilestones struct {
	To100       *float64 `json:"time_0_to_100,omitempty" msgpack:"time_0_to_100,omitempty"`
	QuarterMile *float64 `json:"time_quarter_mile,omitempty" msgpack:"time_quarter_mile,omitempty"`
	OneKm       *float64 `json:"time_1_km,omitempty" msgpack:"time_1_km,omitempty"`
}

// JetMilestones are set only on fighter jet results.
type JetMilestones struct {
	Takeoff        *float64 `json:"time_takeoff,omitempty" msgpack:"time_takeoff,omitempty"`
	RunwayDistance *float64 `json:"runway_distance,omitempty" msgpack:"runway_distance,omitempty"`
}

// Result is the record of one run. The five series are parallel and
// Time[i] == i*Dt. Exactly one of the milestone groups is non-nil,
// matching Category.
type Result struct {
	VehicleID   string   `json:"vehicle_id" msgpack:"vehicle_id"`
	VehicleName string   `json:"vehicle_name" msgpack:"vehicle_name"`
	Category    Category `json:"category" msgpack:"category"`

	Time         []float64 `json:"time_array" msgpack:"time_array"`
	Distance     []float64 `json:"distance_array" msgpack:"distance_array"`
	Velocity     []float64 `json:"velocity_array" msgpack:"velocity_array"`
	Acceleration []float64 `json:"acceleration_array" msgpack:"acceleration_array"`
	GForce       []float64 `json:"g_force_array" msgpack:"g_force_array"`

	*CarMilestones
	*JetMilestones

	FinalVelocity float64            `json:"final_velocity" msgpack:"final_velocity"`
	FinalDistance float64            `json:"final_distance" msgpack:"final_distance"`
	Duration      float64            `json:"simulation_duration" msgpack:"simulation_duration"`
	Dt            float64            `json:"dt" msgpack:"dt"`
	Termination   Termination        `json:"termination" msgpack:"termination"`
	Metrics       map[string]float64 `json:"metrics,omitempty" msgpack:"metrics,omitempty"`
}

func newResult(cat Category, cfg Config) *Result {
	n := cfg.MaxSteps()
	r := &Result{
		Category:     cat,
		Dt:           cfg.Dt,
		Time:         make([]float64, 0, n),
		Distance:     make([]float64, 0, n),
		Velocity:     make([]float64, 0, n),
		Acceleration: make([]float64, 0, n),
		GForce:       make([]float64, 0, n),
	}
	return r.Normalize()
}

// Normalize allocates the milestone group matching Category. Decoders leave
// it nil when no milestone was reached.
func (r *Result) Normalize() *Result {
	switch r.Category {
	case Car:
		if r.CarMilestones == nil {
			r.CarMilestones = &CarMilestones{}
		}
		r.JetMilestones = nil
	case FighterJet:
		if r.JetMilestones == nil {
			r.JetMilestones = &JetMilestones{}
		}
		r.CarMilestones = nil
	}
	return r
}

func (r *Result) record(s Sample) {
	r.Time = append(r.Time, s.Time)
	r.Distance = append(r.Distance, s.Distance)
	r.Velocity = append(r.Velocity, s.Velocity)
	r.Acceleration = append(r.Acceleration, s.Acceleration)
	r.GForce = append(r.GForce, s.GForce)
}

func (r *Result) Len() int { return len(r.Time) }

// Sample returns the i-th recorded step.
func (r *Result) Sample(i int) Sample {
	return Sample{
		Step:         i,
		Time:         r.Time[i],
		Distance:     r.Distance[i],
		Velocity:     r.Velocity[i],
		Speed:        r.Velocity[i] / physics.Standard().MsToKmh,
		Acceleration: r.Acceleration[i],
		GForce:       r.GForce[i],
	}
}

// Latch stores v in *slot unless a value is already there. Milestones are
// only ever written through Latch.
func Latch(slot **float64, v float64) bool {
	if *slot != nil {
		return false
	}
	*slot = &v
	return true
}

func value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (r *Result) Time0To100() (float64, bool) {
	if r.CarMilestones == nil {
		return 0, false
	}
	return value(r.CarMilestones.To100)
}

func (r *Result) TimeQuarterMile() (float64, bool) {
	if r.CarMilestones == nil {
		return 0, false
	}
	return value(r.CarMilestones.QuarterMile)
}

func (r *Result) Time1Km() (float64, bool) {
	if r.CarMilestones == nil {
		return 0, false
	}
	return value(r.CarMilestones.OneKm)
}

func (r *Result) TimeTakeoff() (float64, bool) {
	if r.JetMilestones == nil {
		return 0, false
	}
	return value(r.JetMilestones.Takeoff)
}

func (r *Result) RunwayDistance() (float64, bool) {
	if r.JetMilestones == nil {
		return 0, false
	}
	return value(r.JetMilestones.RunwayDistance)
}

// TimeToSpeed returns the time of the first sample at or above kmh.
func (r *Result) TimeToSpeed(kmh float64) (float64, bool) {
	for i, v := range r.Velocity {
		if v >= kmh {
			return r.Time[i], true
		}
	}
	return 0, false
}

// TimeToDistance returns the time of the first sample at or past m metres.
func (r *Result) TimeToDistance(m float64) (float64, bool) {
	for i, x := range r.Distance {
		if x >= m {
			return r.Time[i], true
		}
	}
	return 0, false
}

// SimError reports a run that produced a non-finite sample.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return ErrUnstable }
