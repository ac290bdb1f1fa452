package sim

import (
	"math"

	"github.com/san-kum/dragsim/internal/physics"
)

// Simulator drives a Stepper with the explicit Euler scheme. Metrics are
// registered as factories so every run gets fresh instances; a Simulator
// can be shared between goroutines as long as its observers can.
type Simulator struct {
	metrics   []func() Metric
	observers []Observer
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]func() Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(factory func() Metric) { s.metrics = append(s.metrics, factory) }
func (s *Simulator) AddObserver(o Observer)          { s.observers = append(s.observers, o) }

// Run steps st from rest until it terminates or the clock reaches
// cfg.MaxTime. Each step:
//
//	a     = st.Accel(v)
//	v_new = v + a·dt
//	x_new = x + v·dt
//
// Position advances with the velocity from the start of the step.
func (s *Simulator) Run(st Stepper, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := physics.Standard().Gravity
	kmh := physics.Standard().MsToKmh

	metrics := make([]Metric, len(s.metrics))
	for i, factory := range s.metrics {
		metrics[i] = factory()
		metrics[i].Reset()
	}

	result := newResult(st.Category(), cfg)
	result.Termination = MaxTime

	v, x := 0.0, 0.0
	step := 0
	stopped := false

	for ; ; step++ {
		t := float64(step) * cfg.Dt
		if t >= cfg.MaxTime {
			break
		}

		a := st.Accel(v)
		vNew := v + a*cfg.Dt
		xNew := x + v*cfg.Dt

		if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(vNew) || math.IsInf(vNew, 0) {
			result.Duration = t
			result.finish(metrics)
			return result, SimError{Time: t, Step: step, Message: "invalid state (NaN/Inf)"}
		}

		sample := Sample{
			Step:         step,
			Time:         t,
			Distance:     xNew,
			Velocity:     vNew * kmh,
			Speed:        vNew,
			Acceleration: a,
			GForce:       a / g,
		}
		result.record(sample)

		for _, m := range metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}

		if reason, stop := st.Observe(result, sample); stop {
			result.Termination = reason
			result.Duration = t
			stopped = true
			break
		}

		v, x = vNew, xNew
	}

	if !stopped {
		result.Duration = float64(step) * cfg.Dt
	}
	result.finish(metrics)

	return result, nil
}

func (r *Result) finish(metrics []Metric) {
	if n := r.Len(); n > 0 {
		r.FinalVelocity = r.Velocity[n-1]
		r.FinalDistance = r.Distance[n-1]
	}
	if len(metrics) > 0 {
		r.Metrics = make(map[string]float64, len(metrics))
		for _, m := range metrics {
			r.Metrics[m.Name()] = m.Value()
		}
	}
}

// Run is New().Run(st, cfg).
func Run(st Stepper, cfg Config) (*Result, error) {
	return New().Run(st, cfg)
}
