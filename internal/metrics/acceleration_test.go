package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/dragsim/internal/sim"
)

func samples(accels ...float64) []sim.Sample {
	out := make([]sim.Sample, len(accels))
	for i, a := range accels {
		out[i] = sim.Sample{Step: i, Acceleration: a, GForce: a / 9.81}
	}
	return out
}

func TestPeakAcceleration(t *testing.T) {
	m := NewPeakAcceleration()
	for _, s := range samples(-2, -1, -3) {
		m.Observe(s)
	}
	if m.Value() != -1 {
		t.Errorf("expected peak -1 for all-negative run, got %f", m.Value())
	}

	m.Reset()
	for _, s := range samples(2, 9.5, 4) {
		m.Observe(s)
	}
	if m.Value() != 9.5 {
		t.Errorf("expected peak 9.5, got %f", m.Value())
	}
}

func TestMeanAcceleration(t *testing.T) {
	m := NewMeanAcceleration()
	if m.Value() != 0 {
		t.Errorf("expected 0 with no samples, got %f", m.Value())
	}

	for _, s := range samples(1, 2, 3, 6) {
		m.Observe(s)
	}
	if m.Value() != 3 {
		t.Errorf("expected mean 3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakGForceMagnitude(t *testing.T) {
	m := NewPeakGForce()
	for _, s := range samples(3, -9.81, 1) {
		m.Observe(s)
	}
	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected peak 1g, got %f", m.Value())
	}
}

type step struct{ a float64 }

func (s step) Category() sim.Category                                  { return sim.Car }
func (s step) Accel(v float64) float64                                 { return s.a }
func (s step) Observe(*sim.Result, sim.Sample) (sim.Termination, bool) { return "", false }

func TestNewSimulatorAttachesStandardMetrics(t *testing.T) {
	r, err := NewSimulator().Run(step{a: 2}, sim.Config{Dt: 0.1, MaxTime: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"peak_acceleration", "mean_acceleration", "peak_g_force"} {
		if _, ok := r.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if r.Metrics["mean_acceleration"] != 2 {
		t.Errorf("expected mean 2, got %f", r.Metrics["mean_acceleration"])
	}
}
