package metrics

import (
	"math"

	"github.com/san-kum/dragsim/internal/sim"
)

type PeakAcceleration struct {
	name string
	peak float64
	seen bool
}

func NewPeakAcceleration() *PeakAcceleration {
	return &PeakAcceleration{name: "peak_acceleration"}
}

func (p *PeakAcceleration) Name() string { return p.name }

func (p *PeakAcceleration) Observe(s sim.Sample) {
	if !p.seen || s.Acceleration > p.peak {
		p.peak = s.Acceleration
		p.seen = true
	}
}

func (p *PeakAcceleration) Value() float64 {
	return p.peak
}

func (p *PeakAcceleration) Reset() {
	p.peak = 0
	p.seen = false
}

type MeanAcceleration struct {
	name    string
	sum     float64
	samples int
}

func NewMeanAcceleration() *MeanAcceleration {
	return &MeanAcceleration{name: "mean_acceleration"}
}

func (m *MeanAcceleration) Name() string { return m.name }

func (m *MeanAcceleration) Observe(s sim.Sample) {
	m.sum += s.Acceleration
	m.samples++
}

func (m *MeanAcceleration) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanAcceleration) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakGForce tracks the largest g-force magnitude, braking included.
type PeakGForce struct {
	name string
	peak float64
}

func NewPeakGForce() *PeakGForce {
	return &PeakGForce{name: "peak_g_force"}
}

func (p *PeakGForce) Name() string { return p.name }

func (p *PeakGForce) Observe(s sim.Sample) {
	p.peak = math.Max(p.peak, math.Abs(s.GForce))
}

func (p *PeakGForce) Value() float64 {
	return p.peak
}

func (p *PeakGForce) Reset() {
	p.peak = 0
}

// Standard returns factories for the metrics attached to every run.
func Standard() []func() sim.Metric {
	return []func() sim.Metric{
		func() sim.Metric { return NewPeakAcceleration() },
		func() sim.Metric { return NewMeanAcceleration() },
		func() sim.Metric { return NewPeakGForce() },
	}
}

// NewSimulator returns a simulator with the Standard metrics registered.
func NewSimulator() *sim.Simulator {
	s := sim.New()
	for _, f := range Standard() {
		s.AddMetric(f)
	}
	return s
}
