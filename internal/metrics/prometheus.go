package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/dragsim/internal/sim"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragsim_runs_total",
			Help: "Completed simulation runs by category and termination reason",
		},
		[]string{"category", "termination"},
	)
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dragsim_run_duration_seconds",
			Help:    "Simulated duration of completed runs",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"category"},
	)
	milestoneGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dragsim_milestone_seconds",
			Help: "Latest milestone time for each vehicle",
		},
		[]string{"vehicle", "milestone"},
	)
	velocityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dragsim_velocity_kmh",
			Help: "Velocity of the most recent sample for each vehicle",
		},
		[]string{"vehicle"},
	)
	accelerationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dragsim_acceleration_mps2",
			Help: "Acceleration of the most recent sample for each vehicle",
		},
		[]string{"vehicle"},
	)
	airDensityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dragsim_air_density_kg_per_m3",
		Help: "Air density of the most recent environment",
	})
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragsim_http_requests_total",
			Help: "API requests by route and status code",
		},
		[]string{"route", "code"},
	)
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dragsim_cache_hits_total",
		Help: "Simulate requests answered from the result cache",
	})
)

func init() {
	prometheus.MustRegister(
		runsTotal, runDuration, milestoneGauge,
		velocityGauge, accelerationGauge, airDensityGauge,
		requestsTotal, cacheHits,
	)
}

// RecordRun publishes the outcome of a finished run.
func RecordRun(r *sim.Result) {
	cat := string(r.Category)
	runsTotal.WithLabelValues(cat, string(r.Termination)).Inc()
	runDuration.WithLabelValues(cat).Observe(r.Duration)

	milestones := map[string]func() (float64, bool){
		"time_0_to_100":     r.Time0To100,
		"time_quarter_mile": r.TimeQuarterMile,
		"time_1_km":         r.Time1Km,
		"time_takeoff":      r.TimeTakeoff,
	}
	for name, get := range milestones {
		if v, ok := get(); ok {
			milestoneGauge.WithLabelValues(r.VehicleID, name).Set(v)
		}
	}
}

func SetAirDensity(rho float64) { airDensityGauge.Set(rho) }

func RecordRequest(route, code string) { requestsTotal.WithLabelValues(route, code).Inc() }

func RecordCacheHit() { cacheHits.Inc() }

// LiveObserver mirrors every sample of a run into per-vehicle gauges.
type LiveObserver struct {
	velocity     prometheus.Gauge
	acceleration prometheus.Gauge
}

func NewLiveObserver(vehicle string) *LiveObserver {
	return &LiveObserver{
		velocity:     velocityGauge.WithLabelValues(vehicle),
		acceleration: accelerationGauge.WithLabelValues(vehicle),
	}
}

func (l *LiveObserver) OnStep(s sim.Sample) {
	l.velocity.Set(s.Velocity)
	l.acceleration.Set(s.Acceleration)
}
