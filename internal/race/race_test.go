package race_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

func ptr(v float64) *float64 { return &v }

func carResult(id string, t100 *float64) *sim.Result {
	return &sim.Result{
		VehicleID:     id,
		Category:      sim.Car,
		CarMilestones: &sim.CarMilestones{To100: t100},
	}
}

func jetResult(id string, takeoff *float64) *sim.Result {
	return &sim.Result{
		VehicleID:     id,
		Category:      sim.FighterJet,
		JetMilestones: &sim.JetMilestones{Takeoff: takeoff},
	}
}

var _ = Describe("Compare", func() {
	DescribeTable("picks the deciding metric",
		func(a, b sim.Category, want race.Metric) {
			Expect(race.MetricFor(a, b)).To(Equal(want))
		},
		Entry("two cars", sim.Car, sim.Car, race.To100),
		Entry("two jets", sim.FighterJet, sim.FighterJet, race.TakeoffTime),
		Entry("car and jet", sim.Car, sim.FighterJet, race.ToSpeed),
		Entry("jet and car", sim.FighterJet, sim.Car, race.ToSpeed),
	)

	DescribeTable("car races",
		func(t1, t2 *float64, winner int, id string) {
			c := race.Compare(carResult("a", t1), carResult("b", t2))
			Expect(c.WinnerMetric).To(Equal(race.To100))
			Expect(c.Winner).To(Equal(winner))
			Expect(c.WinnerID).To(Equal(id))
		},
		Entry("lower time wins", ptr(2.4), ptr(2.9), 1, "a"),
		Entry("second can win", ptr(3.1), ptr(2.2), 2, "b"),
		Entry("missing loses to present", nil, ptr(9.0), 2, "b"),
		Entry("present beats missing", ptr(9.0), nil, 1, "a"),
		Entry("both missing is a draw", nil, nil, 0, ""),
		Entry("equal times draw", ptr(2.5), ptr(2.5), 0, ""),
	)

	It("decides jets on takeoff time", func() {
		c := race.Compare(jetResult("f16", ptr(7.6)), jetResult("f15", ptr(9.2)))
		Expect(c.WinnerMetric).To(Equal(race.TakeoffTime))
		Expect(c.WinnerID).To(Equal("f16"))

		margin, ok := c.Margin()
		Expect(ok).To(BeTrue())
		Expect(margin).To(BeNumerically("~", 1.6, 1e-9))
	})

	It("decides mixed races from the velocity series", func() {
		car := carResult("car", ptr(2.0))
		car.Time = []float64{0, 1, 2}
		car.Velocity = []float64{0, 60, 101}

		jet := jetResult("jet", ptr(1.0))
		jet.Time = []float64{0, 1, 2}
		jet.Velocity = []float64{0, 100, 200}

		c := race.Compare(car, jet)
		Expect(c.WinnerMetric).To(Equal(race.ToSpeed))
		Expect(c.Winner).To(Equal(2))
		Expect(*c.Time1).To(Equal(2.0))
		Expect(*c.Time2).To(Equal(1.0))
	})
})

var _ = Describe("TimeToSpeed and TimeToDistance", func() {
	r := &sim.Result{
		Time:     []float64{0, 0.5, 1.0, 1.5},
		Velocity: []float64{10, 50, 99.9, 100},
		Distance: []float64{0, 100, 399, 400},
	}

	It("finds the first sample at or past the threshold", func() {
		t, ok := race.TimeToSpeed(r, 100)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(1.5))

		t, ok = race.TimeToDistance(r, 100)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(0.5))
	})

	It("reports absence", func() {
		_, ok := race.TimeToSpeed(r, 200)
		Expect(ok).To(BeFalse())
		_, ok = race.TimeToDistance(r, 1000)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Run", func() {
	cat := vehicles.Default()
	env := physics.NewEnvironment(24, 120, physics.Dry)

	entry := func(id string) race.Entry {
		v, err := cat.Lookup(id)
		Expect(err).NotTo(HaveOccurred())
		return race.Entry{Vehicle: v, Options: vehicles.DefaultOptions()}
	}

	It("races two cars", func() {
		c, err := race.Run(context.Background(), entry("bugatti_chiron"), entry("lamborghini_aventador"), env, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Vehicle1.VehicleID).To(Equal("bugatti_chiron"))
		Expect(c.Vehicle2.VehicleID).To(Equal("lamborghini_aventador"))
		Expect(c.WinnerMetric).To(Equal(race.To100))
		Expect(c.Winner).To(BeElementOf(1, 2))
		Expect(c.Time1).NotTo(BeNil())
		Expect(c.Time2).NotTo(BeNil())
	})

	It("gives a mixed race a winner", func() {
		c, err := race.Run(context.Background(), entry("tesla_model_s_plaid"), entry("f16_viper"), env, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.WinnerMetric).To(Equal(race.ToSpeed))
		Expect(c.Winner).NotTo(BeZero())
	})

	It("is deterministic", func() {
		a, err := race.Run(context.Background(), entry("f16_viper"), entry("f15_eagle"), env, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		b, err := race.Run(context.Background(), entry("f16_viper"), entry("f15_eagle"), env, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Winner).To(Equal(b.Winner))
		Expect(*a.Time1).To(Equal(*b.Time1))
	})

	It("propagates simulation errors", func() {
		bad := entry("bugatti_chiron")
		bad.Options.PowerMultiplier = -1
		_, err := race.Run(context.Background(), entry("f16_viper"), bad, env, sim.DefaultConfig())
		Expect(err).To(MatchError(sim.ErrParameterBounds))
		Expect(err.Error()).To(ContainSubstring("vehicle 2"))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := race.Run(ctx, entry("f16_viper"), entry("f15_eagle"), env, sim.DefaultConfig())
		Expect(err).To(MatchError(context.Canceled))
	})
})
