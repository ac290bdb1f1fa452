package vehicles_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dragsim/internal/models"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

var _ = Describe("Catalog", func() {
	var cat *vehicles.Catalog

	BeforeEach(func() {
		cat = vehicles.Default()
	})

	Describe("the built-in database", func() {
		It("holds three cars and two jets", func() {
			Expect(cat.Cars()).To(HaveLen(3))
			Expect(cat.Jets()).To(HaveLen(2))
			Expect(cat.IDs()).To(Equal([]string{
				"bugatti_chiron", "f15_eagle", "f16_viper",
				"lamborghini_aventador", "tesla_model_s_plaid",
			}))
		})

		It("decodes class specific specs", func() {
			plaid, err := cat.Lookup("tesla_model_s_plaid")
			Expect(err).NotTo(HaveOccurred())
			Expect(plaid.Jet).To(BeNil())
			Expect(plaid.Car.Mass).To(Equal(2150.0))
			Expect(plaid.Car.Drivetrain).To(Equal(physics.AWD))
			Expect(plaid.Car.Acceleration0To100).To(Equal(2.15))

			eagle, err := cat.Lookup("f15_eagle")
			Expect(err).NotTo(HaveOccurred())
			Expect(eagle.Car).To(BeNil())
			Expect(eagle.Jet.WetThrust).To(Equal(100.6))
			Expect(eagle.Jet.RunwayLength).To(Equal(1500.0))
			Expect(eagle.Jet.MaxLoadedWeight).To(Equal(30844.0))
		})

		It("returns independent copies", func() {
			kart := vehicles.Vehicle{
				ID:       "kart",
				Name:     "Kart",
				Category: sim.Car,
				Car: &vehicles.CarSpec{GroundVehicle: models.GroundVehicle{
					Mass:            150,
					Drivetrain:      physics.RWD,
					DragCoefficient: 0.8,
					FrontalArea:     0.6,
					Horsepower:      15,
					Torque:          20,
				}},
			}

			other := vehicles.Default()
			Expect(other.Put(kart)).To(Succeed())
			Expect(other.Len()).To(Equal(6))
			Expect(cat.Len()).To(Equal(5))
			Expect(other.Put(vehicles.Vehicle{ID: "empty", Category: sim.Car})).To(MatchError(sim.ErrParameterBounds))
		})
	})

	Describe("Lookup", func() {
		It("fails with ErrVehicleNotFound for unknown ids", func() {
			_, err := cat.Lookup("delorean")
			Expect(err).To(MatchError(vehicles.ErrVehicleNotFound))
		})
	})

	Describe("Load", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		write := func(body string) string {
			path := filepath.Join(dir, "extra.yaml")
			Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())
			return path
		}

		It("adds new vehicles and overrides by id", func() {
			path := write(`
cars:
  - id: tesla_model_s_plaid
    name: Plaid (tuned)
    category: car
    specs: {horsepower: 1100, torque: 1700, curb_weight: 2100, drivetrain: AWD, drag_coefficient: 0.2, frontal_area: 2.2}
  - id: mx5
    name: Mazda MX-5
    category: car
    specs: {horsepower: 181, torque: 205, curb_weight: 1060, drivetrain: RWD, drag_coefficient: 0.35, frontal_area: 1.8}
`)
			Expect(cat.Load(path)).To(Succeed())
			Expect(cat.Len()).To(Equal(6))

			plaid, err := cat.Lookup("tesla_model_s_plaid")
			Expect(err).NotTo(HaveOccurred())
			Expect(plaid.Name).To(Equal("Plaid (tuned)"))
			Expect(plaid.Car.Horsepower).To(Equal(1100.0))

			mx5, err := cat.Lookup("mx5")
			Expect(err).NotTo(HaveOccurred())
			Expect(mx5.Car.Drivetrain).To(Equal(physics.RWD))
		})

		It("rejects invalid specs", func() {
			path := write(`
cars:
  - id: ghost
    category: car
    specs: {horsepower: 0, torque: 100, curb_weight: 1000, drivetrain: AWD, frontal_area: 2}
`)
			Expect(cat.Load(path)).To(MatchError(sim.ErrParameterBounds))
			Expect(cat.Len()).To(Equal(5))
		})

		It("rejects unknown drivetrains and categories", func() {
			Expect(cat.Load(write(`
cars:
  - id: x
    category: car
    specs: {horsepower: 1, torque: 1, curb_weight: 1, drivetrain: 4WD, frontal_area: 1}
`))).To(MatchError(physics.ErrUnknownDrivetrain))

			Expect(cat.Load(write(`
cars:
  - id: boat
    category: boat
`))).To(MatchError(vehicles.ErrUnknownCategory))
		})

		It("rejects duplicate ids within one file", func() {
			Expect(cat.Load(write(`
jets:
  - id: j
    category: fighter_jet
    specs: {dry_thrust: 1, wet_thrust: 1, empty_weight: 1, takeoff_weight: 1, wing_area: 1, takeoff_speed: 1, runway_length: 1}
  - id: j
    category: fighter_jet
    specs: {dry_thrust: 1, wet_thrust: 1, empty_weight: 1, takeoff_weight: 1, wing_area: 1, takeoff_speed: 1, runway_length: 1}
`))).To(MatchError(vehicles.ErrDuplicateVehicle))
		})

		It("fails on a missing file", func() {
			Expect(cat.Load(filepath.Join(dir, "nope.yaml"))).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("JSON", func() {
		It("nests specs under one key and round trips", func() {
			viper, err := cat.Lookup("f16_viper")
			Expect(err).NotTo(HaveOccurred())

			data, err := json.Marshal(viper)
			Expect(err).NotTo(HaveOccurred())

			var generic map[string]any
			Expect(json.Unmarshal(data, &generic)).To(Succeed())
			Expect(generic).To(HaveKeyWithValue("category", "fighter_jet"))
			Expect(generic).To(HaveKey("imageUrl"))
			Expect(generic["specs"]).To(HaveKeyWithValue("takeoff_speed", 260.0))

			var back vehicles.Vehicle
			Expect(json.Unmarshal(data, &back)).To(Succeed())
			Expect(back).To(Equal(viper))
		})
	})
})

var _ = Describe("Vehicle.Simulate", func() {
	cat := vehicles.Default()
	env := physics.NewEnvironment(24, 120, physics.Dry)

	It("stamps id and name and attaches metrics", func() {
		chiron, err := cat.Lookup("bugatti_chiron")
		Expect(err).NotTo(HaveOccurred())

		r, err := chiron.Simulate(env, vehicles.DefaultOptions(), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(r.VehicleID).To(Equal("bugatti_chiron"))
		Expect(r.VehicleName).To(Equal("Bugatti Chiron"))
		Expect(r.Category).To(Equal(sim.Car))
		Expect(r.Metrics).To(HaveKey("peak_g_force"))

		_, ok := r.Time0To100()
		Expect(ok).To(BeTrue())
	})

	It("dispatches jets to the takeoff model", func() {
		viper, err := cat.Lookup("f16_viper")
		Expect(err).NotTo(HaveOccurred())

		r, err := viper.Simulate(env, vehicles.DefaultOptions(), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Category).To(Equal(sim.FighterJet))
		Expect(r.Termination).To(Equal(sim.Takeoff))
		Expect(r.CarMilestones).To(BeNil())
	})

	It("reads class specific options", func() {
		viper, _ := cat.Lookup("f16_viper")
		opts := vehicles.DefaultOptions()
		opts.PowerMultiplier = 0

		_, err := viper.Simulate(env, opts, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		chiron, _ := cat.Lookup("bugatti_chiron")
		_, err = chiron.Simulate(env, opts, sim.DefaultConfig())
		Expect(err).To(MatchError(sim.ErrParameterBounds))
	})

	It("rejects a bad config before stepping", func() {
		chiron, _ := cat.Lookup("bugatti_chiron")
		_, err := chiron.Simulate(env, vehicles.DefaultOptions(), sim.Config{Dt: -1, MaxTime: 1})
		Expect(err).To(MatchError(sim.ErrInvalidConfig))
	})
})
