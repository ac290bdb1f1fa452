package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/dragsim/internal/config"
	"github.com/san-kum/dragsim/internal/log"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/storage"
	"github.com/san-kum/dragsim/internal/vehicles"
)

var (
	dataDir     string
	configFile  string
	catalogPath string
	logLevel    string
	logDir      string

	preset        string
	temperature   float64
	altitude      float64
	surface       string
	power         float64
	thrust        float64
	afterburner   bool
	takeoffWeight bool
	dt            float64
	maxTime       float64

	noSave    bool
	jsonOut   bool
	live      bool
	series    string
	width     int
	height    int
	output    string
	sweep     []string
	objective string
	addr      string
	check     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dragsim",
		Short:         "drag race and takeoff simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dragsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "extra vehicle catalog (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "log directory (default: user config dir)")

	runCmd := &cobra.Command{
		Use:   "run [vehicle]",
		Short: "simulate one vehicle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "don't store the run")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")

	raceCmd := &cobra.Command{
		Use:   "race [vehicle1] [vehicle2]",
		Short: "race two vehicles under the same conditions",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runRace,
	}
	addSimFlags(raceCmd)
	raceCmd.Flags().BoolVar(&live, "live", false, "replay the race in the terminal")
	raceCmd.Flags().BoolVar(&noSave, "no-save", false, "don't store the runs")

	vehiclesCmd := &cobra.Command{
		Use:   "vehicles",
		Short: "list the vehicle catalog",
		RunE:  listVehicles,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list environment presets",
		RunE:  listPresets,
	}

	densityCmd := &cobra.Command{
		Use:   "density",
		Short: "air density for a temperature and altitude",
		RunE:  showDensity,
	}
	densityCmd.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "temperature (°C)")
	densityCmd.Flags().Float64Var(&altitude, "alt", config.DefaultAltitude, "altitude (m)")
	densityCmd.Flags().BoolVar(&check, "check", false, "verify the sea level calibration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the full result to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	exportXLSXCmd := &cobra.Command{
		Use:   "export-xlsx [run_id...]",
		Short: "export runs to an Excel workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportXLSX,
	}
	exportXLSXCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: "+defaultWorkbook+")")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id...]",
		Short: "chart runs as SVG",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	exportSVGCmd.Flags().StringVar(&series, "series", "velocity", "series to chart (velocity, distance, g_force)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "chart width")
	exportSVGCmd.Flags().IntVar(&height, "height", 400, "chart height")

	sweepCmd := &cobra.Command{
		Use:   "sweep [vehicle]",
		Short: "grid search conditions for the best milestone time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringSliceVar(&sweep, "param", []string{"multiplier"}, "parameters to sweep (multiplier, temperature, altitude)")
	sweepCmd.Flags().StringVar(&objective, "objective", "", "milestone to minimize (default by category)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs and races",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(scenarioCmd)
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "don't store the runs")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the REST API",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	serveCmd.Flags().Float64Var(&maxTime, "max-time", sim.DefaultMaxTime, "simulation time limit")

	rootCmd.AddCommand(runCmd, raceCmd, vehiclesCmd, presetsCmd, densityCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportXLSXCmd, exportSVGCmd, sweepCmd, scenarioCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(c *cobra.Command) {
	c.Flags().StringVar(&preset, "preset", "", "environment preset")
	c.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "temperature (°C)")
	c.Flags().Float64Var(&altitude, "alt", config.DefaultAltitude, "altitude (m)")
	c.Flags().StringVar(&surface, "surface", config.DefaultSurface, "surface condition (dry, wet, icy)")
	c.Flags().Float64Var(&power, "power", 1.0, "engine power multiplier (cars)")
	c.Flags().Float64Var(&thrust, "thrust", 1.0, "thrust multiplier (jets)")
	c.Flags().BoolVar(&afterburner, "afterburner", true, "use afterburner (jets)")
	c.Flags().BoolVar(&takeoffWeight, "takeoff-weight", true, "use loaded takeoff weight (jets)")
	c.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	c.Flags().Float64Var(&maxTime, "max-time", sim.DefaultMaxTime, "simulation time limit")
}

// loadConfig layers the config file, then the preset, then explicitly set
// flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Environment = *p
	}

	flags := cmd.Flags()
	if flags.Changed("temp") {
		cfg.Environment.Temperature = temperature
	}
	if flags.Changed("alt") {
		cfg.Environment.Altitude = altitude
	}
	if flags.Changed("surface") {
		cfg.Environment.Surface = surface
	}
	if flags.Changed("power") {
		cfg.PowerMultiplier = power
	}
	if flags.Changed("thrust") {
		cfg.ThrustMultiplier = thrust
	}
	if flags.Changed("afterburner") {
		cfg.Afterburner = afterburner
	}
	if flags.Changed("takeoff-weight") {
		cfg.TakeoffWeight = takeoffWeight
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("max-time") {
		cfg.MaxTime = maxTime
	}
	if flags.Changed("catalog") {
		cfg.Catalog = catalogPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = logDir
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is what every simulating command needs.
type session struct {
	cfg     *config.Config
	catalog *vehicles.Catalog
	store   *storage.Store
	lg      *log.Logger
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	catalog := vehicles.Default()
	if cfg.Catalog != "" {
		if err := catalog.Load(cfg.Catalog); err != nil {
			return nil, err
		}
	}

	lg, err := log.New(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	lg = lg.With("command", cmd.Name())
	lg.Info("start", "config", configFile)
	lg.Debugf("catalog has %d vehicles", catalog.Len())

	return &session{
		cfg:     cfg,
		catalog: catalog,
		store:   storage.New(dataDir),
		lg:      lg,
	}, nil
}

func (s *session) Close() {
	s.lg.Close()
}
