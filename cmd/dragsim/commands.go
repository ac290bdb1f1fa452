package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dragsim/internal/automation"
	"github.com/san-kum/dragsim/internal/config"
	"github.com/san-kum/dragsim/internal/export"
	"github.com/san-kum/dragsim/internal/metrics"
	"github.com/san-kum/dragsim/internal/optim"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/server"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/storage"
	"github.com/san-kum/dragsim/internal/vehicles"
	"github.com/san-kum/dragsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id := s.cfg.Vehicle
	if len(args) > 0 {
		id = args[0]
	}
	v, err := lookupVehicle(s.catalog, id)
	if err != nil {
		return err
	}
	env, err := s.cfg.Environment.Environment()
	if err != nil {
		return err
	}
	opts := s.cfg.Options()

	sm := metrics.NewSimulator()
	sm.AddObserver(metrics.NewLiveObserver(v.ID))

	start := time.Now()
	result, err := v.SimulateWith(sm, env, opts, s.cfg.SimConfig())
	if err != nil {
		s.lg.Error("simulation failed", "vehicle", v.ID, "error", err)
		return err
	}
	elapsed := time.Since(start)
	s.lg.Info("simulation complete",
		"vehicle", v.ID,
		"steps", result.Len(),
		"termination", result.Termination,
		"elapsed", elapsed)

	if jsonOut {
		return export.ExportJSONStdout(result)
	}

	fmt.Printf("%s at %.0f°C, %.0f m, %s (ρ = %.4f kg/m³)\n",
		v.Name, env.Temperature, env.Altitude, env.Surface, env.AirDensity)
	fmt.Printf("completed in %v\n", elapsed)

	if !noSave {
		runID, err := s.store.Save(result, env, opts)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printResult(os.Stdout, result)
	return nil
}

func printResult(w io.Writer, r *sim.Result) {
	fmt.Fprintf(w, "steps: %d\n", r.Len())
	fmt.Fprintf(w, "termination: %s\n", r.Termination)
	fmt.Fprintf(w, "final velocity: %.1f km/h\n", r.FinalVelocity)
	fmt.Fprintf(w, "final distance: %.1f m\n", r.FinalDistance)

	fmt.Fprintln(w, "\nmilestones:")
	ms := storage.Milestones(r)
	if len(ms) == 0 {
		fmt.Fprintln(w, "  none reached")
	}
	printSorted(w, ms)

	fmt.Fprintln(w, "\nmetrics:")
	printSorted(w, r.Metrics)
}

func printSorted(w io.Writer, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %.3f\n", k, m[k])
	}
}

func runRace(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ids := [2]string{s.cfg.Vehicle, s.cfg.Opponent}
	copy(ids[:], args)
	if ids[1] == "" {
		return errors.New("race needs two vehicles")
	}

	var entries [2]race.Entry
	for i, id := range ids {
		v, err := lookupVehicle(s.catalog, id)
		if err != nil {
			return err
		}
		entries[i] = race.Entry{Vehicle: v, Options: s.cfg.Options()}
	}
	env, err := s.cfg.Environment.Environment()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmp, err := race.Run(ctx, entries[0], entries[1], env, s.cfg.SimConfig())
	if err != nil {
		s.lg.Errorf("race %s vs %s failed: %v", ids[0], ids[1], err)
		return err
	}
	s.lg.Info("race complete",
		"vehicle1", ids[0],
		"vehicle2", ids[1],
		"metric", cmp.WinnerMetric,
		"winner", cmp.WinnerID)

	if !noSave {
		for _, r := range []*sim.Result{cmp.Vehicle1, cmp.Vehicle2} {
			runID, err := s.store.Save(r, env, s.cfg.Options())
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
	}

	if live {
		if _, err := tea.NewProgram(viz.NewRaceModel(cmp), tea.WithAltScreen()).Run(); err != nil {
			return err
		}
	}

	printComparison(os.Stdout, cmp)
	return nil
}

func printComparison(w io.Writer, c *race.Comparison) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "VEHICLE\t%s\t%s\tFINAL SPEED\tDISTANCE\tEND\n", c.WinnerMetric, splitLabel)
	for i, r := range []*sim.Result{c.Vehicle1, c.Vehicle2} {
		t := c.Time1
		if i == 1 {
			t = c.Time2
		}
		split, ok := race.TimeToDistance(r, splitDistance)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f km/h\t%.1f m\t%s\n",
			r.VehicleName, formatTime(t), formatSplit(split, ok), r.FinalVelocity, r.FinalDistance, r.Termination)
	}
	tw.Flush()

	if c.Winner == 0 {
		fmt.Fprintln(w, "\nno winner")
		return
	}
	fmt.Fprintf(w, "\nwinner: %s", c.WinnerID)
	if margin, ok := c.Margin(); ok {
		fmt.Fprintf(w, " by %.2fs", margin)
	}
	fmt.Fprintln(w)
}

const (
	splitDistance = 100.0 // m
	splitLabel    = "100 M"
)

func formatTime(t *float64) string {
	if t == nil {
		return "—"
	}
	return formatSplit(*t, true)
}

func formatSplit(t float64, ok bool) string {
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%.2fs", t)
}

// lookupVehicle is Catalog.Lookup with the known ids in the error.
func lookupVehicle(c *vehicles.Catalog, id string) (vehicles.Vehicle, error) {
	v, err := c.Lookup(id)
	if err != nil {
		return v, fmt.Errorf("%w (available: %s)", err, strings.Join(c.IDs(), ", "))
	}
	return v, nil
}

func loadCatalog(cmd *cobra.Command) (*vehicles.Catalog, error) {
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
	return catalog, nil
}

func listVehicles(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tYEAR\tPOWER\tMASS")
	for _, v := range catalog.List() {
		var rating, mass string
		switch {
		case v.Car != nil:
			rating = fmt.Sprintf("%.0f hp", v.Car.Horsepower)
			mass = fmt.Sprintf("%.0f kg", v.Car.Mass)
		case v.Jet != nil:
			rating = fmt.Sprintf("%.0f kN", v.Jet.WetThrust)
			mass = fmt.Sprintf("%.0f kg", v.Jet.TakeoffWeight)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", v.ID, v.Name, v.Category, v.Year, rating, mass)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTEMP\tALT\tSURFACE\tDENSITY")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.0f°C\t%.0f m\t%s\t%.4f\n",
			name, p.Temperature, p.Altitude, p.Surface, physics.Density(p.Temperature, p.Altitude))
	}
	return w.Flush()
}

func showDensity(cmd *cobra.Command, args []string) error {
	if check {
		c := physics.Calibrate()
		fmt.Println(c)
		if !c.Passed {
			return fmt.Errorf("calibration off by %.2f%%", c.RelError*100)
		}
		return nil
	}

	fmt.Printf("%.4f kg/m³ at %.1f°C, %.0f m\n", physics.Density(temperature, altitude), temperature, altitude)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVEHICLE\tTIME\tDURATION\tENV\tEND")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.0f°C/%.0fm/%s\t%s\n",
			run.ID,
			run.VehicleName,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Environment.Temperature,
			run.Environment.Altitude,
			run.Environment.Surface,
			run.Termination,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("vehicle: %s\n", meta.VehicleName)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, p := range plotSeries(samples) {
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

type plot struct {
	data    []float64
	caption string
}

func plotSeries(samples []sim.Sample) []plot {
	velocity := make([]float64, len(samples))
	distance := make([]float64, len(samples))
	gforce := make([]float64, len(samples))
	for i, smp := range samples {
		velocity[i] = smp.Velocity
		distance[i] = smp.Distance
		gforce[i] = smp.GForce
	}
	return []plot{
		{velocity, "velocity (km/h)"},
		{distance, "distance (m)"},
		{gforce, "g-force"},
	}
}

func loadResults(ids []string) ([]*sim.Result, error) {
	st := storage.New(dataDir)
	results := make([]*sim.Result, 0, len(ids))
	for _, id := range ids {
		r, err := st.LoadResult(id)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// withOutput runs write against the output file, or stdout when none is set.
func withOutput(write func(io.Writer) error) error {
	if output == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	results, err := loadResults(args)
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error { return export.WriteCSV(w, results[0]) })
}

func exportJSON(cmd *cobra.Command, args []string) error {
	results, err := loadResults(args)
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error { return export.WriteJSON(w, results[0]) })
}

func exportXLSX(cmd *cobra.Command, args []string) error {
	results, err := loadResults(args)
	if err != nil {
		return err
	}
	if output == "" {
		output = defaultWorkbook
	}
	if err := export.WriteXLSX(output, results...); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d runs)\n", output, len(results))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	s, err := export.ParseSeries(series)
	if err != nil {
		return err
	}
	results, err := loadResults(args)
	if err != nil {
		return err
	}
	svg := export.ChartSVG(results, s, width, height)
	return withOutput(func(w io.Writer) error {
		_, err := io.WriteString(w, svg)
		return err
	})
}

const defaultWorkbook = "dragsim.xlsx"

var sweepRanges = map[string]func() []float64{
	optim.ParamMultiplier:  config.MultiplierSteps,
	optim.ParamTemperature: config.TemperatureSteps,
	optim.ParamAltitude:    config.AltitudeSteps,
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id := s.cfg.Vehicle
	if len(args) > 0 {
		id = args[0]
	}
	v, err := lookupVehicle(s.catalog, id)
	if err != nil {
		return err
	}
	env, err := s.cfg.Environment.Environment()
	if err != nil {
		return err
	}

	name := objective
	if name == "" {
		name = string(race.To100)
		if v.Category == sim.FighterJet {
			name = string(race.TakeoffTime)
		}
	}
	obj, err := optim.ObjectiveByName(name)
	if err != nil {
		return err
	}

	ranges := make([][]float64, len(sweep))
	for i, p := range sweep {
		steps, ok := sweepRanges[p]
		if !ok {
			return fmt.Errorf("%w: %q", optim.ErrUnknownParam, p)
		}
		ranges[i] = steps()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	gs := optim.NewGridSearch(sweep, ranges)
	res, err := gs.Search(ctx, optim.VehicleRunner(v, env, s.cfg.Options(), s.cfg.SimConfig()), obj)
	if res == nil {
		return err
	}
	s.lg.Info("sweep complete",
		"vehicle", v.ID,
		"objective", name,
		"trials", len(res.Trials),
		"elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range sweep {
		fmt.Fprintf(w, "%s\t", p)
	}
	fmt.Fprintln(w, name)
	for _, t := range res.Trials {
		for _, p := range sweep {
			fmt.Fprintf(w, "%g\t", t.Params[p])
		}
		if t.OK {
			fmt.Fprintf(w, "%.2fs\n", t.Value)
		} else {
			fmt.Fprintln(w, "—")
		}
	}
	w.Flush()

	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s: %.2fs at", name, res.Value)
	for _, p := range sweep {
		fmt.Printf(" %s=%g", p, res.Best[p])
	}
	fmt.Println()
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	runner := &automation.Runner{
		Catalog:     s.catalog,
		Environment: s.cfg.Environment,
		Options:     s.cfg.Options(),
		Config:      s.cfg.SimConfig(),
		Progress: func(i, n int, step automation.Step) {
			what := step.Vehicle
			if step.IsRace() {
				what += " vs " + step.Opponent
			}
			fmt.Printf("Running step %d/%d: %s\n", i, n, what)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	outcomes, runErr := runner.Run(ctx, scenario)
	s.lg.Info("scenario complete", "file", args[0], "steps", len(outcomes), "error", runErr)

	for _, out := range outcomes {
		fmt.Printf("\nstep %d (%.0f°C, %.0f m, %s)\n",
			out.Step, out.Environment.Temperature, out.Environment.Altitude, out.Environment.Surface)
		if out.Race != nil {
			printComparison(os.Stdout, out.Race)
		} else {
			printResult(os.Stdout, out.Result)
		}

		if noSave {
			continue
		}
		for _, r := range out.Results() {
			runID, err := s.store.Save(r, out.Environment, out.Options)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
	}
	return runErr
}

func serve(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := server.New(s.catalog, s.cfg.SimConfig(), s.cfg.Server.CacheSize, s.lg)
	s.lg.Infof("serving on %s with cache size %d", s.cfg.Server.Addr, s.cfg.Server.CacheSize)
	fmt.Printf("REST API server running on %s\n", s.cfg.Server.Addr)
	return srv.ListenAndServe(ctx, s.cfg.Server.Addr)
}
