package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dragsim/internal/config"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

const scenarioYAML = `name: track day
description: a run, a preset run and a race
steps:
  - vehicle: tesla_model_s_plaid
  - vehicle: tesla_model_s_plaid
    preset: ice
  - vehicle: f16_viper
    environment:
      temperature: 35
      altitude: 1500
    options:
      thrust_multiplier: 1.0
      use_afterburner: false
      use_takeoff_weight: true
  - vehicle: bugatti_chiron
    opponent: f15_eagle
`

func newRunner() *Runner {
	cfg := config.DefaultConfig()
	return &Runner{
		Catalog:     vehicles.Default(),
		Environment: cfg.Environment,
		Options:     cfg.Options(),
		Config:      cfg.SimConfig(),
	}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "track day" {
		t.Errorf("expected name 'track day', got %q", s.Name)
	}
	if len(s.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(s.Steps))
	}
	if !s.Steps[3].IsRace() || s.Steps[0].IsRace() {
		t.Error("expected only the last step to be a race")
	}
	if s.Steps[2].Options == nil || s.Steps[2].Options.UseAfterburner {
		t.Errorf("expected afterburner off in step 3, got %+v", s.Steps[2].Options)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	if _, err := LoadScenario("/nonexistent/scenario.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadScenario(writeScenario(t, "steps: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestRun(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	r := newRunner()
	var seen []int
	r.Progress = func(i, n int, _ Step) {
		if n != 4 {
			t.Errorf("expected 4 steps, got %d", n)
		}
		seen = append(seen, i)
	}

	outcomes, err := r.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 4 || len(seen) != 4 {
		t.Fatalf("expected 4 outcomes and 4 progress calls, got %d and %d", len(outcomes), len(seen))
	}

	if got := outcomes[0].Environment.Temperature; got != config.DefaultTemperature {
		t.Errorf("step 1: expected base temperature, got %f", got)
	}
	if got := outcomes[1].Environment.Surface; got != physics.Icy {
		t.Errorf("step 2: expected icy preset, got %s", got)
	}

	dry, _ := outcomes[0].Result.Time0To100()
	icy, ok := outcomes[1].Result.Time0To100()
	if ok && icy <= dry {
		t.Errorf("expected ice to be slower: dry %f, icy %f", dry, icy)
	}

	jet := outcomes[2]
	if jet.Environment.Altitude != 1500 || jet.Environment.Surface != physics.Dry {
		t.Errorf("step 3: expected 1500 m on the base surface, got %+v", jet.Environment)
	}
	if jet.Options.UseAfterburner {
		t.Error("step 3: expected afterburner off")
	}
	if jet.Result.Category != sim.FighterJet {
		t.Errorf("step 3: expected fighter jet, got %s", jet.Result.Category)
	}

	last := outcomes[3]
	if last.Race == nil || last.Result != nil {
		t.Fatal("step 4: expected a race outcome")
	}
	if last.Race.WinnerMetric != race.ToSpeed {
		t.Errorf("step 4: expected %s, got %s", race.ToSpeed, last.Race.WinnerMetric)
	}
	if got := len(last.Results()); got != 2 {
		t.Errorf("step 4: expected 2 results, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	r := newRunner()
	tests := []struct {
		name string
		s    Scenario
		want error
	}{
		{"empty", Scenario{}, ErrEmptyScenario},
		{"unknown vehicle", Scenario{Steps: []Step{{Vehicle: "delorean"}}}, vehicles.ErrVehicleNotFound},
		{"unknown opponent", Scenario{Steps: []Step{{Vehicle: "f16_viper", Opponent: "delorean"}}}, vehicles.ErrVehicleNotFound},
		{"bad surface", Scenario{Steps: []Step{{Vehicle: "f16_viper", Environment: &config.EnvironmentConfig{Surface: "sand"}}}}, physics.ErrUnknownSurface},
	}
	for _, tt := range tests {
		if err := r.Validate(&tt.s); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	bad := Scenario{Steps: []Step{{Vehicle: "f16_viper", Preset: "moon"}}}
	if err := r.Validate(&bad); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{Steps: []Step{{Vehicle: "f16_viper"}}}
	outcomes, err := newRunner().Run(ctx, s)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}
