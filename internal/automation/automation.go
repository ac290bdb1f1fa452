// Package automation runs scripted sequences of simulations and races
// described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragsim/internal/config"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a named list of steps run in order.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step simulates Vehicle, or races it against Opponent when one is set.
// Preset replaces the runner's base environment and Environment replaces
// both, except that an empty surface keeps the one before it. Options
// replaces the base options entirely.
type Step struct {
	Vehicle     string                    `yaml:"vehicle"`
	Opponent    string                    `yaml:"opponent,omitempty"`
	Preset      string                    `yaml:"preset,omitempty"`
	Environment *config.EnvironmentConfig `yaml:"environment,omitempty"`
	Options     *vehicles.Options         `yaml:"options,omitempty"`
}

func (s Step) IsRace() bool { return s.Opponent != "" }

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	return &scenario, nil
}

// Outcome is the product of one step. Exactly one of Result and Race is
// set.
type Outcome struct {
	Step        int
	Environment physics.Environment
	Options     vehicles.Options
	Result      *sim.Result
	Race        *race.Comparison
}

// Results returns every sim.Result the outcome holds.
func (o Outcome) Results() []*sim.Result {
	if o.Race != nil {
		return []*sim.Result{o.Race.Vehicle1, o.Race.Vehicle2}
	}
	return []*sim.Result{o.Result}
}

type Runner struct {
	Catalog     *vehicles.Catalog
	Environment config.EnvironmentConfig
	Options     vehicles.Options
	Config      sim.Config
	// Progress, if set, is called before each step.
	Progress func(i, n int, s Step)
}

// Validate resolves every step without running any, so a bad scenario
// fails before the first simulation.
func (r *Runner) Validate(s *Scenario) error {
	if len(s.Steps) == 0 {
		return ErrEmptyScenario
	}
	for i, step := range s.Steps {
		if _, _, err := r.resolve(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// Run executes the steps in order and stops at the first failure,
// returning the outcomes completed so far.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]Outcome, error) {
	if err := r.Validate(s); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(s.Steps))
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if r.Progress != nil {
			r.Progress(i+1, len(s.Steps), step)
		}

		out, err := r.runStep(ctx, step)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		out.Step = i + 1
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (Outcome, error) {
	env, opts, err := r.resolve(step)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Environment: env, Options: opts}

	v, err := r.Catalog.Lookup(step.Vehicle)
	if err != nil {
		return out, err
	}
	if !step.IsRace() {
		out.Result, err = v.Simulate(env, opts, r.Config)
		return out, err
	}

	opp, err := r.Catalog.Lookup(step.Opponent)
	if err != nil {
		return out, err
	}
	out.Race, err = race.Run(ctx,
		race.Entry{Vehicle: v, Options: opts},
		race.Entry{Vehicle: opp, Options: opts},
		env, r.Config)
	return out, err
}

func (r *Runner) resolve(step Step) (physics.Environment, vehicles.Options, error) {
	if _, err := r.Catalog.Lookup(step.Vehicle); err != nil {
		return physics.Environment{}, vehicles.Options{}, err
	}
	if step.IsRace() {
		if _, err := r.Catalog.Lookup(step.Opponent); err != nil {
			return physics.Environment{}, vehicles.Options{}, err
		}
	}

	ec := r.Environment
	if step.Preset != "" {
		p := config.GetPreset(step.Preset)
		if p == nil {
			return physics.Environment{}, vehicles.Options{}, fmt.Errorf("unknown preset: %s", step.Preset)
		}
		ec = *p
	}
	if step.Environment != nil {
		surface := ec.Surface
		ec = *step.Environment
		if ec.Surface == "" {
			ec.Surface = surface
		}
	}
	env, err := ec.Environment()
	if err != nil {
		return physics.Environment{}, vehicles.Options{}, err
	}

	opts := r.Options
	if step.Options != nil {
		opts = *step.Options
	}
	return env, opts, nil
}
