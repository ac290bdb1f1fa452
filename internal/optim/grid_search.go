package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/dragsim/internal/sim"
)

var (
	ErrUnknownParam     = errors.New("optim: unknown parameter")
	ErrUnknownObjective = errors.New("optim: unknown objective")
	ErrNoFeasible       = errors.New("optim: no combination reached the objective")
)

// Objective extracts the value to minimize. ok is false when the run never
// reached it.
type Objective func(r *sim.Result) (value float64, ok bool)

var objectives = map[string]Objective{
	"time_0_to_100":     (*sim.Result).Time0To100,
	"time_quarter_mile": (*sim.Result).TimeQuarterMile,
	"time_1_km":         (*sim.Result).Time1Km,
	"time_takeoff":      (*sim.Result).TimeTakeoff,
	"runway_distance":   (*sim.Result).RunwayDistance,
}

func ObjectiveByName(name string) (Objective, error) {
	obj, ok := objectives[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjective, name)
	}
	return obj, nil
}

type Trial struct {
	Params map[string]float64
	Value  float64
	OK     bool
}

type SearchResult struct {
	Best   map[string]float64
	Value  float64
	Trials []Trial
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every combination of the grid in parallel and returns the
// one with the lowest objective. Ties go to the earlier combination.
func (g *GridSearch) Search(
	ctx context.Context,
	run func(params map[string]float64) (*sim.Result, error),
	objective Objective,
) (*SearchResult, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	combos := make([]map[string]float64, 0)
	g.enumerate(0, make(map[string]float64), &combos)

	jobs := make([]sim.Job, len(combos))
	for i, params := range combos {
		jobs[i] = func() (*sim.Result, error) { return run(params) }
	}

	results, err := sim.RunParallel(ctx, jobs...)
	if err != nil {
		return nil, err
	}

	out := &SearchResult{
		Value:  math.Inf(1),
		Trials: make([]Trial, len(combos)),
	}
	for i, r := range results {
		val, ok := objective(r)
		out.Trials[i] = Trial{Params: combos[i], Value: val, OK: ok}
		if ok && val < out.Value {
			out.Value = val
			out.Best = combos[i]
		}
	}
	if out.Best == nil {
		return out, ErrNoFeasible
	}
	return out, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}
