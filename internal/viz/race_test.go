package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
)

// ramp builds a car result accelerating at a km/h per second for n steps.
func ramp(id string, a float64, n int) *sim.Result {
	r := &sim.Result{VehicleID: id, VehicleName: strings.ToUpper(id), Category: sim.Car, Dt: 0.01}
	r.Normalize()
	x := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) * r.Dt
		v := a * t
		x += v / 3.6 * r.Dt
		r.Time = append(r.Time, t)
		r.Velocity = append(r.Velocity, v)
		r.Distance = append(r.Distance, x)
		r.Acceleration = append(r.Acceleration, a/3.6)
		r.GForce = append(r.GForce, a/3.6/9.81)
		if v >= 100 {
			sim.Latch(&r.CarMilestones.To100, t)
		}
	}
	r.FinalVelocity = r.Velocity[n-1]
	r.FinalDistance = x
	r.Duration = r.Time[n-1] + r.Dt
	return r
}

func newModel() RaceModel {
	return NewRaceModel(race.Compare(ramp("fast", 40, 300), ramp("slow", 30, 400)))
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m RaceModel, msg tea.Msg) RaceModel {
	next, _ := m.Update(msg)
	return next.(RaceModel)
}

func TestRaceModelTick(t *testing.T) {
	m := newModel()
	if m.Clock() != 0 {
		t.Fatalf("expected clock 0, got %f", m.Clock())
	}

	m = update(m, TickMsg{})
	if want := 1.0 / frameRate; m.Clock() != want {
		t.Errorf("expected clock %f, got %f", want, m.Clock())
	}

	for i := 0; i < 10*frameRate; i++ {
		m = update(m, TickMsg{})
	}
	if !m.Finished() {
		t.Error("expected playback to finish")
	}
	if m.Clock() != m.end {
		t.Errorf("expected clock clamped to %f, got %f", m.end, m.Clock())
	}
}

func TestRaceModelPause(t *testing.T) {
	m := update(newModel(), key(" "))
	m = update(m, TickMsg{})
	if m.Clock() != 0 {
		t.Errorf("paused model advanced to %f", m.Clock())
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("expected PAUSED in view")
	}

	m = update(m, key(" "))
	m = update(m, TickMsg{})
	if m.Clock() == 0 {
		t.Error("resumed model did not advance")
	}
}

func TestRaceModelScrubAndRestart(t *testing.T) {
	m := update(newModel(), key("]"))
	if m.Clock() != scrubStep {
		t.Errorf("expected clock %f, got %f", scrubStep, m.Clock())
	}
	m = update(m, key("["))
	m = update(m, key("["))
	if m.Clock() != 0 {
		t.Errorf("expected clock clamped to 0, got %f", m.Clock())
	}

	m = update(m, key("]"))
	m = update(m, key("r"))
	if m.Clock() != 0 {
		t.Errorf("expected restart at 0, got %f", m.Clock())
	}
}

func TestRaceModelPlaybackSpeed(t *testing.T) {
	m := newModel()
	for i := 0; i < 10; i++ {
		m = update(m, key("+"))
	}
	if m.playback != maxPlayback {
		t.Errorf("expected playback %f, got %f", maxPlayback, m.playback)
	}
	for i := 0; i < 10; i++ {
		m = update(m, key("-"))
	}
	if m.playback != minPlayback {
		t.Errorf("expected playback %f, got %f", minPlayback, m.playback)
	}
}

func TestRaceModelQuit(t *testing.T) {
	_, cmd := newModel().Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestRaceModelView(t *testing.T) {
	m := newModel()
	view := m.View()
	for _, want := range []string{"FAST", "SLOW", "0-100 km/h"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
	if strings.Contains(view, "wins") {
		t.Error("winner shown before the finish")
	}

	for i := 0; i < 10; i++ {
		m = update(m, key("]"))
	}
	view = m.View()
	if !strings.Contains(view, "FAST wins") {
		t.Errorf("expected FAST to win, view:\n%s", view)
	}
	if !strings.Contains(view, "FINISHED") {
		t.Error("expected FINISHED status")
	}
}

func TestSampleAt(t *testing.T) {
	r := ramp("a", 36, 100)
	tests := []struct {
		t    float64
		want int
	}{
		{0, 0},
		{0.5, 50},
		{0.505, 50},
		{5, 99},
		{-1, 0},
	}
	for _, tt := range tests {
		if _, got := sampleAt(r, tt.t); got != tt.want {
			t.Errorf("sampleAt(%f): expected %d, got %d", tt.t, tt.want, got)
		}
	}

	if _, got := sampleAt(&sim.Result{}, 1); got != -1 {
		t.Errorf("expected -1 for empty result, got %d", got)
	}
}
