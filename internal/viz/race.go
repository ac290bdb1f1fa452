package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
)

const (
	frameRate   = 60
	barWidth    = 40
	scrubStep   = 0.5 // s
	minPlayback = 0.25
	maxPlayback = 8.0
)

var (
	laneStyle  = lipgloss.NewStyle().Padding(0, 1).MarginBottom(1)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// RaceModel replays a Comparison. Its clock is simulated seconds; every
// frame advances it by playback/frameRate.
type RaceModel struct {
	cmp      *race.Comparison
	lanes    [2]*sim.Result
	clock    float64
	end      float64
	track    float64 // m, longest distance either lane covers
	playback float64
	running  bool
	showHelp bool
}

func NewRaceModel(cmp *race.Comparison) RaceModel {
	m := RaceModel{
		cmp:      cmp,
		lanes:    [2]*sim.Result{cmp.Vehicle1, cmp.Vehicle2},
		playback: 1,
		running:  true,
	}
	for _, r := range m.lanes {
		if r.Len() == 0 {
			continue
		}
		m.end = max(m.end, r.Time[r.Len()-1])
		m.track = max(m.track, r.FinalDistance)
	}
	return m
}

func (m RaceModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m RaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.clock = 0
			m.running = true
		case "[":
			m.seek(m.clock - scrubStep)
		case "]":
			m.seek(m.clock + scrubStep)
		case "+", "=":
			m.playback = min(m.playback*2, maxPlayback)
		case "-":
			m.playback = max(m.playback/2, minPlayback)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.seek(m.clock + m.playback/frameRate)
		}
		return m, tick()
	}
	return m, nil
}

func (m *RaceModel) seek(t float64) {
	m.clock = min(max(t, 0), m.end)
}

// Finished reports whether playback reached the end of both runs.
func (m RaceModel) Finished() bool {
	return m.clock >= m.end
}

func (m RaceModel) Clock() float64 { return m.clock }

// sampleAt is the last sample recorded at or before t.
func sampleAt(r *sim.Result, t float64) (sim.Sample, int) {
	if r.Len() == 0 {
		return sim.Sample{}, -1
	}
	i := int(t/r.Dt + 1e-9)
	i = min(max(i, 0), r.Len()-1)
	return r.Sample(i), i
}

func (m RaceModel) View() string {
	var s strings.Builder

	s.WriteString(GradientText("DRAG RACE", "#00ffff", "#ff00ff"))
	s.WriteString("  " + Subtle.Render(string(m.cmp.WinnerMetric)) + "\n")

	status := StatusRunning.Render(fmt.Sprintf("RUNNING x%g", m.playback))
	switch {
	case m.Finished():
		status = Winner.Render("FINISHED")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(fmt.Sprintf("%s  %s\n\n", status, MetricValue.Render(fmt.Sprintf("t = %.2fs", m.clock))))

	var chart [][]float64
	for i, r := range m.lanes {
		s.WriteString(m.lane(i, r) + "\n")
		if _, idx := sampleAt(r, m.clock); idx > 0 {
			chart = append(chart, r.Velocity[:idx+1])
		}
	}

	if len(chart) > 0 {
		plot := asciigraph.PlotMany(chart,
			asciigraph.Height(6),
			asciigraph.Width(50),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.DarkOrange),
			asciigraph.Caption("Velocity (km/h)"),
		)
		s.WriteString(graphStyle.Render(plot) + "\n")
	}

	if m.Finished() {
		s.WriteString(m.verdict() + "\n")
	}

	s.WriteString(Separator(60) + "\n")
	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause • r restart • [/] scrub • +/- speed • ? help • q quit"))
	} else {
		s.WriteString(helpStyle.Render("? help • q quit"))
	}
	return s.String()
}

func (m RaceModel) lane(i int, r *sim.Result) string {
	cur, idx := sampleAt(r, m.clock)
	color := LaneColors[i%len(LaneColors)]
	name := lipgloss.NewStyle().Bold(true).Foreground(color).Render(r.VehicleName)

	progress := 0.0
	if m.track > 0 {
		progress = cur.Distance / m.track
	}

	var b strings.Builder
	b.WriteString(name + "\n")
	b.WriteString(ProgressBar(progress, barWidth, color) + fmt.Sprintf(" %6.1f m\n", cur.Distance))
	b.WriteString(KeyValue("Speed", fmt.Sprintf("%.1f km/h", cur.Velocity)) + "\n")
	b.WriteString(KeyValue("G-force", fmt.Sprintf("%.2f g", cur.GForce)) + "\n")
	for _, ms := range milestones(r) {
		b.WriteString(KeyValue(ms.label, Seconds(ms.at, ms.ok && ms.at <= m.clock)) + "\n")
	}
	if idx > 0 {
		b.WriteString(SparklineChart(r.Acceleration[:idx+1], barWidth) + "\n")
	}
	return laneStyle.Render(b.String())
}

type milestone struct {
	label string
	at    float64
	ok    bool
}

func milestones(r *sim.Result) []milestone {
	switch r.Category {
	case sim.Car:
		to100, ok1 := r.Time0To100()
		qm, ok2 := r.TimeQuarterMile()
		km, ok3 := r.Time1Km()
		return []milestone{
			{"0-100 km/h", to100, ok1},
			{"Quarter mile", qm, ok2},
			{"1 km", km, ok3},
		}
	case sim.FighterJet:
		to, ok := r.TimeTakeoff()
		return []milestone{{"Takeoff", to, ok}}
	}
	return nil
}

func (m RaceModel) verdict() string {
	c := m.cmp
	if c.Winner == 0 {
		return Winner.Render("No winner")
	}
	name := c.Vehicle1.VehicleName
	if c.Winner == 2 {
		name = c.Vehicle2.VehicleName
	}
	line := fmt.Sprintf("🏁 %s wins", name)
	if margin, ok := c.Margin(); ok {
		line += fmt.Sprintf(" by %.2fs", margin)
	}
	return Winner.Render(line)
}
