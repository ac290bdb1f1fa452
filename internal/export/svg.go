package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dragsim/internal/sim"
)

// Series selects the quantity plotted against time.
type Series string

const (
	Velocity Series = "velocity"
	Distance Series = "distance"
	GForce   Series = "g_force"
)

var seriesUnits = map[Series]string{
	Velocity: "km/h",
	Distance: "m",
	GForce:   "g",
}

// Palette colors the lines of a chart in result order.
var Palette = []string{"#3b82f6", "#f97316", "#22c55e", "#e11d48", "#a855f7"}

func ParseSeries(name string) (Series, error) {
	s := Series(name)
	if _, ok := seriesUnits[s]; !ok {
		return "", fmt.Errorf("export: unknown series %q", name)
	}
	return s, nil
}

func (s Series) values(r *sim.Result) []float64 {
	switch s {
	case Distance:
		return r.Distance
	case GForce:
		return r.GForce
	default:
		return r.Velocity
	}
}

// ChartSVG draws one line per result for series against time, on shared
// axes with 10% padding.
func ChartSVG(results []*sim.Result, series Series, width, height int) string {
	type point struct{ X, Y float64 }
	lines := make([][]point, 0, len(results))

	first := true
	var minX, maxX, minY, maxY float64
	for _, r := range results {
		ys := series.values(r)
		pts := make([]point, len(ys))
		for i, y := range ys {
			p := point{r.Time[i], y}
			pts[i] = p
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
			}
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
		lines = append(lines, pts)
	}
	if first {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="8" y="16" fill="#cbd5e1" font-family="monospace" font-size="12">%s (%s) vs time (s)</text>
`, width, height, width, height, series, seriesUnits[series]))

	for i, pts := range lines {
		if len(pts) < 2 {
			continue
		}
		color := Palette[i%len(Palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for j, p := range pts {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 32+16*i, color, label(results[i])))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func label(r *sim.Result) string {
	name := r.VehicleName
	if name == "" {
		name = r.VehicleID
	}
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(name)
}
