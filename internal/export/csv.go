package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/dragsim/internal/sim"
)

var CSVHeader = []string{"time", "distance", "velocity", "acceleration", "g_force"}

// WriteCSV writes one row per sample with six decimals.
func WriteCSV(w io.Writer, r *sim.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := 0; i < r.Len(); i++ {
		row := []string{
			formatFloat(r.Time[i]),
			formatFloat(r.Distance[i]),
			formatFloat(r.Velocity[i]),
			formatFloat(r.Acceleration[i]),
			formatFloat(r.GForce[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, r *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, r)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
