package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/dragsim/internal/sim"
)

const (
	SummarySheet  = "Summary"
	maxSheetName  = 31
	invalidSheetC = `:\/?*[]`
)

var summaryHeader = []any{
	"Vehicle", "Name", "Category", "Termination", "Duration (s)",
	"Final velocity (km/h)", "Final distance (m)",
	"0-100 (s)", "400 m (s)", "1 km (s)", "Takeoff (s)", "Runway (m)",
}

// XLSX builds a workbook with a Summary sheet and one sheet of samples per
// result.
func XLSX(results ...*sim.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for i, r := range results {
		row := []any{
			r.VehicleID, r.VehicleName, string(r.Category), string(r.Termination),
			r.Duration, r.FinalVelocity, r.FinalDistance,
			cell(r.Time0To100), cell(r.TimeQuarterMile), cell(r.Time1Km),
			cell(r.TimeTakeoff), cell(r.RunwayDistance),
		}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}

		name := sheetName(r.VehicleID, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeSamples(f, name, r); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSamples(f *excelize.File, sheet string, r *sim.Result) error {
	header := make([]any, len(CSVHeader))
	for i, h := range CSVHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := 0; i < r.Len(); i++ {
		row := []any{r.Time[i], r.Distance[i], r.Velocity[i], r.Acceleration[i], r.GForce[i]}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func WriteXLSX(path string, results ...*sim.Result) error {
	f, err := XLSX(results...)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func cell(get func() (float64, bool)) any {
	if v, ok := get(); ok {
		return v
	}
	return ""
}

// sheetName makes a unique, legal sheet name from a vehicle id. Sheet
// names compare case-insensitively.
func sheetName(id string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetC, r) {
			return '_'
		}
		return r
	}, id)
	if base == "" {
		base = "run"
	}

	name := truncate(base, maxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
