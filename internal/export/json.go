package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dragsim/internal/sim"
)

// WriteJSON writes v indented. Results use their wire field names.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ExportJSON(path string, r *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, r)
}

func ExportJSONStdout(r *sim.Result) error {
	return WriteJSON(os.Stdout, r)
}
