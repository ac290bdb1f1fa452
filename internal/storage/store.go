package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/dragsim/internal/export"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	resultFile   = "result.msgpack"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string              `json:"id"`
	VehicleID   string              `json:"vehicle_id"`
	VehicleName string              `json:"vehicle_name"`
	Category    sim.Category        `json:"category"`
	Timestamp   time.Time           `json:"timestamp"`
	Environment physics.Environment `json:"environment"`
	Options     vehicles.Options    `json:"options"`
	Dt          float64             `json:"dt"`
	Duration    float64             `json:"duration"`
	Samples     int                 `json:"samples"`
	Termination sim.Termination     `json:"termination"`
	Milestones  map[string]float64  `json:"milestones,omitempty"`
	Metrics     map[string]float64  `json:"metrics,omitempty"`
}

// Save writes result under a fresh run directory and returns its id.
func (s *Store) Save(result *sim.Result, env physics.Environment, opts vehicles.Options) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(result.VehicleID, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		VehicleID:   result.VehicleID,
		VehicleName: result.VehicleName,
		Category:    result.Category,
		Timestamp:   now,
		Environment: env,
		Options:     opts,
		Dt:          result.Dt,
		Duration:    result.Duration,
		Samples:     result.Len(),
		Termination: result.Termination,
		Milestones:  Milestones(result),
		Metrics:     result.Metrics,
	}

	if err := writeRun(runDir, meta, result); err != nil {
		// A partial run must not show up in List.
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, result *sim.Result) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("storage: write metadata: %w", err)
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result); err != nil {
		return fmt.Errorf("storage: write samples: %w", err)
	}

	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("storage: encode result: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, resultFile), data, 0644)
}

func (s *Store) newRunDir(vehicle string, now time.Time) (string, string, error) {
	if vehicle == "" {
		vehicle = "run"
	}
	base := fmt.Sprintf("%s_%d", vehicle, now.Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if err := s.Init(); err != nil {
				return "", "", err
			}
			continue
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

// Milestones flattens the milestone fields set on r, keyed by wire name.
func Milestones(r *sim.Result) map[string]float64 {
	out := make(map[string]float64)
	getters := map[string]func() (float64, bool){
		"time_0_to_100":     r.Time0To100,
		"time_quarter_mile": r.TimeQuarterMile,
		"time_1_km":         r.Time1Km,
		"time_takeoff":      r.TimeTakeoff,
		"runway_distance":   r.RunwayDistance,
	}
	for name, get := range getters {
		if v, ok := get(); ok {
			out[name] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSamples(path string, r *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteCSV(f, r)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := s.read(runID, metadataFile)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads the CSV series of a run. Values carry six decimals;
// use LoadResult for the exact record.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(export.CSVHeader) {
			return nil, fmt.Errorf("storage: %s line %d: expected %d fields, got %d", runID, i+2, len(export.CSVHeader), len(record))
		}
		var vals [5]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", runID, i+2, err)
			}
			vals[j] = v
		}
		samples = append(samples, sim.Sample{
			Step:         i,
			Time:         vals[0],
			Distance:     vals[1],
			Velocity:     vals[2],
			Acceleration: vals[3],
			GForce:       vals[4],
		})
	}

	return samples, nil
}

// LoadResult decodes the full result record of a run.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	data, err := s.read(runID, resultFile)
	if err != nil {
		return nil, err
	}

	var r sim.Result
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return r.Normalize(), nil
}

func (s *Store) read(runID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, notFound(runID, err)
	}
	return data, nil
}

func notFound(runID string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}
