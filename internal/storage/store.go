// Package storage keeps finished runs on disk, one directory per run:
// metadata.json, scenario.yaml and telemetry.csv.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	scenarioFile  = "scenario.yaml"
	telemetryFile = "telemetry.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Ticks     int                `json:"ticks"`
	Particles int                `json:"particles"`
	Capacity  int                `json:"capacity"`
	Index     string             `json:"neighbor_index"`
	ForceMode string             `json:"external_force_mode"`
	Metrics   map[string]float64 `json:"metrics"`
	Error     string             `json:"error,omitempty"`
}

// Save writes a run and returns its ID. runErr, when set, is recorded in the
// metadata; the partial telemetry is still saved.
func (s *Store) Save(sc *config.Scenario, res *sim.Result, runErr error) (string, error) {
	if err := s.Init(); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	ts := s.now()
	runID, err := s.mkdirUnique(fmt.Sprintf("%s_%d", sc.Name, ts.Unix()))
	if err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, runID)

	meta := RunMetadata{
		ID:        runID,
		Scenario:  sc.Name,
		Timestamp: ts,
		Seed:      sc.Fluid.Seed,
		Dt:        sc.Fluid.Dt,
		Ticks:     res.Ticks,
		Particles: res.Final.Len(),
		Capacity:  res.Final.Capacity,
		Index:     sc.Fluid.NeighborIndex,
		ForceMode: string(sc.Fluid.ForceMode),
		Metrics:   finiteOnly(res.Metrics),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), sc); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, telemetryFile))
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	err = gocsv.MarshalFile(&res.Stats, f)
	if err != nil {
		err = fmt.Errorf("storage: writing telemetry: %w", err)
	}
	if err := closeFile(f, err); err != nil {
		return "", err
	}
	return runID, nil
}

// closeFile closes c and reports the first of err and the close error.
func closeFile(c io.Closer, err error) error {
	if cerr := c.Close(); cerr != nil && err == nil {
		return fmt.Errorf("storage: close: %w", cerr)
	}
	return err
}

func (s *Store) mkdirUnique(base string) (string, error) {
	id := base
	for i := 1; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0755)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("storage: %w", err)
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

// finiteOnly drops NaN and Inf, which encoding/json rejects.
func finiteOnly(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	err = enc.Encode(v)
	if err != nil {
		err = fmt.Errorf("storage: encoding %s: %w", filepath.Base(path), err)
	}
	return closeFile(f, err)
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
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
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// Scenario reloads the scenario a run was started with.
func (s *Store) Scenario(runID string) (*config.Scenario, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

func (s *Store) LoadTelemetry(runID string) ([]sim.TickStats, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, telemetryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []sim.TickStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("storage: %s telemetry: %w", runID, err)
	}
	return rows, nil
}

// TelemetryPath is the CSV file of a run, for export.
func (s *Store) TelemetryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, telemetryFile)
}
