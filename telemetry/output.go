// Package telemetry provides daily records, alerts, season statistics,
// snapshots and CSV output for sward runs.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/sward/config"
)

// csvFile is an output file that writes its header with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir      string
	daily    *csvFile
	harvests *csvFile
	alerts   *csvFile
	perf     *csvFile
	season   *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, out := range []struct {
		name string
		dst  **csvFile
	}{
		{"daily.csv", &om.daily},
		{"harvests.csv", &om.harvests},
		{"alerts.csv", &om.alerts},
		{"perf.csv", &om.perf},
		{"season.csv", &om.season},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = &csvFile{f: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteDaily writes a daily record to daily.csv.
func (om *OutputManager) WriteDaily(r DailyRecord) error {
	if om == nil {
		return nil
	}
	if err := om.daily.write([]DailyRecord{r}); err != nil {
		return fmt.Errorf("writing daily record: %w", err)
	}
	return nil
}

// WriteHarvest writes a harvest record to harvests.csv.
func (om *OutputManager) WriteHarvest(h HarvestRecord) error {
	if om == nil {
		return nil
	}
	if err := om.harvests.write([]HarvestRecord{h}); err != nil {
		return fmt.Errorf("writing harvest: %w", err)
	}
	return nil
}

// WriteAlert writes an alert to alerts.csv.
func (om *OutputManager) WriteAlert(a Alert) error {
	if om == nil {
		return nil
	}
	if err := om.alerts.write([]Alert{a}); err != nil {
		return fmt.Errorf("writing alert: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSeason writes a season summary to season.csv.
func (om *OutputManager) WriteSeason(s SeasonStats) error {
	if om == nil {
		return nil
	}
	if err := om.season.write([]SeasonStats{s}); err != nil {
		return fmt.Errorf("writing season stats: %w", err)
	}
	return nil
}

// WriteSnapshot saves a snapshot under the snapshots/ subdirectory.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil || s == nil {
		return "", nil
	}
	return SaveSnapshot(s, filepath.Join(om.dir, "snapshots"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.daily, om.harvests, om.alerts, om.perf, om.season} {
		if c == nil || c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
