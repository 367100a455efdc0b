package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/sward/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete sward and soil state of one day, enough to
// resume a run.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Plot    string `json:"plot,omitempty"`

	Day int `json:"day"`
	DOY int `json:"doy"`

	StockingRate  float64 `json:"stocking_rate"`
	Regrowth      bool    `json:"regrowth"`
	GroundCover   float64 `json:"ground_cover"`
	Interception  float64 `json:"interception"` // canopy water store [mm]
	AccumulatedET float64 `json:"accumulated_et"`

	Species []SpeciesState         `json:"species"`
	Soil    []components.SoilLayer `json:"soil"`

	Alert *Alert `json:"alert,omitempty"`
}

// SpeciesState holds one species' pools and daily state.
type SpeciesState struct {
	Name  string                                      `json:"name"`
	Pools [components.NumOrgans]components.OrganPools `json:"pools"`
	State components.SpeciesState                     `json:"state"`
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Day)
	if snapshot.Plot != "" {
		name = fmt.Sprintf("snapshot_%s_%d", sanitize(snapshot.Plot), snapshot.Day)
	}
	if snapshot.Alert != nil {
		name += "_" + sanitize(string(snapshot.Alert.Type))
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, s)
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
