// Package config provides configuration loading for the sward model.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sward/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all model configuration parameters.
type Config struct {
	Engine      EngineConfig                  `yaml:"engine"`
	Responses   ResponsesConfig               `yaml:"responses"`
	Site        SiteConfig                    `yaml:"site"`
	Soil        SoilConfig                    `yaml:"soil"`
	Species     []components.SpeciesConstants `yaml:"species"`
	Mixture     []MixtureMember               `yaml:"mixture"`
	Weather     WeatherConfig                 `yaml:"weather"`
	Management  ManagementConfig              `yaml:"management"`
	Telemetry   TelemetryConfig               `yaml:"telemetry"`
	Alerts      AlertsConfig                  `yaml:"alerts"`
	Persistence PersistenceConfig             `yaml:"persistence"`
	Trial       TrialConfig                   `yaml:"trial"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// EngineConfig holds numerical and bookkeeping settings of the daily step.
type EngineConfig struct {
	Verify         bool    `yaml:"verify"`           // run invariant checks after every step; violations are fatal
	KeepAlive      bool    `yaml:"keepalive"`        // stop NC drawdown below DMShootMin
	DMShootMin     float64 `yaml:"dm_shoot_min"`     // [kg DM m-2]
	KcFactor       float64 `yaml:"kc_factor"`        // crop coefficient applied to ET0
	MaxPotentialET float64 `yaml:"max_potential_et"` // cap on ET0*Kc [mm d-1]
	LayerThickness float64 `yaml:"layer_thickness"`  // [m]
	NumLayers      int     `yaml:"num_layers"`
	StartDOY       int     `yaml:"start_doy"`
	Days           int     `yaml:"days"`
}

// ResponsesConfig toggles the growth limiting responses.
type ResponsesConfig struct {
	Nitrogen        bool `yaml:"nitrogen"`
	Water           bool `yaml:"water"`
	LowTemperature  bool `yaml:"low_temperature"`
	HighTemperature bool `yaml:"high_temperature"`
}

// SiteConfig holds location parameters.
type SiteConfig struct {
	Latitude  float64 `yaml:"latitude"`  // [deg]
	Elevation float64 `yaml:"elevation"` // height above sea level [m]
	CO2       float64 `yaml:"co2"`       // [μmol mol-1]
	Albedo    float64 `yaml:"albedo"`
}

// SoilConfig describes the soil profile as horizons.
type SoilConfig struct {
	DefaultTexture string          `yaml:"default_texture"`
	Horizons       []HorizonConfig `yaml:"horizons"`
}

// HorizonConfig is one soil horizon. Hydraulic properties left at zero are
// taken from the texture class, or estimated from sand/clay/organic matter.
type HorizonConfig struct {
	Thickness       float64 `yaml:"thickness"` // [m]
	Texture         string  `yaml:"texture"`
	Sand            float64 `yaml:"sand"`           // [0-1]
	Clay            float64 `yaml:"clay"`           // [0-1]
	OrganicMatter   float64 `yaml:"organic_matter"` // [0-1]
	FieldCapacity   float64 `yaml:"field_capacity"`
	Saturation      float64 `yaml:"saturation"`
	WiltingPoint    float64 `yaml:"wilting_point"`
	BulkDensity     float64 `yaml:"bulk_density"`     // [kg m-3]
	InitialMoisture float64 `yaml:"initial_moisture"` // fraction of field capacity
	Nitrate         float64 `yaml:"nitrate"`          // [kg N m-3]
}

// MixtureMember selects a species preset and scales its initial dry matter.
type MixtureMember struct {
	Species string  `yaml:"species"`
	Share   float64 `yaml:"share"`
}

// WeatherConfig selects the weather source.
type WeatherConfig struct {
	CSV        string          `yaml:"csv"`         // empty = synthetic
	WindHeight float64         `yaml:"wind_height"` // anemometer height of the csv series [m]
	Seed       int64           `yaml:"seed"`
	Synthetic  SyntheticConfig `yaml:"synthetic"`
}

// SyntheticConfig parameterises the noise-driven weather generator.
type SyntheticConfig struct {
	MeanTemp      float64 `yaml:"mean_temp"`      // annual mean [°C]
	TempAmplitude float64 `yaml:"temp_amplitude"` // seasonal half range [°C]
	DiurnalRange  float64 `yaml:"diurnal_range"`  // mean T_max - T_min [°C]
	RainChance    float64 `yaml:"rain_chance"`    // [0-1]
	RainMean      float64 `yaml:"rain_mean"`      // mean wet-day rain [mm]
	Wind          float64 `yaml:"wind"`           // [m s-1]
	WindHeight    float64 `yaml:"wind_height"`    // [m]
	RelHumidity   float64 `yaml:"rel_humidity"`   // [0-1]
	NoiseScale    float64 `yaml:"noise_scale"`    // noise frequency per day
}

// ManagementConfig holds cutting and grazing settings.
type ManagementConfig struct {
	StockingRate float64     `yaml:"stocking_rate"`
	Cuts         []CutConfig `yaml:"cuts"`
}

// CutConfig schedules one harvest. Height takes precedence over Mass.
type CutConfig struct {
	DOY    int     `yaml:"doy"`
	Height float64 `yaml:"height"` // residual height [m]
	Mass   float64 `yaml:"mass"`   // removed dry matter [kg DM ha-1]
}

// ByHeight reports whether the cut removes biomass down to a residual height.
func (c CutConfig) ByHeight() bool { return c.Mass <= 0 }

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	OutputDir    string `yaml:"output_dir"`
	LogEvery     int    `yaml:"log_every"`     // days between daily stat logs (0 = off)
	PerfWindow   int    `yaml:"perf_window"`   // days in the perf rolling window
	SeasonWindow int    `yaml:"season_window"` // days per season summary
	Snapshots    bool   `yaml:"snapshots"`     // save sward state on alerts and at the end of a run
}

// AlertsConfig holds alert detection thresholds.
type AlertsConfig struct {
	HistorySize       int     `yaml:"history_size"`
	DroughtThreshold  float64 `yaml:"drought_threshold"`  // Ω_water below
	NitrogenThreshold float64 `yaml:"nitrogen_threshold"` // Ω_N below
	ColdThreshold     float64 `yaml:"cold_threshold"`     // τ_T_low below
	HeatThreshold     float64 `yaml:"heat_threshold"`     // τ_T_high below
	MinDays           int     `yaml:"min_days"`           // consecutive days before triggering
}

// PersistenceConfig holds the run database location.
type PersistenceConfig struct {
	Path string `yaml:"path"` // empty = disabled
}

// TrialConfig describes a multi-plot cutting trial.
type TrialConfig struct {
	Plots []PlotConfig `yaml:"plots"`
}

// PlotConfig is one plot of a trial.
type PlotConfig struct {
	Name         string      `yaml:"name"`
	Cuts         []CutConfig `yaml:"cuts"`
	NitrateScale float64     `yaml:"nitrate_scale"` // multiplies horizon nitrate (0 = 1)
	StockingRate float64     `yaml:"stocking_rate"`
}

// DerivedConfig holds values computed after loading.
type DerivedConfig struct {
	SpeciesIndex map[string]int
	// MixtureSpecies are the resolved constants of the mixture members in order,
	// with initial dry matter scaled by the member share.
	MixtureSpecies []*components.SpeciesConstants
	Warnings       []string
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Clone returns a deep copy with derived values recomputed, so species
// constants and horizons of the copy can be changed independently.
func (c *Config) Clone() (*Config, error) {
	cp := *c
	cp.Species = append([]components.SpeciesConstants(nil), c.Species...)
	cp.Mixture = append([]MixtureMember(nil), c.Mixture...)
	cp.Soil.Horizons = append([]HorizonConfig(nil), c.Soil.Horizons...)
	cp.Management.Cuts = append([]CutConfig(nil), c.Management.Cuts...)
	cp.Trial.Plots = append([]PlotConfig(nil), c.Trial.Plots...)
	if err := cp.Recompute(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived = DerivedConfig{SpeciesIndex: make(map[string]int, len(c.Species))}

	if c.Engine.NumLayers <= 0 {
		c.Engine.NumLayers = 20
	}
	if c.Engine.LayerThickness <= 0 {
		c.Engine.LayerThickness = 0.1
	}
	if c.Engine.MaxPotentialET <= 0 {
		c.Engine.MaxPotentialET = 6.5
	}
	if c.Site.CO2 <= 0 {
		c.Site.CO2 = components.CO2AmbientRef
	}

	for i, sp := range c.Species {
		if sp.Name == "" {
			return fmt.Errorf("species %d: missing name", i)
		}
		if _, dup := c.Derived.SpeciesIndex[sp.Name]; dup {
			return fmt.Errorf("species %q defined twice", sp.Name)
		}
		c.Derived.SpeciesIndex[sp.Name] = i
	}

	if len(c.Mixture) == 0 {
		return fmt.Errorf("mixture: no species selected")
	}
	for _, m := range c.Mixture {
		idx, ok := c.Derived.SpeciesIndex[m.Species]
		if !ok {
			return fmt.Errorf("mixture: unknown species %q", m.Species)
		}
		share := m.Share
		if share <= 0 {
			share = 1
		}
		cons := c.Species[idx]
		cons.Initial.Leaf *= share
		cons.Initial.Stem *= share
		cons.Initial.Root *= share
		c.Derived.MixtureSpecies = append(c.Derived.MixtureSpecies, &cons)
	}

	var depth float64
	for _, h := range c.Soil.Horizons {
		depth += h.Thickness
	}
	if limit := float64(c.Engine.NumLayers) * c.Engine.LayerThickness; depth > limit+1e-9 {
		c.Derived.Warnings = append(c.Derived.Warnings,
			fmt.Sprintf("soil horizons reach %.2f m; layers below %.2f m are ignored", depth, limit))
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SpeciesByName returns a copy of a species preset.
func (c *Config) SpeciesByName(name string) (components.SpeciesConstants, bool) {
	idx, ok := c.Derived.SpeciesIndex[name]
	if !ok {
		return components.SpeciesConstants{}, false
	}
	return c.Species[idx], true
}
