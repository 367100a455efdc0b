package sward

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/soil"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
	"github.com/pthm-cable/sward/weather"
)

// Recorder stores daily and harvest rows of a run.
type Recorder interface {
	RecordDay(runID string, r telemetry.DailyRecord) error
	RecordHarvest(runID string, h telemetry.HarvestRecord) error
}

// SimulationOptions configures a Simulation. Zero values disable the
// corresponding output.
type SimulationOptions struct {
	Logger   *slog.Logger
	Output   *telemetry.OutputManager
	Recorder Recorder
	RunID    string
	Plot     string

	// Cuts overrides the configured cutting schedule when non-nil.
	Cuts    []config.CutConfig
	Species []*components.SpeciesConstants
}

// Simulation couples a Model to a soil column and drives it day by day:
// soil water and nitrate accounting, scheduled cuts, telemetry and alerts.
type Simulation struct {
	cfg    *config.Config
	model  *Model
	soil   *soil.Column
	logger *slog.Logger

	output   *telemetry.OutputManager
	recorder Recorder
	runID    string
	plot     string
	cuts     []config.CutConfig

	perf    *telemetry.PerfCollector
	alerts  *telemetry.AlertDetector
	season  *telemetry.Collector
	summary Summary
	started time.Time
}

// Summary totals a run.
type Summary struct {
	Days             int
	Cuts             int
	Harvested        float64 // [kg DM ha-1]
	HarvestedProtein float64 // crude protein removed with the cuts [kg ha-1]
	Alerts           int
	EndShoot         float64 // [kg DM ha-1]
	Transpired       float64 // [mm]
	Drainage         float64 // [mm]
	Elapsed          time.Duration
}

// NewSimulation creates a simulation on col. A nil col is built from the
// configured soil profile.
func NewSimulation(cfg *config.Config, col *soil.Column, opts SimulationOptions) (*Simulation, error) {
	if cfg == nil {
		return nil, errors.New("sward: nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if col == nil {
		var err error
		col, err = soil.New(cfg.Soil, cfg.Engine.NumLayers, cfg.Engine.LayerThickness, logger)
		if err != nil {
			return nil, fmt.Errorf("building soil column: %w", err)
		}
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	model, err := New(cfg, col, Options{Species: opts.Species, Logger: logger, Perf: perf})
	if err != nil {
		return nil, err
	}

	cuts := opts.Cuts
	if cuts == nil {
		cuts = cfg.Management.Cuts
	}
	if opts.Plot != "" {
		logger = logger.With("plot", opts.Plot)
	}

	return &Simulation{
		cfg:      cfg,
		model:    model,
		soil:     col,
		logger:   logger,
		output:   opts.Output,
		recorder: opts.Recorder,
		runID:    opts.RunID,
		plot:     opts.Plot,
		cuts:     cuts,
		perf:     perf,
		alerts:   telemetry.NewAlertDetector(cfg.Alerts),
		season:   telemetry.NewCollector(cfg.Telemetry.SeasonWindow),
	}, nil
}

// Model returns the sward model.
func (s *Simulation) Model() *Model { return s.model }

// Soil returns the soil column.
func (s *Simulation) Soil() *soil.Column { return s.soil }

// Summary returns the totals so far.
func (s *Simulation) Summary() Summary { return s.summary }

// Step runs one day and returns its record.
func (s *Simulation) Step(day components.WeatherDay) (telemetry.DailyRecord, error) {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.perf.StartDay()
	defer s.perf.EndDay()

	if err := s.model.Step(day); err != nil {
		return telemetry.DailyRecord{}, err
	}

	s.perf.StartPhase(telemetry.PhaseSoil)
	m := s.model
	mix := m.Mixture()
	water := make([]float64, s.soil.NumLayers())
	for l := range water {
		if l < mix.NumLayers {
			water[l] = m.TranspiredFromLayer(l)
		}
	}
	s.soil.WithdrawWater(water)
	s.soil.WithdrawNitrogen(mix.NitrogenSum)
	drainage := s.soil.ApplyWater(m.NetPrecipitation())
	s.soil.AddOrganicMatter(m.SenescedTissue())

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.summary.Days++
	s.summary.Transpired += m.Transpired()
	s.summary.Drainage += drainage

	for _, cut := range s.cuts {
		if cut.DOY == day.DayOfYear {
			s.harvest(cut)
		}
	}

	record := s.record(day, drainage)
	s.summary.EndShoot = record.Shoot

	if err := s.output.WriteDaily(record); err != nil {
		s.logger.Error("failed to write daily record", "error", err)
	}
	if s.recorder != nil {
		if err := s.recorder.RecordDay(s.runID, record); err != nil {
			s.logger.Error("failed to record day", "error", err)
		}
	}

	for _, a := range s.alerts.Check(record, s.speciesStatus()) {
		s.summary.Alerts++
		a.LogAlert(s.logger)
		if err := s.output.WriteAlert(a); err != nil {
			s.logger.Error("failed to write alert", "error", err)
		}
		if s.cfg.Telemetry.Snapshots {
			s.saveSnapshot(&a)
		}
	}

	s.season.RecordDay(record)
	if s.season.ShouldFlush() {
		s.flushSeason()
	}
	if w := s.perf.WindowSize(); w > 0 && s.summary.Days%w == 0 {
		if err := s.output.WritePerf(s.perf.Stats(), record.Day); err != nil {
			s.logger.Error("failed to write perf", "error", err)
		}
	}
	if every := s.cfg.Telemetry.LogEvery; every > 0 && s.summary.Days%every == 0 {
		s.logger.Info("day", "stats", record)
	}

	return record, nil
}

func (s *Simulation) harvest(cut config.CutConfig) {
	m := s.model
	h := telemetry.HarvestRecord{
		Day:           m.Steps(),
		DOY:           m.Day().DayOfYear,
		Plot:          s.plot,
		CrudeProtein:  m.ShootCrudeProtein(),
		OrganicMatter: m.ShootOrganicMatter(),
	}
	if cut.ByHeight() {
		h.Method = "height"
		h.Target = cut.Height
		h.Removed = m.HarvestByHeight(cut.Height)
	} else {
		h.Method = "mass"
		h.Target = cut.Mass
		h.Removed = m.HarvestByMass(cut.Mass)
	}
	h.Residual = m.ShootBiomass()

	s.summary.Cuts++
	s.summary.Harvested += h.Removed
	s.summary.HarvestedProtein += h.Removed * h.CrudeProtein / gramsPerK
	s.season.RecordHarvest(h)
	s.logger.Info("harvest", "cut", h)

	if err := s.output.WriteHarvest(h); err != nil {
		s.logger.Error("failed to write harvest", "error", err)
	}
	if s.recorder != nil {
		if err := s.recorder.RecordHarvest(s.runID, h); err != nil {
			s.logger.Error("failed to record harvest", "error", err)
		}
	}
}

func (s *Simulation) record(day components.WeatherDay, drainage float64) telemetry.DailyRecord {
	m := s.model
	mix := m.Mixture()
	return telemetry.DailyRecord{
		Day:       m.Steps(),
		DOY:       day.DayOfYear,
		TMean:     day.TMean,
		GlobalRad: day.GlobalRad,
		Rain:      day.Rain,

		Biomass:      m.BiomassTotal(),
		Shoot:        m.ShootBiomass(),
		Root:         m.RootBiomass(),
		Growth:       m.GrowthIncrementTotal(),
		LAI:          m.LeafAreaIndex(),
		Height:       m.Height(),
		GroundCover:  m.GroundCover(),
		RootingDepth: m.RootingDepth(),

		GrossPhotosynthate: m.GrossPhotosynthate(),
		NetPhotosynthate:   m.NetPhotosynthate(),

		WaterStress:    m.WaterStress(),
		NitrogenStress: m.NitrogenStress(),
		LowTempStress:  mix.ShootWeighted(func(sp *components.Species) float64 { return sp.State.TauTLow }),
		HighTempStress: mix.ShootWeighted(func(sp *components.Species) float64 { return sp.State.TauTHigh }),

		ET0:              m.ReferenceET(),
		PotentialET:      m.PotentialET(),
		Transpired:       m.Transpired(),
		Evaporated:       m.EvaporatedFromInterception(),
		NetPrecipitation: m.NetPrecipitation(),
		AccumulatedET:    m.AccumulatedET(),
		Drainage:         drainage,
		SoilWater:        s.soil.Water(),

		NitrogenUptake: m.ActualNitrogenUptake() * perHa,
		NitrogenFixed:  m.NitrogenFixed() * perHa,
		SoilNitrate:    s.soil.Nitrate() * perHa,

		CrudeProtein:  m.ShootCrudeProtein(),
		OrganicMatter: m.ShootOrganicMatter(),
	}
}

func (s *Simulation) speciesStatus() []telemetry.SpeciesStatus {
	m := s.model
	status := make([]telemetry.SpeciesStatus, m.NumSpecies())
	for i := range status {
		st := m.Mixture().Species[i].State
		status[i] = telemetry.SpeciesStatus{
			Name:           m.SpeciesName(i),
			Growth:         m.GrowthIncrementOfSpecies(i),
			WaterStress:    st.OmegaWater,
			NitrogenStress: st.OmegaN,
			LowTempStress:  st.TauTLow,
			HighTempStress: st.TauTHigh,
			AtFloor:        st.AtFloor,
		}
	}
	for _, i := range m.PhenologyResets() {
		status[i].PhenologyReset = true
	}
	return status
}

func (s *Simulation) flushSeason() {
	stats := s.season.Flush()
	s.logger.Info("season", "stats", stats)
	if err := s.output.WriteSeason(stats); err != nil {
		s.logger.Error("failed to write season stats", "error", err)
	}
}

// Snapshot captures the sward and soil state, tagged with the run and plot.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	snap := s.model.Snapshot()
	snap.RunID = s.runID
	snap.Plot = s.plot
	return snap
}

// Restore resumes from a snapshot taken on a simulation with the same
// mixture and soil grid.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if err := s.model.Restore(snap); err != nil {
		return err
	}
	if err := s.soil.Restore(snap.Soil); err != nil {
		return err
	}
	s.summary.Days = snap.Day
	return nil
}

func (s *Simulation) saveSnapshot(alert *telemetry.Alert) {
	snap := s.Snapshot()
	snap.Alert = alert
	path, err := s.output.WriteSnapshot(snap)
	if err != nil {
		s.logger.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		s.logger.Info("snapshot saved", "path", path, "day", snap.Day)
	}
}

// Run steps through days in order and finishes the run. It stops at the
// first error, which in verify mode may be a *systems.InvariantError.
func (s *Simulation) Run(days []components.WeatherDay) (Summary, error) {
	for _, day := range days {
		if _, err := s.Step(day); err != nil {
			var inv *systems.InvariantError
			if errors.As(err, &inv) {
				s.logger.Error("invariant violated", "species", inv.Species, "check", inv.Check, "value", inv.Value)
			}
			s.summary.Elapsed = time.Since(s.started)
			return s.summary, err
		}
	}
	return s.Finish(), nil
}

// Finish flushes the last season window, saves a final snapshot if enabled
// and logs the run totals.
func (s *Simulation) Finish() Summary {
	if !s.started.IsZero() {
		s.summary.Elapsed = time.Since(s.started)
	}
	if s.season.Pending() {
		s.flushSeason()
	}
	if s.cfg.Telemetry.Snapshots {
		s.saveSnapshot(nil)
	}

	s.logger.Info("run complete",
		"days", s.summary.Days,
		"cuts", s.summary.Cuts,
		"harvested", humanize.FormatFloat("#,###.#", s.summary.Harvested)+" kg DM/ha",
		"alerts", s.summary.Alerts,
		"elapsed", s.summary.Elapsed.Round(time.Millisecond),
	)
	return s.summary
}

// LoadWeather returns the configured weather series: the CSV file if set,
// otherwise Days synthetic days from StartDOY.
func LoadWeather(cfg *config.Config) ([]components.WeatherDay, error) {
	if cfg.Weather.CSV != "" {
		days, err := weather.ReadCSVFile(cfg.Weather.CSV, cfg.Site, cfg.Weather.WindHeight)
		if err != nil {
			return nil, fmt.Errorf("loading weather: %w", err)
		}
		if n := cfg.Engine.Days; n > 0 && n < len(days) {
			days = days[:n]
		}
		return days, nil
	}
	gen := weather.NewGenerator(cfg.Weather.Synthetic, cfg.Site, cfg.Weather.Seed)
	return gen.Generate(cfg.Engine.StartDOY, cfg.Engine.Days), nil
}
