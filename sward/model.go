// Package sward runs the daily growth pipeline of a grassland mixture and
// exposes its state through named queries.
package sward

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
)

// Options configures a Model.
type Options struct {
	// Species overrides the configured mixture, in insertion order.
	Species []*components.SpeciesConstants
	Logger  *slog.Logger
	Perf    *telemetry.PerfCollector
}

// Model is one sward growing on one soil column. It is not safe for
// concurrent use.
type Model struct {
	cfg    *config.Config
	mix    *components.Mixture
	soil   components.SoilColumn
	logger *slog.Logger
	perf   *telemetry.PerfCollector

	day   components.WeatherDay
	steps int

	interception  systems.InterceptionStore
	et0           float64 // [mm d-1]
	etPot         float64
	etRemaining   float64
	tPot          float64
	transpired    float64
	accumulatedET float64
	resets        []int
}

// New creates a model reading water and nitrate from soil.
func New(cfg *config.Config, soil components.SoilColumn, opts Options) (*Model, error) {
	if cfg == nil {
		return nil, errors.New("sward: nil config")
	}
	if soil == nil || soil.NumLayers() == 0 {
		return nil, errors.New("sward: empty soil column")
	}
	species := opts.Species
	if len(species) == 0 {
		species = cfg.Derived.MixtureSpecies
	}
	if len(species) == 0 {
		return nil, errors.New("sward: no species")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mix := components.NewMixture(species, soil.NumLayers(), soil.LayerThickness())
	mix.StockingRate = cfg.Management.StockingRate

	return &Model{
		cfg:    cfg,
		mix:    mix,
		soil:   soil,
		logger: logger,
		perf:   opts.Perf,
	}, nil
}

func (m *Model) phase(name string) {
	if m.perf != nil {
		m.perf.StartPhase(name)
	}
}

// Step advances the sward by one day. It returns an error for invalid
// weather and, in verify mode, for a violated invariant.
func (m *Model) Step(day components.WeatherDay) error {
	if err := day.Validate(); err != nil {
		return err
	}
	m.day = day
	m.steps++

	mix := m.mix
	eng := m.cfg.Engine
	resp := m.cfg.Responses

	m.phase(telemetry.PhaseRoots)
	systems.DistributeRoots(mix)

	m.phase(telemetry.PhaseNitrogen)
	systems.NitrogenUptake(mix, m.soil)

	m.phase(telemetry.PhaseEvaporation)
	m.et0 = systems.ReferenceET(day, m.cfg.Site.Elevation, m.cfg.Site.Albedo)
	systems.Intercept(&m.interception, day.Rain, mix)
	m.etPot = math.Min(eng.MaxPotentialET, m.et0*eng.KcFactor)
	m.etRemaining = systems.EvaporateIntercepted(&m.interception, m.etPot)

	m.phase(telemetry.PhaseTranspiration)
	m.tPot = systems.Transpire(mix, m.soil, m.etRemaining, resp.Water)
	m.transpired = 0
	for si := range mix.Species {
		for _, w := range mix.WaterUptake[si] {
			m.transpired += w
		}
	}
	m.etRemaining = math.Max(0, m.etRemaining-m.transpired)
	m.accumulatedET += m.interception.Evaporated + m.transpired

	m.phase(telemetry.PhaseStress)
	systems.ApplyTemperatureStress(mix, day.TMean, day.TMin, day.TMax, resp)

	m.phase(telemetry.PhasePhotosynthesis)
	systems.GrossPhotosynthesis(mix, day, m.logger)
	systems.NetAssimilate(mix, day.TMean)

	m.phase(telemetry.PhasePartitioning)
	systems.Partition(mix, resp, eng)
	systems.SettleNitrogenUptake(mix)

	m.phase(telemetry.PhasePhenology)
	m.resets = systems.AdvanceDegreeDays(mix, day.TMean, day.VegetationPhase)

	m.phase(telemetry.PhaseTurnover)
	if err := systems.Turnover(mix, day.TMean, eng.Verify, m.logger); err != nil {
		return fmt.Errorf("day %d: %w", day.DayOfYear, err)
	}

	m.phase(telemetry.PhasePhenology)
	systems.UpdatePhenology(mix)

	if eng.Verify {
		m.phase(telemetry.PhaseVerify)
		if err := m.Verify(); err != nil {
			return fmt.Errorf("day %d: %w", day.DayOfYear, err)
		}
	}
	return nil
}

// Verify checks every species and soil layer invariant.
func (m *Model) Verify() error {
	for _, s := range m.mix.Species {
		if err := systems.VerifySpecies(s); err != nil {
			return err
		}
	}
	for l := 0; l < m.soil.NumLayers(); l++ {
		if err := systems.VerifySoilMoisture(l, m.soil.Layer(l)); err != nil {
			return err
		}
	}
	return nil
}

// Mixture returns the species mixture. Callers must not reorder it.
func (m *Model) Mixture() *components.Mixture { return m.mix }

// Day returns the weather of the last step.
func (m *Model) Day() components.WeatherDay { return m.day }

// Steps returns the number of completed steps.
func (m *Model) Steps() int { return m.steps }

// PhenologyResets returns the indices of species that started a new
// vegetative cycle in the last step.
func (m *Model) PhenologyResets() []int { return m.resets }

// SetStockingRate sets the grazing pressure that speeds dead-to-litter flux.
func (m *Model) SetStockingRate(rate float64) {
	m.mix.StockingRate = math.Max(0, rate)
}

// HarvestByHeight cuts to a residual height [m] and returns the removed dry
// matter [kg DM ha-1].
func (m *Model) HarvestByHeight(height float64) float64 {
	return systems.HarvestByHeight(m.mix, height, m.cfg.Engine.DMShootMin)
}

// HarvestByMass removes dryMatter [kg DM ha-1] of shoot and returns what was
// removed.
func (m *Model) HarvestByMass(dryMatter float64) float64 {
	return systems.HarvestByMass(m.mix, dryMatter)
}

// SenescedTissue moves senesced material to the organic soil layers and
// returns it per layer.
func (m *Model) SenescedTissue() []components.OrganicMatterInput {
	return systems.SenescedTissue(m.mix, organicLayers(m.mix))
}

// organicLayers is the number of layers receiving organic matter: the
// deepest rooted layer, at least one.
func organicLayers(mix *components.Mixture) int {
	n := int(math.Ceil(mix.MaxRootDepth() / mix.LayerThickness))
	if n < 1 {
		n = 1
	}
	if n > mix.NumLayers {
		n = mix.NumLayers
	}
	return n
}

// Snapshot captures the sward state. Soil layers are copied from the column.
func (m *Model) Snapshot() *telemetry.Snapshot {
	s := &telemetry.Snapshot{
		Version:       telemetry.SnapshotVersion,
		Day:           m.steps,
		DOY:           m.day.DayOfYear,
		StockingRate:  m.mix.StockingRate,
		Regrowth:      m.mix.Regrowth,
		GroundCover:   m.mix.GroundCover,
		Interception:  m.interception.Storage,
		AccumulatedET: m.accumulatedET,
	}
	for _, sp := range m.mix.Species {
		s.Species = append(s.Species, telemetry.SpeciesState{
			Name:  sp.Cons.Name,
			Pools: sp.Pools,
			State: sp.State,
		})
	}
	for l := 0; l < m.soil.NumLayers(); l++ {
		s.Soil = append(s.Soil, m.soil.Layer(l))
	}
	return s
}

// Restore loads species pools and state from a snapshot. Species are matched
// by position and must carry the same names.
func (m *Model) Restore(s *telemetry.Snapshot) error {
	if len(s.Species) != m.mix.Len() {
		return fmt.Errorf("sward: snapshot has %d species, model has %d", len(s.Species), m.mix.Len())
	}
	for i, sp := range m.mix.Species {
		if s.Species[i].Name != sp.Cons.Name {
			return fmt.Errorf("sward: snapshot species %d is %q, model has %q", i, s.Species[i].Name, sp.Cons.Name)
		}
	}
	for i, sp := range m.mix.Species {
		sp.Pools = s.Species[i].Pools
		sp.State = s.Species[i].State
	}
	m.steps = s.Day
	m.day.DayOfYear = s.DOY
	m.mix.StockingRate = s.StockingRate
	m.mix.Regrowth = s.Regrowth
	m.mix.GroundCover = s.GroundCover
	m.interception.Storage = s.Interception
	m.accumulatedET = s.AccumulatedET
	return nil
}
