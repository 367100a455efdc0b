// Package plots runs cutting trials: one sward per plot, all plots stepped
// through the same weather. Plots are ECS entities.
package plots

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
	"github.com/pthm-cable/sward/telemetry"
)

// Plot identifies a trial plot.
type Plot struct {
	Index int
	Name  string
	RunID string
}

// Sward holds the plot's simulation and its output.
type Sward struct {
	Sim    *sward.Simulation
	Output *telemetry.OutputManager
}

// Yield accumulates what a plot produced.
type Yield struct {
	Harvested    float64 // [kg DM ha-1]
	Cuts         int
	ProteinYield float64 // harvested crude protein [kg ha-1]
	Growth       float64 // summed daily growth [kg DM ha-1]
	Err          error   // first step error; the plot is not stepped after it
}

// Store is the run database a trial records to.
type Store interface {
	sward.Recorder
	StartRun(plot string, cfg *config.Config) (string, error)
	FinishRun(runID string, sum sward.Summary) error
}

// Options configures a trial. Zero values disable the corresponding output.
type Options struct {
	Logger *slog.Logger
	// OutputDir receives one subdirectory per plot.
	OutputDir string
	Store     Store
}

// Result is the outcome of one plot.
type Result struct {
	Index   int
	Plot    string
	RunID   string
	Summary sward.Summary
	Yield   Yield
}

// Trial steps a set of plots.
type Trial struct {
	world  *ecs.World
	mapper *ecs.Map3[Plot, Sward, Yield]
	filter *ecs.Filter3[Plot, Sward, Yield]
	logger *slog.Logger
	store  Store
	count  int
}

// NewTrial creates one plot entity per configured plot.
func NewTrial(cfg *config.Config, plots []config.PlotConfig, opts Options) (*Trial, error) {
	if len(plots) == 0 {
		return nil, errors.New("plots: no plots configured")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()
	t := &Trial{
		world:  world,
		mapper: ecs.NewMap3[Plot, Sward, Yield](world),
		filter: ecs.NewFilter3[Plot, Sward, Yield](world),
		logger: logger,
		store:  opts.Store,
	}

	seen := make(map[string]bool, len(plots))
	for i, pc := range plots {
		if pc.Name == "" {
			pc.Name = fmt.Sprintf("plot_%d", i+1)
		}
		if seen[pc.Name] {
			t.Close()
			return nil, fmt.Errorf("plots: duplicate plot %q", pc.Name)
		}
		seen[pc.Name] = true

		if err := t.addPlot(cfg, i, pc, opts.OutputDir); err != nil {
			t.Close()
			return nil, fmt.Errorf("plot %s: %w", pc.Name, err)
		}
	}
	return t, nil
}

func (t *Trial) addPlot(base *config.Config, index int, pc config.PlotConfig, outputDir string) error {
	cfg := PlotConfig(base, pc)

	plot := Plot{Index: index, Name: pc.Name}
	if t.store != nil {
		id, err := t.store.StartRun(pc.Name, cfg)
		if err != nil {
			return err
		}
		plot.RunID = id
	}

	var out *telemetry.OutputManager
	if outputDir != "" {
		var err error
		out, err = telemetry.NewOutputManager(filepath.Join(outputDir, pc.Name))
		if err != nil {
			return err
		}
		if err := out.WriteConfig(cfg); err != nil {
			out.Close()
			return err
		}
	}

	var recorder sward.Recorder
	if t.store != nil {
		recorder = t.store
	}
	cuts := pc.Cuts
	if cuts == nil {
		cuts = []config.CutConfig{}
	}
	sim, err := sward.NewSimulation(cfg, nil, sward.SimulationOptions{
		Logger:   t.logger,
		Output:   out,
		Recorder: recorder,
		RunID:    plot.RunID,
		Plot:     pc.Name,
		Cuts:     cuts,
	})
	if err != nil {
		out.Close()
		return err
	}

	t.mapper.NewEntity(&plot, &Sward{Sim: sim, Output: out}, &Yield{})
	t.count++
	return nil
}

// PlotConfig derives a plot's configuration: horizon nitrate scaled by
// NitrateScale and the plot's stocking rate. base is not modified.
func PlotConfig(base *config.Config, pc config.PlotConfig) *config.Config {
	cfg := *base
	cfg.Soil.Horizons = append([]config.HorizonConfig(nil), base.Soil.Horizons...)
	if scale := pc.NitrateScale; scale > 0 {
		for i := range cfg.Soil.Horizons {
			cfg.Soil.Horizons[i].Nitrate *= scale
		}
	}
	cfg.Management.StockingRate = pc.StockingRate
	cfg.Management.Cuts = pc.Cuts
	return &cfg
}

// Len returns the number of plots.
func (t *Trial) Len() int { return t.count }

// Step advances every healthy plot by one day. A failing plot keeps its
// error and is skipped from then on.
func (t *Trial) Step(day components.WeatherDay) {
	query := t.filter.Query()
	for query.Next() {
		plot, sw, yield := query.Get()
		if yield.Err != nil {
			continue
		}
		r, err := sw.Sim.Step(day)
		if err != nil {
			yield.Err = err
			t.logger.Error("plot failed", "plot", plot.Name, "day", day.DayOfYear, "error", err)
			continue
		}
		yield.Growth += r.Growth

		sum := sw.Sim.Summary()
		yield.Harvested = sum.Harvested
		yield.Cuts = sum.Cuts
		yield.ProteinYield = sum.HarvestedProtein
	}
}

// Run steps all plots through days, finishes them and returns their results
// in plot order. The error joins the errors of failed plots.
func (t *Trial) Run(days []components.WeatherDay) ([]Result, error) {
	for _, day := range days {
		t.Step(day)
	}
	return t.Finish()
}

// Finish ends every plot's run and returns the results in plot order.
func (t *Trial) Finish() ([]Result, error) {
	var results []Result
	var errs []error

	query := t.filter.Query()
	for query.Next() {
		plot, sw, yield := query.Get()
		sum := sw.Sim.Finish()
		if yield.Err != nil {
			errs = append(errs, fmt.Errorf("plot %s: %w", plot.Name, yield.Err))
		}
		if t.store != nil && plot.RunID != "" {
			if err := t.store.FinishRun(plot.RunID, sum); err != nil {
				errs = append(errs, fmt.Errorf("plot %s: %w", plot.Name, err))
			}
		}
		results = append(results, Result{
			Index:   plot.Index,
			Plot:    plot.Name,
			RunID:   plot.RunID,
			Summary: sum,
			Yield:   *yield,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, errors.Join(errs...)
}

// Close closes every plot's output.
func (t *Trial) Close() error {
	var errs []error
	query := t.filter.Query()
	for query.Next() {
		_, sw, _ := query.Get()
		if err := sw.Output.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
