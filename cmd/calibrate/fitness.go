package main

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/plots"
	"github.com/pthm-cable/sward/sward"
	"github.com/pthm-cable/sward/telemetry"
)

// failedRunPenalty is the fitness of a parameter set whose simulation fails.
const failedRunPenalty = 1e9

// Prediction pairs an observed cut yield with the simulated one.
type Prediction struct {
	Plot      string  `csv:"plot"`
	DOY       int     `csv:"doy"`
	Observed  float64 `csv:"observed"`
	Simulated float64 `csv:"simulated"`
}

// FitnessEvaluator runs the observed plots and scores simulated cut yields.
type FitnessEvaluator struct {
	params   *ParamVector
	base     *config.Config
	days     []components.WeatherDay
	plots    []config.PlotConfig
	observed map[string]map[int]float64
	logger   *slog.Logger

	// Best run tracking
	mu              sync.Mutex
	bestFitness     float64
	bestPredictions []Prediction
}

// NewFitnessEvaluator creates an evaluator for the plots that have
// observations.
func NewFitnessEvaluator(params *ParamVector, base *config.Config, days []components.WeatherDay, obs []Observation) *FitnessEvaluator {
	observed := byPlot(obs)
	var selected []config.PlotConfig
	for _, pc := range base.Trial.Plots {
		if observed[pc.Name] != nil {
			selected = append(selected, pc)
		}
	}
	return &FitnessEvaluator{
		params:      params,
		base:        base,
		days:        days,
		plots:       selected,
		observed:    observed,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// Plots returns the names of the plots that are simulated.
func (fe *FitnessEvaluator) Plots() []string {
	names := make([]string, len(fe.plots))
	for i, pc := range fe.plots {
		names[i] = pc.Name
	}
	return names
}

// BestPredictions returns the predictions of the best evaluation.
func (fe *FitnessEvaluator) BestPredictions() []Prediction {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestPredictions
}

// harvestLog records the removed dry matter of each cut.
type harvestLog struct {
	removed map[int]float64
}

func (h *harvestLog) RecordDay(string, telemetry.DailyRecord) error { return nil }

func (h *harvestLog) RecordHarvest(_ string, r telemetry.HarvestRecord) error {
	h.removed[r.DOY] += r.Removed
	return nil
}

// Evaluate computes the root mean square error of simulated against observed
// cut yields [kg DM ha-1] for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.base.Clone()
	if err != nil {
		return failedRunPenalty
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return failedRunPenalty
	}

	// Run all plots in parallel
	results := make([]map[int]float64, len(fe.plots))
	errs := make([]error, len(fe.plots))
	var wg sync.WaitGroup
	for i, pc := range fe.plots {
		wg.Add(1)
		go func(idx int, pc config.PlotConfig) {
			defer wg.Done()
			results[idx], errs[idx] = fe.runPlot(cfg, pc)
		}(i, pc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return failedRunPenalty
		}
	}

	var predictions []Prediction
	var sq float64
	for i, pc := range fe.plots {
		for doy, yield := range fe.observed[pc.Name] {
			sim := results[i][doy]
			sq += (sim - yield) * (sim - yield)
			predictions = append(predictions, Prediction{Plot: pc.Name, DOY: doy, Observed: yield, Simulated: sim})
		}
	}
	if len(predictions) == 0 {
		return failedRunPenalty
	}
	rmse := math.Sqrt(sq / float64(len(predictions)))

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Plot != predictions[j].Plot {
			return predictions[i].Plot < predictions[j].Plot
		}
		return predictions[i].DOY < predictions[j].DOY
	})

	fe.mu.Lock()
	if rmse < fe.bestFitness {
		fe.bestFitness = rmse
		fe.bestPredictions = predictions
	}
	fe.mu.Unlock()

	return rmse
}

// runPlot simulates one plot and returns the removed dry matter per cut day.
func (fe *FitnessEvaluator) runPlot(cfg *config.Config, pc config.PlotConfig) (map[int]float64, error) {
	log := &harvestLog{removed: make(map[int]float64)}
	cuts := pc.Cuts
	if cuts == nil {
		cuts = []config.CutConfig{}
	}
	sim, err := sward.NewSimulation(plots.PlotConfig(cfg, pc), nil, sward.SimulationOptions{
		Logger:   fe.logger,
		Recorder: log,
		Plot:     pc.Name,
		Cuts:     cuts,
	})
	if err != nil {
		return nil, err
	}
	if _, err := sim.Run(fe.days); err != nil {
		return nil, err
	}
	return log.removed, nil
}
