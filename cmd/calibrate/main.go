// Package main provides CMA-ES calibration of species constants against
// observed cut yields of a trial.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	obsPath := flag.String("observations", "", "CSV of observed cut yields (plot,doy,yield)")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" || *obsPath == "" {
		log.Fatal("--output and --observations are required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	obs, err := ReadObservations(*obsPath)
	if err != nil {
		log.Fatalf("failed to read observations: %v", err)
	}
	days, err := sward.LoadWeather(baseCfg)
	if err != nil {
		log.Fatalf("failed to load weather: %v", err)
	}

	params, err := NewParamVector(baseCfg)
	if err != nil {
		log.Fatalf("failed to set up parameters: %v", err)
	}
	evaluator := NewFitnessEvaluator(params, baseCfg, days, obs)
	if len(evaluator.Plots()) == 0 {
		log.Fatal("no configured trial plot has observations")
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "calibrate_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	prog, err := newProgress(params, *maxEvals, logFile, os.Stdout)
	if err != nil {
		log.Fatalf("failed to write log header: %v", err)
	}

	// The search runs in [0,1] per parameter; the evaluator sees raw values.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			rmse := evaluator.Evaluate(raw)
			prog.observe(rmse, raw)
			return rmse
		},
	}
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // plots already run in parallel
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	fmt.Printf("Starting CMA-ES calibration with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Plots: %v, observations: %d, days: %d\n", evaluator.Plots(), len(obs), len(days))

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}

	best := prog.bestX
	if best == nil {
		best = params.DefaultVector()
		if result != nil {
			best = params.Clamp(params.Denormalize(result.X))
		}
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", prog.evals, formatDuration(time.Since(prog.start)))
	fmt.Printf("Best RMSE: %.1f kg DM/ha\n", prog.best)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f (was %.6f)\n", spec.Name, best[i], spec.Default)
	}

	if err := writeBestConfig(baseCfg, params, best, filepath.Join(*outputDir, "best_config.yaml")); err != nil {
		log.Printf("failed to write best config: %v", err)
	}
	if err := writePredictions(evaluator.BestPredictions(), filepath.Join(*outputDir, "predictions.csv")); err != nil {
		log.Printf("failed to write predictions: %v", err)
	}
}

func writeBestConfig(base *config.Config, params *ParamVector, best []float64, path string) error {
	cfg, err := base.Clone()
	if err != nil {
		return err
	}
	if err := params.ApplyToConfig(cfg, best); err != nil {
		return err
	}
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", path)
	return nil
}

func writePredictions(preds []Prediction, path string) error {
	if preds == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&preds, f); err != nil {
		return err
	}
	fmt.Printf("Predictions saved to: %s\n", path)
	return nil
}
