package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// progress logs every evaluation to a CSV file and stdout and keeps the
// best parameter set seen. Columns depend on the mixture, so rows are
// written with encoding/csv rather than gocsv.
type progress struct {
	params   *ParamVector
	maxEvals int
	w        *csv.Writer
	out      io.Writer

	evals int
	best  float64
	bestX []float64
	start time.Time
}

func newProgress(params *ParamVector, maxEvals int, log io.Writer, out io.Writer) (*progress, error) {
	p := &progress{
		params:   params,
		maxEvals: maxEvals,
		w:        csv.NewWriter(log),
		out:      out,
		best:     math.Inf(1),
		start:    time.Now(),
	}
	header := []string{"eval", "rmse"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := p.w.Write(header); err != nil {
		return nil, err
	}
	p.w.Flush()
	return p, p.w.Error()
}

// observe records one evaluation of clamped raw values.
func (p *progress) observe(rmse float64, values []float64) {
	p.evals++
	if rmse < p.best {
		p.best = rmse
		p.bestX = values
	}

	row := make([]string, 0, len(values)+2)
	row = append(row, strconv.Itoa(p.evals), strconv.FormatFloat(rmse, 'f', 3, 64))
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	p.w.Write(row)
	p.w.Flush()

	elapsed := time.Since(p.start)
	eta := time.Duration(p.maxEvals-p.evals) * (elapsed / time.Duration(p.evals))
	fmt.Fprintf(p.out, "Eval %d/%d: rmse=%.1f kg/ha (best=%.1f) | elapsed: %s, ETA: %s\n",
		p.evals, p.maxEvals, rmse, p.best, formatDuration(elapsed), formatDuration(eta))
}

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
