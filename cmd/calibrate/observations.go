package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Observation is one measured cut yield.
type Observation struct {
	Plot  string  `csv:"plot"`
	DOY   int     `csv:"doy"`
	Yield float64 `csv:"yield"` // removed dry matter [kg DM ha-1]
}

// ReadObservations reads measured yields from a CSV file with the columns
// plot, doy and yield.
func ReadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var obs []Observation
	if err := gocsv.UnmarshalFile(f, &obs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, o := range obs {
		if o.Plot == "" || o.DOY < 1 || o.DOY > 366 || o.Yield < 0 {
			return nil, fmt.Errorf("%s row %d: invalid observation %+v", path, i+2, o)
		}
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%s: no observations", path)
	}
	return obs, nil
}

// byPlot groups observations by plot, then by cut day.
func byPlot(obs []Observation) map[string]map[int]float64 {
	out := make(map[string]map[int]float64)
	for _, o := range obs {
		if out[o.Plot] == nil {
			out[o.Plot] = make(map[int]float64)
		}
		out[o.Plot][o.DOY] = o.Yield
	}
	return out
}
