package main

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// ParamSpec defines a single calibrated species constant.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Species string  // Species preset the constant belongs to
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Value in the base config

	field func(*components.SpeciesConstants) *float64
}

// paramTemplate is a constant calibrated for every mixture species, with
// bounds relative to the species' configured value.
type paramTemplate struct {
	name   string
	path   string
	lo, hi float64 // bound factors
	max    float64 // absolute upper bound (0 = none)
	field  func(*components.SpeciesConstants) *float64
}

var paramTemplates = []paramTemplate{
	{name: "pm_ref", path: "photosynthesis.pm_ref", lo: 0.6, hi: 1.4,
		field: func(c *components.SpeciesConstants) *float64 { return &c.Photo.PmRef }},
	{name: "alpha_amb_15", path: "photosynthesis.alpha_amb_15", lo: 0.7, hi: 1.3,
		field: func(c *components.SpeciesConstants) *float64 { return &c.Photo.AlphaAmb15 }},
	{name: "m_ref", path: "respiration.m_ref", lo: 0.5, hi: 2,
		field: func(c *components.SpeciesConstants) *float64 { return &c.Resp.MRef }},
	{name: "rho_shoot_ref", path: "partitioning.rho_shoot_ref", lo: 0.8, hi: 1.25, max: 0.95,
		field: func(c *components.SpeciesConstants) *float64 { return &c.Part.RhoShootRef }},
	{name: "sla", path: "canopy.sla", lo: 0.7, hi: 1.3,
		field: func(c *components.SpeciesConstants) *float64 { return &c.Canopy.SLA }},
	{name: "n_uptake", path: "n_uptake_coefficient", lo: 0.5, hi: 2,
		field: func(c *components.SpeciesConstants) *float64 { return &c.NUptakeCoef }},
}

// ParamVector holds the set of all calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the calibrated parameters of every mixture species
// in the base config.
func NewParamVector(base *config.Config) (*ParamVector, error) {
	pv := &ParamVector{}
	seen := make(map[string]bool)
	for _, m := range base.Mixture {
		if seen[m.Species] {
			continue
		}
		seen[m.Species] = true

		cons, ok := base.SpeciesByName(m.Species)
		if !ok {
			return nil, fmt.Errorf("unknown species %q", m.Species)
		}
		for _, tpl := range paramTemplates {
			def := *tpl.field(&cons)
			if def <= 0 {
				continue
			}
			spec := ParamSpec{
				Name:    m.Species + "." + tpl.name,
				Path:    "species." + m.Species + "." + tpl.path,
				Species: m.Species,
				Min:     def * tpl.lo,
				Max:     def * tpl.hi,
				Default: def,
				field:   tpl.field,
			}
			if tpl.max > 0 {
				spec.Max = math.Min(spec.Max, tpl.max)
				spec.Default = math.Min(spec.Default, spec.Max)
			}
			pv.Specs = append(pv.Specs, spec)
		}
	}
	if len(pv.Specs) == 0 {
		return nil, fmt.Errorf("no parameters to calibrate")
	}
	return pv, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig writes parameter values into the species presets of cfg and
// recomputes its derived mixture.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		idx, ok := cfg.Derived.SpeciesIndex[spec.Species]
		if !ok {
			return fmt.Errorf("unknown species %q", spec.Species)
		}
		*spec.field(&cfg.Species[idx]) = clamped[i]
	}
	return cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if cons, ok := cfg.SpeciesByName(spec.Species); ok {
			v[i] = *spec.field(&cons)
		}
	}
	return v
}
