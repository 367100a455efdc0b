package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// stressedBelow marks a day as stressed when either Ω drops below it.
const stressedBelow = 0.8

// Collector accumulates daily records and harvests within a season window
// and produces SeasonStats.
type Collector struct {
	windowDays int

	windowStartDay int
	growth         []float64
	waterStress    []float64
	nitrogenStress []float64
	crudeProtein   []float64

	harvested    float64
	cuts         int
	stressedDays int
	rain         float64
	et0          float64
	transpired   float64
	drainage     float64
	nUptake      float64
	nFixed       float64
	lastShoot    float64
	lastDay      int
}

// NewCollector creates a collector flushing every windowDays days.
func NewCollector(windowDays int) *Collector {
	if windowDays < 1 {
		windowDays = 1
	}
	return &Collector{windowDays: windowDays}
}

// RecordDay adds one day to the current window.
func (c *Collector) RecordDay(r DailyRecord) {
	if len(c.growth) == 0 {
		c.windowStartDay = r.Day
	}
	c.growth = append(c.growth, r.Growth)
	c.waterStress = append(c.waterStress, r.WaterStress)
	c.nitrogenStress = append(c.nitrogenStress, r.NitrogenStress)
	c.crudeProtein = append(c.crudeProtein, r.CrudeProtein)
	if r.WaterStress < stressedBelow || r.NitrogenStress < stressedBelow {
		c.stressedDays++
	}
	c.rain += r.Rain
	c.et0 += r.ET0
	c.transpired += r.Transpired
	c.drainage += r.Drainage
	c.nUptake += r.NitrogenUptake
	c.nFixed += r.NitrogenFixed
	c.lastShoot = r.Shoot
	c.lastDay = r.Day
}

// RecordHarvest adds a cut to the current window.
func (c *Collector) RecordHarvest(h HarvestRecord) {
	c.harvested += h.Removed
	c.cuts++
}

// ShouldFlush returns true once the window holds windowDays days.
func (c *Collector) ShouldFlush() bool {
	return len(c.growth) >= c.windowDays
}

// Pending reports whether any days are waiting to be flushed.
func (c *Collector) Pending() bool { return len(c.growth) > 0 }

// Flush produces the window summary and resets the collector.
func (c *Collector) Flush() SeasonStats {
	s := SeasonStats{
		StartDay:     c.windowStartDay,
		EndDay:       c.lastDay,
		Days:         len(c.growth),
		Harvested:    c.harvested,
		Cuts:         c.cuts,
		EndShoot:     c.lastShoot,
		StressedDays: c.stressedDays,
		Rain:         c.rain,
		ET0:          c.et0,
		Transpired:   c.transpired,
		Drainage:     c.drainage,
		NitrogenUp:   c.nUptake,
		NitrogenFix:  c.nFixed,
	}
	if len(c.growth) > 0 {
		s.GrowthMean, s.GrowthStd = stat.MeanStdDev(c.growth, nil)
		if len(c.growth) == 1 {
			s.GrowthStd = 0
		}
		s.GrowthP10, s.GrowthP50, s.GrowthP90 = quantiles(c.growth)
		s.WaterStressMean = stat.Mean(c.waterStress, nil)
		s.NitrogenStressMean = stat.Mean(c.nitrogenStress, nil)
		s.CrudeProtein = stat.Mean(c.crudeProtein, nil)
	}

	*c = Collector{windowDays: c.windowDays}
	return s
}

// quantiles returns the 10th, 50th and 90th empirical percentiles.
func quantiles(values []float64) (p10, p50, p90 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p10 = stat.Quantile(0.1, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return p10, p50, p90
}
