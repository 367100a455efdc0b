package systems

import (
	"math"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// ApplyTemperatureStress updates the low and high temperature stress factors
// of every species. Stress multiplies the factor down on each stressful day;
// on other days a recovery increment accumulates and raises the factor back
// toward 1, the accumulator resetting on full recovery.
func ApplyTemperatureStress(mix *components.Mixture, tMean, tMin, tMax float64, resp config.ResponsesConfig) {
	for _, s := range mix.Species {
		c := s.Cons.TempStress
		st := &s.State

		if resp.LowTemperature {
			if tMin < c.TMinHigh {
				xi := 0.0
				if tMin > c.TMinLow {
					xi = (tMin - c.TMinLow) / (c.TMinHigh - c.TMinLow)
				}
				st.TauTLow *= xi
			} else {
				st.ZetaTLow += ratioOr(tMean, c.TSumLow, 0)
				st.TauTLow = clamp01(st.TauTLow + st.ZetaTLow)
				if st.TauTLow == 1 {
					st.ZetaTLow = 0
				}
			}
		} else {
			st.TauTLow, st.ZetaTLow = 1, 0
		}

		if resp.HighTemperature {
			if tMax > c.TMaxLow {
				xi := 0.0
				if tMax < c.TMaxHigh {
					xi = (c.TMaxHigh - tMax) / (c.TMaxHigh - c.TMaxLow)
				}
				st.TauTHigh *= xi
			} else {
				st.ZetaTHigh += ratioOr(math.Max(0, 25-tMean), c.TSumHigh, 0)
				st.TauTHigh = clamp01(st.TauTHigh + st.ZetaTHigh)
				if st.TauTHigh == 1 {
					st.ZetaTHigh = 0
				}
			}
		} else {
			st.TauTHigh, st.ZetaTHigh = 1, 0
		}
	}
}

// GrowthLimitingFactor combines water, nitrogen and temperature stress.
func GrowthLimitingFactor(st *components.SpeciesState) float64 {
	return st.OmegaWater * math.Sqrt(st.OmegaN) * st.TauTLow * st.TauTHigh
}
