package components

import (
	"fmt"
	"math"
)

// WeatherDay holds the daily drivers of the sward.
type WeatherDay struct {
	DayOfYear       int
	TMean           float64 // [°C]
	TMin            float64 // [°C]
	TMax            float64 // [°C]
	GlobalRad       float64 // R_s [MJ m-2 d-1]
	ExtraterrRad    float64 // R_a [MJ m-2 d-1]
	SunHours        float64 // [h], informational
	RelHumidity     float64 // [0-1]
	Wind            float64 // [m s-1]
	WindHeight      float64 // [m]
	CO2             float64 // [μmol mol-1]
	Rain            float64 // [mm]
	DirectFraction  float64 // f_s [0-1]
	Daylength       float64 // τ [s]
	VegetationPhase bool
}

// Validate checks the values the pipeline divides by or integrates over.
func (w WeatherDay) Validate() error {
	vals := map[string]float64{
		"t_mean": w.TMean, "t_min": w.TMin, "t_max": w.TMax,
		"global_rad": w.GlobalRad, "extraterr_rad": w.ExtraterrRad,
		"rel_humidity": w.RelHumidity, "wind": w.Wind, "wind_height": w.WindHeight,
		"co2": w.CO2, "rain": w.Rain, "direct_fraction": w.DirectFraction,
		"daylength": w.Daylength,
	}
	for name, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weather day %d: %s is not finite", w.DayOfYear, name)
		}
	}
	if w.CO2 <= 0 {
		return fmt.Errorf("weather day %d: co2 must be positive, got %g", w.DayOfYear, w.CO2)
	}
	if w.WindHeight <= 0.1 {
		return fmt.Errorf("weather day %d: wind height must exceed 0.1 m, got %g", w.DayOfYear, w.WindHeight)
	}
	if w.DirectFraction < 0 || w.DirectFraction > 1 {
		return fmt.Errorf("weather day %d: direct fraction %g outside [0,1]", w.DayOfYear, w.DirectFraction)
	}
	return nil
}
