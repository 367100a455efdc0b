package soil

import "math"

const mineralDensity = 2650 // particle density [kg m-3]

// EstimateTexture derives hydraulic properties from sand and clay fractions
// [0-1] and organic matter [0-1] with the Saxton & Rawls (2006) equations.
// Results are rounded to two decimals (bulk density to 10 kg m-3).
func EstimateTexture(sand, clay, organicMatter float64) Texture {
	s, c := sand, clay
	om := organicMatter * 100 // equations take weight percent

	wp := -0.024*s + 0.487*c + 0.006*om + 0.005*s*om - 0.013*c*om + 0.068*s*c + 0.031
	wp += 0.14*wp - 0.02

	fc := -0.251*s + 0.195*c + 0.011*om + 0.006*s*om - 0.027*c*om + 0.452*s*c + 0.299
	fc += 1.283*fc*fc - 0.374*fc - 0.015

	air := 0.278*s + 0.034*c + 0.022*om - 0.018*s*om - 0.027*c*om - 0.584*s*c + 0.078
	air += 0.636*air - 0.107

	sat := fc + air - 0.097*s + 0.043
	bd := (1 - sat) * mineralDensity

	return Texture{
		Name:          "estimated",
		WiltingPoint:  round2(wp),
		FieldCapacity: round2(fc),
		Saturation:    round2(sat),
		BulkDensity:   math.Round(bd/10) * 10,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
