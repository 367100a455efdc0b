// Package weather provides the daily weather drivers of the sward: a CSV
// reader, a seeded synthetic generator and the radiation geometry both need.
package weather

import "math"

const solarConstant = 0.0820 // [MJ m-2 min-1]

func declination(doy int) float64 {
	return 0.409 * math.Sin(2*math.Pi/365*float64(doy)-1.39)
}

// sunsetAngle returns ω_s [rad], clamped for polar day and night.
func sunsetAngle(latitude float64, doy int) float64 {
	phi := latitude * math.Pi / 180
	x := -math.Tan(phi) * math.Tan(declination(doy))
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

// ExtraterrestrialRadiation returns R_a [MJ m-2 d-1] at latitude [deg] on
// day of year doy (FAO-56 eq. 21).
func ExtraterrestrialRadiation(latitude float64, doy int) float64 {
	phi := latitude * math.Pi / 180
	delta := declination(doy)
	ws := sunsetAngle(latitude, doy)
	dr := 1 + 0.033*math.Cos(2*math.Pi/365*float64(doy))
	ra := 24 * 60 / math.Pi * solarConstant * dr *
		(ws*math.Sin(phi)*math.Sin(delta) + math.Cos(phi)*math.Cos(delta)*math.Sin(ws))
	return math.Max(0, ra)
}

// Daylength returns the astronomical daylength [s].
func Daylength(latitude float64, doy int) float64 {
	return 24 / math.Pi * sunsetAngle(latitude, doy) * 3600
}

// GlobalRadiationFromSunshine estimates R_s [MJ m-2 d-1] from sunshine
// hours with the Ångström formula.
func GlobalRadiationFromSunshine(sunHours, latitude float64, doy int) float64 {
	n := Daylength(latitude, doy) / 3600
	if n <= 0 {
		return 0
	}
	return (0.25 + 0.5*math.Min(1, sunHours/n)) * ExtraterrestrialRadiation(latitude, doy)
}

// DirectFraction returns the direct share of global radiation from the
// atmospheric transmission R_s/R_a (Spitters et al. 1986, daily values).
func DirectFraction(globalRad, extraterrRad float64) float64 {
	if extraterrRad <= 0 || globalRad <= 0 {
		return 0
	}
	kt := globalRad / extraterrRad
	var diffuse float64
	switch {
	case kt < 0.07:
		diffuse = 1
	case kt < 0.35:
		diffuse = 1 - 2.3*(kt-0.07)*(kt-0.07)
	case kt < 0.75:
		diffuse = 1.33 - 1.46*kt
	default:
		diffuse = 0.23
	}
	return math.Max(0, math.Min(1, 1-diffuse))
}
