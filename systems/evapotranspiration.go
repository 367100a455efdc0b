package systems

import (
	"math"

	"github.com/pthm-cable/sward/components"
)

const (
	canopyConductance  = 0.015 // [m s-1]
	stefanBoltzmann    = 4.903e-9
	interceptionPerM   = 2.5 // storage capacity per m canopy height at full cover [mm]
	minWindSpeed2m     = 0.5 // keeps aerodynamic resistance finite [m s-1]
	defaultRefAlbedo   = 0.23
	stomatalResistance = 1 / canopyConductance // [s m-1]
)

// ReferenceET returns FAO Penman–Monteith reference evapotranspiration
// [mm d-1] with a fixed canopy conductance.
func ReferenceET(day components.WeatherDay, elevation, albedo float64) float64 {
	if albedo <= 0 {
		albedo = defaultRefAlbedo
	}
	t, tMax, tMin := day.TMean, day.TMax, day.TMin

	pressure := 101.3 * math.Pow((293-0.0065*elevation)/293, 5.26)
	gamma := 0.000665 * pressure

	esMax := saturatedVapourPressure(tMax)
	esMin := saturatedVapourPressure(tMin)
	es := (esMax + esMin) / 2
	ea := day.RelHumidity * es
	if day.RelHumidity <= 0 {
		// dew point taken as T_min
		ea = esMin
	}
	deficit := es - ea
	slope := 4098 * saturatedVapourPressure(t) / ((t + 237.3) * (t + 237.3))

	u2 := WindAt2m(day.Wind, day.WindHeight)
	rAero := 208 / u2
	rSurface := stomatalResistance / 1.44

	rn := NetRadiation(day, elevation, albedo, ea)

	et := (0.408*slope*rn + gamma*(900/(t+273))*u2*deficit) /
		(slope + gamma*(1+rSurface/rAero))
	return math.Max(0, et)
}

// NetRadiation returns net shortwave minus net longwave radiation [MJ m-2 d-1].
func NetRadiation(day components.WeatherDay, elevation, albedo, ea float64) float64 {
	rso := (0.75 + 2e-5*elevation) * day.ExtraterrRad
	rel := ratioOr(day.GlobalRad, rso, 1)
	rel = clamp(rel, 0.3, 1)
	rns := (1 - albedo) * day.GlobalRad
	tk4 := (math.Pow(day.TMin+273.16, 4) + math.Pow(day.TMax+273.16, 4)) / 2
	rnl := stefanBoltzmann * tk4 * (1.35*rel - 0.35) * (0.34 - 0.14*math.Sqrt(math.Max(0, ea)))
	return rns - rnl
}

func saturatedVapourPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// WindAt2m converts wind speed measured at height h to 2 m.
func WindAt2m(u, h float64) float64 {
	u2 := u
	if h != 2 {
		u2 = u * 4.87 / math.Log(67.8*h-5.42)
	}
	return math.Max(minWindSpeed2m, u2)
}

// InterceptionStore is the water held on the canopy between days.
type InterceptionStore struct {
	Storage          float64 // [mm]
	NetPrecipitation float64 // rain reaching the soil today [mm]
	Evaporated       float64 // evaporated from storage today [mm]
}

// Intercept splits today's rain into canopy storage and net precipitation.
// Capacity scales with canopy height and ground cover.
func Intercept(store *InterceptionStore, rain float64, mix *components.Mixture) {
	capacity := math.Max(0, interceptionPerM*mix.Height()*mix.GroundCover-store.Storage)
	if rain <= 0 {
		capacity = 0
	}
	intercepted := capacity
	if rain <= capacity {
		intercepted = math.Max(0, rain)
		store.NetPrecipitation = 0
	} else {
		store.NetPrecipitation = rain - capacity
	}
	store.Storage += intercepted
}

// EvaporateIntercepted evaporates stored canopy water first and returns the
// evaporative demand left for transpiration [mm].
func EvaporateIntercepted(store *InterceptionStore, etPot float64) float64 {
	store.Evaporated = 0
	if store.Storage <= 0 {
		return etPot
	}
	if etPot >= store.Storage {
		store.Evaporated = store.Storage
		store.Storage = 0
		return etPot - store.Evaporated
	}
	store.Storage -= etPot
	store.Evaporated = etPot
	return 0
}
