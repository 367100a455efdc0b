package telemetry

import (
	"log/slog"
)

// DailyRecord is one row of daily.csv. Masses are per hectare.
type DailyRecord struct {
	Day int `csv:"day"`
	DOY int `csv:"doy"`

	// Drivers
	TMean     float64 `csv:"t_mean"`
	GlobalRad float64 `csv:"global_rad"`
	Rain      float64 `csv:"rain"`

	// Sward state [kg DM ha-1]
	Biomass      float64 `csv:"biomass"`
	Shoot        float64 `csv:"shoot"`
	Root         float64 `csv:"root"`
	Growth       float64 `csv:"growth"`
	LAI          float64 `csv:"lai"`
	Height       float64 `csv:"height"`
	GroundCover  float64 `csv:"ground_cover"`
	RootingDepth float64 `csv:"rooting_depth"`

	// Carbon [kg CH2O ha-1]
	GrossPhotosynthate float64 `csv:"gross_photosynthate"`
	NetPhotosynthate   float64 `csv:"net_photosynthate"`

	// Limiting factors, shoot weighted over species
	WaterStress    float64 `csv:"omega_water"`
	NitrogenStress float64 `csv:"omega_n"`
	LowTempStress  float64 `csv:"tau_t_low"`
	HighTempStress float64 `csv:"tau_t_high"`

	// Water [mm]
	ET0              float64 `csv:"et0"`
	PotentialET      float64 `csv:"et_pot"`
	Transpired       float64 `csv:"transpired"`
	Evaporated       float64 `csv:"evaporated"`
	NetPrecipitation float64 `csv:"net_precipitation"`
	AccumulatedET    float64 `csv:"et_accumulated"`
	Drainage         float64 `csv:"drainage"`
	SoilWater        float64 `csv:"soil_water"`

	// Nitrogen [kg N ha-1]
	NitrogenUptake float64 `csv:"n_uptake"`
	NitrogenFixed  float64 `csv:"n_fixed"`
	SoilNitrate    float64 `csv:"soil_nitrate"`

	// Forage quality [g kg-1 DM]
	CrudeProtein  float64 `csv:"crude_protein"`
	OrganicMatter float64 `csv:"organic_matter"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r DailyRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", r.Day),
		slog.Int("doy", r.DOY),
		slog.Float64("t_mean", r.TMean),
		slog.Float64("biomass", r.Biomass),
		slog.Float64("shoot", r.Shoot),
		slog.Float64("growth", r.Growth),
		slog.Float64("lai", r.LAI),
		slog.Float64("height", r.Height),
		slog.Float64("omega_water", r.WaterStress),
		slog.Float64("omega_n", r.NitrogenStress),
		slog.Float64("et0", r.ET0),
		slog.Float64("transpired", r.Transpired),
		slog.Float64("soil_water", r.SoilWater),
		slog.Float64("n_uptake", r.NitrogenUptake),
		slog.Float64("crude_protein", r.CrudeProtein),
	)
}

// SpeciesStatus is the per-species view alert detection works on.
type SpeciesStatus struct {
	Name           string
	Growth         float64 // [kg DM ha-1 d-1]
	WaterStress    float64
	NitrogenStress float64
	LowTempStress  float64
	HighTempStress float64
	AtFloor        bool
	PhenologyReset bool
}

// HarvestRecord is one row of harvests.csv.
type HarvestRecord struct {
	Day           int     `csv:"day"`
	DOY           int     `csv:"doy"`
	Plot          string  `csv:"plot"`
	Method        string  `csv:"method"` // "height" or "mass"
	Target        float64 `csv:"target"` // residual height [m] or mass [kg DM ha-1]
	Removed       float64 `csv:"removed"`
	Residual      float64 `csv:"residual"`
	CrudeProtein  float64 `csv:"crude_protein"`
	OrganicMatter float64 `csv:"organic_matter"`
}

// LogValue implements slog.LogValuer for structured logging.
func (h HarvestRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", h.Day),
		slog.Int("doy", h.DOY),
		slog.String("plot", h.Plot),
		slog.String("method", h.Method),
		slog.Float64("target", h.Target),
		slog.Float64("removed", h.Removed),
		slog.Float64("residual", h.Residual),
		slog.Float64("crude_protein", h.CrudeProtein),
	)
}

// SeasonStats summarises a window of days. It is one row of season.csv.
type SeasonStats struct {
	StartDay int `csv:"start_day"`
	EndDay   int `csv:"end_day"`
	Days     int `csv:"days"`

	// Growth rate distribution [kg DM ha-1 d-1]
	GrowthMean float64 `csv:"growth_mean"`
	GrowthStd  float64 `csv:"growth_std"`
	GrowthP10  float64 `csv:"growth_p10"`
	GrowthP50  float64 `csv:"growth_p50"`
	GrowthP90  float64 `csv:"growth_p90"`

	Harvested float64 `csv:"harvested"` // [kg DM ha-1]
	Cuts      int     `csv:"cuts"`
	EndShoot  float64 `csv:"end_shoot"`

	WaterStressMean    float64 `csv:"omega_water_mean"`
	NitrogenStressMean float64 `csv:"omega_n_mean"`
	StressedDays       int     `csv:"stressed_days"`

	Rain         float64 `csv:"rain"`
	ET0          float64 `csv:"et0"`
	Transpired   float64 `csv:"transpired"`
	Drainage     float64 `csv:"drainage"`
	NitrogenUp   float64 `csv:"n_uptake"`
	NitrogenFix  float64 `csv:"n_fixed"`
	CrudeProtein float64 `csv:"crude_protein_mean"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s SeasonStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("start_day", s.StartDay),
		slog.Int("end_day", s.EndDay),
		slog.Float64("growth_mean", s.GrowthMean),
		slog.Float64("growth_std", s.GrowthStd),
		slog.Float64("growth_p50", s.GrowthP50),
		slog.Float64("harvested", s.Harvested),
		slog.Int("cuts", s.Cuts),
		slog.Float64("omega_water_mean", s.WaterStressMean),
		slog.Float64("omega_n_mean", s.NitrogenStressMean),
		slog.Int("stressed_days", s.StressedDays),
		slog.Float64("rain", s.Rain),
		slog.Float64("transpired", s.Transpired),
		slog.Float64("drainage", s.Drainage),
	)
}
