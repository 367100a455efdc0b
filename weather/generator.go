package weather

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Generator produces smooth, seeded synthetic daily weather. Each driver
// reads its own noise field along the day axis, so runs with the same seed
// are identical.
type Generator struct {
	cfg  config.SyntheticConfig
	site config.SiteConfig

	tempNoise  opensimplex.Noise
	cloudNoise opensimplex.Noise
	rainNoise  opensimplex.Noise
	windNoise  opensimplex.Noise

	veg VegetationDetector
	day int
}

// NewGenerator creates a generator for a site.
func NewGenerator(cfg config.SyntheticConfig, site config.SiteConfig, seed int64) *Generator {
	if cfg.NoiseScale <= 0 {
		cfg.NoiseScale = 0.15
	}
	if cfg.WindHeight <= 0 {
		cfg.WindHeight = 2
	}
	return &Generator{
		cfg:        cfg,
		site:       site,
		tempNoise:  opensimplex.NewNormalized(seed),
		cloudNoise: opensimplex.NewNormalized(seed + 1),
		rainNoise:  opensimplex.NewNormalized(seed + 2),
		windNoise:  opensimplex.NewNormalized(seed + 3),
	}
}

// octaveNoise layers frequencies of a normalised noise field; the result
// stays in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Next returns the weather of day of year doy and advances the generator.
func (g *Generator) Next(doy int) components.WeatherDay {
	c := g.cfg
	x := float64(g.day)
	g.day++

	// signed noise in [-1, 1]
	signed := func(n opensimplex.Noise, y float64) float64 {
		return 2*octaveNoise(n, x, y, 3, c.NoiseScale, 0.5) - 1
	}

	season := -math.Cos(2 * math.Pi * float64(doy-15) / 365)
	tMean := c.MeanTemp + c.TempAmplitude*season + 3*signed(g.tempNoise, 0)

	cloud := octaveNoise(g.cloudNoise, x, 0, 3, c.NoiseScale*2, 0.5)
	ra := ExtraterrestrialRadiation(g.site.Latitude, doy)
	rs := ra * (0.25 + 0.5*(1-cloud))

	// Clear days have a wider diurnal range.
	dtr := c.DiurnalRange * (0.6 + 0.8*(1-cloud))

	var rain float64
	wet := octaveNoise(g.rainNoise, x, 0, 2, c.NoiseScale*3, 0.5)
	if threshold := 1 - c.RainChance; wet > threshold && threshold < 1 {
		rain = c.RainMean * 2 * (wet - threshold) / (1 - threshold)
	}

	rh := math.Max(0.3, math.Min(0.98, c.RelHumidity+0.2*(cloud-0.5)))
	wind := math.Max(0, c.Wind*(0.5+octaveNoise(g.windNoise, x, 0, 2, c.NoiseScale, 0.5)))

	return components.WeatherDay{
		DayOfYear:       doy,
		TMean:           tMean,
		TMin:            tMean - dtr/2,
		TMax:            tMean + dtr/2,
		GlobalRad:       rs,
		ExtraterrRad:    ra,
		RelHumidity:     rh,
		Wind:            wind,
		WindHeight:      c.WindHeight,
		CO2:             g.site.CO2,
		Rain:            rain,
		DirectFraction:  DirectFraction(rs, ra),
		Daylength:       Daylength(g.site.Latitude, doy),
		VegetationPhase: g.veg.Observe(tMean),
	}
}

// Generate returns n consecutive days starting at startDOY, wrapping at
// the end of the year.
func (g *Generator) Generate(startDOY, n int) []components.WeatherDay {
	days := make([]components.WeatherDay, 0, n)
	for i := 0; i < n; i++ {
		doy := (startDOY+i-1)%365 + 1
		days = append(days, g.Next(doy))
	}
	return days
}
