package systems

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// testSoil is a uniform in-memory soil column.
type testSoil struct {
	layers []components.SoilLayer
	dz     float64
}

func (s *testSoil) NumLayers() int                   { return len(s.layers) }
func (s *testSoil) LayerThickness() float64          { return s.dz }
func (s *testSoil) Layer(i int) components.SoilLayer { return s.layers[i] }

// uniformSoil builds n layers of loam at moisture theta [m3 m-3].
func uniformSoil(n int, dz, theta, nitrate float64) *testSoil {
	s := &testSoil{dz: dz}
	for i := 0; i < n; i++ {
		s.layers = append(s.layers, components.SoilLayer{
			FieldCapacity: 0.3,
			Saturation:    0.45,
			WiltingPoint:  0.1,
			BulkDensity:   1400,
			Moisture:      theta,
			Nitrate:       nitrate,
		})
	}
	return s
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

// testMixture builds a mixture of the named presets with the default grid.
func testMixture(t *testing.T, names ...string) *components.Mixture {
	t.Helper()
	cfg := testConfig(t)
	var cons []*components.SpeciesConstants
	for _, n := range names {
		c, ok := cfg.SpeciesByName(n)
		if !ok {
			t.Fatalf("unknown species preset %q", n)
		}
		cons = append(cons, &c)
	}
	return components.NewMixture(cons, cfg.Engine.NumLayers, cfg.Engine.LayerThickness)
}

func allResponses() config.ResponsesConfig {
	return config.ResponsesConfig{Nitrogen: true, Water: true, LowTemperature: true, HighTemperature: true}
}

// captureLogger returns a logger writing text records to buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// totalCarbon sums all pools and litter of a species [kg C m-2].
func totalCarbon(s *components.Species) float64 {
	var c float64
	for _, o := range components.Organs {
		p := &s.Pools[o]
		c += p.LiveCarbon() + p.DeadCarbon()
	}
	return c + s.State.LitterShoot.Carbon() + s.State.LitterRoot.Carbon()
}

// summerDay is a clear mid-summer day at 52°N.
func summerDay() components.WeatherDay {
	return components.WeatherDay{
		DayOfYear:       180,
		TMean:           15,
		TMin:            10,
		TMax:            20,
		GlobalRad:       15,
		ExtraterrRad:    41,
		RelHumidity:     0.7,
		Wind:            2,
		WindHeight:      2,
		CO2:             380,
		Rain:            0,
		DirectFraction:  0.5,
		Daylength:       16 * 3600,
		VegetationPhase: true,
	}
}
