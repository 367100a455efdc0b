package systems

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/components"
)

// ---------- Response functions ----------

func TestCO2Response_Anchors(t *testing.T) {
	tests := []struct {
		name        string
		lambda, fcm float64
	}{
		{"ryegrass", 1.2, 1.49},
		{"clover", 1.25, 1.6},
		{"maize", 1.05, 1.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := co2Response(380, tt.lambda, tt.fcm); math.Abs(got-1) > 1e-9 {
				t.Errorf("f_C(380) = %v, want 1", got)
			}
			if got := co2Response(760, tt.lambda, tt.fcm); math.Abs(got-tt.lambda) > 1e-9 {
				t.Errorf("f_C(760) = %v, want λ = %v", got, tt.lambda)
			}
			if got := co2Response(1e7, tt.lambda, tt.fcm); math.Abs(got-tt.fcm) > 1e-3 {
				t.Errorf("f_C(∞) = %v, want f_C_m = %v", got, tt.fcm)
			}
		})
	}
}

func TestCO2Domain_ClampsAndWarnsOnce(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	cons := *s.Cons
	cons.Photo.Lambda = 1.2
	cons.Photo.FCm = 2 // above λ/(2-λ) = 1.5
	s.Cons = &cons

	var buf bytes.Buffer
	logger := captureLogger(&buf)

	first := co2Domain(s, logger)
	second := co2Domain(s, logger)

	if first >= 1.5 || math.Abs(first-1.5) > 1e-9 {
		t.Errorf("clamped f_C_m = %v, want just below 1.5", first)
	}
	if first != second {
		t.Errorf("clamp not stable: %v vs %v", first, second)
	}
	if n := strings.Count(buf.String(), "co2 response clamped"); n != 1 {
		t.Errorf("warning logged %d times, want 1", n)
	}
	if f := co2Response(700, cons.Photo.Lambda, first); math.IsNaN(f) || math.IsInf(f, 0) {
		t.Errorf("response with clamped f_C_m not finite: %v", f)
	}
}

func TestLeafRate(t *testing.T) {
	if got := leafRate(0, 0.05, 20, 0.8); got != 0 {
		t.Errorf("P_l at zero light = %v, want 0", got)
	}
	// saturates toward P_m
	if got := leafRate(1e7, 0.05, 20, 0.8); got > 20 || got < 19.9 {
		t.Errorf("P_l at saturating light = %v, want ~20", got)
	}
	// initial slope is α
	if got := leafRate(1, 0.05, 20, 0.8); math.Abs(got-0.05) > 1e-3 {
		t.Errorf("P_l at low light = %v, want ~α", got)
	}
}

func TestNitrogenResponses(t *testing.T) {
	if got := pmNitrogen(0.04, 0.08); got != 0.5 {
		t.Errorf("f_Pm_N = %v, want 0.5", got)
	}
	if got := pmNitrogen(0.1, 0.08); got != 1 {
		t.Errorf("f_Pm_N above ref = %v, want 1", got)
	}
	if got := alphaNitrogen(0, 0.08); got != 0.5 {
		t.Errorf("f_α_N at zero N = %v, want 0.5", got)
	}
	if got := alphaNitrogen(0.04, 0.08); got != 0.75 {
		t.Errorf("f_α_N at half ref = %v, want 0.75", got)
	}
}

func TestPmTemperature_C4Plateau(t *testing.T) {
	mix := testMixture(t, "maize")
	ph := mix.Species[0].Cons.Photo
	atOpt := pmTemperatureCO2(ph.TOptPmAmb, 1, ph, true)
	above := pmTemperatureCO2(ph.TOptPmAmb+8, 1, ph, true)
	if atOpt <= 0 || above != atOpt {
		t.Errorf("C4 response above optimum = %v, want plateau %v", above, atOpt)
	}
	if c3 := pmTemperatureCO2(ph.TOptPmAmb+8, 1, ph, false); c3 >= atOpt {
		t.Errorf("C3 response should decline above optimum: %v >= %v", c3, atOpt)
	}
}

func TestAlphaTemperature_DeclinesAboveOptimum(t *testing.T) {
	ph := components.PhotoConstants{LambdaAlpha: 0.02}
	if got := alphaTemperatureCO2(10, 380, 1, ph); got != 1 {
		t.Errorf("f_α_TC below 15°C = %v, want 1", got)
	}
	if got := alphaTemperatureCO2(25, 380, 1, ph); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("f_α_TC at 25°C = %v, want 0.8", got)
	}
	if got := alphaTemperatureCO2(200, 380, 1, ph); got != 0 {
		t.Errorf("f_α_TC is floored at 0, got %v", got)
	}
}

// ---------- Canopy ----------

func TestGrossPhotosynthesis_ZeroLeafArea(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	s.Pools[components.Leaf] = components.OrganPools{}

	GrossPhotosynthesis(mix, summerDay(), nil)

	if s.State.PGross != 0 || math.IsNaN(s.State.PGross) {
		t.Errorf("P_g_day without leaves = %v, want 0", s.State.PGross)
	}
}

func TestGrossPhotosynthesis_ZeroRadiation(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	day := summerDay()
	day.GlobalRad = 0

	GrossPhotosynthesis(mix, day, nil)

	if got := mix.Species[0].State.PGross; got != 0 {
		t.Errorf("P_g_day without radiation = %v, want 0", got)
	}
}

func TestGrossPhotosynthesis_ScaledByGLF(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]

	GrossPhotosynthesis(mix, summerDay(), nil)
	full := s.State.PGross
	if full <= 0 {
		t.Fatalf("P_g_day = %v, want positive on a summer day", full)
	}

	s.State.OmegaWater = 0.5
	GrossPhotosynthesis(mix, summerDay(), nil)
	if math.Abs(s.State.PGross-0.5*full) > 1e-15 {
		t.Errorf("P_g_day at Ω_water 0.5 = %v, want %v", s.State.PGross, 0.5*full)
	}
	if s.State.GLF != 0.5 {
		t.Errorf("GLF = %v, want 0.5", s.State.GLF)
	}
}

func TestGrossPhotosynthesis_IncreasesWithLeafArea(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass", "perennial_ryegrass")
	mix.Species[1].Pools[components.Leaf].Scale(0.5)

	GrossPhotosynthesis(mix, summerDay(), nil)

	big, small := mix.Species[0].State.PGross, mix.Species[1].State.PGross
	if !(big > small && small > 0) {
		t.Errorf("P_g_day should follow leaf area: %v (full) vs %v (half)", big, small)
	}
}
