package weather

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/config"
)

// ---------- Astronomy ----------

func TestExtraterrestrialRadiation_FAOExample(t *testing.T) {
	// FAO-56 example 8: 20°S on 3 September.
	if got := ExtraterrestrialRadiation(-20, 246); math.Abs(got-32.2) > 0.1 {
		t.Errorf("R_a = %v, want 32.2", got)
	}
}

func TestDaylength(t *testing.T) {
	tests := []struct {
		name     string
		lat      float64
		doy      int
		want     float64 // hours
		tolerant float64
	}{
		{"FAO example 9", -20, 246, 11.7, 0.05},
		{"equator", 0, 100, 12, 1e-9},
		{"polar day", 80, 172, 24, 1e-9},
		{"polar night", 80, 355, 0, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Daylength(tt.lat, tt.doy) / 3600; math.Abs(got-tt.want) > tt.tolerant {
				t.Errorf("daylength = %v h, want %v", got, tt.want)
			}
		})
	}
	if ra := ExtraterrestrialRadiation(80, 355); ra != 0 {
		t.Errorf("R_a in polar night = %v, want 0", ra)
	}
}

func TestDirectFraction(t *testing.T) {
	tests := []struct {
		rs, ra, want float64
	}{
		{0, 30, 0},
		{1, 30, 0},
		{15, 30, 0.4},
		{24, 30, 0.77},
	}
	for _, tt := range tests {
		if got := DirectFraction(tt.rs, tt.ra); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("f_s(%v/%v) = %v, want %v", tt.rs, tt.ra, got, tt.want)
		}
	}
}

func TestGlobalRadiationFromSunshine(t *testing.T) {
	ra := ExtraterrestrialRadiation(52.5, 180)
	n := Daylength(52.5, 180) / 3600
	if got := GlobalRadiationFromSunshine(0, 52.5, 180); math.Abs(got-0.25*ra) > 1e-9 {
		t.Errorf("overcast R_s = %v, want %v", got, 0.25*ra)
	}
	if got := GlobalRadiationFromSunshine(n+3, 52.5, 180); math.Abs(got-0.75*ra) > 1e-9 {
		t.Errorf("clear R_s = %v, want %v", got, 0.75*ra)
	}
}

// ---------- Vegetation period ----------

func TestVegetationDetector(t *testing.T) {
	var d VegetationDetector
	if !d.Observe(10) {
		t.Error("a warm first day should start the vegetation period")
	}
	for i := 0; i < 4; i++ {
		d.Observe(10)
	}
	// mean of (10,10,10,10,0) = 8
	if !d.Observe(0) {
		t.Error("one cold day should not end the period")
	}
	for i := 0; i < 3; i++ {
		d.Observe(0)
	}
	// all five days cold
	if d.Observe(0) {
		t.Error("five cold days should end the period")
	}
	d.Reset()
	if d.Observe(5) {
		t.Error("5°C is not above the threshold")
	}
}

// ---------- CSV ----------

func testSite() config.SiteConfig {
	return config.SiteConfig{Latitude: 52.5, Elevation: 50, CO2: 380}
}

func TestReadCSV(t *testing.T) {
	data := `date,tmin,tmax,tavg,globrad,wind,precip,relhumid
2020-06-28,10,20,15,18,3,1.5,70
2020-06-29,11,21,,0,2,0,65
`
	days, err := ReadCSV(strings.NewReader(data), testSite(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	d := days[0]
	if d.DayOfYear != 180 {
		t.Errorf("doy = %d, want 180 (leap year)", d.DayOfYear)
	}
	if d.RelHumidity != 0.7 {
		t.Errorf("relative humidity = %v, want 0.7", d.RelHumidity)
	}
	if want := ExtraterrestrialRadiation(52.5, 180); d.ExtraterrRad != want {
		t.Errorf("R_a = %v, want %v", d.ExtraterrRad, want)
	}
	if d.Daylength <= 15*3600 || d.WindHeight != 10 || d.CO2 != 380 {
		t.Errorf("derived fields: daylength %v, wind height %v, co2 %v", d.Daylength, d.WindHeight, d.CO2)
	}
	if d.DirectFraction <= 0 || d.DirectFraction >= 1 {
		t.Errorf("direct fraction = %v, want in (0,1)", d.DirectFraction)
	}
	if !d.VegetationPhase {
		t.Error("a 15°C day should be in the vegetation period")
	}
	if err := d.Validate(); err != nil {
		t.Error(err)
	}
	if days[1].TMean != 16 {
		t.Errorf("missing tavg = %v, want mean of min and max", days[1].TMean)
	}
}

func TestReadCSV_BadDate(t *testing.T) {
	data := "date,tmin,tmax\nyesterday,1,2\n"
	if _, err := ReadCSV(strings.NewReader(data), testSite(), 2); err == nil {
		t.Error("expected an error for a row without doy or valid date")
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	g := NewGenerator(testSynthetic(), testSite(), 7)
	days := g.Generate(120, 10)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, days); err != nil {
		t.Fatal(err)
	}
	back, err := ReadCSV(&buf, testSite(), days[0].WindHeight)
	if err != nil {
		t.Fatal(err)
	}
	for i := range days {
		if back[i].DayOfYear != days[i].DayOfYear ||
			math.Abs(back[i].TMean-days[i].TMean) > 1e-9 ||
			math.Abs(back[i].GlobalRad-days[i].GlobalRad) > 1e-9 ||
			math.Abs(back[i].RelHumidity-days[i].RelHumidity) > 1e-9 {
			t.Errorf("day %d differs after round trip: %+v vs %+v", i, back[i], days[i])
		}
	}
}

// ---------- Generator ----------

func testSynthetic() config.SyntheticConfig {
	return config.SyntheticConfig{
		MeanTemp: 9, TempAmplitude: 8, DiurnalRange: 8,
		RainChance: 0.45, RainMean: 5, Wind: 3, WindHeight: 2,
		RelHumidity: 0.78, NoiseScale: 0.15,
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(testSynthetic(), testSite(), 42).Generate(1, 60)
	b := NewGenerator(testSynthetic(), testSite(), 42).Generate(1, 60)
	c := NewGenerator(testSynthetic(), testSite(), 43).Generate(1, 60)

	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("day %d differs for the same seed", i)
		}
		if a[i].TMean != c[i].TMean {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical temperatures")
	}
}

func TestGenerator_PlausibleYear(t *testing.T) {
	days := NewGenerator(testSynthetic(), testSite(), 1).Generate(1, 365)

	var winter, summer, rainDays float64
	for i, d := range days {
		if err := d.Validate(); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		if d.TMin > d.TMean || d.TMean > d.TMax {
			t.Errorf("day %d: temperatures out of order %v %v %v", i, d.TMin, d.TMean, d.TMax)
		}
		if d.Rain < 0 || d.RelHumidity < 0.3 || d.RelHumidity > 0.98 || d.GlobalRad > d.ExtraterrRad {
			t.Errorf("day %d: implausible %+v", i, d)
		}
		if d.Rain > 0 {
			rainDays++
		}
		switch {
		case d.DayOfYear <= 31:
			winter += d.TMean / 31
		case d.DayOfYear >= 182 && d.DayOfYear <= 212:
			summer += d.TMean / 31
		}
	}
	if summer <= winter+8 {
		t.Errorf("July mean %v not clearly above January mean %v", summer, winter)
	}
	if rainDays == 0 || rainDays == 365 {
		t.Errorf("rain days = %v, want a mix of wet and dry", rainDays)
	}
	if days[len(days)-1].DayOfYear != 365 {
		t.Errorf("last doy = %d, want 365", days[len(days)-1].DayOfYear)
	}
}
