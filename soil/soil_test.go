package soil

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func loamProfile() config.SoilConfig {
	return config.SoilConfig{
		DefaultTexture: "loam",
		Horizons: []config.HorizonConfig{
			{Thickness: 0.3, Texture: "loam", InitialMoisture: 1, Nitrate: 0.02},
			{Thickness: 0.2, Texture: "clay", InitialMoisture: 0.5, Nitrate: 0.01},
		},
	}
}

// ---------- Texture ----------

func TestTextureTable_Consistent(t *testing.T) {
	for _, name := range TextureNames() {
		tx, ok := LookupTexture(name)
		if !ok {
			t.Fatalf("%s listed but not found", name)
		}
		if !(tx.WiltingPoint < tx.FieldCapacity && tx.FieldCapacity < tx.Saturation) {
			t.Errorf("%s: pwp %v, fc %v, sat %v out of order", name, tx.WiltingPoint, tx.FieldCapacity, tx.Saturation)
		}
	}
	if _, ok := LookupTexture(DefaultTexture); !ok {
		t.Error("default texture missing from table")
	}
}

func TestEstimateTexture_Loam(t *testing.T) {
	got := EstimateTexture(0.4, 0.2, 0.025)
	want, _ := LookupTexture("loam")

	if math.Abs(got.WiltingPoint-want.WiltingPoint) > 0.011 ||
		math.Abs(got.FieldCapacity-want.FieldCapacity) > 0.011 ||
		math.Abs(got.Saturation-want.Saturation) > 0.011 {
		t.Errorf("estimate %+v, want close to %+v", got, want)
	}
	if math.Abs(got.BulkDensity-want.BulkDensity) > 30 {
		t.Errorf("bulk density %v, want close to %v", got.BulkDensity, want.BulkDensity)
	}
}

func TestEstimateTexture_ClayHoldsMoreWater(t *testing.T) {
	sand := EstimateTexture(0.85, 0.05, 0.01)
	clay := EstimateTexture(0.2, 0.5, 0.01)
	if clay.FieldCapacity <= sand.FieldCapacity || clay.WiltingPoint <= sand.WiltingPoint {
		t.Errorf("clay %+v should retain more water than sand %+v", clay, sand)
	}
}

// ---------- Column construction ----------

func TestNew_HorizonsFillGrid(t *testing.T) {
	col, err := New(loamProfile(), 8, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if col.NumLayers() != 8 {
		t.Fatalf("layers = %d, want 8", col.NumLayers())
	}
	loam, _ := LookupTexture("loam")
	clay, _ := LookupTexture("clay")
	for i := 0; i < 3; i++ {
		if l := col.Layer(i); l.FieldCapacity != loam.FieldCapacity || l.Moisture != loam.FieldCapacity {
			t.Errorf("layer %d = %+v, want loam at field capacity", i, l)
		}
	}
	// last horizon extends to the bottom
	for i := 3; i < 8; i++ {
		l := col.Layer(i)
		if l.FieldCapacity != clay.FieldCapacity {
			t.Errorf("layer %d field capacity %v, want clay %v", i, l.FieldCapacity, clay.FieldCapacity)
		}
		if want := math.Max(clay.WiltingPoint, 0.5*clay.FieldCapacity); l.Moisture != want {
			t.Errorf("layer %d moisture %v, want %v", i, l.Moisture, want)
		}
	}
}

func TestNew_UnknownTextureWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := config.SoilConfig{Horizons: []config.HorizonConfig{{Thickness: 0.5, Texture: "moon_dust"}}}

	col, err := New(cfg, 5, 0.1, logger)
	if err != nil {
		t.Fatal(err)
	}
	loam, _ := LookupTexture("loam")
	if col.Layer(0).FieldCapacity != loam.FieldCapacity {
		t.Errorf("fallback field capacity %v, want loam %v", col.Layer(0).FieldCapacity, loam.FieldCapacity)
	}
	if !strings.Contains(buf.String(), "unknown soil texture") {
		t.Errorf("expected a warning, log was %q", buf.String())
	}
}

func TestNew_DeepProfileTruncated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := config.SoilConfig{Horizons: []config.HorizonConfig{{Thickness: 1.0, Texture: "sand"}}}

	col, err := New(cfg, 4, 0.1, logger)
	if err != nil {
		t.Fatal(err)
	}
	if col.NumLayers() != 4 {
		t.Errorf("layers = %d, want 4", col.NumLayers())
	}
	if !strings.Contains(buf.String(), "deeper than layer grid") {
		t.Error("expected a truncation warning")
	}
}

func TestNew_InvalidProperties(t *testing.T) {
	cfg := config.SoilConfig{Horizons: []config.HorizonConfig{{
		Thickness: 0.2, FieldCapacity: 0.2, Saturation: 0.15, WiltingPoint: 0.1, BulkDensity: 1400,
	}}}
	if _, err := New(cfg, 2, 0.1, quietLogger()); err == nil {
		t.Error("expected an error for saturation below field capacity")
	}
	if _, err := New(config.SoilConfig{}, 2, 0.1, quietLogger()); err == nil {
		t.Error("expected an error without horizons")
	}
}

func TestNew_SandClayEstimate(t *testing.T) {
	cfg := config.SoilConfig{Horizons: []config.HorizonConfig{{Thickness: 0.2, Sand: 0.4, Clay: 0.2, OrganicMatter: 0.025}}}
	col, err := New(cfg, 2, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if want := EstimateTexture(0.4, 0.2, 0.025); col.Layer(1).FieldCapacity != want.FieldCapacity {
		t.Errorf("field capacity %v, want %v", col.Layer(1).FieldCapacity, want.FieldCapacity)
	}
}

// ---------- Water and nitrogen ----------

func TestApplyWater_CascadeAndDrainage(t *testing.T) {
	col, err := New(loamProfile(), 8, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	before := col.Water()
	clay, _ := LookupTexture("clay")
	room := 5 * (clay.FieldCapacity - col.Layer(3).Moisture) * 100 // mm in the clay layers

	drained := col.ApplyWater(10)
	if drained != 0 {
		t.Errorf("drainage %v, want 0 while the subsoil has room", drained)
	}
	if math.Abs(col.Water()-before-10) > 1e-9 {
		t.Errorf("profile gained %v mm, want 10", col.Water()-before)
	}
	if math.Abs(col.Layer(0).Moisture-col.Layer(0).FieldCapacity) > 1e-12 {
		t.Error("top layer should stay at field capacity")
	}

	drained = col.ApplyWater(room + 5)
	if math.Abs(drained-15) > 1e-9 || col.Drainage != drained {
		t.Errorf("drainage %v, want 15", drained)
	}
	for i := 0; i < col.NumLayers(); i++ {
		if l := col.Layer(i); l.Moisture > l.FieldCapacity+1e-12 {
			t.Errorf("layer %d above field capacity: %v", i, l.Moisture)
		}
	}
}

func TestWithdrawWater_FloorsAtWiltingPoint(t *testing.T) {
	col, err := New(loamProfile(), 4, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	col.WithdrawWater([]float64{1, 1000})

	if got, want := col.Layer(0).Moisture, col.Layer(0).FieldCapacity-0.01; math.Abs(got-want) > 1e-12 {
		t.Errorf("layer 0 moisture %v, want %v", got, want)
	}
	if got := col.Layer(1).Moisture; got != col.Layer(1).WiltingPoint {
		t.Errorf("layer 1 moisture %v, want wilting point", got)
	}
	if got := col.Layer(2).Moisture; got != col.Layer(2).FieldCapacity {
		t.Error("layer beyond the uptake slice changed")
	}
}

func TestWithdrawNitrogen(t *testing.T) {
	col, err := New(loamProfile(), 4, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	before := col.Nitrate()
	col.WithdrawNitrogen([]float64{0.001, 1})

	if got := col.Layer(0).Nitrate; math.Abs(got-0.01) > 1e-12 {
		t.Errorf("layer 0 nitrate %v, want 0.01", got)
	}
	if got := col.Layer(1).Nitrate; got != 0 {
		t.Errorf("layer 1 nitrate %v, want 0", got)
	}
	if col.Nitrate() >= before {
		t.Error("profile nitrate should fall")
	}
}

func TestAddOrganicMatter(t *testing.T) {
	col, err := New(loamProfile(), 4, 0.1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	col.AddOrganicMatter([]components.OrganicMatterInput{{Carbon: 2, CNRatio: 20}, {Carbon: 1, CNRatio: 0}})
	col.AddOrganicMatter([]components.OrganicMatterInput{{Carbon: 2, CNRatio: 10}})

	if got := col.OrganicCarbon(0); got != 4 {
		t.Errorf("layer 0 carbon %v, want 4", got)
	}
	if got := col.OrganicCN(0); math.Abs(got-4/0.3) > 1e-12 {
		t.Errorf("layer 0 C:N %v, want %v", got, 4/0.3)
	}
	if got := col.OrganicCN(1); got != 0 {
		t.Errorf("layer 1 C:N %v, want 0 without nitrogen", got)
	}
}
