package systems

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/components"
)

func TestTurnoverTemperature(t *testing.T) {
	tests := []struct {
		temp float64
		want float64
	}{
		{-5, 0},
		{3, 0},
		{20, 1},
		{25, 1},
		{35, 1},
	}
	for _, tt := range tests {
		if got := turnoverTemperature(tt.temp); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("f_γ(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
	if mid := turnoverTemperature(12); mid <= 0 || mid >= 1 {
		t.Errorf("f_γ(12) = %v, want in (0,1)", mid)
	}
}

// ---------- Conservation ----------

func TestTurnover_ConservesCarbonWithoutGrowth(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass", "white_clover")
	before := make([]float64, mix.Len())
	for i, s := range mix.Species {
		s.Pools[components.Leaf].SC[components.AgeDead] = 0.002
		s.Pools[components.Stem].PN[components.Dead] = 0.0005
		before[i] = totalCarbon(s)
	}

	for day := 0; day < 30; day++ {
		if err := Turnover(mix, 15, true, nil); err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
	}

	for i, s := range mix.Species {
		if got := totalCarbon(s); math.Abs(got-before[i]) > 1e-12 {
			t.Errorf("%s: carbon %v -> %v", s.Cons.Name, before[i], got)
		}
		if s.State.LitterShoot.Carbon() <= 0 || s.State.LitterRoot.Carbon() <= 0 {
			t.Errorf("%s: expected litter after a month of turnover", s.Cons.Name)
		}
	}
}

func TestTurnover_GrowthEntersYoungestClass(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	young := s.Pools[components.Leaf].SC[components.AgeYoung]

	g := 0.001
	s.State.Growth[components.Leaf] = g
	s.State.Composition[components.Leaf] = components.Composition{SC: 0.5, NC: 0.3, PN: 0.2}

	// No aging at 3°C, so the young class only gains the new structure.
	if err := Turnover(mix, 3, true, nil); err != nil {
		t.Fatal(err)
	}
	if got := s.Pools[components.Leaf].SC[components.AgeYoung]; math.Abs(got-(young+0.5*g)) > 1e-15 {
		t.Errorf("young SC = %v, want %v", got, young+0.5*g)
	}
	if s.State.Increment[components.Leaf] <= organicMatterGrowth(g, s.State.Composition[components.Leaf]) {
		t.Error("increment should include ash on top of organic matter")
	}
}

func TestTurnover_ColdStopsAgingButNotLitterfall(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	leaf := &s.Pools[components.Leaf]
	leaf.SC[components.AgeDead] = 0.01
	live := leaf.LiveSC()
	root := s.Pools[components.Root].SC[components.AgeYoung]

	if err := Turnover(mix, 2, true, nil); err != nil {
		t.Fatal(err)
	}

	if got := leaf.LiveSC(); got != live {
		t.Errorf("live leaf SC changed at 2°C: %v -> %v", live, got)
	}
	if got := s.Pools[components.Root].SC[components.AgeYoung]; got != root {
		t.Errorf("root SC changed at 2°C: %v -> %v", root, got)
	}
	wantDead := 0.01 * (1 - deadToLitterRate)
	if got := leaf.SC[components.AgeDead]; math.Abs(got-wantDead) > 1e-15 {
		t.Errorf("dead leaf SC = %v, want %v", got, wantDead)
	}
	if got := s.State.LitterShoot.SC; math.Abs(got-0.01*deadToLitterRate) > 1e-15 {
		t.Errorf("shoot litter SC = %v, want %v", got, 0.01*deadToLitterRate)
	}
}

func TestTurnover_StockingSpeedsLitterfall(t *testing.T) {
	grazed := testMixture(t, "perennial_ryegrass")
	ungrazed := testMixture(t, "perennial_ryegrass")
	grazed.StockingRate = 2
	for _, m := range []*components.Mixture{grazed, ungrazed} {
		m.Species[0].Pools[components.Leaf].SC[components.AgeDead] = 0.01
		if err := Turnover(m, 2, true, nil); err != nil {
			t.Fatal(err)
		}
	}
	if grazed.Species[0].State.LitterShoot.SC <= ungrazed.Species[0].State.LitterShoot.SC {
		t.Error("stocking should increase dead-to-litter flux")
	}
}

// ---------- Negative pools ----------

func TestTurnover_VerifyReportsNegativePool(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	mix.Species[0].Pools[components.Stem].AH[components.Dead] = -1

	err := Turnover(mix, 15, true, nil)

	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected *InvariantError, got %v", err)
	}
	if !strings.Contains(inv.Check, "stem.ah_dead") {
		t.Errorf("check = %q, want the stem dead ash pool", inv.Check)
	}
}

func TestTurnover_ClampsNegativePoolAndLogs(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	s.Pools[components.Stem].AH[components.Dead] = -1

	var buf bytes.Buffer
	if err := Turnover(mix, 15, false, captureLogger(&buf)); err != nil {
		t.Fatalf("unexpected error outside verify mode: %v", err)
	}
	if got := s.Pools[components.Stem].AH[components.Dead]; got != 0 {
		t.Errorf("pool = %v, want clamped to 0", got)
	}
	if !strings.Contains(buf.String(), "negative pool clamped") {
		t.Errorf("expected a warning, log was %q", buf.String())
	}
}
