package systems

import (
	"math"
	"testing"
)

func TestNitrogenUptake_ProportionalToRootMass(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	soil := uniformSoil(mix.NumLayers, mix.LayerThickness, 0.25, 0.5)
	mix.RootMass[0][0] = 0.01

	NitrogenUptake(mix, soil)

	s := mix.Species[0]
	want := s.Cons.NUptakeCoef * (0.5 / 1400) * 0.01
	if got := mix.NitrogenUptake[0][0]; math.Abs(got-want) > 1e-15 {
		t.Errorf("uptake = %v, want %v", got, want)
	}
	if mix.NitrogenUptake[0][1] != 0 {
		t.Errorf("layer without roots took %v", mix.NitrogenUptake[0][1])
	}
}

func TestNitrogenUptake_LayerCapServesIndexOrder(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass", "white_clover")
	soil := uniformSoil(mix.NumLayers, mix.LayerThickness, 0.25, 0.01)
	mix.RootMass[0][0] = 100
	mix.RootMass[1][0] = 100
	mix.RootMass[1][1] = 1e-6

	NitrogenUptake(mix, soil)

	avail := 0.01 * mix.LayerThickness
	if got := mix.NitrogenUptake[0][0]; math.Abs(got-avail) > 1e-18 {
		t.Errorf("first species took %v, want the whole layer %v", got, avail)
	}
	if got := mix.NitrogenUptake[1][0]; got != 0 {
		t.Errorf("second species took %v from an exhausted layer", got)
	}
	if mix.NitrogenUptake[1][1] <= 0 {
		t.Error("second species should take from its own layer")
	}
	for l := range mix.NitrogenSum {
		if mix.NitrogenSum[l] > avail+1e-18 {
			t.Errorf("layer %d total %v exceeds %v", l, mix.NitrogenSum[l], avail)
		}
	}
}

func TestNitrogenUptake_ShallowSoil(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	soil := uniformSoil(3, mix.LayerThickness, 0.25, 0.5)
	for l := range mix.RootMass[0] {
		mix.RootMass[0][l] = 0.01
	}

	NitrogenUptake(mix, soil)

	for l := 3; l < mix.NumLayers; l++ {
		if mix.NitrogenUptake[0][l] != 0 {
			t.Errorf("uptake from layer %d missing in the soil", l)
		}
	}
}

func TestSettleNitrogenUptake(t *testing.T) {
	mix := testMixture(t, "white_clover")
	s := mix.Species[0]
	mix.NitrogenUptake[0][0] = 3e-4
	mix.NitrogenUptake[0][1] = 1e-4
	s.State.NAssim = 3e-4
	s.State.NFix = 1e-4

	SettleNitrogenUptake(mix)

	if math.Abs(s.State.NUptake-2e-4) > 1e-18 {
		t.Errorf("N_up = %v, want 2e-4", s.State.NUptake)
	}
	if got := sum(mix.NitrogenUptake[0]); math.Abs(got-2e-4) > 1e-18 {
		t.Errorf("settled uptake = %v, want 2e-4", got)
	}
	if got := mix.NitrogenUptake[0][0] / mix.NitrogenUptake[0][1]; math.Abs(got-3) > 1e-9 {
		t.Errorf("layer proportions changed: ratio %v, want 3", got)
	}
	if math.Abs(mix.NitrogenSum[0]-1.5e-4) > 1e-18 {
		t.Errorf("layer sum = %v, want 1.5e-4", mix.NitrogenSum[0])
	}
}

func TestSettleNitrogenUptake_AllFixed(t *testing.T) {
	mix := testMixture(t, "white_clover")
	s := mix.Species[0]
	mix.NitrogenUptake[0][0] = 3e-4
	s.State.NAssim = 1e-4
	s.State.NFix = 1e-4

	SettleNitrogenUptake(mix)

	if s.State.NUptake != 0 || mix.NitrogenUptake[0][0] != 0 {
		t.Errorf("fixed N should not be drawn from soil: N_up %v, layer %v", s.State.NUptake, mix.NitrogenUptake[0][0])
	}
}
