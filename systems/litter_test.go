package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/sward/components"
)

func TestSenescedTissue_ConservesCarbon(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass", "white_clover")
	for _, s := range mix.Species {
		s.State.RootAge = 1000
		s.State.LitterShoot = components.Litter{SC: 0.01, NC: 0.002, PN: 0.001}
		s.State.LitterRoot = components.Litter{SC: 0.004, PN: 0.0005}
	}
	DistributeRoots(mix)

	var shootC, rootC float64
	for _, s := range mix.Species {
		shootC += s.State.LitterShoot.Carbon()
		rootC += s.State.LitterRoot.Carbon()
	}

	out := SenescedTissue(mix, mix.NumLayers)

	var got float64
	for _, in := range out {
		got += in.Carbon * mix.LayerThickness
	}
	if want := litterToSoil*shootC + rootC; math.Abs(got-want) > 1e-12 {
		t.Errorf("carbon handed to soil = %v, want %v", got, want)
	}
	for _, s := range mix.Species {
		if s.State.LitterRoot != (components.Litter{}) {
			t.Errorf("%s root litter not emptied", s.Cons.Name)
		}
		if math.Abs(s.State.LitterShoot.SC-0.009) > 1e-15 {
			t.Errorf("%s shoot litter SC = %v, want 0.009", s.Cons.Name, s.State.LitterShoot.SC)
		}
	}
	if out[0].CNRatio <= 0 {
		t.Errorf("top layer C:N = %v, want positive", out[0].CNRatio)
	}
}

func TestSenescedTissue_CNRatio(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	DistributeRoots(mix)
	s := mix.Species[0]

	out := SenescedTissue(mix, 2)
	if len(out) != 2 || out[0].Carbon != 0 || out[0].CNRatio != 0 {
		t.Fatalf("empty litter: %+v", out)
	}

	s.State.LitterShoot = components.Litter{SC: 0.01}
	out = SenescedTissue(mix, 1)
	if out[0].CNRatio != litterDefaultCN {
		t.Errorf("N-free litter C:N = %v, want %v", out[0].CNRatio, litterDefaultCN)
	}

	s.State.LitterShoot = components.Litter{SC: 0.01, PN: 0.01}
	out = SenescedTissue(mix, 1)
	wantCN := 0.02 / components.ProteinNitrogen(0.01)
	if math.Abs(out[0].CNRatio-wantCN) > 1e-9 {
		t.Errorf("C:N = %v, want %v", out[0].CNRatio, wantCN)
	}
}

func TestSenescedTissue_LayerCountBounded(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	if got := len(SenescedTissue(mix, mix.NumLayers+5)); got != mix.NumLayers {
		t.Errorf("layers = %d, want %d", got, mix.NumLayers)
	}
	if got := len(SenescedTissue(mix, -1)); got != 0 {
		t.Errorf("layers = %d, want 0", got)
	}
}
