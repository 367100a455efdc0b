package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

func TestMaintenanceRespiration_ZeroBelowMinimum(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	if got := MaintenanceRespiration(s, s.Cons.Resp.TMin); got != 0 {
		t.Errorf("R_m at T_min = %v, want 0", got)
	}
	if got := MaintenanceRespiration(s, s.Cons.Resp.TMin+5); got <= 0 {
		t.Errorf("R_m above T_min = %v, want positive", got)
	}
}

func TestMaintenanceRespiration_AtReference(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	r := s.Cons.Resp

	var want float64
	for _, o := range components.Organs {
		want += r.MRef * (s.FNLive(o) / s.Cons.NRef(o).Ref) * s.CarbonLive(o)
	}
	got := MaintenanceRespiration(s, r.TRef)
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("R_m at T_ref = %v, want %v", got, want)
	}
}

func TestNetAssimilate_UsesPreviousDayNitrogen(t *testing.T) {
	mix := testMixture(t, "white_clover")
	s := mix.Species[0]
	s.State.PGross = 0.01
	s.State.NUptake = 0.001
	s.State.NFix = 0.0005

	NetAssimilate(mix, 15)

	wantRN := s.Cons.Resp.LambdaNUp*0.001 + s.Cons.Resp.LambdaNFix*0.0005
	if math.Abs(s.State.RN-wantRN) > 1e-15 {
		t.Errorf("R_N = %v, want %v", s.State.RN, wantRN)
	}
}

// With every response switched off the growth limiting factor is 1 and the
// net assimilate is exactly gross minus maintenance minus N respiration.
func TestNetAssimilate_ResponsesDisabled(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass")
	s := mix.Species[0]
	soil := uniformSoil(mix.NumLayers, mix.LayerThickness, 0.12, 0.001)
	off := config.ResponsesConfig{}

	DistributeRoots(mix)
	NitrogenUptake(mix, soil)
	Transpire(mix, soil, 5, off.Water)
	ApplyTemperatureStress(mix, 15, -30, 50, off)
	s.State.OmegaN = 1
	s.State.NUptake = 0.0002

	GrossPhotosynthesis(mix, summerDay(), nil)
	NetAssimilate(mix, 15)

	st := s.State
	if st.GLF != 1 {
		t.Fatalf("GLF = %v, want 1 with responses disabled", st.GLF)
	}
	if st.PGrowth != st.PGross-st.RMaint-st.RN {
		t.Errorf("P_growth = %v, want %v", st.PGrowth, st.PGross-st.RMaint-st.RN)
	}
	if st.RN != s.Cons.Resp.LambdaNUp*0.0002 {
		t.Errorf("R_N = %v, want uptake cost only", st.RN)
	}
}
