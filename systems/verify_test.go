package systems

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/sward/components"
)

func TestVerifySpecies_FreshSpecies(t *testing.T) {
	mix := testMixture(t, "perennial_ryegrass", "white_clover", "maize")
	for _, s := range mix.Species {
		if err := VerifySpecies(s); err != nil {
			t.Errorf("%s: %v", s.Cons.Name, err)
		}
	}
}

func TestVerifySpecies_Violations(t *testing.T) {
	tests := []struct {
		name   string
		breaks func(s *components.Species)
		check  string
	}{
		{"negative pool", func(s *components.Species) {
			s.Pools[components.Root].NC[components.Live] = -1e-6
		}, "root.nc_live"},
		{"factor above one", func(s *components.Species) {
			s.State.OmegaWater = 1.2
		}, "omega_water"},
		{"composition sum", func(s *components.Species) {
			s.State.Growth[components.Leaf] = 0.001
			s.State.Composition[components.Leaf] = components.Composition{SC: 0.5, NC: 0.3, PN: 0.3}
		}, "composition sum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testMixture(t, "perennial_ryegrass").Species[0]
			tt.breaks(s)

			var inv *InvariantError
			if err := VerifySpecies(s); !errors.As(err, &inv) {
				t.Fatalf("expected *InvariantError, got %v", err)
			}
			if !strings.Contains(inv.Check, tt.check) {
				t.Errorf("check = %q, want it to mention %q", inv.Check, tt.check)
			}
			if !strings.Contains(inv.Error(), "perennial_ryegrass") {
				t.Errorf("error %q does not name the species", inv.Error())
			}
		})
	}
}

func TestVerifySoilMoisture(t *testing.T) {
	l := components.SoilLayer{WiltingPoint: 0.1, FieldCapacity: 0.3, Saturation: 0.45}
	for _, theta := range []float64{0.1, 0.2, 0.45} {
		l.Moisture = theta
		if err := VerifySoilMoisture(0, l); err != nil {
			t.Errorf("θ = %v: %v", theta, err)
		}
	}
	l.Moisture = 0.05
	if err := VerifySoilMoisture(3, l); err == nil || !strings.Contains(err.Error(), "layer 3") {
		t.Errorf("θ below wilting point: got %v", err)
	}
}
