package systems

import (
	"fmt"

	"github.com/pthm-cable/sward/components"
)

// InvariantError reports a violated model invariant. It is only produced in
// verify mode and indicates a defect, not a recoverable condition.
type InvariantError struct {
	Species string
	Check   string
	Value   float64
}

func (e *InvariantError) Error() string {
	if e.Species == "" {
		return fmt.Sprintf("invariant %s violated: %g", e.Check, e.Value)
	}
	return fmt.Sprintf("invariant %s violated for %s: %g", e.Check, e.Species, e.Value)
}

const fractionTolerance = 1e-9

// VerifySpecies checks pool signs, factor bounds and new-tissue composition.
func VerifySpecies(s *components.Species) error {
	name := s.Cons.Name
	for _, o := range components.Organs {
		var err error
		s.Pools[o].Each(func(pool string, v *float64) {
			if err == nil && *v < 0 {
				err = &InvariantError{Species: name, Check: o.String() + "." + pool + " >= 0", Value: *v}
			}
		})
		if err != nil {
			return err
		}
		c := s.State.Composition[o]
		if s.State.Growth[o] > 0 {
			if d := c.Sum() - 1; d > fractionTolerance || d < -fractionTolerance {
				return &InvariantError{Species: name, Check: o.String() + " composition sum == 1", Value: c.Sum()}
			}
			if c.SC+c.PN > 1+fractionTolerance {
				return &InvariantError{Species: name, Check: o.String() + " f_sc + f_pn <= 1", Value: c.SC + c.PN}
			}
		}
	}
	factors := map[string]float64{
		"omega_water": s.State.OmegaWater,
		"omega_n":     s.State.OmegaN,
		"tau_t_low":   s.State.TauTLow,
		"tau_t_high":  s.State.TauTHigh,
	}
	for k, v := range factors {
		if v < 0 || v > 1 {
			return &InvariantError{Species: name, Check: k + " in [0,1]", Value: v}
		}
	}
	return nil
}

// VerifySoilMoisture checks that a layer's moisture lies in [wilting point, saturation].
func VerifySoilMoisture(layer int, l components.SoilLayer) error {
	if l.Moisture < l.WiltingPoint-fractionTolerance || l.Moisture > l.Saturation+fractionTolerance {
		return &InvariantError{Check: fmt.Sprintf("layer %d moisture in [pwp, sat]", layer), Value: l.Moisture}
	}
	return nil
}
