package systems

import (
	"math"

	"github.com/pthm-cable/sward/components"
)

const (
	gddBaseTemp      = 5.0  // [°C]
	leafShareFloor   = 0.2  // lowest ρ_l
	phenologyResetAt = 0.35 // ρ_l at which a new vegetative flush starts
)

// LeafShare returns the phenology-driven leaf fraction of shoot allocation.
// It falls logistically with degree days; the time scale is doubled during
// regrowth after a harvest and tripled otherwise.
func LeafShare(gdd, rhoMax, gddFlower float64, regrowth bool) float64 {
	scale := 3.0
	if regrowth {
		scale = 2.0
	}
	x := ratioOr(gdd, scale*gddFlower, 0)
	rho := (1 - rhoMax) + (2*rhoMax-1)/(1+math.Exp(10*(x-0.5)))
	return math.Max(leafShareFloor, rho)
}

// UpdatePhenology refreshes ρ_l of every species.
func UpdatePhenology(mix *components.Mixture) {
	for _, s := range mix.Species {
		p := s.Cons.Part
		s.State.RhoLeaf = LeafShare(s.State.GDD, p.RhoLeafMax, p.GDDFlower, mix.Regrowth)
	}
}

// AdvanceDegreeDays accumulates degree days above 5°C during the vegetation
// period. Species whose leaf share has dropped to the reset threshold start
// a new cycle first; their indices are returned. Outside the vegetation
// period the clock and the regrowth flag are cleared.
func AdvanceDegreeDays(mix *components.Mixture, tMean float64, vegetation bool) []int {
	if !vegetation {
		for _, s := range mix.Species {
			s.State.GDD = 0
		}
		mix.Regrowth = false
		return nil
	}
	var reset []int
	for _, s := range mix.Species {
		if s.State.RhoLeaf <= phenologyResetAt {
			s.ResetPhenology()
			reset = append(reset, s.Index)
		}
		s.State.GDD += math.Max(0, tMean-gddBaseTemp)
	}
	return reset
}
