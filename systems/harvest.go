package systems

import (
	"math"

	"github.com/pthm-cable/sward/components"
)

// HarvestByHeight cuts the sward down to a residual height [m] and returns
// the removed dry matter [kg DM ha-1]. Each species keeps the share
// height/canopy height of its shoot, but never less than dmMin [kg DM m-2];
// a residual height of zero removes all shoot. Cutting at or above the
// canopy is a no-op.
func HarvestByHeight(mix *components.Mixture, height, dmMin float64) float64 {
	canopy := mix.Height()
	if canopy <= 0 || height >= canopy {
		return 0
	}

	var removed float64
	for _, s := range mix.Species {
		dm := s.DMShoot()
		keep := 0.0
		if height > 0 {
			keep = height / canopy
			switch {
			case dm <= dmMin:
				keep = 1
			case keep*dm <= dmMin:
				keep = dmMin / dm
			}
		}
		removed += (1 - keep) * dm
		cutShoot(s, keep)
	}
	startRegrowth(mix)
	return removed * components.SquareMPerHa
}

// HarvestByMass removes dryMatter [kg DM ha-1] from the mixture's shoot,
// taking the same share from every species, and returns what was removed.
func HarvestByMass(mix *components.Mixture, dryMatter float64) float64 {
	total := mix.DMShoot()
	if dryMatter <= 0 || total <= 0 {
		return 0
	}
	keep := 1 - math.Min(1, dryMatter/(total*components.SquareMPerHa))

	var removed float64
	for _, s := range mix.Species {
		removed += (1 - keep) * s.DMShoot()
		cutShoot(s, keep)
	}
	startRegrowth(mix)
	return removed * components.SquareMPerHa
}

func cutShoot(s *components.Species, keep float64) {
	s.Pools[components.Leaf].Scale(keep)
	s.Pools[components.Stem].Scale(keep)
}

func startRegrowth(mix *components.Mixture) {
	mix.Regrowth = true
	mix.ResetPhenology()
}
