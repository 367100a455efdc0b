package systems

import (
	"math"

	"github.com/pthm-cable/sward/components"
)

const (
	rootDepthMin   = 0.05 // rooting depth at establishment [m]
	rootShapePower = 3.0  // q_r of the logistic root profile
)

// DistributeRoots ages the root systems by one day, updates rooting depth
// and spreads each species' root dry matter over the soil layers. The
// profile is cut at the current depth and renormalised so layer masses sum
// to the species' root dry matter.
func DistributeRoots(mix *components.Mixture) {
	dz := mix.LayerThickness
	for si, s := range mix.Species {
		st := &s.State
		rc := s.Cons.Roots
		st.RootAge++
		progress := 1.0
		if rc.TauVeg > 0 {
			progress = math.Min(1, st.RootAge/rc.TauVeg)
		}
		st.RootDepth = rootDepthMin + (rc.DepthMax-rootDepthMin)*progress

		fr := mix.RootFraction[si]
		mix.RootFractionSum[si] = 0
		for l := range fr {
			z := dz * float64(l)
			if z > st.RootDepth {
				fr[l] = 0
				continue
			}
			fr[l] = rootProfile(z, rc.DepthHalf, rc.DepthMax, st.RootDepth) -
				rootProfile(z+dz, rc.DepthHalf, rc.DepthMax, st.RootDepth)
			mix.RootFractionSum[si] += fr[l]
		}

		dm := s.DMRoot()
		for l := range fr {
			mix.RootMass[si][l] = dm * ratioOr(fr[l], mix.RootFractionSum[si], 0)
		}
	}

	for l := range mix.RootMassSum {
		mix.RootMassSum[l] = 0
		for si := range mix.Species {
			mix.RootMassSum[l] += mix.RootMass[si][l]
		}
	}
}

// rootProfile is the share of roots below depth z.
func rootProfile(z, depthHalf, depthMax, depth float64) float64 {
	if depthHalf <= 0 || depth <= 0 {
		return 0
	}
	return 1 / (1 + math.Pow(z/depthHalf*(depthMax/depth), rootShapePower))
}
