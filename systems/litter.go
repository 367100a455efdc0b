package systems

import (
	"github.com/pthm-cable/sward/components"
)

const (
	litterToSoil    = 0.1   // share of surface litter incorporated per call
	litterDefaultCN = 200.0 // C:N of nitrogen-free material
)

// SenescedTissue moves senesced material into the organic soil layers and
// returns it per layer as carbon density [kg C m-3] and C:N ratio.
//
// A tenth of the surface litter enters the top layer; senesced roots are
// spread over the layers by root distribution and the root litter
// accumulators are emptied. Root litter below the organic layers is not
// returned.
func SenescedTissue(mix *components.Mixture, organicLayers int) []components.OrganicMatterInput {
	if organicLayers > mix.NumLayers {
		organicLayers = mix.NumLayers
	}
	if organicLayers < 0 {
		organicLayers = 0
	}
	dz := mix.LayerThickness
	out := make([]components.OrganicMatterInput, organicLayers)

	for l := range out {
		var carbon, nitrogen float64
		for si, s := range mix.Species {
			st := &s.State
			if l == 0 {
				lit := st.LitterShoot
				carbon += lit.Carbon() * litterToSoil / dz
				nitrogen += lit.Nitrogen() * litterToSoil / dz
				st.LitterShoot.Scale(1 - litterToSoil)
			}
			scale := ratioOr(mix.RootFraction[si][l], mix.RootFractionSum[si], 0) / dz
			carbon += st.LitterRoot.Carbon() * scale
			nitrogen += st.LitterRoot.Nitrogen() * scale
		}
		out[l].Carbon = carbon
		switch {
		case carbon == 0:
			out[l].CNRatio = 0
		case nitrogen == 0:
			out[l].CNRatio = litterDefaultCN
		default:
			out[l].CNRatio = carbon / nitrogen
		}
	}

	for _, s := range mix.Species {
		s.State.LitterRoot = components.Litter{}
	}
	return out
}
