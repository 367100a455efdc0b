package systems

import (
	"github.com/pthm-cable/sward/components"
)

// NitrogenUptake sets the potential nitrate uptake of every species from
// every layer. Species are served in index order; a species takes
// ξ_N · (nitrate / bulk density) · root mass, and the layer total never
// exceeds the nitrate the layer holds.
func NitrogenUptake(mix *components.Mixture, soil components.SoilColumn) {
	dz := soil.LayerThickness()
	n := layerCount(mix, soil)
	for l := 0; l < mix.NumLayers; l++ {
		mix.NitrogenSum[l] = 0
		for si := range mix.Species {
			mix.NitrogenUptake[si][l] = 0
		}
		if l >= n {
			continue
		}
		layer := soil.Layer(l)
		avail := layer.Nitrate * dz
		if avail <= 0 {
			continue
		}
		conc := ratioOr(layer.Nitrate, layer.BulkDensity, 0)
		var taken float64
		for si, s := range mix.Species {
			up := s.Cons.NUptakeCoef * conc * mix.RootMass[si][l]
			if up+taken > avail {
				up = avail - taken
			}
			if up < 0 {
				up = 0
			}
			mix.NitrogenUptake[si][l] = up
			taken += up
		}
		mix.NitrogenSum[l] = taken
	}
}

// SettleNitrogenUptake records the soil N actually assimilated today and
// scales the per-layer uptake down to it. Fixed N does not come from the soil.
func SettleNitrogenUptake(mix *components.Mixture) {
	for l := range mix.NitrogenSum {
		mix.NitrogenSum[l] = 0
	}
	for si, s := range mix.Species {
		st := &s.State
		st.NUptake = st.NAssim - st.NFix
		if st.NUptake < 0 {
			st.NUptake = 0
		}
		row := mix.NitrogenUptake[si]
		pot := sum(row)
		f := ratioOr(st.NUptake, pot, 0)
		for l := range row {
			row[l] *= f
			mix.NitrogenSum[l] += row[l]
		}
	}
}

// layerCount is the number of layers shared by the mixture grid and the soil.
func layerCount(mix *components.Mixture, soil components.SoilColumn) int {
	n := soil.NumLayers()
	if mix.NumLayers < n {
		n = mix.NumLayers
	}
	return n
}
