package systems

import (
	"math"
	"sort"

	"github.com/pthm-cable/sward/components"
)

const (
	waterPasses        = 5   // allocation sweeps over the profile
	readilyAvailableAt = 0.8 // share of field capacity below which uptake declines
	waterloggingLoss   = 0.5 // availability lost at saturation
)

// WaterAvailability is the relative ease of extraction from a layer with
// moisture theta: 0 at wilting point, rising linearly to 1 at 80% of field
// capacity, 1 up to field capacity, then falling to 0.5 at saturation.
func WaterAvailability(theta float64, l components.SoilLayer) float64 {
	readily := l.FieldCapacity * readilyAvailableAt
	switch {
	case theta < l.WiltingPoint:
		return 0
	case theta < readily:
		return ratioOr(theta-l.WiltingPoint, readily-l.WiltingPoint, 1)
	case theta < l.FieldCapacity:
		return 1
	default:
		return 1 - waterloggingLoss*ratioOr(theta-l.FieldCapacity, l.Saturation-l.FieldCapacity, 0)
	}
}

// Transpire distributes the potential evapotranspiration left after
// interception among species and withdraws it from the soil layers.
//
// Ground cover scales the demand, which is split among species by leaf area.
// Allocation sweeps the profile five times; in each layer species are served
// in ascending order of yesterday's water stress so the least stressed do
// not take water first. The order is an index permutation; the mixture is
// never reordered. Uptake from a layer never exceeds its water above the
// wilting point. Returns the potential transpiration [mm].
func Transpire(mix *components.Mixture, soil components.SoilColumn, etPot float64, waterResponse bool) float64 {
	lai := mix.LAITotal()
	mix.GroundCover = 1 - math.Exp(-0.5*lai)
	tPot := mix.GroundCover * etPot

	n := mix.Len()
	demand := make([]float64, n)
	remaining := make([]float64, n)
	for si, s := range mix.Species {
		demand[si] = tPot * ratioOr(s.LAI(), lai, 0)
		remaining[si] = demand[si]
		zero(mix.WaterUptake[si])
	}

	nl := layerCount(mix, soil)
	mm := 1e3 * soil.LayerThickness()
	theta := make([]float64, nl)
	wilt := make([]float64, nl)
	avail := make([]float64, nl)
	for l := 0; l < nl; l++ {
		layer := soil.Layer(l)
		theta[l] = layer.Moisture * mm
		wilt[l] = layer.WiltingPoint * mm
		avail[l] = WaterAvailability(layer.Moisture, layer)
	}

	order := UptakeOrder(mix)
	for pass := 0; pass < waterPasses; pass++ {
		for l := 0; l < nl; l++ {
			for _, si := range order {
				fr := mix.RootFraction[si][l]
				if remaining[si] <= 0 || fr == 0 || theta[l] <= wilt[l] {
					continue
				}
				share := ratioOr(fr, mix.RootFractionSum[si], 0)
				add := math.Min(theta[l]-wilt[l], share*avail[l]*remaining[si])
				mix.WaterUptake[si][l] += add
				theta[l] -= add
				remaining[si] -= add
			}
		}
	}

	for si, s := range mix.Species {
		if !waterResponse || demand[si] <= 0 {
			s.State.OmegaWater = 1
			continue
		}
		s.State.OmegaWater = math.Min(1, sum(mix.WaterUptake[si])/demand[si])
	}
	return tPot
}

// UptakeOrder returns species indices sorted by ascending Ω_water, ties in
// index order.
func UptakeOrder(mix *components.Mixture) []int {
	order := make([]int, mix.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mix.Species[order[a]].State.OmegaWater < mix.Species[order[b]].State.OmegaWater
	})
	return order
}
