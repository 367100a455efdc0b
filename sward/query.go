package sward

import (
	"github.com/pthm-cable/sward/components"
)

// Masses are reported per hectare, photosynthate as CH2O.
const (
	perHa     = components.SquareMPerHa
	ch2oPerC  = 30.0 / 12.0
	cpPerN    = 6.25
	gramsPerK = 1e3
)

func (m *Model) species(i int) *components.Species { return m.mix.Species[i] }

// NumSpecies returns the number of species in the mixture.
func (m *Model) NumSpecies() int { return m.mix.Len() }

// SpeciesName returns the name of species i.
func (m *Model) SpeciesName(i int) string { return m.species(i).Cons.Name }

// ---------- Biomass [kg DM ha-1] ----------

// BiomassTotal returns shoot and root dry matter of the mixture.
func (m *Model) BiomassTotal() float64 {
	return (m.mix.DMShoot() + m.mix.DMRoot()) * perHa
}

// BiomassOf returns the dry matter of one organ of one species.
func (m *Model) BiomassOf(species int, organ components.Organ) float64 {
	return m.species(species).DM(organ) * perHa
}

// BiomassOfOrgan returns the dry matter of one organ over all species.
func (m *Model) BiomassOfOrgan(organ components.Organ) float64 {
	return m.mix.DMOrgan(organ) * perHa
}

// BiomassOfSpecies returns the dry matter of all organs of one species.
func (m *Model) BiomassOfSpecies(species int) float64 {
	s := m.species(species)
	return (s.DMShoot() + s.DMRoot()) * perHa
}

// ShootBiomass returns live and dead leaf and stem dry matter.
func (m *Model) ShootBiomass() float64 { return m.mix.DMShoot() * perHa }

// ShootBiomassOf returns the shoot dry matter of one species.
func (m *Model) ShootBiomassOf(species int) float64 {
	return m.species(species).DMShoot() * perHa
}

// ShootBiomassAboveHeight returns the shoot dry matter a cut at height [m]
// would remove, with shoot mass spread evenly over canopy height. Heights at
// or below zero return the whole shoot; heights at or above the canopy
// return zero.
func (m *Model) ShootBiomassAboveHeight(height float64) float64 {
	if height <= 0 {
		return m.ShootBiomass()
	}
	h := m.mix.Height()
	if height >= h {
		return 0
	}
	return m.mix.DMShoot() * (1 - height/h) * perHa
}

// RootBiomass returns root dry matter.
func (m *Model) RootBiomass() float64 { return m.mix.DMRoot() * perHa }

// RootBiomassOf returns the root dry matter of one species.
func (m *Model) RootBiomassOf(species int) float64 {
	return m.species(species).DMRoot() * perHa
}

// ---------- Growth [kg DM ha-1 d-1] ----------

// GrowthIncrementTotal returns the dry matter added in the last step.
func (m *Model) GrowthIncrementTotal() float64 {
	var inc float64
	for _, s := range m.mix.Species {
		inc += s.IncrementTotal()
	}
	return inc * perHa
}

// GrowthIncrementOf returns the increment of one organ of one species.
func (m *Model) GrowthIncrementOf(species int, organ components.Organ) float64 {
	return m.species(species).State.Increment[organ] * perHa
}

// GrowthIncrementOfOrgan returns the increment of one organ over all species.
func (m *Model) GrowthIncrementOfOrgan(organ components.Organ) float64 {
	var inc float64
	for _, s := range m.mix.Species {
		inc += s.State.Increment[organ]
	}
	return inc * perHa
}

// GrowthIncrementOfSpecies returns the increment of all organs of one species.
func (m *Model) GrowthIncrementOfSpecies(species int) float64 {
	return m.species(species).IncrementTotal() * perHa
}

// ---------- Canopy ----------

// LeafAreaIndex returns the summed leaf area index [m2 m-2].
func (m *Model) LeafAreaIndex() float64 { return m.mix.LAITotal() }

// LeafAreaIndexOf returns the leaf area index of one species.
func (m *Model) LeafAreaIndexOf(species int) float64 { return m.species(species).LAI() }

// Height returns the canopy height [m], the tallest species.
func (m *Model) Height() float64 { return m.mix.Height() }

// GroundCover returns the mixture ground cover of the last step.
func (m *Model) GroundCover() float64 { return m.mix.GroundCover }

// GroundCoverOf returns the ground cover of one species alone.
func (m *Model) GroundCoverOf(species int) float64 { return m.species(species).GroundCover() }

// KcFactor returns the crop coefficient applied to reference ET.
func (m *Model) KcFactor() float64 { return m.cfg.Engine.KcFactor }

// ---------- Roots ----------

// RootingDepth returns the deepest rooting depth [m].
func (m *Model) RootingDepth() float64 { return m.mix.MaxRootDepth() }

// RootingDepthOf returns the rooting depth of one species [m].
func (m *Model) RootingDepthOf(species int) float64 {
	return m.species(species).State.RootDepth
}

// ---------- Limiting factors ----------

// WaterStress returns the shoot-weighted Ω_water of the mixture.
func (m *Model) WaterStress() float64 {
	return m.mix.ShootWeighted(func(s *components.Species) float64 { return s.State.OmegaWater })
}

// WaterStressOf returns Ω_water of one species.
func (m *Model) WaterStressOf(species int) float64 { return m.species(species).State.OmegaWater }

// NitrogenStress returns the shoot-weighted Ω_N of the mixture.
func (m *Model) NitrogenStress() float64 {
	return m.mix.ShootWeighted(func(s *components.Species) float64 { return s.State.OmegaN })
}

// NitrogenStressOf returns Ω_N of one species.
func (m *Model) NitrogenStressOf(species int) float64 { return m.species(species).State.OmegaN }

// LowTemperatureStressOf returns τ_T_low of one species.
func (m *Model) LowTemperatureStressOf(species int) float64 {
	return m.species(species).State.TauTLow
}

// HighTemperatureStressOf returns τ_T_high of one species.
func (m *Model) HighTemperatureStressOf(species int) float64 {
	return m.species(species).State.TauTHigh
}

// ---------- Nitrogen [kg N m-2 d-1] ----------

// ActualNitrogenUptake returns the soil N taken up by all species.
func (m *Model) ActualNitrogenUptake() float64 {
	var n float64
	for si := range m.mix.Species {
		n += m.ActualNitrogenUptakeOf(si)
	}
	return n
}

// ActualNitrogenUptakeOf returns the soil N taken up by one species.
func (m *Model) ActualNitrogenUptakeOf(species int) float64 {
	var n float64
	for _, v := range m.mix.NitrogenUptake[species] {
		n += v
	}
	return n
}

// NitrogenUptakeInLayer returns the soil N taken from one layer.
func (m *Model) NitrogenUptakeInLayer(layer int) float64 {
	return m.mix.NitrogenSum[layer]
}

// NitrogenUptakeFrom returns the soil N one species took from one layer.
func (m *Model) NitrogenUptakeFrom(layer, species int) float64 {
	return m.mix.NitrogenUptake[species][layer]
}

// NitrogenFixed returns the N fixed by legumes.
func (m *Model) NitrogenFixed() float64 {
	var n float64
	for _, s := range m.mix.Species {
		n += s.State.NFix
	}
	return n
}

// PotentialNitrogenUptake returns the N required by all species.
func (m *Model) PotentialNitrogenUptake() float64 {
	var n float64
	for _, s := range m.mix.Species {
		n += s.State.NReq
	}
	return n
}

// PotentialNitrogenUptakeOf returns the N required by one species.
func (m *Model) PotentialNitrogenUptakeOf(species int) float64 {
	return m.species(species).State.NReq
}

// ShootNitrogenConcentration returns the live shoot N content of the
// mixture [kg N kg-1 DM].
func (m *Model) ShootNitrogenConcentration() float64 {
	var n, dm float64
	for _, s := range m.mix.Species {
		n += s.NitrogenLive(components.Leaf) + s.NitrogenLive(components.Stem)
		dm += s.DMLiveShoot()
	}
	return ratio(n, dm)
}

// ShootNitrogenConcentrationOf returns the live shoot N content of one species.
func (m *Model) ShootNitrogenConcentrationOf(species int) float64 {
	s := m.species(species)
	return ratio(s.NitrogenLive(components.Leaf)+s.NitrogenLive(components.Stem), s.DMLiveShoot())
}

// RootNitrogenConcentration returns the live root N content of the mixture
// [kg N kg-1 DM].
func (m *Model) RootNitrogenConcentration() float64 {
	var n, dm float64
	for _, s := range m.mix.Species {
		n += s.NitrogenLive(components.Root)
		dm += s.DMLive(components.Root)
	}
	return ratio(n, dm)
}

// RootNitrogenConcentrationOf returns the live root N content of one species.
func (m *Model) RootNitrogenConcentrationOf(species int) float64 {
	s := m.species(species)
	return ratio(s.NitrogenLive(components.Root), s.DMLive(components.Root))
}

// ---------- Water [mm d-1] ----------

// Transpired returns the water taken up by all species.
func (m *Model) Transpired() float64 { return m.transpired }

// TranspiredOf returns the water taken up by one species.
func (m *Model) TranspiredOf(species int) float64 {
	var w float64
	for _, v := range m.mix.WaterUptake[species] {
		w += v
	}
	return w
}

// TranspiredFromLayer returns the water all species took from one layer.
func (m *Model) TranspiredFromLayer(layer int) float64 {
	var w float64
	for si := range m.mix.Species {
		w += m.mix.WaterUptake[si][layer]
	}
	return w
}

// ReferenceET returns FAO reference evapotranspiration ET0.
func (m *Model) ReferenceET() float64 { return m.et0 }

// PotentialET returns min(max potential ET, ET0 × Kc).
func (m *Model) PotentialET() float64 { return m.etPot }

// RemainingET returns the evaporative demand left after interception and
// transpiration.
func (m *Model) RemainingET() float64 { return m.etRemaining }

// PotentialTranspiration returns the ground-cover scaled transpiration demand.
func (m *Model) PotentialTranspiration() float64 { return m.tPot }

// EvaporatedFromInterception returns the water evaporated from the canopy store.
func (m *Model) EvaporatedFromInterception() float64 { return m.interception.Evaporated }

// NetPrecipitation returns the rain that reached the soil.
func (m *Model) NetPrecipitation() float64 { return m.interception.NetPrecipitation }

// InterceptionStorage returns the water held on the canopy [mm].
func (m *Model) InterceptionStorage() float64 { return m.interception.Storage }

// AccumulatedET returns the actual evapotranspiration summed over all steps [mm].
func (m *Model) AccumulatedET() float64 { return m.accumulatedET }

// ---------- Carbon [kg CH2O ha-1 d-1] ----------

// GrossPhotosynthate returns the gross photosynthate of all species.
func (m *Model) GrossPhotosynthate() float64 {
	var p float64
	for _, s := range m.mix.Species {
		p += s.State.PGross
	}
	return p * ch2oPerC * perHa
}

// GrossPhotosynthateOf returns the gross photosynthate of one species.
func (m *Model) GrossPhotosynthateOf(species int) float64 {
	return m.species(species).State.PGross * ch2oPerC * perHa
}

// NetPhotosynthate returns the carbon allocated to growth by all species.
func (m *Model) NetPhotosynthate() float64 {
	var g float64
	for si := range m.mix.Species {
		g += m.NetPhotosynthateOf(si)
	}
	return g
}

// NetPhotosynthateOf returns the carbon allocated to growth by one species.
func (m *Model) NetPhotosynthateOf(species int) float64 {
	var g float64
	for _, v := range m.species(species).State.Growth {
		g += v
	}
	return g * ch2oPerC * perHa
}

// ---------- Forage quality [g kg-1 DM] ----------

// ShootCrudeProtein returns the shoot crude protein content, N × 6.25,
// weighted by species shoot mass.
func (m *Model) ShootCrudeProtein() float64 {
	var n float64
	for _, s := range m.mix.Species {
		n += s.NShoot()
	}
	return ratio(n*cpPerN*gramsPerK, m.mix.DMShoot())
}

// ShootOrganicMatter returns the ash-free share of shoot dry matter.
func (m *Model) ShootOrganicMatter() float64 {
	var om float64
	for _, s := range m.mix.Species {
		om += s.OM(components.Leaf) + s.OM(components.Stem)
	}
	return ratio(om*gramsPerK, m.mix.DMShoot())
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
