package components

// Tissue composition and synthesis constants shared by all species.
const (
	FCStructural    = 0.44 // kg C kg-1 DM in structural carbohydrate
	FCNonStructural = 0.40 // kg C kg-1 DM in non-structural carbohydrate
	FCProtein       = 0.53 // kg C kg-1 DM in protein
	FNProtein       = 0.16 // kg N kg-1 DM in protein

	YStructural    = 0.85 // synthesis efficiency of structural carbohydrate
	YNonStructural = 0.95 // synthesis efficiency of non-structural carbohydrate
	YProtein       = 0.55 // synthesis efficiency of protein
)

// Unit conversions.
const (
	PPFPerMJ      = 2.3e6 // μmol photons per MJ global radiation
	SquareMPerHa  = 1e4
	CarbonToCH2O  = 30.0 / 12.0
	NitrogenToCP  = 6.25
	CO2AmbientRef = 380.0 // μmol mol-1
	LeafAreaStep  = 0.1   // Δl of the canopy integral [m2 m-2]
)

// ProteinNitrogen converts protein carbon to nitrogen.
func ProteinNitrogen(pnCarbon float64) float64 {
	return pnCarbon / FCProtein * FNProtein
}

// NitrogenProtein converts nitrogen to protein carbon.
func NitrogenProtein(n float64) float64 {
	return n / FNProtein * FCProtein
}
