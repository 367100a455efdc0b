package components

import "math"

// SpeciesConstants holds the immutable physiological parameters of a species.
type SpeciesConstants struct {
	Name     string `yaml:"name"`
	IsC4     bool   `yaml:"c4"`
	IsLegume bool   `yaml:"legume"`

	Photo       PhotoConstants       `yaml:"photosynthesis"`
	Resp        RespirationConstants `yaml:"respiration"`
	Part        PartitionConstants   `yaml:"partitioning"`
	NLeaf       NitrogenReference    `yaml:"n_leaf"`
	TempStress  TemperatureStress    `yaml:"temperature_stress"`
	Roots       RootConstants        `yaml:"roots"`
	Canopy      CanopyConstants      `yaml:"canopy"`
	Ash         AshFractions         `yaml:"ash"`
	NUptakeCoef float64              `yaml:"n_uptake_coefficient"` // ξ_N [kg soil kg-1 DM root d-1]
	Initial     InitialDryMatter     `yaml:"initial"`
}

// PhotoConstants parameterise canopy gross photosynthesis.
type PhotoConstants struct {
	AlphaAmb15  float64 `yaml:"alpha_amb_15"` // leaf photosynthetic efficiency at 15°C and ambient CO2 [μmol CO2 μmol-1 photons]
	PmRef       float64 `yaml:"pm_ref"`       // light-saturated leaf rate at T_ref [μmol CO2 m-2 s-1]
	K           float64 `yaml:"k"`            // extinction coefficient
	Xi          float64 `yaml:"xi"`           // curvature of the non-rectangular hyperbola
	Lambda      float64 `yaml:"lambda"`       // CO2 response at double reference CO2
	FCm         float64 `yaml:"f_c_m"`        // CO2 response at saturating CO2
	GammaPm     float64 `yaml:"gamma_pm"`     // shift of T_opt(P_m) with CO2 [°C]
	GammaAlpha  float64 `yaml:"gamma_alpha"`  // shift of T_opt(α) with CO2 [°C]
	LambdaAlpha float64 `yaml:"lambda_alpha"` // decline of α above T_opt [°C-1]
	TMin        float64 `yaml:"t_min"`        // [°C]
	TRef        float64 `yaml:"t_ref"`        // [°C]
	TOptPmAmb   float64 `yaml:"t_opt_pm_amb"` // [°C]
}

// RespirationConstants parameterise maintenance and nitrogen respiration.
type RespirationConstants struct {
	MRef       float64 `yaml:"m_ref"`        // [d-1]
	TMin       float64 `yaml:"t_min"`        // [°C]
	TRef       float64 `yaml:"t_ref"`        // [°C]
	LambdaNUp  float64 `yaml:"lambda_n_up"`  // [kg C kg-1 N]
	LambdaNFix float64 `yaml:"lambda_n_fix"` // [kg C kg-1 N]
}

// PartitionConstants parameterise allocation and phenology.
type PartitionConstants struct {
	RhoShootRef float64 `yaml:"rho_shoot_ref"`
	RhoLeafMax  float64 `yaml:"rho_l_max"`
	GDDFlower   float64 `yaml:"gdd_flower"`
	GammaStock  float64 `yaml:"gamma_stock"` // trampling death rate per unit stocking rate
}

// NitrogenReference holds tissue N concentrations [kg N kg-1 C].
type NitrogenReference struct {
	Min float64 `yaml:"min"`
	Opt float64 `yaml:"opt"`
	Max float64 `yaml:"max"`
	Ref float64 `yaml:"ref"`
}

// Scaled returns the reference multiplied by f.
func (n NitrogenReference) Scaled(f float64) NitrogenReference {
	return NitrogenReference{Min: n.Min * f, Opt: n.Opt * f, Max: n.Max * f, Ref: n.Ref * f}
}

// TemperatureStress holds the breakpoints of low/high temperature stress.
type TemperatureStress struct {
	TMinHigh float64 `yaml:"t_min_high"` // no cold stress above [°C]
	TMinLow  float64 `yaml:"t_min_low"`  // full cold stress below [°C]
	TSumLow  float64 `yaml:"t_sum_low"`  // recovery sum [°C d]
	TMaxLow  float64 `yaml:"t_max_low"`  // no heat stress below [°C]
	TMaxHigh float64 `yaml:"t_max_high"` // full heat stress above [°C]
	TSumHigh float64 `yaml:"t_sum_high"` // recovery sum [°C d]
}

// RootConstants parameterise rooting depth and distribution.
type RootConstants struct {
	DepthHalf float64 `yaml:"d_r_h"`   // characteristic depth [m]
	DepthMax  float64 `yaml:"d_r_mx"`  // maximum depth [m]
	TauVeg    float64 `yaml:"tau_veg"` // days to reach maximum depth
}

// CanopyConstants convert leaf mass into area and height.
type CanopyConstants struct {
	SLA       float64 `yaml:"sla"`        // specific leaf area [m2 kg-1 DM]
	HeightMax float64 `yaml:"height_max"` // [m]
	LAIHalf   float64 `yaml:"lai_half"`   // LAI at half of maximum height
}

// AshFractions are reference ash contents of dry matter per organ.
type AshFractions struct {
	Leaf float64 `yaml:"leaf"`
	Stem float64 `yaml:"stem"`
	Root float64 `yaml:"root"`
}

// Of returns the ash fraction of an organ.
func (a AshFractions) Of(o Organ) float64 {
	switch o {
	case Leaf:
		return a.Leaf
	case Stem:
		return a.Stem
	}
	return a.Root
}

// InitialDryMatter is the state a species is sown with [kg DM m-2].
type InitialDryMatter struct {
	Leaf float64 `yaml:"leaf"`
	Stem float64 `yaml:"stem"`
	Root float64 `yaml:"root"`
}

// Of returns the initial dry matter of an organ.
func (i InitialDryMatter) Of(o Organ) float64 {
	switch o {
	case Leaf:
		return i.Leaf
	case Stem:
		return i.Stem
	}
	return i.Root
}

// NRef returns the organ's N reference. Stem and root run at half the leaf values.
func (c *SpeciesConstants) NRef(o Organ) NitrogenReference {
	if o == Leaf {
		return c.NLeaf
	}
	return c.NLeaf.Scaled(0.5)
}

// SpeciesState is the mutable daily state of one species.
type SpeciesState struct {
	// Daily carbon flows [kg C m-2 d-1]
	PGross  float64 // gross photosynthate P_g_day
	RMaint  float64 // maintenance respiration
	RN      float64 // N uptake and fixation respiration
	PGrowth float64 // P_g_day - R_m - R_N

	Growth      [NumOrgans]float64     // allocated carbon G per organ
	Efficiency  [NumOrgans]float64     // growth efficiency Y per organ
	Composition [NumOrgans]Composition // new-tissue composition per organ
	Increment   [NumOrgans]float64     // dry matter added today [kg DM m-2]

	// Daily nitrogen flows [kg N m-2 d-1]
	NUptake float64 // soil N assimilated; feeds tomorrow's R_N
	NFix    float64 // fixed N; feeds tomorrow's R_N
	NAssim  float64
	NReq    float64
	NRemob  float64
	NAddAss float64 // secondary protein synthesis from surplus uptake

	// Growth limiting factors in [0,1]
	OmegaWater float64
	OmegaN     float64
	TauTLow    float64
	TauTHigh   float64
	ZetaTLow   float64 // recovery accumulators
	ZetaTHigh  float64
	GLF        float64
	AtFloor    bool // keep-alive floor stopped today's NC drawdown

	CO2Clamped bool // f_C_m was moved into the CO2 response domain and reported

	// Partitioning and phenology
	RhoShoot float64
	RhoRoot  float64
	RhoLeaf  float64
	GDD      float64

	// Roots
	RootAge   float64 // days since establishment
	RootDepth float64 // [m]

	// Senesced material awaiting transfer to the soil
	LitterShoot Litter
	LitterRoot  Litter
	LitterAsh   float64 // [kg DM m-2]
}

// Species binds constants, pools and state. Index is the stable position in
// the mixture.
type Species struct {
	Index int
	Cons  *SpeciesConstants
	Pools [NumOrgans]OrganPools
	State SpeciesState
}

// NewSpecies creates a species sown with the constants' initial dry matter at
// optimal tissue nitrogen.
func NewSpecies(index int, cons *SpeciesConstants) *Species {
	s := &Species{Index: index, Cons: cons}
	s.State = SpeciesState{
		OmegaWater: 1,
		OmegaN:     1,
		TauTLow:    1,
		TauTHigh:   1,
		GLF:        1,
		RhoShoot:   cons.Part.RhoShootRef,
		RhoRoot:    1 - cons.Part.RhoShootRef,
		RhoLeaf:    cons.Part.RhoLeafMax,
	}
	for _, o := range Organs {
		s.seed(o, cons.Initial.Of(o))
	}
	return s
}

// seed fills an organ's live pools with dm kg DM m-2.
func (s *Species) seed(o Organ, dm float64) {
	if dm <= 0 {
		return
	}
	fPN := s.Cons.NRef(o).Opt * FCProtein / FNProtein
	fNC := 0.15
	fSC := 1 - fPN - fNC
	if fSC < 0 {
		fSC, fNC = 0, 1-fPN
	}
	ash := s.Cons.Ash.Of(o)
	// carbon per unit organic dry matter for this composition
	perDM := 1 / (fSC/FCStructural + fNC/FCNonStructural + fPN/FCProtein)
	carbon := dm * (1 - ash) * perDM

	p := &s.Pools[o]
	if o == Root {
		p.SC[AgeYoung] = carbon * fSC
	} else {
		p.SC[AgeYoung] = carbon * fSC * 0.4
		p.SC[AgeDeveloping] = carbon * fSC * 0.3
		p.SC[AgeMature] = carbon * fSC * 0.3
	}
	p.NC[Live] = carbon * fNC
	p.PN[Live] = carbon * fPN
	p.AH[Live] = dm * ash
}

// CarbonLive returns the live carbon of an organ [kg C m-2].
func (s *Species) CarbonLive(o Organ) float64 { return s.Pools[o].LiveCarbon() }

// NitrogenLive returns the live nitrogen of an organ [kg N m-2].
func (s *Species) NitrogenLive(o Organ) float64 { return ProteinNitrogen(s.Pools[o].PN[Live]) }

// FNLive returns the live tissue N concentration [kg N kg-1 C]; 0 without carbon.
func (s *Species) FNLive(o Organ) float64 {
	c := s.CarbonLive(o)
	if c <= 0 {
		return 0
	}
	return s.NitrogenLive(o) / c
}

// FNLiveShoot returns the live shoot N concentration [kg N kg-1 C].
func (s *Species) FNLiveShoot() float64 {
	c := s.CarbonLive(Leaf) + s.CarbonLive(Stem)
	if c <= 0 {
		return 0
	}
	return (s.NitrogenLive(Leaf) + s.NitrogenLive(Stem)) / c
}

// DMLive returns live dry matter of an organ [kg DM m-2].
func (s *Species) DMLive(o Organ) float64 {
	p := &s.Pools[o]
	return p.LiveSC()/FCStructural + p.NC[Live]/FCNonStructural + p.PN[Live]/FCProtein + p.AH[Live]
}

// DM returns live and dead dry matter of an organ [kg DM m-2].
func (s *Species) DM(o Organ) float64 {
	p := &s.Pools[o]
	return s.DMLive(o) + p.SC[AgeDead]/FCStructural + p.NC[Dead]/FCNonStructural + p.PN[Dead]/FCProtein + p.AH[Dead]
}

// OM returns organic (ash free) dry matter of an organ [kg DM m-2].
func (s *Species) OM(o Organ) float64 {
	p := &s.Pools[o]
	return s.DM(o) - p.AH[Live] - p.AH[Dead]
}

// DMShoot returns leaf + stem dry matter.
func (s *Species) DMShoot() float64 { return s.DM(Leaf) + s.DM(Stem) }

// DMRoot returns root dry matter.
func (s *Species) DMRoot() float64 { return s.DM(Root) }

// DMLiveShoot returns live leaf + stem dry matter.
func (s *Species) DMLiveShoot() float64 { return s.DMLive(Leaf) + s.DMLive(Stem) }

// NShoot returns live and dead shoot nitrogen [kg N m-2].
func (s *Species) NShoot() float64 {
	var pn float64
	for _, o := range [...]Organ{Leaf, Stem} {
		pn += s.Pools[o].PN[Live] + s.Pools[o].PN[Dead]
	}
	return ProteinNitrogen(pn)
}

// LAI returns the leaf area index of the live leaves.
func (s *Species) LAI() float64 { return s.Cons.Canopy.SLA * s.DMLive(Leaf) }

// Height returns canopy height from leaf area [m].
func (s *Species) Height() float64 {
	l := s.LAI()
	h := s.Cons.Canopy.LAIHalf
	if l <= 0 {
		return 0
	}
	return s.Cons.Canopy.HeightMax * l * l / (h*h + l*l)
}

// GroundCover returns the fraction of ground covered by this species alone.
func (s *Species) GroundCover() float64 { return 1 - math.Exp(-0.5*s.LAI()) }

// IncrementTotal returns today's dry matter increment over all organs.
func (s *Species) IncrementTotal() float64 {
	return s.State.Increment[Leaf] + s.State.Increment[Stem] + s.State.Increment[Root]
}

// Valid reports whether every pool of every organ is non-negative.
func (s *Species) Valid() bool {
	for o := range s.Pools {
		if !s.Pools[o].Valid() {
			return false
		}
	}
	return true
}
