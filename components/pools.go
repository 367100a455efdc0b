// Package components defines the state records of the sward: species
// constants, per-species carbon/nitrogen pools, the mixture, and the
// read-only soil and weather inputs.
package components

import "fmt"

// Organ identifies a plant organ. Declaration order is the stable
// tie-break order wherever organs are ranked.
type Organ uint8

const (
	Leaf Organ = iota
	Stem
	Root
	NumOrgans
)

// Organs lists all organs in declaration order.
var Organs = [NumOrgans]Organ{Leaf, Stem, Root}

func (o Organ) String() string {
	switch o {
	case Leaf:
		return "leaf"
	case Stem:
		return "stem"
	case Root:
		return "root"
	}
	return fmt.Sprintf("organ(%d)", uint8(o))
}

// IsShoot reports whether the organ is above ground.
func (o Organ) IsShoot() bool { return o == Leaf || o == Stem }

// AgeClass indexes the structural-carbon age chain.
type AgeClass uint8

const (
	AgeYoung AgeClass = iota
	AgeDeveloping
	AgeMature
	AgeDead
	NumAgeClasses
)

// LiveAgeClasses are the three live stages of the structural chain.
var LiveAgeClasses = [...]AgeClass{AgeYoung, AgeDeveloping, AgeMature}

// Vitality indexes live/dead slots of the NC, PN and AH pools.
type Vitality uint8

const (
	Live Vitality = iota
	Dead
	NumVitality
)

// OrganPools holds the carbon, protein and ash masses of one organ.
//
// Leaf and stem use the full shape. Root keeps a single structural pool in
// SC[AgeYoung] and only the Live slot of NC, PN and AH.
type OrganPools struct {
	SC [NumAgeClasses]float64 // structural carbon [kg C m-2]
	NC [NumVitality]float64   // non-structural carbon [kg C m-2]
	PN [NumVitality]float64   // protein carbon [kg C m-2]
	AH [NumVitality]float64   // ash [kg DM m-2]
}

// LiveSC returns the structural carbon of the live age classes.
func (p *OrganPools) LiveSC() float64 {
	return p.SC[AgeYoung] + p.SC[AgeDeveloping] + p.SC[AgeMature]
}

// LiveCarbon returns live SC + NC + PN.
func (p *OrganPools) LiveCarbon() float64 {
	return p.LiveSC() + p.NC[Live] + p.PN[Live]
}

// DeadCarbon returns dead SC + NC + PN.
func (p *OrganPools) DeadCarbon() float64 {
	return p.SC[AgeDead] + p.NC[Dead] + p.PN[Dead]
}

// Scale multiplies every pool by f.
func (p *OrganPools) Scale(f float64) {
	for i := range p.SC {
		p.SC[i] *= f
	}
	for i := range p.NC {
		p.NC[i] *= f
		p.PN[i] *= f
		p.AH[i] *= f
	}
}

// Each calls fn for every pool slot with a descriptive name.
func (p *OrganPools) Each(fn func(name string, v *float64)) {
	scNames := [NumAgeClasses]string{"sc_young", "sc_developing", "sc_mature", "sc_dead"}
	for i := range p.SC {
		fn(scNames[i], &p.SC[i])
	}
	vNames := [NumVitality]string{"live", "dead"}
	for i := range p.NC {
		fn("nc_"+vNames[i], &p.NC[i])
		fn("pn_"+vNames[i], &p.PN[i])
		fn("ah_"+vNames[i], &p.AH[i])
	}
}

// Valid reports whether every pool is non-negative.
func (p *OrganPools) Valid() bool {
	ok := true
	p.Each(func(_ string, v *float64) {
		if *v < 0 {
			ok = false
		}
	})
	return ok
}

// Composition is the carbon-fraction makeup of newly grown tissue.
// SC + NC + PN == 1.
type Composition struct {
	SC float64
	NC float64
	PN float64
}

// Sum returns SC + NC + PN.
func (c Composition) Sum() float64 { return c.SC + c.NC + c.PN }

// Litter accumulates senesced carbon by pool kind [kg C m-2].
type Litter struct {
	SC float64
	NC float64
	PN float64
}

// Carbon returns the summed carbon.
func (l Litter) Carbon() float64 { return l.SC + l.NC + l.PN }

// Nitrogen returns the nitrogen bound in the protein carbon.
func (l Litter) Nitrogen() float64 { return l.PN / FCProtein * FNProtein }

// Scale multiplies every pool by f.
func (l *Litter) Scale(f float64) {
	l.SC *= f
	l.NC *= f
	l.PN *= f
}
