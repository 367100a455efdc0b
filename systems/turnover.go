package systems

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/sward/components"
)

// Turnover parameters.
const (
	leafTurnoverRef   = 0.05 // live leaf age-class flux at f_γ = 1 [d-1]
	stemTurnoverScale = 0.8  // stem relative to leaf
	rootTurnoverRef   = 0.02 // root senescence at f_γ = 1 [d-1]
	deadToLitterRate  = 0.11 // dead shoot to litter [d-1]
	remobN            = 0.5  // N recovered from senescing tissue below the organ maximum
	remobC            = 0.8  // non-structural C recovered from senescing tissue
)

// turnoverTemperature is the temperature response of tissue turnover. It
// rises from 3°C to 1 at 20°C and stays there.
func turnoverTemperature(t float64) float64 {
	return cardinalResponse(math.Min(t, 20), 3, 20, 20, 2)
}

// organicMatterGrowth converts allocated carbon to organic dry matter.
func organicMatterGrowth(g float64, c components.Composition) float64 {
	return g * (c.SC/components.FCStructural + c.NC/components.FCNonStructural + c.PN/components.FCProtein)
}

// Turnover advances the pools of every species by one forward Euler step:
// new growth enters the youngest age class, tissue ages through the live
// chain into the dead pool, and dead tissue and senesced roots become
// litter. Pools that end negative are reported: with verify set the first
// one is returned as an *InvariantError, otherwise it is clamped to zero and
// logged.
func Turnover(mix *components.Mixture, tMean float64, verify bool, logger *slog.Logger) error {
	fT := turnoverTemperature(tMean)
	for _, s := range mix.Species {
		turnoverSpecies(s, fT, mix.StockingRate)
		if err := settlePools(s, verify, logger); err != nil {
			return err
		}
	}
	return nil
}

func turnoverSpecies(s *components.Species, fT, stocking float64) {
	st := &s.State
	gammaLeaf := leafTurnoverRef * fT
	gamma := [components.NumOrgans]float64{
		components.Leaf: gammaLeaf,
		components.Stem: stemTurnoverScale * gammaLeaf,
		components.Root: rootTurnoverRef * fT,
	}
	gammaDead := deadToLitterRate + s.Cons.Part.GammaStock*stocking
	ashScale := math.Sqrt(st.OmegaWater)

	var nRemobC float64
	for _, o := range components.Organs {
		p := &s.Pools[o]
		old := *p
		g := st.Growth[o]
		comp := st.Composition[o]
		if g <= 0 {
			g, comp = 0, components.Composition{}
		}
		fNRemob := 0.0
		if s.FNLive(o) < s.Cons.NRef(o).Max {
			fNRemob = remobN
		}
		om := organicMatterGrowth(g, comp)
		fAsh := s.Cons.Ash.Of(o)
		dAsh := 0.0
		if fAsh < 1 {
			dAsh = ashScale * fAsh / (1 - fAsh) * om
		}
		st.Increment[o] = om + dAsh

		if o == components.Root {
			gr := gamma[o]
			pnLoss := (1 - fNRemob) * gr * old.PN[components.Live]
			ncLoss := (1 - remobC) * gr * old.NC[components.Live]
			scLoss := gr * old.SC[components.AgeYoung]

			p.SC[components.AgeYoung] += g*comp.SC - scLoss
			p.NC[components.Live] += g*comp.NC - ncLoss
			p.PN[components.Live] += g*comp.PN - pnLoss
			p.AH[components.Live] += dAsh - gr*old.AH[components.Live]

			st.LitterRoot.SC += scLoss
			st.LitterRoot.NC += ncLoss
			st.LitterRoot.PN += pnLoss
			st.LitterAsh += gr * old.AH[components.Live]
			nRemobC += fNRemob * gr * old.PN[components.Live]
			continue
		}

		gl := gamma[o]
		sc := old.SC
		liveSC := old.LiveSC()
		// NC and PN follow the structural flux out of the oldest live class.
		toDead := ratioOr(gl*sc[components.AgeMature], sc[components.AgeYoung]+sc[components.AgeDeveloping], 0)
		pnToDead := old.PN[components.Live] * toDead
		ncToDead := old.NC[components.Live] * toDead
		ahToDead := ratioOr(old.AH[components.Live]*gl*sc[components.AgeMature], liveSC, 0)

		p.SC[components.AgeYoung] += g*comp.SC - 2*gl*sc[components.AgeYoung]
		p.SC[components.AgeDeveloping] += 2*gl*sc[components.AgeYoung] - gl*sc[components.AgeDeveloping]
		p.SC[components.AgeMature] += gl*sc[components.AgeDeveloping] - gl*sc[components.AgeMature]
		p.SC[components.AgeDead] += gl*sc[components.AgeMature] - gammaDead*sc[components.AgeDead]

		p.PN[components.Live] += g*comp.PN - pnToDead*(1-fNRemob)
		p.PN[components.Dead] += pnToDead*(1-fNRemob) - gammaDead*old.PN[components.Dead]
		p.NC[components.Live] += g*comp.NC - ncToDead*(1-remobC)
		p.NC[components.Dead] += ncToDead*(1-remobC) - gammaDead*old.NC[components.Dead]
		p.AH[components.Live] += dAsh - ahToDead
		p.AH[components.Dead] += ahToDead - gammaDead*old.AH[components.Dead]

		st.LitterShoot.SC += gammaDead * sc[components.AgeDead]
		st.LitterShoot.NC += gammaDead * old.NC[components.Dead]
		st.LitterShoot.PN += gammaDead * old.PN[components.Dead]
		st.LitterAsh += gammaDead * old.AH[components.Dead]
		nRemobC += fNRemob * pnToDead
	}
	st.NRemob = components.ProteinNitrogen(nRemobC)
}

// settlePools reports and clears negative pools left by a forward Euler step.
func settlePools(s *components.Species, verify bool, logger *slog.Logger) error {
	for _, o := range components.Organs {
		var err error
		s.Pools[o].Each(func(pool string, v *float64) {
			if *v >= 0 || err != nil {
				return
			}
			if verify {
				err = &InvariantError{Species: s.Cons.Name, Check: o.String() + "." + pool + " >= 0", Value: *v}
				return
			}
			if logger != nil {
				logger.Warn("negative pool clamped",
					"species", s.Cons.Name,
					"organ", o.String(),
					"pool", pool,
					"value", *v,
				)
			}
			*v = 0
		})
		if err != nil {
			return err
		}
	}
	return nil
}
