package systems

import (
	"math"
	"sort"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Fixed structural fraction of new tissue per organ.
var structuralFraction = [components.NumOrgans]float64{
	components.Leaf: 0.5,
	components.Stem: 0.7,
	components.Root: 0.7,
}

// Share of the freed protein fraction moved to structure when N runs short.
const nLimitedStructuralShift = 0.8

// Fraction of an organ's N deficit that surplus uptake may fill per day.
const secondaryProteinFraction = 0.1

// Partition allocates each species' net assimilate and the day's potential N
// uptake to leaf, stem and root. When the net assimilate is not positive the
// non-structural pools cover the deficit instead.
func Partition(mix *components.Mixture, resp config.ResponsesConfig, eng config.EngineConfig) {
	for si, s := range mix.Species {
		st := &s.State
		st.AtFloor = false
		st.NAddAss = 0
		if st.PGrowth > 0 {
			partitionGrowth(s, sum(mix.NitrogenUptake[si]), resp.Nitrogen)
			continue
		}
		drawDownReserves(s, eng)
	}
}

// organStatus is an organ's live N concentration relative to its optimum.
type organStatus struct {
	organ  components.Organ
	fN     float64
	status float64
}

// nitrogenOrdering ranks organs by ascending relative N status. Ties keep
// declaration order.
func nitrogenOrdering(s *components.Species) []organStatus {
	order := make([]organStatus, 0, components.NumOrgans)
	for _, o := range components.Organs {
		fN := s.FNLive(o)
		order = append(order, organStatus{
			organ:  o,
			fN:     fN,
			status: ratioOr(fN, s.Cons.NRef(o).Opt, 0),
		})
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].status < order[j].status
	})
	return order
}

// growthEfficiency is the carbon conversion efficiency Y of tissue with the
// given composition.
func growthEfficiency(fsc, fnc, fpn float64) float64 {
	return 1 / (1 +
		(1-components.YStructural)/components.YStructural*fsc +
		(1-components.YNonStructural)/components.YNonStructural*fnc +
		(1-components.YProtein)/components.YProtein*fpn)
}

// limitedProteinFraction solves for the protein fraction whose N demand
// exactly consumes pool, given the structural fraction and the carbon
// available to the organ.
func limitedProteinFraction(pool, fsc, carbon float64) float64 {
	const (
		ysc = components.YStructural
		ync = components.YNonStructural
		ypn = components.YProtein
	)
	cn := components.FCProtein / components.FNProtein
	num := pool * cn * ypn * (-fsc*ysc + fsc*ync + ysc)
	den := ysc * (pool*cn*(ypn-ync) + carbon*ypn*ync)
	return math.Max(0, ratioOr(num, den, 0))
}

func partitionGrowth(s *components.Species, pool float64, nResponse bool) {
	st := &s.State
	cons := s.Cons

	st.RhoShoot = cons.Part.RhoShootRef * math.Sqrt(st.OmegaWater*st.OmegaN)
	st.RhoRoot = 1 - st.RhoShoot
	rho := [components.NumOrgans]float64{
		components.Leaf: st.RhoShoot * st.RhoLeaf,
		components.Stem: st.RhoShoot * (1 - st.RhoLeaf),
		components.Root: st.RhoRoot,
	}

	order := nitrogenOrdering(s)

	var nReq, nAssim, nFix float64
	for _, rank := range order {
		o := rank.organ
		ref := cons.NRef(o)
		carbon := st.PGrowth * rho[o]

		fsc := structuralFraction[o]
		fpn := ref.Max / components.FNProtein * components.FCProtein
		if fsc+fpn > 1 {
			fpn = 1 - fsc
		}
		fnc := 1 - fsc - fpn
		y := growthEfficiency(fsc, fnc, fpn)
		cAss := y * carbon
		nAss := components.ProteinNitrogen(cAss * fpn)

		switch {
		case nAss > pool && !cons.IsLegume:
			// Protein is cut to what the pool supplies; most of the freed
			// fraction becomes structure. Solved twice since Y depends on fsc.
			prev := fpn
			fpn = limitedProteinFraction(pool, fsc, carbon)
			fsc += nLimitedStructuralShift * (prev - fpn)
			fpn = limitedProteinFraction(pool, fsc, carbon)
			if fsc+fpn > 1 {
				fsc = 1 - fpn
			}
			fnc = 1 - fsc - fpn
			y = growthEfficiency(fsc, fnc, fpn)
			cAss = y * carbon
			nAss = components.ProteinNitrogen(cAss * fpn)
			pool = 0
		case nAss > pool:
			nFix += nAss - pool
			pool = 0
		default:
			pool -= nAss
		}

		// Demand is capped at the optimum; organs above it are not compensated.
		if nAss == 0 {
			nReq += ref.Opt * cAss
		} else {
			nReq += math.Min(ref.Opt*cAss, nAss)
		}
		nAssim += nAss

		st.Efficiency[o] = y
		st.Growth[o] = cAss
		st.Composition[o] = components.Composition{SC: fsc, NC: fnc, PN: fpn}
	}

	st.OmegaN = 1
	if nResponse {
		st.OmegaN = math.Min(1, ratioOr(nAssim, nReq, 1))
	}
	st.NAssim = nAssim
	st.NReq = nReq
	st.NFix = nFix

	// Surplus uptake tops up protein of organs below their optimum, paid
	// from the non-structural pool.
	for _, rank := range order {
		if pool <= 0 {
			break
		}
		opt := cons.NRef(rank.organ).Opt
		if rank.fN >= opt {
			continue
		}
		p := &s.Pools[rank.organ]
		nAdd := math.Min(secondaryProteinFraction*(opt-rank.fN)*s.CarbonLive(rank.organ), pool)
		cReq := components.NitrogenProtein(nAdd) / components.YProtein
		if cReq > p.NC[components.Live] {
			cReq = p.NC[components.Live]
			nAdd = components.ProteinNitrogen(cReq * components.YProtein)
		}
		p.NC[components.Live] -= cReq
		p.PN[components.Live] += components.NitrogenProtein(nAdd)
		pool -= nAdd
		st.NAssim += nAdd
		st.NAddAss += nAdd
	}
}

// drawDownReserves covers a negative net assimilate from the non-structural
// pools in proportion to their size. Below the keep-alive floor the species
// is left untouched.
func drawDownReserves(s *components.Species, eng config.EngineConfig) {
	st := &s.State
	st.OmegaN = 1
	st.NAssim, st.NReq, st.NFix = 0, 0, 0
	for _, o := range components.Organs {
		st.Growth[o] = 0
	}

	if eng.KeepAlive && s.DMShoot() <= eng.DMShootMin {
		st.AtFloor = true
		return
	}

	var ncPool float64
	for _, o := range components.Organs {
		ncPool += s.Pools[o].NC[components.Live]
	}
	if ncPool <= 0 {
		return
	}
	deficit := st.PGrowth
	for _, o := range components.Organs {
		nc := &s.Pools[o].NC[components.Live]
		if *nc > 0 {
			*nc = math.Max(0, *nc+deficit*(*nc)/ncPool)
		}
	}
}
