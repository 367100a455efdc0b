package systems

import (
	"github.com/pthm-cable/sward/components"
)

// NetAssimilate sets maintenance respiration, nitrogen respiration and the
// net assimilate P_growth of every species. R_N uses the previous day's
// uptake and fixation, which are only known after partitioning.
func NetAssimilate(mix *components.Mixture, tMean float64) {
	for _, s := range mix.Species {
		st := &s.State
		st.RMaint = MaintenanceRespiration(s, tMean)
		st.RN = s.Cons.Resp.LambdaNUp*st.NUptake + s.Cons.Resp.LambdaNFix*st.NFix
		st.PGrowth = st.PGross - st.RMaint - st.RN
	}
}

// MaintenanceRespiration returns the maintenance cost of all live tissue
// [kg C m-2 d-1]. Each organ respires in proportion to its N status relative
// to the organ reference.
func MaintenanceRespiration(s *components.Species, t float64) float64 {
	r := s.Cons.Resp
	fm := 0.0
	if t > r.TMin {
		fm = ratioOr(t-r.TMin, r.TRef-r.TMin, 0)
	}
	if fm == 0 {
		return 0
	}
	var total float64
	for _, o := range components.Organs {
		c := s.CarbonLive(o)
		if c <= 0 {
			continue
		}
		total += r.MRef * fm * ratioOr(s.FNLive(o), s.Cons.NRef(o).Ref, 0) * c
	}
	return total
}
