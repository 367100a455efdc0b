package systems

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/sward/components"
)

// Diurnal light points: the day is split into half at maximum irradiance and
// half at half-maximum irradiance.
type diurnalPoint struct {
	I float64 // incident PPF [μmol m-2 s-1]
	T float64 // temperature [°C]
}

// GrossPhotosynthesis sets P_g_day [kg C m-2 d-1] and GLF of every species.
// Species are integrated independently; there is no light competition
// between them.
func GrossPhotosynthesis(mix *components.Mixture, day components.WeatherDay, logger *slog.Logger) {
	tau := day.Daylength
	ppf := day.GlobalRad * components.PPFPerMJ

	var mx, mn diurnalPoint
	if tau > 0 {
		mx = diurnalPoint{I: 4.0 / 3.0 * ppf / tau, T: (day.TMax + day.TMean) / 2}
		mn = diurnalPoint{I: mx.I / 2, T: day.TMean}
	}

	for _, s := range mix.Species {
		st := &s.State
		st.GLF = GrowthLimitingFactor(st)
		st.PGross = 0
		if tau <= 0 || ppf <= 0 {
			continue
		}
		p := canopyRate(s, mx, mn, day.DirectFraction, day.CO2, logger)
		// μmol CO2 → kg C
		st.PGross = 0.012 * 1e-6 * (tau / 2) * p * st.GLF
	}
}

// canopyRate integrates leaf gross photosynthesis over the canopy depth for
// both diurnal points [μmol CO2 m-2 s-1, summed over points].
func canopyRate(s *components.Species, mx, mn diurnalPoint, fs, co2 float64, logger *slog.Logger) float64 {
	ph := s.Cons.Photo
	lai := s.LAI()
	n := int(lai / components.LeafAreaStep)
	if n <= 0 {
		return 0
	}

	fcm := co2Domain(s, logger)
	fC := co2Response(co2, ph.Lambda, fcm)
	fN := s.FNLive(components.Leaf)
	fNRef := s.Cons.NLeaf.Ref

	alpha := ph.AlphaAmb15 * fC * alphaNitrogen(fN, fNRef)
	alphaMx, alphaMn := alpha, alpha
	if !s.Cons.IsC4 {
		alphaMx = alpha * alphaTemperatureCO2(mx.T, co2, fC, ph)
		alphaMn = alpha * alphaTemperatureCO2(mn.T, co2, fC, ph)
	}
	pmBase := ph.PmRef * fC * pmNitrogen(fN, fNRef)
	pmMx := pmBase * pmTemperatureCO2(mx.T, fC, ph, s.Cons.IsC4)
	pmMn := pmBase * pmTemperatureCO2(mn.T, fC, ph, s.Cons.IsC4)

	points := [2]struct {
		dp        diurnalPoint
		alpha, pm float64
	}{{mx, alphaMx, pmMx}, {mn, alphaMn, pmMn}}

	k, xi, dl := ph.K, ph.Xi, components.LeafAreaStep
	var total float64
	for i := 1; i <= n; i++ {
		l := float64(2*i-1) * dl / 2
		sunlit := math.Exp(-k * l)
		shaded := 1 - sunlit
		for _, pt := range points {
			direct := k * pt.dp.I * (fs + (1-fs)*sunlit)
			diffuse := k * pt.dp.I * (1 - fs) * sunlit
			total += leafRate(direct, pt.alpha, pt.pm, xi) * sunlit * dl
			total += leafRate(diffuse, pt.alpha, pt.pm, xi) * shaded * dl
		}
	}
	return total
}

// leafRate is the non-rectangular hyperbola of single leaf gross
// photosynthesis [μmol CO2 m-2 leaf s-1].
func leafRate(i, alpha, pm, xi float64) float64 {
	if xi <= 0 {
		// rectangular limit
		if alpha*i+pm <= 0 {
			return 0
		}
		return alpha * i * pm / (alpha*i + pm)
	}
	b := alpha*i + pm
	d := b*b - 4*xi*alpha*i*pm
	if d < 0 {
		d = 0
	}
	return (b - math.Sqrt(d)) / (2 * xi)
}

// co2Domain returns f_C_m, moved just below λ/(2-λ) when the configured
// value would give the response a pole. The adjustment is logged once per
// species.
func co2Domain(s *components.Species, logger *slog.Logger) float64 {
	ph := s.Cons.Photo
	limit := ph.Lambda / (2 - ph.Lambda)
	if ph.FCm < limit {
		return ph.FCm
	}
	fcm := limit - 1e-10
	if !s.State.CO2Clamped {
		s.State.CO2Clamped = true
		if logger != nil {
			logger.Warn("co2 response clamped",
				"species", s.Cons.Name,
				"f_c_m", ph.FCm,
				"adjusted", fcm,
			)
		}
	}
	return fcm
}

// co2Response is 1 at the reference concentration, λ at twice the
// reference and tends to f_C_m at saturation.
func co2Response(c, lambda, fcm float64) float64 {
	ref := components.CO2AmbientRef
	phi := (fcm * (lambda*(fcm-1) - 2*(fcm-lambda))) / (lambda*lambda*(fcm-1) - 2*(fcm-lambda))
	beta := (lambda * (fcm - phi*lambda)) / (2 * ref * (fcm - lambda))
	b := beta*c + fcm
	d := b*b - 4*phi*beta*fcm*c
	if d < 0 {
		d = 0
	}
	f := (b - math.Sqrt(d)) / (2 * phi)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}

// pmNitrogen scales P_m with leaf N relative to the reference.
func pmNitrogen(fN, ref float64) float64 {
	return math.Min(1, ratioOr(fN, ref, 1))
}

// alphaNitrogen scales α linearly from 0.5 at zero N to 1 at the reference.
func alphaNitrogen(fN, ref float64) float64 {
	if fN > ref {
		return 1
	}
	return 0.5 + 0.5*ratioOr(fN, ref, 1)
}

// pmTemperatureCO2 is the temperature response of P_m with its optimum
// shifted by CO2. C4 species do not decline above the optimum.
func pmTemperatureCO2(t, fC float64, ph components.PhotoConstants, isC4 bool) float64 {
	tOpt := ph.TOptPmAmb + ph.GammaPm*(fC-1)
	if isC4 && t > tOpt {
		t = tOpt
	}
	return cardinalResponse(t, ph.TMin, ph.TRef, tOpt, 2)
}

// alphaTemperatureCO2 declines α of C3 species above an optimum that rises
// with CO2 (photorespiration).
func alphaTemperatureCO2(t, co2, fC float64, ph components.PhotoConstants) float64 {
	tOpt := 15 + ph.GammaAlpha*(fC-1)
	if t < tOpt {
		return 1
	}
	return math.Max(0, 1-ph.LambdaAlpha*(components.CO2AmbientRef/co2)*(t-tOpt))
}
