package systems

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Clamp functions for common value ranges

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// ratioOr returns num/den, or fallback when den is zero or the result is not finite.
func ratioOr(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fallback
	}
	return r
}

// sum returns the sum of a layer or species vector.
func sum(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Sum(v)
}

// zero resets a vector in place.
func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

// cardinalResponse is the peaked temperature response used for P_m and tissue
// turnover: zero at tMin, 1 at tRef, maximum at tOpt, zero again at
// tMax = ((1+q)·tOpt - tMin)/q.
func cardinalResponse(t, tMin, tRef, tOpt, q float64) float64 {
	if tRef > tOpt {
		tRef = tOpt
	}
	tMax := ((1+q)*tOpt - tMin) / q
	if t <= tMin || t >= tMax {
		return 0
	}
	return math.Pow((t-tMin)/(tRef-tMin), q) *
		(((1+q)*tOpt - tMin - q*t) / ((1+q)*tOpt - tMin - q*tRef))
}
