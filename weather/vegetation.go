package weather

const (
	vegetationWindow    = 5   // days in the running mean
	vegetationThreshold = 5.0 // [°C]
)

// VegetationDetector flags the vegetation period: days on which the running
// mean of the last five daily mean temperatures exceeds 5°C.
type VegetationDetector struct {
	temps [vegetationWindow]float64
	n     int
	next  int
}

// Observe adds a day's mean temperature and reports whether the day lies in
// the vegetation period. Until five days are seen the mean covers what is
// available.
func (d *VegetationDetector) Observe(tMean float64) bool {
	d.temps[d.next] = tMean
	d.next = (d.next + 1) % vegetationWindow
	if d.n < vegetationWindow {
		d.n++
	}
	var sum float64
	for i := 0; i < d.n; i++ {
		sum += d.temps[i]
	}
	return sum/float64(d.n) > vegetationThreshold
}

// Reset clears the history.
func (d *VegetationDetector) Reset() { *d = VegetationDetector{} }
