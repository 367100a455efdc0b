package components

import "math"

// Mixture is the ordered set of species sharing a soil column.
// Species order is insertion order and never changes.
type Mixture struct {
	Species        []*Species
	NumLayers      int
	LayerThickness float64 // [m]

	// Per species × layer
	RootFraction   [][]float64 // relative root share f_r
	RootMass       [][]float64 // [kg DM m-2]
	NitrogenUptake [][]float64 // [kg N m-2 d-1]
	WaterUptake    [][]float64 // [mm d-1]

	RootFractionSum []float64 // per species
	RootMassSum     []float64 // per layer
	NitrogenSum     []float64 // per layer

	GroundCover  float64 // f_g
	StockingRate float64 // ρ_stock
	Regrowth     bool
}

// NewMixture builds a mixture from constants in insertion order.
func NewMixture(cons []*SpeciesConstants, numLayers int, thickness float64) *Mixture {
	m := &Mixture{
		NumLayers:      numLayers,
		LayerThickness: thickness,
		RootMassSum:    make([]float64, numLayers),
		NitrogenSum:    make([]float64, numLayers),
	}
	for i, c := range cons {
		m.Species = append(m.Species, NewSpecies(i, c))
	}
	n := len(m.Species)
	m.RootFraction = grid(n, numLayers)
	m.RootMass = grid(n, numLayers)
	m.NitrogenUptake = grid(n, numLayers)
	m.WaterUptake = grid(n, numLayers)
	m.RootFractionSum = make([]float64, n)
	return m
}

func grid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}

// Len returns the number of species.
func (m *Mixture) Len() int { return len(m.Species) }

// LAITotal returns the summed leaf area index.
func (m *Mixture) LAITotal() float64 {
	var l float64
	for _, s := range m.Species {
		l += s.LAI()
	}
	return l
}

// Height returns the tallest species height [m].
func (m *Mixture) Height() float64 {
	var h float64
	for _, s := range m.Species {
		h = math.Max(h, s.Height())
	}
	return h
}

// DMShoot returns total shoot dry matter [kg DM m-2].
func (m *Mixture) DMShoot() float64 {
	var dm float64
	for _, s := range m.Species {
		dm += s.DMShoot()
	}
	return dm
}

// DMRoot returns total root dry matter [kg DM m-2].
func (m *Mixture) DMRoot() float64 {
	var dm float64
	for _, s := range m.Species {
		dm += s.DMRoot()
	}
	return dm
}

// DMOrgan returns total dry matter of one organ [kg DM m-2].
func (m *Mixture) DMOrgan(o Organ) float64 {
	var dm float64
	for _, s := range m.Species {
		dm += s.DM(o)
	}
	return dm
}

// MaxRootDepth returns the deepest current rooting depth [m].
func (m *Mixture) MaxRootDepth() float64 {
	var d float64
	for _, s := range m.Species {
		d = math.Max(d, s.State.RootDepth)
	}
	return d
}

// ShootWeighted returns the shoot-DM weighted mean of fn over species.
// Falls back to the plain mean when there is no shoot.
func (m *Mixture) ShootWeighted(fn func(*Species) float64) float64 {
	if len(m.Species) == 0 {
		return 0
	}
	var sum, w float64
	for _, s := range m.Species {
		dm := s.DMShoot()
		sum += fn(s) * dm
		w += dm
	}
	if w <= 0 {
		sum = 0
		for _, s := range m.Species {
			sum += fn(s)
		}
		return sum / float64(len(m.Species))
	}
	return sum / w
}

// ResetPhenology restarts the phenology clock of every species.
func (m *Mixture) ResetPhenology() {
	for _, s := range m.Species {
		s.ResetPhenology()
	}
}

// ResetPhenology restarts the species' phenology clock.
func (s *Species) ResetPhenology() {
	s.State.GDD = 0
	s.State.RhoLeaf = s.Cons.Part.RhoLeafMax
}
