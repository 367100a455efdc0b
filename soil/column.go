package soil

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Column is a layered bucket soil. Water infiltrates top-down, filling each
// layer to field capacity before passing the rest on; water leaving the
// bottom layer is drainage. There is no upward flux, mineralisation or heat
// flow.
//
// Column implements components.SoilColumn.
type Column struct {
	layers []components.SoilLayer
	dz     float64 // [m]

	organicCarbon   []float64 // added organic matter [kg C m-3]
	organicNitrogen []float64 // [kg N m-3]

	// Drainage is the water that left the profile on the last ApplyWater call [mm].
	Drainage float64
}

var _ components.SoilColumn = (*Column)(nil)

// New builds a column of numLayers layers of thickness dz from horizons.
// Each horizon covers round(thickness/dz) layers; the last one is extended
// to the bottom of the column. Layer properties come from explicit values,
// then the texture class, then sand/clay estimates, then the default class.
func New(cfg config.SoilConfig, numLayers int, dz float64, logger *slog.Logger) (*Column, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if numLayers <= 0 || dz <= 0 {
		return nil, fmt.Errorf("soil: invalid grid %d x %g m", numLayers, dz)
	}
	if len(cfg.Horizons) == 0 {
		return nil, fmt.Errorf("soil: no horizons")
	}
	fallback := cfg.DefaultTexture
	if _, ok := LookupTexture(fallback); !ok {
		fallback = DefaultTexture
	}

	c := &Column{
		dz:              dz,
		organicCarbon:   make([]float64, numLayers),
		organicNitrogen: make([]float64, numLayers),
	}
	for h, hz := range cfg.Horizons {
		count := int(math.Round(hz.Thickness / dz))
		if h == len(cfg.Horizons)-1 && len(c.layers)+count < numLayers {
			count = numLayers - len(c.layers)
		}
		layer, err := horizonLayer(h, hz, fallback, logger)
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			if len(c.layers) == numLayers {
				logger.Warn("soil profile deeper than layer grid",
					"horizon", h,
					"max_depth", float64(numLayers)*dz,
				)
				break
			}
			c.layers = append(c.layers, layer)
		}
	}
	return c, nil
}

func horizonLayer(h int, hz config.HorizonConfig, fallback string, logger *slog.Logger) (components.SoilLayer, error) {
	var t Texture
	switch {
	case hz.FieldCapacity > 0 && hz.Saturation > 0 && hz.WiltingPoint > 0 && hz.BulkDensity > 0:
		t = Texture{Name: "explicit", WiltingPoint: hz.WiltingPoint, FieldCapacity: hz.FieldCapacity,
			Saturation: hz.Saturation, BulkDensity: hz.BulkDensity}
	case hz.Texture != "":
		var ok bool
		if t, ok = LookupTexture(hz.Texture); !ok {
			logger.Warn("unknown soil texture, using default",
				"horizon", h,
				"texture", hz.Texture,
				"default", fallback,
			)
			t, _ = LookupTexture(fallback)
		}
	case hz.Sand > 0 || hz.Clay > 0:
		t = EstimateTexture(hz.Sand, hz.Clay, hz.OrganicMatter)
	default:
		t, _ = LookupTexture(fallback)
	}

	if t.WiltingPoint <= 0 || t.FieldCapacity <= t.WiltingPoint || t.Saturation <= t.FieldCapacity || t.BulkDensity <= 0 {
		return components.SoilLayer{}, fmt.Errorf("soil horizon %d: invalid hydraulic properties pwp=%g fc=%g sat=%g bd=%g",
			h, t.WiltingPoint, t.FieldCapacity, t.Saturation, t.BulkDensity)
	}
	moisture := hz.InitialMoisture
	if moisture <= 0 {
		moisture = 1
	}
	return components.SoilLayer{
		FieldCapacity: t.FieldCapacity,
		Saturation:    t.Saturation,
		WiltingPoint:  t.WiltingPoint,
		BulkDensity:   t.BulkDensity,
		Moisture:      math.Max(t.WiltingPoint, math.Min(t.Saturation, moisture*t.FieldCapacity)),
		Nitrate:       math.Max(0, hz.Nitrate),
	}, nil
}

// NumLayers returns the number of layers.
func (c *Column) NumLayers() int { return len(c.layers) }

// LayerThickness returns the layer thickness [m].
func (c *Column) LayerThickness() float64 { return c.dz }

// Layer returns a copy of layer i.
func (c *Column) Layer(i int) components.SoilLayer { return c.layers[i] }

// mm converts volumetric water of one layer to millimetres.
func (c *Column) mm(theta float64) float64 { return theta * c.dz * 1e3 }

// Water returns the profile water content [mm].
func (c *Column) Water() float64 {
	var w float64
	for _, l := range c.layers {
		w += c.mm(l.Moisture)
	}
	return w
}

// PlantAvailableWater returns water above the wilting point [mm].
func (c *Column) PlantAvailableWater() float64 {
	var w float64
	for _, l := range c.layers {
		w += c.mm(math.Max(0, l.Moisture-l.WiltingPoint))
	}
	return w
}

// Nitrate returns the profile nitrate [kg N m-2].
func (c *Column) Nitrate() float64 {
	var n float64
	for _, l := range c.layers {
		n += l.Nitrate * c.dz
	}
	return n
}

// ApplyWater infiltrates water [mm] from the surface and returns drainage
// below the profile [mm].
func (c *Column) ApplyWater(water float64) float64 {
	c.Drainage = 0
	if water <= 0 {
		return 0
	}
	for i := range c.layers {
		l := &c.layers[i]
		room := c.mm(l.FieldCapacity - l.Moisture)
		if room <= 0 {
			continue
		}
		add := math.Min(room, water)
		l.Moisture += add / (c.dz * 1e3)
		water -= add
		if water <= 0 {
			return 0
		}
	}
	c.Drainage = water
	return water
}

// WithdrawWater removes per-layer uptake [mm], never below the wilting point.
func (c *Column) WithdrawWater(perLayer []float64) {
	for i := range c.layers {
		if i >= len(perLayer) {
			break
		}
		l := &c.layers[i]
		l.Moisture = math.Max(l.WiltingPoint, l.Moisture-perLayer[i]/(c.dz*1e3))
	}
}

// WithdrawNitrogen removes per-layer uptake [kg N m-2].
func (c *Column) WithdrawNitrogen(perLayer []float64) {
	for i := range c.layers {
		if i >= len(perLayer) {
			break
		}
		l := &c.layers[i]
		l.Nitrate = math.Max(0, l.Nitrate-perLayer[i]/c.dz)
	}
}

// AddOrganicMatter accumulates senesced tissue in the top layers.
func (c *Column) AddOrganicMatter(in []components.OrganicMatterInput) {
	for i, om := range in {
		if i >= len(c.organicCarbon) || om.Carbon <= 0 {
			continue
		}
		c.organicCarbon[i] += om.Carbon
		if om.CNRatio > 0 {
			c.organicNitrogen[i] += om.Carbon / om.CNRatio
		}
	}
}

// OrganicCarbon returns the organic carbon added to layer i [kg C m-3].
func (c *Column) OrganicCarbon(i int) float64 { return c.organicCarbon[i] }

// OrganicCN returns the C:N ratio of the organic matter added to layer i,
// or 0 if none was added.
func (c *Column) OrganicCN(i int) float64 {
	if c.organicNitrogen[i] <= 0 {
		return 0
	}
	return c.organicCarbon[i] / c.organicNitrogen[i]
}

// Restore replaces the layer state, as saved in a snapshot.
func (c *Column) Restore(layers []components.SoilLayer) error {
	if len(layers) != len(c.layers) {
		return fmt.Errorf("soil: snapshot has %d layers, column has %d", len(layers), len(c.layers))
	}
	copy(c.layers, layers)
	return nil
}
