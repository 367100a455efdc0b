// Package soil provides the bucket soil column the sward reads water and
// nitrate from.
package soil

import "sort"

// Texture holds the hydraulic properties of a soil class.
type Texture struct {
	Name          string
	WiltingPoint  float64 // [m3 m-3] at -1500 kPa
	FieldCapacity float64 // [m3 m-3] at -33 kPa
	Saturation    float64 // [m3 m-3]
	BulkDensity   float64 // [kg m-3]
}

// DefaultTexture is used when a horizon names no class or an unknown one.
const DefaultTexture = "loam"

// Typical values of the USDA classes at 2.5% organic matter.
var textures = map[string]Texture{
	"sand":            {"sand", 0.05, 0.10, 0.46, 1600},
	"loamy_sand":      {"loamy_sand", 0.05, 0.12, 0.46, 1550},
	"sandy_loam":      {"sandy_loam", 0.08, 0.18, 0.45, 1500},
	"loam":            {"loam", 0.14, 0.28, 0.46, 1430},
	"silt_loam":       {"silt_loam", 0.11, 0.31, 0.48, 1380},
	"silt":            {"silt", 0.06, 0.30, 0.48, 1380},
	"sandy_clay_loam": {"sandy_clay_loam", 0.17, 0.27, 0.43, 1510},
	"clay_loam":       {"clay_loam", 0.22, 0.36, 0.48, 1380},
	"silty_clay_loam": {"silty_clay_loam", 0.22, 0.38, 0.51, 1300},
	"sandy_clay":      {"sandy_clay", 0.25, 0.36, 0.44, 1480},
	"silty_clay":      {"silty_clay", 0.27, 0.41, 0.52, 1270},
	"clay":            {"clay", 0.30, 0.42, 0.50, 1330},
}

// LookupTexture returns the properties of a named class.
func LookupTexture(name string) (Texture, bool) {
	t, ok := textures[name]
	return t, ok
}

// TextureNames lists the known classes in alphabetical order.
func TextureNames() []string {
	names := make([]string, 0, len(textures))
	for n := range textures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
