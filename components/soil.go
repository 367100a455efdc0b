package components

// SoilLayer is the read-only view of one soil layer.
type SoilLayer struct {
	FieldCapacity float64 // [m3 m-3]
	Saturation    float64 // [m3 m-3]
	WiltingPoint  float64 // [m3 m-3]
	BulkDensity   float64 // [kg m-3]
	Moisture      float64 // [m3 m-3]
	Nitrate       float64 // [kg N m-3]
}

// SoilColumn is the soil collaborator the sward reads from.
type SoilColumn interface {
	NumLayers() int
	LayerThickness() float64
	Layer(i int) SoilLayer
}

// OrganicMatterInput is senesced tissue handed to one organic soil layer.
type OrganicMatterInput struct {
	Carbon  float64 // [kg C m-3]
	CNRatio float64 // 0 when Carbon is 0
}
