package dem

// A Model is a digital elevation model: a height grid, the georeference
// that places it on the planet, and an optional no-data sentinel marking
// cells with no measurement.
type Model struct {
	*Grid
	Geo       GeoReference
	NoData    float64
	HasNoData bool
}

// IsNoData reports whether h is the model's no-data sentinel.
func (m *Model)IsNoData(h float64) bool {
	return m.HasNoData && h == m.NoData
}
