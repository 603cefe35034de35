package domain

import "math"

// Coordinate is a named (longitude, latitude) pair. Axis order lives in the
// field names so a call site can never transpose it the way a bare
// two-element slice allows.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// PlanarDistance returns the Euclidean distance between two coordinates over
// the (lon, lat) plane.
func PlanarDistance(a, b Coordinate) float64 {
	dLon := a.Lon - b.Lon
	dLat := a.Lat - b.Lat
	return math.Sqrt(dLon*dLon + dLat*dLat)
}
