package domain

import "time"

// Sentinel is the out-of-band "no data" flag used by the topobathymetric DEM
// surveys. It is compared with exact equality; it is a reserved code, not a
// measurement that could drift.
const Sentinel = -9999

// DecodeValue converts a raw numeric field into an optional value, mapping
// the sentinel to nil. Every ingestion path must pass numeric fields through
// here so arithmetic can never see −9999 as a real number.
func DecodeValue(v float64) *float64 {
	if v == Sentinel {
		return nil
	}
	return &v
}

// Observation is a ground-survey ecological record. The core reads only the
// coordinates, date, and elevations; Attrs is the opaque passthrough of
// species cover, vegetation class, and whatever else the survey recorded.
type Observation struct {
	ID           string            `json:"id"`
	Coord        Coordinate        `json:"coord"`
	Date         time.Time         `json:"date"`
	Elevation    *float64          `json:"elevation,omitempty"`     // survey-table elevation, meters
	DEMElevation *float64          `json:"dem_elevation,omitempty"` // secondary DEM sample, meters
	Attrs        map[string]string `json:"attrs,omitempty"`
}

// ElevationValue returns the elevation to compute depth against: the
// survey-table elevation when present, otherwise the secondary DEM sample.
// The order is fixed; both missing yields nil.
func (o Observation) ElevationValue() *float64 {
	if o.Elevation != nil {
		return o.Elevation
	}
	return o.DEMElevation
}
