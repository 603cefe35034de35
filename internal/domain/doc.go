// Package domain models the fusion of NOAA CO-OPS gauge water levels with
// field observations of invasive aquatic vegetation in the western Lake Erie
// basin.
//
// # Data Sources
//
// Water levels come from the NOAA CO-OPS data API
// (https://api.tidesandcurrents.noaa.gov/api/prod/), products "daily_mean"
// and "monthly_mean", on the Great Lakes datum (IGLD 85), in meters. Each
// response echoes the station's name and coordinates alongside the series;
// the echoed coordinates jitter slightly between calls and are averaged into
// a single catalog coordinate per station.
//
// Observations are ground-survey ecological records: an identifier, WGS-84
// coordinates, a survey date, opaque vegetation attributes, and an elevation
// sampled from a topobathymetric DEM.
//
// # Station Identifiers
//
// The service's own station identifiers are not guaranteed stable across
// products, so canonical small-integer ids are assigned from the station
// display name through an explicit [StationIDMap]. Readings whose name has
// no mapping are excluded and counted, never silently kept.
//
// # Sentinel Values
//
// The DEM uses −9999 for "no data". Sentinels are converted to nil at
// ingestion by [DecodeValue]; all downstream arithmetic propagates nil
// instead of ever computing against −9999. Comparison is exact equality:
// the sentinel is an out-of-band flag, not a measurement.
//
// # Depth Convention
//
// Depth = water level − elevation, in meters. Positive means the site is
// submerged; negative means the water surface sits below the sampled ground.
// Raw signed depth and a clamped-to-zero variant are both carried, because
// clamping is a policy for specific downstream comparisons, not a universal
// transformation.
//
// # Distance
//
// Nearest-station assignment uses planar Euclidean distance over (lon, lat).
// The study area spans a few tens of kilometers, where planar and geodesic
// distance produce the same station ranking. Revisit before reusing at a
// larger geographic scope.
package domain
