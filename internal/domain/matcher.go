package domain

import (
	"fmt"
	"sort"
)

// StationDistance is one entry in an observation's ranked station list.
type StationDistance struct {
	StationID int     `json:"station_id"`
	Distance  float64 `json:"distance"`
}

// Match is the ranked nearest-station assignment for one observation.
// Exactly one Match exists per observation; rank 0 is consumed by the join,
// the rest of the list is kept for diagnostics.
type Match struct {
	ObservationID string            `json:"observation_id"`
	Ranked        []StationDistance `json:"ranked"`
}

// Nearest returns the rank-0 entry.
func (m Match) Nearest() StationDistance {
	return m.Ranked[0]
}

// NearestStations assigns each observation its k nearest stations by planar
// distance over (lon, lat). Results are deterministic for a fixed input
// order: distance ties break on the station's position in the catalog, lower
// index first. Pure function; neither input is mutated.
func NearestStations(stations []Station, observations []Observation, k int) ([]Match, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("nearest stations: empty station catalog")
	}
	if k < 1 {
		return nil, fmt.Errorf("nearest stations: k must be positive, got %d", k)
	}
	if k > len(stations) {
		k = len(stations)
	}

	matches := make([]Match, len(observations))
	for i, obs := range observations {
		ranked := make([]rankedStation, len(stations))
		for j, st := range stations {
			ranked[j] = rankedStation{
				index: j,
				sd:    StationDistance{StationID: st.ID, Distance: PlanarDistance(obs.Coord, st.Coord)},
			}
		}
		sort.SliceStable(ranked, func(a, b int) bool {
			if ranked[a].sd.Distance != ranked[b].sd.Distance {
				return ranked[a].sd.Distance < ranked[b].sd.Distance
			}
			return ranked[a].index < ranked[b].index
		})

		top := make([]StationDistance, k)
		for j := 0; j < k; j++ {
			top[j] = ranked[j].sd
		}
		matches[i] = Match{ObservationID: obs.ID, Ranked: top}
	}
	return matches, nil
}

type rankedStation struct {
	index int
	sd    StationDistance
}
