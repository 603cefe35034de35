package domain

import (
	"fmt"
	"sort"
)

// Station is a fixed reference gauge reporting water-surface elevation over
// time. Created once from aggregated service metadata; immutable thereafter.
type Station struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Coord Coordinate `json:"coord"`
}

// StationIDMap assigns stable small-integer identifiers to station display
// names. The service's raw identifiers differ between the daily and monthly
// products, so the canonical id is derived from the name through this map
// and never recomputed per call.
type StationIDMap map[string]int

// Validate checks the map for use as a canonical id assignment: non-empty,
// positive ids, no two names sharing an id.
func (m StationIDMap) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("station id map is empty")
	}
	seen := make(map[int]string, len(m))
	for name, id := range m {
		if name == "" {
			return fmt.Errorf("station id map contains an empty name")
		}
		if id <= 0 {
			return fmt.Errorf("station %q has non-positive id %d", name, id)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("stations %q and %q share id %d", other, name, id)
		}
		seen[id] = name
	}
	return nil
}

// IDFor returns the canonical id for a station display name.
func (m StationIDMap) IDFor(name string) (int, bool) {
	id, ok := m[name]
	return id, ok
}

// Names returns the mapped station names in a deterministic order.
func (m StationIDMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
