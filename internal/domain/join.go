package domain

import "fmt"

// JoinedRow is an observation carrying its assigned station and whatever
// water-level columns the joins have attached so far. Station metadata (id,
// name, coordinates) always comes from the catalog side of the join; the
// reading tables' echoed metadata was already discarded during aggregation.
// That is the column-collision rule: the catalog is authoritative.
type JoinedRow struct {
	Obs      Observation `json:"observation"`
	Station  Station     `json:"station"`
	Distance float64     `json:"distance"`

	Daily       *float64 `json:"daily_level,omitempty"`
	MonthlyHigh *float64 `json:"monthly_high,omitempty"`
	MonthlyMean *float64 `json:"monthly_mean,omitempty"`
	MonthlyLow  *float64 `json:"monthly_low,omitempty"`
}

// AssignStations pairs each observation with its rank-0 matched station.
// Matches are positional with observations (one match per observation, as
// NearestStations guarantees); station ids must resolve in the catalog.
func AssignStations(observations []Observation, matches []Match, stations []Station) ([]JoinedRow, error) {
	if len(matches) != len(observations) {
		return nil, fmt.Errorf("assign stations: %d matches for %d observations", len(matches), len(observations))
	}
	byID := make(map[int]Station, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}

	rows := make([]JoinedRow, len(observations))
	for i, obs := range observations {
		nearest := matches[i].Nearest()
		st, ok := byID[nearest.StationID]
		if !ok {
			return nil, fmt.Errorf("assign stations: matched station %d not in catalog", nearest.StationID)
		}
		rows[i] = JoinedRow{Obs: obs, Station: st, Distance: nearest.Distance}
	}
	return rows, nil
}

// JoinDaily inner-joins rows with the daily table on (station id, calendar
// date). Rows with no counterpart are dropped and counted; the input slice
// is not mutated.
func JoinDaily(rows []JoinedRow, daily []DailyReading) ([]JoinedRow, int) {
	idx := make(map[dailyKey]DailyReading, len(daily))
	for _, d := range daily {
		idx[dailyKey{stationID: d.StationID, date: CivilDate(d.Date)}] = d
	}

	out := make([]JoinedRow, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		d, ok := idx[dailyKey{stationID: row.Station.ID, date: CivilDate(row.Obs.Date)}]
		if !ok {
			dropped++
			continue
		}
		row.Daily = d.Level
		out = append(out, row)
	}
	return out, dropped
}

// JoinMonthly inner-joins rows with the monthly table on (station id, month,
// year), attaching the high/mean/low statistics.
func JoinMonthly(rows []JoinedRow, monthly []MonthlyReading) ([]JoinedRow, int) {
	idx := make(map[monthlyKey]MonthlyReading, len(monthly))
	for _, m := range monthly {
		idx[monthlyKey{stationID: m.StationID, year: m.Year, month: m.Month}] = m
	}

	out := make([]JoinedRow, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		date := row.Obs.Date.UTC()
		m, ok := idx[monthlyKey{stationID: row.Station.ID, year: date.Year(), month: date.Month()}]
		if !ok {
			dropped++
			continue
		}
		row.MonthlyHigh = m.High
		row.MonthlyMean = m.Mean
		row.MonthlyLow = m.Low
		out = append(out, row)
	}
	return out, dropped
}
