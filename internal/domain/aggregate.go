package domain

import (
	"sort"
	"time"
)

// Aggregation is the output of collapsing raw service readings into the
// station catalog plus per-granularity summary tables.
type Aggregation struct {
	Stations []Station
	Daily    []DailyReading
	Monthly  []MonthlyReading

	// Unmapped counts raw rows excluded because their station name has no
	// entry in the canonical id map.
	Unmapped int
}

// Aggregate collapses raw readings into one catalog Station per mapped name
// (coordinate = mean of the jittered per-call echoes), a daily table, and a
// monthly table. Duplicate station/day rows reduce by mean; duplicate
// station/month rows reduce by max(high), mean(mean), min(low), so running
// Aggregate over an already-aggregated set returns the same values.
//
// Rows naming an unmapped station are excluded and counted in Unmapped; the
// caller decides whether that count is acceptable.
func Aggregate(raw []RawReading, ids StationIDMap) Aggregation {
	var agg Aggregation

	coordSums := make(map[int]*coordAccum)
	daily := make(map[dailyKey][]*float64)
	monthly := make(map[monthlyKey]*monthlyAccum)
	names := make(map[int]string)

	for _, r := range raw {
		id, ok := ids.IDFor(r.StationName)
		if !ok {
			agg.Unmapped++
			continue
		}
		names[id] = r.StationName

		acc, ok := coordSums[id]
		if !ok {
			acc = &coordAccum{}
			coordSums[id] = acc
		}
		acc.lon += r.Coord.Lon
		acc.lat += r.Coord.Lat
		acc.n++

		switch r.Granularity {
		case GranularityDaily:
			k := dailyKey{stationID: id, date: CivilDate(r.Date)}
			daily[k] = append(daily[k], r.Mean)
		case GranularityMonthly:
			k := monthlyKey{stationID: id, year: r.Year, month: r.Month}
			m, ok := monthly[k]
			if !ok {
				m = &monthlyAccum{}
				monthly[k] = m
			}
			m.add(r)
		}
	}

	for id, acc := range coordSums {
		agg.Stations = append(agg.Stations, Station{
			ID:    id,
			Name:  names[id],
			Coord: Coordinate{Lon: acc.lon / float64(acc.n), Lat: acc.lat / float64(acc.n)},
		})
	}
	sort.Slice(agg.Stations, func(i, j int) bool { return agg.Stations[i].ID < agg.Stations[j].ID })

	for k, levels := range daily {
		agg.Daily = append(agg.Daily, DailyReading{StationID: k.stationID, Date: k.date, Level: meanOf(levels)})
	}
	sort.Slice(agg.Daily, func(i, j int) bool {
		if agg.Daily[i].StationID != agg.Daily[j].StationID {
			return agg.Daily[i].StationID < agg.Daily[j].StationID
		}
		return agg.Daily[i].Date.Before(agg.Daily[j].Date)
	})

	for k, m := range monthly {
		agg.Monthly = append(agg.Monthly, MonthlyReading{
			StationID: k.stationID,
			Year:      k.year,
			Month:     k.month,
			High:      m.high,
			Mean:      meanOf(m.means),
			Low:       m.low,
		})
	}
	sort.Slice(agg.Monthly, func(i, j int) bool {
		a, b := agg.Monthly[i], agg.Monthly[j]
		if a.StationID != b.StationID {
			return a.StationID < b.StationID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return agg
}

type dailyKey struct {
	stationID int
	date      time.Time
}

type monthlyKey struct {
	stationID int
	year      int
	month     time.Month
}

type coordAccum struct {
	lon, lat float64
	n        int
}

type monthlyAccum struct {
	high  *float64
	low   *float64
	means []*float64
}

func (m *monthlyAccum) add(r RawReading) {
	if r.High != nil && (m.high == nil || *r.High > *m.high) {
		v := *r.High
		m.high = &v
	}
	if r.Low != nil && (m.low == nil || *r.Low < *m.low) {
		v := *r.Low
		m.low = &v
	}
	m.means = append(m.means, r.Mean)
}

// meanOf averages the non-nil values, or returns nil when there are none.
func meanOf(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
