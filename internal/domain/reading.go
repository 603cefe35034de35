package domain

import "time"

// Granularity is the temporal resolution of a water-level reading.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// Statistic labels for derived water-level and depth columns.
const (
	StatDaily       = "daily"
	StatMonthlyHigh = "monthly-high"
	StatMonthlyMean = "monthly-mean"
	StatMonthlyLow  = "monthly-low"
)

// RawReading is the uniform record a fetcher produces from one service
// response row, before aggregation. Daily rows carry Date and Mean; monthly
// rows carry Year, Month, and High/Mean/Low. Values are nil when the service
// reported nothing (or the sentinel) for that field.
type RawReading struct {
	StationName string
	Coord       Coordinate
	Granularity Granularity

	Date  time.Time  // daily only; pure UTC calendar date
	Year  int        // monthly only
	Month time.Month // monthly only

	Mean *float64
	High *float64 // monthly only
	Low  *float64 // monthly only
}

// DailyReading is one station's mean water level for one calendar date.
type DailyReading struct {
	StationID int
	Date      time.Time
	Level     *float64
}

// MonthlyReading is one station's high/mean/low water level for one month.
type MonthlyReading struct {
	StationID int
	Year      int
	Month     time.Month
	High      *float64
	Mean      *float64
	Low       *float64
}

// CivilDate strips the time-of-day and zone from t, returning the pure UTC
// calendar date. Join keys must be normalized through this before comparison.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
