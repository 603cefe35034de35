package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func testIDMap() StationIDMap {
	return StationIDMap{
		"Toledo":            1,
		"Marblehead":        2,
		"Cleveland":         3,
		"Fermi Power Plant": 4,
	}
}

func dailyRaw(name string, coord Coordinate, date time.Time, mean *float64) RawReading {
	return RawReading{StationName: name, Coord: coord, Granularity: GranularityDaily, Date: date, Mean: mean}
}

func monthlyRaw(name string, year int, month time.Month, high, mean, low *float64) RawReading {
	return RawReading{
		StationName: name, Coord: Coordinate{Lon: -83.47, Lat: 41.69},
		Granularity: GranularityMonthly, Year: year, Month: month,
		High: high, Mean: mean, Low: low,
	}
}

func TestAggregate_CatalogCoordinateIsMeanOfEchoes(t *testing.T) {
	date := time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	raw := []RawReading{
		dailyRaw("Toledo", Coordinate{Lon: -83.46, Lat: 41.68}, date, fp(174.1)),
		dailyRaw("Toledo", Coordinate{Lon: -83.48, Lat: 41.70}, date.AddDate(0, 0, 1), fp(174.2)),
	}

	agg := Aggregate(raw, testIDMap())

	require.Len(t, agg.Stations, 1)
	st := agg.Stations[0]
	assert.Equal(t, 1, st.ID)
	assert.Equal(t, "Toledo", st.Name)
	assert.InDelta(t, -83.47, st.Coord.Lon, 1e-9)
	assert.InDelta(t, 41.69, st.Coord.Lat, 1e-9)
}

func TestAggregate_UnmappedStationsExcludedAndCounted(t *testing.T) {
	date := time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	raw := []RawReading{
		dailyRaw("Toledo", Coordinate{Lon: -83.47, Lat: 41.69}, date, fp(174.1)),
		dailyRaw("Buffalo", Coordinate{Lon: -78.89, Lat: 42.88}, date, fp(174.9)),
		dailyRaw("Buffalo", Coordinate{Lon: -78.89, Lat: 42.88}, date.AddDate(0, 0, 1), fp(174.8)),
	}

	agg := Aggregate(raw, testIDMap())

	assert.Equal(t, 2, agg.Unmapped)
	require.Len(t, agg.Stations, 1)
	assert.Equal(t, "Toledo", agg.Stations[0].Name)
	assert.Len(t, agg.Daily, 1)
}

func TestAggregate_DailyDuplicatesReduceByMean(t *testing.T) {
	date := time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	raw := []RawReading{
		dailyRaw("Toledo", Coordinate{}, date, fp(174.0)),
		dailyRaw("Toledo", Coordinate{}, date, fp(174.4)),
	}

	agg := Aggregate(raw, testIDMap())

	require.Len(t, agg.Daily, 1)
	require.NotNil(t, agg.Daily[0].Level)
	assert.InDelta(t, 174.2, *agg.Daily[0].Level, 1e-9)
}

func TestAggregate_DailyDateNormalizedToCalendarDate(t *testing.T) {
	withTime := time.Date(2019, 7, 1, 13, 45, 0, 0, time.UTC)
	raw := []RawReading{dailyRaw("Toledo", Coordinate{}, withTime, fp(174.1))}

	agg := Aggregate(raw, testIDMap())

	require.Len(t, agg.Daily, 1)
	assert.Equal(t, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), agg.Daily[0].Date)
}

func TestAggregate_MonthlyReducesHighMeanLow(t *testing.T) {
	raw := []RawReading{
		monthlyRaw("Toledo", 2019, time.July, fp(174.9), fp(174.4), fp(174.0)),
		monthlyRaw("Toledo", 2019, time.July, fp(175.1), fp(174.6), fp(173.8)),
	}

	agg := Aggregate(raw, testIDMap())

	require.Len(t, agg.Monthly, 1)
	m := agg.Monthly[0]
	require.NotNil(t, m.High)
	require.NotNil(t, m.Mean)
	require.NotNil(t, m.Low)
	assert.InDelta(t, 175.1, *m.High, 1e-9)
	assert.InDelta(t, 174.5, *m.Mean, 1e-9)
	assert.InDelta(t, 173.8, *m.Low, 1e-9)
}

func TestAggregate_Idempotent(t *testing.T) {
	raw := []RawReading{
		dailyRaw("Toledo", Coordinate{Lon: -83.47, Lat: 41.69}, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), fp(174.1)),
		dailyRaw("Toledo", Coordinate{Lon: -83.47, Lat: 41.69}, time.Date(2019, 7, 2, 0, 0, 0, 0, time.UTC), fp(174.3)),
		monthlyRaw("Marblehead", 2019, time.July, fp(174.8), fp(174.5), fp(174.2)),
	}

	first := Aggregate(raw, testIDMap())

	// Re-encode the aggregated tables as raw readings and aggregate again.
	reraw := make([]RawReading, 0, len(first.Daily)+len(first.Monthly))
	byID := make(map[int]Station)
	for _, st := range first.Stations {
		byID[st.ID] = st
	}
	for _, d := range first.Daily {
		st := byID[d.StationID]
		reraw = append(reraw, dailyRaw(st.Name, st.Coord, d.Date, d.Level))
	}
	for _, m := range first.Monthly {
		st := byID[m.StationID]
		reraw = append(reraw, RawReading{
			StationName: st.Name, Coord: st.Coord, Granularity: GranularityMonthly,
			Year: m.Year, Month: m.Month, High: m.High, Mean: m.Mean, Low: m.Low,
		})
	}

	second := Aggregate(reraw, testIDMap())

	if diff := cmp.Diff(first.Daily, second.Daily); diff != "" {
		t.Errorf("daily table changed on re-aggregation (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Monthly, second.Monthly); diff != "" {
		t.Errorf("monthly table changed on re-aggregation (-first +second):\n%s", diff)
	}
}

func TestAggregate_MissingValuesStayMissing(t *testing.T) {
	date := time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	raw := []RawReading{dailyRaw("Toledo", Coordinate{}, date, nil)}

	agg := Aggregate(raw, testIDMap())

	require.Len(t, agg.Daily, 1)
	assert.Nil(t, agg.Daily[0].Level)
}

func TestStationIDMap_RoundTrip(t *testing.T) {
	m := testIDMap()
	require.NoError(t, m.Validate())

	for _, name := range m.Names() {
		first, ok := m.IDFor(name)
		require.True(t, ok)
		second, ok := m.IDFor(name)
		require.True(t, ok)
		assert.Equal(t, first, second, "id for %q must be stable within a run", name)
	}
}

func TestStationIDMap_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       StationIDMap
		wantErr bool
	}{
		{"valid", StationIDMap{"Toledo": 1, "Cleveland": 2}, false},
		{"empty", StationIDMap{}, true},
		{"duplicate id", StationIDMap{"Toledo": 1, "Cleveland": 1}, true},
		{"zero id", StationIDMap{"Toledo": 0}, true},
		{"empty name", StationIDMap{"": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
