package domain

import "fmt"

// FetchFailure records one external fetch unit that was skipped. The unit is
// a (station, year, granularity) combination; its absence reduces coverage
// but never aborts the run.
type FetchFailure struct {
	Station     string      `json:"station"`
	Year        int         `json:"year"`
	Granularity Granularity `json:"granularity"`
	Err         string      `json:"error"`
}

// Summary accumulates the non-fatal error counts of one pipeline run so a
// caller can assess data completeness alongside the output table.
type Summary struct {
	UnmappedReadings int            `json:"unmapped_readings"`
	FetchFailures    []FetchFailure `json:"fetch_failures,omitempty"`
	DroppedDaily     int            `json:"dropped_daily"`
	DroppedMonthly   int            `json:"dropped_monthly"`
	MissingDepths    int            `json:"missing_depths"`
	RowsOut          int            `json:"rows_out"`
}

// String renders the counts for log lines and run reports.
func (s Summary) String() string {
	return fmt.Sprintf("rows_out=%d dropped_daily=%d dropped_monthly=%d unmapped_readings=%d fetch_failures=%d missing_depths=%d",
		s.RowsOut, s.DroppedDaily, s.DroppedMonthly, s.UnmappedReadings, len(s.FetchFailures), s.MissingDepths)
}
