package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnitMismatch is a configuration error: the declared water-level and
// elevation units differ. It is fatal to the run and must surface before any
// depth is computed.
var ErrUnitMismatch = errors.New("unit mismatch")

// CheckUnits verifies that water levels and elevations are declared in the
// same linear unit. The calculator performs no conversion.
func CheckUnits(waterLevelUnit, elevationUnit string) error {
	w := strings.ToLower(strings.TrimSpace(waterLevelUnit))
	e := strings.ToLower(strings.TrimSpace(elevationUnit))
	if w == "" || e == "" {
		return fmt.Errorf("units must be declared for water levels (%q) and elevation (%q): %w", waterLevelUnit, elevationUnit, ErrUnitMismatch)
	}
	if w != e {
		return fmt.Errorf("water level unit %q vs elevation unit %q: %w", waterLevelUnit, elevationUnit, ErrUnitMismatch)
	}
	return nil
}

// Depth carries both the raw signed depth and the clamped-to-zero variant.
// Negative raw depth means the water surface sits below the sampled ground;
// clamping is a policy for specific downstream comparisons (ground-truth
// validation), so neither variant ever overwrites the other.
type Depth struct {
	Raw     *float64 `json:"raw,omitempty"`
	Clamped *float64 `json:"clamped,omitempty"`
}

// Missing reports whether no depth could be computed for this statistic.
func (d Depth) Missing() bool {
	return d.Raw == nil
}

// ComputeDepth returns water level minus elevation. A nil operand (missing
// or sentinel at ingestion) yields a missing Depth in both variants, never a
// numeric garbage value.
func ComputeDepth(level, elevation *float64) Depth {
	if level == nil || elevation == nil {
		return Depth{}
	}
	raw := *level - *elevation
	clamped := raw
	if clamped < 0 {
		clamped = 0
	}
	return Depth{Raw: &raw, Clamped: &clamped}
}

// DepthSet holds the computed depth for every granularity/statistic.
type DepthSet struct {
	Daily       Depth `json:"daily"`
	MonthlyHigh Depth `json:"monthly_high"`
	MonthlyMean Depth `json:"monthly_mean"`
	MonthlyLow  Depth `json:"monthly_low"`
}

// AnyMissing reports whether any statistic's depth is missing.
func (s DepthSet) AnyMissing() bool {
	return s.Daily.Missing() || s.MonthlyHigh.Missing() || s.MonthlyMean.Missing() || s.MonthlyLow.Missing()
}

// ComputeDepths evaluates every statistic of a joined row against the row's
// effective elevation (survey elevation first, DEM fallback second).
func ComputeDepths(row JoinedRow) DepthSet {
	elev := row.Obs.ElevationValue()
	return DepthSet{
		Daily:       ComputeDepth(row.Daily, elev),
		MonthlyHigh: ComputeDepth(row.MonthlyHigh, elev),
		MonthlyMean: ComputeDepth(row.MonthlyMean, elev),
		MonthlyLow:  ComputeDepth(row.MonthlyLow, elev),
	}
}

// FusedRow is the final output record: one surviving observation with its
// station, water levels, and depths, stamped with the processing time.
type FusedRow struct {
	JoinedRow
	Depths      DepthSet  `json:"depths"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Fuse computes depths for every joined row and stamps the processing time
// from the package clock.
func Fuse(rows []JoinedRow) []FusedRow {
	now := clock.Now()
	fused := make([]FusedRow, len(rows))
	for i, row := range rows {
		fused[i] = FusedRow{JoinedRow: row, Depths: ComputeDepths(row), ProcessedAt: now}
	}
	return fused
}
