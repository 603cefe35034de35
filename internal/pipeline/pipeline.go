// Package pipeline orchestrates the depth-fusion batch: fetch water levels,
// aggregate, match observations to stations, join, and compute depths. Each
// stage consumes the complete output of its predecessor and returns a new
// value; no stage mutates its input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/observability"
)

// ReadingSource retrieves normalized water-level series per (station, year)
// unit. The CO-OPS adapter implements it; tests substitute fakes.
type ReadingSource interface {
	DailyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error)
	MonthlyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error)
}

// Options configures one fusion run.
type Options struct {
	Stations     []string // CO-OPS station identifiers to query
	StationNames domain.StationIDMap
	NearestK     int
	FetchWorkers int

	// Optional fetch range override; zero values derive the range from the
	// observation dates.
	StartDate time.Time
	EndDate   time.Time
}

// Pipeline fuses observations with fetched water levels into depth records.
type Pipeline struct {
	source  ReadingSource
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given reading source and observability.
func New(source ReadingSource, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.NearestK < 1 {
		opts.NearestK = 1
	}
	if opts.FetchWorkers < 1 {
		opts.FetchWorkers = 1
	}
	return &Pipeline{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the fetch stage has completed at least
// once, or an error describing why the run is not yet past fetching.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed the fetch stage yet")
	}
	return nil
}

// Run executes one fusion batch over the given observations. Non-fatal data
// problems accumulate into the Summary; the returned error is reserved for
// conditions that invalidate the whole run (empty catalog, cancelled
// context, malformed inputs).
func (p *Pipeline) Run(ctx context.Context, observations []domain.Observation) ([]domain.FusedRow, domain.Summary, error) {
	var summary domain.Summary

	if len(observations) == 0 {
		return nil, summary, errors.New("no observations to fuse")
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start, end := p.fetchRange(observations)
	units := buildFetchUnits(p.opts.Stations, start, end)
	p.logger.Info("fetch plan built",
		"stations", len(p.opts.Stations),
		"from", start.Format(time.DateOnly),
		"to", end.Format(time.DateOnly),
		"units", len(units),
		"workers", p.opts.FetchWorkers,
	)

	raw, failures := p.fetchAll(ctx, units)
	if err := ctx.Err(); err != nil {
		return nil, summary, fmt.Errorf("fetch stage: %w", err)
	}
	summary.FetchFailures = failures
	p.metrics.ReadingsFetched.Add(float64(len(raw)))
	p.ready.Store(true)

	agg := domain.Aggregate(raw, p.opts.StationNames)
	summary.UnmappedReadings = agg.Unmapped
	p.metrics.UnmappedReadings.Add(float64(agg.Unmapped))
	if agg.Unmapped > 0 {
		p.logger.Warn("readings excluded for unmapped station names", "count", agg.Unmapped)
	}
	if len(agg.Stations) == 0 {
		return nil, summary, errors.New("no stations survived aggregation")
	}

	matches, err := domain.NearestStations(agg.Stations, observations, p.opts.NearestK)
	if err != nil {
		return nil, summary, fmt.Errorf("spatial match: %w", err)
	}

	rows, err := domain.AssignStations(observations, matches, agg.Stations)
	if err != nil {
		return nil, summary, fmt.Errorf("assign stations: %w", err)
	}

	rows, droppedDaily := domain.JoinDaily(rows, agg.Daily)
	summary.DroppedDaily = droppedDaily
	p.metrics.RowsDropped.WithLabelValues(string(domain.GranularityDaily)).Add(float64(droppedDaily))

	rows, droppedMonthly := domain.JoinMonthly(rows, agg.Monthly)
	summary.DroppedMonthly = droppedMonthly
	p.metrics.RowsDropped.WithLabelValues(string(domain.GranularityMonthly)).Add(float64(droppedMonthly))

	fused := domain.Fuse(rows)
	for _, row := range fused {
		if row.Depths.AnyMissing() {
			summary.MissingDepths++
		}
	}
	summary.RowsOut = len(fused)
	p.metrics.RowsFused.Add(float64(len(fused)))
	p.metrics.DepthsMissing.Add(float64(summary.MissingDepths))

	p.logger.Info("fusion complete", "summary", summary.String())
	return fused, summary, nil
}

// fetchRange returns the inclusive date range to fetch: the configured
// override when set, otherwise the span of the observation dates.
func (p *Pipeline) fetchRange(observations []domain.Observation) (time.Time, time.Time) {
	start, end := p.opts.StartDate, p.opts.EndDate
	if !start.IsZero() && !end.IsZero() {
		return start, end
	}

	minDate := domain.CivilDate(observations[0].Date)
	maxDate := minDate
	for _, obs := range observations[1:] {
		d := domain.CivilDate(obs.Date)
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	if start.IsZero() {
		start = minDate
	}
	if end.IsZero() {
		end = maxDate
	}
	return start, end
}
