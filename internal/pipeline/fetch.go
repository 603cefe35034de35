package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
)

// fetchUnit is one independent external call: a station, a calendar year,
// and a temporal granularity. Units have no ordering dependency on each
// other and may run concurrently.
type fetchUnit struct {
	station     string
	year        int
	granularity domain.Granularity
}

// buildFetchUnits expands (station × year × granularity) work units covering
// the inclusive date range, in a deterministic order.
func buildFetchUnits(stations []string, start, end time.Time) []fetchUnit {
	var units []fetchUnit
	for _, station := range stations {
		for year := start.Year(); year <= end.Year(); year++ {
			units = append(units,
				fetchUnit{station: station, year: year, granularity: domain.GranularityDaily},
				fetchUnit{station: station, year: year, granularity: domain.GranularityMonthly},
			)
		}
	}
	sort.Slice(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.station != b.station {
			return a.station < b.station
		}
		if a.year != b.year {
			return a.year < b.year
		}
		return a.granularity < b.granularity
	})
	return units
}

// fetchAll runs the units on a bounded worker pool. Results land in their
// unit's slot, so the merged output is ordered by (station, year,
// granularity) regardless of completion order. A failed unit is recorded in
// the failure manifest and never aborts its siblings.
func (p *Pipeline) fetchAll(ctx context.Context, units []fetchUnit) ([]domain.RawReading, []domain.FetchFailure) {
	results := make([][]domain.RawReading, len(units))
	errs := make([]error, len(units))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.opts.FetchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = p.fetchUnit(ctx, units[i])
			}
		}()
	}

dispatch:
	for i := range units {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var merged []domain.RawReading
	var failures []domain.FetchFailure
	for i, unit := range units {
		if errs[i] != nil {
			p.logger.Warn("fetch unit failed, continuing with partial data",
				"station", unit.station,
				"year", unit.year,
				"granularity", unit.granularity,
				"error", errs[i],
			)
			failures = append(failures, domain.FetchFailure{
				Station:     unit.station,
				Year:        unit.year,
				Granularity: unit.granularity,
				Err:         errs[i].Error(),
			})
			continue
		}
		merged = append(merged, results[i]...)
	}
	return merged, failures
}

func (p *Pipeline) fetchUnit(ctx context.Context, unit fetchUnit) ([]domain.RawReading, error) {
	switch unit.granularity {
	case domain.GranularityMonthly:
		return p.source.MonthlyMeans(ctx, unit.station, unit.year)
	default:
		return p.source.DailyMeans(ctx, unit.station, unit.year)
	}
}
