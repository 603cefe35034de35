// Package csvio loads the tabular inputs and writes the fused output table.
// All column access is by header name; positional indices are never used, so
// upstream shape changes fail loudly instead of silently corrupting fields.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
)

// Required observation-table columns. Any other column rides along untouched
// in Observation.Attrs.
var requiredObsColumns = []string{"id", "longitude", "latitude", "date", "elevation"}

// ReadObservations loads the observation table. Elevation sentinels (−9999)
// become missing at this boundary; dates accept YYYY-MM-DD or RFC 3339.
func ReadObservations(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()
	return readObservations(f)
}

func readObservations(r io.Reader) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read observation header: %w", err)
	}
	cols, err := indexColumns(header, requiredObsColumns)
	if err != nil {
		return nil, fmt.Errorf("observation table: %w", err)
	}

	passthrough := passthroughColumns(header, requiredObsColumns)

	var observations []domain.Observation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read observation row: %w", err)
		}
		line++

		lon, err := strconv.ParseFloat(record[cols["longitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse longitude %q: %w", line, record[cols["longitude"]], err)
		}
		lat, err := strconv.ParseFloat(record[cols["latitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse latitude %q: %w", line, record[cols["latitude"]], err)
		}
		date, err := parseDate(record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		obs := domain.Observation{
			ID:        record[cols["id"]],
			Coord:     domain.Coordinate{Lon: lon, Lat: lat},
			Date:      date,
			Elevation: parseOptional(record[cols["elevation"]]),
		}
		if len(passthrough) > 0 {
			obs.Attrs = make(map[string]string, len(passthrough))
			for name, idx := range passthrough {
				obs.Attrs[name] = record[idx]
			}
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// ReadDEM loads the secondary elevation table: one row per observation id,
// with one or more survey columns. For each id the first non-missing value
// in the declared column priority order wins.
func ReadDEM(path string, columns []string) (map[string]*float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open DEM table: %w", err)
	}
	defer f.Close()
	return readDEM(f, columns)
}

func readDEM(r io.Reader, columns []string) (map[string]*float64, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read DEM header: %w", err)
	}
	required := append([]string{"id"}, columns...)
	cols, err := indexColumns(header, required)
	if err != nil {
		return nil, fmt.Errorf("DEM table: %w", err)
	}

	dem := make(map[string]*float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read DEM row: %w", err)
		}

		var value *float64
		for _, col := range columns {
			if v := parseOptional(record[cols[col]]); v != nil {
				value = v
				break
			}
		}
		dem[record[cols["id"]]] = value
	}
	return dem, nil
}

// ApplyDEM returns a copy of the observations with secondary elevations
// attached by id. The input slice is not mutated.
func ApplyDEM(observations []domain.Observation, dem map[string]*float64) []domain.Observation {
	out := make([]domain.Observation, len(observations))
	copy(out, observations)
	for i := range out {
		if v, ok := dem[out[i].ID]; ok {
			out[i].DEMElevation = v
		}
	}
	return out
}

// WriteFused writes the output table: observation attributes, assigned
// station, water levels per statistic, and raw + clamped depths. Missing
// values render as empty cells.
func WriteFused(path string, rows []domain.FusedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return writeFused(f, rows)
}

func writeFused(w io.Writer, rows []domain.FusedRow) error {
	attrCols := collectAttrColumns(rows)

	header := []string{"id", "date", "longitude", "latitude", "elevation"}
	header = append(header, attrCols...)
	header = append(header,
		"station_id", "station_name", "station_longitude", "station_latitude", "station_distance",
		"level_daily", "level_monthly_high", "level_monthly_mean", "level_monthly_low",
		"depth_daily", "depth_daily_clamped",
		"depth_monthly_high", "depth_monthly_high_clamped",
		"depth_monthly_mean", "depth_monthly_mean_clamped",
		"depth_monthly_low", "depth_monthly_low_clamped",
		"processed_at",
	)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write output header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Obs.ID,
			row.Obs.Date.UTC().Format(time.DateOnly),
			formatFloat(row.Obs.Coord.Lon),
			formatFloat(row.Obs.Coord.Lat),
			formatOptional(row.Obs.ElevationValue()),
		}
		for _, col := range attrCols {
			record = append(record, row.Obs.Attrs[col])
		}
		record = append(record,
			strconv.Itoa(row.Station.ID),
			row.Station.Name,
			formatFloat(row.Station.Coord.Lon),
			formatFloat(row.Station.Coord.Lat),
			formatFloat(row.Distance),
			formatOptional(row.Daily),
			formatOptional(row.MonthlyHigh),
			formatOptional(row.MonthlyMean),
			formatOptional(row.MonthlyLow),
			formatOptional(row.Depths.Daily.Raw),
			formatOptional(row.Depths.Daily.Clamped),
			formatOptional(row.Depths.MonthlyHigh.Raw),
			formatOptional(row.Depths.MonthlyHigh.Clamped),
			formatOptional(row.Depths.MonthlyMean.Raw),
			formatOptional(row.Depths.MonthlyMean.Clamped),
			formatOptional(row.Depths.MonthlyLow.Raw),
			formatOptional(row.Depths.MonthlyLow.Clamped),
			row.ProcessedAt.UTC().Format(time.RFC3339),
		)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write output row %s: %w", row.Obs.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// indexColumns maps required column names to their positions, trimming and
// lower-casing header cells. Missing columns are an error naming each one.
func indexColumns(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[normalizeColumn(name)] = i
	}

	var missing []string
	cols := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := idx[normalizeColumn(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func passthroughColumns(header []string, required []string) map[string]int {
	skip := make(map[string]bool, len(required))
	for _, name := range required {
		skip[normalizeColumn(name)] = true
	}

	out := make(map[string]int)
	for i, name := range header {
		norm := normalizeColumn(name)
		if skip[norm] || norm == "" {
			continue
		}
		out[norm] = i
	}
	return out
}

func collectAttrColumns(rows []domain.FusedRow) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for name := range row.Obs.Attrs {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// parseOptional converts a cell into an optional value: empty, unparsable,
// and sentinel cells are all missing.
func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return domain.DecodeValue(v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
