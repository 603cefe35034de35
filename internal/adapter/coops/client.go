// Package coops fetches water-level series from the NOAA CO-OPS data API and
// normalizes them into uniform reading records. The acquisition protocol is
// a collaborator concern; everything downstream sees only domain.RawReading.
package coops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/observability"
)

const (
	ProductDailyMean   = "daily_mean"
	ProductMonthlyMean = "monthly_mean"

	application = "morsusranae.depthfuse"
)

// Client implements water-level retrieval against the CO-OPS data API.
type Client struct {
	baseURL    string
	datum      string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a CO-OPS client. Datum should be IGLD for Great Lakes
// stations; units are always metric.
func NewClient(baseURL, datum string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		datum:      datum,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// DailyMeans fetches one station's daily mean water levels for one calendar year.
func (c *Client) DailyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error) {
	resp, err := c.fetch(ctx, ProductDailyMean, station, year)
	if err != nil {
		return nil, err
	}
	return resp.dailyReadings()
}

// MonthlyMeans fetches one station's monthly high/mean/low water levels for one calendar year.
func (c *Client) MonthlyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error) {
	resp, err := c.fetch(ctx, ProductMonthlyMean, station, year)
	if err != nil {
		return nil, err
	}
	return resp.monthlyReadings()
}

func (c *Client) fetch(ctx context.Context, product, station string, year int) (*response, error) {
	params := url.Values{
		"product":     {product},
		"application": {application},
		"station":     {station},
		"begin_date":  {fmt.Sprintf("%04d0101", year)},
		"end_date":    {fmt.Sprintf("%04d1231", year)},
		"datum":       {c.datum},
		"units":       {"metric"},
		"time_zone":   {"lst"},
		"format":      {"json"},
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(product, "error").Inc()
		return nil, fmt.Errorf("%s request for station %s year %d: %w", product, station, year, err)
	}
	defer httpResp.Body.Close()

	c.metrics.FetchDuration.WithLabelValues(product).Observe(time.Since(start).Seconds())

	if httpResp.StatusCode != http.StatusOK {
		c.metrics.FetchRequests.WithLabelValues(product, "error").Inc()
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("co-ops API error: status %d: %s", httpResp.StatusCode, body)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		c.metrics.FetchRequests.WithLabelValues(product, "error").Inc()
		return nil, fmt.Errorf("decode %s response: %w", product, err)
	}
	if resp.Error.Message != "" {
		c.metrics.FetchRequests.WithLabelValues(product, "error").Inc()
		return nil, fmt.Errorf("co-ops API error for station %s year %d: %s", station, year, resp.Error.Message)
	}

	c.metrics.FetchRequests.WithLabelValues(product, "success").Inc()
	return &resp, nil
}

// CO-OPS data API response types. The metadata block echoes the station's
// name and coordinates on every call; numeric values arrive as strings, with
// an empty string for missing.

type response struct {
	Metadata metadata
	Daily    []dailyRow
	Monthly  []monthlyRow
	Error    apiError
}

// UnmarshalJSON dispatches the shared "data" array into the daily or monthly
// row shape depending on which fields are present.
func (r *response) UnmarshalJSON(b []byte) error {
	var probe struct {
		Metadata metadata          `json:"metadata"`
		Data     []json.RawMessage `json:"data"`
		Error    apiError          `json:"error"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	r.Metadata = probe.Metadata
	r.Error = probe.Error

	for _, raw := range probe.Data {
		var kind struct {
			T string `json:"t"`
		}
		if err := json.Unmarshal(raw, &kind); err != nil {
			return err
		}
		if kind.T != "" {
			var row dailyRow
			if err := json.Unmarshal(raw, &row); err != nil {
				return err
			}
			r.Daily = append(r.Daily, row)
			continue
		}
		var row monthlyRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		r.Monthly = append(r.Monthly, row)
	}
	return nil
}

type metadata struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

type dailyRow struct {
	Date  string `json:"t"` // YYYY-MM-DD
	Value string `json:"v"`
}

type monthlyRow struct {
	Year    string `json:"year"`
	Month   string `json:"month"`
	Highest string `json:"highest"`
	MSL     string `json:"MSL"`
	Lowest  string `json:"lowest"`
}

type apiError struct {
	Message string `json:"message"`
}

func (r *response) coord() (domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Metadata.Lat), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse station latitude %q: %w", r.Metadata.Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Metadata.Lon), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse station longitude %q: %w", r.Metadata.Lon, err)
	}
	return domain.Coordinate{Lon: lon, Lat: lat}, nil
}

func (r *response) dailyReadings() ([]domain.RawReading, error) {
	coord, err := r.coord()
	if err != nil {
		return nil, err
	}

	readings := make([]domain.RawReading, 0, len(r.Daily))
	for _, row := range r.Daily {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse daily date %q: %w", row.Date, err)
		}
		readings = append(readings, domain.RawReading{
			StationName: r.Metadata.Name,
			Coord:       coord,
			Granularity: domain.GranularityDaily,
			Date:        date,
			Mean:        parseLevel(row.Value),
		})
	}
	return readings, nil
}

func (r *response) monthlyReadings() ([]domain.RawReading, error) {
	coord, err := r.coord()
	if err != nil {
		return nil, err
	}

	readings := make([]domain.RawReading, 0, len(r.Monthly))
	for _, row := range r.Monthly {
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if err != nil {
			return nil, fmt.Errorf("parse monthly year %q: %w", row.Year, err)
		}
		month, err := strconv.Atoi(strings.TrimSpace(row.Month))
		if err != nil || month < 1 || month > 12 {
			return nil, fmt.Errorf("parse monthly month %q", row.Month)
		}
		readings = append(readings, domain.RawReading{
			StationName: r.Metadata.Name,
			Coord:       coord,
			Granularity: domain.GranularityMonthly,
			Year:        year,
			Month:       time.Month(month),
			High:        parseLevel(row.Highest),
			Mean:        parseLevel(row.MSL),
			Low:         parseLevel(row.Lowest),
		})
	}
	return readings, nil
}

// parseLevel converts a service value string into an optional level. Empty,
// unparsable, and sentinel values are all missing.
func parseLevel(s string) *float64 {
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
