package coops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"

	toledoMetadata = `"metadata":{"id":"9063085","name":"Toledo","lat":"41.6936","lon":"-83.4726"}`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "IGLD", 5*time.Second, observability.NewMetricsForTesting(), discardLogger())
}

func TestClient_DailyMeans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "daily_mean", q.Get("product"))
		assert.Equal(t, "9063085", q.Get("station"))
		assert.Equal(t, "20190101", q.Get("begin_date"))
		assert.Equal(t, "20191231", q.Get("end_date"))
		assert.Equal(t, "IGLD", q.Get("datum"))
		assert.Equal(t, "metric", q.Get("units"))

		w.Header().Set(headerContentType, contentTypeJSON)
		fmt.Fprintf(w, `{%s,"data":[
			{"t":"2019-07-01","v":"174.342","f":"0,0,0"},
			{"t":"2019-07-02","v":"174.401","f":"0,0,0"},
			{"t":"2019-07-03","v":"","f":"0,0,0"}
		]}`, toledoMetadata)
	}))
	defer srv.Close()

	readings, err := testClient(srv.URL).DailyMeans(context.Background(), "9063085", 2019)
	require.NoError(t, err)
	require.Len(t, readings, 3)

	first := readings[0]
	assert.Equal(t, "Toledo", first.StationName)
	assert.InDelta(t, -83.4726, first.Coord.Lon, 1e-9)
	assert.InDelta(t, 41.6936, first.Coord.Lat, 1e-9)
	assert.Equal(t, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), first.Date)
	require.NotNil(t, first.Mean)
	assert.InDelta(t, 174.342, *first.Mean, 1e-9)

	// Empty value strings are missing, not zero.
	assert.Nil(t, readings[2].Mean)
}

func TestClient_MonthlyMeans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "monthly_mean", r.URL.Query().Get("product"))

		w.Header().Set(headerContentType, contentTypeJSON)
		fmt.Fprintf(w, `{%s,"data":[
			{"year":"2019","month":"7","highest":"174.912","MSL":"174.512","lowest":"174.101"},
			{"year":"2019","month":"8","highest":"174.801","MSL":"174.402","lowest":""}
		]}`, toledoMetadata)
	}))
	defer srv.Close()

	readings, err := testClient(srv.URL).MonthlyMeans(context.Background(), "9063085", 2019)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	july := readings[0]
	assert.Equal(t, 2019, july.Year)
	assert.Equal(t, time.July, july.Month)
	assert.InDelta(t, 174.912, *july.High, 1e-9)
	assert.InDelta(t, 174.512, *july.Mean, 1e-9)
	assert.InDelta(t, 174.101, *july.Low, 1e-9)

	assert.Nil(t, readings[1].Low)
}

func TestClient_SentinelValueBecomesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		fmt.Fprintf(w, `{%s,"data":[{"t":"2019-07-01","v":"-9999","f":"0,0,0"}]}`, toledoMetadata)
	}))
	defer srv.Close()

	readings, err := testClient(srv.URL).DailyMeans(context.Background(), "9063085", 2019)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Nil(t, readings[0].Mean)
}

func TestClient_APIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		fmt.Fprint(w, `{"error":{"message":"No data was found for this station"}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyMeans(context.Background(), "9063085", 2019)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data was found")
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyMeans(context.Background(), "9063085", 2019)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).DailyMeans(ctx, "9063085", 2019)
	assert.Error(t, err)
}
