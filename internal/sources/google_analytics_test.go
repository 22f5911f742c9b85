package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/analytics"
)

const gaBody = `{
  "reports": [{
    "data": {
      "rows": [
        {"dimensions": ["facebook", "cpc", "Spring Sale"], "metrics": [{"values": ["120", "100", "300", "45.5", "62.25"]}]},
        {"dimensions": ["google", "organic", "(not set)"], "metrics": [{"values": ["80", "70", "abc", "30", "10"]}]},
        {"dimensions": ["newsletter"], "metrics": [{"values": ["1", "1", "1", "1", "1"]}]}
      ]
    }
  }]
}`

func TestParseGAResponse(t *testing.T) {
	ds, err := ParseGAResponse(strings.NewReader(gaBody))
	require.NoError(t, err)

	assert.Equal(t, gaHeaders, ds.Headers)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []string{"facebook", "cpc", "Spring Sale", "120", "100", "300", "45.50%", "62.25"}, ds.Rows[0])
	assert.Equal(t, "0", ds.Rows[1][5], "unparseable pageviews become zero")

	empty, err := ParseGAResponse(strings.NewReader(`{"reports": []}`))
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)

	_, err = ParseGAResponse(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestGoogleAnalyticsSourceFetch(t *testing.T) {
	var got gaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(gaBody))
	}))
	defer srv.Close()

	src := NewGoogleAnalyticsSource(srv.Client(), srv.URL, GAQuery{ViewID: "12345"})
	src.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }

	ds, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 2)

	require.Len(t, got.ReportRequests, 1)
	req := got.ReportRequests[0]
	assert.Equal(t, "12345", req.ViewID)
	assert.Equal(t, gaDateRange{StartDate: "2024-03-01", EndDate: "2024-03-31"}, req.DateRanges[0])
	assert.Len(t, req.Metrics, gaMetrics)
	assert.Len(t, req.Dimensions, gaDimensions)
}

func TestGoogleAnalyticsSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "insufficient scopes"}`))
	}))
	defer srv.Close()

	_, err := NewGoogleAnalyticsSource(srv.Client(), srv.URL, GAQuery{ViewID: "1"}).Fetch(context.Background())
	assert.ErrorContains(t, err, "403")

	_, err = NewGoogleAnalyticsSource(srv.Client(), srv.URL, GAQuery{}).Fetch(context.Background())
	assert.ErrorContains(t, err, "view id")
}

func TestGoogleAnalyticsExportMatchesPlatform(t *testing.T) {
	ds, err := ParseGAResponse(strings.NewReader(gaBody))
	require.NoError(t, err)

	m := analytics.MatchRows(ds, "Spring Sale", "facebook", analytics.MatchOptions{})
	assert.Equal(t, analytics.MatchNameAndPlatform, m.Method)
	assert.Equal(t, []int{0}, m.RowIndices)
}
