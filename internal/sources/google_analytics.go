package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/marketpulse/internal/datanorm"
	"github.com/ignite/marketpulse/internal/pkg/httpretry"
)

// DefaultGAReportingURL is the Reporting API v4 batch endpoint.
const DefaultGAReportingURL = "https://analyticsreporting.googleapis.com/v4/reports:batchGet"

// defaultGALookback is the report window when no dates are given.
const defaultGALookback = 30 * 24 * time.Hour

// GAQuery selects the view and date range of a report.
type GAQuery struct {
	ViewID    string
	StartDate string // YYYY-MM-DD; defaults to 30 days ago
	EndDate   string // YYYY-MM-DD; defaults to today
}

// gaHeaders are the export columns, dimensions first. "Source" maps to the
// platform column so traffic sources match platform ids.
var gaHeaders = []string{"Source", "Medium", "Campaign", "Sessions", "Users", "Pageviews", "Bounce Rate", "Avg Session Duration"}

const (
	gaDimensions = 3
	gaMetrics    = 5
)

// GoogleAnalyticsSource fetches campaign traffic from a GA view. The doer
// must attach credentials, e.g. an oauth2 client wrapped in httpretry.
type GoogleAnalyticsSource struct {
	doer     httpretry.HTTPDoer
	endpoint string
	query    GAQuery
	now      func() time.Time
}

// NewGoogleAnalyticsSource returns a GA source. An empty endpoint uses
// DefaultGAReportingURL.
func NewGoogleAnalyticsSource(doer httpretry.HTTPDoer, endpoint string, q GAQuery) *GoogleAnalyticsSource {
	if endpoint == "" {
		endpoint = DefaultGAReportingURL
	}
	return &GoogleAnalyticsSource{doer: doer, endpoint: endpoint, query: q, now: time.Now}
}

func (s *GoogleAnalyticsSource) Name() string { return "google_analytics:" + s.query.ViewID }

type gaRequest struct {
	ReportRequests []gaReportRequest `json:"reportRequests"`
}

type gaReportRequest struct {
	ViewID     string         `json:"viewId"`
	DateRanges []gaDateRange  `json:"dateRanges"`
	Metrics    []gaExpression `json:"metrics"`
	Dimensions []gaName       `json:"dimensions"`
	OrderBys   []gaOrderBy    `json:"orderBys"`
}

type gaDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type gaExpression struct {
	Expression string `json:"expression"`
}

type gaName struct {
	Name string `json:"name"`
}

type gaOrderBy struct {
	FieldName string `json:"fieldName"`
	SortOrder string `json:"sortOrder"`
}

type gaResponse struct {
	Reports []struct {
		Data struct {
			Rows []struct {
				Dimensions []string `json:"dimensions"`
				Metrics    []struct {
					Values []string `json:"values"`
				} `json:"metrics"`
			} `json:"rows"`
		} `json:"data"`
	} `json:"reports"`
}

func (s *GoogleAnalyticsSource) request() gaRequest {
	start, end := s.query.StartDate, s.query.EndDate
	now := s.now().UTC()
	if start == "" {
		start = now.Add(-defaultGALookback).Format("2006-01-02")
	}
	if end == "" {
		end = now.Format("2006-01-02")
	}
	return gaRequest{ReportRequests: []gaReportRequest{{
		ViewID:     s.query.ViewID,
		DateRanges: []gaDateRange{{StartDate: start, EndDate: end}},
		Metrics: []gaExpression{
			{Expression: "ga:sessions"},
			{Expression: "ga:users"},
			{Expression: "ga:pageviews"},
			{Expression: "ga:bounceRate"},
			{Expression: "ga:avgSessionDuration"},
		},
		Dimensions: []gaName{{Name: "ga:source"}, {Name: "ga:medium"}, {Name: "ga:campaign"}},
		OrderBys:   []gaOrderBy{{FieldName: "ga:sessions", SortOrder: "DESCENDING"}},
	}}}
}

func (s *GoogleAnalyticsSource) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	if s.query.ViewID == "" {
		return nil, fmt.Errorf("%s: view id is required", s.Name())
	}
	body, err := json.Marshal(s.request())
	if err != nil {
		return nil, fmt.Errorf("encode report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: reporting API returned %d: %s", s.Name(), resp.StatusCode, bytes.TrimSpace(msg))
	}
	return ParseGAResponse(resp.Body)
}

// ParseGAResponse converts the first report of a batchGet response into a
// Dataset. Rows missing dimensions or metrics are skipped and unparseable
// metric values become 0. Bounce rate keeps its percent sign so it is not
// summed with the counts.
func ParseGAResponse(r io.Reader) (*datanorm.Dataset, error) {
	var resp gaResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode report response: %w", err)
	}

	ds := &datanorm.Dataset{Headers: append([]string(nil), gaHeaders...), Rows: [][]string{}}
	if len(resp.Reports) == 0 {
		return ds, nil
	}

	for _, row := range resp.Reports[0].Data.Rows {
		if len(row.Dimensions) < gaDimensions || len(row.Metrics) == 0 || len(row.Metrics[0].Values) < gaMetrics {
			continue
		}
		v := row.Metrics[0].Values
		ds.Rows = append(ds.Rows, []string{
			row.Dimensions[0],
			row.Dimensions[1],
			row.Dimensions[2],
			strconv.FormatInt(gaCount(v[0]), 10),
			strconv.FormatInt(gaCount(v[1]), 10),
			strconv.FormatInt(gaCount(v[2]), 10),
			strconv.FormatFloat(gaFloat(v[3]), 'f', 2, 64) + "%",
			strconv.FormatFloat(gaFloat(v[4]), 'f', 2, 64),
		})
	}
	return ds, nil
}

func gaCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func gaFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
