package analytics

import (
	"fmt"
	"sort"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// Engine runs the analytics pipeline with a fixed set of thresholds. It
// holds no other state and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine returns an Engine. Zero threshold fields take their defaults.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t.withDefaults()}
}

// Thresholds returns the rules in effect.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// ClassifyColumns infers the type of every column.
func (e *Engine) ClassifyColumns(ds *datanorm.Dataset) []datanorm.DetectedColumn {
	return datanorm.ClassifyColumns(ds)
}

// MatchRows selects a campaign's rows; see MatchRows.
func (e *Engine) MatchRows(ds *datanorm.Dataset, campaignName, platformID string, opts MatchOptions) MatchResult {
	return MatchRows(ds, campaignName, platformID, opts)
}

// Aggregate totals and derives metrics; see Aggregate.
func (e *Engine) Aggregate(rows [][]string, cols []datanorm.DetectedColumn, opts AggregateOptions) Aggregation {
	return Aggregate(rows, cols, opts)
}

// ProjectScaling estimates a spend increase; see ProjectScaling.
func (e *Engine) ProjectScaling(m Metrics, increasePct float64) (ScalingProjection, error) {
	return ProjectScaling(m, increasePct)
}

// lowerIsBetter lists the cost metrics whose targets are ceilings.
var lowerIsBetter = map[string]bool{
	MetricCPC: true,
	MetricCPM: true,
	MetricCPA: true,
	MetricCPL: true,
}

// AnalysisRequest is one campaign report computation.
type AnalysisRequest struct {
	Dataset         *datanorm.Dataset
	CampaignName    string
	PlatformID      string
	Match           MatchOptions
	ConversionValue *float64
	History         *HistoricalComparison
	Targets         map[string]float64 // metric key -> target value
}

// KPIProgress is a metric measured against its target.
type KPIProgress struct {
	Metric        string  `json:"metric"`
	Current       float64 `json:"current"`
	Target        float64 `json:"target"`
	LowerIsBetter bool    `json:"lower_is_better"`
	Progress
}

// Report is the full analysis of one campaign.
type Report struct {
	Campaign      string                    `json:"campaign"`
	Platform      string                    `json:"platform"`
	Columns       []datanorm.DetectedColumn `json:"columns"`
	Match         MatchResult               `json:"match"`
	MatchedRows   int                       `json:"matched_rows"`
	Metrics       Metrics                   `json:"metrics"`
	Missing       map[string]int            `json:"missing"`
	RevenueSource RevenueSource             `json:"revenue_source"`
	Insights      []Insight                 `json:"insights"`
	ColumnStats   []ColumnStats             `json:"column_stats"`
	DataQuality   DataQuality               `json:"data_quality"`
	PlatformSpend map[string]float64        `json:"platform_spend,omitempty"`
	Health        HealthAssessment          `json:"health"`
	KPIs          []KPIProgress             `json:"kpis"`
	Warnings      []Warning                 `json:"warnings"`
}

// Analyze runs classify, match, aggregate, insights and health scoring
// over the request's dataset. It always returns a report; problems are
// listed in Report.Warnings.
func (e *Engine) Analyze(req AnalysisRequest) Report {
	ds := req.Dataset
	if ds == nil {
		ds = &datanorm.Dataset{}
	}

	r := Report{
		Campaign: req.CampaignName,
		Platform: req.PlatformID,
		KPIs:     []KPIProgress{},
		Warnings: []Warning{},
	}

	r.Columns = e.ClassifyColumns(ds)

	r.Match = e.MatchRows(ds, req.CampaignName, req.PlatformID, req.Match)
	r.MatchedRows = r.Match.Count()
	if r.Match.Degraded() {
		r.Warnings = append(r.Warnings, Warning{
			Kind:    WarnMatchDegraded,
			Message: fmt.Sprintf("no rows matched campaign %q on platform %q; fell back to %s", req.CampaignName, req.PlatformID, r.Match.Method),
		})
	}

	agg := e.Aggregate(r.Match.Rows, r.Columns, AggregateOptions{ConversionValue: req.ConversionValue})
	r.Metrics = agg.Metrics
	r.Missing = agg.Missing
	r.RevenueSource = agg.RevenueSource
	r.Warnings = append(r.Warnings, agg.Warnings...)

	insights := e.GenerateInsights(r.Match.Rows, r.Columns, r.Metrics)
	r.Insights = toDatasetRows(insights.Insights, r.Match.RowIndices)
	r.ColumnStats = insights.Columns
	r.DataQuality = insights.DataQuality
	for i := range r.DataQuality.Outliers {
		r.DataQuality.Outliers[i].RowIndex = r.Match.RowIndices[r.DataQuality.Outliers[i].RowIndex]
	}

	r.PlatformSpend = SpendByPlatform(ds, req.CampaignName, req.Match)
	r.Health = e.ScoreHealth(HealthInput{
		Metrics:       r.Metrics,
		PlatformSpend: r.PlatformSpend,
		History:       req.History,
	})

	kpis, warnings := progressAgainst(r.Metrics, req.Targets)
	r.KPIs = append(r.KPIs, kpis...)
	r.Warnings = append(r.Warnings, warnings...)
	return r
}

// toDatasetRows rewrites matched-row positions into dataset row indices.
func toDatasetRows(insights []Insight, rowIndices []int) []Insight {
	out := make([]Insight, len(insights))
	for i, in := range insights {
		if in.RowIndex != nil {
			in.RowIndex = intPtr(rowIndices[*in.RowIndex])
		}
		out[i] = in
	}
	return out
}

func progressAgainst(m Metrics, targets map[string]float64) ([]KPIProgress, []Warning) {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var kpis []KPIProgress
	var warnings []Warning
	for _, k := range keys {
		current, ok := m[k]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:    WarnDerivationSkipped,
				Metric:  k,
				Message: fmt.Sprintf("target for %s ignored: metric unavailable", k),
			})
			continue
		}
		lower := lowerIsBetter[k]
		kpis = append(kpis, KPIProgress{
			Metric:        k,
			Current:       current,
			Target:        targets[k],
			LowerIsBetter: lower,
			Progress:      ProgressToTarget(current, targets[k], lower),
		})
	}
	return kpis, warnings
}
