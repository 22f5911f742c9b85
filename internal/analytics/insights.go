package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// InsightKind tags an Insight.
type InsightKind string

const (
	InsightTopPerformer    InsightKind = "top_performer"
	InsightBottomPerformer InsightKind = "bottom_performer"
	InsightAnomaly         InsightKind = "anomaly"
	InsightTrend           InsightKind = "trend"
	InsightCorrelation     InsightKind = "correlation"
	InsightRecommendation  InsightKind = "recommendation"
)

// Recommendation actions.
const (
	ActionInvestigate = "investigate_high_performer"
	ActionAlert       = "declining_performance_alert"
	ActionScale       = "scale_successful_strategy"
	ActionVerify      = "verify_data_point"
)

// Insight is one finding. Which payload fields are set depends on Kind:
// performers carry Rank, RowIndex, Value and Share; anomalies RowIndex, Value
// and ZScore; trends Value (relative change) and Direction; correlations
// Value (r), Direction and Strength; recommendations Action and Priority
// plus the payload of the finding they were derived from.
type Insight struct {
	Kind      InsightKind `json:"kind"`
	Metrics   []string    `json:"metrics"`
	RowIndex  *int        `json:"row_index,omitempty"`
	Rank      int         `json:"rank,omitempty"`
	Value     float64     `json:"value"`
	Share     float64     `json:"share,omitempty"`
	ZScore    float64     `json:"z_score,omitempty"`
	Direction string      `json:"direction,omitempty"`
	Strength  string      `json:"strength,omitempty"`
	Action    string      `json:"action,omitempty"`
	Priority  string      `json:"priority,omitempty"`
	Message   string      `json:"message"`
}

// Outlier is a value far enough from its column mean to suspect bad data.
type Outlier struct {
	Metric   string  `json:"metric"`
	RowIndex int     `json:"row_index"`
	Value    float64 `json:"value"`
	ZScore   float64 `json:"z_score"`
}

// DataQuality summarizes completeness of the analyzed columns.
type DataQuality struct {
	Score        float64   `json:"score"`
	TotalCells   int       `json:"total_cells"`
	MissingCells int       `json:"missing_cells"`
	Outliers     []Outlier `json:"outliers"`
}

// InsightReport is the output of GenerateInsights.
type InsightReport struct {
	Insights    []Insight     `json:"insights"`
	Columns     []ColumnStats `json:"columns"`
	DataQuality DataQuality   `json:"data_quality"`
}

type series struct {
	col     datanorm.DetectedColumn
	values  []float64 // present values in row order
	rows    []int     // row position of each value
	byRow   []float64
	present []bool
	missing int
}

func extractSeries(rows [][]string, col datanorm.DetectedColumn) series {
	s := series{
		col:     col,
		byRow:   make([]float64, len(rows)),
		present: make([]bool, len(rows)),
	}
	for i, row := range rows {
		v, ok := datanorm.ParseNumber(datanorm.CellAt(row, col.Index))
		if !ok {
			s.missing++
			continue
		}
		s.values = append(s.values, v)
		s.rows = append(s.rows, i)
		s.byRow[i] = v
		s.present[i] = true
	}
	return s
}

// GenerateInsights mines the numeric columns of rows for performers,
// anomalies, trends and correlations, then turns the notable ones into
// recommendations. Row indices refer to positions within rows.
func (e *Engine) GenerateInsights(rows [][]string, cols []datanorm.DetectedColumn, metrics Metrics) InsightReport {
	t := e.thresholds
	report := InsightReport{
		Insights:    []Insight{},
		Columns:     []ColumnStats{},
		DataQuality: DataQuality{Outliers: []Outlier{}},
	}

	var all []series
	for _, col := range cols {
		if !col.Type.IsNumeric() {
			continue
		}
		s := extractSeries(rows, col)
		all = append(all, s)

		report.DataQuality.TotalCells += len(rows)
		report.DataQuality.MissingCells += s.missing

		sum, mean, median, lo, hi, stdDev := describe(s.values)
		report.Columns = append(report.Columns, ColumnStats{
			Column: col.Name, Key: col.Key,
			Count:  len(s.values), Missing: s.missing,
			Sum:    sum, Mean: mean, Median: median, Min: lo, Max: hi, StdDev: stdDev,
		})
		if len(s.values) == 0 {
			continue
		}

		total := sum
		if v, ok := metrics[col.Key]; ok {
			total = v
		}
		report.Insights = append(report.Insights, performers(s, total, t.TopPerformers)...)

		if len(s.values) < t.MinSeriesPoints {
			continue
		}
		anomalies, outliers := deviations(s, mean, stdDev, t)
		report.Insights = append(report.Insights, anomalies...)
		report.DataQuality.Outliers = append(report.DataQuality.Outliers, outliers...)
		if trend, ok := detectTrend(s, t.TrendThreshold); ok {
			report.Insights = append(report.Insights, trend)
		}
	}

	report.Insights = append(report.Insights, correlations(all, t)...)
	report.Insights = append(report.Insights, recommendations(report.Insights, t)...)

	dq := &report.DataQuality
	dq.Score = SafeRatio(float64(dq.TotalCells-dq.MissingCells), float64(dq.TotalCells)) * 100
	return report
}

func performers(s series, total float64, n int) []Insight {
	order := make([]int, len(s.values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return s.values[order[a]] > s.values[order[b]] })

	var out []Insight
	top := n
	if top > len(order) {
		top = len(order)
	}
	for rank := 0; rank < top; rank++ {
		out = append(out, performer(InsightTopPerformer, s, order[rank], rank+1, total))
	}

	// with n or fewer values the bottom list would repeat the top one
	if len(order) <= n {
		return out
	}
	sort.SliceStable(order, func(a, b int) bool { return s.values[order[a]] < s.values[order[b]] })
	for rank := 0; rank < n; rank++ {
		out = append(out, performer(InsightBottomPerformer, s, order[rank], rank+1, total))
	}
	return out
}

func performer(kind InsightKind, s series, i, rank int, total float64) Insight {
	row := s.rows[i]
	share := SafeRatio(s.values[i], total)
	label := "Top"
	if kind == InsightBottomPerformer {
		label = "Bottom"
	}
	return Insight{
		Kind:     kind,
		Metrics:  []string{s.col.Key},
		RowIndex: intPtr(row),
		Rank:     rank,
		Value:    s.values[i],
		Share:    share,
		Message:  fmt.Sprintf("%s #%d %s: %s (%.1f%% of total)", label, rank, s.col.Name, formatValue(s.values[i]), share*100),
	}
}

func deviations(s series, mean, stdDev float64, t Thresholds) ([]Insight, []Outlier) {
	if stdDev == 0 {
		return nil, nil
	}
	var anomalies []Insight
	var outliers []Outlier
	for i, v := range s.values {
		z := (v - mean) / stdDev
		if math.Abs(z) > t.AnomalySigma {
			anomalies = append(anomalies, Insight{
				Kind:     InsightAnomaly,
				Metrics:  []string{s.col.Key},
				RowIndex: intPtr(s.rows[i]),
				Value:    v,
				ZScore:   z,
				Message:  fmt.Sprintf("%s value %s is %.1f standard deviations from the mean of %s", s.col.Name, formatValue(v), z, formatValue(mean)),
			})
		}
		if math.Abs(z) > t.OutlierSigma {
			outliers = append(outliers, Outlier{Metric: s.col.Key, RowIndex: s.rows[i], Value: v, ZScore: z})
		}
	}
	return anomalies, outliers
}

// detectTrend compares the means of the first and second halves of the
// series. Rows are taken to be in chronological order.
func detectTrend(s series, threshold float64) (Insight, bool) {
	half := len(s.values) / 2
	first := meanOf(s.values[:half])
	second := meanOf(s.values[half:])
	if first == 0 {
		return Insight{}, false
	}
	change := (second - first) / math.Abs(first)
	if math.Abs(change) <= threshold {
		return Insight{}, false
	}

	direction := "increasing"
	if change < 0 {
		direction = "decreasing"
	}
	return Insight{
		Kind:      InsightTrend,
		Metrics:   []string{s.col.Key},
		Value:     change,
		Direction: direction,
		Message:   fmt.Sprintf("%s is %s: second-half average %s vs %s (%+.1f%%)", s.col.Name, direction, formatValue(second), formatValue(first), change*100),
	}, true
}

func correlations(all []series, t Thresholds) []Insight {
	var out []Insight
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			var x, y []float64
			for row := range a.present {
				if a.present[row] && b.present[row] {
					x = append(x, a.byRow[row])
					y = append(y, b.byRow[row])
				}
			}
			if len(x) < t.MinCorrelationPairs {
				continue
			}
			r, ok := pearson(x, y)
			if !ok || math.Abs(r) <= t.CorrelationThreshold {
				continue
			}

			strength := "moderate"
			if math.Abs(r) > t.StrongCorrelation {
				strength = "strong"
			}
			direction := "positive"
			if r < 0 {
				direction = "negative"
			}
			out = append(out, Insight{
				Kind:      InsightCorrelation,
				Metrics:   []string{a.col.Key, b.col.Key},
				Value:     r,
				Direction: direction,
				Strength:  strength,
				Message:   fmt.Sprintf("%s and %s show a %s %s correlation (r=%.2f, n=%d)", a.col.Name, b.col.Name, strength, direction, r, len(x)),
			})
		}
	}
	return out
}

type candidate struct {
	insight      Insight
	significance float64
}

// recommendations applies the fixed advice rules to the findings. Each kind
// is capped to the most significant RecommendationCap entries.
func recommendations(insights []Insight, t Thresholds) []Insight {
	var alerts, investigate, scale, verify []candidate
	for _, in := range insights {
		switch {
		case in.Kind == InsightTopPerformer && in.Share > t.RecommendationShare:
			rec := in
			rec.Action, rec.Priority = ActionInvestigate, "medium"
			rec.Message = fmt.Sprintf("Investigate high performer: a single row contributes %.1f%% of total %s", in.Share*100, in.Metrics[0])
			investigate = append(investigate, candidate{rec, in.Share})
		case in.Kind == InsightTrend && in.Value < -t.RecommendationTrend:
			rec := in
			rec.Action, rec.Priority = ActionAlert, "high"
			rec.Message = fmt.Sprintf("Alert: %s dropped %.1f%% between the first and second half of the period", in.Metrics[0], -in.Value*100)
			alerts = append(alerts, candidate{rec, -in.Value})
		case in.Kind == InsightTrend && in.Value > t.RecommendationTrend:
			rec := in
			rec.Action, rec.Priority = ActionScale, "medium"
			rec.Message = fmt.Sprintf("Scale successful strategy: %s grew %.1f%% over the period", in.Metrics[0], in.Value*100)
			scale = append(scale, candidate{rec, in.Value})
		case in.Kind == InsightAnomaly:
			rec := in
			rec.Action, rec.Priority = ActionVerify, "low"
			rec.Message = fmt.Sprintf("Verify data point: %s value %s deviates %.1f standard deviations", in.Metrics[0], formatValue(in.Value), math.Abs(in.ZScore))
			verify = append(verify, candidate{rec, math.Abs(in.ZScore)})
		}
	}

	var out []Insight
	for _, group := range [][]candidate{alerts, investigate, scale, verify} {
		sort.SliceStable(group, func(a, b int) bool { return group[a].significance > group[b].significance })
		for i, c := range group {
			if i >= t.RecommendationCap {
				break
			}
			c.insight.Kind = InsightRecommendation
			out = append(out, c.insight)
		}
	}
	return out
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func intPtr(v int) *int { return &v }
