package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/datanorm"
)

func engineDataset() *datanorm.Dataset {
	return &datanorm.Dataset{
		Headers: []string{"Date", "Campaign", "Platform", "Impressions", "Clicks", "Spend", "Conversions", "Revenue"},
		Rows: [][]string{
			{"2024-01-01", "Spring Sale", "Facebook", "1000", "30", "$100", "3", "$300"},
			{"2024-01-01", "Brand", "Google Ads", "2000", "20", "$50", "1", "$80"},
			{"2024-01-02", "Spring Sale", "Facebook", "1500", "50", "$150", "5", "$450"},
			{"2024-01-02", "Spring Sale", "Google Ads", "500", "10", "$40", "1", "$90"},
		},
	}
}

func TestAnalyze(t *testing.T) {
	e := NewEngine(Thresholds{})
	r := e.Analyze(AnalysisRequest{
		Dataset:      engineDataset(),
		CampaignName: "Spring Sale",
		PlatformID:   "facebook",
		Targets:      map[string]float64{MetricCTR: 2, MetricCPA: 25, datanorm.KeyEngagements: 10},
	})

	assert.Equal(t, MatchNameAndPlatform, r.Match.Method)
	assert.Equal(t, []int{0, 2}, r.Match.RowIndices)
	assert.Equal(t, 2, r.MatchedRows)
	assert.False(t, hasWarning(r.Warnings, WarnMatchDegraded, ""))

	assert.Equal(t, 2500.0, r.Metrics[datanorm.KeyImpressions])
	assert.Equal(t, 80.0, r.Metrics[datanorm.KeyClicks])
	assert.Equal(t, 250.0, r.Metrics[datanorm.KeySpend])
	assert.Equal(t, 750.0, r.Metrics[datanorm.KeyRevenue])
	assert.InDelta(t, 3.2, r.Metrics[MetricCTR], 1e-9)
	assert.InDelta(t, 31.25, r.Metrics[MetricCPA], 1e-9)
	assert.InDelta(t, 3, r.Metrics[MetricROAS], 1e-9)
	assert.Equal(t, RevenueReported, r.RevenueSource)

	assert.Equal(t, 100, r.Health.Score)
	assert.Equal(t, GradeA, r.Health.Grade)
	assert.Equal(t, map[string]float64{"facebook": 250, "google_ads": 40}, r.PlatformSpend)
	assert.Equal(t, []string{RiskPlatformConcentration}, riskCodes(r.Health))
	assert.Equal(t, RiskMedium, r.Health.RiskLevel)

	require.Len(t, r.KPIs, 2)
	assert.Equal(t, MetricCPA, r.KPIs[0].Metric)
	assert.True(t, r.KPIs[0].LowerIsBetter)
	assert.InDelta(t, 0.8, r.KPIs[0].Ratio, 1e-9)
	assert.Equal(t, StatusNeedsAttention, r.KPIs[0].Status)
	assert.Equal(t, MetricCTR, r.KPIs[1].Metric)
	assert.Equal(t, StatusOnTrack, r.KPIs[1].Status)
	assert.Equal(t, 100.0, r.KPIs[1].Pct)
	assert.True(t, hasWarning(r.Warnings, WarnDerivationSkipped, datanorm.KeyEngagements))
}

func TestAnalyzeReportsDatasetRowIndices(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	r := e.Analyze(AnalysisRequest{Dataset: engineDataset(), CampaignName: "Spring Sale", PlatformID: "facebook"})

	var topClicks *Insight
	for i, in := range r.Insights {
		if in.Kind == InsightTopPerformer && in.Metrics[0] == datanorm.KeyClicks && in.Rank == 1 {
			topClicks = &r.Insights[i]
		}
	}
	require.NotNil(t, topClicks)
	assert.Equal(t, 50.0, topClicks.Value)
	require.NotNil(t, topClicks.RowIndex)
	assert.Equal(t, 2, *topClicks.RowIndex)

	for _, rec := range ofKind(r.Insights, InsightRecommendation) {
		if rec.RowIndex != nil {
			assert.Contains(t, r.Match.RowIndices, *rec.RowIndex)
		}
	}
}

func TestAnalyzeDegradedMatch(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	r := e.Analyze(AnalysisRequest{Dataset: engineDataset(), CampaignName: "Holiday", PlatformID: "facebook"})

	assert.Equal(t, MatchPlatformOnly, r.Match.Method)
	assert.Equal(t, 2, r.MatchedRows)
	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, WarnMatchDegraded, r.Warnings[0].Kind)
}

func TestAnalyzeWithHistory(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	r := e.Analyze(AnalysisRequest{
		Dataset:      engineDataset(),
		CampaignName: "Spring Sale",
		PlatformID:   "facebook",
		History:      &HistoricalComparison{Label: "previous report", Previous: Metrics{datanorm.KeyRevenue: 1000}},
	})

	require.NotNil(t, r.Health.Trajectory)
	assert.InDelta(t, -0.25, r.Health.Trajectory.Change, 1e-9)
	assert.Equal(t, []string{RiskPlatformConcentration, RiskDecliningPerformance}, riskCodes(r.Health))
	assert.Equal(t, RiskHigh, r.Health.RiskLevel)
}

func TestAnalyzeConversionValue(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Campaign", "Platform", "Clicks", "Spend", "Conversions"},
		Rows:    [][]string{{"Launch", "LinkedIn", "100", "$200", "10"}},
	}
	value := 40.0

	e := NewEngine(DefaultThresholds())
	r := e.Analyze(AnalysisRequest{Dataset: ds, CampaignName: "Launch", PlatformID: "linkedin", ConversionValue: &value})

	assert.Equal(t, RevenueComputed, r.RevenueSource)
	assert.InDelta(t, 2, r.Metrics[MetricROAS], 1e-9)
	assert.Equal(t, []string{RiskSinglePlatform}, riskCodes(r.Health))
}

func TestAnalyzeEmptyRequest(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	r := e.Analyze(AnalysisRequest{})

	assert.Zero(t, r.MatchedRows)
	assert.Empty(t, r.Metrics)
	assert.Zero(t, r.Health.Score)
	assert.Equal(t, GradeF, r.Health.Grade)
	assert.NotNil(t, r.KPIs)
	assert.Zero(t, r.DataQuality.Score)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	req := AnalysisRequest{
		Dataset:      engineDataset(),
		CampaignName: "Spring Sale",
		PlatformID:   "google_ads",
		Targets:      map[string]float64{MetricROAS: 4, MetricCPC: 1, MetricCVR: 5},
	}
	assert.Equal(t, e.Analyze(req), e.Analyze(req))
}

func TestNewEngineFillsDefaults(t *testing.T) {
	e := NewEngine(Thresholds{AnomalySigma: 1.5})
	assert.Equal(t, 1.5, e.Thresholds().AnomalySigma)
	assert.Equal(t, DefaultThresholds().MinSeriesPoints, e.Thresholds().MinSeriesPoints)
}
