package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/datanorm"
)

func aggregate(ds *datanorm.Dataset, opts AggregateOptions) Aggregation {
	return Aggregate(ds.Rows, datanorm.ClassifyColumns(ds), opts)
}

func warningsOf(agg Aggregation, kind WarningKind) []Warning {
	var out []Warning
	for _, w := range agg.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func hasWarning(ws []Warning, kind WarningKind, metric string) bool {
	for _, w := range ws {
		if w.Kind == kind && w.Metric == metric {
			return true
		}
	}
	return false
}

func TestAggregateDerivesStandardMetrics(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Campaign", "Impressions", "Clicks", "Spend", "Conversions", "Leads", "Revenue"},
		Rows: [][]string{
			{"A", "1000", "50", "$100", "5", "10", "$300"},
			{"B", "3000", "150", "$200", "10", "20", "$500"},
		},
	}

	agg := aggregate(ds, AggregateOptions{})
	m := agg.Metrics

	assert.Equal(t, RevenueReported, agg.RevenueSource)
	assert.Equal(t, 4000.0, m[datanorm.KeyImpressions])
	assert.Equal(t, 200.0, m[datanorm.KeyClicks])
	assert.Equal(t, 300.0, m[datanorm.KeySpend])
	assert.Equal(t, 15.0, m[datanorm.KeyConversions])
	assert.Equal(t, 30.0, m[datanorm.KeyLeads])
	assert.Equal(t, 800.0, m[datanorm.KeyRevenue])

	assert.InDelta(t, 5, m[MetricCTR], 1e-9)
	assert.InDelta(t, 1.5, m[MetricCPC], 1e-9)
	assert.InDelta(t, 75, m[MetricCPM], 1e-9)
	assert.InDelta(t, 7.5, m[MetricCVR], 1e-9)
	assert.InDelta(t, 20, m[MetricCPA], 1e-9)
	assert.InDelta(t, 10, m[MetricCPL], 1e-9)
	assert.InDelta(t, 166.6667, m[MetricROI], 1e-3)
	assert.InDelta(t, 2.6667, m[MetricROAS], 1e-3)

	assert.False(t, m.Has(MetricER))
	assert.True(t, hasWarning(agg.Warnings, WarnDerivationSkipped, MetricER))
	assert.Empty(t, warningsOf(agg, WarnRelationship))
	assert.Equal(t, 0, agg.Missing[datanorm.KeyClicks])
}

func TestAggregateDerivedMetricPresentOnlyWithInputs(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Spend"},
		Rows:    [][]string{{"$10"}, {"$20"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.Equal(t, Metrics{datanorm.KeySpend: 30}, agg.Metrics)
	assert.Equal(t, RevenueDisabled, agg.RevenueSource)
	for _, key := range []string{MetricCPC, MetricCPM, MetricCPA, MetricCPL, MetricROI, MetricROAS} {
		assert.True(t, hasWarning(agg.Warnings, WarnDerivationSkipped, key), key)
	}
	assert.False(t, hasWarning(agg.Warnings, WarnDerivationSkipped, MetricCTR))
}

func TestAggregateIgnoresReportedRateColumns(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Campaign", "Platform", "CTR", "CPC", "ROAS"},
		Rows: [][]string{
			{"Spring Sale", "Facebook", "2.5", "1.1", "3.1"},
			{"Spring Sale", "Facebook", "2.0", "1.0", "2.9"},
			{"Spring Sale", "Facebook", "3.0", "1.2", "3.0"},
		},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.Empty(t, agg.Metrics)
	for _, key := range []string{MetricCTR, MetricCPC, MetricROAS} {
		assert.True(t, hasWarning(agg.Warnings, WarnSanitized, key), key)
	}

	health := NewEngine(DefaultThresholds()).ScoreHealth(HealthInput{Metrics: agg.Metrics})
	assert.Zero(t, health.Score)
}

func TestAggregateZeroDenominator(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Impressions", "Clicks", "Spend"},
		Rows:    [][]string{{"0", "0", "$5"}, {"0", "0", "$5"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.True(t, agg.Metrics.Has(datanorm.KeyImpressions))
	for _, key := range []string{MetricCTR, MetricCPM, MetricCPC} {
		assert.False(t, agg.Metrics.Has(key), key)
		assert.True(t, hasWarning(agg.Warnings, WarnDerivationSkipped, key), key)
	}
}

func TestAggregateComputedRevenue(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Conversions", "Spend"},
		Rows:    [][]string{{"4", "$100"}, {"6", "$100"}},
	}

	value := 50.0
	agg := aggregate(ds, AggregateOptions{ConversionValue: &value})
	assert.Equal(t, RevenueComputed, agg.RevenueSource)
	assert.Equal(t, 500.0, agg.Metrics[datanorm.KeyRevenue])
	assert.InDelta(t, 2.5, agg.Metrics[MetricROAS], 1e-9)
	assert.InDelta(t, 150, agg.Metrics[MetricROI], 1e-9)

	without := aggregate(ds, AggregateOptions{})
	assert.Equal(t, RevenueDisabled, without.RevenueSource)
	assert.False(t, without.Metrics.Has(datanorm.KeyRevenue))
	assert.False(t, without.Metrics.Has(MetricROAS))
	assert.False(t, without.Metrics.Has(MetricROI))

	negative := -1.0
	bad := aggregate(ds, AggregateOptions{ConversionValue: &negative})
	assert.Equal(t, RevenueDisabled, bad.RevenueSource)
	assert.True(t, hasWarning(bad.Warnings, WarnSanitized, datanorm.KeyRevenue))
}

func TestAggregateReportedRevenueWinsOverConversionValue(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Conversions", "Spend", "Revenue"},
		Rows:    [][]string{{"10", "$100", "$120"}},
	}
	value := 1000.0
	agg := aggregate(ds, AggregateOptions{ConversionValue: &value})
	assert.Equal(t, RevenueReported, agg.RevenueSource)
	assert.Equal(t, 120.0, agg.Metrics[datanorm.KeyRevenue])
}

func TestAggregateParseFailures(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Clicks"},
		Rows:    [][]string{{"10"}, {"20"}, {"abc"}, {"30"}, {"40"}, {"50"}, {""}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.Equal(t, 150.0, agg.Metrics[datanorm.KeyClicks])
	assert.Equal(t, 2, agg.Missing[datanorm.KeyClicks])
	failures := warningsOf(agg, WarnParseFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, datanorm.KeyClicks, failures[0].Metric)
	assert.Contains(t, failures[0].Message, "1 value(s)")
}

func TestAggregateSanitizesNegativeRatios(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Impressions", "Clicks"},
		Rows:    [][]string{{"50", "-10"}, {"50", "-20"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.Equal(t, -30.0, agg.Metrics[datanorm.KeyClicks])
	assert.False(t, agg.Metrics.Has(MetricCTR))
	assert.True(t, hasWarning(agg.Warnings, WarnSanitized, MetricCTR))
}

func TestAggregateSanitizesImplausibleValues(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Impressions", "Spend"},
		Rows:    [][]string{{"0.000001", "$100"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.False(t, agg.Metrics.Has(MetricCPM))
	assert.True(t, hasWarning(agg.Warnings, WarnSanitized, MetricCPM))
}

func TestAggregateAllowsNegativeROI(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Spend", "Revenue"},
		Rows:    [][]string{{"$100", "$50"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.InDelta(t, -50, agg.Metrics[MetricROI], 1e-9)
	assert.InDelta(t, 0.5, agg.Metrics[MetricROAS], 1e-9)
	assert.Empty(t, warningsOf(agg, WarnSanitized))
}

func TestAggregateRelationshipWarnings(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Impressions", "Clicks", "Conversions", "Leads"},
		Rows:    [][]string{{"100", "200", "400", "3000"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.True(t, hasWarning(agg.Warnings, WarnRelationship, datanorm.KeyClicks))
	assert.True(t, hasWarning(agg.Warnings, WarnRelationship, datanorm.KeyConversions))
	assert.True(t, hasWarning(agg.Warnings, WarnRelationship, datanorm.KeyLeads))
	// relationship problems warn but keep the metric
	assert.InDelta(t, 200, agg.Metrics[MetricCTR], 1e-9)
}

func TestAggregateIgnoresTextAndPercentColumns(t *testing.T) {
	ds := &datanorm.Dataset{
		Headers: []string{"Campaign", "CTR %", "Clicks"},
		Rows:    [][]string{{"A", "2.5%", "10"}, {"B", "3%", "20"}},
	}

	agg := aggregate(ds, AggregateOptions{})

	assert.Equal(t, Metrics{datanorm.KeyClicks: 30}, agg.Metrics)
}

func TestAggregateNoRows(t *testing.T) {
	ds := &datanorm.Dataset{Headers: []string{"Clicks", "Spend"}}
	agg := aggregate(ds, AggregateOptions{})
	assert.Empty(t, agg.Metrics)
	assert.Empty(t, agg.Warnings)
}
