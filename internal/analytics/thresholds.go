package analytics

// Thresholds holds the tunable business rules behind insights and health
// scoring. They are judgement calls, not statistically derived values.
type Thresholds struct {
	AnomalySigma         float64 // |z| above which a value is an anomaly
	OutlierSigma         float64 // |z| above which a value is a data-quality outlier
	TrendThreshold       float64 // relative half-over-half change that counts as a trend
	MinSeriesPoints      int     // values a column needs before anomalies/trends are evaluated
	MinCorrelationPairs  int     // paired values needed before a correlation is computed
	CorrelationThreshold float64 // |r| above which a correlation is reported
	StrongCorrelation    float64 // |r| above which a correlation is labelled strong
	TopPerformers        int     // rows listed as top and bottom performers per column

	RecommendationShare float64 // top performer share that triggers "investigate"
	RecommendationTrend float64 // trend magnitude that triggers alert / scale advice
	RecommendationCap   int     // max recommendations of each kind

	DecliningRisk      float64 // period-over-period drop that counts as a risk
	ConcentrationShare float64 // single platform spend share that counts as a risk
}

// DefaultThresholds returns the standard rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AnomalySigma:         2.0,
		OutlierSigma:         3.0,
		TrendThreshold:       0.10,
		MinSeriesPoints:      10,
		MinCorrelationPairs:  5,
		CorrelationThreshold: 0.5,
		StrongCorrelation:    0.8,
		TopPerformers:        3,
		RecommendationShare:  0.20,
		RecommendationTrend:  0.20,
		RecommendationCap:    5,
		DecliningRisk:        0.15,
		ConcentrationShare:   0.70,
	}
}

// withDefaults fills zero fields from DefaultThresholds so a partially
// populated value is always usable.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.AnomalySigma <= 0 {
		t.AnomalySigma = d.AnomalySigma
	}
	if t.OutlierSigma <= 0 {
		t.OutlierSigma = d.OutlierSigma
	}
	if t.TrendThreshold <= 0 {
		t.TrendThreshold = d.TrendThreshold
	}
	if t.MinSeriesPoints <= 0 {
		t.MinSeriesPoints = d.MinSeriesPoints
	}
	if t.MinCorrelationPairs <= 0 {
		t.MinCorrelationPairs = d.MinCorrelationPairs
	}
	if t.CorrelationThreshold <= 0 {
		t.CorrelationThreshold = d.CorrelationThreshold
	}
	if t.StrongCorrelation <= 0 {
		t.StrongCorrelation = d.StrongCorrelation
	}
	if t.TopPerformers <= 0 {
		t.TopPerformers = d.TopPerformers
	}
	if t.RecommendationShare <= 0 {
		t.RecommendationShare = d.RecommendationShare
	}
	if t.RecommendationTrend <= 0 {
		t.RecommendationTrend = d.RecommendationTrend
	}
	if t.RecommendationCap <= 0 {
		t.RecommendationCap = d.RecommendationCap
	}
	if t.DecliningRisk <= 0 {
		t.DecliningRisk = d.DecliningRisk
	}
	if t.ConcentrationShare <= 0 {
		t.ConcentrationShare = d.ConcentrationShare
	}
	return t
}
