package analytics

import "math"

// SafeRatio divides n by d, returning 0 when d is zero or either side is
// not a finite number.
func SafeRatio(n, d float64) float64 {
	if d == 0 || !finite(n) || !finite(d) {
		return 0
	}
	r := n / d
	if !finite(r) {
		return 0
	}
	return r
}

// ConversionRatePercent is conversions per opportunity as a percentage.
func ConversionRatePercent(conversions, opportunities float64) float64 {
	return SafeRatio(conversions, opportunities) * 100
}

// ROASPercent is revenue over spend as a percentage.
func ROASPercent(revenue, spend float64) float64 {
	return SafeRatio(revenue, spend) * 100
}

// ROIPercent is profit over spend as a percentage.
func ROIPercent(revenue, spend float64) float64 {
	return SafeRatio(revenue-spend, spend) * 100
}

// CostPerAction is spend divided by the number of actions.
func CostPerAction(spend, actions float64) float64 {
	return SafeRatio(spend, actions)
}

// ProgressStatus is a coarse judgement of progress towards a target.
type ProgressStatus string

const (
	StatusOnTrack        ProgressStatus = "on_track"
	StatusNeedsAttention ProgressStatus = "needs_attention"
	StatusBehind         ProgressStatus = "behind"
)

// Ratio floors for each status; anything below needsAttentionRatio is behind.
const (
	onTrackRatio        = 0.9
	needsAttentionRatio = 0.75
)

// Progress describes how far a metric is towards its target.
type Progress struct {
	Ratio  float64        `json:"ratio"`
	Pct    float64        `json:"pct"`
	Status ProgressStatus `json:"status"`
}

// ProgressToTarget compares current against target. For cost-style metrics
// (lowerIsBetter) the ratio is inverted so that 1.0 always means "at target".
// Pct is clamped to [0,100].
func ProgressToTarget(current, target float64, lowerIsBetter bool) Progress {
	var ratio float64
	if lowerIsBetter {
		ratio = SafeRatio(target, current)
	} else {
		ratio = SafeRatio(current, target)
	}

	p := Progress{
		Ratio: ratio,
		Pct:   math.Max(0, math.Min(100, ratio*100)),
	}
	switch {
	case ratio >= onTrackRatio:
		p.Status = StatusOnTrack
	case ratio >= needsAttentionRatio:
		p.Status = StatusNeedsAttention
	default:
		p.Status = StatusBehind
	}
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
