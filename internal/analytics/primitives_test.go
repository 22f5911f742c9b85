package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRatio(t *testing.T) {
	for _, x := range []float64{0, 1, -5, 1e12, math.MaxFloat64} {
		assert.Zero(t, SafeRatio(x, 0), "x=%v", x)
	}
	assert.Equal(t, 2.5, SafeRatio(5, 2))
	assert.Zero(t, SafeRatio(math.NaN(), 2))
	assert.Zero(t, SafeRatio(1, math.Inf(1)))
}

func TestConversionRatePercent(t *testing.T) {
	assert.InDelta(t, 10, ConversionRatePercent(10, 100), 1e-9)
	assert.Zero(t, ConversionRatePercent(0, 100))
	assert.Zero(t, ConversionRatePercent(10, 0))
	assert.InDelta(t, 5, ConversionRatePercent(5, 100), 1e-9)
}

func TestROASAndROIPercent(t *testing.T) {
	assert.InDelta(t, 200, ROASPercent(200, 100), 1e-9)
	assert.InDelta(t, 100, ROIPercent(200, 100), 1e-9)
	assert.InDelta(t, 50, ROIPercent(150, 100), 1e-9)
	assert.InDelta(t, -50, ROIPercent(50, 100), 1e-9)
	assert.Zero(t, ROASPercent(200, 0))
	assert.Zero(t, ROIPercent(200, 0))
}

func TestCostPerAction(t *testing.T) {
	assert.Equal(t, 10.0, CostPerAction(100, 10))
	assert.Zero(t, CostPerAction(100, 0))
}

func TestProgressToTarget(t *testing.T) {
	tests := []struct {
		name          string
		current       float64
		target        float64
		lowerIsBetter bool
		wantRatio     float64
		wantPct       float64
		wantStatus    ProgressStatus
	}{
		{"half way", 50, 100, false, 0.5, 50, StatusBehind},
		{"nearly there", 90, 100, false, 0.9, 90, StatusOnTrack},
		{"cost above ceiling", 120, 100, true, 0.8333, 83.33, StatusNeedsAttention},
		{"far past target is clamped", 1000, 100, false, 10, 100, StatusOnTrack},
		{"zero target", 10, 0, false, 0, 0, StatusBehind},
		{"zero cost", 0, 100, true, 0, 0, StatusBehind},
		{"negative current", -20, 100, false, -0.2, 0, StatusBehind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProgressToTarget(tt.current, tt.target, tt.lowerIsBetter)
			assert.InDelta(t, tt.wantRatio, p.Ratio, 1e-3)
			assert.InDelta(t, tt.wantPct, p.Pct, 1e-2)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.GreaterOrEqual(t, p.Pct, 0.0)
			assert.LessOrEqual(t, p.Pct, 100.0)
		})
	}
}

func TestProgressToTargetClampIsExact(t *testing.T) {
	assert.Equal(t, 100.0, ProgressToTarget(1000, 100, false).Pct)
}
