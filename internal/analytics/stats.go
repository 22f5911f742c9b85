package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats are the descriptive statistics of one numeric column.
type ColumnStats struct {
	Column  string  `json:"column"`
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}

// describe computes sum, mean, median, min, max and population standard
// deviation. An empty slice yields zero statistics.
func describe(values []float64) (sum, mean, median, lo, hi, stdDev float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sum = floats.Sum(values)
	mean, stdDev = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// stat.Quantile picks a single order statistic; an even count averages
	// the middle pair instead
	if mid := len(sorted) / 2; len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return sum, mean, median, sorted[0], sorted[len(sorted)-1], stdDev
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// pearson returns the correlation coefficient of x and y. ok is false when
// the lengths differ, there are fewer than two points or either series is
// constant.
func pearson(x, y []float64) (r float64, ok bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return 0, false
	}

	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	// rounding can push identical series a hair past 1
	return math.Max(-1, math.Min(1, r)), true
}
