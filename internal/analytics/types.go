package analytics

import "sort"

// Metrics maps a metric key to its value. A key is present only when the
// value could be computed; absent never means zero.
type Metrics map[string]float64

// Get returns the value for key and whether it is present.
func (m Metrics) Get(key string) (float64, bool) {
	v, ok := m[key]
	return v, ok
}

// Has reports whether every key is present.
func (m Metrics) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// Keys returns the metric keys in sorted order.
func (m Metrics) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Derived metric keys.
const (
	MetricCTR  = "ctr"
	MetricCPC  = "cpc"
	MetricCPM  = "cpm"
	MetricCVR  = "cvr"
	MetricCPA  = "cpa"
	MetricCPL  = "cpl"
	MetricER   = "er"
	MetricROI  = "roi"
	MetricROAS = "roas"
)

// WarningKind classifies a recoverable data problem.
type WarningKind string

const (
	WarnParseFailure      WarningKind = "parse_failure"
	WarnDerivationSkipped WarningKind = "derivation_skipped"
	WarnSanitized         WarningKind = "sanitized"
	WarnRelationship      WarningKind = "relationship"
	WarnMatchDegraded     WarningKind = "match_degraded"
	WarnSourceUnavailable WarningKind = "source_unavailable"
)

// Warning is a non-fatal note attached to a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Metric  string      `json:"metric,omitempty"`
	Message string      `json:"message"`
}
