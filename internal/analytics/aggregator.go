package analytics

import (
	"fmt"
	"math"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// RevenueSource records where the revenue total came from.
type RevenueSource string

const (
	RevenueReported RevenueSource = "reported" // summed from a revenue column
	RevenueComputed RevenueSource = "computed" // conversions x caller-supplied value
	RevenueDisabled RevenueSource = "disabled" // no revenue column and no value supplied
)

// PlausibilityFactor bounds derived values: anything larger than
// PlausibilityFactor x scale x the largest input is treated as corrupt.
const PlausibilityFactor = 1e4

// Relationship validator limits.
const (
	maxConversionsPerClick = 1.5
	maxLeadsPerConversion  = 5.0
	maxPlausibleROAS       = 100.0
)

// AggregateOptions carries caller-supplied inputs to aggregation.
type AggregateOptions struct {
	// ConversionValue is the value of one conversion. When set and the data
	// has no revenue column, revenue = conversions x ConversionValue.
	ConversionValue *float64
}

// Aggregation is the totals and derived metrics for a set of rows.
type Aggregation struct {
	Metrics       Metrics        `json:"metrics"`
	Missing       map[string]int `json:"missing"`
	RevenueSource RevenueSource  `json:"revenue_source"`
	Warnings      []Warning      `json:"warnings"`
}

type derivation struct {
	key           string
	numerator     string
	denominator   string
	scale         float64
	allowNegative bool
}

// derivations lists every derived metric in output order. ROI's numerator
// is revenue-spend and is handled specially.
var derivations = []derivation{
	{key: MetricCTR, numerator: datanorm.KeyClicks, denominator: datanorm.KeyImpressions, scale: 100},
	{key: MetricCPC, numerator: datanorm.KeySpend, denominator: datanorm.KeyClicks, scale: 1},
	{key: MetricCPM, numerator: datanorm.KeySpend, denominator: datanorm.KeyImpressions, scale: 1000},
	{key: MetricCVR, numerator: datanorm.KeyConversions, denominator: datanorm.KeyClicks, scale: 100},
	{key: MetricCPA, numerator: datanorm.KeySpend, denominator: datanorm.KeyConversions, scale: 1},
	{key: MetricCPL, numerator: datanorm.KeySpend, denominator: datanorm.KeyLeads, scale: 1},
	{key: MetricER, numerator: datanorm.KeyEngagements, denominator: datanorm.KeyImpressions, scale: 100},
	{key: MetricROI, numerator: datanorm.KeyRevenue, denominator: datanorm.KeySpend, scale: 100, allowNegative: true},
	{key: MetricROAS, numerator: datanorm.KeyRevenue, denominator: datanorm.KeySpend, scale: 1},
}

// Aggregate totals every currency and number column over rows and derives
// the standard ratios. A derived metric is present only when all of its
// inputs are present and its denominator is positive.
func Aggregate(rows [][]string, cols []datanorm.DetectedColumn, opts AggregateOptions) Aggregation {
	agg := Aggregation{
		Metrics:  make(Metrics),
		Missing:  make(map[string]int),
		Warnings: []Warning{},
	}

	for _, col := range cols {
		if !col.Type.IsSummable() {
			continue
		}
		if isDerivedKey(col.Key) {
			// per-row rates do not add up; the ratio is rebuilt from totals
			agg.warn(WarnSanitized, col.Key, fmt.Sprintf("column %q reports a rate and was not summed", col.Name))
			continue
		}
		sum, parsed, failures, missing := sumColumn(rows, col.Index)
		agg.Missing[col.Key] = missing
		if parsed > 0 {
			agg.Metrics[col.Key] = sum
		}
		if failures > 0 {
			agg.warn(WarnParseFailure, col.Key, fmt.Sprintf("%d value(s) in column %q could not be parsed and were treated as missing", failures, col.Name))
		}
	}

	agg.resolveRevenue(opts)

	for _, d := range derivations {
		agg.derive(d)
	}

	agg.validateRelationships()
	return agg
}

func isDerivedKey(key string) bool {
	for _, d := range derivations {
		if d.key == key {
			return true
		}
	}
	return false
}

func sumColumn(rows [][]string, idx int) (sum float64, parsed, failures, missing int) {
	for _, row := range rows {
		cell := datanorm.CellAt(row, idx)
		if datanorm.IsNull(cell) {
			missing++
			continue
		}
		v, ok := datanorm.ParseNumber(cell)
		if !ok {
			failures++
			missing++
			continue
		}
		sum += v
		parsed++
	}
	return sum, parsed, failures, missing
}

func (a *Aggregation) resolveRevenue(opts AggregateOptions) {
	if _, ok := a.Metrics[datanorm.KeyRevenue]; ok {
		a.RevenueSource = RevenueReported
		return
	}
	a.RevenueSource = RevenueDisabled
	if opts.ConversionValue == nil {
		return
	}

	value := *opts.ConversionValue
	conversions, ok := a.Metrics[datanorm.KeyConversions]
	switch {
	case !ok:
		a.warn(WarnDerivationSkipped, datanorm.KeyRevenue, "conversion value supplied but no conversions column was found")
	case !finite(value) || value < 0:
		a.warn(WarnSanitized, datanorm.KeyRevenue, fmt.Sprintf("conversion value %v is not a usable amount", value))
	default:
		a.Metrics[datanorm.KeyRevenue] = conversions * value
		a.RevenueSource = RevenueComputed
	}
}

func (a *Aggregation) derive(d derivation) {
	num, hasNum := a.Metrics[d.numerator]
	den, hasDen := a.Metrics[d.denominator]
	if !hasNum && !hasDen {
		// nothing to derive from; not worth a warning
		return
	}
	if !hasNum || !hasDen {
		missing := d.numerator
		if hasNum {
			missing = d.denominator
		}
		a.warn(WarnDerivationSkipped, d.key, fmt.Sprintf("%s needs %s", d.key, missing))
		return
	}
	if den <= 0 {
		a.warn(WarnDerivationSkipped, d.key, fmt.Sprintf("%s skipped: %s is %v", d.key, d.denominator, den))
		return
	}

	var value float64
	if d.key == MetricROI {
		value = ROIPercent(num, den)
	} else {
		value = SafeRatio(num, den) * d.scale
	}

	if reason, ok := sanitize(value, d, num, den); !ok {
		a.warn(WarnSanitized, d.key, fmt.Sprintf("%s dropped: %s", d.key, reason))
		return
	}
	a.Metrics[d.key] = value
}

// sanitize rejects derived values that cannot be right: non-finite, negative
// where a ratio of counts cannot be, or orders of magnitude beyond the inputs.
func sanitize(value float64, d derivation, inputs ...float64) (string, bool) {
	if !finite(value) {
		return "not a finite number", false
	}
	if value < 0 && !d.allowNegative {
		return fmt.Sprintf("negative value %v", value), false
	}
	largest := 1.0
	for _, in := range inputs {
		largest = math.Max(largest, math.Abs(in))
	}
	if math.Abs(value) > PlausibilityFactor*d.scale*largest {
		return fmt.Sprintf("implausible value %v", value), false
	}
	return "", true
}

// validateRelationships flags totals that contradict each other. These are
// warnings only: view-through and cross-device attribution legitimately
// break the naive funnel.
func (a *Aggregation) validateRelationships() {
	m := a.Metrics
	if clicks, impressions, ok := pair(m, datanorm.KeyClicks, datanorm.KeyImpressions); ok && clicks > impressions {
		a.warn(WarnRelationship, datanorm.KeyClicks, fmt.Sprintf("clicks (%v) exceed impressions (%v)", clicks, impressions))
	}
	if conversions, clicks, ok := pair(m, datanorm.KeyConversions, datanorm.KeyClicks); ok && conversions > clicks*maxConversionsPerClick {
		a.warn(WarnRelationship, datanorm.KeyConversions, fmt.Sprintf("conversions (%v) far exceed clicks (%v)", conversions, clicks))
	}
	if leads, conversions, ok := pair(m, datanorm.KeyLeads, datanorm.KeyConversions); ok && conversions > 0 && leads > conversions*maxLeadsPerConversion {
		a.warn(WarnRelationship, datanorm.KeyLeads, fmt.Sprintf("leads (%v) exceed conversions (%v) by more than %vx", leads, conversions, maxLeadsPerConversion))
	}
	if roas, ok := m[MetricROAS]; ok && roas > maxPlausibleROAS {
		a.warn(WarnRelationship, MetricROAS, fmt.Sprintf("ROAS of %.1f is unusually high; check revenue attribution", roas))
	}
}

func pair(m Metrics, a, b string) (float64, float64, bool) {
	x, okA := m[a]
	y, okB := m[b]
	return x, y, okA && okB
}

func (a *Aggregation) warn(kind WarningKind, metric, msg string) {
	a.Warnings = append(a.Warnings, Warning{Kind: kind, Metric: metric, Message: msg})
}
