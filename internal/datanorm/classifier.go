package datanorm

import (
	"math"
	"regexp"
)

// SampleSize is the number of non-empty values inspected per column.
const SampleSize = 6

const (
	patternMatchThreshold = 0.5 // currency / percentage share needed, exclusive
	parseThreshold        = 0.7 // numeric, boolean and date share needed, inclusive
)

var (
	currencyPattern   = regexp.MustCompile(`^[$€£¥]\s*\d+[.,]?\d*$`)
	percentagePattern = regexp.MustCompile(`^\d+[.,]?\d*\s*%$`)
)

// ClassifyColumns infers a semantic type for every column of ds, in header
// order. It never fails: an all-empty column is reported as unknown.
func ClassifyColumns(ds *Dataset) []DetectedColumn {
	mapping := MapColumns(ds.Headers)
	cols := make([]DetectedColumn, len(ds.Headers))
	for i, name := range ds.Headers {
		cols[i] = classifyColumn(ds, i, name, mapping.Keys[i])
	}
	return cols
}

func classifyColumn(ds *Dataset, idx int, name, key string) DetectedColumn {
	col := DetectedColumn{
		Name:         name,
		Key:          key,
		Index:        idx,
		Type:         TypeUnknown,
		SampleValues: []string{},
	}

	unique := make(map[string]struct{})
	for _, row := range ds.Rows {
		v := CellAt(row, idx)
		if IsNull(v) {
			col.NullCount++
			continue
		}
		unique[v] = struct{}{}
		if len(col.SampleValues) < SampleSize {
			col.SampleValues = append(col.SampleValues, v)
		}
	}
	col.UniqueValueCount = len(unique)

	n := len(col.SampleValues)
	if n == 0 {
		return col
	}

	var currency, percent, numeric, boolean, date int
	for _, v := range col.SampleValues {
		if currencyPattern.MatchString(v) {
			currency++
		}
		if percentagePattern.MatchString(v) {
			percent++
		}
		if _, ok := ParseNumber(v); ok {
			numeric++
		}
		if IsBoolToken(v) {
			boolean++
		}
		if _, ok := ParseDate(v); ok {
			date++
		}
	}

	ratio := func(c int) float64 { return float64(c) / float64(n) }
	switch {
	case ratio(currency) > patternMatchThreshold:
		col.Type, col.Confidence = TypeCurrency, confidence(ratio(currency), n)
	case ratio(percent) > patternMatchThreshold:
		col.Type, col.Confidence = TypePercentage, confidence(ratio(percent), n)
	case ratio(numeric) >= parseThreshold:
		col.Type, col.Confidence = TypeNumber, confidence(ratio(numeric), n)
	case ratio(boolean) >= parseThreshold:
		col.Type, col.Confidence = TypeBoolean, confidence(ratio(boolean), n)
	case ratio(date) >= parseThreshold:
		col.Type, col.Confidence = TypeDate, confidence(ratio(date), n)
	default:
		col.Type, col.Confidence = TypeText, confidence(1-ratio(numeric), n)
	}
	return col
}

// confidence scales the match ratio down when fewer than SampleSize values
// were available.
func confidence(matchRatio float64, samples int) float64 {
	coverage := math.Min(float64(samples), SampleSize) / SampleSize
	return math.Round(matchRatio*(0.7+0.3*coverage)*100) / 100
}
