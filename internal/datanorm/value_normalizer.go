package datanorm

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
	"nil":  true,
	"n/a":  true,
	"na":   true,
	"nan":  true,
	"-":    true,
	"--":   true,
}

// IsNull reports whether a raw cell carries no value.
func IsNull(raw string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(raw))]
}

var currencyReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	",", "", " ", "", " ", "",
)

// ParseNumber parses a report cell into a float. Currency symbols, thousands
// separators and a trailing percent sign are stripped, and accounting
// negatives like "(12.50)" are accepted. ok is false for null tokens and for
// anything that does not parse to a finite number.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsNull(s) {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = currencyReplacer.Replace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// IsBoolToken reports whether the value reads as a boolean flag.
// Numeric 0/1 are left to the number classifier.
func IsBoolToken(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "false", "yes", "no", "y", "n", "t", "f":
		return true
	}
	return false
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"20060102",
}

// ParseDate tries the layouts seen in ad platform and analytics exports.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeHeader turns a raw header into a snake_case key:
// "Amount Spent (USD)" → "amount_spent_usd".
func NormalizeHeader(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'")

	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '%':
			if !lastUnderscore {
				b.WriteByte('_')
			}
			b.WriteString("pct")
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
