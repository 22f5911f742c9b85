package analytics

import (
	"sort"
	"strings"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// MatchMethod records which cascade step produced a MatchResult.
type MatchMethod string

const (
	MatchNameAndPlatform MatchMethod = "name_and_platform"
	MatchPlatformOnly    MatchMethod = "platform_only"
	MatchAllRows         MatchMethod = "all_rows"
)

// platformOrder fixes the lookup order for CanonicalPlatform. More specific
// platforms come first so "google analytics" is not read as Google Ads.
var platformOrder = []string{
	"google_analytics",
	"google_ads",
	"youtube",
	"instagram",
	"facebook",
	"linkedin",
	"twitter",
	"tiktok",
	"microsoft_ads",
	"snapchat",
	"pinterest",
}

// platformKeywords maps a canonical platform id to the substrings that
// identify it in an export's platform column. Keywords of up to
// shortKeyword bytes only match as whole words.
var platformKeywords = map[string][]string{
	"facebook":         {"facebook", "fb", "meta"},
	"instagram":        {"instagram", "insta"},
	"google_ads":       {"google ads", "google_ads", "googleads", "adwords", "google"},
	"google_analytics": {"google analytics", "google_analytics", "googleanalytics", "ga4"},
	"linkedin":         {"linkedin", "linked in", "linkedin ads"},
	"twitter":          {"twitter", "x ads", "x.com"},
	"tiktok":           {"tiktok", "tik tok"},
	"microsoft_ads":    {"microsoft", "bing"},
	"snapchat":         {"snapchat", "snap"},
	"pinterest":        {"pinterest"},
	"youtube":          {"youtube"},
}

const shortKeyword = 5

// platformAliases maps alternative ids onto canonical ones.
var platformAliases = map[string]string{
	"meta":         "facebook",
	"fb":           "facebook",
	"ig":           "instagram",
	"google":       "google_ads",
	"adwords":      "google_ads",
	"ga":           "google_analytics",
	"ga4":          "google_analytics",
	"x":            "twitter",
	"bing":         "microsoft_ads",
	"microsoft":    "microsoft_ads",
	"linkedin_ads": "linkedin",
	"facebook_ads": "facebook",
	"tiktok_ads":   "tiktok",
}

// PlatformKeywords returns the substrings that identify platformID.
// Unknown ids match on themselves.
func PlatformKeywords(platformID string) []string {
	id := normalizePlatformID(platformID)
	if id == "" {
		return nil
	}
	if kws, ok := platformKeywords[id]; ok {
		return kws
	}
	spaced := strings.ReplaceAll(id, "_", " ")
	if spaced == id {
		return []string{id}
	}
	return []string{id, spaced}
}

// CanonicalPlatform maps a free-form platform cell ("Facebook Ads",
// "LinkedIn") to a canonical id. Unknown labels come back lower-cased.
func CanonicalPlatform(label string) string {
	v := strings.ToLower(strings.TrimSpace(label))
	if v == "" {
		return ""
	}
	if id, ok := platformAliases[v]; ok {
		return id
	}
	for _, id := range platformOrder {
		if containsAny(v, platformKeywords[id]) {
			return id
		}
	}
	return v
}

func normalizePlatformID(platformID string) string {
	id := strings.ToLower(strings.TrimSpace(platformID))
	id = strings.ReplaceAll(id, " ", "_")
	if canonical, ok := platformAliases[id]; ok {
		return canonical
	}
	return id
}

// MatchOptions pins the campaign and platform columns. Nil fields are
// detected from the headers.
type MatchOptions struct {
	CampaignColumn *int
	PlatformColumn *int
}

// MatchResult is the campaign's slice of a dataset.
type MatchResult struct {
	Method               MatchMethod `json:"method"`
	Rows                 [][]string  `json:"-"`
	RowIndices           []int       `json:"row_indices"`
	MatchedIdentifiers   []string    `json:"matched_identifiers"`
	UnmatchedIdentifiers []string    `json:"unmatched_identifiers"`
}

// Count returns the number of matched rows.
func (r MatchResult) Count() int { return len(r.RowIndices) }

// Degraded reports whether the strict name-and-platform match failed.
func (r MatchResult) Degraded() bool { return r.Method != MatchNameAndPlatform }

// MatchRows selects the rows belonging to a campaign on a platform. It tries
// name_and_platform, then platform_only, then all_rows, stopping at the first
// strategy that yields any row, so exports with inconsistent naming still
// produce a report.
func MatchRows(ds *datanorm.Dataset, campaignName, platformID string, opts MatchOptions) MatchResult {
	campaignIdx, platformIdx := resolveColumns(ds, opts)
	onPlatform := platformFilter(platformID)
	target := strings.ToLower(strings.TrimSpace(campaignName))

	var platformRows []int
	if platformIdx >= 0 && onPlatform != nil {
		for i, row := range ds.Rows {
			if onPlatform(datanorm.CellAt(row, platformIdx)) {
				platformRows = append(platformRows, i)
			}
		}
	}

	// Identifier feedback covers the platform's rows, or every row when the
	// platform matched nothing.
	population := platformRows
	if len(population) == 0 {
		population = allIndices(len(ds.Rows))
	}
	matchedIDs, unmatchedIDs := splitIdentifiers(ds, population, campaignIdx, target)

	result := MatchResult{
		MatchedIdentifiers:   matchedIDs,
		UnmatchedIdentifiers: unmatchedIDs,
	}

	if campaignIdx >= 0 && target != "" {
		var both []int
		for _, i := range platformRows {
			if nameMatches(datanorm.CellAt(ds.Rows[i], campaignIdx), target) {
				both = append(both, i)
			}
		}
		if len(both) > 0 {
			return result.with(ds, MatchNameAndPlatform, both)
		}
	}
	if len(platformRows) > 0 {
		return result.with(ds, MatchPlatformOnly, platformRows)
	}
	return result.with(ds, MatchAllRows, allIndices(len(ds.Rows)))
}

// platformFilter returns the test a platform cell must pass. Cells of a known
// platform must resolve to it through CanonicalPlatform, so "Google
// Analytics" is never a Google Ads row. Unknown ids match on their keywords.
func platformFilter(platformID string) func(cell string) bool {
	id := normalizePlatformID(platformID)
	if id == "" {
		return nil
	}
	if _, known := platformKeywords[id]; known {
		return func(cell string) bool { return CanonicalPlatform(cell) == id }
	}
	keywords := PlatformKeywords(id)
	return func(cell string) bool {
		c := strings.ToLower(cell)
		return c != "" && containsAny(c, keywords)
	}
}

func (r MatchResult) with(ds *datanorm.Dataset, method MatchMethod, indices []int) MatchResult {
	r.Method = method
	r.RowIndices = indices
	r.Rows = make([][]string, len(indices))
	for i, idx := range indices {
		r.Rows[i] = ds.Rows[idx]
	}
	return r
}

// SpendByPlatform totals spend per canonical platform for the rows naming
// the campaign (every row when no campaign column or name is available).
// It returns nil when the dataset has no platform or spend column.
func SpendByPlatform(ds *datanorm.Dataset, campaignName string, opts MatchOptions) map[string]float64 {
	campaignIdx, platformIdx := resolveColumns(ds, opts)
	spendIdx := -1
	for i, key := range datanorm.MapColumns(ds.Headers).Keys {
		if key == datanorm.KeySpend {
			spendIdx = i
			break
		}
	}
	if platformIdx < 0 || spendIdx < 0 {
		return nil
	}

	target := strings.ToLower(strings.TrimSpace(campaignName))
	filterByName := campaignIdx >= 0 && target != ""

	spend := make(map[string]float64)
	for _, row := range ds.Rows {
		if filterByName && !nameMatches(datanorm.CellAt(row, campaignIdx), target) {
			continue
		}
		platform := CanonicalPlatform(datanorm.CellAt(row, platformIdx))
		if platform == "" {
			continue
		}
		v, ok := datanorm.ParseNumber(datanorm.CellAt(row, spendIdx))
		if !ok || v <= 0 {
			continue
		}
		spend[platform] += v
	}
	return spend
}

func resolveColumns(ds *datanorm.Dataset, opts MatchOptions) (campaignIdx, platformIdx int) {
	campaignIdx, platformIdx = -1, -1
	if opts.CampaignColumn == nil || opts.PlatformColumn == nil {
		m := datanorm.MapColumns(ds.Headers)
		campaignIdx, platformIdx = m.CampaignIdx, m.PlatformIdx
	}
	if opts.CampaignColumn != nil {
		campaignIdx = validIndex(*opts.CampaignColumn, ds.Width())
	}
	if opts.PlatformColumn != nil {
		platformIdx = validIndex(*opts.PlatformColumn, ds.Width())
	}
	return campaignIdx, platformIdx
}

func validIndex(idx, width int) int {
	if idx < 0 || idx >= width {
		return -1
	}
	return idx
}

func splitIdentifiers(ds *datanorm.Dataset, population []int, campaignIdx int, target string) (matched, unmatched []string) {
	matched, unmatched = []string{}, []string{}
	if campaignIdx < 0 {
		return matched, unmatched
	}
	seen := make(map[string]bool)
	for _, i := range population {
		name := datanorm.CellAt(ds.Rows[i], campaignIdx)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if target != "" && nameMatches(name, target) {
			matched = append(matched, name)
		} else {
			unmatched = append(unmatched, name)
		}
	}
	sort.Strings(matched)
	sort.Strings(unmatched)
	return matched, unmatched
}

// nameMatches is a case-insensitive substring test in either direction;
// target must already be lower-cased. Empty values never match.
func nameMatches(cell, target string) bool {
	c := strings.ToLower(strings.TrimSpace(cell))
	if c == "" || target == "" {
		return false
	}
	return strings.Contains(c, target) || strings.Contains(target, c)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if len(sub) <= shortKeyword {
			if containsWord(s, sub) {
				return true
			}
			continue
		}
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in s bounded by non-alphanumerics,
// so "meta" matches "Meta Ads" but not "Metadata".
func containsWord(s, word string) bool {
	for from := 0; from+len(word) <= len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(word)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
