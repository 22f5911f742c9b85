package datanorm

import "strconv"

// Canonical metric keys used by the aggregator and the derived metrics.
const (
	KeyImpressions = "impressions"
	KeyClicks      = "clicks"
	KeySpend       = "spend"
	KeyConversions = "conversions"
	KeyLeads       = "leads"
	KeyEngagements = "engagements"
	KeyRevenue     = "revenue"
	KeyReach       = "reach"
	KeySessions    = "sessions"
	KeyUsers       = "users"
	KeyPageviews   = "pageviews"
)

// Dimension fields used to locate rows.
const (
	FieldCampaign = "campaign"
	FieldPlatform = "platform"
	FieldDate     = "date"
)

// columnAliases maps normalized header names to canonical keys. Export
// vocabularies differ per platform; they all converge here.
var columnAliases = map[string]string{
	// Impressions
	"impressions":       KeyImpressions,
	"impr":              KeyImpressions,
	"imps":              KeyImpressions,
	"views":             KeyImpressions,
	"total_impressions": KeyImpressions,

	// Clicks
	"clicks":          KeyClicks,
	"link_clicks":     KeyClicks,
	"clicks_all":      KeyClicks,
	"total_clicks":    KeyClicks,
	"outbound_clicks": KeyClicks,
	"click_throughs":  KeyClicks,

	// Spend
	"spend":            KeySpend,
	"cost":             KeySpend,
	"amount_spent":     KeySpend,
	"amount_spent_usd": KeySpend,
	"amount_spent_eur": KeySpend,
	"amount_spent_gbp": KeySpend,
	"total_spent":      KeySpend,
	"total_spend":      KeySpend,
	"spend_usd":        KeySpend,
	"cost_usd":         KeySpend,
	"ad_spend":         KeySpend,

	// Conversions
	"conversions":       KeyConversions,
	"results":           KeyConversions,
	"purchases":         KeyConversions,
	"total_conversions": KeyConversions,
	"all_conv":          KeyConversions,
	"goal_completions":  KeyConversions,
	"transactions":      KeyConversions,

	// Leads
	"leads":             KeyLeads,
	"lead_form_submits": KeyLeads,
	"leads_form":        KeyLeads,
	"signups":           KeyLeads,
	"sign_ups":          KeyLeads,

	// Engagements
	"engagements":      KeyEngagements,
	"engagement":       KeyEngagements,
	"post_engagement":  KeyEngagements,
	"total_engagement": KeyEngagements,
	"interactions":     KeyEngagements,

	// Revenue
	"revenue":                    KeyRevenue,
	"purchase_value":             KeyRevenue,
	"conversion_value":           KeyRevenue,
	"conv_value":                 KeyRevenue,
	"purchases_conversion_value": KeyRevenue,
	"total_revenue":              KeyRevenue,
	"transaction_revenue":        KeyRevenue,

	// Audience / analytics
	"reach":      KeyReach,
	"sessions":   KeySessions,
	"visits":     KeySessions,
	"users":      KeyUsers,
	"visitors":   KeyUsers,
	"pageviews":  KeyPageviews,
	"page_views": KeyPageviews,

	// Dimensions
	"campaign":           FieldCampaign,
	"campaign_name":      FieldCampaign,
	"campaign_title":     FieldCampaign,
	"ad_campaign":        FieldCampaign,
	"platform":           FieldPlatform,
	"network":            FieldPlatform,
	"channel":            FieldPlatform,
	"source":             FieldPlatform,
	"publisher_platform": FieldPlatform,
	"date":               FieldDate,
	"day":                FieldDate,
	"reporting_starts":   FieldDate,
	"week":               FieldDate,
	"month":              FieldDate,
}

// ColumnMapping holds the resolved mapping from column indices to keys.
type ColumnMapping struct {
	CampaignIdx int
	PlatformIdx int
	DateIdx     int
	Keys        []string // column index -> normalized key, unique per dataset
	RawNames    []string // original header names
}

// MapColumns resolves every header to a unique normalized key. A header that
// matches an alias claims the canonical key; the first header to claim a key
// wins and later duplicates keep their own snake_case name. Collisions among
// those fall back to a "_<index>" suffix.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		CampaignIdx: -1,
		PlatformIdx: -1,
		DateIdx:     -1,
		Keys:        make([]string, len(header)),
		RawNames:    header,
	}

	taken := make(map[string]bool, len(header))
	claim := func(i int, key string) string {
		if key == "" {
			key = "column"
		}
		if taken[key] {
			key = key + "_" + strconv.Itoa(i)
		}
		taken[key] = true
		return key
	}

	// Canonical aliases first, in header order, so that a later exact alias
	// is not stolen by an earlier fallback name.
	for i, h := range header {
		normalized := NormalizeHeader(h)
		canonical, ok := columnAliases[normalized]
		if !ok || taken[canonical] {
			continue
		}
		m.Keys[i] = claim(i, canonical)
		switch canonical {
		case FieldCampaign:
			m.CampaignIdx = i
		case FieldPlatform:
			m.PlatformIdx = i
		case FieldDate:
			m.DateIdx = i
		}
	}
	for i, h := range header {
		if m.Keys[i] != "" {
			continue
		}
		m.Keys[i] = claim(i, NormalizeHeader(h))
	}

	return m
}

// CanonicalKey returns the canonical key for a raw header, if it has one.
func CanonicalKey(header string) (string, bool) {
	k, ok := columnAliases[NormalizeHeader(header)]
	return k, ok
}
