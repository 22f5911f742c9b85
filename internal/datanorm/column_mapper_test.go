package datanorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapColumns(t *testing.T) {
	m := MapColumns([]string{"Campaign Name", "Platform", "Day", "Impressions", "Link Clicks", "Amount Spent (USD)", "Results", "Notes"})

	assert.Equal(t, 0, m.CampaignIdx)
	assert.Equal(t, 1, m.PlatformIdx)
	assert.Equal(t, 2, m.DateIdx)
	assert.Equal(t, []string{"campaign", "platform", "date", "impressions", "clicks", "spend", "conversions", "notes"}, m.Keys)
}

func TestMapColumnsFirstAliasWins(t *testing.T) {
	m := MapColumns([]string{"Cost", "Spend", "Clicks", "Clicks"})

	assert.Equal(t, "spend", m.Keys[0])
	assert.Equal(t, "spend_1", m.Keys[1])
	assert.Equal(t, "clicks", m.Keys[2])
	assert.Equal(t, "clicks_3", m.Keys[3])
}

func TestMapColumnsWithoutDimensions(t *testing.T) {
	m := MapColumns([]string{"Impressions", "Clicks"})

	assert.Equal(t, -1, m.CampaignIdx)
	assert.Equal(t, -1, m.PlatformIdx)
	assert.Equal(t, -1, m.DateIdx)
}

func TestMapColumnsBlankHeader(t *testing.T) {
	m := MapColumns([]string{"", " "})
	assert.Equal(t, []string{"column", "column_1"}, m.Keys)
}

func TestCanonicalKey(t *testing.T) {
	k, ok := CanonicalKey("Purchase Value")
	assert.True(t, ok)
	assert.Equal(t, KeyRevenue, k)

	_, ok = CanonicalKey("Frequency")
	assert.False(t, ok)
}
