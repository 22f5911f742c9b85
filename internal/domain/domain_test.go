package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignStatusValid(t *testing.T) {
	for _, s := range []CampaignStatus{CampaignActive, CampaignPaused, CampaignCompleted, CampaignDraft} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, CampaignStatus("sending").Valid())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "****", MaskKey("abc"))
	assert.Equal(t, "****wxyz", MaskKey("sk-live-abcdwxyz"))
}
