package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignDraft     CampaignStatus = "draft"
)

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignPaused, CampaignCompleted, CampaignDraft:
		return true
	}
	return false
}

// SourceKind names where a campaign's report rows come from.
type SourceKind string

const (
	SourceFile            SourceKind = "file"
	SourceS3              SourceKind = "s3"
	SourcePerformance     SourceKind = "performance"
	SourceSnowflake       SourceKind = "snowflake"
	SourceGoogleAnalytics SourceKind = "google_analytics"
)

// ReportSource configures one input of a campaign report. Location is a
// file path, S3 key or GA view id depending on Kind.
type ReportSource struct {
	Kind          SourceKind `json:"kind" validate:"required,oneof=file s3 performance snowflake google_analytics"`
	Location      string     `json:"location,omitempty"`
	Sheet         string     `json:"sheet,omitempty"`
	IntegrationID string     `json:"integration_id,omitempty"`
}

// Campaign is a marketing campaign tracked on one ad platform.
type Campaign struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Type        string         `json:"type" db:"type"`
	Platform    string         `json:"platform" db:"platform"`
	Impressions int64          `json:"impressions" db:"impressions"`
	Clicks      int64          `json:"clicks" db:"clicks"`
	Spend       string         `json:"spend" db:"spend"` // decimal string, two places max
	Status      CampaignStatus `json:"status" db:"status"`

	// Report configuration
	Targets         map[string]float64 `json:"targets,omitempty" db:"targets"`
	ConversionValue *float64           `json:"conversion_value,omitempty" db:"conversion_value"`
	Sources         []ReportSource     `json:"sources,omitempty" db:"sources"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
