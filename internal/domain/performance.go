package domain

import "time"

// PerformanceData is one day of platform delivery numbers.
type PerformanceData struct {
	ID          string    `json:"id" db:"id"`
	CampaignID  *string   `json:"campaign_id,omitempty" db:"campaign_id"`
	Date        string    `json:"date" db:"date"` // YYYY-MM-DD
	Impressions int64     `json:"impressions" db:"impressions"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Conversions int64     `json:"conversions" db:"conversions"`
	Spend       float64   `json:"spend" db:"spend"`
	Revenue     float64   `json:"revenue" db:"revenue"`
	Platform    *string   `json:"platform" db:"platform"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Metric is a dashboard KPI tile.
type Metric struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"value" db:"value"`
	Change    string    `json:"change" db:"change"`
	Period    string    `json:"period" db:"period"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
