package campaign

import (
	"context"

	"github.com/ignite/marketpulse/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// Update applies the non-nil fields and returns the updated campaign.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Campaign, error)

	// Delete removes a campaign. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status   string
	Platform string
	Search   string
	Limit    int
	Offset   int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied. An empty, non-nil Targets or Sources clears it.
type UpdateFields struct {
	Name            *string                `json:"name" validate:"omitempty,min=1,max=200"`
	Type            *string                `json:"type" validate:"omitempty,min=1"`
	Platform        *string                `json:"platform" validate:"omitempty,min=1"`
	Spend           *string                `json:"spend" validate:"omitempty,money"`
	Impressions     *int64                 `json:"impressions" validate:"omitempty,gte=0"`
	Clicks          *int64                 `json:"clicks" validate:"omitempty,gte=0"`
	Status          *domain.CampaignStatus `json:"status" validate:"omitempty,oneof=active paused completed draft"`
	Targets         map[string]float64     `json:"targets" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
	ConversionValue *float64               `json:"conversion_value" validate:"omitempty,gt=0"`
	Sources         []domain.ReportSource  `json:"sources" validate:"omitempty,dive"`
}

// Empty reports whether no field is set.
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Type == nil && u.Platform == nil && u.Spend == nil &&
		u.Impressions == nil && u.Clicks == nil && u.Status == nil &&
		u.Targets == nil && u.ConversionValue == nil && u.Sources == nil
}
