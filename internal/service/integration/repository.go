package integration

import (
	"context"
	"time"

	"github.com/ignite/marketpulse/internal/domain"
)

// Repository defines the data access contract for integrations.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Integration, error)
	List(ctx context.Context) ([]domain.Integration, error)
	Create(ctx context.Context, in *domain.Integration) (string, error)
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Integration, error)
	Delete(ctx context.Context, id string) error
}

// UpdateFields holds the mutable fields for an integration update.
// LastSync is set by the service, never by the client.
type UpdateFields struct {
	Status       *domain.IntegrationStatus `json:"status" validate:"omitempty,oneof=connected disconnected error"`
	APIKey       *string                   `json:"api_key" validate:"omitempty,min=1"`
	AccountID    *string                   `json:"account_id"`
	LastSync     *time.Time                `json:"-"`
	AccessToken  *string                   `json:"-"`
	RefreshToken *string                   `json:"-"`
	TokenExpiry  *time.Time                `json:"-"`
}
