package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/pkg/validate"
)

// Invalidator drops cached reports for a campaign.
type Invalidator interface {
	Invalidate(ctx context.Context, namespace string) (int, error)
}

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo  Repository
	cache Invalidator
}

// NewService creates a campaign service backed by the given repository.
// cache may be nil.
func NewService(repo Repository, cache Invalidator) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name            string                `json:"name" validate:"required,min=1,max=200"`
	Type            string                `json:"type" validate:"required,min=1"`
	Platform        string                `json:"platform" validate:"required,min=1"`
	Spend           string                `json:"spend" validate:"required,money"`
	Impressions     int64                 `json:"impressions" validate:"gte=0"`
	Clicks          int64                 `json:"clicks" validate:"gte=0"`
	Status          domain.CampaignStatus `json:"status" validate:"omitempty,oneof=active paused completed draft"`
	Targets         map[string]float64    `json:"targets" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
	ConversionValue *float64              `json:"conversion_value" validate:"omitempty,gt=0"`
	Sources         []domain.ReportSource `json:"sources" validate:"omitempty,dive"`
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// Create validates and persists a new campaign. Status defaults to active.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	c := &domain.Campaign{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Type:            input.Type,
		Platform:        input.Platform,
		Impressions:     input.Impressions,
		Clicks:          input.Clicks,
		Spend:           input.Spend,
		Status:          input.Status,
		Targets:         input.Targets,
		ConversionValue: input.ConversionValue,
		Sources:         input.Sources,
	}
	if c.Status == "" {
		c.Status = domain.CampaignActive
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	logger.Info("campaign created", "campaign_id", c.ID, "platform", c.Platform)
	return c, nil
}

// Update validates and applies the non-nil fields, then drops the
// campaign's cached reports.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Campaign, error) {
	if err := validate.Struct(u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if u.Empty() {
		return s.repo.Get(ctx, id)
	}

	c, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return c, nil
}

// Delete removes a campaign and its cached reports.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("report cache invalidation failed", "campaign_id", id, "error", err)
	}
}
