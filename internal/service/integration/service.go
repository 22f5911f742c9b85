package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/pkg/validate"
)

// Service implements integration business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an integration service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput holds the fields for connecting a new integration.
type CreateInput struct {
	Platform  string  `json:"platform" validate:"required,min=1"`
	APIKey    string  `json:"api_key" validate:"required,min=1"`
	AccountID *string `json:"account_id"`
}

// Get returns a single integration with its key masked.
func (s *Service) Get(ctx context.Context, id string) (*domain.Integration, error) {
	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.APIKeyHint = domain.MaskKey(in.APIKey)
	return in, nil
}

// List returns all integrations with keys masked.
func (s *Service) List(ctx context.Context) ([]domain.Integration, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].APIKeyHint = domain.MaskKey(list[i].APIKey)
	}
	return list, nil
}

// Create validates and stores a new integration in the disconnected state.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Integration, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	in := &domain.Integration{
		ID:        uuid.New().String(),
		Platform:  input.Platform,
		Status:    domain.IntegrationDisconnected,
		APIKey:    input.APIKey,
		AccountID: input.AccountID,
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	in.ID = id
	in.APIKeyHint = domain.MaskKey(in.APIKey)
	return in, nil
}

// Update applies the client-editable fields. Moving to connected stamps
// LastSync.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Integration, error) {
	if err := validate.Struct(u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	u.LastSync, u.AccessToken, u.RefreshToken, u.TokenExpiry = nil, nil, nil, nil
	if u.Status != nil && *u.Status == domain.IntegrationConnected {
		now := s.now().UTC()
		u.LastSync = &now
	}

	in, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	in.APIKeyHint = domain.MaskKey(in.APIKey)
	return in, nil
}

// Delete removes an integration.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SaveToken stores the OAuth token from a completed consent flow and marks
// the integration connected. account, when known, replaces the account id.
func (s *Service) SaveToken(ctx context.Context, id string, tok *oauth2.Token, account string) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidInput)
	}
	now := s.now().UTC()
	status := domain.IntegrationConnected
	u := UpdateFields{
		Status:      &status,
		LastSync:    &now,
		AccessToken: &tok.AccessToken,
	}
	// Google only returns a refresh token on first consent.
	if tok.RefreshToken != "" {
		u.RefreshToken = &tok.RefreshToken
	}
	if account != "" {
		u.AccountID = &account
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		u.TokenExpiry = &exp
	}
	if _, err := s.repo.Update(ctx, id, u); err != nil {
		return err
	}
	logger.Info("integration connected", "integration_id", id)
	return nil
}

// Token returns the stored OAuth token for an integration.
func (s *Service) Token(ctx context.Context, id string) (*oauth2.Token, error) {
	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.HasToken() {
		return nil, ErrNoToken
	}
	tok := &oauth2.Token{
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		TokenType:    "Bearer",
	}
	if in.TokenExpiry != nil {
		tok.Expiry = *in.TokenExpiry
	}
	return tok, nil
}

// MarkError records a failed sync so the dashboard shows the integration
// needs attention.
func (s *Service) MarkError(ctx context.Context, id string, cause error) {
	status := domain.IntegrationError
	if _, err := s.repo.Update(ctx, id, UpdateFields{Status: &status}); err != nil {
		logger.Warn("could not mark integration error", "integration_id", id, "error", err)
		return
	}
	logger.Warn("integration sync failed", "integration_id", id, "error", cause)
}
