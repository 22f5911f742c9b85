package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ignite/marketpulse/internal/domain"
)

type memRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Integration
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*domain.Integration{}}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *memRepo) List(_ context.Context) ([]domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Integration
	for _, in := range m.items {
		out = append(out, *in)
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, in *domain.Integration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	m.items[in.ID] = &cp
	return in.ID, nil
}

func (m *memRepo) Update(_ context.Context, id string, u UpdateFields) (*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	if u.APIKey != nil {
		in.APIKey = *u.APIKey
	}
	if u.AccountID != nil {
		in.AccountID = u.AccountID
	}
	if u.LastSync != nil {
		in.LastSync = u.LastSync
	}
	if u.AccessToken != nil {
		in.AccessToken = *u.AccessToken
	}
	if u.RefreshToken != nil {
		in.RefreshToken = *u.RefreshToken
	}
	if u.TokenExpiry != nil {
		in.TokenExpiry = u.TokenExpiry
	}
	cp := *in
	return &cp, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

var fixedNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func newService() (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestCreateMasksKey(t *testing.T) {
	svc, _ := newService()
	in, err := svc.Create(context.Background(), CreateInput{Platform: "facebook", APIKey: "EAAB-secret-9876"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntegrationDisconnected, in.Status)
	assert.Equal(t, "****9876", in.APIKeyHint)

	_, err = svc.Create(context.Background(), CreateInput{Platform: "facebook"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateConnectedStampsLastSync(t *testing.T) {
	svc, _ := newService()
	in, err := svc.Create(context.Background(), CreateInput{Platform: "linkedin", APIKey: "key-1234"})
	require.NoError(t, err)

	status := domain.IntegrationConnected
	forged := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.Update(context.Background(), in.ID, UpdateFields{Status: &status, LastSync: &forged})
	require.NoError(t, err)
	require.NotNil(t, got.LastSync)
	assert.Equal(t, fixedNow, *got.LastSync)

	status = domain.IntegrationDisconnected
	got, err = svc.Update(context.Background(), in.ID, UpdateFields{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, *got.LastSync, "disconnecting keeps the previous sync time")

	bogus := domain.IntegrationStatus("paused")
	_, err = svc.Update(context.Background(), in.ID, UpdateFields{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, repo := newService()
	in, err := svc.Create(context.Background(), CreateInput{Platform: "google_analytics", APIKey: "n/a"})
	require.NoError(t, err)

	_, err = svc.Token(context.Background(), in.ID)
	assert.ErrorIs(t, err, ErrNoToken)

	expiry := fixedNow.Add(time.Hour)
	require.NoError(t, svc.SaveToken(context.Background(), in.ID, &oauth2.Token{
		AccessToken: "ya29.access", RefreshToken: "1//refresh", Expiry: expiry,
	}, "analyst@example.com"))
	assert.Equal(t, domain.IntegrationConnected, repo.items[in.ID].Status)
	assert.Equal(t, "analyst@example.com", *repo.items[in.ID].AccountID)

	// A re-consent without a refresh token keeps the stored one.
	require.NoError(t, svc.SaveToken(context.Background(), in.ID, &oauth2.Token{AccessToken: "ya29.second"}, ""))

	tok, err := svc.Token(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, "ya29.second", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)
	assert.Equal(t, expiry, tok.Expiry)

	assert.ErrorIs(t, svc.SaveToken(context.Background(), in.ID, &oauth2.Token{}, ""), ErrInvalidInput)
}

func TestMarkErrorAndDelete(t *testing.T) {
	svc, repo := newService()
	in, err := svc.Create(context.Background(), CreateInput{Platform: "tiktok", APIKey: "k"})
	require.NoError(t, err)

	svc.MarkError(context.Background(), in.ID, errors.New("401 from platform"))
	assert.Equal(t, domain.IntegrationError, repo.items[in.ID].Status)

	require.NoError(t, svc.Delete(context.Background(), in.ID))
	_, err = svc.Get(context.Background(), in.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
