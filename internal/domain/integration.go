package domain

import "time"

// IntegrationStatus enumerates the connection states of an integration.
type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "connected"
	IntegrationDisconnected IntegrationStatus = "disconnected"
	IntegrationError        IntegrationStatus = "error"
)

// Integration is a connection to an ad platform or analytics account.
// Credentials never leave the server; APIKeyHint is the masked form.
type Integration struct {
	ID         string            `json:"id" db:"id"`
	Platform   string            `json:"platform" db:"platform"`
	Status     IntegrationStatus `json:"status" db:"status"`
	APIKey     string            `json:"-" db:"api_key"`
	APIKeyHint string            `json:"api_key,omitempty" db:"-"`
	AccountID  *string           `json:"account_id" db:"account_id"`
	LastSync   *time.Time        `json:"last_sync" db:"last_sync"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`

	// OAuth tokens for Google Analytics connections.
	AccessToken  string     `json:"-" db:"access_token"`
	RefreshToken string     `json:"-" db:"refresh_token"`
	TokenExpiry  *time.Time `json:"-" db:"token_expiry"`
}

// HasToken reports whether an OAuth refresh token is stored.
func (i *Integration) HasToken() bool {
	return i.RefreshToken != ""
}

// MaskKey keeps the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
