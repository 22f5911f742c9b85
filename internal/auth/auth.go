// Package auth connects Google Analytics accounts to integrations through
// the Google OAuth consent flow.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/marketpulse/internal/config"
	"github.com/ignite/marketpulse/internal/pkg/logger"
)

const (
	stateCookie       = "oauth_state"
	integrationCookie = "oauth_integration"
	stateMaxAge       = 300 // seconds

	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrNotConfigured is returned when no OAuth client credentials are set.
var ErrNotConfigured = errors.New("google oauth client is not configured")

// TokenStore persists the token of a completed consent.
type TokenStore interface {
	SaveToken(ctx context.Context, integrationID string, tok *oauth2.Token, account string) error
}

// GoogleUserInfo represents the user info returned by Google
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleConnector runs the offline-access consent flow for Google Analytics
// and hands out refreshing token sources for stored tokens.
type GoogleConnector struct {
	oauth2Config *oauth2.Config
	store        TokenStore
	userInfoURL  string
	successURL   string
}

// NewGoogleConnector builds a connector from config. It fails when the
// client id or secret is missing.
func NewGoogleConnector(cfg config.GoogleConfig, store TokenStore) (*GoogleConnector, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return &GoogleConnector{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		store:       store,
		userInfoURL: userInfoURL,
		successURL:  "/",
	}, nil
}

// generateState creates a random state string for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConsentURL is the Google consent page for state. Offline access with
// select_account lets a user pick which Google account to connect and
// yields a refresh token.
func (g *GoogleConnector) ConsentURL(state string) string {
	return g.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for a token.
func (g *GoogleConnector) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}
	tok, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return tok, nil
}

// TokenSource refreshes tok as it expires.
func (g *GoogleConnector) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return g.oauth2Config.TokenSource(ctx, tok)
}

// Client is an HTTP client that authorizes requests with tok.
func (g *GoogleConnector) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, g.TokenSource(ctx, tok))
}

// HandleLogin starts the consent flow for ?integration_id=.
func (g *GoogleConnector) HandleLogin(w http.ResponseWriter, r *http.Request) {
	integrationID := r.URL.Query().Get("integration_id")
	if integrationID == "" {
		http.Error(w, "integration_id is required", http.StatusBadRequest)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	for name, value := range map[string]string{stateCookie: state, integrationCookie: integrationID} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   stateMaxAge,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, g.ConsentURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback verifies state, exchanges the code and stores the token on
// the integration chosen at login.
func (g *GoogleConnector) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.With("component", "auth")

	state, err := r.Cookie(stateCookie)
	if err != nil || !sameString(state.Value, r.URL.Query().Get("state")) {
		log.Warn("oauth state mismatch")
		g.fail(w, r, "invalid_state")
		return
	}
	target, err := r.Cookie(integrationCookie)
	if err != nil || target.Value == "" {
		g.fail(w, r, "missing_integration")
		return
	}
	clearCookies(w)

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		log.Warn("google returned error", "error", errMsg)
		g.fail(w, r, errMsg)
		return
	}

	tok, err := g.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error("code exchange failed", "error", err)
		g.fail(w, r, "exchange_failed")
		return
	}

	var account string
	if info, err := g.userInfo(r.Context(), tok); err != nil {
		log.Warn("user info unavailable", "error", err)
	} else {
		account = info.Email
	}

	if err := g.store.SaveToken(r.Context(), target.Value, tok, account); err != nil {
		log.Error("saving token failed", "integration_id", target.Value, "error", err)
		g.fail(w, r, "save_failed")
		return
	}
	log.Info("google analytics connected", "integration_id", target.Value, "email", account)
	http.Redirect(w, r, g.successURL+"?connected="+url.QueryEscape(target.Value), http.StatusTemporaryRedirect)
}

func (g *GoogleConnector) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, g.successURL+"?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}

func clearCookies(w http.ResponseWriter) {
	for _, name := range []string{stateCookie, integrationCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

func sameString(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// userInfo fetches the connected account's profile
func (g *GoogleConnector) userInfo(ctx context.Context, tok *oauth2.Token) (*GoogleUserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API error: %s", strings.TrimSpace(string(body)))
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &info, nil
}

// ValidateCredentials performs a lightweight check against Google's token
// endpoint to verify the OAuth client ID and secret are valid. This catches
// stale or rotated credentials at boot instead of at first connection.
func (g *GoogleConnector) ValidateCredentials(ctx context.Context, client *http.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	vals := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"validation_probe"},
		"client_id":     {g.oauth2Config.ClientID},
		"client_secret": {g.oauth2Config.ClientSecret},
		"redirect_uri":  {g.oauth2Config.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauth2Config.Endpoint.TokenURL, strings.NewReader(vals.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	bodyStr := string(body)

	// The probe code is always rejected; invalid_grant means the client itself is fine.
	if strings.Contains(bodyStr, "invalid_grant") || strings.Contains(bodyStr, "invalid_request") || strings.Contains(bodyStr, "redirect_uri_mismatch") {
		return nil
	}
	if strings.Contains(bodyStr, "invalid_client") {
		return fmt.Errorf("google oauth credentials rejected (client %s)", logger.RedactSecret(g.oauth2Config.ClientID))
	}
	return fmt.Errorf("unexpected response from Google token endpoint (HTTP %d): %s", resp.StatusCode, bodyStr)
}
