package helloasso

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"helloasso-export/internal/domain"
)

const (
	// DefaultSafetyMargin is subtracted from the token lifetime so a token
	// never expires between the cache check and the request that uses it.
	DefaultSafetyMargin = 60 * time.Second

	tokenRequestTimeout = 10 * time.Second
)

// TokenSource supplies a bearer token for payments API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenManager obtains an OAuth2 client-credentials token and caches it in
// memory for the token lifetime minus a safety margin. Safe for concurrent
// use.
type TokenManager struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	safetyMargin time.Duration
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager creates a token manager for the given token endpoint.
// A nil client gets a default with a request timeout; a non-positive margin
// falls back to DefaultSafetyMargin.
func NewTokenManager(client *http.Client, tokenURL, clientID, clientSecret string, safetyMargin time.Duration) *TokenManager {
	if client == nil {
		client = &http.Client{Timeout: tokenRequestTimeout}
	}
	if safetyMargin <= 0 {
		safetyMargin = DefaultSafetyMargin
	}
	return &TokenManager{
		httpClient:   client,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		safetyMargin: safetyMargin,
		now:          time.Now,
	}
}

// Token returns a valid access token, fetching a new one only when the cached
// token is missing or past its safety-adjusted expiry. Token endpoint
// failures are AuthError and are not retried.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}

	token, expiresIn, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}
	m.token = token
	m.expiresAt = m.now().Add(time.Duration(expiresIn)*time.Second - m.safetyMargin)
	return m.token, nil
}

func (m *TokenManager) fetch(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, domain.Errorf(domain.KindAuth, "build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", 0, domain.Errorf(domain.KindAuth, "token request: %w", err)
	}
	defer resp.Body.Close()

	// Status only: the error body could echo request parameters.
	if resp.StatusCode != http.StatusOK {
		return "", 0, domain.Errorf(domain.KindAuth, "token request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, domain.Errorf(domain.KindAuth, "read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, domain.Errorf(domain.KindAuth, "decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, domain.Errorf(domain.KindAuth, "token response carries no access_token")
	}
	return tr.AccessToken, tr.ExpiresIn, nil
}
