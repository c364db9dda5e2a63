package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrNoRefreshToken     = errors.New("no refresh token available")
	ErrNoAccessToken      = errors.New("token response carries no access token")
	ErrNoPoster           = errors.New("no token endpoint transport configured")
)

// FormPoster sends a form-encoded POST and returns the response body. A
// non-success status must be reported as an error.
type FormPoster interface {
	PostForm(ctx context.Context, url string, form url.Values, headers map[string]string) ([]byte, error)
}

// TokenManager supplies access tokens to the transport.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	Token() *Token
}

// OAuth2Config configures the SSO authorization code flow.
type OAuth2Config struct {
	// OAuthEndpoint is the SSO base URL, e.g. "https://login.eveonline.com/oauth".
	OAuthEndpoint string
	ClientID      string
	APIKey        string
	RedirectURI   string

	// Optional token to start from.
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenURL returns the token endpoint.
func (c *OAuth2Config) TokenURL() string {
	return strings.TrimSuffix(c.OAuthEndpoint, "/") + "/token"
}

// VerifyURL returns the token verification endpoint.
func (c *OAuth2Config) VerifyURL() string {
	return strings.TrimSuffix(c.OAuthEndpoint, "/") + "/verify"
}

// AuthURI builds the authorize URL the user is sent to. Scopes are joined
// with commas; empty scopes and state are left out.
func (c *OAuth2Config) AuthURI(scopes []string, state string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSuffix(c.OAuthEndpoint, "/"))
	b.WriteString("/authorize?response_type=code&redirect_uri=")
	b.WriteString(escapeAll(c.RedirectURI))
	b.WriteString("&client_id=")
	b.WriteString(c.ClientID)

	if len(scopes) > 0 {
		b.WriteString("&scope=")
		b.WriteString(strings.Join(scopes, ","))
	}

	if state != "" {
		b.WriteString("&state=")
		b.WriteString(state)
	}

	return b.String()
}

// escapeAll percent-escapes everything but unreserved characters.
func escapeAll(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// BasicAuthorization returns the Authorization header value for the token endpoint.
func (c *OAuth2Config) BasicAuthorization() string {
	creds := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.APIKey))

	return "Basic " + creds
}

// OAuth2TokenManager exchanges authorization codes and refreshes tokens.
type OAuth2TokenManager struct {
	config *OAuth2Config
	poster FormPoster
	store  *TokenStore
	mu     sync.Mutex
	now    func() time.Time
}

// NewOAuth2TokenManager creates a token manager. poster performs the token
// endpoint requests and may be nil for managers holding a fixed token.
func NewOAuth2TokenManager(config *OAuth2Config, poster FormPoster) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		poster: poster,
		store:  NewTokenStore(),
		now:    time.Now,
	}

	if config.AccessToken != "" || config.RefreshToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "bearer",
			ExpiresAt:    config.ExpiresAt,
		})
	}

	return manager
}

// Config returns the manager's configuration.
func (m *OAuth2TokenManager) Config() *OAuth2Config {
	return m.config
}

// Token returns a copy of the current token, or nil.
func (m *OAuth2TokenManager) Token() *Token {
	return m.store.Get()
}

// GetToken returns a valid access token, refreshing it first when it has
// expired and a refresh token is available.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.store.Get()
	if token.validAt(m.now()) {
		return token.AccessToken, nil
	}

	if token == nil || token.RefreshToken == "" {
		return "", ErrNoValidCredentials
	}

	refreshed, err := m.refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

// Exchange trades an authorization code for a token and stores it.
func (m *OAuth2TokenManager) Exchange(ctx context.Context, code string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	form := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}

	token, err := m.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	m.store.Set(token)

	return token, nil
}

// RefreshToken forces a refresh with the stored refresh token.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.store.Get()
	if token == nil || token.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	_, err := m.refresh(ctx, token.RefreshToken)

	return err
}

func (m *OAuth2TokenManager) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	token, err := m.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	// SSO may omit the refresh token on refresh; the old one stays valid.
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	m.store.Set(token)

	return token, nil
}

func (m *OAuth2TokenManager) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	if m.poster == nil {
		return nil, ErrNoPoster
	}

	headers := map[string]string{
		"Authorization": m.config.BasicAuthorization(),
	}

	body, err := m.poster.PostForm(ctx, m.config.TokenURL(), form, headers)
	if err != nil {
		return nil, err
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	if token.TokenType == "" {
		token.TokenType = "bearer"
	}

	token.ExpiresAt = time.Time{}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = m.now().Round(time.Second).Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
