package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	UpdateToken(token *Token) error
}

// ConfigTokenManager wraps OAuth2TokenManager and automatically persists tokens to config.
type ConfigTokenManager struct {
	oauth2Manager   *OAuth2TokenManager
	configPersister ConfigPersister
	mutex           sync.Mutex
	lastToken       string
	lastRefresh     string
	lastExpiry      time.Time
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(config *OAuth2Config, poster FormPoster, configPersister ConfigPersister) *ConfigTokenManager {
	return &ConfigTokenManager{
		oauth2Manager:   NewOAuth2TokenManager(config, poster),
		configPersister: configPersister,
		lastToken:       config.AccessToken,
		lastRefresh:     config.RefreshToken,
		lastExpiry:      config.ExpiresAt,
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a token refresh.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// Exchange trades an authorization code for a token and persists it.
func (m *ConfigTokenManager) Exchange(ctx context.Context, code string) (*Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, err := m.oauth2Manager.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	m.persistIfChanged()

	return token, nil
}

// SetClock replaces the time source used for expiry decisions.
func (m *ConfigTokenManager) SetClock(now func() time.Time) {
	m.oauth2Manager.now = now
}

// Token returns a copy of the current token, or nil.
func (m *ConfigTokenManager) Token() *Token {
	return m.oauth2Manager.Token()
}

// persistIfChanged writes the token back when it differs from the last one seen.
func (m *ConfigTokenManager) persistIfChanged() {
	current := m.oauth2Manager.store.Get()
	if current == nil {
		return
	}

	if current.AccessToken == m.lastToken &&
		current.RefreshToken == m.lastRefresh &&
		current.ExpiresAt.Equal(m.lastExpiry) {
		return
	}

	if m.configPersister != nil {
		err := m.persistToken(current)
		if err != nil {
			// Log error but don't fail the request
			_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist refreshed token: %v\n", err)
		}
	}

	m.lastToken = current.AccessToken
	m.lastRefresh = current.RefreshToken
	m.lastExpiry = current.ExpiresAt
}

// persistToken saves the token to config.
func (m *ConfigTokenManager) persistToken(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateToken(token)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	return nil
}
