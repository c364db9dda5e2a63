package auth

import (
	"sync"
	"time"
)

// TokenExpirationBuffer is subtracted from a token's expiry when deciding
// whether it can still be sent.
const TokenExpirationBuffer = 30 * time.Second

// Token is an SSO access token and the data needed to renew it.
type Token struct {
	AccessToken  string    `json:"access_token"            yaml:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"    yaml:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"    yaml:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"              yaml:"expires_at"`
}

// validAt reports whether the token can still be sent at now.
func (t *Token) validAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return now.Add(TokenExpirationBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the current token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}

	token := *s.token

	return &token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil

		return
	}

	stored := *token
	s.token = &stored
}
