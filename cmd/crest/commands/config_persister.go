package commands

import (
	"sync"

	"github.com/fivetwenty-io/crest/pkg/crest"
)

// ConfigPersister implements the crest.TokenPersister interface on the CLI
// config file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateToken stores the SSO session in the config.
func (p *ConfigPersister) UpdateToken(token crest.Token) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	config.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		config.RefreshToken = token.RefreshToken
	}

	config.TokenExpiresAt = nil
	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		config.TokenExpiresAt = &expiresAt
	}

	return saveConfigStruct(config)
}
