package commands

import (
	"context"
	"time"

	"github.com/fivetwenty-io/crest/pkg/crest"
	"github.com/fivetwenty-io/crest/pkg/eve"
	"github.com/spf13/viper"
)

// buildCrestConfig maps the CLI configuration onto the library's.
func buildCrestConfig(ctx context.Context, config *Config) *crest.Config {
	return &crest.Config{
		ClientID:       config.ClientID,
		APIKey:         config.APIKey,
		RedirectURI:    config.RedirectURI,
		Testing:        config.Testing,
		PublicEndpoint: config.PublicEndpoint,
		AuthedEndpoint: config.AuthedEndpoint,
		OAuthEndpoint:  config.OAuthEndpoint,
		CacheTime:      time.Duration(config.CacheTime) * time.Second,
		Debug:          viper.GetBool("verbose"),
		Logger:         newLogAdapter(loggerFromContext(ctx)),
	}
}

// newClient returns an authenticated client when the config holds an SSO
// session and an anonymous one otherwise. Refreshed tokens are written back to
// the config file.
func newClient(ctx context.Context, config *Config) (*eve.Client, error) {
	crestConfig := buildCrestConfig(ctx, config)

	if !hasSession(config) {
		return eve.New(crestConfig)
	}

	token := crest.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
	}

	if config.TokenExpiresAt != nil {
		token.ExpiresAt = *config.TokenExpiresAt
	}

	return eve.NewAuthed(crestConfig, token, eve.WithTokenPersister(NewConfigPersister()))
}

func hasSession(config *Config) bool {
	return config.AccessToken != "" || config.RefreshToken != ""
}
