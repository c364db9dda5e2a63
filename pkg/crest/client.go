package crest

import (
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an eve.Client.
//
// # Endpoints
//
// By default the Tranquility endpoints are used. Testing switches every
// endpoint to Singularity. Any non-empty endpoint override wins over both.
//
// # Authentication
//
// Anonymous clients only need the zero Config. The authorization code flow
// needs ClientID, APIKey and RedirectURI: build the URI with AuthURI, send the
// user there, then exchange the returned code with Authorize.
//
// # Caching
//
// CacheTime is the time-to-live of dereferenced resources, evaluated at
// whole-second resolution. Zero means the default of 600 seconds.
type Config struct {
	// ClientID: application client ID registered with EVE SSO.
	ClientID string
	// APIKey: application secret key, sent with ClientID as HTTP Basic
	// credentials to the token endpoint.
	APIKey string
	// RedirectURI: callback URL registered for the application.
	RedirectURI string

	// Testing selects the Singularity test server endpoints.
	Testing bool

	// PublicEndpoint overrides the anonymous API root.
	PublicEndpoint string
	// AuthedEndpoint overrides the authenticated API root.
	AuthedEndpoint string
	// OAuthEndpoint overrides the SSO base URL (".../oauth").
	OAuthEndpoint string
	// ImageServer overrides the image server base URL.
	ImageServer string

	// CacheTime: TTL of dereferenced resources.
	CacheTime time.Duration

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// AdditionalHeaders are sent with every request.
	AdditionalHeaders map[string]string
	// WeakCipherHosts lists hosts whose TLS handshake also offers the legacy
	// cipher suites. Nil means the default public CREST host; an empty,
	// non-nil slice disables the adapter.
	WeakCipherHosts []string

	// HTTPTimeout: overall timeout of a single HTTP request.
	HTTPTimeout time.Duration
	// RetryMax: retries for transient failures. Zero disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration

	// Debug: enables verbose request logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
}

// Token is an SSO access token as held by an authenticated client.
type Token struct {
	AccessToken  string    `json:"access_token"            yaml:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"              yaml:"expires_at"`
}

// TokenPersister is told about every new token an authenticated client
// obtains, so it can be stored across runs.
type TokenPersister interface {
	UpdateToken(token Token) error
}
