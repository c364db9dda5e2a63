package constants

import "time"

// Version is the library version reported in the default User-Agent.
const Version = "0.3.0"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Tranquility endpoints.
const (
	// PublicEndpoint is the anonymous API root.
	PublicEndpoint = "https://public-crest.eveonline.com/"

	// AuthedEndpoint is the authenticated API root.
	AuthedEndpoint = "https://crest-tq.eveonline.com/"

	// ImageServer is the image server base URL.
	ImageServer = "https://image.eveonline.com/"

	// OAuthEndpoint is the SSO base URL.
	OAuthEndpoint = "https://login.eveonline.com/oauth"
)

// Singularity (test server) endpoints.
const (
	// TestPublicEndpoint is the anonymous API root on Singularity.
	TestPublicEndpoint = "http://public-crest-sisi.testeveonline.com/"

	// TestAuthedEndpoint is the authenticated API root on Singularity.
	TestAuthedEndpoint = "https://api-sisi.testeveonline.com/"

	// TestImageServer is the image server base URL on Singularity.
	TestImageServer = "https://image.testeveonline.com/"

	// TestOAuthEndpoint is the SSO base URL on Singularity.
	TestOAuthEndpoint = "https://sisilogin.testeveonline.com/oauth"
)

// WeakCipherHost is served by the legacy TLS adapter unless configured otherwise.
const WeakCipherHost = "public-crest.eveonline.com"

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Caching.
const (
	// DefaultCacheTime is how long dereferenced resources stay fresh.
	DefaultCacheTime = 600 * time.Second
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)
