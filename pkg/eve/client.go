// Package eve provides the main entry point for creating CREST API clients
package eve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/fivetwenty-io/crest/internal/auth"
	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/fivetwenty-io/crest/internal/http"
	"github.com/fivetwenty-io/crest/pkg/crest"
)

// Endpoints are the base URLs a client talks to.
type Endpoints struct {
	Public string `json:"public" yaml:"public"`
	Authed string `json:"authed" yaml:"authed"`
	Image  string `json:"image"  yaml:"image"`
	OAuth  string `json:"oauth"  yaml:"oauth"`
}

// Character is the answer of the SSO verify endpoint.
type Character struct {
	CharacterID        int64  `json:"CharacterID"        yaml:"character_id"`
	CharacterName      string `json:"CharacterName"      yaml:"character_name"`
	ExpiresOn          string `json:"ExpiresOn"          yaml:"expires_on"`
	Scopes             string `json:"Scopes"             yaml:"scopes"`
	TokenType          string `json:"TokenType"          yaml:"token_type"`
	CharacterOwnerHash string `json:"CharacterOwnerHash" yaml:"character_owner_hash"`
}

// Client is a CREST connection. Without a token it reads the public API;
// with one, obtained from Authorize or NewAuthed, it reads the authenticated
// API and can refresh its token and identify its character.
//
// Client implements crest.Connection, so every node of a graph it returns
// dereferences through it.
type Client struct {
	config    *crest.Config
	endpoints Endpoints
	oauth     *auth.OAuth2Config
	session   *http.Client
	api       *http.Client
	tokens    auth.TokenManager
	persister crest.TokenPersister
	logger    crest.Logger
	cacheTime time.Duration
	endpoint  string
	now       func() time.Time

	rootMu sync.Mutex
	root   *crest.Node

	whoamiMu sync.Mutex
	whoami   *Character
}

// Option configures a Client.
type Option func(*Client)

// WithTokenPersister stores every token the client obtains.
func WithTokenPersister(persister crest.TokenPersister) Option {
	return func(c *Client) {
		c.persister = persister
	}
}

// WithClock replaces the time source used for cache and token decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates an anonymous client.
func New(config *crest.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, crest.ErrConfigRequired
	}

	if config.CacheTime < 0 {
		return nil, crest.ErrInvalidCacheTime
	}

	cacheTime := config.CacheTime
	if cacheTime == 0 {
		cacheTime = constants.DefaultCacheTime
	}

	endpoints := resolveEndpoints(config)

	client := &Client{
		config:    config,
		endpoints: endpoints,
		oauth: &auth.OAuth2Config{
			OAuthEndpoint: endpoints.OAuth,
			ClientID:      config.ClientID,
			APIKey:        config.APIKey,
			RedirectURI:   config.RedirectURI,
		},
		session:   http.NewClient("", nil, createHTTPClientOptions(config)...),
		logger:    config.Logger,
		cacheTime: cacheTime,
		endpoint:  endpoints.Public,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.api = client.session

	return client, nil
}

// NewAuthed creates a client that resumes an SSO session from a stored token.
// The token is refreshed on demand once it expires.
func NewAuthed(config *crest.Config, token crest.Token, opts ...Option) (*Client, error) {
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, crest.ErrNotAuthenticated
	}

	client, err := New(config, opts...)
	if err != nil {
		return nil, err
	}

	oauthConfig := *client.oauth
	oauthConfig.AccessToken = token.AccessToken
	oauthConfig.RefreshToken = token.RefreshToken
	oauthConfig.ExpiresAt = token.ExpiresAt

	return client.withTokens(client.newTokenManager(&oauthConfig)), nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *crest.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if len(config.AdditionalHeaders) > 0 {
		httpOpts = append(httpOpts, http.WithHeaders(config.AdditionalHeaders))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	weakHosts := config.WeakCipherHosts
	if weakHosts == nil {
		weakHosts = []string{constants.WeakCipherHost}
	}

	httpOpts = append(httpOpts, http.WithWeakCipherHosts(weakHosts...))

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

func resolveEndpoints(config *crest.Config) Endpoints {
	endpoints := Endpoints{
		Public: constants.PublicEndpoint,
		Authed: constants.AuthedEndpoint,
		Image:  constants.ImageServer,
		OAuth:  constants.OAuthEndpoint,
	}

	if config.Testing {
		endpoints = Endpoints{
			Public: constants.TestPublicEndpoint,
			Authed: constants.TestAuthedEndpoint,
			Image:  constants.TestImageServer,
			OAuth:  constants.TestOAuthEndpoint,
		}
	}

	if config.PublicEndpoint != "" {
		endpoints.Public = config.PublicEndpoint
	}

	if config.AuthedEndpoint != "" {
		endpoints.Authed = config.AuthedEndpoint
	}

	if config.ImageServer != "" {
		endpoints.Image = config.ImageServer
	}

	if config.OAuthEndpoint != "" {
		endpoints.OAuth = config.OAuthEndpoint
	}

	return endpoints
}

// Endpoints returns the resolved base URLs.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Endpoint returns the API root this client reads.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Authenticated reports whether the client carries a token.
func (c *Client) Authenticated() bool {
	return c.tokens != nil
}

// Get fetches href and decodes the JSON document.
func (c *Client) Get(ctx context.Context, href string) (any, error) {
	return c.GetWithParams(ctx, href, nil)
}

// GetWithParams fetches href with extra query parameters.
func (c *Client) GetWithParams(ctx context.Context, href string, params url.Values) (any, error) {
	if c.logger != nil {
		c.logger.Debug("Getting resource", map[string]interface{}{"url": href})
	}

	return c.api.GetJSON(ctx, href, params)
}

// CacheTime returns how long dereferenced resources stay fresh.
func (c *Client) CacheTime() time.Duration {
	return c.cacheTime
}

// Now implements crest.Clock.
func (c *Client) Now() time.Time {
	return c.now()
}

// Root fetches the API root on first use and keeps it for the lifetime of
// the client.
func (c *Client) Root(ctx context.Context) (*crest.Node, error) {
	c.rootMu.Lock()
	defer c.rootMu.Unlock()

	if c.root != nil {
		return c.root, nil
	}

	doc, err := c.Get(ctx, c.endpoint)
	if err != nil {
		return nil, err
	}

	root, err := crest.WrapNode(doc, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crest.ErrUnexpectedRoot, err)
	}

	c.root = root

	return root, nil
}

// Lookup walks a dotted path from the root without dereferencing.
func (c *Client) Lookup(ctx context.Context, path string) (crest.Value, error) {
	root, err := c.Root(ctx)
	if err != nil {
		return crest.Value{}, err
	}

	return root.Lookup(path)
}

// Follow walks a dotted path from the root, dereferencing every fetchable
// node on the way.
func (c *Client) Follow(ctx context.Context, path string) (crest.Value, error) {
	root, err := c.Root(ctx)
	if err != nil {
		return crest.Value{}, err
	}

	return root.Follow(ctx, path)
}

// AuthURI returns the SSO URL a user visits to grant the given scopes.
func (c *Client) AuthURI(scopes []string, state string) string {
	return c.oauth.AuthURI(scopes, state)
}

// Authorize exchanges an authorization code for a token and returns a client
// for the authenticated API.
func (c *Client) Authorize(ctx context.Context, code string) (*Client, error) {
	if c.oauth.ClientID == "" {
		return nil, crest.ErrClientIDRequired
	}

	if c.oauth.APIKey == "" {
		return nil, crest.ErrAPIKeyRequired
	}

	manager := c.newTokenManager(c.oauth)

	_, err := manager.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	return c.withTokens(manager), nil
}

// Refresh obtains a new access token with the refresh token. Graphs already
// returned by the client use the new token from then on.
func (c *Client) Refresh(ctx context.Context) error {
	if c.tokens == nil {
		return crest.ErrNotAuthenticated
	}

	return c.tokens.RefreshToken(ctx)
}

// Token returns the current token.
func (c *Client) Token() (crest.Token, error) {
	if c.tokens == nil {
		return crest.Token{}, crest.ErrNotAuthenticated
	}

	token := c.tokens.Token()
	if token == nil {
		return crest.Token{}, crest.ErrNotAuthenticated
	}

	return toCrestToken(token), nil
}

// Whoami returns the character the token belongs to. The answer is fetched
// once per client.
func (c *Client) Whoami(ctx context.Context) (*Character, error) {
	if c.tokens == nil {
		return nil, crest.ErrNotAuthenticated
	}

	c.whoamiMu.Lock()
	defer c.whoamiMu.Unlock()

	if c.whoami != nil {
		return c.whoami, nil
	}

	resp, err := c.api.Get(ctx, c.oauth.VerifyURL(), nil)
	if err != nil {
		return nil, err
	}

	var character Character

	err = json.Unmarshal(resp.Body, &character)
	if err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}

	c.whoami = &character

	return &character, nil
}

// newTokenManager builds the token manager used by an authenticated client.
// Token endpoint requests go through the anonymous session.
func (c *Client) newTokenManager(config *auth.OAuth2Config) *auth.ConfigTokenManager {
	var persister auth.ConfigPersister
	if c.persister != nil {
		persister = &persisterAdapter{persister: c.persister}
	}

	manager := auth.NewConfigTokenManager(config, c.session, persister)
	manager.SetClock(c.now)

	return manager
}

// withTokens returns an authenticated client sharing c's configuration and
// connection pool. Root and whoami caches start empty.
func (c *Client) withTokens(tokens auth.TokenManager) *Client {
	return &Client{
		config:    c.config,
		endpoints: c.endpoints,
		oauth:     c.oauth,
		session:   c.session,
		api:       c.session.WithTokenProvider(tokens),
		tokens:    tokens,
		persister: c.persister,
		logger:    c.logger,
		cacheTime: c.cacheTime,
		endpoint:  c.endpoints.Authed,
		now:       c.now,
	}
}

func toCrestToken(token *auth.Token) crest.Token {
	return crest.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
}

// persisterAdapter feeds auth tokens to a crest.TokenPersister.
type persisterAdapter struct {
	persister crest.TokenPersister
}

func (a *persisterAdapter) UpdateToken(token *auth.Token) error {
	return a.persister.UpdateToken(toCrestToken(token))
}
