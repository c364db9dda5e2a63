package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/fivetwenty-io/crest/pkg/crest"
	"github.com/hashicorp/go-retryablehttp"
)

// TokenProvider supplies the bearer token sent with every request.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Request is a single API call. Path may be absolute ("https://...") or
// relative to the client's base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values
	Headers map[string]string
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is the CREST transport: session headers, TLS adapter selection and
// bearer token injection on top of retryablehttp.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	tokens     TokenProvider
	logger     crest.Logger
	debug      bool
	userAgent  string
	headers    map[string]string
	timeout    time.Duration
	weakHosts  []string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger crest.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithWeakCipherHosts routes the given hosts through the legacy TLS adapter.
func WithWeakCipherHosts(hosts ...string) Option {
	return func(c *Client) {
		c.weakHosts = hosts
	}
}

// WithRetryConfig enables retries of transient failures.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// NewClient creates a transport. tokens may be nil for anonymous access.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
		tokens:     tokens,
		userAgent:  "crest-go/" + constants.Version,
		headers:    make(map[string]string),
		timeout:    constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil && client.debug {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	retryClient.HTTPClient = &http.Client{
		Timeout:   client.timeout,
		Transport: newHostRouter(client.weakHosts),
	}

	return client
}

// WithTokenProvider returns a copy of c that authenticates with tokens. The
// copy shares the underlying connection pool.
func (c *Client) WithTokenProvider(tokens TokenProvider) *Client {
	clone := *c
	clone.tokens = tokens

	return &clone
}

// BaseURL returns the base URL relative paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A status outside 2xx yields a *crest.TransportError together
// with the response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target := c.resolve(req.Path)
	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + req.Query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq, req)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         target,
			"status_code": resp.StatusCode,
			"bytes":       len(respBody),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, &crest.TransportError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        target,
			Body:       string(respBody),
		}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// GetJSON performs a GET request and decodes the body, keeping numbers as
// json.Number.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) (any, error) {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body))
	decoder.UseNumber()

	var doc any

	err = decoder.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return doc, nil
}

// PostForm sends a form-encoded POST and returns the response body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, headers map[string]string) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{
		Method:  http.MethodPost,
		Path:    path,
		Form:    form,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if c.baseURL == "" {
		return path
	}

	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) setHeaders(ctx context.Context, httpReq *retryablehttp.Request, req *Request) error {
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	_, explicitAuth := req.Headers["Authorization"]
	if c.tokens != nil && !explicitAuth {
		token, err := c.tokens.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return nil
}

// leveledLogger adapts crest.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger crest.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
