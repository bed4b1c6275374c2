// Package api is the sole conduit to the BookLoop backend: a request
// dispatcher that attaches credentials, unwraps the transport envelope,
// and transparently performs the 401 -> refresh -> retry cycle while
// coordinating concurrent callers so only one refresh is ever in
// flight. Feature services call through here and never implement their
// own retry or refresh logic.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRefreshTimeout = 10 * time.Second

	refreshPath = "/auth/refresh"
)

// Config carries the startup-resolved settings the dispatcher needs.
type Config struct {
	// BaseURL is used consistently for all requests; trailing slashes
	// are trimmed.
	BaseURL string
	// DeviceID, when set, is sent as X-Device-Id on every request.
	DeviceID string
	// RequestTimeout is the per-request ceiling; past it a request
	// fails as a network error, never an authentication error.
	RequestTimeout time.Duration
	// RefreshTimeout bounds the detached token-refresh call.
	RefreshTimeout time.Duration
}

// Client dispatches every outbound API call.
type Client struct {
	baseURL        string
	deviceID       string
	requestTimeout time.Duration
	http           *retry.Client
	base           *http.Client
	store          credentials.Store
	refresher      *refreshCoordinator
	log            zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the underlying HTTP client before it is
// wrapped with retry support. Mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// New builds a Client over a retrying transport. The credential store
// is only ever read immediately before a request leaves, so the latest
// tokens always win.
func New(cfg Config, store credentials.Store, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		deviceID:       cfg.DeviceID,
		requestTimeout: cfg.RequestTimeout,
		store:          store,
		log:            zerolog.Nop(),
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.base == nil {
		c.base = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	retryClient, err := retry.NewBackgroundClient(retry.WithHTTPClient(c.base))
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}
	c.http = retryClient

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	c.refresher = &refreshCoordinator{
		store:   store,
		refresh: c.refreshTokens,
		timeout: refreshTimeout,
		log:     c.log,
	}

	return c, nil
}

// Get issues a GET request and decodes the domain payload into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do dispatches one API call. The current access token (when present)
// is attached as a bearer credential; requests without one go out
// unauthenticated since some endpoints are intentionally public. A 401
// triggers exactly one refresh-and-retry; a second 401 surfaces to the
// caller. Successful enveloped responses are unwrapped so out receives
// the domain payload, never the transport envelope.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.DoWithHeaders(ctx, method, path, nil, body, out)
}

// DoWithHeaders is Do with extra request headers (idempotency keys and
// the like).
func (c *Client) DoWithHeaders(
	ctx context.Context,
	method, path string,
	headers map[string]string,
	body, out any,
) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	token, err := c.store.AccessToken()
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	status, data, err := c.send(ctx, method, path, headers, payload, token)
	if err != nil {
		return err
	}

	// At most one retry per original request: the 401 branch runs once,
	// and whatever the retried request returns is final.
	if status == http.StatusUnauthorized {
		newToken, refreshErr := c.refresher.await(ctx)
		if refreshErr != nil {
			return refreshErr
		}

		c.log.Debug().Str("path", path).Msg("api: retrying request with refreshed token")
		status, data, err = c.send(ctx, method, path, headers, payload, newToken)
		if err != nil {
			return err
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return newAPIError(status, path, data)
	}

	return decodeResult(data, out)
}

// send performs a single HTTP exchange and returns the status code and
// the full response body. Transport failures (timeouts, connectivity)
// come back as errors and never enter the refresh path.
func (c *Client) send(
	ctx context.Context,
	method, path string,
	headers map[string]string,
	payload []byte,
	token string,
) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, data, nil
}

// refreshTokens exchanges the refresh token for a new token pair at the
// refresh endpoint. No bearer credential is attached: the access token
// being replaced is exactly what the server just rejected. A missing
// refresh token in the response means the existing one is still valid
// and must not be overwritten (the coordinator handles that).
func (c *Client) refreshTokens(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	status, data, err := c.send(ctx, http.MethodPost, refreshPath, nil, payload, "")
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, newAPIError(status, refreshPath, data)
	}

	var tokenResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeResult(data, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.New("refresh response missing access token")
	}

	return &oauth2.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// envelope is the transport wrapper the backend puts around successful
// payloads.
type envelope struct {
	Path       string          `json:"path"`
	StatusCode int             `json:"statusCode"`
	Result     json.RawMessage `json:"result"`
	Message    string          `json:"message"`
	Code       string          `json:"error"`
}

// decodeResult unwraps the response envelope and decodes the inner
// result into out. Responses that do not carry the envelope (or carry
// no result field) decode as-is so plain endpoints keep working.
func decodeResult(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil &&
		len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to parse result payload: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// newAPIError builds the propagated error for a non-2xx response,
// pulling the server's message out of the envelope when there is one.
func newAPIError(statusCode int, path string, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Path: path}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Code = env.Code
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}
