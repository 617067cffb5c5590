// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package httpdir is the directory.Gateway backed by the directory REST API.
//
// Endpoints, relative to the base URL:
//
//	GET /parents/cpf/{id}
//	GET /professors/cpf/{id}
//	GET /students/cpf/{id}
//	GET /users
//	PUT /users/{id}
//
// A 404 maps to directory.ErrNotFound. Everything else that is not a 2xx maps
// to *directory.TransportError, carrying the server's error message when the
// body has one. Requests are never retried.
package httpdir

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/classdesk/internal/directory"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds each request.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the largest body read from the server.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// maxErrorMessage caps, in runes, a plain-text error body surfaced to users.
	maxErrorMessage = 200

	// RequestIDHeader carries a fresh UUID per request for server-side tracing.
	RequestIDHeader = "X-Request-ID"

	userAgent = "classdesk"
)

// sharedTransport is pooled across clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// ErrNotConfigured indicates the client has no base URL.
var ErrNotConfigured = errors.New("directory API URL not configured")

// apiErrorResponse is the server error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the directory API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests. A non-positive perSecond disables
// limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: sharedTransport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken rotates the bearer token. In-flight requests keep the old one.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// =============================================================================
// GATEWAY
// =============================================================================

// FetchParent implements directory.Gateway.
func (c *Client) FetchParent(ctx context.Context, id string) (directory.UserRecord, error) {
	return c.fetchOne(ctx, "fetch_parent", "/parents/cpf/"+url.PathEscape(id))
}

// FetchProfessor implements directory.Gateway.
func (c *Client) FetchProfessor(ctx context.Context, id string) (directory.UserRecord, error) {
	return c.fetchOne(ctx, "fetch_professor", "/professors/cpf/"+url.PathEscape(id))
}

// FetchStudent implements directory.Gateway.
func (c *Client) FetchStudent(ctx context.Context, id string) (directory.UserRecord, error) {
	return c.fetchOne(ctx, "fetch_student", "/students/cpf/"+url.PathEscape(id))
}

// FetchAll implements directory.Gateway.
func (c *Client) FetchAll(ctx context.Context) ([]directory.UserRecord, error) {
	var out []directory.UserRecord
	if err := c.do(ctx, "fetch_all", http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []directory.UserRecord{}
	}
	return out, nil
}

// Update implements directory.Gateway. Only the fields set in patch are sent.
func (c *Client) Update(ctx context.Context, id string, patch directory.Patch) (directory.UserRecord, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "failed to encode request", Err: err}
	}
	var out directory.UserRecord
	if err := c.do(ctx, "update", http.MethodPut, "/users/"+url.PathEscape(id), body, &out); err != nil {
		return directory.UserRecord{}, err
	}
	if out.Identifier == "" {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "empty response"}
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, op, path string) (directory.UserRecord, error) {
	var out directory.UserRecord
	if err := c.do(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return directory.UserRecord{}, err
	}
	return out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	if c.baseURL == "" {
		return &directory.TransportError{Op: op, Err: ErrNotConfigured}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &directory.TransportError{Op: op, Message: "request cancelled", Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &directory.TransportError{Op: op, Message: "failed to create request", Err: err}
	}
	c.setHeaders(req, body != nil)

	start := time.Now()
	logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("API Error: %s %s: %v", method, logPath(req.URL.Path), err)
		return &directory.TransportError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	log.Printf("API Response: %s %s -> %d (%s)", method, logPath(req.URL.Path), resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return &directory.TransportError{Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return directory.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &directory.TransportError{Op: op, Status: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// handleErrorResponse turns a non-2xx, non-404 response into a TransportError.
func handleErrorResponse(op string, status int, body []byte) error {
	var apiErr apiErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if runes := []rune(msg); len(runes) > maxErrorMessage {
			msg = string(runes[:maxErrorMessage]) + "..."
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &directory.TransportError{Op: op, Status: status, Message: msg}
}

// logRequest logs method and path only.
// SECURITY: Never log headers (bearer token) or bodies (personal data).
func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, logPath(req.URL.Path))
}

// logPath masks a trailing identifier segment.
func logPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 || i == len(path)-1 {
		return path
	}
	last := path[i+1:]
	if directory.Normalize(last) != last {
		return path
	}
	return path[:i+1] + directory.MaskIdentifier(last)
}

var _ directory.Gateway = (*Client)(nil)

// String describes the client for status lines.
func (c *Client) String() string {
	return fmt.Sprintf("http directory at %s", c.baseURL)
}
