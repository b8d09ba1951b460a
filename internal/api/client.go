// Package api is the single chokepoint for talking to the remote
// text-to-SQL service. Every outbound call goes through Client.do, which
// attaches the current bearer credential and converts non-2xx responses
// into TransportError values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// CredentialSource supplies the bearer token for outbound calls.
// An empty string means no session is established and the Authorization
// header is omitted.
type CredentialSource interface {
	Token() string
}

// TransportError is returned for any non-2xx response or network
// failure. Message carries the server's `detail` field when present.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Detail returns the server-provided message, or fallback when the
// server did not include one.
func (e *TransportError) Detail(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// contentKind selects how a request body is serialized.
type contentKind int

const (
	kindJSON contentKind = iota
	kindForm
	kindMultipart
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client issues authenticated calls against the remote service.
// It holds no credential state of its own; the token is read from the
// CredentialSource on every call.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	logger  *slog.Logger
}

// New creates a Client for the service at baseURL. There is no default
// request timeout; pass a context to each call for cancellation.
func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string { return c.baseURL }

// errorBody is the shape FastAPI-style services use for failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailMessage extracts a human-readable message from an error payload.
// The detail field is usually a string but can be a structured object
// (e.g. validation errors); non-string details are passed through as
// their JSON text.
func detailMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	return string(eb.Detail)
}

// do performs one HTTP call. On success the response body is decoded
// into out (skipped when out is nil). No retries: a failed call surfaces
// immediately to the caller.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Message: err.Error()}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	reqID := uuid.New().String()
	c.logger.Debug("request", "id", reqID, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "id", reqID, "error", err)
		return &TransportError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &TransportError{Message: err.Error()}
	}

	c.logger.Debug("response", "id", reqID, "status", resp.StatusCode, "bytes", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Status: resp.StatusCode, Message: detailMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Message: fmt.Sprintf("invalid response body: %v", err)}
	}
	return nil
}

// postJSON sends body as application/json.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Message: err.Error()}
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(b), "application/json", out)
}

// postForm sends values URL-encoded, the shape the login endpoint expects.
func (c *Client) postForm(ctx context.Context, path string, values url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", out)
}

// postMultipart streams a single file part named "file".
func (c *Client) postMultipart(ctx context.Context, path, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &TransportError{Message: err.Error()}
	}
	if _, err := io.Copy(part, content); err != nil {
		return &TransportError{Message: err.Error()}
	}
	if err := mw.Close(); err != nil {
		return &TransportError{Message: err.Error()}
	}
	return c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

// get issues a GET request.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}
