// Package api implements the client side of the HTTP contract: bearer
// authorization, the {success, message, data} envelope and status handling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/logger"
	"github.com/atinyakov/DocDesk/internal/models"
)

// FallbackMessage is reported when a failed response carries no message.
const FallbackMessage = "unknown error"

// RequestIDHeader carries a per-request UUID for correlation in server logs.
const RequestIDHeader = "X-Request-Id"

// TokenSource yields the current bearer token, or "" for none.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token returns t.
func (t StaticToken) Token() string { return string(t) }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Envelope is the JSON body every endpoint answers with. Token and Role are
// only set by the login endpoint, URL only by uploads.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Token   string          `json:"token,omitempty"`
	Role    models.Role     `json:"role,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// HasData reports whether the envelope carries a non-null data field.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// DecodeData unmarshals the data field into v.
func (e *Envelope) DecodeData(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Client sends authorized JSON requests to the API.
type Client struct {
	// BaseURL is prefixed to relative request paths.
	BaseURL string
	// HTTP performs the requests.
	HTTP *http.Client
	// Tokens supplies the bearer token per request.
	Tokens TokenSource

	log *zap.Logger
}

// NewClient constructs a Client. A nil httpClient means http.DefaultClient,
// a nil tokens means anonymous requests.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Tokens:  tokens,
		log:     logger.OrNop(log),
	}
}

// URL resolves target against BaseURL unless it is already absolute.
func (c *Client) URL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return c.BaseURL + target
}

// NewRequest builds a request carrying the bearer token and a request id.
// A non-nil body is JSON-encoded and marked application/json.
func (c *Client) NewRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(target), rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.Tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
}

// Do sends req and decodes the envelope. Non-2xx responses yield a
// *StatusError with the server message, or FallbackMessage when there is none.
func (c *Client) Do(req *http.Request) (*Envelope, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = FallbackMessage
		}
		c.log.Debug("api request rejected",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", req.Header.Get(RequestIDHeader)),
		)
		return nil, &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("invalid response: %w", decodeErr)
	}
	return &env, nil
}

// Message extracts a human-readable message from err, falling back to
// fallback when err carries none.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
