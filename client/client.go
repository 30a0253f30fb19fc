// Package client implements the signed HTTP client for the platform's
// private web API. Every outbound call is signed through a sign.Signer and
// carries the current session's cookies; the client itself never owns the
// session, it borrows it per call from a SessionSource.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/redpost/session"
	"github.com/jmcleod/redpost/sign"
)

const (
	defaultBaseURL = "https://edith.xiaohongshu.com"
	defaultTimeout = 60 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	probePath = "/api/sns/web/v1/video/first_frame?video_id=3214"
)

// Transport issues HTTP requests. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// SessionSource supplies the current session for one account.
type SessionSource interface {
	Load() (*session.Session, error)
}

// Client is the signed API client. It composes a Signer and a Transport
// behind narrow interfaces rather than wrapping any vendor SDK type.
type Client struct {
	baseURL  string
	signer   sign.Signer
	http     Transport
	sessions SessionSource
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the platform API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTransport overrides the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.http = t }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client signing through signer and authenticating with the
// sessions source.
func New(signer sign.Signer, sessions SessionSource, opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		signer:   signer,
		http:     &http.Client{Timeout: defaultTimeout},
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the platform's standard response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// Probe issues a low-cost authenticated call and reports whether the
// platform accepted the current cookies. It is the sole cookie-validity
// check; token state is not consulted.
func (c *Client) Probe(ctx context.Context) bool {
	if err := c.signedCall(ctx, http.MethodGet, probePath, nil, nil); err != nil {
		c.logger.Debug("session probe failed", "error", err)
		return false
	}
	return true
}

// ProbeWith is Probe against an explicit session instead of the stored one,
// for verifying credentials before they become the active session.
func (c *Client) ProbeWith(ctx context.Context, sess *session.Session) bool {
	if err := c.signedCallAs(ctx, sess, http.MethodGet, probePath, nil, nil); err != nil {
		c.logger.Debug("session probe failed", "error", err)
		return false
	}
	return true
}

// signedCall signs, issues, and decodes one API call. A non-nil payload is
// sent as the JSON body and included in the signature; out, when non-nil,
// receives the envelope's data field.
func (c *Client) signedCall(ctx context.Context, method, path string, payload, out any) error {
	sess, err := c.sessions.Load()
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	return c.signedCallAs(ctx, sess, method, path, payload, out)
}

func (c *Client) signedCallAs(ctx context.Context, sess *session.Session, method, path string, payload, out any) error {
	sig, err := c.signer.Sign(ctx, sign.Request{
		URI:        path,
		Payload:    payload,
		A1:         sess.CookieValue("a1"),
		WebSession: sess.CookieValue("web_session"),
	})
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", sess.CookieHeader())
	req.Header.Set("X-s", sig.Signature)
	req.Header.Set("X-t", sig.Timestamp)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthenticated)
	}
	if resp.StatusCode != http.StatusOK {
		return &PlatformError{Code: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if authExpiredCodes[env.Code] {
		return fmt.Errorf("code %d: %w", env.Code, ErrUnauthenticated)
	}
	if !env.Success && env.Code != 0 {
		return &PlatformError{Code: env.Code, Msg: env.Msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
