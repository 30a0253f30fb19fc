// Package sign derives per-request signatures by executing the platform's
// client-side signing function inside a real browser engine. The algorithm is
// intentionally obfuscated upstream, so the only reliable way to produce a
// valid signature is to ask the platform's own script for one.
package sign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ErrOracleUnavailable is returned when the signing retry ceiling is
// exhausted. It is fatal for the enclosing request; callers must not retry
// above this layer.
var ErrOracleUnavailable = errors.New("signature oracle unavailable")

const (
	// DefaultMaxAttempts is the signing retry ceiling. Browser and script
	// initialization are flaky, so each attempt gets a fresh context.
	DefaultMaxAttempts = 10

	// DefaultSettleDelay is how long the oracle waits after reload for the
	// platform script to initialize before evaluating the signing function.
	DefaultSettleDelay = 2 * time.Second

	defaultOrigin       = "https://www.xiaohongshu.com"
	defaultCookieDomain = ".xiaohongshu.com"

	signFunction = "window._webmsxyw"
)

// Request describes one opaque signing request.
type Request struct {
	URI        string
	Payload    any
	A1         string
	WebSession string
}

// Result carries the two opaque signature header values.
type Result struct {
	Signature string // X-s header value
	Timestamp string // X-t header value
}

// Signer derives request signatures. Implementations must be safe for
// concurrent use; the Oracle serializes nothing and isolates each attempt in
// its own browser context instead.
type Signer interface {
	Sign(ctx context.Context, req Request) (Result, error)
}

// Oracle drives a headless Chromium instance to evaluate the platform's
// signing function.
type Oracle struct {
	origin       string
	cookieDomain string
	maxAttempts  int
	settle       time.Duration
	logger       *slog.Logger

	// evaluate runs one signing attempt. Swapped out in tests.
	evaluate func(ctx context.Context, req Request) (Result, error)
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithMaxAttempts overrides the retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithSettleDelay overrides the post-reload script settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Oracle) { o.settle = d }
}

// WithOrigin overrides the platform origin and cookie domain.
func WithOrigin(origin, cookieDomain string) Option {
	return func(o *Oracle) {
		o.origin = origin
		o.cookieDomain = cookieDomain
	}
}

// WithLogger sets the structured logger for attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) { o.logger = logger }
}

// NewOracle creates an Oracle with the default platform origin.
func NewOracle(opts ...Option) *Oracle {
	o := &Oracle{
		origin:       defaultOrigin,
		cookieDomain: defaultCookieDomain,
		maxAttempts:  DefaultMaxAttempts,
		settle:       DefaultSettleDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.evaluate == nil {
		o.evaluate = o.browserEvaluate
	}
	return o
}

var _ Signer = (*Oracle)(nil)

// Sign evaluates the platform signing function for req. Each attempt spawns
// and tears down an isolated browser context; after maxAttempts failures it
// returns ErrOracleUnavailable wrapping the last attempt's error.
func (o *Oracle) Sign(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := o.evaluate(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		o.logger.Debug("signing attempt failed",
			"attempt", attempt,
			"max_attempts", o.maxAttempts,
			"uri", req.URI,
			"error", err)
	}
	return Result{}, fmt.Errorf("%w: %d attempts: %w", ErrOracleUnavailable, o.maxAttempts, lastErr)
}

// browserEvaluate runs one signing attempt in a fresh headless browser
// context: load the platform origin, inject the a1 cookie, reload so the
// platform script picks it up, then call the signing function.
func (o *Oracle) browserEvaluate(ctx context.Context, req Request) (result Result, err error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	expr, err := signExpression(req.URI, req.Payload)
	if err != nil {
		return Result{}, err
	}

	var raw map[string]any
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(o.origin),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie("a1", req.A1).
				WithDomain(o.cookieDomain).
				WithPath("/").
				Do(ctx)
		}),
		chromedp.Reload(),
		chromedp.Sleep(o.settle),
		chromedp.Evaluate(expr, &raw),
	)
	if err != nil {
		return Result{}, fmt.Errorf("evaluating signing function: %w", err)
	}

	return resultFromObject(raw)
}

// signExpression builds the JS call with both arguments JSON-encoded, so
// arbitrary URI and payload content cannot break out of the expression.
func signExpression(uri string, payload any) (string, error) {
	uriJSON, err := json.Marshal(uri)
	if err != nil {
		return "", fmt.Errorf("encoding uri: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return fmt.Sprintf("%s(%s, %s)", signFunction, uriJSON, payloadJSON), nil
}

// resultFromObject maps the signing function's result object onto the two
// signature header values. X-t comes back as a number and is carried as its
// decimal string form.
func resultFromObject(raw map[string]any) (Result, error) {
	sig, ok := raw["X-s"].(string)
	if !ok || sig == "" {
		return Result{}, fmt.Errorf("signing result missing X-s field")
	}

	var ts string
	switch v := raw["X-t"].(type) {
	case string:
		ts = v
	case float64:
		ts = fmt.Sprintf("%d", int64(v))
	case json.Number:
		ts = v.String()
	default:
		return Result{}, fmt.Errorf("signing result missing X-t field")
	}

	return Result{Signature: sig, Timestamp: ts}, nil
}
