package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/me/entrena/internal/notify"
	"github.com/me/entrena/internal/router"
)

// User-facing notices.
const (
	MessageUnauthorized   = "No autorizado o sesión inválida — las acciones pueden fallar, por favor reintenta."
	MessageSessionExpired = "Sesión expirada o no autorizada. Redirigiendo al login..."
	messageNetworkError   = "Error de red: "
)

// Defaults for the notice and redirect timings.
const (
	DefaultRedirectDelay   = 1200 * time.Millisecond
	DefaultNoticeDuration  = 4 * time.Second
	redirectNoticeDuration = 2 * time.Second
)

// ErrMethod is returned for methods other than GET, POST, PUT and DELETE.
var ErrMethod = errors.New("unsupported method")

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Sessions is the part of the session store the gateway uses.
type Sessions interface {
	AuthHeaders(ctx context.Context) (http.Header, error)
	ClearSession(ctx context.Context) error
}

// Navigator moves the application to another route. *router.Router implements it.
type Navigator interface {
	Current() string
	Landing() string
	Navigate(ctx context.Context, target string) (router.Decision, error)
}

// Options describes one outbound request.
type Options struct {
	Method string
	Header http.Header
	Body   []byte
	// SkipAuth sends no Authorization header and suppresses the
	// authorization-failure policy for this call.
	SkipAuth bool
}

// RequestOption adjusts Options in the convenience wrappers.
type RequestOption func(*Options)

// SkipAuth marks the call as unauthenticated.
func SkipAuth() RequestOption {
	return func(o *Options) { o.SkipAuth = true }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *Options) {
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Set(key, value)
	}
}

// Client is an HTTP client for the EntrenaPro API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	sessions       Sessions
	notifier       notify.Notifier
	nav            Navigator
	policy         Policy
	clock          clockwork.Clock
	redirectDelay  time.Duration
	noticeDuration time.Duration

	mu          sync.Mutex
	pending     clockwork.Timer
	pendingDone chan struct{}
	pendingGen  uint64
	noticeUntil time.Time
	lastNetErr  error
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy sets the authorization-failure policy.
func WithPolicy(p Policy) Option { return func(c *Client) { c.policy = p } }

// WithNotifier sets where notices go.
func WithNotifier(n notify.Notifier) Option { return func(c *Client) { c.notifier = n } }

// WithNavigator sets the navigator used for forced-logout redirects.
func WithNavigator(n Navigator) Option { return func(c *Client) { c.nav = n } }

// WithClock sets the clock for redirect timers and notice windows.
func WithClock(clock clockwork.Clock) Option { return func(c *Client) { c.clock = clock } }

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTPClient = h } }

// WithRedirectDelay sets how long the forced-logout notice stays up before the
// redirect. Non-positive values select DefaultRedirectDelay.
func WithRedirectDelay(d time.Duration) Option { return func(c *Client) { c.redirectDelay = d } }

// WithNoticeDuration sets the lifetime of unauthorized and network notices.
// Non-positive values select DefaultNoticeDuration.
func WithNoticeDuration(d time.Duration) Option { return func(c *Client) { c.noticeDuration = d } }

// New creates a gateway client. baseURL should already be normalised
// (see config.NormalizeBaseURL).
func New(baseURL string, sessions Sessions, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		HTTPClient:     &http.Client{},
		Logger:         logger.With("component", "gateway"),
		sessions:       sessions,
		policy:         PolicyNotifyOnly,
		clock:          clockwork.NewRealClock(),
		redirectDelay:  DefaultRedirectDelay,
		noticeDuration: DefaultNoticeDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.redirectDelay <= 0 {
		c.redirectDelay = DefaultRedirectDelay
	}
	if c.noticeDuration <= 0 {
		c.noticeDuration = DefaultNoticeDuration
	}
	if c.notifier == nil {
		c.notifier = notify.NewChannel(nil, notify.WithClock(c.clock), notify.WithLogger(logger))
	}
	return c
}

// Policy returns the configured authorization-failure policy.
func (c *Client) Policy() Policy { return c.policy }

// URL resolves path against the base URL. Absolute URLs are returned as-is.
func (c *Client) URL(path string) string {
	if path == "" {
		return c.BaseURL
	}
	if schemePrefix.MatchString(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Request performs one HTTP exchange. See the package documentation for the
// failure semantics.
func (c *Client) Request(ctx context.Context, path string, opts Options) (*Response, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrMethod, opts.Method)
	}

	url := c.URL(path)
	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if !opts.SkipAuth {
		auth, err := c.sessions.AuthHeaders(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth headers: %w", err)
		}
		for k, v := range auth {
			header[k] = v
		}
	}
	requestID := header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
		header.Set("X-Request-ID", requestID)
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
		c.Logger.Debug("HTTP request body", "body", string(opts.Body))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = header

	c.Logger.Debug("HTTP request", "method", method, "url", url, "request_id", requestID, "skip_auth", opts.SkipAuth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
		}
		return c.networkFailure(method, url, requestID, err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
		}
		return c.networkFailure(method, url, requestID, fmt.Errorf("read response: %w", err)), nil
	}

	c.mu.Lock()
	c.lastNetErr = nil
	c.mu.Unlock()

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "request_id", requestID, "body", string(body))

	r := &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      body,
		RequestID: requestID,
		URL:       url,
	}
	if r.Unauthorized() && !opts.SkipAuth {
		c.handleAuthFailure(ctx, r)
	}
	return r, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, path, buildOptions(http.MethodGet, nil, opts))
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body, opts)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body, opts)
}

// Del performs a DELETE request.
func (c *Client) Del(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, path, buildOptions(http.MethodDelete, nil, opts))
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	// Content-Type goes first so caller headers can override it.
	o := buildOptions(method, data, append([]RequestOption{WithHeader("Content-Type", "application/json")}, opts...))
	return c.Request(ctx, path, o)
}

func buildOptions(method string, body []byte, opts []RequestOption) Options {
	o := Options{Method: method, Body: body}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LastNetworkError returns the most recent transport failure, or nil if the
// last completed exchange succeeded.
func (c *Client) LastNetworkError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastNetErr
}

// RedirectPending reports whether a forced-logout redirect is scheduled.
func (c *Client) RedirectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// CancelRedirect stops a pending forced-logout redirect. It reports whether one
// was pending.
func (c *Client) CancelRedirect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending.Stop()
	c.clearPendingLocked()
	c.Logger.Debug("pending redirect cancelled")
	return true
}

// WaitRedirect blocks until a pending forced-logout redirect has run or been
// cancelled. It returns immediately when none is pending.
func (c *Client) WaitRedirect(ctx context.Context) error {
	c.mu.Lock()
	done := c.pendingDone
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) clearPendingLocked() {
	c.pending = nil
	if c.pendingDone != nil {
		close(c.pendingDone)
		c.pendingDone = nil
	}
}

// Navigated is a router.Observer: reaching the landing route by any other means
// makes a pending redirect redundant.
func (c *Client) Navigated(_, to string) {
	if c.nav != nil && to == c.nav.Landing() {
		c.CancelRedirect()
	}
}

func (c *Client) networkFailure(method, url, requestID string, err error) *Response {
	c.mu.Lock()
	c.lastNetErr = err
	c.mu.Unlock()

	c.Logger.Warn("request failed", "method", method, "url", url, "request_id", requestID, "error", err)
	c.notifier.Show(messageNetworkError+err.Error(), c.noticeDuration)

	return &Response{Status: 0, Err: err, RequestID: requestID, URL: url}
}

func (c *Client) handleAuthFailure(ctx context.Context, r *Response) {
	c.Logger.Info("authorization failure", "status", r.Status, "url", r.URL, "policy", c.policy)

	switch c.policy {
	case PolicyForceLogout:
		c.mu.Lock()
		if c.pending != nil {
			c.mu.Unlock()
			c.Logger.Debug("redirect already pending", "request_id", r.RequestID)
			return
		}
		c.pendingGen++
		gen := c.pendingGen
		c.pendingDone = make(chan struct{})
		c.pending = c.clock.AfterFunc(c.redirectDelay, func() { c.redirect(gen) })
		c.mu.Unlock()

		c.notifier.Show(MessageSessionExpired, redirectNoticeDuration)
		if err := c.sessions.ClearSession(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("clear session failed", "error", err)
		}

	default:
		now := c.clock.Now()
		c.mu.Lock()
		if now.Before(c.noticeUntil) {
			c.mu.Unlock()
			c.Logger.Debug("unauthorized notice already visible", "request_id", r.RequestID)
			return
		}
		c.noticeUntil = now.Add(c.noticeDuration)
		c.mu.Unlock()

		c.notifier.Show(MessageUnauthorized, c.noticeDuration)
	}
}

// redirect runs when the timer for generation gen fires. A cancelled or
// superseded timer does nothing.
func (c *Client) redirect(gen uint64) {
	c.mu.Lock()
	if c.pending == nil || c.pendingGen != gen {
		c.mu.Unlock()
		return
	}
	done := c.pendingDone
	c.pending = nil
	c.pendingDone = nil
	c.mu.Unlock()
	defer close(done)

	if c.nav == nil {
		return
	}
	landing := c.nav.Landing()
	if c.nav.Current() == landing {
		return
	}
	if _, err := c.nav.Navigate(context.Background(), landing); err != nil {
		c.Logger.Warn("redirect failed", "target", landing, "error", err)
		return
	}
	c.Logger.Info("redirected after authorization failure", "target", landing)
}
