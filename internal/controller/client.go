package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/oshokin/alarm-ack/internal/config"
	"github.com/oshokin/alarm-ack/internal/domain/event"
	"github.com/oshokin/alarm-ack/internal/logger"
	"github.com/oshokin/alarm-ack/internal/version"
)

const (
	// HeaderAuthToken carries the session token.
	HeaderAuthToken = "X-Auth-Token"
	// HeaderRequestID carries a per-request identifier for controller-side tracing.
	HeaderRequestID = "X-Request-Id"

	contentTypeJSON = "application/json"

	// maxErrorBody caps how much of an error response body ends up in an error message.
	maxErrorBody = 512
)

var (
	// ErrNotAuthenticated is returned when the profile carries no tenant identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnexpectedStatus is returned for any non-2xx controller response.
	ErrUnexpectedStatus = errors.New("unexpected controller response")

	// errBaseURLRequired is returned when no controller URL is configured.
	errBaseURLRequired = errors.New("controller URL must be provided")
	// errEventIDRequired is returned when updating an event without id.
	errEventIDRequired = errors.New("event id must be provided")
)

// Client wraps the controller REST API and holds the session state.
type Client struct {
	// http is the underlying resty client with base URL, headers and cookie jar.
	http *resty.Client
	// api holds the version segment per endpoint.
	api config.APIVersions

	// callTimeout is the default timeout for individual API calls.
	callTimeout time.Duration
	// tenantID is the tenant resolved during authentication.
	tenantID string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for API calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithAPIVersions overrides the endpoint versions.
func WithAPIVersions(versions config.APIVersions) Option {
	return func(c *Client) {
		c.api = versions
	}
}

// WithDebug turns on resty request/response tracing through the logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.http.SetDebug(debug)
	}
}

// WithTransport replaces the HTTP transport, e.g. for an httptest TLS server.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		if transport != nil {
			c.http.SetTransport(transport)
		}
	}
}

// New creates a client for the controller at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", contentTypeJSON).
		SetJSONMarshaler(event.Codec.Marshal).
		SetJSONUnmarshaler(event.Codec.Unmarshal).
		SetLogger(logger.Logger())

	// Tag every request so controller logs can be matched to this run.
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader(HeaderRequestID, uuid.NewString())
		return nil
	})

	client := &Client{
		http:        httpClient,
		api:         config.DefaultAPIVersions(),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// TenantID returns the tenant resolved by the last successful authentication.
func (c *Client) TenantID() string {
	return c.tenantID
}

// UseToken authenticates the session with an existing token.
func (c *Client) UseToken(ctx context.Context, token string) error {
	c.http.SetHeader(HeaderAuthToken, token)

	if err := c.loadProfile(ctx); err != nil {
		c.resetSession()
		return fmt.Errorf("validate token: %w", err)
	}

	return nil
}

// loginRequest is the body of the login call.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the part of the login response the client reads.
type loginResponse struct {
	Token string `json:"x_auth_token"`
}

// Login authenticates the session with email and password.
func (c *Client) Login(ctx context.Context, email, password string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var result loginResponse

	req := c.http.R().
		SetContext(callCtx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&result).
		ForceContentType(contentTypeJSON)

	if _, err := c.execute(req, http.MethodPost, c.path(c.api.Login, "/login")); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// Cookie sessions need no header; token sessions do.
	if result.Token != "" {
		c.http.SetHeader(HeaderAuthToken, result.Token)
	}

	if err := c.loadProfile(ctx); err != nil {
		c.resetSession()
		return fmt.Errorf("login: %w", err)
	}

	return nil
}

// profileResponse is the part of the profile the client reads.
type profileResponse struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
}

// loadProfile resolves the tenant of the current session.
func (c *Client) loadProfile(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var profile profileResponse

	req := c.http.R().
		SetContext(callCtx).
		SetResult(&profile).
		ForceContentType(contentTypeJSON)

	if _, err := c.execute(req, http.MethodGet, c.path(c.api.Profile, "/profile")); err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	if profile.TenantID == "" {
		return ErrNotAuthenticated
	}

	c.tenantID = profile.TenantID

	logger.DebugKV(ctx, "Session established", "tenant_id", profile.TenantID, "email", profile.Email)

	return nil
}

// tenantResponse is the part of the tenant record the client reads.
type tenantResponse struct {
	Name string `json:"name"`
}

// TenantName returns the display name of the session tenant.
func (c *Client) TenantName(ctx context.Context) (string, error) {
	if c.tenantID == "" {
		return "", ErrNotAuthenticated
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var tenant tenantResponse

	req := c.http.R().
		SetContext(callCtx).
		SetPathParam("tenant_id", c.tenantID).
		SetResult(&tenant).
		ForceContentType(contentTypeJSON)

	if _, err := c.execute(req, http.MethodGet, c.path(c.api.Tenants, "/tenants/{tenant_id}")); err != nil {
		return "", fmt.Errorf("get tenant: %w", err)
	}

	return tenant.Name, nil
}

// QueryEvents returns up to count unacknowledged, unsuppressed alarm events, newest first.
func (c *Client) QueryEvents(ctx context.Context, count int) ([]event.Event, error) {
	if c.tenantID == "" {
		return nil, ErrNotAuthenticated
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var result event.QueryResult

	req := c.http.R().
		SetContext(callCtx).
		SetPathParam("tenant_id", c.tenantID).
		SetBody(event.NewQuery(count)).
		SetResult(&result).
		ForceContentType(contentTypeJSON)

	if _, err := c.execute(req, http.MethodPost, c.path(c.api.EventsQuery, "/tenants/{tenant_id}/events/query")); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return result.Items, nil
}

// UpdateEvent submits the full event record keyed by its id.
func (c *Client) UpdateEvent(ctx context.Context, ev event.Event) error {
	if c.tenantID == "" {
		return ErrNotAuthenticated
	}

	id := ev.ID()
	if id == "" {
		return errEventIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req := c.http.R().
		SetContext(callCtx).
		SetPathParams(map[string]string{
			"tenant_id": c.tenantID,
			"event_id":  id,
		}).
		SetHeader("Content-Type", contentTypeJSON).
		SetBody(ev)

	if _, err := c.execute(req, http.MethodPut, c.path(c.api.Events, "/tenants/{tenant_id}/events/{event_id}")); err != nil {
		return fmt.Errorf("update event %s: %w", id, err)
	}

	return nil
}

// Logout releases the session on the controller and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	defer c.resetSession()

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.execute(c.http.R().SetContext(callCtx), http.MethodGet, c.path(c.api.Logout, "/logout")); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// resetSession drops the token header and tenant.
func (c *Client) resetSession() {
	c.http.Header.Del(HeaderAuthToken)
	c.tenantID = ""
}

// path joins an endpoint version and a path under /api.
func (c *Client) path(apiVersion, endpoint string) string {
	return "/" + apiVersion + "/api" + endpoint
}

// execute runs the request and turns non-2xx responses into errors.
func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return resp, fmt.Errorf("%w: %s %s: %s: %s",
			ErrUnexpectedStatus, method, path, resp.Status(), truncate(resp.String(), maxErrorBody))
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
