// Package upstream is the single outbound gateway to the backend API. Every
// request leaving the gateway goes through Client, which attaches the ambient
// session credential, speaks the backend's JSON envelopes, and enforces the
// session-invalidation policy on authentication-failure responses.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/api/metrics"
	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// CredentialCookie is the cookie carrying the session credential to the
// backend, mirroring the browser-managed channel of the web client.
const CredentialCookie = "sd_session"

// Backend paths the session lifecycle depends on.
const (
	loginPath    = "/user/auth/login"
	logoutPath   = "/user/auth/logout"
	sessionPath  = "/user/auth/session"
	settingsPath = "/user/settings"
)

const defaultTimeout = 15 * time.Second

// CredentialSource supplies the current session credential. The auth store
// implements it.
type CredentialSource interface {
	Credential() string
}

// SignOutHook is invoked when a response status demands session teardown.
// The hook is a side effect: the original error is still returned to the
// caller, which keeps its normal failure handling.
type SignOutHook func(ctx context.Context, reason string)

// Client is the outbound HTTP chokepoint.
type Client struct {
	base     *url.URL
	http     *http.Client
	creds    CredentialSource
	hook     SignOutHook
	signout  map[int]string // status → teardown reason
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLegacyNotFoundSignOut restores the historical behaviour of treating
// 404 like an authentication failure. Kept only for compatibility with
// backends that answer 404 for dead sessions; off by default because it
// conflates "not authenticated" with "resource missing".
func WithLegacyNotFoundSignOut() Option {
	return func(c *Client) { c.signout[http.StatusNotFound] = "not_found" }
}

// NewClient builds a Client for the given base URL. The sign-out hook is
// installed later via SetSignOutHook, after the coordinator exists.
func NewClient(baseURL string, creds CredentialSource, log zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream base url: %w", err)
	}
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: defaultTimeout},
		creds: creds,
		hook:  func(context.Context, string) {},
		signout: map[int]string{
			http.StatusUnauthorized: "unauthorized",
			http.StatusForbidden:    "forbidden",
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetSignOutHook installs the teardown trigger. Wired after construction
// because the coordinator and the client reference each other.
func (c *Client) SetSignOutHook(hook SignOutHook) {
	if hook != nil {
		c.hook = hook
	}
}

// Do performs a JSON request against the backend. body is marshalled when
// non-nil; on success the envelope's data field is unmarshalled into out when
// out is non-nil. Non-2xx answers return *APIError, after the interception
// policy has run.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, intercept bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCredential(req)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, raw)
		// Session-invalidating statuses trigger the teardown exactly once,
		// then the original error still propagates to the caller.
		if intercept {
			if reason, ok := c.signout[resp.StatusCode]; ok {
				c.log.Info().Int("status", resp.StatusCode).Str("path", path).Msg("session-invalid response, forcing sign-out")
				c.hook(ctx, reason)
			}
		}
		return apiErr
	}

	if out != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode response envelope: %w", err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// Forward relays an arbitrary request through the chokepoint and returns the
// backend's status and body verbatim. Used by the passthrough handler; the
// interception policy applies the same as for typed calls.
func (c *Client) Forward(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCredential(req)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, "error").Inc()
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	if reason, ok := c.signout[resp.StatusCode]; ok {
		c.log.Info().Int("status", resp.StatusCode).Str("path", path).Msg("session-invalid response, forcing sign-out")
		c.hook(ctx, reason)
	}
	return resp.StatusCode, raw, nil
}

// ── Typed lifecycle calls ─────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  domain.Identity `json:"user"`
	Token string          `json:"token"`
}

// Login exchanges credentials for an identity and session token. A 401 here
// means bad credentials, not a dead session, so interception is skipped.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Identity, string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, loginPath, loginRequest{Email: email, Password: password}, &out, false)
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return domain.Identity{}, "", domain.ErrInvalidCredentials
		}
		return domain.Identity{}, "", err
	}
	return out.User, out.Token, nil
}

// NotifyLogout posts to the backend logout endpoint. Best-effort and
// idempotent by contract; interception is skipped so a 401 from a dead
// session cannot re-enter the teardown.
func (c *Client) NotifyLogout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, logoutPath, nil, nil, false)
}

// ProbeSession checks whether the upstream still considers the session live.
// Interception is skipped: the heartbeat decides what to do with the answer.
func (c *Client) ProbeSession(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, sessionPath, nil, nil, false)
}

// FetchPreferences loads the signed-in user's display preferences.
func (c *Client) FetchPreferences(ctx context.Context) (*domain.Preferences, error) {
	var prefs domain.Preferences
	if err := c.Do(ctx, http.MethodGet, settingsPath, nil, &prefs); err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			// No preference record yet: the default format applies.
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences writes the preferences back upstream.
func (c *Client) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (*domain.Preferences, error) {
	var out domain.Preferences
	if err := c.Do(ctx, http.MethodPut, settingsPath, prefs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	ref.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	return c.base.ResolveReference(ref).String()
}

func (c *Client) attachCredential(req *http.Request) {
	if token := c.creds.Credential(); token != "" {
		req.AddCookie(&http.Cookie{Name: CredentialCookie, Value: token})
	}
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
