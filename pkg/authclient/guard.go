// Package authclient provides an http.RoundTripper that keeps a session
// alive against the auth service: it attaches bearer tokens, refreshes them
// once when the server answers 401, and replays the failed requests.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when the session cannot be refreshed. The
// stored tokens have been cleared and the logout handler has run.
var ErrSessionExpired = errors.New("session expired, please log in again")

type retriedKey struct{}

// Guard is an http.RoundTripper implementing the client side of the token
// rotation protocol. Concurrent 401s share a single refresh call.
type Guard struct {
	base       http.RoundTripper
	store      TokenStore
	refreshURL *url.URL
	onLogout   func(error)
	logger     *slog.Logger
	group      singleflight.Group
}

// Option configures a Guard.
type Option func(*Guard)

// WithBase sets the transport used for all network calls. Defaults to http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(g *Guard) {
		g.base = rt
	}
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(g *Guard) {
		g.store = store
	}
}

// WithLogoutHandler registers fn to run once per failed refresh, after the
// tokens have been cleared.
func WithLogoutHandler(fn func(error)) Option {
	return func(g *Guard) {
		g.onLogout = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a Guard that refreshes against refreshURL
// (e.g. "https://auth.example.com/auth/refresh").
func NewGuard(refreshURL string, opts ...Option) (*Guard, error) {
	u, err := url.Parse(refreshURL)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("refresh URL must be absolute: %q", refreshURL)
	}
	g := &Guard{
		base:       http.DefaultTransport,
		store:      NewMemoryTokenStore(),
		refreshURL: u,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Client returns an *http.Client using g as its transport.
func (g *Guard) Client() *http.Client {
	return &http.Client{Transport: g}
}

// SetTokens stores a pair obtained from a login call.
func (g *Guard) SetTokens(accessToken, refreshToken string, expiry time.Time) error {
	return g.store.SetToken(&oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       expiry,
	})
}

// Logout clears the stored tokens without notifying the logout handler.
func (g *Guard) Logout() error {
	return g.store.Clear()
}

// RoundTrip implements http.RoundTripper.
func (g *Guard) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	token, err := g.store.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	first, err := cloneRequest(req.Context(), req, getBody)
	if err != nil {
		return nil, err
	}
	sentAccess := ""
	if token != nil && token.AccessToken != "" {
		token.SetAuthHeader(first)
		sentAccess = token.AccessToken
	}

	resp, err := g.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if g.isRefreshRequest(req) {
		discard(resp)
		g.expire(ErrSessionExpired)
		return nil, ErrSessionExpired
	}

	// A request replayed once is never retried again.
	if req.Context().Value(retriedKey{}) != nil {
		return resp, nil
	}

	fresh, err := g.freshToken(req.Context(), sentAccess)
	if err != nil {
		discard(resp)
		return nil, err
	}
	discard(resp)

	replay, err := cloneRequest(context.WithValue(req.Context(), retriedKey{}, true), req, getBody)
	if err != nil {
		return nil, err
	}
	fresh.SetAuthHeader(replay)
	return g.base.RoundTrip(replay)
}

// freshToken returns a token newer than sentAccess, refreshing at most once
// across all concurrent callers.
func (g *Guard) freshToken(ctx context.Context, sentAccess string) (*oauth2.Token, error) {
	if current, err := g.store.Token(); err == nil && current != nil && current.AccessToken != "" && current.AccessToken != sentAccess {
		return current, nil
	}

	// Callers that give up must not cancel the refresh others are waiting on.
	refreshCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan("refresh", func() (any, error) {
		return g.refresh(refreshCtx, sentAccess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refreshResponse mirrors the server's token pair body.
type refreshResponse struct {
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	RefreshToken         string    `json:"refreshToken"`
	TokenType            string    `json:"tokenType"`
}

func (g *Guard) refresh(ctx context.Context, sentAccess string) (*oauth2.Token, error) {
	current, err := g.store.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	// Another flight finished between our 401 and joining the group.
	if current != nil && current.AccessToken != "" && current.AccessToken != sentAccess {
		return current, nil
	}
	if current == nil {
		// Already logged out; the handler ran when the tokens were cleared.
		return nil, ErrSessionExpired
	}
	if current.RefreshToken == "" {
		g.expire(ErrSessionExpired)
		return nil, ErrSessionExpired
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": current.RefreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.refreshURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.base.RoundTrip(req)
	if err != nil {
		// Network failure; keep the tokens so a later request can retry.
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer discard(resp)

	if resp.StatusCode != http.StatusOK {
		cause := fmt.Errorf("%w: refresh endpoint returned %d", ErrSessionExpired, resp.StatusCode)
		g.expire(cause)
		return nil, cause
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" || body.RefreshToken == "" {
		cause := fmt.Errorf("%w: malformed refresh response", ErrSessionExpired)
		g.expire(cause)
		return nil, cause
	}

	token := &oauth2.Token{
		AccessToken:  body.AccessToken,
		TokenType:    body.TokenType,
		RefreshToken: body.RefreshToken,
		Expiry:       body.AccessTokenExpiresAt,
	}
	if err := g.store.SetToken(token); err != nil {
		return nil, fmt.Errorf("failed to store refreshed token: %w", err)
	}
	g.logger.Debug("Session refreshed")
	return token, nil
}

// expire clears local tokens and notifies the logout handler.
func (g *Guard) expire(cause error) {
	if err := g.store.Clear(); err != nil {
		g.logger.Error("Failed to clear tokens", slog.String("error", err.Error()))
	}
	g.logger.Info("Session expired", slog.String("reason", cause.Error()))
	if g.onLogout != nil {
		g.onLogout(cause)
	}
}

func (g *Guard) isRefreshRequest(req *http.Request) bool {
	return strings.EqualFold(req.URL.Host, g.refreshURL.Host) &&
		strings.TrimRight(req.URL.Path, "/") == strings.TrimRight(g.refreshURL.Path, "/")
}

// replayableBody returns a function producing fresh copies of req's body,
// reading the body into memory when the caller did not set GetBody.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// cloneRequest copies req for a single send with its own body.
func cloneRequest(ctx context.Context, req *http.Request, getBody func() (io.ReadCloser, error)) (*http.Request, error) {
	out := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
		out.GetBody = getBody
	}
	return out, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
