// Package session owns the in-memory authentication state of a housepass
// client: the short-lived access token and the staff profile. It is the
// only component that mutates session state or touches the credential
// store, and the only component that calls the backend auth endpoints.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"housepass/internal/auth/credstore"
	"housepass/internal/auth/metrics"
	"housepass/internal/auth/models"
	"housepass/pkg/apierrors"
)

const (
	loginPath   = "/api/auth/login"
	logoutPath  = "/api/auth/logout"
	refreshPath = "/api/auth/refresh"

	defaultTimeout = 30 * time.Second

	genericLoginMessage   = "Invalid email or password."
	genericRefreshMessage = "Your session has expired. Please log in again."
)

// Manager orchestrates login, logout, and refresh against the backend and
// exposes the current authentication state. Session state is mutated only
// here; everything else reads through the accessors.
type Manager struct {
	mu          sync.RWMutex
	accessToken string
	user        *models.StaffUser
	loading     bool

	store      credstore.Store
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors. Optional; all recording is
// nil-guarded.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// WithHTTPClient overrides the HTTP client (primarily for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithTimeout sets the per-call timeout for auth endpoints.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.httpClient.Timeout = d
		}
	}
}

// NewManager creates a session manager bound to a credential store and the
// backend base URL. The session starts empty and loading until Initialize
// has run.
func NewManager(store credstore.Store, baseURL string, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		baseURL:    baseURL,
		loading:    true,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// tokenEnvelope normalizes the two historical response shapes of the auth
// endpoints in one place.
type tokenEnvelope struct {
	AccessToken  string
	RefreshToken string
	User         *models.StaffUser
}

func (e *tokenEnvelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken   string            `json:"access_token"`
		AccessTokenC  string            `json:"accessToken"`
		Token         string            `json:"token"`
		RefreshToken  string            `json:"refresh_token"`
		RefreshTokenC string            `json:"refreshToken"`
		User          *models.StaffUser `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.AccessToken = firstNonEmpty(raw.AccessToken, raw.AccessTokenC, raw.Token)
	e.RefreshToken = firstNonEmpty(raw.RefreshToken, raw.RefreshTokenC)
	e.User = raw.User
	return nil
}

// Initialize restores a session from the stored credential, if any, with a
// single silent refresh. It never returns an error and flips the loading
// flag to false exactly once, whatever the outcome.
func (m *Manager) Initialize(ctx context.Context) {
	defer m.finishLoading()

	cred, err := m.store.Load(ctx)
	if err != nil || cred == nil {
		return
	}

	if _, err := m.Refresh(ctx); err != nil {
		// Refresh already cleared the session and storage.
		m.logger.Info("silent session restore failed", "error", err)
		return
	}

	// The refresh response may not carry a profile; fall back to the
	// cached one so the invariant (token and user together) holds.
	m.mu.Lock()
	if m.user == nil {
		cachedUser := cred.User
		m.user = &cachedUser
	}
	m.mu.Unlock()

	m.incrementSessionsRestored()
	m.logger.Info("session restored from stored credential", "user", cred.User.Email)
}

// Login authenticates with email and password. On success the in-memory
// session is populated and, when the backend issued a refresh token, the
// credential store is updated.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	status, body, err := m.postJSON(ctx, loginPath, "", payload)
	if err != nil {
		m.incrementLoginFailures()
		return apierrors.Wrap(err, apierrors.CodeBadCredentials, genericLoginMessage)
	}
	if status < 200 || status >= 300 {
		m.incrementLoginFailures()
		return apierrors.New(apierrors.CodeBadCredentials, apierrors.ExtractMessage(body, genericLoginMessage))
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.AccessToken == "" {
		m.incrementLoginFailures()
		return apierrors.New(apierrors.CodeBadCredentials, genericLoginMessage)
	}

	m.mu.Lock()
	m.accessToken = envelope.AccessToken
	m.user = envelope.User
	m.mu.Unlock()

	if envelope.RefreshToken != "" && envelope.User != nil {
		cred := &models.Credential{RefreshToken: envelope.RefreshToken, User: *envelope.User}
		if err := m.store.Save(ctx, cred); err != nil {
			// A failed save costs a re-login after restart, nothing more.
			m.logger.Warn("could not persist refresh credential", "error", err)
		}
	}

	m.incrementLogins()
	return nil
}

// Logout tells the backend to revoke the session, then unconditionally
// clears local state. A failed network call is logged and swallowed: local
// logout must not depend on connectivity.
func (m *Manager) Logout(ctx context.Context) {
	token := m.AccessToken()
	if token != "" {
		if status, _, err := m.postJSON(ctx, logoutPath, token, nil); err != nil {
			m.logger.Warn("backend logout failed, clearing local session anyway", "error", err)
		} else if status < 200 || status >= 300 {
			m.logger.Warn("backend logout rejected, clearing local session anyway", "status", status)
		}
	}
	m.clear(ctx)
	m.incrementLogouts()
}

// Refresh exchanges the stored refresh token for a new access token. On any
// failure the whole session is cleared (memory and storage) and the error
// carries CodeSessionExpired; callers must not retry.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	cred, err := m.store.Load(ctx)
	if err != nil || cred == nil {
		m.clear(ctx)
		m.incrementRefreshFailures()
		return "", apierrors.New(apierrors.CodeSessionExpired, genericRefreshMessage)
	}

	payload := map[string]string{"refresh_token": cred.RefreshToken, "refreshToken": cred.RefreshToken}
	status, body, err := m.postJSON(ctx, refreshPath, "", payload)
	if err != nil || status < 200 || status >= 300 {
		m.clear(ctx)
		m.incrementRefreshFailures()
		if err != nil {
			return "", apierrors.Wrap(err, apierrors.CodeSessionExpired, genericRefreshMessage)
		}
		return "", apierrors.New(apierrors.CodeSessionExpired, apierrors.ExtractMessage(body, genericRefreshMessage))
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.AccessToken == "" {
		m.clear(ctx)
		m.incrementRefreshFailures()
		return "", apierrors.New(apierrors.CodeSessionExpired, genericRefreshMessage)
	}

	m.mu.Lock()
	m.accessToken = envelope.AccessToken
	if envelope.User != nil {
		m.user = envelope.User
	}
	m.mu.Unlock()

	// Persist a rotated refresh token; keep the old one otherwise.
	stored := *cred
	if envelope.RefreshToken != "" {
		stored.RefreshToken = envelope.RefreshToken
	}
	if envelope.User != nil {
		stored.User = *envelope.User
	}
	if err := m.store.Save(ctx, &stored); err != nil {
		m.logger.Warn("could not persist rotated refresh credential", "error", err)
	}

	m.incrementRefreshes()
	return envelope.AccessToken, nil
}

// HasRole reports whether the current user's role matches any of the given
// roles. No user means no roles.
func (m *Manager) HasRole(roles ...string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return false
	}
	for _, role := range roles {
		if m.user.Role == role {
			return true
		}
	}
	return false
}

// AccessToken returns the current access token, or "" when unauthenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// CurrentUser returns a copy of the current staff profile, or nil.
func (m *Manager) CurrentUser() *models.StaffUser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	copied := *m.user
	return &copied
}

// IsAuthenticated holds iff both the access token and the user are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken != "" && m.user != nil
}

// Loading reports whether Initialize has not yet completed.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// TokenExpiry peeks at the access token's exp claim without verifying the
// signature (the client holds no signing key). Returns the zero time for
// opaque or claim-less tokens.
func (m *Manager) TokenExpiry() time.Time {
	token := m.AccessToken()
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.accessToken = ""
	m.user = nil
	m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("could not clear credential store", "error", err)
	}
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
}

// postJSON issues a POST against an auth endpoint. It returns the status and
// raw body; callers decide how to interpret non-2xx responses.
func (m *Manager) postJSON(ctx context.Context, path, bearer string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal auth request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read auth response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (m *Manager) incrementLogins() {
	if m.metrics != nil {
		m.metrics.IncrementLogins()
	}
}

func (m *Manager) incrementLoginFailures() {
	if m.metrics != nil {
		m.metrics.IncrementLoginFailures()
	}
}

func (m *Manager) incrementRefreshes() {
	if m.metrics != nil {
		m.metrics.IncrementRefreshes()
	}
}

func (m *Manager) incrementRefreshFailures() {
	if m.metrics != nil {
		m.metrics.IncrementRefreshFailures()
	}
}

func (m *Manager) incrementSessionsRestored() {
	if m.metrics != nil {
		m.metrics.IncrementSessionsRestored()
	}
}

func (m *Manager) incrementLogouts() {
	if m.metrics != nil {
		m.metrics.IncrementLogouts()
	}
}
