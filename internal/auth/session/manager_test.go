package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepass/internal/auth/credstore"
	"housepass/internal/auth/models"
	"housepass/pkg/apierrors"
)

type authBackend struct {
	loginStatus   int
	loginBody     map[string]any
	refreshStatus int
	refreshBody   map[string]any
	logoutStatus  int

	loginCalls   int
	refreshCalls int
	logoutCalls  int
	lastLogin    map[string]string
	lastRefresh  map[string]string
	lastBearer   string
}

func (b *authBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.loginCalls++
		_ = json.NewDecoder(r.Body).Decode(&b.lastLogin)
		writeJSON(w, b.loginStatus, b.loginBody)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls++
		_ = json.NewDecoder(r.Body).Decode(&b.lastRefresh)
		writeJSON(w, b.refreshStatus, b.refreshBody)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls++
		b.lastBearer = r.Header.Get("Authorization")
		status := b.logoutStatus
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, map[string]any{"message": "bye"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestManager(t *testing.T, backend *authBackend) (*Manager, *credstore.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	store := credstore.NewMemoryStore()
	return NewManager(store, srv.URL), store
}

func adminUser() map[string]any {
	return map[string]any{"id": "42", "email": "ana@housepass.events", "name": "Ana", "role": "admin"}
}

func TestLoginPopulatesSessionAndStoresCredential(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody: map[string]any{
			"accessToken":  "at-1",
			"refreshToken": "rt-1",
			"user":         adminUser(),
		},
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()

	require.NoError(t, mgr.Login(ctx, "ana@housepass.events", "hunter2"))

	assert.True(t, mgr.IsAuthenticated())
	assert.Equal(t, "at-1", mgr.AccessToken())
	require.NotNil(t, mgr.CurrentUser())
	assert.Equal(t, "Ana", mgr.CurrentUser().Name)
	assert.Equal(t, map[string]string{"email": "ana@housepass.events", "password": "hunter2"}, backend.lastLogin)

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "rt-1", cred.RefreshToken)
	assert.Equal(t, "admin", cred.User.Role)
}

func TestLoginAcceptsSnakeCaseResponse(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody: map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"user":          map[string]any{"id": 7, "email": "b@x.io", "full_name": "Bo", "user_role": "staff"},
		},
	}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.Login(context.Background(), "b@x.io", "pw"))
	require.NotNil(t, mgr.CurrentUser())
	assert.Equal(t, "7", mgr.CurrentUser().ID)
	assert.Equal(t, "Bo", mgr.CurrentUser().Name)
	assert.Equal(t, "staff", mgr.CurrentUser().Role)
}

func TestLoginFailureCarriesBackendMessage(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusUnauthorized,
		loginBody:   map[string]any{"message": "Account locked"},
	}
	mgr, _ := newTestManager(t, backend)

	err := mgr.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.True(t, apierrors.HasCode(err, apierrors.CodeBadCredentials))
	assert.Equal(t, "Account locked", err.Error())
	assert.False(t, mgr.IsAuthenticated())
}

func TestLoginFailureGenericFallback(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusUnauthorized,
		loginBody:   map[string]any{},
	}
	mgr, _ := newTestManager(t, backend)

	err := mgr.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password.", err.Error())
}

func TestInitializeWithoutStoredCredential(t *testing.T) {
	backend := &authBackend{}
	mgr, _ := newTestManager(t, backend)

	assert.True(t, mgr.Loading())
	mgr.Initialize(context.Background())
	assert.False(t, mgr.Loading())
	assert.False(t, mgr.IsAuthenticated())
	assert.Zero(t, backend.refreshCalls, "no stored credential means no network call")
}

func TestInitializeRestoresSession(t *testing.T) {
	backend := &authBackend{
		refreshStatus: http.StatusOK,
		refreshBody:   map[string]any{"accessToken": "at-new"},
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &models.Credential{
		RefreshToken: "rt-stored",
		User:         models.StaffUser{ID: "42", Email: "ana@housepass.events", Name: "Ana", Role: "admin"},
	}))

	mgr.Initialize(ctx)

	assert.False(t, mgr.Loading())
	assert.True(t, mgr.IsAuthenticated())
	assert.Equal(t, "at-new", mgr.AccessToken())
	require.NotNil(t, mgr.CurrentUser(), "profile falls back to the cached one")
	assert.Equal(t, "Ana", mgr.CurrentUser().Name)
	assert.Equal(t, "rt-stored", backend.lastRefresh["refresh_token"])
}

func TestInitializeClearsStorageOnRefreshFailure(t *testing.T) {
	backend := &authBackend{
		refreshStatus: http.StatusUnauthorized,
		refreshBody:   map[string]any{"error": "refresh token revoked"},
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &models.Credential{RefreshToken: "rt-dead", User: models.StaffUser{ID: "1"}}))

	mgr.Initialize(ctx)

	assert.False(t, mgr.Loading())
	assert.False(t, mgr.IsAuthenticated())
	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred, "failed restore must clear the stored credential")
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	backend := &authBackend{
		refreshStatus: http.StatusOK,
		refreshBody:   map[string]any{"access_token": "at-2", "refresh_token": "rt-2"},
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &models.Credential{RefreshToken: "rt-1", User: models.StaffUser{ID: "1", Role: "staff"}}))

	token, err := mgr.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "rt-2", cred.RefreshToken)
	assert.Equal(t, "staff", cred.User.Role, "cached profile survives rotation")
}

func TestRefreshFailureEmptiesEverything(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody: map[string]any{
			"accessToken": "at-1", "refreshToken": "rt-1", "user": adminUser(),
		},
		refreshStatus: http.StatusUnauthorized,
		refreshBody:   map[string]any{"message": "revoked"},
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.Login(ctx, "a@b.c", "pw"))
	require.True(t, mgr.IsAuthenticated())

	_, err := mgr.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, apierrors.HasCode(err, apierrors.CodeSessionExpired))
	assert.False(t, mgr.IsAuthenticated())
	assert.Empty(t, mgr.AccessToken())
	assert.Nil(t, mgr.CurrentUser())

	cred, loadErr := store.Load(ctx)
	require.NoError(t, loadErr)
	assert.Nil(t, cred)
}

func TestRefreshWithoutStoredCredentialFails(t *testing.T) {
	backend := &authBackend{}
	mgr, _ := newTestManager(t, backend)

	_, err := mgr.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apierrors.HasCode(err, apierrors.CodeSessionExpired))
	assert.Zero(t, backend.refreshCalls)
}

func TestLogoutClearsStateEvenWhenBackendFails(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody: map[string]any{
			"accessToken": "at-1", "refreshToken": "rt-1", "user": adminUser(),
		},
		logoutStatus: http.StatusInternalServerError,
	}
	mgr, store := newTestManager(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.Login(ctx, "a@b.c", "pw"))

	mgr.Logout(ctx)

	assert.Equal(t, 1, backend.logoutCalls)
	assert.Equal(t, "Bearer at-1", backend.lastBearer)
	assert.False(t, mgr.IsAuthenticated())
	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestSessionInvariant(t *testing.T) {
	// Token without user: authenticated must stay false.
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody:   map[string]any{"accessToken": "at-1"},
	}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.Login(context.Background(), "a@b.c", "pw"))
	assert.NotEmpty(t, mgr.AccessToken())
	assert.Nil(t, mgr.CurrentUser())
	assert.False(t, mgr.IsAuthenticated(), "authenticated requires both token and user")
}

func TestHasRole(t *testing.T) {
	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody: map[string]any{
			"accessToken": "at-1", "user": adminUser(),
		},
	}
	mgr, _ := newTestManager(t, backend)

	assert.False(t, mgr.HasRole("admin"), "no user means no roles")

	require.NoError(t, mgr.Login(context.Background(), "a@b.c", "pw"))
	assert.True(t, mgr.HasRole("admin"))
	assert.True(t, mgr.HasRole("staff", "admin"))
	assert.False(t, mgr.HasRole("staff"))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)

	backend := &authBackend{
		loginStatus: http.StatusOK,
		loginBody:   map[string]any{"accessToken": signed, "user": adminUser()},
	}
	mgr, _ := newTestManager(t, backend)
	require.NoError(t, mgr.Login(context.Background(), "a@b.c", "pw"))

	assert.Equal(t, exp.Unix(), mgr.TokenExpiry().Unix())

	mgr.Logout(context.Background())
	assert.True(t, mgr.TokenExpiry().IsZero())
}
