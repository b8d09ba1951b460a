package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/session"
)

// fakeBackend is a minimal auth service for orchestrator tests.
type fakeBackend struct {
	mux        *http.ServeMux
	calls      atomic.Int64
	lastBearer string

	loginStatus    int
	profileStatus  int
	registerStatus int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{mux: http.NewServeMux(), loginStatus: 200, profileStatus: 200, registerStatus: 200}

	fb.mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		if fb.loginStatus != 200 {
			w.WriteHeader(fb.loginStatus)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		require.NoError(t, r.ParseForm())
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-" + r.PostFormValue("username"),
			"token_type":   "bearer",
		})
	})
	fb.mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, _ *http.Request) {
		fb.calls.Add(1)
		if fb.registerStatus != 200 {
			w.WriteHeader(fb.registerStatus)
			_, _ = w.Write([]byte(`{"detail":"Email or username already registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"x","username":"x","created_at":"2024-01-01T00:00:00"}`))
	})
	fb.mux.HandleFunc("/api/auth/google", func(w http.ResponseWriter, _ *http.Request) {
		fb.calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-google", "token_type": "bearer"})
	})
	fb.mux.HandleFunc("/api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		fb.lastBearer = r.Header.Get("Authorization")
		if fb.profileStatus != 200 {
			w.WriteHeader(fb.profileStatus)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "username": "demo", "email": "demo@example.com",
			"created_at": "2024-01-01T00:00:00Z",
		})
	})

	srv := httptest.NewServer(fb.mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func newOrchestrator(t *testing.T, serverURL string) (*Orchestrator, *session.Store) {
	t.Helper()
	store, err := session.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	source := NewSource(store)
	client := api.New(serverURL, source)
	return New(client, store, source, nil), store
}

func TestLoginWithPassword_EstablishesSession(t *testing.T) {
	fb, srv := newFakeBackend(t)
	o, store := newOrchestrator(t, srv.URL)

	require.NoError(t, o.LoginWithPassword(context.Background(), "demo", "demo123"))

	assert.Equal(t, StateAuthenticated, o.State())
	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "demo", sess.User.Username)
	assert.Equal(t, "tok-demo", sess.Token)

	// The profile fetch authenticated with the fresh token before the
	// session was persisted.
	assert.Equal(t, "Bearer tok-demo", fb.lastBearer)
}

func TestLoginWithPassword_BadCredentials(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.loginStatus = http.StatusUnauthorized
	o, store := newOrchestrator(t, srv.URL)

	err := o.LoginWithPassword(context.Background(), "demo", "nope")
	require.Error(t, err)

	assert.Equal(t, StateFailed, o.State())
	assert.Equal(t, "Incorrect username or password", o.Message())
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestLoginWithPassword_ProfileFetchFails(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.profileStatus = http.StatusInternalServerError
	o, store := newOrchestrator(t, srv.URL)

	err := o.LoginWithPassword(context.Background(), "demo", "demo123")
	require.Error(t, err)

	// Token was obtained but the session must not be established.
	assert.Equal(t, StateFailed, o.State())
	_, ok := store.Current()
	assert.False(t, ok)
	// The transient login token must not linger either.
	assert.Empty(t, store.Token())
}

func TestRegister_PasswordMismatchIsLocal(t *testing.T) {
	fb, srv := newFakeBackend(t)
	o, store := newOrchestrator(t, srv.URL)

	err := o.Register(context.Background(), "ada@example.com", "a", "b")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Passwords do not match", ve.Message)
	assert.Equal(t, "Passwords do not match", o.Message())

	// Zero network calls were made.
	assert.Zero(t, fb.calls.Load())
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestRegister_AutoLoginChain(t *testing.T) {
	_, srv := newFakeBackend(t)
	o, store := newOrchestrator(t, srv.URL)

	require.NoError(t, o.Register(context.Background(), "ada.lovelace@example.com", "pw", "pw"))

	assert.Equal(t, StateAuthenticated, o.State())
	sess, ok := store.Current()
	require.True(t, ok)
	// The login step used the username derived from the email local part.
	assert.Equal(t, "tok-ada.lovelace", sess.Token)
}

func TestRegister_DuplicateSurfacesDetail(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.registerStatus = http.StatusBadRequest
	o, _ := newOrchestrator(t, srv.URL)

	err := o.Register(context.Background(), "dup@example.com", "pw", "pw")
	require.Error(t, err)
	assert.Equal(t, "Email or username already registered", o.Message())
}

func TestLoginWithGoogleCredential(t *testing.T) {
	_, srv := newFakeBackend(t)
	o, store := newOrchestrator(t, srv.URL)

	require.NoError(t, o.LoginWithGoogleCredential(context.Background(), "google-id-token"))

	assert.Equal(t, StateAuthenticated, o.State())
	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-google", sess.Token)
}

func TestFailedAttemptIsNotSticky(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.loginStatus = http.StatusUnauthorized
	o, _ := newOrchestrator(t, srv.URL)

	require.Error(t, o.LoginWithPassword(context.Background(), "demo", "nope"))
	assert.Equal(t, StateFailed, o.State())
	assert.NotEmpty(t, o.Message())

	fb.loginStatus = http.StatusOK
	require.NoError(t, o.LoginWithPassword(context.Background(), "demo", "demo123"))
	assert.Equal(t, StateAuthenticated, o.State())
	assert.Empty(t, o.Message())
}

func TestLogout(t *testing.T) {
	_, srv := newFakeBackend(t)
	o, store := newOrchestrator(t, srv.URL)

	require.NoError(t, o.LoginWithPassword(context.Background(), "demo", "demo123"))
	require.NoError(t, o.Logout())

	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, o.State())

	// Logging out twice is harmless.
	require.NoError(t, o.Logout())
}

func TestUsername(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"ada@example.com", "ada"},
		{"ada.lovelace@mail.example.com", "ada.lovelace"},
		{"no-at-sign", "no-at-sign"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Username(tt.email))
	}
}
