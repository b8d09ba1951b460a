// Package commands tests run the CLI commands against a fake service.
package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/cli/config"
	"github.com/leapstack-labs/sqlpilot/internal/session"
)

// newFakeBackend serves the service endpoints the commands exercise.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","token_type":"bearer"}`))
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"username":"ada","email":"ada@example.com","created_at":"2026-01-02T00:00:00Z"}`))
	})
	mux.HandleFunc("/api/query/execute", func(w http.ResponseWriter, r *http.Request) {
		var req api.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"sql_query":"SELECT COUNT(*) AS n FROM orders","results":[{"n":42}],"execution_time":0.12}`))
	})
	mux.HandleFunc("/api/query/history", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":2,"question":"total revenue","sql_query":"SELECT SUM(amount) FROM sales","created_at":"2026-01-02 10:00:00"}]`))
	})
	mux.HandleFunc("/api/database/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"sales","db_path":"/data/sales.db","is_active":true,"created_at":"2026-01-01"}]`))
	})
	mux.HandleFunc("/api/datasets/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"id":9,"name":"sales","db_path":"/data/uploads/sales.db"}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"You have 3 tables."}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// seedEnv points the commands at the fake server via the env fallback
// and returns the session database path.
func seedEnv(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	config.ResetConfig()
	sessionPath := filepath.Join(t.TempDir(), "session.db")
	t.Setenv("SQLPILOT_SERVER_URL", srv.URL)
	t.Setenv("SQLPILOT_SESSION_PATH", sessionPath)
	return sessionPath
}

// seedSession writes a logged-in session directly into the store.
func seedSession(t *testing.T, sessionPath string) {
	t.Helper()
	store, err := session.Open(sessionPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Set(session.User{ID: 7, Username: "ada", Email: "ada@example.com"}, "tok-abc"))
}

func execCommand(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	// A nil slice would make cobra fall back to os.Args
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestLoginCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)

	out, _, err := execCommand(NewLoginCommand(), "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada")

	store, err := session.Open(sessionPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	sess, ok := store.Current()
	require.True(t, ok, "session should be persisted")
	assert.Equal(t, "tok-abc", sess.Token)
	assert.Equal(t, "ada", sess.User.Username)
}

func TestLoginCommand_BadPassword(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)

	_, _, err := execCommand(NewLoginCommand(), "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")

	store, err := session.Open(sessionPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, ok := store.Current()
	assert.False(t, ok, "failed login must not persist a session")
}

func TestRegisterCommand(t *testing.T) {
	srv := newFakeBackend(t)
	seedEnv(t, srv)

	out, _, err := execCommand(NewRegisterCommand(),
		"--email", "ada@example.com", "--password", "secret", "--confirm", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada")
}

func TestRegisterCommand_PasswordMismatch(t *testing.T) {
	srv := newFakeBackend(t)
	seedEnv(t, srv)

	_, _, err := execCommand(NewRegisterCommand(),
		"--email", "ada@example.com", "--password", "secret", "--confirm", "different")
	require.Error(t, err)
}

func TestLogoutCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewLogoutCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	store, err := session.Open(sessionPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestWhoamiCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewWhoamiCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "ada@example.com")
}

func TestWhoamiCommand_NotLoggedIn(t *testing.T) {
	srv := newFakeBackend(t)
	seedEnv(t, srv)

	_, _, err := execCommand(NewWhoamiCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestQueryCommand_OneShot(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewQueryCommand(), "how many orders?")
	require.NoError(t, err)
	// Non-TTY output falls back to CSV
	assert.Contains(t, out, "n")
	assert.Contains(t, out, "42")
}

func TestQueryCommand_RequiresLogin(t *testing.T) {
	srv := newFakeBackend(t)
	seedEnv(t, srv)

	_, _, err := execCommand(NewQueryCommand(), "how many orders?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestQueryCommand_InvalidMode(t *testing.T) {
	srv := newFakeBackend(t)
	seedEnv(t, srv)

	_, _, err := execCommand(NewQueryCommand(), "--mode", "psychic", "select 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("natural")
	require.NoError(t, err)
	assert.Equal(t, api.ModeNatural, mode)

	mode, err = parseMode("")
	require.NoError(t, err)
	assert.Equal(t, api.ModeNatural, mode)

	mode, err = parseMode("sql")
	require.NoError(t, err)
	assert.Equal(t, api.ModeSQL, mode)

	_, err = parseMode("yaml")
	require.Error(t, err)
}

func TestQueryOptionsDatasetID(t *testing.T) {
	opts := &QueryOptions{}
	assert.Nil(t, opts.datasetID())

	opts.Dataset = 3
	id := opts.datasetID()
	require.NotNil(t, id)
	assert.Equal(t, int64(3), *id)
}

func TestHistoryCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "total revenue")
	assert.Contains(t, out, "SELECT SUM(amount) FROM sales")
}

func TestDatasetsCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewDatasetsCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "sales")
	assert.Contains(t, out, "*")
}

func TestUploadCommand(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,amount\nwest,100\n"), 0o644))

	out, _, err := execCommand(NewUploadCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, out, `Dataset "sales.csv" uploaded successfully!`)
}

func TestUploadCommand_RejectsUnsupportedType(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, _, err := execCommand(NewUploadCommand(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please upload a CSV, JSON, or Excel file")
}

func TestChatCommand_OneShot(t *testing.T) {
	srv := newFakeBackend(t)
	sessionPath := seedEnv(t, srv)
	seedSession(t, sessionPath)

	out, _, err := execCommand(NewChatCommand(), "what tables do I have?")
	require.NoError(t, err)
	assert.Contains(t, out, "You have 3 tables.")
}

func TestNewQueryCommandFlags(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [question]", cmd.Use)
	for _, flag := range []string{"mode", "dataset", "input"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLoginCommandFlags(t *testing.T) {
	cmd := NewLoginCommand()

	assert.Equal(t, "login", cmd.Use)
	for _, flag := range []string{"email", "password", "google-token"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}
