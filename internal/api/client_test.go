package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticCreds is a CredentialSource returning a fixed token.
type staticCreds string

func (s staticCreds) Token() string { return string(s) }

func TestClient_BearerInjection(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds("tok-123"))
	err := c.get(context.Background(), "/api/user/profile", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenOmitsHeader(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds(""))
	err := c.get(context.Background(), "/api/database/list", nil)
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestClient_TransportErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds(""))
	_, err := c.Login(context.Background(), "demo", "wrong")
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.Status)
	assert.Equal(t, "Incorrect username or password", te.Message)
	assert.Equal(t, "Incorrect username or password", te.Detail("Login failed"))
}

func TestClient_TransportErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds(""))
	err := c.get(context.Background(), "/api/database/list", nil)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.Empty(t, te.Message)
	assert.Equal(t, "Failed to load databases", te.Detail("Failed to load databases"))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, staticCreds(""))
	err := c.get(context.Background(), "/api/database/list", nil)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.NotEmpty(t, te.Message)
}

func TestClient_LoginSendsForm(t *testing.T) {
	var gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds(""))
	tok, err := c.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)

	assert.Equal(t, "abc", tok)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, gotBody, "username=demo")
	assert.Contains(t, gotBody, "password=demo123")
}

func TestClient_UploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		content, _ := io.ReadAll(f)

		assert.Equal(t, "sales.csv", hdr.Filename)
		assert.Equal(t, "a,b\n1,2\n", string(content))
		_ = json.NewEncoder(w).Encode(Dataset{ID: 7, Name: "sales"})
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds("tok"))
	ds, err := c.UploadDataset(context.Background(), "sales.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), ds.ID)
	assert.Equal(t, "sales", ds.Name)
}

func TestClient_ExecuteQueryRawPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"question":"show all users","query_mode":"natural"}`, string(b))
		_, _ = w.Write([]byte(`{"results":[{"id":1}],"sql_query":"SELECT * FROM users"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds("tok"))
	raw, err := c.ExecuteQuery(context.Background(), QueryRequest{Question: "show all users", Mode: ModeNatural})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":1}],"sql_query":"SELECT * FROM users"}`, string(raw))
}

func TestClient_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "limit=20", r.URL.RawQuery)
		_, _ = w.Write([]byte(`[
			{"id":2,"question":"newest","sql_query":"SELECT 2","created_at":"2024-05-02T10:00:00"},
			{"id":1,"question":"oldest","error_message":"syntax error","created_at":"2024-05-01T10:00:00"}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticCreds("tok"))
	entries, err := c.History(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newest", entries[0].Question)
	assert.Equal(t, "syntax error", entries[1].ErrorMessage)
}

func TestDetailMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"string detail", `{"detail":"nope"}`, "nope"},
		{"missing detail", `{"error":"nope"}`, ""},
		{"not json", `<html>502</html>`, ""},
		{"structured detail", `{"detail":[{"loc":["body"],"msg":"invalid"}]}`, `[{"loc":["body"],"msg":"invalid"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detailMessage([]byte(tt.body)))
		})
	}
}
