package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token endpoint and the two API calls Exchange makes.
func fakeGitHub(t *testing.T, profile map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "test-token",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(profile)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestProvider(ts *httptest.Server) *GitHubProvider {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost:8080/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  ts.URL + "/login/oauth/authorize",
		TokenURL: ts.URL + "/login/oauth/access_token",
	}
	p.apiBase = ts.URL
	return p
}

func TestAuthURL(t *testing.T) {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost:8080/auth/github/callback")

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/auth/github/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "user:email")
}

func TestExchange_PublicEmail(t *testing.T) {
	ts := fakeGitHub(t, map[string]any{"id": 42, "login": "octo", "email": "Octo@Example.com"}, nil)

	user, err := newTestProvider(ts).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "octo", user.Login)
	assert.Equal(t, "octo@example.com", user.Email)
}

func TestExchange_PrimaryEmailFallback(t *testing.T) {
	ts := fakeGitHub(t,
		map[string]any{"id": 42, "login": "octo", "email": nil},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true},
		},
	)

	user, err := newTestProvider(ts).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, "main@example.com", user.Email)
}

func TestExchange_NoVerifiedEmail(t *testing.T) {
	ts := fakeGitHub(t,
		map[string]any{"id": 42, "login": "octo"},
		[]map[string]any{{"email": "main@example.com", "primary": true, "verified": false}},
	)

	_, err := newTestProvider(ts).Exchange(context.Background(), "code")

	assert.ErrorContains(t, err, "no verified primary email")
}

func TestExchange_InvalidProfile(t *testing.T) {
	ts := fakeGitHub(t, map[string]any{"login": "ghost"}, nil)

	_, err := newTestProvider(ts).Exchange(context.Background(), "code")

	assert.ErrorContains(t, err, "invalid user")
}
