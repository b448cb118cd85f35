package groupmeet

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPersistence(t *testing.T) {
	_, dataDir := setupTestEnv(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, AuthUser{ID: 1, Username: "ann"})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err != nil || c.Value != "abc123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, AuthUser{ID: 1, Username: "ann"})
	})
	srv := newTestServer(t, withXSRF(mux))
	ctx := context.Background()

	first := newTestClient(t, srv.URL)
	_, err := NewAuth(first).Login(ctx, LoginRequest{UsernameOrEmail: "ann", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, SaveSession(first))

	info, err := os.Stat(filepath.Join(dataDir, sessionFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := newTestClient(t, srv.URL)
	_, err = NewAuth(second).Me(ctx)
	assert.True(t, IsUnauthenticated(err), "fresh client has no session")

	restored, err := LoadSession(second)
	require.NoError(t, err)
	require.True(t, restored)
	user, err := NewAuth(second).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.Equal(t, testXSRFToken, second.xsrfToken(), "anti-forgery cookie is restored too")

	other := newTestClient(t, "http://other.example")
	restored, err = LoadSession(other)
	require.NoError(t, err)
	assert.False(t, restored, "session belongs to another backend")

	require.NoError(t, ClearSession())
	require.NoError(t, ClearSession(), "clearing twice is fine")
	restored, err = LoadSession(newTestClient(t, srv.URL))
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestLoadSessionCorrupt(t *testing.T) {
	_, dataDir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, sessionFile), []byte("{not json"), 0o600))

	_, err := LoadSession(newTestClient(t, "http://localhost:8080"))
	assert.Error(t, err)
}
