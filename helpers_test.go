package groupmeet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testXSRFToken = "test-xsrf-token"

// setupTestEnv points the XDG directories at a temp dir. Tests using it
// must not run in parallel.
func setupTestEnv(t *testing.T) (configDir, dataDir string) {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)
	t.Setenv(BackendURLEnv, "")

	configDir, err := getConfigDir()
	if err != nil {
		t.Fatalf("Failed to get config dir: %v", err)
	}
	dataDir, err = getDataDir()
	if err != nil {
		t.Fatalf("Failed to get data dir: %v", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return configDir, dataDir
}

// createTestCredentials writes a Google credentials file into configDir.
func createTestCredentials(t *testing.T, configDir string, creds Credentials) string {
	t.Helper()

	path := filepath.Join(configDir, credentialsFile)
	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Failed to marshal credentials: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write credentials: %v", err)
	}
	return path
}

// createTestToken writes a Google token file into dataDir.
func createTestToken(t *testing.T, dataDir string, store TokenStore) string {
	t.Helper()

	path := filepath.Join(dataDir, tokenFile)
	data, err := json.Marshal(store)
	if err != nil {
		t.Fatalf("Failed to marshal token: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write token: %v", err)
	}
	return path
}

// newTestServer starts handler and closes it with the test.
func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient builds a Client for baseURL on its own transport so that
// idle connections are closed with the test.
func newTestClient(t *testing.T, baseURL string, opts ...ClientOption) *Client {
	t.Helper()

	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)

	opts = append([]ClientOption{WithHTTPClient(&http.Client{Transport: tr, Timeout: DefaultTimeout})}, opts...)
	c, err := NewClient(baseURL, opts...)
	if err != nil {
		t.Fatalf("NewClient(%q) error = %v", baseURL, err)
	}
	return c
}

// observedLogger returns a logger whose entries at or above level are recorded.
func observedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// withXSRF issues the anti-forgery cookie the way the backend does and
// rejects mutations that do not echo it.
func withXSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(XSRFCookieName); err != nil {
			http.SetCookie(w, &http.Cookie{Name: XSRFCookieName, Value: testXSRFToken, Path: "/"})
		}
		if isMutating(r.Method) && r.Header.Get(XSRFHeaderName) != testXSRFToken {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid CSRF token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// primeXSRF performs one GET so the jar holds the anti-forgery cookie.
func primeXSRF(t *testing.T, c *Client) {
	t.Helper()
	if _, err := c.Do(context.Background(), "/api/auth/me", RequestOptions{WithCredentials: true}); err != nil && !IsUnauthenticated(err) && !IsNotFound(err) {
		t.Fatalf("priming request failed: %v", err)
	}
	if c.xsrfToken() == "" {
		t.Fatal("XSRF cookie not set after priming request")
	}
}
