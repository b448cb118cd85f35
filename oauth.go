package groupmeet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	credentialsFile     = "google-credentials.json"
	tokenFile           = "google-token.json"
	DefaultCallbackPort = 8085

	authTimeout = 5 * time.Minute
)

// Credentials is the Google OAuth client used for calendar export.
type Credentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenStore is the persisted Google token.
type TokenStore struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// openBrowser is replaced in tests.
var openBrowser = func(url string) error {
	return exec.Command("xdg-open", url).Start()
}

// LoadCredentials reads OAuth client credentials from path.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials not found at %s - please configure Google OAuth credentials", path)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("credentials file missing clientId or clientSecret")
	}
	return &creds, nil
}

// getOAuthConfig creates the OAuth2 config for writing calendar events.
func getOAuthConfig(creds *Credentials, port int) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", port),
		Scopes:       []string{calendar.CalendarEventsScope},
	}
}

func tokenPath() (string, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(dataDir, tokenFile), nil
}

// LoadToken loads the saved Google token. It returns nil, nil when none exists.
func LoadToken() (*oauth2.Token, error) {
	path, err := tokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var store TokenStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  store.AccessToken,
		RefreshToken: store.RefreshToken,
		TokenType:    store.TokenType,
		Expiry:       store.Expiry,
	}, nil
}

// SaveToken saves the Google token with 0600 permissions.
func SaveToken(token *oauth2.Token) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}

	store := TokenStore{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := writeFileAtomic(path, data, ".groupmeet-token-*.tmp"); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// RunAuthFlow performs the browser consent flow on a loopback callback
// server and saves the resulting token. Progress is written to out.
func RunAuthFlow(ctx context.Context, creds *Credentials, port int, out io.Writer) error {
	if port <= 0 {
		port = DefaultCallbackPort
	}
	config := getOAuthConfig(creds, port)
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errChan, fmt.Errorf("state mismatch in callback"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code received", http.StatusBadRequest)
			sendErr(errChan, fmt.Errorf("no code in callback"))
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this tab and return to the terminal.</p></body></html>`)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errChan, err)
		}
	}()
	defer server.Close()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Opening browser for authorization...\n")
	fmt.Fprintf(out, "If browser doesn't open, visit:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	timer := time.NewTimer(authTimeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return err
	case <-timer.C:
		return fmt.Errorf("authorization timeout - no response received")
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := SaveToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	fmt.Fprintln(out, "Authorization successful! Token saved.")
	return nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// GoogleHTTPClient returns an authorized client for the Calendar API,
// refreshing and re-saving the token when needed.
func GoogleHTTPClient(ctx context.Context, credentialsPath string, logger *zap.Logger) (*http.Client, error) {
	creds, err := LoadCredentials(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrNotConfigured, err)
	}

	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("%s: no token found - run 'groupmeet google auth' first", ErrNotConfigured)
	}

	config := getOAuthConfig(creds, DefaultCallbackPort)
	tokenSource := config.TokenSource(ctx, token)

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrTokenExpired, err)
	}
	if newToken.AccessToken != token.AccessToken {
		if err := SaveToken(newToken); err != nil {
			logger.Warn("failed to save refreshed token", zap.Error(err))
		}
	}

	return oauth2.NewClient(ctx, tokenSource), nil
}

// IsGoogleConfigured checks that credentials and a token are available.
func IsGoogleConfigured(credentialsPath string) bool {
	if _, err := LoadCredentials(credentialsPath); err != nil {
		return false
	}
	token, err := LoadToken()
	return err == nil && token != nil
}
