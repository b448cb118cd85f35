package groupmeet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const sessionFile = "session.json"

// SessionStore is the persisted form of the backend cookies.
type SessionStore struct {
	BaseURL string         `json:"baseUrl"`
	Cookies []StoredCookie `json:"cookies"`
	SavedAt time.Time      `json:"savedAt"`
}

// StoredCookie is one cookie of the session.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func sessionPath() (string, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(dataDir, sessionFile), nil
}

// SaveSession writes the client's cookies for its backend to the data dir
// with 0600 permissions.
func SaveSession(c *Client) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}

	store := SessionStore{BaseURL: c.base, SavedAt: time.Now().UTC()}
	for _, ck := range c.Jar().Cookies(c.baseURL) {
		store.Cookies = append(store.Cookies, StoredCookie{Name: ck.Name, Value: ck.Value})
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := writeFileAtomic(path, data, ".groupmeet-session-*.tmp"); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// LoadSession restores saved cookies into the client's jar. It reports false
// when there is no session, or the saved one belongs to another backend.
func LoadSession(c *Client) (bool, error) {
	path, err := sessionPath()
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read session: %w", err)
	}

	var store SessionStore
	if err := json.Unmarshal(data, &store); err != nil {
		return false, fmt.Errorf("parse session: %w", err)
	}
	if store.BaseURL != c.base || len(store.Cookies) == 0 {
		return false, nil
	}

	cookies := make([]*http.Cookie, 0, len(store.Cookies))
	for _, sc := range store.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.Jar().SetCookies(c.baseURL, cookies)
	return true, nil
}

// ClearSession removes the saved session. A missing file is not an error.
func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
