package groupmeet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "groupmeet"
	configFileName = "config.yaml"

	// BackendURLEnv overrides the configured backend origin.
	BackendURLEnv = "GROUPMEET_BACKEND_URL"

	DefaultBaseURL      = "http://localhost:8080"
	DefaultSyncSchedule = "*/30 * * * *"
	DefaultSyncMonths   = 2
	DefaultCalendarID   = "primary"
)

// GoogleConfig controls the Google Calendar export.
type GoogleConfig struct {
	// CredentialsFile is the OAuth client JSON. Relative paths resolve
	// against the config directory.
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	CallbackPort    int    `yaml:"callback_port"`
}

// SyncConfig controls the periodic Google export.
type SyncConfig struct {
	// Schedule is a five-field cron expression.
	Schedule string `yaml:"schedule"`
	// Months is how many months, starting with the current one, each run exports.
	Months int `yaml:"months"`
}

// Config is the CLI configuration file.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
	Google   GoogleConfig  `yaml:"google"`
	Sync     SyncConfig    `yaml:"sync"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = credentialsFile
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = DefaultCalendarID
	}
	if c.Google.CallbackPort <= 0 {
		c.Google.CallbackPort = DefaultCallbackPort
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = DefaultSyncSchedule
	}
	if c.Sync.Months <= 0 {
		c.Sync.Months = DefaultSyncMonths
	}
}

// ApplyEnv lets GROUPMEET_BACKEND_URL override the file's base_url.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(BackendURLEnv)); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
}

// CredentialsPath resolves Google.CredentialsFile against the config dir.
func (c *Config) CredentialsPath() (string, error) {
	if filepath.IsAbs(c.Google.CredentialsFile) {
		return c.Google.CredentialsFile, nil
	}
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Google.CredentialsFile), nil
}

// getConfigDir returns ~/.config/groupmeet
func getConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appDirName), nil
}

// getDataDir returns ~/.local/share/groupmeet, creating it if needed.
func getDataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, appDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultConfigPath returns ~/.config/groupmeet/config.yaml
func DefaultConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig reads the YAML config at path. A missing file is created with
// defaults. The environment override is applied afterwards.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		cfg := DefaultConfig()
		if err := SaveConfig(path, cfg); err != nil {
			return nil, err
		}
		cfg.ApplyEnv()
		return cfg, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.ApplyEnv()
	return &cfg, nil
}

// SaveConfig writes cfg to path atomically with 0600 permissions.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFileAtomic(path, data, ".groupmeet-config-*.tmp")
}

// writeFileAtomic writes data to a temp file beside path, then renames it.
func writeFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
