// Package config handles persistent user configuration for occ.
//
// Configuration is stored as JSON at ~/.config/occ/config.json (or the
// platform-equivalent path returned by os.UserConfigDir).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	appDir   = "occ"
	fileName = "config.json"
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations. Zero
// values mean "not set"; commands fall back to their built-in defaults.
type Config struct {
	// DefaultPriority is assigned to enqueued actions when --priority is
	// not given. 1 is highest, 5 is lowest.
	DefaultPriority int `json:"default_priority,omitempty"`

	// MaxAttempts bounds how many times a failing action is dispatched
	// before it is marked failed.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Workers is the number of concurrent executor workers the daemon runs.
	Workers int `json:"workers,omitempty"`

	// DatabasePath overrides the default SQLite database location.
	DatabasePath string `json:"database_path,omitempty"`

	// RateLimit is the default minimum delay between dispatches to the
	// same platform, as a Go duration string ("1s", "500ms").
	RateLimit string `json:"rate_limit,omitempty"`

	// RateLimits holds per-platform overrides of RateLimit, keyed by
	// platform name. "0s" disables the gate for that platform.
	RateLimits map[string]string `json:"rate_limits,omitempty"`
}

// DefaultDelay parses the configured default rate limit, returning
// fallback when the key is not set.
func (c *Config) DefaultDelay(fallback time.Duration) (time.Duration, error) {
	if c.RateLimit == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(c.RateLimit)
	if err != nil {
		return 0, fmt.Errorf("config: bad rate_limit %q: %w", c.RateLimit, err)
	}
	return d, nil
}

// DelayOverrides parses the per-platform rate limit overrides.
func (c *Config) DelayOverrides() (map[string]time.Duration, error) {
	overrides := make(map[string]time.Duration, len(c.RateLimits))
	for platform, raw := range c.RateLimits {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: bad rate limit for %s: %w", platform, err)
		}
		overrides[platform] = d
	}
	return overrides, nil
}

// Path returns the absolute path to the config file.
// If SetPath has been called, that value is returned instead.
// Otherwise it uses os.UserConfigDir which resolves to
// ~/Library/Application Support on macOS, ~/.config on Linux, and
// %AppData% on Windows.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file from disk and returns the parsed Config.
// If the file does not exist, a zero-value Config is returned (not an error).
func Load() (*Config, error) {
	return loadFrom("")
}

// loadFrom reads the config from the given path. If path is empty, the
// default Path() is used. Exported only for testing via LoadFrom.
func loadFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	return c.saveTo("")
}

// saveTo writes the config to the given path. If path is empty, the
// default Path() is used.
func (c *Config) saveTo(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}

// LoadFrom reads the config from the given path. Intended for testing.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path)
}

// SaveTo writes the config to the given path. Intended for testing.
func (c *Config) SaveTo(path string) error {
	return c.saveTo(path)
}
