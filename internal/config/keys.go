package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "default-priority").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set validates and applies a value for this key to the given Config
	// (in memory only; the caller is responsible for calling Save).
	Set func(cfg *Config, value string) error
}

// ratelimitPlatforms lists the platforms that get a dedicated rate limit
// key. Must stay in step with the executor catalog.
var ratelimitPlatforms = []string{"drive", "notion", "sheets", "slack", "trello"}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = buildKeys()

func buildKeys() []KeySpec {
	keys := []KeySpec{
		{
			Name:        "default-priority",
			Description: "Priority for enqueued actions when --priority is omitted (1 highest, 5 lowest)",
			Get:         func(cfg *Config) string { return itoaOrEmpty(cfg.DefaultPriority) },
			Set: func(cfg *Config, value string) error {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil || n < 1 || n > 5 {
					return fmt.Errorf("priority must be an integer between 1 (highest) and 5 (lowest), got %q", value)
				}
				cfg.DefaultPriority = n
				return nil
			},
		},
		{
			Name:        "max-attempts",
			Description: "Dispatch attempts per action before it is marked failed",
			Get:         func(cfg *Config) string { return itoaOrEmpty(cfg.MaxAttempts) },
			Set: func(cfg *Config, value string) error {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil || n < 1 {
					return fmt.Errorf("max attempts must be a positive integer, got %q", value)
				}
				cfg.MaxAttempts = n
				return nil
			},
		},
		{
			Name:        "workers",
			Description: "Concurrent executor workers for the run daemon",
			Get:         func(cfg *Config) string { return itoaOrEmpty(cfg.Workers) },
			Set: func(cfg *Config, value string) error {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil || n < 1 {
					return fmt.Errorf("workers must be a positive integer, got %q", value)
				}
				cfg.Workers = n
				return nil
			},
		},
		{
			Name:        "db-path",
			Description: "SQLite database file (defaults to the user data directory)",
			Get:         func(cfg *Config) string { return cfg.DatabasePath },
			Set: func(cfg *Config, value string) error {
				path := strings.TrimSpace(value)
				if path == "" {
					return fmt.Errorf("db-path must not be empty")
				}
				cfg.DatabasePath = path
				return nil
			},
		},
		{
			Name:        "rate-limit",
			Description: "Default minimum delay between dispatches to the same platform",
			Get:         func(cfg *Config) string { return cfg.RateLimit },
			Set: func(cfg *Config, value string) error {
				d, err := parseDelay(value)
				if err != nil {
					return err
				}
				cfg.RateLimit = d.String()
				return nil
			},
		},
	}

	for _, platform := range ratelimitPlatforms {
		keys = append(keys, ratelimitKey(platform))
	}

	return keys
}

func ratelimitKey(platform string) KeySpec {
	return KeySpec{
		Name:        "rate-limit." + platform,
		Description: "Minimum delay between " + platform + " dispatches (overrides rate-limit; 0s disables)",
		Get: func(cfg *Config) string {
			return cfg.RateLimits[platform]
		},
		Set: func(cfg *Config, value string) error {
			d, err := parseDelay(value)
			if err != nil {
				return err
			}
			if cfg.RateLimits == nil {
				cfg.RateLimits = make(map[string]string)
			}
			cfg.RateLimits[platform] = d.String()
			return nil
		},
	}
}

func itoaOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseDelay(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (try 500ms, 2s)", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative, got %q", value)
	}
	return d, nil
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
