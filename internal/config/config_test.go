package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultPriority != 0 || cfg.DatabasePath != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occ", "config.json")

	want := &Config{
		DefaultPriority: 2,
		MaxAttempts:     5,
		Workers:         4,
		DatabasePath:    "/tmp/occ-test.db",
		RateLimit:       "1s",
		RateLimits:      map[string]string{"slack": "2s"},
	}
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	path := filepath.Join(dir, "config.json")

	cfg := &Config{Workers: 4}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify the file exists.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSave_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	first := &Config{MaxAttempts: 3}
	if err := first.SaveTo(path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := &Config{MaxAttempts: 7}
	if err := second.SaveTo(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.MaxAttempts != 7 {
		t.Errorf("expected MaxAttempts 7, got %d", got.MaxAttempts)
	}
}

func TestDefaultDelay(t *testing.T) {
	cfg := &Config{}
	d, err := cfg.DefaultDelay(time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != time.Second {
		t.Errorf("expected fallback 1s when unset, got %v", d)
	}

	cfg.RateLimit = "250ms"
	d, err = cfg.DefaultDelay(time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", d)
	}

	cfg.RateLimit = "garbage"
	if _, err := cfg.DefaultDelay(time.Second); err == nil {
		t.Error("expected error for unparseable rate_limit")
	}
}

func TestDelayOverrides(t *testing.T) {
	cfg := &Config{RateLimits: map[string]string{
		"slack":  "2s",
		"trello": "0s",
	}}

	got, err := cfg.DelayOverrides()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]time.Duration{
		"slack":  2 * time.Second,
		"trello": 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestDelayOverrides_BadValue(t *testing.T) {
	cfg := &Config{RateLimits: map[string]string{"slack": "soon"}}

	if _, err := cfg.DelayOverrides(); err == nil {
		t.Error("expected error for unparseable override")
	}
}
