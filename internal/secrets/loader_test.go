package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(Source{Name: "upwork token", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestLoadInline(t *testing.T) {
	got, err := Load(Source{Name: "claude api key", Value: "  sk-test  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sk-test" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(Source{Name: "indeed publisher key"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte(" \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = Load(Source{Name: "token", File: empty})
	if err == nil || errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected empty file error, got %v", err)
	}

	_, err = Load(Source{Name: "token", File: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "linkedin token"})
	if err != nil {
		t.Fatalf("unset credential should not fail: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}

	if _, err := LoadOptional(Source{Name: "token", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected read error to be returned")
	}
}
