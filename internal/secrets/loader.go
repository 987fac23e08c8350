package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when neither a file nor an inline value is set.
var ErrNotConfigured = errors.New("not configured")

// Source describes how to load a credential.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or environment.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load returns the resolved secret value from the provided source. When File is
// set it takes precedence over Value. The returned secret is always trimmed.
// An error wrapping ErrNotConfigured is returned when nothing is set.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
	}

	return secret, nil
}

// LoadOptional behaves like Load but treats an unset credential as empty.
// Platforms without credentials stay disabled instead of failing startup.
func LoadOptional(src Source) (string, error) {
	secret, err := Load(src)
	if errors.Is(err, ErrNotConfigured) {
		return "", nil
	}
	return secret, err
}
