package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/brightisle/cv-screener/internal/failure"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or environment.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load returns the resolved, trimmed secret. A missing or empty secret is a
// MissingCredential failure; a secret file that exists but cannot be read is a
// MalformedConfig failure.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", failure.Errorf(failure.MissingCredential, "load secret", "%s file %q does not exist", name, file)
		case err != nil:
			return "", failure.New(failure.MalformedConfig, "load secret", fmt.Errorf("reading %s from file %q: %w", name, file, err))
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if file != "" {
			return "", failure.Errorf(failure.MissingCredential, "load secret", "%s file %q is empty", name, file)
		}
		return "", failure.Errorf(failure.MissingCredential, "load secret", "%s is not configured", name)
	}

	return secret, nil
}
