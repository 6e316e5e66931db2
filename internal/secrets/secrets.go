// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files and
// from .env files. Each file in the secrets directory is one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Supported key files: authority-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/source-engine/internal/logging"
)

// DefaultDir is the secrets directory used by the CLI.
const DefaultDir = ".secrets"

// AuthorityAPIKey names the authority service key file.
const AuthorityAPIKey = "authority-api-key"

// AuthorityAPIKeyEnv overrides the key file when set.
const AuthorityAPIKeyEnv = "SOURCE_ENGINE_AUTHORITY_API_KEY"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	logger = logging.OrDiscard(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// LoadEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// AuthorityKey returns the authority service key: the environment variable
// when set, otherwise the key file in dir. It returns "" when neither exists.
func AuthorityKey(dir string, logger *slog.Logger) (string, error) {
	if v := strings.TrimSpace(os.Getenv(AuthorityAPIKeyEnv)); v != "" {
		return v, nil
	}
	secrets, err := Load(dir, logger)
	if err != nil {
		return "", err
	}
	return secrets[AuthorityAPIKey], nil
}
