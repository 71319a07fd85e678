package middleware

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ResolveAPIKey returns the configured key, or the key kept in path. A new
// key is generated and written to path (mode 0600) when neither exists.
func ResolveAPIKey(configured, path string) (key string, created bool, err error) {
	if key = strings.TrimSpace(configured); key != "" {
		return key, false, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", false, errors.New("HTTP_API_KEY or HTTP_API_KEY_FILE is required")
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if key = strings.TrimSpace(string(raw)); key != "" {
			return key, false, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", false, fmt.Errorf("read api key file: %w", err)
	}

	key = strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", false, fmt.Errorf("create api key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", false, fmt.Errorf("write api key file: %w", err)
	}
	return key, true, nil
}
