package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrEmptyKeyPath is returned when an empty key path is provided.
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key path into its component parts.
// For example, "notifications.enabled" becomes ["notifications", "enabled"].
func ParseKeyPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyKeyPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid key path %q", path)
		}
	}
	return parts, nil
}

// SetConfigValue sets a configuration value in a JSON file.
// Validates the key and value against the schema before writing.
// Creates the file if it doesn't exist.
func SetConfigValue(filePath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return fmt.Errorf("validating value: %w", err)
	}
	if _, err := ParseKeyPath(key); err != nil {
		return fmt.Errorf("parsing key path: %w", err)
	}

	k, err := loadOrCreate(filePath)
	if err != nil {
		return err
	}
	if err := k.Set(key, parsed.Parsed); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	content, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := writeAtomically(filePath, content); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetConfigValue returns the raw value of key in a JSON file, and whether it is set.
func GetConfigValue(filePath, key string) (any, bool, error) {
	k, err := loadOrCreate(filePath)
	if err != nil {
		return nil, false, err
	}
	if !k.Exists(key) {
		return nil, false, nil
	}
	return k.Get(key), true, nil
}

// loadOrCreate loads a JSON config file, or returns an empty tree when it does not exist.
func loadOrCreate(filePath string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := ValidateJSONSyntax(filePath); err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(filePath), json.Parser()); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return k, nil
}

// writeAtomically replaces path with content through a sibling temp file, so a
// crash never leaves a half-written config behind.
func writeAtomically(path string, content []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".vistoria-config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	renamed = true
	return nil
}
