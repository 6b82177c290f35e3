package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/c360/retrywrap/errors"
)

const (
	maxConfigSize = 1 << 20 // 1MB is far beyond any policy file
	maxEnvVarLen  = 10000
	maxPathLen    = 4096
)

var configExtensions = []string{".yaml", ".yml", ".json"}

// validateConfigPath does basic path validation
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("empty config path")
	}
	if len(path) > maxPathLen {
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}
	if strings.ContainsRune(path, 0) {
		return errors.New("null byte in config path")
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range configExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("only YAML or JSON config files allowed: %s", path)
}

// safeReadFile reads a config file after checking its path, type and size
func safeReadFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, errs.WrapInvalid(fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err),
			"Loader", "Load", "check config path")
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.WrapInvalid(fmt.Errorf("%w: %s", errs.ErrConfigNotFound, path),
			"Loader", "Load", "stat config file")
	}
	if err != nil {
		return nil, errs.Wrap(err, "Loader", "Load", "stat config file")
	}
	if !info.Mode().IsRegular() {
		return nil, errs.WrapInvalid(fmt.Errorf("%w: not a regular file: %s", errs.ErrInvalidConfig, path),
			"Loader", "Load", "check config file")
	}
	if info.Size() > maxConfigSize {
		return nil, errs.WrapInvalid(
			fmt.Errorf("%w: config file too large: %d bytes > %d", errs.ErrInvalidConfig, info.Size(), maxConfigSize),
			"Loader", "Load", "check config file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "Loader", "Load", "read config file")
	}
	return data, nil
}

// validateEnvVar rejects oversized values and embedded null bytes
func validateEnvVar(key, value string) error {
	if value == "" {
		return nil
	}
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("null byte in environment variable %s", key)
	}
	return nil
}
