package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// DefaultConfigDirs lists the allowed configuration directories in order of preference
	DefaultConfigDirs = []string{
		"/etc/wrale-panels",
		"/usr/local/etc/wrale-panels",
	}

	// allowedExtensions lists the allowed config file extensions
	allowedExtensions = []string{".yaml", ".yml"}
)

// validateConfigPath ensures the config file path is secure
func validateConfigPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid config path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("error resolving config path: %w", err)
		}
		realPath = cleanPath
	}

	validExt := false
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(strings.ToLower(realPath), ext) {
			validExt = true
			break
		}
	}
	if !validExt {
		return "", fmt.Errorf("config file must have .yaml or .yml extension")
	}

	validPath := false
	configRoot := filepath.Dir(realPath)
	for _, dir := range DefaultConfigDirs {
		if strings.HasPrefix(strings.ToLower(configRoot), strings.ToLower(dir)) {
			validPath = true
			break
		}
	}

	// Development mode also accepts files below the working directory
	if !validPath && os.Getenv("WPANEL_DEV_MODE") == "1" {
		if pwd, err := os.Getwd(); err == nil {
			validPath = strings.HasPrefix(configRoot, pwd)
		}
	}

	if !validPath {
		return "", fmt.Errorf("config file must be in an allowed directory (tried: %s)", configRoot)
	}

	return realPath, nil
}

// safeReadFile reads a file that has been validated by validateConfigPath
func safeReadFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("config path must be a regular file")
	}

	// #nosec G304 -- path has been validated by validateConfigPath
	return os.ReadFile(path)
}

// LoadFile loads configuration from a YAML file, then applies the
// environment overlay and defaults
func LoadFile(path string) (*Config, error) {
	validPath, err := validateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := safeReadFile(validPath)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML on top of Default and finishes the configuration the
// same way LoadFile does
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.overlayEnv()
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

// Load builds configuration from defaults and environment variables only
func Load() (*Config, error) {
	cfg := Default()
	cfg.overlayEnv()
	cfg.applyDefaults()
	return cfg, cfg.validate()
}
