// internal/config/discover.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./hoard.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hoard", "hoard.toml")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. HOARD_CONFIG environment variable
//  2. ./hoard.toml (current directory)
//  3. $XDG_CONFIG_HOME/hoard/hoard.toml
//  4. /etc/hoard/hoard.toml
func Discover() (string, error) {
	if envPath := os.Getenv("HOARD_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("HOARD_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./hoard.toml",
		DefaultPath(),
		"/etc/hoard/hoard.toml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
