package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const appDir = "deckmix"

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(dir, "config.jsonc"), nil
}

// SettingsPath returns the configured settings store path or the XDG default.
func (c Config) SettingsPath() (string, error) {
	return pathOrDefault(c.Settings.Path, "actions.yaml")
}

// AssetsPath returns the configured asset override path or the XDG default.
func (c Config) AssetsPath() (string, error) {
	return pathOrDefault(c.Assets.Path, "assets.json")
}

func pathOrDefault(configured string, name string) (string, error) {
	if p := strings.TrimSpace(configured); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDir), nil
}
