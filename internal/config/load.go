package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration, then
// checks the files the daemon will touch: the settings store, the asset
// overrides, and every bound input device.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath, Config: Default()}
	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Exists = true
	}

	loaded.Warnings = append(loaded.Warnings, fileWarnings(loaded.Config)...)
	return loaded, nil
}

func fileWarnings(cfg Config) []Warning {
	var warnings []Warning

	stores := []struct {
		label   string
		resolve func() (string, error)
	}{
		{"settings", cfg.SettingsPath},
		{"assets", cfg.AssetsPath},
	}
	for _, store := range stores {
		path, err := store.resolve()
		if err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("%s path: %v", store.label, err)})
			continue
		}
		if w, ok := storeWarning(store.label, path); ok {
			warnings = append(warnings, w)
		}
	}

	for i, binding := range cfg.Input.Bindings {
		if _, err := os.Stat(binding.Device); err != nil {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("input.bindings[%d] device %q is not available (%v); the input bridge will not start", i, binding.Device, err),
			})
		}
	}
	return warnings
}

func storeWarning(label string, path string) (Warning, bool) {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return Warning{Message: fmt.Sprintf("%s file %q is a directory", label, path)}, true
		}
		return Warning{}, false
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return Warning{Message: fmt.Sprintf("%s directory %q does not exist; it is created on first save", label, dir)}, true
	}
	return Warning{}, false
}
