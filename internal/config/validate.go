package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch cfg.Backend.Kind {
	case BackendNative:
		if len(cfg.Backend.Script.Argv) > 0 {
			warnings = append(warnings, Warning{Message: "backend.script_cmd is ignored when backend.kind=native"})
		}
	case BackendScript:
		if len(cfg.Backend.Script.Argv) == 0 {
			return nil, fmt.Errorf("backend.script_cmd must not be empty when backend.kind=script")
		}
	default:
		return nil, fmt.Errorf("backend.kind must be one of: native, script")
	}

	seenFilters := make(map[string]struct{}, len(cfg.Relay.Filters))
	for _, f := range cfg.Relay.Filters {
		if f != FilterSink && f != FilterSource {
			return nil, fmt.Errorf("relay.filters entries must be one of: sink, source (got %q)", f)
		}
		if _, dup := seenFilters[f]; dup {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("relay.filters lists %q more than once", f)})
		}
		seenFilters[f] = struct{}{}
	}
	if cfg.Relay.Enable && len(cfg.Relay.Filters) == 0 {
		warnings = append(warnings, Warning{Message: "relay.enable=true with no filters; no device events will be received"})
	}

	if cfg.Display.Enable {
		if strings.TrimSpace(cfg.Display.Listen) == "" {
			return nil, fmt.Errorf("display.listen must not be empty when display.enable=true")
		}
		if !strings.HasPrefix(cfg.Display.Path, "/") {
			return nil, fmt.Errorf("display.path must start with '/'")
		}
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.AppName) == "" {
		return nil, fmt.Errorf("indicator.app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	seenDevices := make(map[string]struct{}, len(cfg.Input.Bindings))
	for _, b := range cfg.Input.Bindings {
		if _, dup := seenDevices[b.Device]; dup {
			return nil, fmt.Errorf("input device %q bound more than once", b.Device)
		}
		seenDevices[b.Device] = struct{}{}
		if b.Key < 0 || b.Key > 0xFFFF {
			return nil, fmt.Errorf("input binding key for %q must be in 0..65535", b.Device)
		}
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
