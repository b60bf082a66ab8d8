// Package doctor runs runtime readiness diagnostics for config, backend, sound server, and input devices.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/deckmix/internal/assets"
	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/config"
	"github.com/rbright/deckmix/internal/settings"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config against srv.
func Run(ctx context.Context, cfg config.Loaded, srv audio.Server) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the control socket", "XDG_RUNTIME_DIR is empty"))

	if cfg.Config.Backend.Kind == config.BackendScript {
		checks = append(checks, checkCommand(cfg.Config.Backend.Script.Argv, "backend.script_cmd"))
	}

	checks = append(checks, checkDefaultDevice(ctx, srv, audio.FilterSink))
	checks = append(checks, checkDefaultDevice(ctx, srv, audio.FilterSource))
	checks = append(checks, checkSettings(cfg.Config))
	checks = append(checks, checkAssets(cfg.Config))

	for _, binding := range cfg.Config.Input.Bindings {
		checks = append(checks, checkInputDevice(binding))
	}

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkDefaultDevice lists devices of one filter and reports the server default.
func checkDefaultDevice(ctx context.Context, srv audio.Server, filter audio.Filter) Check {
	name := "audio." + string(filter)
	devices, err := srv.Devices(ctx, filter)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	usable := audio.Usable(devices)
	for _, dev := range devices {
		if dev.Default {
			return Check{Name: name, Pass: true, Message: fmt.Sprintf("default %q (%d usable)", dev.Label(), len(usable))}
		}
	}
	if len(usable) == 0 {
		return Check{Name: name, Pass: false, Message: "no usable devices"}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("no default; falling back to %q", usable[0].Label())}
}

func checkSettings(cfg config.Config) Check {
	path, err := cfg.SettingsPath()
	if err != nil {
		return Check{Name: "settings", Pass: false, Message: err.Error()}
	}
	store, err := settings.Open(path)
	if err != nil {
		return Check{Name: "settings", Pass: false, Message: err.Error()}
	}
	return Check{Name: "settings", Pass: true, Message: fmt.Sprintf("%d instance(s) in %q", len(store.IDs()), path)}
}

func checkAssets(cfg config.Config) Check {
	path, err := cfg.AssetsPath()
	if err != nil {
		return Check{Name: "assets", Pass: false, Message: err.Error()}
	}
	if _, err := assets.Open(path); err != nil {
		return Check{Name: "assets", Pass: false, Message: err.Error()}
	}
	return Check{Name: "assets", Pass: true, Message: fmt.Sprintf("overrides from %q", path)}
}

// checkInputDevice confirms a bound evdev node can be opened for reading.
func checkInputDevice(binding config.InputBinding) Check {
	name := "input." + binding.Instance
	f, err := os.Open(binding.Device)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	_ = f.Close()
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s readable", binding.Device)}
}
