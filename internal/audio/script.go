package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ScriptController shells out to a control script for every change.
//
// The script always acts on the system default device and understands
// `up <n>`, `down <n>`, `set <n>` and `mute` (toggle).
type ScriptController struct {
	Argv []string
}

// NewScriptController returns a controller for argv, the script command and its leading arguments.
func NewScriptController(argv []string) (*ScriptController, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("control script command must not be empty")
	}
	return &ScriptController{Argv: append([]string(nil), argv...)}, nil
}

// ChangeVolume sends `up <n>` or `down <n>`.
func (c *ScriptController) ChangeVolume(ctx context.Context, _ Device, step int) error {
	switch {
	case step > 0:
		return c.run(ctx, "up", strconv.Itoa(step))
	case step < 0:
		return c.run(ctx, "down", strconv.Itoa(-step))
	default:
		return nil
	}
}

// SetVolume sends `set <n>`.
func (c *ScriptController) SetVolume(ctx context.Context, _ Device, percent int) error {
	return c.run(ctx, "set", strconv.Itoa(percent))
}

// SetMute toggles through the script only when the current state differs.
func (c *ScriptController) SetMute(ctx context.Context, dev Device, muted bool) error {
	if dev.Muted == muted {
		return nil
	}
	return c.run(ctx, "mute")
}

func (c *ScriptController) run(ctx context.Context, args ...string) error {
	_, err := runScriptOutput(ctx, c.Argv, args...)
	return err
}

func runScriptOutput(ctx context.Context, argv []string, args ...string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("control script command must not be empty")
	}
	full := append(append([]string(nil), argv[1:]...), args...)
	cmd := exec.CommandContext(ctx, argv[0], full...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("%s %v failed: %w", argv[0], full, err)
		}
		return nil, fmt.Errorf("%s %v failed: %w (%s)", argv[0], full, err, trimmed)
	}
	return out, nil
}
