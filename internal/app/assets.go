package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rbright/deckmix/internal/assets"
	"github.com/rbright/deckmix/internal/config"
	"github.com/rbright/deckmix/internal/ipc"
)

// commandAssets edits the override file locally, then asks a running daemon to re-render.
func (r Runner) commandAssets(ctx context.Context, cfg config.Config, args []string) int {
	path, err := cfg.AssetsPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	manager, err := assets.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if len(args) == 0 {
		for _, icon := range manager.Icons() {
			source := icon.Theme
			if icon.Override {
				source = icon.Path + " (override)"
			}
			fmt.Fprintf(r.Stdout, "icon  %-8s %s\n", icon.Key, source)
		}
		c := manager.Color(assets.ColorLabel)
		fmt.Fprintf(r.Stdout, "color %-8s %d,%d,%d,%d\n", assets.ColorLabel, c[0], c[1], c[2], c[3])
		return 0
	}

	switch args[0] {
	case "set-icon":
		if len(args) != 3 {
			return r.assetsUsage()
		}
		err = manager.SetIcon(args[1], args[2])
	case "set-color":
		if len(args) != 5 && len(args) != 6 {
			return r.assetsUsage()
		}
		var c assets.Color
		c, err = parseColor(args[2:])
		if err == nil {
			err = manager.SetColor(args[1], c)
		}
	case "reset":
		if len(args) != 2 {
			return r.assetsUsage()
		}
		err = manager.Reset(args[1])
	default:
		return r.assetsUsage()
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if socketPath, sockErr := ipc.RuntimeSocketPath(); sockErr == nil {
		if _, handled, fwdErr := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandRefresh}); handled && fwdErr != nil {
			fmt.Fprintf(r.Stderr, "warning: daemon refresh failed: %v\n", fwdErr)
		}
	}
	fmt.Fprintf(r.Stdout, "saved %s\n", manager.Path())
	return 0
}

func (r Runner) assetsUsage() int {
	fmt.Fprintln(r.Stderr, "error: usage: assets [set-icon NAME PATH | set-color NAME R G B [A] | reset NAME]")
	return 2
}

// parseColor reads R G B and an optional alpha that defaults to opaque.
func parseColor(parts []string) (assets.Color, error) {
	c := assets.Color{0, 0, 0, 255}
	for i, raw := range parts {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return assets.Color{}, fmt.Errorf("color channel %q is not an integer", raw)
		}
		c[i] = v
	}
	return c, nil
}
