// Package app wires CLI commands to the daemon, the IPC client, and local tooling.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rbright/deckmix/internal/action"
	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/cli"
	"github.com/rbright/deckmix/internal/config"
	"github.com/rbright/deckmix/internal/doctor"
	"github.com/rbright/deckmix/internal/ipc"
	"github.com/rbright/deckmix/internal/logging"
	"github.com/rbright/deckmix/internal/settings"
	"github.com/rbright/deckmix/internal/version"
)

const forwardTimeout = 2 * time.Second

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Server replaces the PulseAudio connection when set.
	Server audio.Server
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("deckmix"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("deckmix"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"args", parsed.Args,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, r.server())
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx, parsed.Args)
	case cli.CommandAssets:
		return r.commandAssets(ctx, cfgLoaded.Config, parsed.Args)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.commandInput(ctx, parsed.Args[0], action.InputKeyDown, 1)
	case cli.CommandHold:
		return r.commandInput(ctx, parsed.Args[0], action.InputKeyHold, 1)
	case cli.CommandDialPress:
		return r.commandInput(ctx, parsed.Args[0], action.InputDialDown, 1)
	case cli.CommandTurn:
		return r.commandTurn(ctx, parsed.Args[0], parsed.Args[1])
	case cli.CommandDisplay:
		req := ipc.Request{Command: ipc.CommandDisplay}
		if len(parsed.Args) > 0 {
			req.Instance = parsed.Args[0]
		}
		return r.forwardAndPrint(ctx, req)
	case cli.CommandSettings:
		return r.commandSettings(ctx, parsed.Args[0])
	case cli.CommandConfigure:
		return r.commandConfigure(ctx, parsed.Args)
	case cli.CommandRemove:
		return r.forwardAndPrint(ctx, ipc.Request{Command: ipc.CommandRemove, Instance: parsed.Args[0]})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) server() audio.Server {
	if r.Server != nil {
		return r.Server
	}
	return audio.NewPulseServer(version.ClientName())
}

func (r Runner) commandDevices(ctx context.Context, args []string) int {
	filters := []audio.Filter{audio.FilterSink, audio.FilterSource}
	if len(args) > 0 {
		filter, err := audio.ParseFilter(args[0])
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}
		filters = []audio.Filter{filter}
	}

	srv := r.server()
	found := 0
	for _, filter := range filters {
		devices, err := srv.Devices(ctx, filter)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		for _, device := range devices {
			found++
			defaultMark := " "
			if device.Default {
				defaultMark = "*"
			}
			muted := "no"
			if device.Muted {
				muted = "yes"
			}
			monitor := ""
			if device.Monitor {
				monitor = " | monitor"
			}
			fmt.Fprintf(
				r.Stdout,
				"%s %s index=%d | name=%s | label=%q | volume=%s | muted=%s%s\n",
				defaultMark,
				device.Filter,
				device.Index,
				device.Name,
				device.Label(),
				formatPercentages(device.Percentages()),
				muted,
				monitor,
			)
		}
	}
	if found == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "stopped"
		}
		if resp.Message != "" {
			fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Message)
			return 0
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "stopped")
	return 0
}

func (r Runner) commandInput(ctx context.Context, instance string, in action.Input, turns int) int {
	return r.forwardAndPrint(ctx, ipc.Request{
		Command:  ipc.CommandInput,
		Instance: instance,
		Input:    string(in),
		Turns:    turns,
	})
}

func (r Runner) commandTurn(ctx context.Context, instance string, raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		fmt.Fprintf(r.Stderr, "error: turns must be a non-zero integer, got %q\n", raw)
		return 2
	}
	if n < 0 {
		return r.commandInput(ctx, instance, action.InputDialCCW, -n)
	}
	return r.commandInput(ctx, instance, action.InputDialCW, n)
}

func (r Runner) commandSettings(ctx context.Context, instance string) int {
	resp, code := r.forward(ctx, ipc.Request{Command: ipc.CommandSettingsGet, Instance: instance})
	if code != 0 {
		return code
	}
	out, err := yaml.Marshal(map[string]any{
		"action":   resp.Message,
		"settings": resp.Settings,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: encode settings: %v\n", err)
		return 1
	}
	fmt.Fprint(r.Stdout, string(out))
	return 0
}

func (r Runner) commandConfigure(ctx context.Context, args []string) int {
	kind, err := action.ParseKind(args[1])
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}
	changes, err := settings.ParseAssignments(args[2:])
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}
	return r.forwardAndPrint(ctx, ipc.Request{
		Command:  ipc.CommandSettingsSet,
		Instance: args[0],
		Action:   string(kind),
		Settings: changes,
	})
}

// forward sends req to the running daemon, printing failures to stderr.
func (r Runner) forward(ctx context.Context, req ipc.Request) (ipc.Response, int) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: deckmix daemon is not running\n")
		return ipc.Response{}, 1
	}
	if err != nil {
		if resp.Display != nil {
			fmt.Fprintln(r.Stdout, formatDisplay(*resp.Display))
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return resp, 1
	}
	return resp, 0
}

func (r Runner) forwardAndPrint(ctx context.Context, req ipc.Request) int {
	resp, code := r.forward(ctx, req)
	if code != 0 {
		return code
	}
	if resp.Display != nil {
		fmt.Fprintln(r.Stdout, formatDisplay(*resp.Display))
	}
	for _, d := range resp.Displays {
		fmt.Fprintln(r.Stdout, formatDisplay(d))
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func formatDisplay(d action.Display) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] top=%q bottom=%q icon=%s", d.Instance, d.Action, d.Top, d.Bottom, d.Icon.Key)
	if d.Device != "" {
		fmt.Fprintf(&b, " device=%s", d.Device)
	}
	if d.Muted {
		b.WriteString(" muted")
	}
	if d.HasError() {
		fmt.Fprintf(&b, " error=%q", d.Error)
	}
	return b.String()
}

func formatPercentages(values []int) string {
	if len(values) == 0 {
		return "n/a"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v) + "%"
	}
	return strings.Join(parts, ",")
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		return resp, true, resp.Err()
	}

	if ipc.Unavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
