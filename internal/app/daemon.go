package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/deckmix/internal/action"
	"github.com/rbright/deckmix/internal/assets"
	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/config"
	"github.com/rbright/deckmix/internal/display"
	"github.com/rbright/deckmix/internal/fsm"
	"github.com/rbright/deckmix/internal/indicator"
	"github.com/rbright/deckmix/internal/input"
	"github.com/rbright/deckmix/internal/ipc"
	"github.com/rbright/deckmix/internal/relay"
	"github.com/rbright/deckmix/internal/settings"
	"github.com/rbright/deckmix/internal/version"
)

// daemon owns the registry and every long-running component of `deckmix serve`.
type daemon struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *settings.Store
	assets   *assets.Manager
	notifier *indicator.Desktop
	registry *action.Registry
	display  *display.Server

	mu    sync.Mutex
	state fsm.State
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: 180 * time.Millisecond,
		Retries:      8,
		OnStale: func(path string) {
			logger.Warn("removed stale daemon socket", "path", path)
		},
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: deckmix daemon already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	d, err := newDaemon(ctx, cfg, logger, r.server())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}

	if err := d.run(ctx, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon stopped", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func newDaemon(ctx context.Context, cfg config.Config, logger *slog.Logger, srv audio.Server) (*daemon, error) {
	settingsPath, err := cfg.SettingsPath()
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}
	store, err := settings.Open(settingsPath)
	if err != nil {
		return nil, err
	}
	assetsPath, err := cfg.AssetsPath()
	if err != nil {
		return nil, fmt.Errorf("resolve assets path: %w", err)
	}
	assetManager, err := assets.Open(assetsPath)
	if err != nil {
		return nil, err
	}

	var controller audio.Controller
	switch cfg.Backend.Kind {
	case config.BackendScript:
		controller, err = audio.NewScriptController(cfg.Backend.Script.Argv)
		if err != nil {
			return nil, err
		}
	default:
		controller = audio.NewNativeController(srv)
	}

	notifier := indicator.NewDesktop(cfg.Indicator, logger)
	registry, err := action.NewRegistry(action.Deps{
		Logger:     logger,
		Server:     srv,
		Controller: controller,
		Store:      store,
		Assets:     assetManager,
		Indicator:  notifier,
	})
	if err != nil {
		return nil, err
	}

	d := &daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		assets:   assetManager,
		notifier: notifier,
		registry: registry,
		state:    fsm.StateStarting,
	}
	if cfg.Display.Enable {
		d.display = display.NewServer(logger, registry.Displays, display.HubConfig{})
		registry.OnDisplay(d.display.Publish)
	}
	assetManager.OnChange(func() { registry.RefreshAll(ctx) })

	if err := registry.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// run blocks until ctx is cancelled or a fatal component fails.
func (d *daemon) run(ctx context.Context, listener net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ipc.Serve(gctx, listener, d)
	})

	if filters := d.relayFilters(); len(filters) > 0 {
		l := &relay.Listener{
			AppName: version.ClientName(),
			Filters: filters,
			OnEvent: func(ev relay.Event) {
				d.logger.Debug("device event", "facility", ev.Facility, "type", ev.Type, "index", ev.Index)
				d.registry.OnDeviceEvent(gctx, ev.Facility, ev.Index)
			},
		}
		g.Go(func() error {
			if err := l.Run(gctx); err != nil {
				d.logger.Error("device relay stopped; displays refresh on input only", "error", err.Error())
				d.transition(fsm.EventDegrade)
			}
			return nil
		})
	}

	if d.display != nil {
		g.Go(func() error {
			return d.display.ListenAndServe(gctx, d.cfg.Display.Listen, d.cfg.Display.Path)
		})
	}

	if len(d.cfg.Input.Bindings) > 0 {
		bridge := &input.Bridge{
			Logger:   d.logger,
			Bindings: inputBindings(d.cfg.Input.Bindings),
			Kinds:    d.kindOf,
			Handle: func(ctx context.Context, ev input.Event) {
				_, _ = d.registry.Dispatch(ctx, ev.Instance, ev.Input, ev.Turns)
			},
		}
		g.Go(func() error {
			if err := bridge.Run(gctx); err != nil {
				d.logger.Error("input bridge stopped", "error", err.Error())
				d.transition(fsm.EventDegrade)
			}
			return nil
		})
	}

	d.transition(fsm.EventReady)
	d.logger.Info("daemon started",
		"instances", len(d.registry.IDs()),
		"backend", d.cfg.Backend.Kind,
		"relay", d.cfg.Relay.Enable,
		"display", d.cfg.Display.Enable,
		"input_bindings", len(d.cfg.Input.Bindings),
	)

	err := g.Wait()
	d.transition(fsm.EventShutdown)
	d.notifier.Hide(context.Background())
	return err
}

func (d *daemon) transition(event fsm.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := fsm.Transition(d.state, event)
	if err != nil {
		d.logger.Debug("ignored lifecycle event", "state", d.state, "event", event, "error", err.Error())
		return
	}
	if next != d.state {
		d.logger.Info("daemon state", "from", d.state, "to", next)
	}
	d.state = next
}

func (d *daemon) currentState() fsm.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *daemon) relayFilters() []audio.Filter {
	if !d.cfg.Relay.Enable {
		return nil
	}
	filters := make([]audio.Filter, 0, len(d.cfg.Relay.Filters))
	for _, raw := range d.cfg.Relay.Filters {
		filter, err := audio.ParseFilter(raw)
		if err != nil {
			d.logger.Warn("skip relay filter", "filter", raw, "error", err.Error())
			continue
		}
		filters = append(filters, filter)
	}
	return filters
}

func (d *daemon) kindOf(id string) (action.Kind, bool) {
	disp, err := d.registry.Display(id)
	if err != nil {
		return "", false
	}
	return disp.Action, true
}

func inputBindings(in []config.InputBinding) []input.Binding {
	out := make([]input.Binding, 0, len(in))
	for _, b := range in {
		out = append(out, input.Binding{Device: b.Device, Instance: b.Instance, Key: uint16(b.Key)})
	}
	return out
}

// Handle serves one IPC request.
func (d *daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(d.currentState()), Message: fmt.Sprintf("%d instance(s)", len(d.registry.IDs()))}
	case ipc.CommandInput:
		in, err := action.ParseInput(req.Input)
		if err != nil {
			return ipc.Failure(err)
		}
		disp, err := d.registry.Dispatch(ctx, req.Instance, in, req.Turns)
		if err != nil {
			resp := ipc.Failure(err)
			if !errors.Is(err, action.ErrUnknownInstance) {
				resp.Display = &disp
			}
			return resp
		}
		return ipc.Response{OK: true, Display: &disp}
	case ipc.CommandDisplay:
		if req.Instance == "" {
			return ipc.Response{OK: true, Displays: d.registry.Displays()}
		}
		disp, err := d.registry.Display(req.Instance)
		if err != nil {
			return ipc.Failure(err)
		}
		return ipc.Response{OK: true, Display: &disp}
	case ipc.CommandSettingsGet:
		inst, ok := d.store.Get(req.Instance)
		if !ok {
			return ipc.Failure(fmt.Errorf("%w: %q", action.ErrUnknownInstance, req.Instance))
		}
		return ipc.Response{OK: true, Message: inst.Action, Settings: inst.Settings}
	case ipc.CommandSettingsSet:
		disp, err := d.registry.Configure(ctx, req.Instance, action.Kind(req.Action), req.Settings)
		if err != nil {
			return ipc.Failure(err)
		}
		return ipc.Response{OK: true, Display: &disp}
	case ipc.CommandRemove:
		if err := d.registry.Remove(req.Instance); err != nil {
			return ipc.Failure(err)
		}
		return ipc.Response{OK: true, Message: fmt.Sprintf("removed %s", req.Instance)}
	case ipc.CommandRefresh:
		if err := d.registry.Reload(ctx); err != nil {
			return ipc.Failure(err)
		}
		if err := d.assets.Reload(); err != nil {
			return ipc.Failure(err)
		}
		return ipc.Response{OK: true, Message: fmt.Sprintf("refreshed %d instance(s)", len(d.registry.IDs()))}
	default:
		return ipc.Failure(fmt.Errorf("unknown command %q", req.Command))
	}
}
