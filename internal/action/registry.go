package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/rbright/deckmix/internal/assets"
	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/settings"
)

// Indicator surfaces action failures to the user.
type Indicator interface {
	ShowError(ctx context.Context, title string, message string)
}

type noopIndicator struct{}

func (noopIndicator) ShowError(context.Context, string, string) {}

// Deps wires the registry to the sound server and persistence.
type Deps struct {
	Logger     *slog.Logger
	Server     audio.Server
	Controller audio.Controller
	Store      *settings.Store
	Assets     *assets.Manager
	Indicator  Indicator
}

type tracked struct {
	ok    bool
	index uint32
	name  string
	label string
}

type instance struct {
	id      string
	kind    Kind
	opts    options
	optsErr error
	tracked tracked
	display Display
}

// Registry owns every configured instance. All instance work runs under one mutex.
type Registry struct {
	logger     *slog.Logger
	server     audio.Server
	controller audio.Controller
	store      *settings.Store
	assets     *assets.Manager
	indicator  Indicator

	mu        sync.Mutex
	instances map[string]*instance
	observers []func(Display)
}

// NewRegistry builds an empty registry. Server and Store are required.
func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Server == nil {
		return nil, errors.New("action registry requires an audio server")
	}
	if deps.Store == nil {
		return nil, errors.New("action registry requires a settings store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	controller := deps.Controller
	if controller == nil {
		controller = audio.NewNativeController(deps.Server)
	}
	indicator := deps.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}

	return &Registry{
		logger:     logger,
		server:     deps.Server,
		controller: controller,
		store:      deps.Store,
		assets:     deps.Assets,
		indicator:  indicator,
		instances:  map[string]*instance{},
	}, nil
}

// OnDisplay registers fn for every display change. fn runs with the registry
// locked and must not call back into the registry.
func (r *Registry) OnDisplay(fn func(Display)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Load creates one instance per stored record and renders each.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx, r.instances)
	return nil
}

// Reload re-reads the settings store and rebuilds every instance from it.
// Readers see either the old or the new instance set, never an empty one.
func (r *Registry) Reload(ctx context.Context) error {
	if err := r.store.Reload(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fresh := map[string]*instance{}
	r.loadLocked(ctx, fresh)
	r.instances = fresh
	return nil
}

func (r *Registry) loadLocked(ctx context.Context, into map[string]*instance) {
	for _, id := range r.store.IDs() {
		stored, ok := r.store.Get(id)
		if !ok {
			continue
		}
		inst := &instance{id: id}
		kind, err := ParseKind(stored.Action)
		if err != nil {
			r.logger.Warn("skip stored instance", "instance", id, "error", err.Error())
			continue
		}
		inst.kind = kind
		inst.opts, inst.optsErr = parseOptions(kind, stored.Settings)
		into[id] = inst
		r.refreshLocked(ctx, inst, nil)
	}
}

// IDs lists loaded instance ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Display returns the last rendered state of one instance.
func (r *Registry) Display(id string) (Display, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok {
		return Display{}, fmt.Errorf("%w: %q", ErrUnknownInstance, id)
	}
	return inst.display, nil
}

// Displays returns every rendered state sorted by instance id.
func (r *Registry) Displays() []Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Display, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst.display)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

// Dispatch delivers one input to an instance and returns its refreshed display.
// turns is the dial detent count for dial-cw/dial-ccw; values below one count as one.
func (r *Registry) Dispatch(ctx context.Context, id string, in Input, turns int) (Display, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[id]
	if !ok {
		return Display{}, fmt.Errorf("%w: %q", ErrUnknownInstance, id)
	}
	if turns < 1 {
		turns = 1
	}

	var err error
	switch in {
	case InputKeyHold, InputDialHold:
		err = r.reloadLocked(inst)
	case InputKeyDown:
		err = r.keyDown(ctx, inst)
	case InputDialCW:
		err = r.dialTurn(ctx, inst, 1, turns)
	case InputDialCCW:
		err = r.dialTurn(ctx, inst, -1, turns)
	case InputDialDown:
		err = r.dialDown(ctx, inst)
	default:
		return inst.display, fmt.Errorf("%w: %q", ErrUnknownInput, in)
	}

	if err != nil {
		r.logger.Error("action failed", "instance", id, "action", inst.kind, "input", in, "error", err.Error())
		r.indicator.ShowError(ctx, fmt.Sprintf("deckmix: %s", inst.kind), err.Error())
	}
	r.refreshLocked(ctx, inst, err)
	return inst.display, err
}

// Configure creates or updates an instance, persists its settings, and renders it.
// An empty kind keeps the stored action.
func (r *Registry) Configure(ctx context.Context, id string, kind Kind, changes settings.Settings) (Display, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Display{}, errors.New("instance id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, _ := r.store.Get(id)
	if kind == "" {
		kind = Kind(stored.Action)
	}
	kind, err := ParseKind(string(kind))
	if err != nil {
		return Display{}, err
	}

	changes = cloneSettings(changes)
	if err := r.normalizeDeviceChange(ctx, stored.Settings, changes); err != nil {
		return Display{}, err
	}

	merged := cloneSettings(stored.Settings)
	for key, value := range changes {
		if value == nil {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	opts, err := parseOptions(kind, merged)
	if err != nil {
		return Display{}, fmt.Errorf("configure %q: %w", id, err)
	}

	if _, err := r.store.Update(id, string(kind), changes); err != nil {
		return Display{}, err
	}

	inst, ok := r.instances[id]
	if !ok || inst.kind != kind {
		inst = &instance{id: id}
		r.instances[id] = inst
	}
	inst.kind = kind
	inst.opts = opts
	inst.optsErr = nil
	r.refreshLocked(ctx, inst, nil)
	return inst.display, nil
}

// Remove forgets an instance and deletes its stored settings.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, id)
	}
	delete(r.instances, id)
	return r.store.Delete(id)
}

// RefreshAll re-renders every instance.
func (r *Registry) RefreshAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range sortedIDs(r.instances) {
		r.refreshLocked(ctx, r.instances[id], nil)
	}
}

// OnDeviceEvent refreshes the instances tracking the device at index.
// Instances that have not resolved a device yet are refreshed on any event of their filter.
func (r *Registry) OnDeviceEvent(ctx context.Context, filter audio.Filter, index uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range sortedIDs(r.instances) {
		inst := r.instances[id]
		if inst.optsErr != nil || inst.opts.filter != filter {
			continue
		}
		if !r.tracksIndex(ctx, inst, index) {
			continue
		}
		r.refreshLocked(ctx, inst, nil)
	}
}

// tracksIndex compares index with the instance device, which for use-standard
// instances is whatever the server default is right now.
func (r *Registry) tracksIndex(ctx context.Context, inst *instance, index uint32) bool {
	if inst.opts.useStandard {
		dev, err := audio.DefaultDevice(ctx, r.server, inst.opts.filter)
		if err != nil {
			return true
		}
		return dev.Index == index
	}
	if !inst.tracked.ok {
		return true
	}
	return inst.tracked.index == index
}

func (r *Registry) reloadLocked(inst *instance) error {
	if err := r.store.Reload(); err != nil {
		return err
	}
	stored, ok := r.store.Get(inst.id)
	if !ok {
		return fmt.Errorf("%w: %q has no stored settings", ErrUnknownInstance, inst.id)
	}
	inst.opts, inst.optsErr = parseOptions(inst.kind, stored.Settings)
	return inst.optsErr
}

func (r *Registry) keyDown(ctx context.Context, inst *instance) error {
	switch inst.kind {
	case KindMute:
		return r.toggleMute(ctx, inst)
	case KindSetVolume:
		return r.setVolume(ctx, inst)
	case KindAdjustVolume:
		return r.adjust(ctx, inst, inst.opts.volumeAdjust)
	case KindDial:
		return r.dialDown(ctx, inst)
	default:
		return nil
	}
}

func (r *Registry) dialTurn(ctx context.Context, inst *instance, direction int, turns int) error {
	if inst.kind != KindDial {
		return nil
	}
	for i := 0; i < turns; i++ {
		if err := r.adjust(ctx, inst, direction*inst.opts.volumeAdjust); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) dialDown(ctx context.Context, inst *instance) error {
	if inst.kind != KindDial {
		return nil
	}
	if inst.opts.behaviour == BehaviourSetVolume {
		return r.setVolume(ctx, inst)
	}
	return r.toggleMute(ctx, inst)
}

func (r *Registry) toggleMute(ctx context.Context, inst *instance) error {
	dev, err := r.resolve(ctx, inst)
	if err != nil {
		return err
	}
	return r.controller.SetMute(ctx, dev, !dev.Muted)
}

func (r *Registry) setVolume(ctx context.Context, inst *instance) error {
	dev, err := r.resolve(ctx, inst)
	if err != nil {
		return err
	}
	return r.controller.SetVolume(ctx, dev, inst.opts.targetVolume())
}

func (r *Registry) adjust(ctx context.Context, inst *instance, step int) error {
	dev, err := r.resolve(ctx, inst)
	if err != nil {
		return err
	}
	plan := audio.PlanAdjust(dev.Percentages(), step, inst.opts.volumeBounds)
	r.logger.Debug("volume adjust", "instance", inst.id, "device", dev.Name, "plan", plan.Kind.String(), "step", plan.Step, "target", plan.Target)
	return audio.ApplyAdjust(ctx, r.controller, dev, plan)
}

// resolve looks the instance device up again and updates the tracked identity.
func (r *Registry) resolve(ctx context.Context, inst *instance) (audio.Device, error) {
	if inst.optsErr != nil {
		return audio.Device{}, inst.optsErr
	}

	var (
		dev audio.Device
		err error
	)
	opts := inst.opts
	if !opts.useStandard && opts.pulseName == "" && opts.deviceLabel != "" {
		dev, err = audio.FindByLabel(ctx, r.server, opts.filter, opts.deviceLabel)
	} else {
		dev, err = audio.Resolve(ctx, r.server, opts.selector())
	}
	if err != nil {
		return audio.Device{}, err
	}

	inst.tracked = tracked{ok: true, index: dev.Index, name: dev.Name, label: dev.Label()}
	return dev, nil
}

// normalizeDeviceChange clears the stored device name on a filter switch and
// translates a chosen device label into its internal name.
func (r *Registry) normalizeDeviceChange(ctx context.Context, stored settings.Settings, changes settings.Settings) error {
	if raw, ok := changes[KeyDeviceFilter]; ok {
		if _, named := changes[KeyPulseName]; !named && fmt.Sprint(raw) != stored.String(KeyDeviceFilter, string(audio.FilterSink)) {
			changes[KeyPulseName] = nil
		}
	}

	label, ok := changes[KeyDeviceName]
	if !ok {
		return nil
	}
	if _, named := changes[KeyPulseName]; named && changes[KeyPulseName] != nil {
		return nil
	}
	labelText := strings.TrimSpace(fmt.Sprint(label))
	if label == nil || labelText == "" {
		return nil
	}

	filterRaw := stored.String(KeyDeviceFilter, string(audio.FilterSink))
	if raw, ok := changes[KeyDeviceFilter]; ok {
		filterRaw = fmt.Sprint(raw)
	}
	filter, err := audio.ParseFilter(filterRaw)
	if err != nil {
		return err
	}
	dev, err := audio.FindByLabel(ctx, r.server, filter, labelText)
	if err != nil {
		return err
	}
	changes[KeyPulseName] = dev.Name
	return nil
}

func (r *Registry) refreshLocked(ctx context.Context, inst *instance, actionErr error) {
	display := Display{Instance: inst.id, Action: inst.kind}

	var devPtr *audio.Device
	dev, err := r.resolve(ctx, inst)
	if err == nil {
		devPtr = &dev
		display.Device = dev.Name
		display.Muted = dev.Muted
		if v, ok := firstVolume(devPtr); ok {
			display.Volume = &v
		}
	} else {
		r.logger.Warn("resolve device failed", "instance", inst.id, "error", err.Error())
	}

	display.Top = topLabel(inst.opts, devPtr, inst.tracked.label)
	display.Bottom = bottomLabel(inst.kind, inst.opts, devPtr)

	icon := iconName(inst.kind, inst.opts, devPtr)
	switch {
	case actionErr != nil:
		display.Error = actionErr.Error()
		icon = assets.IconError
	case err != nil:
		display.Error = err.Error()
		icon = assets.IconError
	}
	display.Icon, display.Color = r.style(icon)

	inst.display = display
	for _, fn := range r.observers {
		fn(display)
	}
}

func (r *Registry) style(icon string) (assets.Icon, assets.Color) {
	if r.assets == nil {
		return assets.Icon{Key: icon}, assets.Color{255, 255, 255, 255}
	}
	return r.assets.Icon(icon), r.assets.Color(assets.ColorLabel)
}

func sortedIDs(instances map[string]*instance) []string {
	ids := make([]string, 0, len(instances))
	for id := range instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneSettings(in settings.Settings) settings.Settings {
	out := make(settings.Settings, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
