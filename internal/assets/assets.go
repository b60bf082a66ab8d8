// Package assets resolves icon and color overrides for action displays.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Built-in icon names.
const (
	IconMute    = "mute"
	IconAudio   = "audio"
	IconVolUp   = "vol_up"
	IconVolDown = "vol_down"
	IconVolume  = "volume"
	IconError   = "error"
)

// ColorLabel is the label text color.
const ColorLabel = "label"

// Color is an RGBA quadruple in 0-255.
type Color [4]int

var defaultIcons = map[string]string{
	IconMute:    "audio-volume-muted",
	IconAudio:   "audio-volume-high",
	IconVolUp:   "audio-volume-high",
	IconVolDown: "audio-volume-low",
	IconVolume:  "audio-volume-medium",
	IconError:   "dialog-error",
}

var defaultColors = map[string]Color{
	ColorLabel: {255, 255, 255, 255},
}

// Icon is a resolved icon: a theme icon name, or a file path when overridden.
type Icon struct {
	Key      string `json:"key"`
	Theme    string `json:"theme,omitempty"`
	Path     string `json:"path,omitempty"`
	Override bool   `json:"override"`
}

type overrides struct {
	Icons  map[string]string `json:"icons,omitempty"`
	Colors map[string]Color  `json:"colors,omitempty"`
}

// Manager merges persisted overrides over the built-in defaults.
type Manager struct {
	path string

	mu        sync.Mutex
	data      overrides
	listeners []func()
}

// Open loads the override file at path; a missing file means no overrides.
func Open(path string) (*Manager, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("assets path is empty")
	}
	m := &Manager{path: path}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the backing override file path.
func (m *Manager) Path() string {
	return m.path
}

// Reload re-reads the override file and notifies listeners.
func (m *Manager) Reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read assets file %q: %w", m.path, err)
	}

	var parsed overrides
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("decode assets file %q: %w", m.path, err)
		}
	}

	m.mu.Lock()
	m.data = parsed
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnChange registers fn to run after every successful save or reload.
func (m *Manager) OnChange(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Icon resolves one icon name.
func (m *Manager) Icon(name string) Icon {
	m.mu.Lock()
	defer m.mu.Unlock()
	icon := Icon{Key: name, Theme: defaultIcons[name]}
	if path, ok := m.data.Icons[name]; ok {
		icon.Path = path
		icon.Override = true
	}
	return icon
}

// Color resolves one color name; unknown names are opaque white.
func (m *Manager) Color(name string) Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.data.Colors[name]; ok {
		return c
	}
	if c, ok := defaultColors[name]; ok {
		return c
	}
	return Color{255, 255, 255, 255}
}

// Icons lists every known icon with overrides applied, sorted by name.
func (m *Manager) Icons() []Icon {
	names := make([]string, 0, len(defaultIcons))
	for name := range defaultIcons {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Icon, 0, len(names))
	for _, name := range names {
		out = append(out, m.Icon(name))
	}
	return out
}

// SetIcon overrides one built-in icon with an existing image file.
func (m *Manager) SetIcon(name string, path string) error {
	if _, ok := defaultIcons[name]; !ok {
		return fmt.Errorf("unknown icon %q", name)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve icon path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("icon file %q: %w", abs, err)
	}
	if info.IsDir() {
		return fmt.Errorf("icon file %q is a directory", abs)
	}

	return m.mutate(func(data *overrides) {
		if data.Icons == nil {
			data.Icons = map[string]string{}
		}
		data.Icons[name] = abs
	})
}

// SetColor overrides one named color.
func (m *Manager) SetColor(name string, c Color) error {
	if _, ok := defaultColors[name]; !ok {
		return fmt.Errorf("unknown color %q", name)
	}
	for _, channel := range c {
		if channel < 0 || channel > 255 {
			return fmt.Errorf("color %q channel %d out of range 0..255", name, channel)
		}
	}
	return m.mutate(func(data *overrides) {
		if data.Colors == nil {
			data.Colors = map[string]Color{}
		}
		data.Colors[name] = c
	})
}

// Reset drops the override for name (icon or color).
func (m *Manager) Reset(name string) error {
	return m.mutate(func(data *overrides) {
		delete(data.Icons, name)
		delete(data.Colors, name)
	})
}

func (m *Manager) mutate(apply func(*overrides)) error {
	m.mu.Lock()
	apply(&m.data)
	raw, err := json.MarshalIndent(m.data, "", "  ")
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode assets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}
	if err := os.WriteFile(m.path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write assets file: %w", err)
	}

	for _, fn := range listeners {
		fn()
	}
	return nil
}
