// Package audio resolves sound-server devices and applies volume and mute changes.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDeviceNotFound reports that no device matched a lookup.
var ErrDeviceNotFound = errors.New("audio device not found")

// Filter selects which device list a lookup searches.
type Filter string

const (
	FilterSink   Filter = "sink"
	FilterSource Filter = "source"
)

// ParseFilter accepts sink/source (case-insensitive) and defaults empty input to sink.
func ParseFilter(raw string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FilterSink):
		return FilterSink, nil
	case string(FilterSource):
		return FilterSource, nil
	default:
		return "", fmt.Errorf("unknown device filter %q (want sink or source)", raw)
	}
}

// Device is one sink or source snapshot as reported by the sound server.
type Device struct {
	Filter      Filter
	Index       uint32
	Name        string
	Description string
	Properties  map[string]string
	Muted       bool
	Volumes     []float64
	Monitor     bool
	Default     bool
}

// Percentages returns per-channel volumes rounded to whole percent.
func (d Device) Percentages() []int {
	out := make([]int, 0, len(d.Volumes))
	for _, v := range d.Volumes {
		out = append(out, int(math.Round(v*100)))
	}
	return out
}

// Label returns the most readable property-derived name, falling back to the description.
func (d Device) Label() string {
	if label, ok := BestLabel(d.Properties); ok {
		return label
	}
	return d.Description
}

// Server is the snapshot-query and mutation surface of the sound server.
type Server interface {
	Devices(ctx context.Context, filter Filter) ([]Device, error)
	DefaultName(ctx context.Context, filter Filter) (string, error)
	SetChannelVolumes(ctx context.Context, filter Filter, name string, volumes []float64) error
	SetMute(ctx context.Context, filter Filter, name string, mute bool) error
}

// Selector describes how an action picks its device.
type Selector struct {
	Filter     Filter
	Name       string
	UseDefault bool
}

// Resolve picks the default device, a device by name, or the first usable device, in that order.
func Resolve(ctx context.Context, srv Server, sel Selector) (Device, error) {
	if sel.UseDefault {
		return DefaultDevice(ctx, srv, sel.Filter)
	}
	if strings.TrimSpace(sel.Name) != "" {
		return FindByName(ctx, srv, sel.Filter, sel.Name)
	}

	devices, err := srv.Devices(ctx, sel.Filter)
	if err != nil {
		return Device{}, err
	}
	return firstUsable(devices, sel.Filter)
}

// DefaultDevice resolves the server default sink or source.
func DefaultDevice(ctx context.Context, srv Server, filter Filter) (Device, error) {
	name, err := srv.DefaultName(ctx, filter)
	if err != nil {
		return Device{}, fmt.Errorf("read default %s: %w", filter, err)
	}
	return FindByName(ctx, srv, filter, name)
}

// FindByName looks up one device by its internal server name.
func FindByName(ctx context.Context, srv Server, filter Filter, name string) (Device, error) {
	devices, err := srv.Devices(ctx, filter)
	if err != nil {
		return Device{}, err
	}
	return findByName(devices, filter, name)
}

// FindByLabel looks up the first non-monitor device whose resolved label equals label.
func FindByLabel(ctx context.Context, srv Server, filter Filter, label string) (Device, error) {
	devices, err := srv.Devices(ctx, filter)
	if err != nil {
		return Device{}, err
	}
	return findByLabel(devices, filter, label)
}

// Usable filters monitor devices out of a device list.
func Usable(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, dev := range devices {
		if dev.Monitor {
			continue
		}
		out = append(out, dev)
	}
	return out
}

func firstUsable(devices []Device, filter Filter) (Device, error) {
	usable := Usable(devices)
	if len(usable) == 0 {
		return Device{}, fmt.Errorf("no %s devices: %w", filter, ErrDeviceNotFound)
	}
	return usable[0], nil
}

func findByName(devices []Device, filter Filter, name string) (Device, error) {
	for _, dev := range devices {
		if dev.Name == name {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("%s %q: %w", filter, name, ErrDeviceNotFound)
}

func findByLabel(devices []Device, filter Filter, label string) (Device, error) {
	for _, dev := range Usable(devices) {
		if candidate, ok := BestLabel(dev.Properties); ok && candidate == label {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("%s labelled %q: %w", filter, label, ErrDeviceNotFound)
}

// isMonitor reports whether a device only mirrors another device's output.
func isMonitor(description string, props map[string]string) bool {
	if strings.Contains(description, "Monitor") {
		return true
	}
	return strings.EqualFold(props["device.class"], "monitor")
}
