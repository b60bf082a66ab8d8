package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rbright/deckmix/internal/audio"
)

// memoryServer is a goroutine-safe in-memory sound server.
type memoryServer struct {
	mu      sync.Mutex
	devices map[audio.Filter][]audio.Device
	err     error
}

func newMemoryServer() *memoryServer {
	return &memoryServer{devices: map[audio.Filter][]audio.Device{
		audio.FilterSink: {
			{Filter: audio.FilterSink, Index: 1, Name: "alsa_output.usb", Description: "USB Speakers", Volumes: []float64{0.5, 0.5}, Default: true},
			{Filter: audio.FilterSink, Index: 2, Name: "alsa_output.usb.monitor", Description: "Monitor of USB Speakers", Volumes: []float64{1}, Monitor: true},
		},
		audio.FilterSource: {
			{Filter: audio.FilterSource, Index: 7, Name: "alsa_input.mic", Description: "Desk Mic", Volumes: []float64{0.8}, Default: true},
		},
	}}
}

func (m *memoryServer) Devices(_ context.Context, filter audio.Filter) ([]audio.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]audio.Device, 0, len(m.devices[filter]))
	for _, d := range m.devices[filter] {
		d.Volumes = append([]float64(nil), d.Volumes...)
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryServer) DefaultName(_ context.Context, filter audio.Filter) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices[filter] {
		if d.Default {
			return d.Name, nil
		}
	}
	return "", audio.ErrDeviceNotFound
}

func (m *memoryServer) SetChannelVolumes(_ context.Context, filter audio.Filter, name string, volumes []float64) error {
	return m.update(filter, name, func(d *audio.Device) { d.Volumes = append([]float64(nil), volumes...) })
}

func (m *memoryServer) SetMute(_ context.Context, filter audio.Filter, name string, mute bool) error {
	return m.update(filter, name, func(d *audio.Device) { d.Muted = mute })
}

func (m *memoryServer) update(filter audio.Filter, name string, fn func(*audio.Device)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.devices[filter] {
		if m.devices[filter][i].Name == name {
			fn(&m.devices[filter][i])
			return nil
		}
	}
	return errors.New("no such device")
}

func (m *memoryServer) device(filter audio.Filter, name string) audio.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices[filter] {
		if d.Name == name {
			return d
		}
	}
	return audio.Device{}
}
