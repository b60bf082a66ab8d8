package action

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/settings"
)

type fakeServer struct {
	mu       sync.Mutex
	devices  map[audio.Filter][]audio.Device
	defaults map[audio.Filter]string
	failSet  error
	queries  int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		devices: map[audio.Filter][]audio.Device{
			audio.FilterSink: {
				{Filter: audio.FilterSink, Index: 1, Name: "alsa_output.hdmi.monitor", Description: "Monitor of HDMI", Monitor: true, Volumes: []float64{1}},
				{Filter: audio.FilterSink, Index: 2, Name: "alsa_output.usb", Description: "USB Headset", Properties: map[string]string{"node.nick": "Headset"}, Volumes: []float64{0.4, 0.4}},
				{Filter: audio.FilterSink, Index: 3, Name: "alsa_output.pci", Description: "Built-in Audio", Properties: map[string]string{"node.nick": "Speakers"}, Volumes: []float64{0.9, 0.9}},
			},
			audio.FilterSource: {
				{Filter: audio.FilterSource, Index: 8, Name: "alsa_input.usb", Description: "USB Mic", Properties: map[string]string{"node.nick": "Mic"}, Volumes: []float64{0.7}},
			},
		},
		defaults: map[audio.Filter]string{
			audio.FilterSink:   "alsa_output.pci",
			audio.FilterSource: "alsa_input.usb",
		},
	}
}

func (f *fakeServer) Devices(_ context.Context, filter audio.Filter) ([]audio.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	out := make([]audio.Device, len(f.devices[filter]))
	copy(out, f.devices[filter])
	for i := range out {
		out[i].Volumes = append([]float64(nil), out[i].Volumes...)
	}
	return out, nil
}

func (f *fakeServer) DefaultName(_ context.Context, filter audio.Filter) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.defaults[filter]
	if !ok {
		return "", errors.New("no default")
	}
	return name, nil
}

func (f *fakeServer) SetChannelVolumes(_ context.Context, filter audio.Filter, name string, volumes []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	for i := range f.devices[filter] {
		if f.devices[filter][i].Name == name {
			f.devices[filter][i].Volumes = append([]float64(nil), volumes...)
			return nil
		}
	}
	return audio.ErrDeviceNotFound
}

func (f *fakeServer) SetMute(_ context.Context, filter audio.Filter, name string, mute bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	for i := range f.devices[filter] {
		if f.devices[filter][i].Name == name {
			f.devices[filter][i].Muted = mute
			return nil
		}
	}
	return audio.ErrDeviceNotFound
}

func (f *fakeServer) device(filter audio.Filter, name string) audio.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, dev := range f.devices[filter] {
		if dev.Name == name {
			return dev
		}
	}
	return audio.Device{}
}

type recordingIndicator struct {
	messages []string
}

func (r *recordingIndicator) ShowError(_ context.Context, _ string, message string) {
	r.messages = append(r.messages, message)
}

func newTestRegistry(t *testing.T, srv *fakeServer) (*Registry, *settings.Store) {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "actions.yaml"))
	require.NoError(t, err)
	reg, err := NewRegistry(Deps{Server: srv, Store: store})
	require.NoError(t, err)
	return reg, store
}
