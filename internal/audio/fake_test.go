package audio

import (
	"context"
	"errors"
)

type fakeServer struct {
	devices  map[Filter][]Device
	defaults map[Filter]string
	volumes  map[string][]float64
	mutes    map[string]bool
	err      error
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		devices:  map[Filter][]Device{},
		defaults: map[Filter]string{},
		volumes:  map[string][]float64{},
		mutes:    map[string]bool{},
	}
}

func (f *fakeServer) Devices(_ context.Context, filter Filter) ([]Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices[filter], nil
}

func (f *fakeServer) DefaultName(_ context.Context, filter Filter) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	name, ok := f.defaults[filter]
	if !ok {
		return "", errors.New("no default")
	}
	return name, nil
}

func (f *fakeServer) SetChannelVolumes(_ context.Context, _ Filter, name string, volumes []float64) error {
	if f.err != nil {
		return f.err
	}
	f.volumes[name] = volumes
	return nil
}

func (f *fakeServer) SetMute(_ context.Context, _ Filter, name string, mute bool) error {
	if f.err != nil {
		return f.err
	}
	f.mutes[name] = mute
	return nil
}
