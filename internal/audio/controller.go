package audio

import (
	"context"
	"fmt"
)

// Controller applies volume and mute changes to one resolved device.
type Controller interface {
	ChangeVolume(ctx context.Context, dev Device, step int) error
	SetVolume(ctx context.Context, dev Device, percent int) error
	SetMute(ctx context.Context, dev Device, muted bool) error
}

// NativeController drives devices directly through a Server.
type NativeController struct {
	Server Server
}

// NewNativeController binds a controller to srv.
func NewNativeController(srv Server) *NativeController {
	return &NativeController{Server: srv}
}

// ChangeVolume shifts every channel by step percent.
func (c *NativeController) ChangeVolume(ctx context.Context, dev Device, step int) error {
	if step == 0 {
		return nil
	}
	if len(dev.Volumes) == 0 {
		return fmt.Errorf("change %s %q volume: no channels", dev.Filter, dev.Name)
	}
	volumes := make([]float64, len(dev.Volumes))
	for i, v := range dev.Volumes {
		volumes[i] = v + float64(step)/100
	}
	return c.Server.SetChannelVolumes(ctx, dev.Filter, dev.Name, volumes)
}

// SetVolume sets every channel to percent.
func (c *NativeController) SetVolume(ctx context.Context, dev Device, percent int) error {
	channels := len(dev.Volumes)
	if channels == 0 {
		channels = 1
	}
	volumes := make([]float64, channels)
	for i := range volumes {
		volumes[i] = float64(percent) / 100
	}
	return c.Server.SetChannelVolumes(ctx, dev.Filter, dev.Name, volumes)
}

// SetMute writes the mute flag.
func (c *NativeController) SetMute(ctx context.Context, dev Device, muted bool) error {
	return c.Server.SetMute(ctx, dev.Filter, dev.Name, muted)
}
