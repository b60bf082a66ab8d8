package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	defaultClientName = "deckmix"
	clientIconName    = "audio-card"
)

// PulseServer talks to a PulseAudio-compatible server with one short-lived
// connection per call.
type PulseServer struct {
	AppName string
}

// NewPulseServer returns a server handle that identifies itself as appName.
func NewPulseServer(appName string) *PulseServer {
	return &PulseServer{AppName: appName}
}

func (s *PulseServer) connect() (*pulse.Client, error) {
	name := strings.TrimSpace(s.AppName)
	if name == "" {
		name = defaultClientName
	}
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(name),
		pulse.ClientApplicationIconName(clientIconName),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// Devices lists every sink or source, monitors included, with the default flag set.
func (s *PulseServer) Devices(_ context.Context, filter Filter) ([]Device, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultID, err := optionalDefault(defaultName(client, filter))
	if err != nil {
		return nil, err
	}

	switch filter {
	case FilterSource:
		var sources pulseproto.GetSourceInfoListReply
		if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sources); err != nil {
			return nil, fmt.Errorf("list sources: %w", err)
		}
		devices := make([]Device, 0, len(sources))
		for _, source := range sources {
			if source == nil {
				continue
			}
			devices = append(devices, deviceFromSource(source, defaultID))
		}
		return devices, nil
	default:
		var sinks pulseproto.GetSinkInfoListReply
		if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinks); err != nil {
			return nil, fmt.Errorf("list sinks: %w", err)
		}
		devices := make([]Device, 0, len(sinks))
		for _, sink := range sinks {
			if sink == nil {
				continue
			}
			devices = append(devices, deviceFromSink(sink, defaultID))
		}
		return devices, nil
	}
}

// DefaultName returns the internal name of the server default sink or source.
func (s *PulseServer) DefaultName(_ context.Context, filter Filter) (string, error) {
	client, err := s.connect()
	if err != nil {
		return "", err
	}
	defer client.Close()
	return defaultName(client, filter)
}

// SetChannelVolumes writes per-channel volume fractions to the named device.
func (s *PulseServer) SetChannelVolumes(_ context.Context, filter Filter, name string, volumes []float64) error {
	if len(volumes) == 0 {
		return fmt.Errorf("set %s %q volume: no channels", filter, name)
	}

	client, err := s.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	encoded := encodeVolumes(volumes)
	switch filter {
	case FilterSource:
		err = client.RawRequest(&pulseproto.SetSourceVolume{
			SourceIndex:    pulseproto.Undefined,
			SourceName:     name,
			ChannelVolumes: encoded,
		}, nil)
	default:
		err = client.RawRequest(&pulseproto.SetSinkVolume{
			SinkIndex:      pulseproto.Undefined,
			SinkName:       name,
			ChannelVolumes: encoded,
		}, nil)
	}
	if err != nil {
		return fmt.Errorf("set %s %q volume: %w", filter, name, err)
	}
	return nil
}

// SetMute writes the mute flag of the named device.
func (s *PulseServer) SetMute(_ context.Context, filter Filter, name string, mute bool) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	switch filter {
	case FilterSource:
		err = client.RawRequest(&pulseproto.SetSourceMute{SourceIndex: pulseproto.Undefined, SourceName: name, Mute: mute}, nil)
	default:
		err = client.RawRequest(&pulseproto.SetSinkMute{SinkIndex: pulseproto.Undefined, SinkName: name, Mute: mute}, nil)
	}
	if err != nil {
		return fmt.Errorf("set %s %q mute: %w", filter, name, err)
	}
	return nil
}

func defaultName(client *pulse.Client, filter Filter) (string, error) {
	if filter == FilterSource {
		source, err := client.DefaultSource()
		if err != nil {
			return "", fmt.Errorf("read default source: %w", err)
		}
		return source.ID(), nil
	}
	sink, err := client.DefaultSink()
	if err != nil {
		return "", fmt.Errorf("read default sink: %w", err)
	}
	return sink.ID(), nil
}

// optionalDefault treats a server without a default device as "no default"
// so listing still succeeds.
func optionalDefault(name string, err error) (string, error) {
	if errors.Is(err, pulseproto.ErrNoSuchEntity) {
		return "", nil
	}
	return name, err
}

func deviceFromSink(sink *pulseproto.GetSinkInfoReply, defaultID string) Device {
	props := propertyMap(sink.Properties)
	return Device{
		Filter:      FilterSink,
		Index:       sink.SinkIndex,
		Name:        sink.SinkName,
		Description: sink.Device,
		Properties:  props,
		Muted:       sink.Mute,
		Volumes:     decodeVolumes(sink.ChannelVolumes),
		Monitor:     isMonitor(sink.Device, props),
		Default:     sink.SinkName == defaultID,
	}
}

func deviceFromSource(source *pulseproto.GetSourceInfoReply, defaultID string) Device {
	props := propertyMap(source.Properties)
	return Device{
		Filter:      FilterSource,
		Index:       source.SourceIndex,
		Name:        source.SourceName,
		Description: source.Device,
		Properties:  props,
		Muted:       source.Mute,
		Volumes:     decodeVolumes(source.ChannelVolumes),
		Monitor:     isMonitor(source.Device, props),
		Default:     source.SourceName == defaultID,
	}
}

// propertyMap flattens a proplist; string entries carry a trailing NUL on the wire.
func propertyMap(props pulseproto.PropList) map[string]string {
	out := make(map[string]string, len(props))
	for key, value := range props {
		out[key] = strings.TrimRight(string(value), "\x00")
	}
	return out
}

func decodeVolumes(volumes pulseproto.ChannelVolumes) []float64 {
	out := make([]float64, 0, len(volumes))
	for _, v := range volumes {
		out = append(out, float64(v)/float64(pulseproto.VolumeNorm))
	}
	return out
}

// encodeVolumes converts fractions to wire volumes; negative levels floor at silence.
func encodeVolumes(volumes []float64) pulseproto.ChannelVolumes {
	out := make(pulseproto.ChannelVolumes, 0, len(volumes))
	for _, v := range volumes {
		if v < 0 {
			v = 0
		}
		out = append(out, uint32(math.Round(v*float64(pulseproto.VolumeNorm))))
	}
	return out
}
