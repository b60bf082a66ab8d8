package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/config"
)

type stubServer struct {
	devices map[audio.Filter][]audio.Device
	err     error
}

func (s stubServer) Devices(_ context.Context, filter audio.Filter) ([]audio.Device, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.devices[filter], nil
}

func (s stubServer) DefaultName(_ context.Context, filter audio.Filter) (string, error) {
	for _, d := range s.devices[filter] {
		if d.Default {
			return d.Name, nil
		}
	}
	return "", audio.ErrDeviceNotFound
}

func (stubServer) SetChannelVolumes(context.Context, audio.Filter, string, []float64) error {
	return nil
}

func (stubServer) SetMute(context.Context, audio.Filter, string, bool) error { return nil }

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.HasPrefix(v, "/run") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "backend.script_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-volctl")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-volctl", "--quiet"}, "backend.script_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "backend.script_cmd command is available")
}

func TestCheckDefaultDevice(t *testing.T) {
	srv := stubServer{devices: map[audio.Filter][]audio.Device{
		audio.FilterSink: {
			{Filter: audio.FilterSink, Name: "hdmi.monitor", Description: "Monitor of HDMI", Monitor: true},
			{Filter: audio.FilterSink, Name: "usb", Description: "USB Headset", Default: true},
		},
		audio.FilterSource: {
			{Filter: audio.FilterSource, Name: "mic", Description: "Desk Mic"},
		},
	}}

	sink := checkDefaultDevice(context.Background(), srv, audio.FilterSink)
	require.True(t, sink.Pass)
	require.Equal(t, "audio.sink", sink.Name)
	require.Contains(t, sink.Message, "USB Headset")

	source := checkDefaultDevice(context.Background(), srv, audio.FilterSource)
	require.True(t, source.Pass)
	require.Contains(t, source.Message, "falling back")

	empty := checkDefaultDevice(context.Background(), stubServer{}, audio.FilterSource)
	require.False(t, empty.Pass)
	require.Contains(t, empty.Message, "no usable devices")

	failed := checkDefaultDevice(context.Background(), stubServer{err: errors.New("connection refused")}, audio.FilterSink)
	require.False(t, failed.Pass)
	require.Contains(t, failed.Message, "connection refused")
}

func TestCheckDefaultDeviceWithMissingPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkDefaultDevice(context.Background(), audio.NewPulseServer("deckmix-test"), audio.FilterSink)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "connect pulse server")
}

func TestRunCoversBackendStoresAndInputs(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "fake-volctl"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	device := filepath.Join(t.TempDir(), "event9")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	cfg := config.Default()
	cfg.Backend = config.BackendConfig{Kind: config.BackendScript, Script: config.CommandConfig{Raw: "fake-volctl", Argv: []string{"fake-volctl"}}}
	cfg.Input.Bindings = []config.InputBinding{
		{Device: device, Instance: "knob"},
		{Device: filepath.Join(t.TempDir(), "missing"), Instance: "key"},
	}

	srv := stubServer{devices: map[audio.Filter][]audio.Device{
		audio.FilterSink:   {{Filter: audio.FilterSink, Name: "usb", Description: "USB", Default: true}},
		audio.FilterSource: {{Filter: audio.FilterSource, Name: "mic", Description: "Mic", Default: true}},
	}}

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}, srv)
	byName := map[string]Check{}
	for _, check := range report.Checks {
		byName[check.Name] = check
	}

	require.True(t, byName["fake-volctl"].Pass)
	require.True(t, byName["audio.sink"].Pass)
	require.True(t, byName["audio.source"].Pass)
	require.True(t, byName["settings"].Pass)
	require.True(t, byName["assets"].Pass)
	require.True(t, byName["input.knob"].Pass)
	require.False(t, byName["input.key"].Pass)
	require.False(t, report.OK())
}
