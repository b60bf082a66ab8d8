package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScriptCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "commented out", input: `# pulseaudio-ctl`, want: nil},
		{name: "bare script", input: "pulseaudio-ctl", want: []string{"pulseaudio-ctl"}},
		{name: "flatpak spawn prefix", input: "flatpak-spawn --host pulseaudio-ctl", want: []string{"flatpak-spawn", "--host", "pulseaudio-ctl"}},
		{name: "double quoted path", input: `"/opt/deck tools/volctl" --sink`, want: []string{"/opt/deck tools/volctl", "--sink"}},
		{name: "single quoted arg", input: `volctl --device 'USB Audio'`, want: []string{"volctl", "--device", "USB Audio"}},
		{name: "escaped space", input: `volctl USB\ Audio`, want: []string{"volctl", "USB Audio"}},
		{name: "empty quoted arg kept", input: `volctl ""`, want: []string{"volctl", ""}},
		{name: "unterminated quote", input: `volctl "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `volctl oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseScriptCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseScriptCommandExpandsProgramPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DECK_BIN", "/opt/deck/bin")

	got, err := parseScriptCommand("~/bin/volctl --quiet")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(home, "bin", "volctl"), "--quiet"}, got)

	got, err = parseScriptCommand("$DECK_BIN/volctl ~/keep")
	require.NoError(t, err)
	require.Equal(t, []string{"/opt/deck/bin/volctl", "~/keep"}, got)
}
