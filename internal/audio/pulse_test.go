package audio

import (
	"errors"
	"fmt"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestOptionalDefaultToleratesMissingDevice(t *testing.T) {
	name, err := optionalDefault("", fmt.Errorf("read default source: %w", pulseproto.ErrNoSuchEntity))
	require.NoError(t, err)
	require.Empty(t, name)

	name, err = optionalDefault("alsa_output.usb", nil)
	require.NoError(t, err)
	require.Equal(t, "alsa_output.usb", name)

	_, err = optionalDefault("", fmt.Errorf("read default sink: %w", pulseproto.ErrAccessDenied))
	require.ErrorIs(t, err, pulseproto.ErrAccessDenied)

	_, err = optionalDefault("", errors.New("connection reset"))
	require.ErrorContains(t, err, "connection reset")
}

func TestEncodeVolumesFloorsNegativeLevels(t *testing.T) {
	norm := uint32(pulseproto.VolumeNorm)
	got := encodeVolumes([]float64{-0.2, 0.5, 1})
	require.Equal(t, pulseproto.ChannelVolumes{0, norm / 2, norm}, got)
}
