// Package action implements per-instance deck actions on top of the audio package.
package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownInstance reports an input or query for an instance id that was never configured.
	ErrUnknownInstance = errors.New("unknown action instance")
	// ErrUnknownAction reports an unsupported action kind.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownInput reports an unsupported input event.
	ErrUnknownInput = errors.New("unknown input")
)

// Kind names an action implementation.
type Kind string

const (
	KindMute          Kind = "mute"
	KindSetVolume     Kind = "set-volume"
	KindAdjustVolume  Kind = "adjust-volume"
	KindVolumeDisplay Kind = "volume-display"
	KindDial          Kind = "dial"
)

// Kinds lists every supported action kind.
func Kinds() []Kind {
	return []Kind{KindMute, KindSetVolume, KindAdjustVolume, KindVolumeDisplay, KindDial}
}

// ParseKind validates an action name.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds() {
		if kind == known {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// Input is one control-surface event delivered to an instance.
type Input string

const (
	InputKeyDown  Input = "key-down"
	InputKeyHold  Input = "key-hold"
	InputDialCW   Input = "dial-cw"
	InputDialCCW  Input = "dial-ccw"
	InputDialDown Input = "dial-down"
	InputDialHold Input = "dial-hold"
)

// ParseInput validates an input name.
func ParseInput(raw string) (Input, error) {
	in := Input(strings.ToLower(strings.TrimSpace(raw)))
	switch in {
	case InputKeyDown, InputKeyHold, InputDialCW, InputDialCCW, InputDialDown, InputDialHold:
		return in, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInput, raw)
	}
}

// Settings keys.
const (
	KeyPulseName      = "pulse-name"
	KeyDeviceFilter   = "device-filter"
	KeyDeviceName     = "device-name"
	KeyUseStandard    = "use-standard"
	KeyVolumeAdjust   = "volume-adjust"
	KeyVolumeBounds   = "volume-bounds"
	KeyVolume         = "volume"
	KeyVolumeExtend   = "volume-extend"
	KeyShowInfo       = "show-info"
	KeyInfoContent    = "info-content"
	KeyShowDeviceName = "show-device-name"
	KeyNick           = "nick"
	KeyBehaviour      = "behaviour"
)

// Info content modes.
const (
	InfoVolume     = "volume"
	InfoAdjustment = "adjustment"
)

// Dial press behaviours.
const (
	BehaviourMute      = "mute"
	BehaviourSetVolume = "set_volume"
)
