package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/deckmix/internal/action"
)

func TestTranslateDial(t *testing.T) {
	b := Binding{Device: "/dev/input/event5", Instance: "dial-1"}

	ev, ok := Translate(b, action.KindDial, rawEvent{Type: evRel, Code: relDial, Value: 2})
	require.True(t, ok)
	require.Equal(t, Event{Instance: "dial-1", Input: action.InputDialCW, Turns: 2}, ev)

	ev, ok = Translate(b, action.KindDial, rawEvent{Type: evRel, Code: relWheel, Value: -1})
	require.True(t, ok)
	require.Equal(t, Event{Instance: "dial-1", Input: action.InputDialCCW, Turns: 1}, ev)

	_, ok = Translate(b, action.KindDial, rawEvent{Type: evRel, Code: relDial, Value: 0})
	require.False(t, ok)

	_, ok = Translate(b, action.KindDial, rawEvent{Type: evRel, Code: 0x00, Value: 3})
	require.False(t, ok)
}

func TestTranslateKeys(t *testing.T) {
	b := Binding{Instance: "key-1", Key: 30}

	ev, ok := Translate(b, action.KindMute, rawEvent{Type: evKey, Code: 30, Value: keyDown})
	require.True(t, ok)
	require.Equal(t, action.InputKeyDown, ev.Input)

	ev, ok = Translate(b, action.KindDial, rawEvent{Type: evKey, Code: 30, Value: keyDown})
	require.True(t, ok)
	require.Equal(t, action.InputDialDown, ev.Input)

	_, ok = Translate(b, action.KindMute, rawEvent{Type: evKey, Code: 31, Value: keyDown})
	require.False(t, ok)
	_, ok = Translate(b, action.KindMute, rawEvent{Type: evKey, Code: 30, Value: keyUp})
	require.False(t, ok)
	_, ok = Translate(b, action.KindMute, rawEvent{Type: evKey, Code: 30, Value: keyRepeat})
	require.False(t, ok)

	ev, ok = Translate(Binding{Instance: "any"}, action.KindSetVolume, rawEvent{Type: evKey, Code: 99, Value: keyDown})
	require.True(t, ok)
	require.Equal(t, "any", ev.Instance)
}

func TestTranslateIgnoresSyncEvents(t *testing.T) {
	_, ok := Translate(Binding{Instance: "x"}, action.KindMute, rawEvent{Type: 0x00})
	require.False(t, ok)
}

func TestDecodeEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, rawEvent{Sec: 1, Usec: 2, Type: evRel, Code: relDial, Value: -3}))
	require.Equal(t, rawEventSize, buf.Len())

	ev, err := decodeEvent(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint16(evRel), ev.Type)
	require.Equal(t, int32(-3), ev.Value)

	_, err = decodeEvent([]byte{1, 2})
	require.Error(t, err)
}

func TestBridgeRunWithoutBindings(t *testing.T) {
	require.NoError(t, (&Bridge{}).Run(context.Background()))
}

func TestBridgeRunMissingDevice(t *testing.T) {
	bridge := &Bridge{
		Bindings: []Binding{{Device: filepath.Join(t.TempDir(), "event99"), Instance: "k"}},
		Handle:   func(context.Context, Event) {},
	}
	require.ErrorContains(t, bridge.Run(context.Background()), "open input device")
}

func TestBridgeRejectsDuplicateDevice(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "event1")
	require.NoError(t, os.WriteFile(dev, nil, 0o600))
	bridge := &Bridge{
		Bindings: []Binding{{Device: dev, Instance: "a"}, {Device: dev, Instance: "b"}},
		Handle:   func(context.Context, Event) {},
	}
	require.ErrorContains(t, bridge.Run(context.Background()), "bound twice")
}
