// Package input turns Linux evdev key and dial events into action inputs.
package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rbright/deckmix/internal/action"
)

// Linux input event constants (linux/input-event-codes.h).
const (
	evKey     = 0x01
	evRel     = 0x02
	relWheel  = 0x08
	relDial   = 0x07
	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// rawEvent mirrors struct input_event on 64-bit Linux.
type rawEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var rawEventSize = binary.Size(rawEvent{})

// Binding routes one input device to an action instance. Key 0 accepts any key.
type Binding struct {
	Device   string
	Instance string
	Key      uint16
}

// Event is one translated input ready for the registry.
type Event struct {
	Instance string
	Input    action.Input
	Turns    int
}

// Translate maps a raw event from a bound device to an action input.
func Translate(b Binding, kind action.Kind, ev rawEvent) (Event, bool) {
	switch ev.Type {
	case evRel:
		if ev.Code != relDial && ev.Code != relWheel {
			return Event{}, false
		}
		switch {
		case ev.Value > 0:
			return Event{Instance: b.Instance, Input: action.InputDialCW, Turns: int(ev.Value)}, true
		case ev.Value < 0:
			return Event{Instance: b.Instance, Input: action.InputDialCCW, Turns: int(-ev.Value)}, true
		default:
			return Event{}, false
		}
	case evKey:
		if ev.Value != keyDown {
			return Event{}, false
		}
		if b.Key != 0 && ev.Code != b.Key {
			return Event{}, false
		}
		in := action.InputKeyDown
		if kind == action.KindDial {
			in = action.InputDialDown
		}
		return Event{Instance: b.Instance, Input: in, Turns: 1}, true
	default:
		return Event{}, false
	}
}

func decodeEvent(buf []byte) (rawEvent, error) {
	var ev rawEvent
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ev); err != nil {
		return rawEvent{}, err
	}
	return ev, nil
}

// KindLookup reports the action kind of an instance.
type KindLookup func(instance string) (action.Kind, bool)

// Handler receives translated events.
type Handler func(ctx context.Context, ev Event)

// Bridge reads every bound device and forwards translated events.
type Bridge struct {
	Logger   *slog.Logger
	Bindings []Binding
	Kinds    KindLookup
	Handle   Handler
}

// Run opens the bound devices and blocks until ctx is cancelled or a device fails.
func (b *Bridge) Run(ctx context.Context) error {
	if len(b.Bindings) == 0 {
		return nil
	}
	if b.Handle == nil {
		return errors.New("input bridge requires a handler")
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files := make([]*os.File, 0, len(b.Bindings))
	bindings := make(map[string]Binding, len(b.Bindings))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, binding := range b.Bindings {
		if _, dup := bindings[binding.Device]; dup {
			return fmt.Errorf("input device %q bound twice", binding.Device)
		}
		f, err := os.Open(binding.Device)
		if err != nil {
			return fmt.Errorf("open input device: %w", err)
		}
		files = append(files, f)
		bindings[binding.Device] = binding
	}

	logger.Info("input bridge started", "devices", len(files))
	return readLoop(ctx, files, func(device string, ev rawEvent) {
		binding := bindings[device]
		kind := action.Kind("")
		if b.Kinds != nil {
			kind, _ = b.Kinds(binding.Instance)
		}
		translated, ok := Translate(binding, kind, ev)
		if !ok {
			return
		}
		logger.Debug("input event", "device", device, "instance", translated.Instance, "input", translated.Input, "turns", translated.Turns)
		b.Handle(ctx, translated)
	})
}
