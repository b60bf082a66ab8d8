// Package relay forwards sound-server sink/source notifications to a callback.
package relay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/rbright/deckmix/internal/audio"
)

// Event type bits of a subscription notification.
const (
	facilityMask = 0x000F
	facilitySink = 0x0000
	facilitySrc  = 0x0001

	typeMask   = 0x0030
	typeNew    = 0x0000
	typeChange = 0x0010
	typeRemove = 0x0020
)

// EventType is the lifecycle change a notification reports.
type EventType string

const (
	EventNew    EventType = "new"
	EventChange EventType = "change"
	EventRemove EventType = "remove"
)

// Event is one decoded sink or source notification.
type Event struct {
	Facility audio.Filter
	Type     EventType
	Index    uint32
}

// ErrConnectionClosed reports that the sound server went away under a running relay.
var ErrConnectionClosed = errors.New("pulse server closed the relay connection")

// Callback receives events on the relay connection's read goroutine.
type Callback func(Event)

// Listener owns one persistent subscription connection.
type Listener struct {
	AppName string
	Filters []audio.Filter
	OnEvent Callback
}

// Run connects, subscribes, and delivers events until ctx is cancelled or the
// server closes the connection.
func (l *Listener) Run(ctx context.Context) error {
	if l.OnEvent == nil {
		return errors.New("relay callback is required")
	}
	mask, err := maskFor(l.Filters)
	if err != nil {
		return err
	}

	client, conn, err := pulseproto.Connect("")
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer conn.Close()

	closed := make(chan struct{})
	client.Callback = l.callback(closed)

	appName := strings.TrimSpace(l.AppName)
	if appName == "" {
		appName = "deckmix"
	}
	props := pulseproto.PropList{
		"application.name":           pulseproto.PropListString(appName + "-relay"),
		"application.process.binary": pulseproto.PropListString(os.Args[0]),
		"application.process.id":     pulseproto.PropListString(strconv.Itoa(os.Getpid())),
	}
	if err := client.Request(&pulseproto.SetClientName{Props: props}, nil); err != nil {
		return fmt.Errorf("set relay client name: %w", err)
	}
	if err := client.Request(&pulseproto.Subscribe{Mask: mask}, nil); err != nil {
		return fmt.Errorf("subscribe to device events: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil
	case <-closed:
		return ErrConnectionClosed
	}
}

// callback decodes subscription events and closes closed once when the
// server drops the connection.
func (l *Listener) callback(closed chan struct{}) func(interface{}) {
	var once sync.Once
	return func(val interface{}) {
		switch msg := val.(type) {
		case *pulseproto.SubscribeEvent:
			event, ok := decodeEvent(uint32(msg.Event), msg.Index)
			if !ok {
				return
			}
			l.OnEvent(event)
		case *pulseproto.ConnectionClosed:
			once.Do(func() { close(closed) })
		}
	}
}

func maskFor(filters []audio.Filter) (pulseproto.SubscriptionMask, error) {
	if len(filters) == 0 {
		return 0, errors.New("relay needs at least one device filter")
	}
	var mask pulseproto.SubscriptionMask
	for _, filter := range filters {
		switch filter {
		case audio.FilterSink:
			mask |= pulseproto.SubscriptionMaskSink
		case audio.FilterSource:
			mask |= pulseproto.SubscriptionMaskSource
		default:
			return 0, fmt.Errorf("unknown relay filter %q", filter)
		}
	}
	return mask, nil
}

// decodeEvent maps raw event bits to an Event; non sink/source facilities are dropped.
func decodeEvent(raw uint32, index uint32) (Event, bool) {
	var facility audio.Filter
	switch raw & facilityMask {
	case facilitySink:
		facility = audio.FilterSink
	case facilitySrc:
		facility = audio.FilterSource
	default:
		return Event{}, false
	}

	var kind EventType
	switch raw & typeMask {
	case typeNew:
		kind = EventNew
	case typeChange:
		kind = EventChange
	case typeRemove:
		kind = EventRemove
	default:
		return Event{}, false
	}

	return Event{Facility: facility, Type: kind, Index: index}, true
}
