package relay

import (
	"context"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"

	"github.com/rbright/deckmix/internal/audio"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		raw   uint32
		want  Event
		valid bool
	}{
		{name: "sink new", raw: 0x0000, want: Event{Facility: audio.FilterSink, Type: EventNew, Index: 9}, valid: true},
		{name: "sink change", raw: 0x0010, want: Event{Facility: audio.FilterSink, Type: EventChange, Index: 9}, valid: true},
		{name: "source remove", raw: 0x0021, want: Event{Facility: audio.FilterSource, Type: EventRemove, Index: 9}, valid: true},
		{name: "sink input ignored", raw: 0x0012},
		{name: "unknown type", raw: 0x0030},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := decodeEvent(tc.raw, 9)
			require.Equal(t, tc.valid, ok)
			if tc.valid {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestMaskFor(t *testing.T) {
	mask, err := maskFor([]audio.Filter{audio.FilterSink})
	require.NoError(t, err)
	require.Equal(t, pulseproto.SubscriptionMaskSink, mask)

	mask, err = maskFor([]audio.Filter{audio.FilterSink, audio.FilterSource})
	require.NoError(t, err)
	require.Equal(t, pulseproto.SubscriptionMaskSink|pulseproto.SubscriptionMaskSource, mask)

	_, err = maskFor(nil)
	require.Error(t, err)

	_, err = maskFor([]audio.Filter{"card"})
	require.ErrorContains(t, err, "unknown relay filter")
}

func TestRunRequiresCallback(t *testing.T) {
	err := (&Listener{Filters: []audio.Filter{audio.FilterSink}}).Run(context.Background())
	require.ErrorContains(t, err, "callback")
}

func TestRunFailsWithoutServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	listener := &Listener{Filters: []audio.Filter{audio.FilterSink}, OnEvent: func(Event) {}}

	err := listener.Run(context.Background())
	require.ErrorContains(t, err, "connect pulse server")
}

func TestCallbackDeliversDecodedEvents(t *testing.T) {
	var got []Event
	listener := &Listener{OnEvent: func(ev Event) { got = append(got, ev) }}
	cb := listener.callback(make(chan struct{}))

	cb(&pulseproto.SubscribeEvent{Event: pulseproto.SubscriptionEventType(0x0011), Index: 4})
	cb(&pulseproto.SubscribeEvent{Event: pulseproto.SubscriptionEventType(0x0012), Index: 5})
	cb(&pulseproto.DataPacket{})

	require.Equal(t, []Event{{Facility: audio.FilterSource, Type: EventChange, Index: 4}}, got)
}

func TestCallbackSignalsConnectionClosedOnce(t *testing.T) {
	closed := make(chan struct{})
	cb := (&Listener{OnEvent: func(Event) {}}).callback(closed)

	cb(&pulseproto.ConnectionClosed{})
	cb(&pulseproto.ConnectionClosed{})

	select {
	case <-closed:
	default:
		t.Fatal("expected closed channel to be closed")
	}
}
