package indicator

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = "org.freedesktop.Notifications.Notify"
	closeMethod  = "org.freedesktop.Notifications.CloseNotification"
	errorIcon    = "dialog-error"
)

// notification is one Notify call.
type notification struct {
	AppName   string
	ReplaceID uint32
	Summary   string
	Body      string
	TimeoutMS int
}

// sender delivers notifications; the session-bus implementation is the default.
type sender interface {
	Notify(ctx context.Context, n notification) (uint32, error)
	Close(ctx context.Context, id uint32) error
}

type sessionBus struct{}

// Notify sends a freedesktop notification and returns the server-assigned id.
func (sessionBus) Notify(ctx context.Context, n notification) (uint32, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	var id uint32
	call := conn.Object(notifyDest, notifyPath).CallWithContext(ctx, notifyMethod, 0,
		n.AppName,
		n.ReplaceID,
		errorIcon,
		n.Summary,
		n.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(n.TimeoutMS),
	)
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}
	return id, nil
}

// Close dismisses a notification by id.
func (sessionBus) Close(ctx context.Context, id uint32) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	if call := conn.Object(notifyDest, notifyPath).CallWithContext(ctx, closeMethod, 0, id); call.Err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", call.Err)
	}
	return nil
}
