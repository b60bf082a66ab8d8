// Package indicator surfaces action failures as desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/deckmix/internal/config"
)

const (
	defaultAppName   = "deckmix"
	defaultTimeoutMS = 4000
	dispatchTimeout  = 400 * time.Millisecond
)

// Desktop keeps at most one error notification on screen, replacing it on each failure.
type Desktop struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger
	bus    sender

	mu             sync.Mutex
	notificationID uint32
}

// NewDesktop creates a notifier from config.
func NewDesktop(cfg config.IndicatorConfig, logger *slog.Logger) *Desktop {
	return &Desktop{cfg: cfg, logger: logger, bus: sessionBus{}}
}

// ShowError shows title and message, replacing the previous error notification.
func (d *Desktop) ShowError(ctx context.Context, title string, message string) {
	if !d.cfg.Enable {
		return
	}
	if strings.TrimSpace(title) == "" {
		title = d.appName()
	}
	timeout := d.cfg.TimeoutMS
	if timeout <= 0 {
		timeout = defaultTimeoutMS
	}

	d.run(ctx, func(ctx context.Context) error {
		d.mu.Lock()
		replaceID := d.notificationID
		d.mu.Unlock()

		id, err := d.bus.Notify(ctx, notification{
			AppName:   d.appName(),
			ReplaceID: replaceID,
			Summary:   title,
			Body:      message,
			TimeoutMS: timeout,
		})
		if err != nil {
			return err
		}

		d.mu.Lock()
		d.notificationID = id
		d.mu.Unlock()
		return nil
	})
}

// Hide dismisses the current notification when one is shown.
func (d *Desktop) Hide(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()
	if id == 0 {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.bus.Close(ctx, id)
	})
}

func (d *Desktop) appName() string {
	name := strings.TrimSpace(d.cfg.AppName)
	if name == "" {
		return defaultAppName
	}
	return name
}

// run executes a notification call with a bounded timeout.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil && d.logger != nil {
		d.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}
