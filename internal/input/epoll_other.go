//go:build !linux

package input

import (
	"context"
	"errors"
	"os"
)

func readLoop(context.Context, []*os.File, func(string, rawEvent)) error {
	return errors.New("evdev input is only supported on linux")
}
