package ipc

import (
	"errors"
	"fmt"

	"github.com/rbright/deckmix/internal/action"
)

// Commands understood by the daemon.
const (
	CommandStatus      = "status"
	CommandInput       = "input"
	CommandDisplay     = "display"
	CommandSettingsGet = "settings.get"
	CommandSettingsSet = "settings.set"
	CommandRemove      = "remove"
	CommandRefresh     = "refresh"
)

// ErrMissingInstance reports an instance-scoped command sent without an instance id.
var ErrMissingInstance = errors.New("instance id is required")

// instanceScoped lists the commands that act on exactly one instance.
var instanceScoped = map[string]bool{
	CommandInput:       true,
	CommandSettingsGet: true,
	CommandSettingsSet: true,
	CommandRemove:      true,
}

var knownCommands = map[string]bool{
	CommandStatus:      true,
	CommandInput:       true,
	CommandDisplay:     true,
	CommandSettingsGet: true,
	CommandSettingsSet: true,
	CommandRemove:      true,
	CommandRefresh:     true,
}

// Request is one JSON line sent by a client.
type Request struct {
	Command  string         `json:"command"`
	Instance string         `json:"instance,omitempty"`
	Action   string         `json:"action,omitempty"`
	Input    string         `json:"input,omitempty"`
	Turns    int            `json:"turns,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Validate rejects unknown commands and instance-scoped commands without an instance.
func (r Request) Validate() error {
	if !knownCommands[r.Command] {
		return fmt.Errorf("unknown command %q", r.Command)
	}
	if instanceScoped[r.Command] && r.Instance == "" {
		return fmt.Errorf("%s: %w", r.Command, ErrMissingInstance)
	}
	return nil
}

// Response is the daemon's single JSON line reply.
type Response struct {
	OK       bool             `json:"ok"`
	State    string           `json:"state,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
	Display  *action.Display  `json:"display,omitempty"`
	Displays []action.Display `json:"displays,omitempty"`
	Settings map[string]any   `json:"settings,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Err returns the daemon-reported error, or nil for a successful response.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("daemon reported failure without detail")
	}
	return errors.New(r.Error)
}
