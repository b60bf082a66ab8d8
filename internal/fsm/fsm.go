// Package fsm models the daemon lifecycle reported by `deckmix status`.
package fsm

import "fmt"

type State string

type Event string

const (
	StateStarting State = "starting"
	StateServing  State = "serving"
	// StateDegraded means a background component (device relay, input bridge) stopped
	// while the control socket keeps serving.
	StateDegraded State = "degraded"
	StateStopping State = "stopping"
)

const (
	EventReady    Event = "ready"
	EventDegrade  Event = "degrade"
	EventShutdown Event = "shutdown"
)

func Transition(current State, event Event) (State, error) {
	if event == EventShutdown && current != StateStopping {
		return StateStopping, nil
	}

	switch current {
	case StateStarting:
		switch event {
		case EventReady:
			return StateServing, nil
		case EventDegrade:
			return StateDegraded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateServing, StateDegraded:
		switch event {
		case EventDegrade:
			return StateDegraded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStopping:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
