// Package version carries build metadata stamped in via -ldflags.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the full build banner printed by `deckmix version`.
func String() string {
	return "deckmix " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// ClientName is the application name announced to the sound server.
func ClientName() string {
	if Version == "dev" {
		return "deckmix"
	}
	return "deckmix/" + Version
}
