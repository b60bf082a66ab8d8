// Package cli parses deckmix command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe     Command = "serve"
	CommandStatus    Command = "status"
	CommandPress     Command = "press"
	CommandHold      Command = "hold"
	CommandTurn      Command = "turn"
	CommandDialPress Command = "dial-press"
	CommandDisplay   Command = "display"
	CommandSettings  Command = "settings"
	CommandConfigure Command = "configure"
	CommandRemove    Command = "remove"
	CommandDevices   Command = "devices"
	CommandAssets    Command = "assets"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

// arity bounds positional arguments; max -1 means unbounded.
type arity struct {
	min int
	max int
}

var validCommands = map[Command]arity{
	CommandServe:     {0, 0},
	CommandStatus:    {0, 0},
	CommandPress:     {1, 1},
	CommandHold:      {1, 1},
	CommandTurn:      {2, 2},
	CommandDialPress: {1, 1},
	CommandDisplay:   {0, 1},
	CommandSettings:  {1, 1},
	CommandConfigure: {2, -1},
	CommandRemove:    {1, 1},
	CommandDevices:   {0, 1},
	CommandAssets:    {0, -1},
	CommandDoctor:    {0, 0},
	CommandVersion:   {0, 0},
	CommandHelp:      {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

// Parse reads global flags, then one command; everything after the command is positional.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			bounds, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			if bounds.max >= 0 && len(rest) > bounds.max {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if len(rest) < bounds.min {
				return Parsed{}, fmt.Errorf("command %q requires %d argument(s)", arg, bounds.min)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			parsed.Args = append([]string(nil), rest...)
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  serve                              Run the daemon (socket, device relay, display stream, input)
  status                             Print daemon state
  press ID                           Key press on an instance
  hold ID                            Key hold on an instance (reloads its settings)
  turn ID N                          Rotate a dial instance N detents (negative turns counter-clockwise)
  dial-press ID                      Press a dial instance
  display [ID]                       Print rendered display state
  settings ID                        Print stored settings of an instance
  configure ID ACTION [KEY=VALUE...] Create or update an instance
  remove ID                          Delete an instance
  devices [sink|source]              List sound server devices
  assets [set-icon NAME PATH | set-color NAME R G B [A] | reset NAME]
                                     List or override icons and label colors
  doctor                             Run configuration and environment checks
  version                            Print version information
  help                               Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/deckmix/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
