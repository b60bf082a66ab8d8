package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// parseScriptCommand splits backend.script_cmd into the argv prefix that the
// control script backend extends with `up <n>`, `down <n>`, `set <n>` or `mute`.
// Quoting follows the shell: single or double quotes group, backslash escapes
// one character. A leading `~/` or `$VAR` in the program path is expanded.
// A command that is empty or starts with `#` yields nil.
func parseScriptCommand(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	argv, err := splitCommand(input)
	if err != nil {
		return nil, err
	}
	if len(argv) > 0 {
		argv[0] = expandProgram(argv[0])
	}
	return argv, nil
}

func splitCommand(input string) ([]string, error) {
	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		if escaped {
			word.WriteRune(r)
			escaped = false
			continue
		}
		if quote != 0 {
			if r == quote {
				quote = 0
			} else {
				word.WriteRune(r)
			}
			continue
		}
		switch {
		case r == '\\':
			escaped, inWord = true, true
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}

func expandProgram(program string) string {
	if strings.HasPrefix(program, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, program[2:])
		}
		return program
	}
	if strings.HasPrefix(program, "$") {
		return os.ExpandEnv(program)
	}
	return program
}
