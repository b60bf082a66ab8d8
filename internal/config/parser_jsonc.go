package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Backend   *jsoncBackend   `json:"backend"`
	Settings  *jsoncPath      `json:"settings"`
	Assets    *jsoncPath      `json:"assets"`
	Relay     *jsoncRelay     `json:"relay"`
	Display   *jsoncDisplay   `json:"display"`
	Indicator *jsoncIndicator `json:"indicator"`
	Input     *jsoncInput     `json:"input"`
	Log       *jsoncLog       `json:"log"`
}

type jsoncBackend struct {
	Kind      *string `json:"kind"`
	ScriptCmd *string `json:"script_cmd"`
}

type jsoncPath struct {
	Path *string `json:"path"`
}

type jsoncRelay struct {
	Enable  *bool            `json:"enable"`
	Filters *jsoncStringList `json:"filters"`
}

type jsoncDisplay struct {
	Enable *bool   `json:"enable"`
	Listen *string `json:"listen"`
	Path   *string `json:"path"`
}

type jsoncIndicator struct {
	Enable    *bool   `json:"enable"`
	AppName   *string `json:"app_name"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncInput struct {
	Bindings []jsoncBinding `json:"bindings"`
}

type jsoncBinding struct {
	Device   string `json:"device"`
	Instance string `json:"instance"`
	Key      int    `json:"key"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Backend != nil {
		if payload.Backend.Kind != nil {
			cfg.Backend.Kind = strings.ToLower(strings.TrimSpace(*payload.Backend.Kind))
		}
		if payload.Backend.ScriptCmd != nil {
			raw := *payload.Backend.ScriptCmd
			argv, err := parseScriptCommand(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid backend.script_cmd: %w", err)
			}
			cfg.Backend.Script = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Settings != nil && payload.Settings.Path != nil {
		cfg.Settings.Path = strings.TrimSpace(*payload.Settings.Path)
	}
	if payload.Assets != nil && payload.Assets.Path != nil {
		cfg.Assets.Path = strings.TrimSpace(*payload.Assets.Path)
	}

	if payload.Relay != nil {
		if payload.Relay.Enable != nil {
			cfg.Relay.Enable = *payload.Relay.Enable
		}
		if payload.Relay.Filters != nil {
			filters := make([]string, 0, len(*payload.Relay.Filters))
			for _, f := range *payload.Relay.Filters {
				filters = append(filters, strings.ToLower(strings.TrimSpace(f)))
			}
			cfg.Relay.Filters = filters
		}
	}

	if payload.Display != nil {
		if payload.Display.Enable != nil {
			cfg.Display.Enable = *payload.Display.Enable
		}
		if payload.Display.Listen != nil {
			cfg.Display.Listen = strings.TrimSpace(*payload.Display.Listen)
		}
		if payload.Display.Path != nil {
			cfg.Display.Path = strings.TrimSpace(*payload.Display.Path)
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.AppName != nil {
			cfg.Indicator.AppName = strings.TrimSpace(*payload.Indicator.AppName)
		}
		if payload.Indicator.TimeoutMS != nil {
			cfg.Indicator.TimeoutMS = *payload.Indicator.TimeoutMS
		}
	}

	if payload.Input != nil {
		bindings := make([]InputBinding, 0, len(payload.Input.Bindings))
		for i, b := range payload.Input.Bindings {
			device := strings.TrimSpace(b.Device)
			instance := strings.TrimSpace(b.Instance)
			if device == "" || instance == "" {
				return nil, fmt.Errorf("input.bindings[%d] requires device and instance", i)
			}
			bindings = append(bindings, InputBinding{Device: device, Instance: instance, Key: b.Key})
		}
		cfg.Input.Bindings = bindings
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
