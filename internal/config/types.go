// Package config resolves, parses, validates, and defaults deckmix configuration.
package config

// Config is the fully materialized runtime configuration used by deckmix.
type Config struct {
	Backend   BackendConfig
	Settings  SettingsConfig
	Assets    AssetsConfig
	Relay     RelayConfig
	Display   DisplayConfig
	Indicator IndicatorConfig
	Input     InputConfig
	Log       LogConfig
}

// BackendConfig selects how volume and mute changes reach the sound server.
type BackendConfig struct {
	// Kind is "native" or "script".
	Kind   string
	Script CommandConfig
}

// SettingsConfig locates the per-instance settings store.
type SettingsConfig struct {
	Path string
}

// AssetsConfig locates the icon and color override file.
type AssetsConfig struct {
	Path string
}

// RelayConfig controls the sound-server event subscription.
type RelayConfig struct {
	Enable  bool
	Filters []string
}

// DisplayConfig controls the websocket display stream.
type DisplayConfig struct {
	Enable bool
	Listen string
	Path   string
}

// IndicatorConfig controls desktop error notifications.
type IndicatorConfig struct {
	Enable    bool
	AppName   string
	TimeoutMS int
}

// InputConfig lists evdev devices bound to action instances.
type InputConfig struct {
	Bindings []InputBinding
}

// InputBinding routes one evdev device to an instance. Key 0 accepts any key code.
type InputBinding struct {
	Device   string
	Instance string
	Key      int
}

// LogConfig controls the JSONL log level.
type LogConfig struct {
	Level string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
