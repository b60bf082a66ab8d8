package config

const (
	BackendNative = "native"
	BackendScript = "script"

	FilterSink   = "sink"
	FilterSource = "source"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Backend: BackendConfig{Kind: BackendNative},
		Relay: RelayConfig{
			Enable:  true,
			Filters: []string{FilterSink, FilterSource},
		},
		Display: DisplayConfig{
			Enable: false,
			Listen: "127.0.0.1:8765",
			Path:   "/ws",
		},
		Indicator: IndicatorConfig{
			Enable:    true,
			AppName:   "deckmix",
			TimeoutMS: 4000,
		},
		Log: LogConfig{Level: "info"},
	}
}
