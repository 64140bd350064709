package config

// DefaultMaxCorrectionPasses bounds the fixed-point correction loop.
const DefaultMaxCorrectionPasses = 8

// SystemDefaults returns the built-in configuration.
func SystemDefaults() *Config {
	return &Config{
		Rules:    map[string]RuleConfig{},
		Excluded: []string{".git", "node_modules", "vendor", "testdata"},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			SampleRate:  1.0,
			ServiceName: "mallet",
		},
		Watch:               WatchConfig{Debounce: "300ms"},
		MaxCorrectionPasses: DefaultMaxCorrectionPasses,
	}
}
