// Package config loads and validates the configuration for the gql2sql CLI
// binding. The translator itself is a pure function and takes no
// configuration; everything here controls the shim around it (logging,
// observability, and the optional metrics listener).
package config

// Config holds the gql2sql CLI's configuration.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is one of json, text.
	Format string `mapstructure:"format"`
}

// ObservabilityConfig controls tracing/metrics and the optional metrics listener.
type ObservabilityConfig struct {
	ServiceName      string  `mapstructure:"service_name"`
	ServiceVersion   string  `mapstructure:"service_version"`
	Environment      string  `mapstructure:"environment"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
	// MetricsAddr, when non-empty, starts an HTTP listener serving /metrics.
	MetricsAddr string `mapstructure:"metrics_addr"`
}
