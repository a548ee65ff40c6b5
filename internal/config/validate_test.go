package config

import "testing"

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Observability: ObservabilityConfig{
			TraceSampleRatio: 1.0,
		},
	}
	result := cfg.Validate()
	if result.HasErrors() {
		t.Fatalf("expected no errors, got %+v", result.Errors)
	}
}

func TestValidateRejectsUnknownLevel(t *testing.T) {
	cfg := Config{
		Log: LogConfig{Level: "verbose", Format: "json"},
	}
	result := cfg.Validate()
	if !result.HasErrors() {
		t.Fatal("expected an error for unknown log level")
	}
}

func TestValidateRejectsOutOfRangeSampleRatio(t *testing.T) {
	cfg := Config{
		Log:           LogConfig{Level: "info", Format: "json"},
		Observability: ObservabilityConfig{TraceSampleRatio: 1.5},
	}
	result := cfg.Validate()
	if !result.HasErrors() {
		t.Fatal("expected an error for out-of-range trace sample ratio")
	}
}
