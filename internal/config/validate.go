package config

import "fmt"

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validLogFormats = map[string]bool{"json": true, "text": true}

// Validate checks the configuration for errors.
func (c *Config) Validate() ValidationResult {
	var result ValidationResult

	if !validLogLevels[c.Log.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
			Hint:    "use one of debug, info, warn, error",
		})
	}
	if !validLogFormats[c.Log.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown log format %q", c.Log.Format),
			Hint:    "use one of json, text",
		})
	}
	if c.Observability.TraceSampleRatio < 0 || c.Observability.TraceSampleRatio > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.trace_sample_ratio",
			Message: "must be between 0 and 1",
		})
	}

	return result
}
