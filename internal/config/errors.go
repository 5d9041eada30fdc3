package config

import "fmt"

// ConfigError reports an invalid or missing risk configuration value.
// It is fatal: the system must not start with a configuration that
// fails validation, so callers treat any ConfigError as a startup abort.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("risk config %s: %s", e.Field, e.Message)
}

func newConfigError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
