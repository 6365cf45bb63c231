package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInputSchema is matched by every *SchemaError.
	ErrInputSchema = errors.New("invalid input schema")
)

// ConfigError reports a parameter that cannot be simulated.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// ConfigErrorf builds a *ConfigError for field with a formatted reason.
func ConfigErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SchemaError reports a missing or unusable input field.
// Row is the zero-based data row, or -1 when the problem is in the header.
type SchemaError struct {
	Row    int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("invalid input schema: column %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input schema: row %d: %s: %s", e.Row, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrInputSchema }
