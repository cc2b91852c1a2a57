package domain

import "fmt"

// ConfigError marks a missing or unusable piece of configuration (absent
// contract address, unresolvable signer key). It is fatal at the point of
// first use but must not take down unrelated subsystems.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// ValidationError is a synchronous caller-facing rejection (bad nonce,
// expired challenge, signature mismatch, malformed grant request). No
// partial state is mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
