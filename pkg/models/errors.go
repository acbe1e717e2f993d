package models

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or unusable configuration value. It is
// fatal for the operation that needed the value and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: %s is not set", e.Field)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NetworkError reports a connection failure reaching the remote workflow.
// It carries a diagnostic hint and is not auto-retried.
type NetworkError struct {
	Hint string
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("network error: %s", e.Hint)
	}
	return fmt.Sprintf("network error: %s: %v", e.Hint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteRejection reports a non-2xx response from the remote workflow. A
// rejection aborts all remaining segments of the exchange.
type RemoteRejection struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("remote workflow rejected the request: status %d: %s", e.StatusCode, e.Body)
}

// ParseError reports unparseable remote or persisted JSON. Callers degrade by
// treating the raw text as an unstructured report instead of failing.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Reason)
}

// InputError reports an empty or missing required request field, rejected
// before any analysis runs.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s is required", e.Field)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsRemoteRejection reports whether err is (or wraps) a RemoteRejection.
func IsRemoteRejection(err error) bool {
	var target *RemoteRejection
	return errors.As(err, &target)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}
