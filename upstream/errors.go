package upstream

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned when no bearer token was configured.
var ErrMissingToken = &ConfigError{Field: "token", Reason: "GITHUB_TOKEN environment variable not set"}

// ConfigError reports an invalid or missing configuration value. It is
// fatal: the gateway refuses to start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failure to reach the upstream at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: upstream unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError carries a rejection from the upstream API. Body is the raw
// response text for HTTP failures, or the joined GraphQL error messages when
// the upstream answered 2xx with an errors array.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Body)
}

// MappingError reports an upstream response whose shape does not match the
// expected output record.
type MappingError struct {
	Op   string
	Path string
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("failed to %s: decode %s: %v", e.Op, e.Path, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// InputError is returned by the builder when an argument cannot be encoded
// into the upstream document.
type InputError struct {
	Op     string
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to %s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	var (
		te *TransportError
		ue *UpstreamError
		me *MappingError
		ie *InputError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &ue):
		return "upstream_error"
	case errors.As(err, &me):
		return "mapping_error"
	case errors.As(err, &ie):
		return "invalid_input"
	default:
		return "error"
	}
}
