// Package domain provides the core types and canonical error taxonomy
// for the funnel backend.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a funnel error.
type ErrorType string

const (
	// ErrorTypeInputRejected indicates a malformed or incomplete request
	// body. Never retried.
	ErrorTypeInputRejected ErrorType = "input_rejected"

	// ErrorTypeUpstreamLookup indicates the geolocation provider was
	// unreachable or returned an unusable payload. Recovered locally:
	// the caller proceeds with no location.
	ErrorTypeUpstreamLookup ErrorType = "upstream_lookup_failed"

	// ErrorTypeUpstreamDelivery indicates the attribution API rejected
	// the event or was unreachable. Reported to the caller, never
	// silently swallowed.
	ErrorTypeUpstreamDelivery ErrorType = "upstream_delivery_failed"

	// ErrorTypeConfigurationMissing indicates a required credential is
	// absent and delivery is permanently disabled for this process.
	ErrorTypeConfigurationMissing ErrorType = "configuration_missing"

	// ErrorTypeNotFound indicates a referenced resource (e.g. session)
	// does not exist.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeServer indicates an internal error.
	ErrorTypeServer ErrorType = "server"
)

// FunnelError is the canonical error returned by the pipeline and
// surfaced by handlers with a machine-readable type.
type FunnelError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Param is the request field that caused the error (if applicable)
	Param string `json:"param,omitempty"`

	// StatusCode is the suggested HTTP status code
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *FunnelError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *FunnelError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInputRejected:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstreamLookup, ErrorTypeUpstreamDelivery:
		return http.StatusBadGateway
	case ErrorTypeConfigurationMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewFunnelError creates a new funnel error.
func NewFunnelError(errType ErrorType, message string) *FunnelError {
	return &FunnelError{
		Type:    errType,
		Message: message,
	}
}

// WithParam adds a parameter name to the error.
func (e *FunnelError) WithParam(param string) *FunnelError {
	e.Param = param
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *FunnelError) WithStatusCode(code int) *FunnelError {
	e.StatusCode = code
	return e
}

// Convenience constructors for common errors

// ErrInputRejected creates an input rejected error.
func ErrInputRejected(message string) *FunnelError {
	return NewFunnelError(ErrorTypeInputRejected, message)
}

// ErrUpstreamLookup creates an upstream lookup error.
func ErrUpstreamLookup(message string) *FunnelError {
	return NewFunnelError(ErrorTypeUpstreamLookup, message)
}

// ErrUpstreamDelivery creates an upstream delivery error.
func ErrUpstreamDelivery(message string) *FunnelError {
	return NewFunnelError(ErrorTypeUpstreamDelivery, message)
}

// ErrConfigurationMissing creates a configuration missing error.
func ErrConfigurationMissing(message string) *FunnelError {
	return NewFunnelError(ErrorTypeConfigurationMissing, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(message string) *FunnelError {
	return NewFunnelError(ErrorTypeNotFound, message)
}

// ErrServer creates a server error.
func ErrServer(message string) *FunnelError {
	return NewFunnelError(ErrorTypeServer, message)
}
