package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotModified is returned alongside a fetch result when the server answered 304.
	ErrNotModified = errors.New("content not modified")
	// ErrRecordNotFound indicates a target has never been observed.
	ErrRecordNotFound = errors.New("record not found")
	// ErrNotAtomFeed signals that an XML document is not an Atom feed and
	// generic XML handling should be used instead.
	ErrNotAtomFeed = errors.New("document is not an atom feed")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// TransportError is raised when a target could not be fetched: DNS failure,
// timeout, connection reset or a non-success status other than 304.
type TransportError struct {
	URL        string
	StatusCode int
	Reason     string
	Wrapped    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transport error for '%s'", e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Wrapped
}

// NewTransportError creates a new transport error
func NewTransportError(url, reason string, wrapped error) *TransportError {
	return &TransportError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// NewHTTPStatusError creates a transport error for an unexpected status code
func NewHTTPStatusError(url string, statusCode int, body string) *TransportError {
	return &TransportError{
		URL:        url,
		StatusCode: statusCode,
		Reason:     strings.TrimSpace(body),
	}
}

// ParseError is raised when fetched content cannot be turned into an observation.
type ParseError struct {
	Format  string
	Reason  string
	Wrapped error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error (%s): %s", e.Format, e.Reason)
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// NewParseError creates a new parse error
func NewParseError(format, reason string, wrapped error) *ParseError {
	return &ParseError{
		Format:  format,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// ConfigError describes a target record that cannot be monitored.
type ConfigError struct {
	Record int
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("target record %d: field '%s': %s", e.Record, e.Field, e.Reason)
	}
	return fmt.Sprintf("target record %d: %s", e.Record, e.Reason)
}

// Is reports ConfigError as an ErrInvalidConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigError creates a new target configuration error
func NewConfigError(record int, field, reason string) *ConfigError {
	return &ConfigError{
		Record: record,
		Field:  field,
		Reason: reason,
	}
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsTransportError reports whether err carries a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParseError reports whether err carries a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// CombineErrors combines multiple errors into a single error with formatted message
func CombineErrors(errs []error) error {
	var messages []string
	var last error
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
			last = err
		}
	}

	switch len(messages) {
	case 0:
		return nil
	case 1:
		return last
	}

	return fmt.Errorf("multiple errors occurred: [%s]", strings.Join(messages, "; "))
}
