package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Validation errors - a mandatory context field is missing
	ErrorTypeValidation ErrorType = iota
	// Config errors - unrecognized or invalid policy/config value
	ErrorTypeConfig
	// AgentCompute errors - unexpected failure inside a single agent's rule evaluation
	ErrorTypeAgentCompute
	// Cascade errors - bottleneck reconciliation failures (no match, store unavailable)
	ErrorTypeCascade
	// Database errors - store connection or query failures
	ErrorTypeDatabase
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Error represents a structured error with context.
// No category aborts the decision pipeline: validation and compute errors
// degrade a single agent to its default decision, cascade errors are logged
// and swallowed by the cascade itself.
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		typeString(e.Type),
		e.Message))

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeAgentCompute:
		return "AGENT_COMPUTE"
	case ErrorTypeCascade:
		return "CASCADE"
	case ErrorTypeDatabase:
		return "DATABASE"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Cause:    err,
		Context:  make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an *Error of the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Type == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Convenience constructors for common error types

// ValidationError creates a validation error. Validation errors are recovered
// locally: the agent falls back to its default decision at reduced confidence.
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityLow, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityLow, fmt.Sprintf(format, args...))
}

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityLow, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityLow, fmt.Sprintf(format, args...))
}

// AgentComputeError creates an agent compute error
func AgentComputeError(message string) *Error {
	return New(ErrorTypeAgentCompute, SeverityMedium, message)
}

// AgentComputeErrorf creates an agent compute error with formatting
func AgentComputeErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeAgentCompute, SeverityMedium, fmt.Sprintf(format, args...))
}

// CascadeError creates a cascade error
func CascadeError(message string) *Error {
	return New(ErrorTypeCascade, SeverityMedium, message)
}

// CascadeErrorf creates a cascade error with formatting
func CascadeErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeCascade, SeverityMedium, fmt.Sprintf(format, args...))
}

// DatabaseError wraps a store failure
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityHigh, message)
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityHigh, fmt.Sprintf(format, args...))
}
