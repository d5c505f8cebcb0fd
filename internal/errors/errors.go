// Package errors provides centralized error definitions and error handling utilities
// for the adminkit runtime. It defines the sentinel errors raised by the event bus,
// the component lifecycle and the API client, context-carrying error types, and
// error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - ComponentError: a lifecycle hook or operation failed on a component
//   - ListenerError: an event bus listener returned an error or panicked
//   - APIError: an HTTP call failed after retries, or failed non-retryably
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewComponentError("mount failed", errors.ErrMissingContainer).
//	    WithComponent("c-1", "navigation").WithHook("mount")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrAlreadyDestroyed) { ... }
//
//	var apiErr *errors.APIError
//	if errors.As(err, &apiErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Event bus sentinel errors
var (
	// ErrInvalidListener indicates that a nil callback was passed to the bus.
	ErrInvalidListener = New("invalid listener")
	// ErrListenerPanic indicates that a listener panicked during dispatch.
	ErrListenerPanic = New("listener panicked")
)

// Component sentinel errors
var (
	// ErrMissingContainer indicates that a component could not resolve an element to mount into.
	ErrMissingContainer = New("missing container")
	// ErrAlreadyDestroyed indicates an operation on a destroyed component.
	ErrAlreadyDestroyed = New("component already destroyed")
	// ErrHookPanic indicates that a lifecycle hook panicked.
	ErrHookPanic = New("lifecycle hook panicked")
	// ErrInvalidChild indicates that a child component could not be attached.
	ErrInvalidChild = New("invalid child component")
)

// API client sentinel errors
var (
	// ErrHTTPStatus indicates that the server answered with a non-2xx status.
	ErrHTTPStatus = New("unexpected HTTP status")
	// ErrCSRFToken indicates that the CSRF token could not be obtained.
	ErrCSRFToken = New("csrf token unavailable")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// KitError is the base interface for all adminkit errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type KitError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// Message returns the message without the cause.
func (e *baseError) Message() string {
	return e.message
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ComponentError represents errors raised by the component lifecycle.
//
// Example:
//
//	err := errors.NewComponentError("hook failed", cause).WithComponent("id", "navigation").WithHook("afterMount")
//	fmt.Println(err) // "component error [component=navigation, id=id, hook=afterMount]: hook failed: ..."
type ComponentError struct {
	baseError
	ComponentID string
	Name        string
	Hook        string
}

// NewComponentError creates a new ComponentError.
func NewComponentError(message string, cause error) *ComponentError {
	return &ComponentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
	}
}

// WithComponent adds the component id and name to the error context.
func (e *ComponentError) WithComponent(id, name string) *ComponentError {
	e.ComponentID = id
	e.Name = name
	return e
}

// WithHook adds the lifecycle hook name to the error context.
func (e *ComponentError) WithHook(hook string) *ComponentError {
	e.Hook = hook
	return e
}

// WithSeverity sets the error severity.
func (e *ComponentError) WithSeverity(s Severity) *ComponentError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ComponentError) Error() string {
	var parts []string
	if e.Name != "" {
		parts = append(parts, fmt.Sprintf("component=%s", e.Name))
	}
	if e.ComponentID != "" {
		parts = append(parts, fmt.Sprintf("id=%s", e.ComponentID))
	}
	if e.Hook != "" {
		parts = append(parts, fmt.Sprintf("hook=%s", e.Hook))
	}

	prefix := "component error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("component error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ComponentError) Is(target error) bool {
	if _, ok := target.(*ComponentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ListenerError represents a failure inside an event bus listener.
type ListenerError struct {
	baseError
	Event      string
	ListenerID string
}

// NewListenerError creates a new ListenerError.
func NewListenerError(event, listenerID string, cause error) *ListenerError {
	return &ListenerError{
		baseError: baseError{
			message:    "listener failed",
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
		Event:      event,
		ListenerID: listenerID,
	}
}

// Error returns the formatted error message.
func (e *ListenerError) Error() string {
	prefix := fmt.Sprintf("listener error [event=%s, listener=%s]", e.Event, e.ListenerID)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ListenerError) Is(target error) bool {
	if _, ok := target.(*ListenerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// APIError is the normalized failure returned by the API client once a
// request has failed non-retryably or exhausted its retries.
//
// Example:
//
//	err := errors.NewAPIError("request failed", cause).WithRequest("GET", "https://x/api/users").WithStatus(502)
type APIError struct {
	baseError
	Method    string
	URL       string
	Status    int
	Attempts  int
	Timestamp time.Time
}

// NewAPIError creates a new APIError stamped with the current time.
func NewAPIError(message string, cause error) *APIError {
	return &APIError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Timestamp: time.Now(),
	}
}

// WithRequest adds the request method and URL to the error context.
func (e *APIError) WithRequest(method, url string) *APIError {
	e.Method = method
	e.URL = url
	return e
}

// WithStatus adds the HTTP status code to the error context.
// A 5xx status marks the error as retryable.
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	e.retryable = status >= 500
	return e
}

// WithAttempts records how many transport attempts were made.
func (e *APIError) WithAttempts(n int) *APIError {
	e.Attempts = n
	return e
}

// WithTimestamp overrides the error timestamp.
func (e *APIError) WithTimestamp(t time.Time) *APIError {
	e.Timestamp = t
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *APIError) WithRetryable(r bool) *APIError {
	e.retryable = r
	return e
}

// OriginalError returns the underlying cause.
func (e *APIError) OriginalError() error {
	return e.cause
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	var parts []string
	if e.Method != "" {
		parts = append(parts, fmt.Sprintf("method=%s", e.Method))
	}
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("url=%s", e.URL))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", e.Attempts))
	}

	prefix := "api error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("api error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("endpoint cannot be empty")
//	err = err.WithField("endpoint").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing KitError with IsRetryable() returning true
//   - Errors wrapping ErrTimeout
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var kitErr KitError
	if As(err, &kitErr) {
		return kitErr.IsRetryable()
	}

	if Is(err, ErrTimeout) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var kitErr KitError
	if As(err, &kitErr) {
		return kitErr.IsUserFacing()
	}

	var validation *ValidationError
	return As(err, &validation)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement KitError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    alertOnCall(err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var kitErr KitError
	if As(err, &kitErr) {
		return kitErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to render breadcrumb")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
