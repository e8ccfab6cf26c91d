package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrVendor        = errors.New("vendor error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Error is a classified service failure. The marker sentinel drives
// errors.Is checks; component, operation, and message are kept as separate
// fields so Details can hand the orchestrator the user-facing message
// without the classification prefixes.
type Error struct {
	marker    error
	component string
	operation string
	message   string
	cause     error
}

// Wrap builds a classified service error. The marker should be one of the
// exported sentinel errors above; nil defaults to ErrTransient. Component
// and operation name where the failure happened, message is the text shown
// to users, and err is the underlying cause, if any.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{
		marker:    marker,
		component: strings.TrimSpace(component),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// Error renders the full context for logs, for example
// "vendor error: elevenlabs: synthesize: quota exceeded".
func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	parts = append(parts, e.marker.Error())
	if e.component != "" {
		parts = append(parts, e.component)
	}
	if e.operation != "" {
		parts = append(parts, e.operation)
	}
	if e.message != "" {
		parts = append(parts, e.message)
	}
	text := strings.Join(parts, ": ")
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", text, e.cause)
	}
	return text
}

// Unwrap exposes the marker and the underlying cause to errors.Is and
// errors.As.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// ErrorDetails describes a stage failure in terms the orchestrator can
// persist onto the job record and log consistently.
type ErrorDetails struct {
	Kind      string
	Component string
	Operation string
	Message   string
	Cause     error
}

// Details extracts classification and a display message from a stage error.
// For errors built by Wrap, Message is exactly the text passed to Wrap, so
// the job record carries "quota exceeded" rather than
// "vendor error: elevenlabs: synthesize: quota exceeded". Other errors fall
// back to their full text.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		message := svcErr.message
		if message == "" && svcErr.cause != nil {
			message = svcErr.cause.Error()
		}
		if message == "" {
			message = "service failure"
		}
		return ErrorDetails{
			Kind:      kindOf(svcErr.marker),
			Component: svcErr.component,
			Operation: svcErr.operation,
			Message:   message,
			Cause:     svcErr.cause,
		}
	}

	details := ErrorDetails{Kind: "transient", Message: err.Error(), Cause: err}
	for marker, kind := range markerKinds {
		if errors.Is(err, marker) {
			details.Kind = kind
			break
		}
	}
	return details
}

func kindOf(marker error) string {
	if kind, ok := markerKinds[marker]; ok {
		return kind
	}
	return "transient"
}

var markerKinds = map[error]string{
	ErrValidation:    "validation",
	ErrConfiguration: "configuration",
	ErrNotFound:      "not_found",
	ErrVendor:        "vendor",
	ErrTimeout:       "timeout",
	ErrTransient:     "transient",
}
