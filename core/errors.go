package core

import (
	"errors"
	"fmt"
)

// ErrorTag categorizes engine failures. Tags are stable identifiers; callers
// may switch on them without string matching error text.
type ErrorTag string

const (
	// TagValidation marks malformed tool arguments or other input defects.
	TagValidation ErrorTag = "validation_error"
	// TagAPI marks provider/network failures after retries are exhausted.
	TagAPI ErrorTag = "api_error"
	// TagToolExecution marks a failure raised by a tool body.
	TagToolExecution ErrorTag = "tool_execution_error"
	// TagTimeout marks deadline or cancellation failures.
	TagTimeout ErrorTag = "timeout_error"
	// TagUnknown is the catch-all for uncategorized failures.
	TagUnknown ErrorTag = "unknown_error"
)

// Error is the tagged error type carried across every engine boundary.
// Engine-level operations funnel all failures through it so callers always
// receive a classified error value, never a panic.
type Error struct {
	Tag     ErrorTag `json:"tag"`
	Message string   `json:"message"`
	Err     error    `json:"-"` // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a tagged error with a formatted message.
func NewError(tag ErrorTag, format string, args ...any) *Error {
	return &Error{Tag: tag, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a tagged error wrapping cause.
func WrapError(tag ErrorTag, cause error, format string, args ...any) *Error {
	return &Error{Tag: tag, Message: fmt.Sprintf(format, args...), Err: cause}
}

// TagOf classifies err: the tag of the outermost *Error in its chain, or
// TagUnknown for foreign errors. A nil err has no tag and yields "".
func TagOf(err error) ErrorTag {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Tag
	}
	return TagUnknown
}
