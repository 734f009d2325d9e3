package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error classifies driver call failures as timeout/structural.
type Error struct {
	Op      string
	Control string
	Timeout bool
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "driver error")

	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", op))
	}
	if ctl := strings.TrimSpace(e.Control); ctl != "" {
		parts = append(parts, fmt.Sprintf("control=%s", ctl))
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewTimeoutError wraps a deadline expiry observed during op.
func NewTimeoutError(op, control string, cause error) *Error {
	return &Error{Op: op, Control: control, Timeout: true, Cause: cause}
}

// NewError wraps a structural failure observed during op.
func NewError(op, control string, cause error) *Error {
	return &Error{Op: op, Control: control, Cause: cause}
}

// IsTimeout reports whether an error is a deadline expiry rather than a
// structural failure. Context cancellation is not a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var drvErr *Error
	if errors.As(err, &drvErr) {
		return drvErr.Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
