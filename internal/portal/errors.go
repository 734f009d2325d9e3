package portal

import (
	"errors"
	"fmt"
)

// Auth failure reasons. They are stable machine-readable tags that survive
// into run records and API responses.
const (
	ReasonMissingCredentials = "missing_credentials"
	ReasonOTPExhausted       = "otp_exhausted"
	ReasonOTPGenerate        = "otp_generate"
)

// ControlNotFoundReason tags a required sign-in control that the portal
// never rendered.
func ControlNotFoundReason(control string) string {
	return "control_not_found:" + control
}

// AuthError reports a sign-in failure. It always aborts the run before any
// item is attempted.
type AuthError struct {
	Reason string
	Cause  error
}

func (e *AuthError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("auth error: %s: %v", e.Reason, e.Cause)
	}
	return "auth error: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// AsAuthError unwraps err into an AuthError if one is in its chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
