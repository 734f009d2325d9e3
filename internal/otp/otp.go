// Package otp generates the time-windowed passcodes the portal's second
// factor asks for during sign-in.
package otp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// Generator produces the current passcode for a shared secret.
type Generator interface {
	Generate(secret string) (string, error)
}

// TOTPGenerator implements Generator with RFC 6238 codes.
type TOTPGenerator struct {
	now func() time.Time
}

// NewTOTPGenerator creates a generator backed by the system clock.
func NewTOTPGenerator() *TOTPGenerator {
	return &TOTPGenerator{now: time.Now}
}

// Generate returns the 6-digit code for the current time window. The secret
// is the base32 string shown during two-factor enrollment; embedded spaces
// are tolerated.
func (g *TOTPGenerator) Generate(secret string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(secret), " ", "")
	if normalized == "" {
		return "", fmt.Errorf("otp secret is empty")
	}

	code, err := totp.GenerateCode(normalized, g.now())
	if err != nil {
		return "", fmt.Errorf("generate totp code: %w", err)
	}
	return code, nil
}
