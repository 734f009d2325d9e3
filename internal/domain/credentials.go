package domain

// Credentials authenticate a session against the seller portal. They are
// supplied by the environment at start time and are never persisted.
type Credentials struct {
	Email     string
	Password  string
	OTPSecret string
}

// Complete reports whether the fields needed to open a session are present.
// The OTP secret is only needed when the portal raises a challenge, so it is
// not required here.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != ""
}
