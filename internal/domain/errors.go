package domain

import "errors"

var (
	// ErrValidation marks input that fails precondition checks.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups for runs that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRunning is returned when a start request arrives while a batch is running.
	ErrAlreadyRunning = errors.New("a batch is already running")
	// ErrNotRunning is returned when a cancel request arrives with no batch running.
	ErrNotRunning = errors.New("no batch is running")
)
