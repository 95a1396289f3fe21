package race

import "errors"

var (
	// ErrDriverNameRequired is returned when a driver name is blank after trimming.
	ErrDriverNameRequired = errors.New("driver name is required")
	// ErrDriverIDRequired is returned when a delete names no driver.
	ErrDriverIDRequired = errors.New("driver id is required")
	// ErrNotConfirmed is returned by destructive operations the user did
	// not confirm. Callers treat it as a no-op.
	ErrNotConfirmed = errors.New("operation not confirmed")
)
