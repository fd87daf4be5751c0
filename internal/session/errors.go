package session

import "errors"

// Failure taxonomy for the recording lifecycle. All are recovered locally:
// the session is never lost and no error propagates past the handlers.
var (
	// ErrValidation covers missing required input (empty handle at start,
	// no artifact at confirm). The state never changes.
	ErrValidation = errors.New("validation failed")
	// ErrDeviceAccess covers capture access denial. The session stays Idle.
	ErrDeviceAccess = errors.New("device access failed")
	// ErrUpload covers object-store put, URL resolution, and record insert
	// failures. The session returns to Reviewing with the artifact intact.
	ErrUpload = errors.New("upload failed")
	// ErrInvalidState is returned for operations invoked outside their
	// valid state (stop is the exception: it is a no-op outside Recording).
	ErrInvalidState = errors.New("invalid session state")
)
