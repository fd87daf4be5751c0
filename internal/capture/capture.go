// Package capture abstracts the audio capture device: a session requests
// access, receives a stream of opaque encoded fragments, and closes the
// stream when recording stops. The service never inspects fragment contents.
package capture

import (
	"context"
	"errors"
)

// ErrAccessDenied is returned when the capture device is unavailable or the
// performer denied access.
var ErrAccessDenied = errors.New("capture access denied")

// Device grants access to an audio capture source.
type Device interface {
	// RequestAccess opens a capture stream for the given session. Returns
	// ErrAccessDenied (possibly wrapped) when no stream can be opened.
	RequestAccess(ctx context.Context, sessionID string) (Stream, error)
}

// Stream yields an ordered sequence of binary fragments until closed.
type Stream interface {
	// Chunks returns the fragment channel. The channel is closed after Close.
	Chunks() <-chan []byte
	// Close stops capture and closes the fragment channel. Idempotent.
	Close()
}
