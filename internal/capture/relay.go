package capture

import (
	"context"
	"fmt"
	"sync"
)

const chunkBuffer = 256

// Relay is a Device fed by the recording page: the browser holds the real
// microphone and relays encoded fragments over HTTP, which Push delivers to
// the session's open stream. One stream per session at a time.
type Relay struct {
	mu      sync.Mutex
	streams map[string]*relayStream
}

// NewRelay creates an empty relay device.
func NewRelay() *Relay {
	return &Relay{streams: make(map[string]*relayStream)}
}

// RequestAccess opens a relay stream for the session. Fails when the session
// already holds an open stream.
func (r *Relay) RequestAccess(_ context.Context, sessionID string) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[sessionID]; ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrAccessDenied)
	}
	s := &relayStream{
		ch:      make(chan []byte, chunkBuffer),
		release: func() { r.release(sessionID) },
	}
	r.streams[sessionID] = s
	return s, nil
}

// Push delivers one fragment from the page to the session's open stream.
// Empty fragments and fragments for sessions without an open stream are
// dropped, mirroring how the page drops zero-size capture events.
func (r *Relay) Push(sessionID string, fragment []byte) bool {
	if len(fragment) == 0 {
		return false
	}
	r.mu.Lock()
	s, ok := r.streams[sessionID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return s.push(fragment)
}

func (r *Relay) release(sessionID string) {
	r.mu.Lock()
	delete(r.streams, sessionID)
	r.mu.Unlock()
}

type relayStream struct {
	mu      sync.Mutex
	ch      chan []byte
	closed  bool
	release func()
}

func (s *relayStream) Chunks() <-chan []byte { return s.ch }

func (s *relayStream) push(fragment []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- fragment:
		return true
	default:
		// buffer full, drop
		return false
	}
}

func (s *relayStream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	s.release()
}
