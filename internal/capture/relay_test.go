package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayLifecycle(t *testing.T) {
	r := NewRelay()

	// Nothing to push into before access is granted.
	assert.False(t, r.Push("s1", []byte("early")))

	stream, err := r.RequestAccess(context.Background(), "s1")
	require.NoError(t, err)

	assert.True(t, r.Push("s1", []byte("one")))
	assert.True(t, r.Push("s1", []byte("two")))
	assert.False(t, r.Push("s1", nil), "empty fragments are dropped")
	assert.False(t, r.Push("other", []byte("x")), "unknown sessions are dropped")

	stream.Close()
	assert.False(t, r.Push("s1", []byte("late")), "fragments after close are dropped")

	var got []byte
	for chunk := range stream.Chunks() {
		got = append(got, chunk...)
	}
	assert.Equal(t, []byte("onetwo"), got)
}

func TestRelaySingleStreamPerSession(t *testing.T) {
	r := NewRelay()

	s, err := r.RequestAccess(context.Background(), "s1")
	require.NoError(t, err)

	_, err = r.RequestAccess(context.Background(), "s1")
	require.ErrorIs(t, err, ErrAccessDenied)

	// Releasing the stream frees the slot.
	s.Close()
	_, err = r.RequestAccess(context.Background(), "s1")
	require.NoError(t, err)
}

func TestRelayCloseIdempotent(t *testing.T) {
	r := NewRelay()
	s, err := r.RequestAccess(context.Background(), "s1")
	require.NoError(t, err)
	s.Close()
	s.Close()
}
