package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateResolveRevoke(t *testing.T) {
	g := NewRegistry()

	ref := g.Create([]byte("audio"), "audio/webm")
	require.NotEmpty(t, ref.Token)
	assert.Equal(t, 1, g.Live())

	data, mediaType, ok := g.Resolve(ref.Token)
	require.True(t, ok)
	assert.Equal(t, []byte("audio"), data)
	assert.Equal(t, "audio/webm", mediaType)

	ref.Revoke()
	assert.Equal(t, 0, g.Live())
	_, _, ok = g.Resolve(ref.Token)
	assert.False(t, ok)

	// Revoking twice is harmless.
	ref.Revoke()
}

func TestRegistryRefsAreIndependent(t *testing.T) {
	g := NewRegistry()

	a := g.Create([]byte("a"), "audio/webm")
	b := g.Create([]byte("b"), "audio/webm")
	require.NotEqual(t, a.Token, b.Token)

	a.Revoke()
	_, _, ok := g.Resolve(b.Token)
	assert.True(t, ok, "revoking one reference must not touch another")
	assert.Equal(t, 1, g.Live())
}

func TestResolveUnknownToken(t *testing.T) {
	g := NewRegistry()
	_, _, ok := g.Resolve("nope")
	assert.False(t, ok)
}
