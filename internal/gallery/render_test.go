package gallery

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-karaoke/backend/internal/models"
	"github.com/neon-karaoke/backend/internal/performances"
)

func perf(name, title string, at int64) models.Performance {
	return models.Performance{
		ID:        uuid.New(),
		Username:  name,
		Title:     title,
		AudioURL:  "https://objects.test/performances/" + name,
		Timestamp: time.Unix(at, 0),
	}
}

func TestRenderPreservesSnapshotOrder(t *testing.T) {
	r := NewRenderer("https://twitter.com/")
	snap := performances.Snapshot{
		perf("@carol", "Third", 30),
		perf("@bob", "Second", 20),
		perf("@alice", "First", 10),
	}

	clips := r.Render(snap)
	require.Len(t, clips, 3)
	assert.Equal(t, "Third", clips[0].Title)
	assert.Equal(t, "Second", clips[1].Title)
	assert.Equal(t, "First", clips[2].Title)
}

func TestRenderProfileURLStripsMarkers(t *testing.T) {
	r := NewRenderer("https://twitter.com/")
	cases := []struct {
		handle, want string
	}{
		{"@alice", "https://twitter.com/alice"},
		{"alice", "https://twitter.com/alice"},
		{"@@alice", "https://twitter.com/alice"},
		{"~@alice", "https://twitter.com/alice"},
	}
	for _, c := range cases {
		clips := r.Render(performances.Snapshot{perf(c.handle, "t", 1)})
		require.Len(t, clips, 1)
		assert.Equal(t, c.want, clips[0].ProfileURL, "handle=%q", c.handle)
		// The visible label keeps the handle as entered.
		assert.Equal(t, c.handle, clips[0].Username)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("https://twitter.com/")
	snap := performances.Snapshot{perf("@alice", "Song", 10), perf("@bob", "Tune", 20)}

	assert.Equal(t, r.Render(snap), r.Render(snap))
}

func TestRenderEmptySnapshot(t *testing.T) {
	r := NewRenderer("https://twitter.com/")
	assert.Empty(t, r.Render(nil))
}

func TestRenderCarriesReactions(t *testing.T) {
	r := NewRenderer("https://twitter.com/")
	p := perf("@alice", "Song", 10)
	p.Reactions = models.Reactions{Laugh: 2, Love: 1, Kiss: 0}

	clips := r.Render(performances.Snapshot{p})
	require.Len(t, clips, 1)
	assert.Equal(t, p.Reactions, clips[0].Reactions)
	assert.Equal(t, p.AudioURL, clips[0].AudioURL)
}
