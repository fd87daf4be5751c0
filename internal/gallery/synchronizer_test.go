package gallery

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-karaoke/backend/internal/models"
	"github.com/neon-karaoke/backend/internal/performances"
)

// scriptedSource replays a fixed sequence of collection states, each ordered
// the way the store orders them: timestamp descending.
type scriptedSource struct {
	states [][]models.Performance
}

func (s *scriptedSource) Subscribe(ctx context.Context) (<-chan performances.Snapshot, error) {
	out := make(chan performances.Snapshot)
	go func() {
		defer close(out)
		for _, state := range s.states {
			snap := make(performances.Snapshot, len(state))
			copy(snap, state)
			sort.SliceStable(snap, func(i, j int) bool {
				return snap[i].Timestamp.After(snap[j].Timestamp)
			})
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type captureHub struct {
	mu     sync.Mutex
	events []struct {
		Event   string
		Payload interface{}
	}
}

func (h *captureHub) Broadcast(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, struct {
		Event   string
		Payload interface{}
	}{event, payload})
}

func (h *captureHub) galleries() [][]Clip {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out [][]Clip
	for _, e := range h.events {
		if e.Event == "gallery" {
			out = append(out, e.Payload.([]Clip))
		}
	}
	return out
}

func TestSynchronizerRebuildsFromEverySnapshot(t *testing.T) {
	a := perf("@alice", "A", 10)
	b := perf("@bob", "B", 30)
	c := perf("@carol", "C", 20)

	// Records arrive out of timestamp order; each state is the full set.
	src := &scriptedSource{states: [][]models.Performance{
		{},
		{a},
		{a, b},
		{a, b, c},
	}}
	hub := &captureHub{}
	s := NewSynchronizer(src, NewRenderer("https://twitter.com/"), hub, nil)

	require.NoError(t, s.Run(context.Background()))

	rendered := hub.galleries()
	require.Len(t, rendered, 4, "one full re-render per snapshot")

	assert.Empty(t, rendered[0])
	assert.Len(t, rendered[1], 1)
	assert.Len(t, rendered[2], 2)

	// Final render: exactly the current set, timestamp descending (30, 20, 10),
	// no stale entries, no duplicates.
	final := rendered[3]
	require.Len(t, final, 3)
	assert.Equal(t, "B", final[0].Title)
	assert.Equal(t, "C", final[1].Title)
	assert.Equal(t, "A", final[2].Title)

	seen := make(map[string]bool)
	for _, clip := range final {
		assert.False(t, seen[clip.ID.String()], "duplicate clip %s", clip.ID)
		seen[clip.ID.String()] = true
	}
}

func TestSynchronizerStopsOnCancel(t *testing.T) {
	src := &scriptedSource{states: [][]models.Performance{{}}}
	hub := &captureHub{}
	s := NewSynchronizer(src, NewRenderer("https://twitter.com/"), hub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
