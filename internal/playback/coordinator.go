// Package playback enforces the page-wide single-playing-audio rule: when one
// audio element starts, every other element currently playing on that page —
// gallery clips and the live preview alike — must pause.
package playback

import "sync"

// Coordinator tracks which audio elements on one page are playing. One
// coordinator per connected page.
type Coordinator struct {
	mu      sync.Mutex
	playing map[string]bool
}

// NewCoordinator creates a coordinator with nothing playing.
func NewCoordinator() *Coordinator {
	return &Coordinator{playing: make(map[string]bool)}
}

// Play marks elementID as playing and returns every other element that was
// playing; those must be paused. Holds for any number of elements.
func (c *Coordinator) Play(elementID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var pause []string
	for id, on := range c.playing {
		if on && id != elementID {
			pause = append(pause, id)
			c.playing[id] = false
		}
	}
	c.playing[elementID] = true
	return pause
}

// Pause marks elementID as no longer playing (user pressed pause or the clip
// ended).
func (c *Coordinator) Pause(elementID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.playing, elementID)
}

// Playing returns the ids currently playing. After any Play call at most one
// element is playing.
func (c *Coordinator) Playing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for id, on := range c.playing {
		if on {
			out = append(out, id)
		}
	}
	return out
}
