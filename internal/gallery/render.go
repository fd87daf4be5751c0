// Package gallery keeps the rendered performance list a faithful ordered
// projection of the stored collection. Every change re-renders the whole list
// from the current snapshot; nothing is patched incrementally, so the view
// can never drift from the store.
package gallery

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/neon-karaoke/backend/internal/models"
	"github.com/neon-karaoke/backend/internal/performances"
)

// Clip is the view model for one gallery entry.
type Clip struct {
	ID         uuid.UUID        `json:"id"`
	Username   string           `json:"username"`
	ProfileURL string           `json:"profileUrl"`
	Title      string           `json:"title"`
	AudioURL   string           `json:"audioUrl"`
	Reactions  models.Reactions `json:"reactions"`
}

// Renderer turns snapshots into clip lists. Pure: same snapshot, same output.
type Renderer struct {
	profileURLBase string
}

// NewRenderer creates a renderer linking performer labels under base.
func NewRenderer(profileURLBase string) *Renderer {
	return &Renderer{profileURLBase: profileURLBase}
}

// Render rebuilds the full clip list from a snapshot, preserving its order.
func (r *Renderer) Render(snap performances.Snapshot) []Clip {
	clips := make([]Clip, 0, len(snap))
	for _, p := range snap {
		clips = append(clips, Clip{
			ID:         p.ID,
			Username:   p.Username,
			ProfileURL: r.profileURLBase + stripMarkers(p.Username),
			Title:      p.Title,
			AudioURL:   p.AudioURL,
			Reactions:  p.Reactions,
		})
	}
	return clips
}

// stripMarkers drops leading non-alphanumeric marker runes from a handle
// ("@alice" links as "alice").
func stripMarkers(handle string) string {
	return strings.TrimLeftFunc(handle, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
