package models

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when the performer leaves the inputs blank.
const (
	DefaultUsername = "Anonymous"
	DefaultTitle    = "Untitled Performance"
)

// Reactions is the fixed set of reaction counters on a performance.
// All counters start at zero and never go negative.
type Reactions struct {
	Laugh int `json:"laugh"`
	Love  int `json:"love"`
	Kiss  int `json:"kiss"`
}

// ReactionKinds lists the valid reaction names.
var ReactionKinds = []string{"laugh", "love", "kiss"}

// ValidReaction reports whether kind names one of the fixed counters.
func ValidReaction(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Performance is one saved recording: created exactly once per successful
// save, after its audio blob is durably stored and a retrievable URL exists.
// Field names are wire-fixed for the page.
type Performance struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	AudioURL  string    `json:"audioUrl"`
	Timestamp time.Time `json:"timestamp"` // server-assigned, ordering only
	Reactions Reactions `json:"reactions"`
}
