// Package preview holds assembled artifacts behind revocable tokens so the
// page can play a recording back before it is uploaded. A token stops
// resolving the moment its reference is revoked.
package preview

import (
	"sync"

	"github.com/google/uuid"
)

// Ref is a revocable local reference to an artifact. Exactly one owner: the
// session that created it must revoke it on every exit path from review.
type Ref struct {
	Token     string
	MediaType string

	registry *Registry
	once     sync.Once
}

// Revoke releases the reference. Idempotent.
func (r *Ref) Revoke() {
	r.once.Do(func() {
		r.registry.drop(r.Token)
	})
}

// Registry maps live preview tokens to artifact bytes.
type Registry struct {
	mu        sync.RWMutex
	artifacts map[string]entry
}

type entry struct {
	data      []byte
	mediaType string
}

// NewRegistry creates an empty preview registry.
func NewRegistry() *Registry {
	return &Registry{artifacts: make(map[string]entry)}
}

// Create registers an artifact and returns its reference. The caller is
// responsible for revoking any prior reference it holds.
func (g *Registry) Create(data []byte, mediaType string) *Ref {
	token := uuid.New().String()
	g.mu.Lock()
	g.artifacts[token] = entry{data: data, mediaType: mediaType}
	g.mu.Unlock()
	return &Ref{Token: token, MediaType: mediaType, registry: g}
}

// Resolve returns the artifact for a live token, or ok=false when the token
// is unknown or revoked.
func (g *Registry) Resolve(token string) (data []byte, mediaType string, ok bool) {
	g.mu.RLock()
	e, ok := g.artifacts[token]
	g.mu.RUnlock()
	if !ok {
		return nil, "", false
	}
	return e.data, e.mediaType, true
}

// Live returns the number of live references. Test hook for leak checks.
func (g *Registry) Live() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.artifacts)
}

func (g *Registry) drop(token string) {
	g.mu.Lock()
	delete(g.artifacts, token)
	g.mu.Unlock()
}
