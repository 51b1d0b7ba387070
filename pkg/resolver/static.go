package resolver

import (
	"context"
	"sync"

	"github.com/soundprediction/chronicle/pkg/types"
)

// Static is an in-memory Resolver backed by an explicit registry. It serves
// tests, CLI demos, and embedders that already hold their entities.
type Static struct {
	mu      sync.RWMutex
	entries map[string]*Entity
}

// NewStatic creates an empty registry.
func NewStatic() *Static {
	return &Static{entries: make(map[string]*Entity)}
}

// Register adds or replaces the entity for ref.
func (s *Static) Register(ref types.OwnerRef, entity *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ref.String()] = entity
}

// Unregister removes the entity for ref, if present.
func (s *Static) Unregister(ref types.OwnerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, ref.String())
}

// Resolve implements Resolver.
func (s *Static) Resolve(ctx context.Context, ref types.OwnerRef) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[ref.String()]
	if !ok {
		return nil, &types.NotFoundError{Owner: ref}
	}
	out := *e
	return &out, nil
}
