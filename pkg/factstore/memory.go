package factstore

import (
	"context"
	"sync"
	"time"

	"github.com/soundprediction/chronicle/pkg/types"
)

// MemoryStore is an in-process FactStore. Reads operate on deep copies
// taken under a read lock, so they observe a consistent snapshot without
// blocking writers for longer than the copy.
type MemoryStore struct {
	mu sync.RWMutex
	// facts[scopeID][factID]
	facts map[string]map[string]*types.TemporalFact
	// owners[scopeID][ownerRef.String()] = factID
	owners map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		facts:  make(map[string]map[string]*types.TemporalFact),
		owners: make(map[string]map[string]string),
	}
}

// Initialize implements FactStore. It is a no-op for the memory backend.
func (s *MemoryStore) Initialize(ctx context.Context) error {
	return nil
}

// SaveFact implements FactStore.
func (s *MemoryStore) SaveFact(ctx context.Context, fact *types.TemporalFact) error {
	if fact.ID == "" {
		return types.ErrEmptyFactID
	}
	if err := fact.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.facts[fact.ScopeID]
	if scope == nil {
		scope = make(map[string]*types.TemporalFact)
		s.facts[fact.ScopeID] = scope
		s.owners[fact.ScopeID] = make(map[string]string)
	}
	scope[fact.ID] = fact.Clone()
	s.owners[fact.ScopeID][fact.Owner.String()] = fact.ID
	return nil
}

// GetFact implements FactStore.
func (s *MemoryStore) GetFact(ctx context.Context, scopeID, factID string) (*types.TemporalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.facts[scopeID][factID]; ok {
		return f.Clone(), nil
	}
	return nil, &types.NotFoundError{ScopeID: scopeID, FactID: factID}
}

// GetFactByOwner implements FactStore.
func (s *MemoryStore) GetFactByOwner(ctx context.Context, scopeID string, owner types.OwnerRef) (*types.TemporalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.owners[scopeID][owner.String()]; ok {
		return s.facts[scopeID][id].Clone(), nil
	}
	return nil, &types.NotFoundError{ScopeID: scopeID, Owner: owner}
}

// ListFacts implements FactStore.
func (s *MemoryStore) ListFacts(ctx context.Context, scopeID string) ([]*types.TemporalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope := s.facts[scopeID]
	out := make([]*types.TemporalFact, 0, len(scope))
	for _, f := range scope {
		out = append(out, f.Clone())
	}
	return out, nil
}

// ListFactsInRange implements FactStore.
func (s *MemoryStore) ListFactsInRange(ctx context.Context, scopeID string, start, end time.Time) ([]*types.TemporalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.TemporalFact
	for _, f := range s.facts[scopeID] {
		if inRange(f, start, end) {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// SaveRelation implements FactStore.
func (s *MemoryStore) SaveRelation(ctx context.Context, scopeID, factID string, rel *types.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.facts[scopeID][factID]
	if !ok {
		return &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	if rel == nil {
		f.Relation = nil
	} else {
		r := *rel
		f.Relation = &r
	}
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveTimelineOrder implements FactStore.
func (s *MemoryStore) SaveTimelineOrder(ctx context.Context, scopeID string, order map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.facts[scopeID]
	for id, pos := range order {
		if f, ok := scope[id]; ok {
			f.TimelineOrder = pos
		}
	}
	return nil
}

// DeleteScope implements FactStore.
func (s *MemoryStore) DeleteScope(ctx context.Context, scopeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.facts, scopeID)
	delete(s.owners, scopeID)
	return nil
}

// Stats implements FactStore.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ScopeCount: int64(len(s.facts))}
	for _, scope := range s.facts {
		stats.FactCount += int64(len(scope))
	}
	return stats, nil
}

// Close implements FactStore.
func (s *MemoryStore) Close() error {
	return nil
}
