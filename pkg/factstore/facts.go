package factstore

import (
	"context"
	"time"

	"github.com/soundprediction/chronicle/pkg/types"
)

// FactStore is the persistence abstraction behind the temporal store.
//
// Implementations must be safe for concurrent use and must make each
// mutating call atomic: a failed save leaves no partial write behind.
// Saves are idempotent by fact id, so callers may retry on transient
// failures.
type FactStore interface {
	// Initialize ensures the backing schema exists.
	Initialize(ctx context.Context) error

	// SaveFact inserts the fact or replaces the stored fact with the
	// same id.
	SaveFact(ctx context.Context, fact *types.TemporalFact) error

	// GetFact retrieves one fact by id within a scope.
	GetFact(ctx context.Context, scopeID, factID string) (*types.TemporalFact, error)

	// GetFactByOwner retrieves the fact describing owner within a scope.
	// There is at most one: (owner_ref, scope_id) is the natural key.
	GetFactByOwner(ctx context.Context, scopeID string, owner types.OwnerRef) (*types.TemporalFact, error)

	// ListFacts returns every fact in the scope, in no particular order.
	ListFacts(ctx context.Context, scopeID string) ([]*types.TemporalFact, error)

	// ListFactsInRange returns the scope's facts matching the timeframe:
	// interval facts whose start is at or before end and whose end is at
	// or after start (or open), and instant facts whose start falls
	// inside [start, end]. Order is unspecified.
	ListFactsInRange(ctx context.Context, scopeID string, start, end time.Time) ([]*types.TemporalFact, error)

	// SaveRelation sets or overwrites the single outgoing relation on a
	// fact. A nil relation clears it.
	SaveRelation(ctx context.Context, scopeID, factID string, rel *types.Relation) error

	// SaveTimelineOrder persists the dense chronological order for a
	// scope, keyed by fact id. Facts absent from the map are untouched.
	SaveTimelineOrder(ctx context.Context, scopeID string, order map[string]int) error

	// DeleteScope removes every fact in the scope. Deleting a scope that
	// does not exist is not an error.
	DeleteScope(ctx context.Context, scopeID string) error

	// Stats reports store-wide counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the backing resources.
	Close() error
}

// Stats holds store-wide counts.
type Stats struct {
	FactCount  int64
	ScopeCount int64
}

// inRange reports whether a fact matches the timeframe per the
// ListFactsInRange contract. Backends without query pushdown share it.
func inRange(f *types.TemporalFact, start, end time.Time) bool {
	if f.Start.IsZero() {
		return false
	}
	if f.IsInstant() {
		return !f.Start.Before(start) && !f.Start.After(end)
	}
	if f.Start.After(end) {
		return false
	}
	return f.End == nil || !f.End.Before(start)
}
