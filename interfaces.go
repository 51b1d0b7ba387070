package chronicle

import (
	"context"
	"time"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/timeline"
	"github.com/soundprediction/chronicle/pkg/types"
)

// This file defines focused interfaces that follow the Interface Segregation Principle.
// The main Chronicle interface is composed from these smaller interfaces.
// Consumers should depend on the smallest interface that meets their needs.

// FactManager provides the fact lifecycle: upsert plus chronological
// retrieval. Use this interface when you only store and query facts.
type FactManager interface {
	// UpsertFact creates or replaces the temporal fact for the input's
	// owner within its scope, returning the fact id.
	UpsertFact(ctx context.Context, in timeline.UpsertInput) (string, error)

	// FindInTimeframe returns the scope's facts intersecting
	// [start, end], optionally filtered by entity kind.
	FindInTimeframe(ctx context.Context, scopeID string, start, end time.Time, kind types.EntityKind) ([]*types.TemporalFact, error)

	// FindSequence returns the scope's dated facts in chronological
	// order, optionally filtered by kind and truncated to limit.
	FindSequence(ctx context.Context, scopeID string, kind types.EntityKind, limit int) ([]*types.TemporalFact, error)
}

// RelationManager provides typed relation assertion and lookup.
type RelationManager interface {
	// CreateRelation asserts a typed relation between two facts,
	// maintaining the inverse edge on the target when the type has one.
	CreateRelation(ctx context.Context, scopeID, fromID, toID string, relType types.RelationType) error

	// FindRelated returns the facts whose relation of the given type
	// targets factID.
	FindRelated(ctx context.Context, scopeID, factID string, relType types.RelationType) ([]*types.TemporalFact, error)
}

// TimelineMaintainer provides the derived-state passes over a scope.
type TimelineMaintainer interface {
	// InferRelations derives relations between chronologically adjacent
	// facts that have none, returning how many were written.
	InferRelations(ctx context.Context, scopeID string) (int, error)

	// RecomputeTimelineOrder assigns dense chronological positions to
	// every fact in the scope.
	RecomputeTimelineOrder(ctx context.Context, scopeID string) (map[string]int, error)
}

// ContextRenderer provides presentation: segmentation and narrative text.
type ContextRenderer interface {
	// Group partitions the scope's facts under the given strategy.
	Group(ctx context.Context, scopeID string, strategy timeline.Strategy, params *timeline.GroupParams) ([]timeline.Segment, error)

	// BuildTimeline joins the scope's facts with their entities,
	// bucketed by kind.
	BuildTimeline(ctx context.Context, scopeID string) (*timeline.Timeline, error)

	// RenderContext renders the scope's facts and relations as text.
	RenderContext(ctx context.Context, scopeID string, opts timeline.ContextOptions) (string, error)

	// RenderGroupedContext renders the scope segmented under the given
	// strategy.
	RenderGroupedContext(ctx context.Context, scopeID string, strategy timeline.Strategy, params *timeline.GroupParams) (string, error)
}

// ScopeAdmin provides maintenance operations outside any one scope's
// normal read/write path.
type ScopeAdmin interface {
	// DeleteScope removes every fact in the scope.
	DeleteScope(ctx context.Context, scopeID string) error

	// Stats reports store-wide counts.
	Stats(ctx context.Context) (*factstore.Stats, error)

	// Close releases the underlying store.
	Close() error
}

// Chronicle is the full temporal reasoning surface, composed from the
// focused interfaces above.
type Chronicle interface {
	FactManager
	RelationManager
	TimelineMaintainer
	ContextRenderer
	ScopeAdmin
}

// Compile-time checks that Client satisfies the composed interface.
var _ Chronicle = (*Client)(nil)
