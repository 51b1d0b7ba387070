package timeline

import (
	"context"
	"log/slog"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/types"
)

// InferredConfidence is the fixed confidence assigned to relations derived
// from chronology, distinguishing them from asserted relations (1.0).
const InferredConfidence = 0.8

// InferenceEngine derives missing relations from chronological overlap and
// maintains the dense timeline order.
type InferenceEngine struct {
	facts  factstore.FactStore
	logger *slog.Logger
}

// NewInferenceEngine creates an InferenceEngine.
func NewInferenceEngine(facts factstore.FactStore, logger *slog.Logger) *InferenceEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &InferenceEngine{facts: facts, logger: logger}
}

// InferRelations walks chronologically adjacent pairs (A, B) in the scope
// and assigns a relation to each A that has none, by this policy, in
// order: precedes when A ends at or before B starts; coincidesWith when
// an instant B falls in interval A's granularity bucket; overlaps for any
// other intersection. Inferred relations carry InferredConfidence and
// set only the forward edge; inverse maintenance applies to asserted
// relations so inference never clobbers a later fact's own edge.
// Returns the number of relations written.
func (e *InferenceEngine) InferRelations(ctx context.Context, scopeID string) (int, error) {
	facts, err := e.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return 0, err
	}
	sortChronological(facts)

	inferred := 0
	for i := 0; i+1 < len(facts); i++ {
		a, b := facts[i], facts[i+1]
		if a.Relation != nil {
			continue
		}

		relType, ok := classifyAdjacent(a, b)
		if !ok {
			continue
		}

		rel := &types.Relation{Type: relType, TargetID: b.ID, Confidence: InferredConfidence}
		if err := e.facts.SaveRelation(ctx, scopeID, a.ID, rel); err != nil {
			return inferred, err
		}
		inferred++
	}

	if inferred > 0 {
		e.logger.Info("inferred temporal relations", "scope_id", scopeID, "count", inferred)
	}
	return inferred, nil
}

// classifyAdjacent decides the relation from a to its chronological
// successor b (a.Start <= b.Start by construction).
func classifyAdjacent(a, b *types.TemporalFact) (types.RelationType, bool) {
	// A wholly before B, touching allowed.
	if a.IsInstant() {
		if !a.Start.After(b.Start) {
			return types.RelationPrecedes, true
		}
		return "", false
	}
	if a.End != nil && !a.End.After(b.Start) {
		return types.RelationPrecedes, true
	}

	// B starts inside A's extent. An instant B within A's granularity
	// bucket coincides; any other intersection overlaps.
	if b.IsInstant() && a.Granularity.SameBucket(a.Start, b.Start) {
		return types.RelationCoincidesWith, true
	}
	return types.RelationOverlaps, true
}

// RecomputeTimelineOrder assigns a dense zero-based index to every fact in
// the scope in ascending (start, id) order and persists it. Idempotent:
// with no intervening writes, repeated calls produce identical
// assignments. Returns the assignment.
func (e *InferenceEngine) RecomputeTimelineOrder(ctx context.Context, scopeID string) (map[string]int, error) {
	facts, err := e.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	sortChronological(facts)

	order := make(map[string]int, len(facts))
	for i, f := range facts {
		order[f.ID] = i
	}

	if err := e.facts.SaveTimelineOrder(ctx, scopeID, order); err != nil {
		return nil, err
	}
	return order, nil
}
