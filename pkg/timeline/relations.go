package timeline

import (
	"context"
	"log/slog"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/types"
)

// RelationGraph manages the directed typed relations between facts and
// keeps inverse edges consistent.
type RelationGraph struct {
	facts  factstore.FactStore
	logger *slog.Logger
}

// NewRelationGraph creates a RelationGraph.
func NewRelationGraph(facts factstore.FactStore, logger *slog.Logger) *RelationGraph {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationGraph{facts: facts, logger: logger}
}

// CreateRelation sets the relation (relType, toID) on the from fact. When
// relType has a defined inverse, the inverse edge is also written onto the
// to fact, overwriting whatever relation it held: last write wins, by
// contract, for both endpoints. One-directional annotation types (causedBy,
// enabledBy, preventedBy) write no inverse.
func (g *RelationGraph) CreateRelation(ctx context.Context, scopeID, fromID, toID string, relType types.RelationType) error {
	if !relType.Valid() {
		return &types.RelationTypeError{ScopeID: scopeID, FactID: fromID, Type: relType}
	}

	// Both endpoints must exist before anything is written.
	if _, err := g.facts.GetFact(ctx, scopeID, fromID); err != nil {
		return err
	}
	if _, err := g.facts.GetFact(ctx, scopeID, toID); err != nil {
		return err
	}

	forward := &types.Relation{Type: relType, TargetID: toID, Confidence: 1.0}
	if err := g.facts.SaveRelation(ctx, scopeID, fromID, forward); err != nil {
		return err
	}

	if inv, ok := relType.Inverse(); ok {
		inverse := &types.Relation{Type: inv, TargetID: fromID, Confidence: 1.0}
		if err := g.facts.SaveRelation(ctx, scopeID, toID, inverse); err != nil {
			return err
		}
	}

	g.logger.Debug("created temporal relation",
		"scope_id", scopeID, "from", fromID, "to", toID, "type", string(relType))
	return nil
}

// FindRelated returns the facts related to factID by relType, read from
// both sides of the stored edges: every fact whose outgoing relation is
// (relType, factID), plus the target of factID's own outgoing edge when
// that edge carries relType. With inverse maintenance the two views name
// the same neighbours, so results are deduplicated by id. Chronological
// order; an empty result is not an error.
func (g *RelationGraph) FindRelated(ctx context.Context, scopeID, factID string, relType types.RelationType) ([]*types.TemporalFact, error) {
	if !relType.Valid() {
		return nil, &types.RelationTypeError{ScopeID: scopeID, FactID: factID, Type: relType}
	}
	fact, err := g.facts.GetFact(ctx, scopeID, factID)
	if err != nil {
		return nil, err
	}

	facts, err := g.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	matched := make([]*types.TemporalFact, 0)
	seen := make(map[string]bool)
	for _, f := range facts {
		if f.Relation != nil && f.Relation.Type == relType && f.Relation.TargetID == factID {
			matched = append(matched, f)
			seen[f.ID] = true
		}
	}
	if fact.Relation != nil && fact.Relation.Type == relType && !seen[fact.Relation.TargetID] {
		for _, f := range facts {
			if f.ID == fact.Relation.TargetID {
				matched = append(matched, f)
				break
			}
		}
	}
	sortChronological(matched)
	return matched, nil
}
