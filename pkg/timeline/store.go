package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/types"
)

// Store provides typed storage and querying of temporal facts on top of
// the persistent fact store.
type Store struct {
	facts    factstore.FactStore
	resolver resolver.Resolver
	logger   *slog.Logger
}

// NewStore creates a Store. Logger may be nil, in which case slog.Default
// is used.
func NewStore(facts factstore.FactStore, res resolver.Resolver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{facts: facts, resolver: res, logger: logger}
}

// UpsertInput carries the temporal fields of a fact upsert.
type UpsertInput struct {
	Owner       types.OwnerRef
	ScopeID     string
	Region      types.RegionType
	Start       time.Time
	End         *time.Time
	Granularity types.Granularity
	// Confidence defaults to 1.0 when nil; zero is a legitimate value.
	Confidence *float64
}

// UpsertFact creates or replaces the temporal fact for (owner, scope).
// The owner must resolve; re-enhancing an owner replaces the prior fact's
// temporal fields in place, preserving the fact id and any relation already
// on it. Returns the fact id.
func (s *Store) UpsertFact(ctx context.Context, in UpsertInput) (string, error) {
	confidence := 1.0
	if in.Confidence != nil {
		confidence = *in.Confidence
	}

	if _, err := s.resolver.Resolve(ctx, in.Owner); err != nil {
		return "", fmt.Errorf("upsert in scope %s: %w", in.ScopeID, err)
	}

	now := time.Now().UTC()
	fact := &types.TemporalFact{
		Owner:         in.Owner,
		ScopeID:       in.ScopeID,
		Region:        in.Region,
		Start:         in.Start,
		End:           in.End,
		Granularity:   in.Granularity,
		Confidence:    confidence,
		TimelineOrder: -1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	existing, err := s.facts.GetFactByOwner(ctx, in.ScopeID, in.Owner)
	switch {
	case err == nil:
		// Replace temporal fields in place.
		fact.ID = existing.ID
		fact.Relation = existing.Relation
		fact.TimelineOrder = existing.TimelineOrder
		fact.CreatedAt = existing.CreatedAt
	case isNotFound(err):
		fact.ID = uuid.New().String()
	default:
		return "", err
	}

	if err := fact.Validate(); err != nil {
		return "", err
	}
	if err := s.facts.SaveFact(ctx, fact); err != nil {
		return "", err
	}

	s.logger.Debug("upserted temporal fact",
		"scope_id", in.ScopeID, "fact_id", fact.ID, "owner", in.Owner.String())
	return fact.ID, nil
}

// FindInTimeframe returns the scope's facts matching [start, end], ordered
// ascending by start. Interval facts match when they begin before the
// frame ends and end after it starts or are open-ended; instant facts must
// fall inside the frame. Kind filters by owning entity kind when non-empty.
func (s *Store) FindInTimeframe(ctx context.Context, scopeID string, start, end time.Time, kind types.EntityKind) ([]*types.TemporalFact, error) {
	if end.Before(start) {
		return nil, &types.IntervalError{ScopeID: scopeID, Start: start, End: end}
	}

	facts, err := s.facts.ListFactsInRange(ctx, scopeID, start, end)
	if err != nil {
		return nil, err
	}
	facts = filterKind(facts, kind)
	sortChronological(facts)
	return facts, nil
}

// FindSequence returns all facts in the scope with a known start, ordered
// ascending, optionally filtered by kind and truncated to limit.
func (s *Store) FindSequence(ctx context.Context, scopeID string, kind types.EntityKind, limit int) ([]*types.TemporalFact, error) {
	facts, err := s.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	kept := facts[:0]
	for _, f := range facts {
		if !f.Start.IsZero() {
			kept = append(kept, f)
		}
	}
	kept = filterKind(kept, kind)
	sortChronological(kept)

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, nil
}

func filterKind(facts []*types.TemporalFact, kind types.EntityKind) []*types.TemporalFact {
	if kind == "" {
		return facts
	}
	kept := facts[:0]
	for _, f := range facts {
		if f.Owner.Kind == kind {
			kept = append(kept, f)
		}
	}
	return kept
}

// sortChronological orders facts by (start, id). The id tiebreak keeps the
// order total, which recompute and segmentation depend on.
func sortChronological(facts []*types.TemporalFact) {
	sort.Slice(facts, func(i, j int) bool {
		if !facts[i].Start.Equal(facts[j].Start) {
			return facts[i].Start.Before(facts[j].Start)
		}
		return facts[i].ID < facts[j].ID
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
