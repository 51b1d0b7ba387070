package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/types"
)

// Strategy selects how a scope's facts are partitioned.
type Strategy string

const (
	// StrategyByActor buckets facts by the owning entity's actor.
	StrategyByActor Strategy = "by_actor"
	// StrategyByGap starts a new segment on a chronological gap.
	StrategyByGap Strategy = "by_gap"
	// StrategyByKind buckets into events, actions, and decisions.
	StrategyByKind Strategy = "by_kind"
	// StrategyAuto falls back to fixed-size chronological batches.
	StrategyAuto Strategy = "auto"
)

// UnassignedActor is the bucket for facts whose owner has no actor.
const UnassignedActor = "unassigned"

const (
	// DefaultGapThreshold is the by_gap segment boundary.
	DefaultGapThreshold = time.Hour
	// DefaultBatchSize is the auto strategy batch length.
	DefaultBatchSize = 5
)

// Segment is a named, chronologically ordered subset of a scope's facts.
// Group returns segments as an ordered slice rather than a map so that
// iteration order is deterministic; keys are unique within a result.
type Segment struct {
	Key   string                `json:"key"`
	Facts []*types.TemporalFact `json:"facts"`
}

// GroupParams tunes a grouping strategy. Zero values fall back to the
// defaults above.
type GroupParams struct {
	GapThreshold time.Duration
	BatchSize    int
}

// Segmenter partitions a scope's facts into logical groups.
type Segmenter struct {
	facts    factstore.FactStore
	resolver resolver.Resolver
	logger   *slog.Logger
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(facts factstore.FactStore, res resolver.Resolver, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{facts: facts, resolver: res, logger: logger}
}

// Group partitions the scope's facts under the given strategy. Facts are
// walked in chronological (start, id) order, so results are deterministic
// for a fixed timeline order.
func (s *Segmenter) Group(ctx context.Context, scopeID string, strategy Strategy, params *GroupParams) ([]Segment, error) {
	if params == nil {
		params = &GroupParams{}
	}

	facts, err := s.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	sortChronological(facts)

	switch strategy {
	case StrategyByActor:
		return s.groupByActor(ctx, facts), nil
	case StrategyByGap:
		threshold := params.GapThreshold
		if threshold <= 0 {
			threshold = DefaultGapThreshold
		}
		return groupByGap(facts, threshold), nil
	case StrategyByKind:
		return groupByKind(facts), nil
	case StrategyAuto:
		size := params.BatchSize
		if size <= 0 {
			size = DefaultBatchSize
		}
		return groupAuto(facts, size), nil
	default:
		return nil, fmt.Errorf("unknown segmentation strategy: %q", strategy)
	}
}

func (s *Segmenter) groupByActor(ctx context.Context, facts []*types.TemporalFact) []Segment {
	index := make(map[string]int)
	var segments []Segment

	for _, f := range facts {
		actor := UnassignedActor
		ent, err := s.resolver.Resolve(ctx, f.Owner)
		if err != nil {
			s.logger.Warn("owner did not resolve during segmentation, bucketing as unassigned",
				"scope_id", f.ScopeID, "owner", f.Owner.String(), "error", err)
		} else if ent.ActorID != "" {
			actor = ent.ActorID
		}

		i, ok := index[actor]
		if !ok {
			i = len(segments)
			index[actor] = i
			segments = append(segments, Segment{Key: actor})
		}
		segments[i].Facts = append(segments[i].Facts, f)
	}
	return segments
}

func groupByGap(facts []*types.TemporalFact, threshold time.Duration) []Segment {
	var segments []Segment
	for i, f := range facts {
		if i == 0 || f.Start.Sub(facts[i-1].Start) > threshold {
			segments = append(segments, Segment{
				Key: fmt.Sprintf("segment_%d", len(segments)+1),
			})
		}
		last := len(segments) - 1
		segments[last].Facts = append(segments[last].Facts, f)
	}
	return segments
}

func groupByKind(facts []*types.TemporalFact) []Segment {
	segments := []Segment{
		{Key: "events", Facts: []*types.TemporalFact{}},
		{Key: "actions", Facts: []*types.TemporalFact{}},
		{Key: "decisions", Facts: []*types.TemporalFact{}},
	}
	for _, f := range facts {
		switch f.Owner.Kind {
		case types.EntityKindEvent:
			segments[0].Facts = append(segments[0].Facts, f)
		case types.EntityKindAction:
			segments[1].Facts = append(segments[1].Facts, f)
		case types.EntityKindDecision:
			segments[2].Facts = append(segments[2].Facts, f)
		}
	}
	return segments
}

func groupAuto(facts []*types.TemporalFact, size int) []Segment {
	var segments []Segment
	for start := 0; start < len(facts); start += size {
		end := start + size
		if end > len(facts) {
			end = len(facts)
		}
		segments = append(segments, Segment{
			Key:   fmt.Sprintf("batch_%d", len(segments)+1),
			Facts: facts[start:end],
		})
	}
	return segments
}
