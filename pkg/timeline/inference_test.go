package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/types"
)

func TestInferRelationsTouchingIntervals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindAction, "a1", "first phase", ts(10, 0), tsp(10, 30))
	b := env.addFact(t, "case-1", types.EntityKindAction, "a2", "second phase", ts(10, 30), tsp(11, 0))

	n, err := env.engine.InferRelations(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fa, err := env.facts.GetFact(ctx, "case-1", a)
	require.NoError(t, err)
	require.NotNil(t, fa.Relation)
	assert.Equal(t, types.RelationPrecedes, fa.Relation.Type)
	assert.Equal(t, b, fa.Relation.TargetID)
	assert.Equal(t, InferredConfidence, fa.Relation.Confidence)
	assert.True(t, fa.Relation.Inferred())

	// Forward edge only: the successor keeps its own slot free.
	fb, err := env.facts.GetFact(ctx, "case-1", b)
	require.NoError(t, err)
	assert.Nil(t, fb.Relation)
}

func TestInferRelationsNestedIntervals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindAction, "a1", "outer", ts(10, 0), tsp(11, 0))
	env.addFact(t, "case-1", types.EntityKindAction, "a2", "inner", ts(10, 30), tsp(10, 45))

	_, err := env.engine.InferRelations(ctx, "case-1")
	require.NoError(t, err)

	fa, err := env.facts.GetFact(ctx, "case-1", a)
	require.NoError(t, err)
	require.NotNil(t, fa.Relation)
	assert.Equal(t, types.RelationOverlaps, fa.Relation.Type)
}

func TestInferRelationsOpenInterval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := types.OwnerRef{Kind: types.EntityKindAction, ID: "a1"}
	env.resolver.Register(owner, &resolver.Entity{Description: "ongoing"})
	a, err := env.store.UpsertFact(ctx, UpsertInput{
		Owner:       owner,
		ScopeID:     "case-1",
		Region:      types.RegionInterval,
		Start:       ts(10, 0),
		Granularity: types.GranularityMinutes,
	})
	require.NoError(t, err)
	env.addFact(t, "case-1", types.EntityKindEvent, "e1", "later", ts(10, 30), nil)

	_, err = env.engine.InferRelations(ctx, "case-1")
	require.NoError(t, err)

	fa, err := env.facts.GetFact(ctx, "case-1", a)
	require.NoError(t, err)
	require.NotNil(t, fa.Relation)
	assert.Equal(t, types.RelationOverlaps, fa.Relation.Type)
}

func TestInferRelationsCoincidingBucket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Instant lands inside the interval's minute bucket.
	a := env.addFact(t, "case-1", types.EntityKindAction, "a1", "briefing", ts(10, 0), tsp(10, 5))
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "alarm", ts(10, 0).Add(30*time.Second), nil)

	n, err := env.engine.InferRelations(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fa, err := env.facts.GetFact(ctx, "case-1", a)
	require.NoError(t, err)
	require.NotNil(t, fa.Relation)
	assert.Equal(t, types.RelationCoincidesWith, fa.Relation.Type)
	assert.Equal(t, b, fa.Relation.TargetID)
}

func TestInferRelationsSkipsExistingEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "a", ts(9, 0), nil)
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e2", "b", ts(9, 10), nil)

	require.NoError(t, env.graph.CreateRelation(ctx, "case-1", a, b, types.RelationNecessitates))

	n, err := env.engine.InferRelations(ctx, "case-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	fa, err := env.facts.GetFact(ctx, "case-1", a)
	require.NoError(t, err)
	assert.Equal(t, types.RelationNecessitates, fa.Relation.Type)
}

func TestRecomputeTimelineOrderIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addFact(t, "case-1", types.EntityKindEvent, "e2", "second", ts(9, 10), nil)
	env.addFact(t, "case-1", types.EntityKindEvent, "e1", "first", ts(9, 0), nil)
	env.addFact(t, "case-1", types.EntityKindDecision, "d1", "third", ts(11, 15), nil)

	first, err := env.engine.RecomputeTimelineOrder(ctx, "case-1")
	require.NoError(t, err)
	second, err := env.engine.RecomputeTimelineOrder(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Dense, zero-based, chronological.
	assert.Len(t, first, 3)
	seen := make(map[int]bool)
	for _, idx := range first {
		seen[idx] = true
	}
	for i := 0; i < 3; i++ {
		assert.True(t, seen[i])
	}

	facts, err := env.facts.ListFacts(ctx, "case-1")
	require.NoError(t, err)
	sortChronological(facts)
	for i, f := range facts {
		assert.Equal(t, i, first[f.ID])
		assert.Equal(t, i, f.TimelineOrder)
	}
}
