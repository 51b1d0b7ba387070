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

func TestGroupByGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "a", ts(9, 0), nil)
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e2", "b", ts(9, 10), nil)
	c := env.addFact(t, "case-1", types.EntityKindEvent, "e3", "c", ts(11, 15), nil)

	segments, err := env.segmenter.Group(ctx, "case-1", StrategyByGap, &GroupParams{GapThreshold: time.Hour})
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "segment_1", segments[0].Key)
	require.Len(t, segments[0].Facts, 2)
	assert.Equal(t, a, segments[0].Facts[0].ID)
	assert.Equal(t, b, segments[0].Facts[1].ID)

	assert.Equal(t, "segment_2", segments[1].Key)
	require.Len(t, segments[1].Facts, 1)
	assert.Equal(t, c, segments[1].Facts[0].ID)
}

func TestGroupByActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := types.OwnerRef{Kind: types.EntityKindAction, ID: "a1"}
	env.resolver.Register(alice, &resolver.Entity{Description: "review", ActorID: "alice"})
	id1, err := env.store.UpsertFact(ctx, UpsertInput{
		Owner: alice, ScopeID: "case-1", Region: types.RegionInstant,
		Start: ts(9, 0), Granularity: types.GranularityMinutes,
	})
	require.NoError(t, err)

	bob := types.OwnerRef{Kind: types.EntityKindAction, ID: "a2"}
	env.resolver.Register(bob, &resolver.Entity{Description: "approve", ActorID: "bob"})
	id2, err := env.store.UpsertFact(ctx, UpsertInput{
		Owner: bob, ScopeID: "case-1", Region: types.RegionInstant,
		Start: ts(9, 5), Granularity: types.GranularityMinutes,
	})
	require.NoError(t, err)

	// No actor on the entity lands in the unassigned bucket.
	env.addFact(t, "case-1", types.EntityKindEvent, "e1", "alarm", ts(9, 10), nil)

	segments, err := env.segmenter.Group(ctx, "case-1", StrategyByActor, nil)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "alice", segments[0].Key)
	assert.Equal(t, id1, segments[0].Facts[0].ID)
	assert.Equal(t, "bob", segments[1].Key)
	assert.Equal(t, id2, segments[1].Facts[0].ID)
	assert.Equal(t, UnassignedActor, segments[2].Key)
	require.Len(t, segments[2].Facts, 1)
}

func TestGroupByKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addFact(t, "case-1", types.EntityKindDecision, "d1", "d", ts(9, 0), nil)
	env.addFact(t, "case-1", types.EntityKindEvent, "e1", "e", ts(9, 5), nil)

	segments, err := env.segmenter.Group(ctx, "case-1", StrategyByKind, nil)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "events", segments[0].Key)
	assert.Len(t, segments[0].Facts, 1)
	assert.Equal(t, "actions", segments[1].Key)
	assert.Empty(t, segments[1].Facts)
	assert.Equal(t, "decisions", segments[2].Key)
	assert.Len(t, segments[2].Facts, 1)
}

func TestGroupAuto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		env.addFact(t, "case-1", types.EntityKindEvent, string(rune('a'+i)), "e", ts(9, i), nil)
	}

	segments, err := env.segmenter.Group(ctx, "case-1", StrategyAuto, nil)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "batch_1", segments[0].Key)
	assert.Len(t, segments[0].Facts, DefaultBatchSize)
	assert.Equal(t, "batch_2", segments[1].Key)
	assert.Len(t, segments[1].Facts, 2)
}

func TestGroupUnknownStrategy(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.segmenter.Group(context.Background(), "case-1", "by_vibes", nil)
	assert.Error(t, err)
}
