package timeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/types"
)

func TestRenderContextEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	e1 := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "Risk discovered", ts(9, 0), nil)

	decision := types.OwnerRef{Kind: types.EntityKindDecision, ID: "d1"}
	env.resolver.Register(decision, &resolver.Entity{
		Description: "Suspend work",
		Options: []resolver.Option{
			{Label: "Suspend", Description: "halt all site activity", Selected: true},
			{Label: "Continue", Description: "proceed with monitoring"},
		},
	})
	d1, err := env.store.UpsertFact(ctx, UpsertInput{
		Owner: decision, ScopeID: "case-1", Region: types.RegionInstant,
		Start: ts(9, 10), Granularity: types.GranularityMinutes,
	})
	require.NoError(t, err)

	require.NoError(t, env.graph.CreateRelation(ctx, "case-1", e1, d1, types.RelationPrecedes))

	got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{})
	require.NoError(t, err)

	want := "TIMELINE:\n\n" +
		"EVENT [2024-03-14 09:00]: Risk discovered\n\n" +
		"DECISION [2024-03-14 09:10]: Suspend work\n" +
		"  Options:\n" +
		"    - Suspend (SELECTED): halt all site activity\n" +
		"    - Continue: proceed with monitoring\n\n" +
		"TEMPORAL RELATIONSHIPS:\n\n" +
		"- Event 'Risk discovered' happens before Decision 'Suspend work'\n"
	assert.True(t, strings.HasPrefix(got, want), "got:\n%s", got)
}

func TestRenderContextConfidenceSuffix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "alarm", ts(9, 0), nil)
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e2", "response", ts(9, 10), nil)

	rel := &types.Relation{Type: types.RelationPrecedes, TargetID: b, Confidence: 0.82}
	require.NoError(t, env.facts.SaveRelation(ctx, "case-1", a, rel))

	got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{IncludeConfidence: true})
	require.NoError(t, err)
	assert.Contains(t, got, "(confidence: 0.82)")

	t.Run("suffix omitted by default", func(t *testing.T) {
		got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{})
		require.NoError(t, err)
		assert.NotContains(t, got, "confidence")
	})

	t.Run("suffix omitted on asserted relations", func(t *testing.T) {
		asserted := &types.Relation{Type: types.RelationPrecedes, TargetID: b, Confidence: 1.0}
		require.NoError(t, env.facts.SaveRelation(ctx, "case-1", a, asserted))

		got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{IncludeConfidence: true})
		require.NoError(t, err)
		assert.NotContains(t, got, "confidence")
	})
}

func TestRenderContextCausalSection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindAction, "a1", "evacuation", ts(9, 10), nil)
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "gas leak", ts(9, 0), nil)
	require.NoError(t, env.graph.CreateRelation(ctx, "case-1", a, b, types.RelationCausedBy))

	got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{IncludeCausal: true})
	require.NoError(t, err)

	idx := strings.Index(got, "CAUSAL RELATIONSHIPS:\n\n")
	require.GreaterOrEqual(t, idx, 0)
	causal := got[idx:]
	assert.Contains(t, causal, "- Action 'evacuation' was caused by Event 'gas leak'")

	t.Run("section absent by default", func(t *testing.T) {
		got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{})
		require.NoError(t, err)
		assert.NotContains(t, got, "CAUSAL RELATIONSHIPS:")
	})
}

func TestRenderContextSkipsUnresolvableEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "kept", ts(9, 0), nil)
	b := env.addFact(t, "case-1", types.EntityKindEvent, "e2", "dropped", ts(9, 10), nil)
	require.NoError(t, env.graph.CreateRelation(ctx, "case-1", a, b, types.RelationPrecedes))

	// The owner disappears after the fact was stored; rendering must skip
	// its lines and keep going.
	env.resolver.Unregister(types.OwnerRef{Kind: types.EntityKindEvent, ID: "e2"})

	got, err := env.narrator.RenderContext(ctx, "case-1", ContextOptions{})
	require.NoError(t, err)
	assert.Contains(t, got, "EVENT [2024-03-14 09:00]: kept")
	assert.NotContains(t, got, "dropped")
	assert.NotContains(t, got, "happens before")
}

func TestBuildTimeline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	e1 := env.addFact(t, "case-1", types.EntityKindEvent, "e1", "alarm", ts(9, 0), nil)
	env.addFact(t, "case-1", types.EntityKindAction, "a1", "shutdown", ts(9, 5), tsp(9, 30))
	d1 := env.addFact(t, "case-1", types.EntityKindDecision, "d1", "halt", ts(9, 10), nil)
	require.NoError(t, env.graph.CreateRelation(ctx, "case-1", e1, d1, types.RelationPrecedes))

	tl, err := env.narrator.BuildTimeline(ctx, "case-1")
	require.NoError(t, err)

	require.Len(t, tl.Events, 1)
	require.Len(t, tl.Actions, 1)
	require.Len(t, tl.Decisions, 1)

	assert.Equal(t, "alarm", tl.Events[0].Description)
	assert.Equal(t, "precedes "+d1, tl.Events[0].RelationSummary)
	assert.Equal(t, ts(9, 5), tl.Actions[0].Start)
	require.NotNil(t, tl.Actions[0].End)
	assert.Equal(t, ts(9, 30), *tl.Actions[0].End)
	assert.Equal(t, "halt", tl.Decisions[0].Description)
}

func TestRenderGroupedContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addFact(t, "case-1", types.EntityKindEvent, "e1", "first", ts(9, 0), nil)
	env.addFact(t, "case-1", types.EntityKindEvent, "e2", "second", ts(11, 15), nil)

	got, err := env.narrator.RenderGroupedContext(ctx, "case-1", StrategyByGap, nil)
	require.NoError(t, err)

	assert.Contains(t, got, "SEGMENT_1:\n\nEVENT [2024-03-14 09:00]: first\n")
	assert.Contains(t, got, "SEGMENT_2:\n\nEVENT [2024-03-14 11:15]: second\n")
}
