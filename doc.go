// Package chronicle provides a temporal reasoning engine for Go.
//
// Chronicle stores typed temporal facts about events, actions, and
// decisions, links them with a closed vocabulary of temporal and causal
// relations, infers relations from timestamps, and renders deterministic
// narrative text for downstream analysis.
//
// # Basic Usage
//
// Create a client over a fact store and an entity resolver:
//
//	facts := factstore.NewMemoryStore()
//	entities := resolver.NewStatic()
//	client, err := chronicle.NewClient(facts, entities, nil, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// # Recording Facts
//
// Each fact anchors one owning entity to a time region within a scope.
// A scope isolates one case's timeline:
//
//	owner := types.OwnerRef{Kind: types.EntityKindEvent, ID: "e1"}
//	entities.Register(owner, &resolver.Entity{Description: "Risk discovered"})
//
//	id, err := client.UpsertFact(ctx, timeline.UpsertInput{
//		Owner:       owner,
//		ScopeID:     "case-17",
//		Region:      types.RegionInstant,
//		Start:       when,
//		Granularity: types.GranularityMinutes,
//	})
//
// Upserting the same owner again replaces the fact's temporal fields in
// place, keeping its id and any relation already on it.
//
// # Relations
//
// Facts link through a fixed vocabulary (precedes, follows,
// coincidesWith, overlaps, necessitates, isNecessitatedBy,
// hasConsequence, isConsequenceOf, causedBy, enabledBy, preventedBy).
// Asserting a relation maintains the inverse edge when the type has one:
//
//	err = client.CreateRelation(ctx, "case-17", e1, d1, types.RelationPrecedes)
//
// InferRelations fills gaps from timestamps alone, at reduced
// confidence, and RecomputeTimelineOrder assigns dense chronological
// positions.
//
// # Rendering
//
// RenderContext produces the scope as deterministic text with TIMELINE
// and TEMPORAL RELATIONSHIPS sections; Group partitions a scope by
// actor, gap, kind, or fixed batches.
//
//	text, err := client.RenderContext(ctx, "case-17", timeline.ContextOptions{})
//
// # Error Handling
//
// Failures carry typed errors that unwrap to sentinels in pkg/types:
//
//   - types.ErrNotFound: a fact, owner, or relation endpoint is missing
//   - types.ErrInvalidInterval: an interval or query window ends before it starts
//   - types.ErrInvalidRegion: an instant carries an end timestamp
//   - types.ErrInvalidRelationType: a relation type outside the vocabulary
//
// # Architecture
//
//   - pkg/types: core type definitions and the error taxonomy
//   - pkg/factstore: persistence backends (memory, sqlite, badger, neo4j)
//   - pkg/resolver: entity resolution boundary
//   - pkg/timeline: the engine (store, relations, inference, segmentation, narration)
//   - pkg/server: HTTP API over the client
//
// This design allows additional storage backends and resolvers without
// touching the engine.
package chronicle
