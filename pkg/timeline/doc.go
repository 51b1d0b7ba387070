// Package timeline implements the temporal reasoning engine: typed storage
// and querying of temporal facts, the relation graph with automatic inverse
// maintenance, relation inference from chronology, segmentation of a
// scope's facts into logical groups, and deterministic narrative rendering.
//
// The engine performs no I/O of its own beyond the injected FactStore and
// Resolver, and runs entirely within the caller's transaction: there are no
// background tasks. Callers that mutate the same scope concurrently must
// serialize InferRelations and RecomputeTimelineOrder; the chronicle client
// does this with a per-scope lock.
package timeline
