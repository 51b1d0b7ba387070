// Package types defines the core data model for the temporal reasoning
// engine: temporal facts (instants and intervals), the closed relation
// vocabulary with its inverse table, and the shared error taxonomy.
//
// A TemporalFact is one temporal claim about an owning entity (an event,
// action, or decision). Facts are partitioned by scope and hold at most one
// outgoing relation; inverse relations are maintained by the relation graph,
// not by this package.
package types
