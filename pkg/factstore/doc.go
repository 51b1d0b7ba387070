// Package factstore provides the persistent backing store for temporal
// facts.
//
// The FactStore interface is the engine's only persistence dependency: a
// transactional record store queryable by scope and timestamp range. Four
// backends are provided:
//
//   - memory: in-process store for tests and embedding
//   - sqlite: single-file store on modernc.org/sqlite (pure Go, no cgo)
//   - badger: embedded key-value store on dgraph-io/badger
//   - neo4j: graph database via the official Bolt driver
//
// Use New with a Config to select a backend, or construct one directly.
// All backends hand out deep copies; callers never share mutable state with
// the store.
package factstore
