package factstore

import (
	"fmt"
)

// StoreType selects a FactStore backend.
type StoreType string

const (
	// StoreTypeMemory keeps facts in process memory.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeSQLite uses a single-file SQLite database.
	StoreTypeSQLite StoreType = "sqlite"
	// StoreTypeBadger uses an embedded Badger key-value store.
	StoreTypeBadger StoreType = "badger"
	// StoreTypeNeo4j uses a Neo4j server over Bolt.
	StoreTypeNeo4j StoreType = "neo4j"
)

// Config configures the factstore backend.
type Config struct {
	// Type is the backend type. Empty defaults to memory.
	Type StoreType `json:"type,omitempty"`

	// Path is the database file (sqlite) or directory (badger).
	Path string `json:"path,omitempty"`

	// URI is the Bolt connection URI (neo4j), e.g. "bolt://localhost:7687".
	URI      string `json:"uri,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// New creates a FactStore for the configured backend.
func New(config *Config) (FactStore, error) {
	if config == nil {
		config = &Config{}
	}

	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryStore(), nil

	case StoreTypeSQLite:
		if config.Path == "" {
			return nil, fmt.Errorf("sqlite factstore requires a path")
		}
		return NewSQLiteStore(config.Path)

	case StoreTypeBadger:
		if config.Path == "" {
			return nil, fmt.Errorf("badger factstore requires a path")
		}
		return NewBadgerStore(config.Path)

	case StoreTypeNeo4j:
		if config.URI == "" {
			return nil, fmt.Errorf("neo4j factstore requires a uri")
		}
		return NewNeo4jStore(config.URI, config.Username, config.Password, config.Database)

	default:
		return nil, fmt.Errorf("unsupported factstore type: %s (supported: memory, sqlite, badger, neo4j)", config.Type)
	}
}
