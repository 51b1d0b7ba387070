package factstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/soundprediction/chronicle/pkg/types"
)

// BadgerStore is a FactStore on an embedded Badger key-value store. Facts
// are stored as JSON under fact/<scope>/<id>, with a secondary index
// owner/<scope>/<owner> pointing at the fact id. Every mutation runs in a
// single Badger transaction.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (creating if needed) a Badger database at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func factKey(scopeID, factID string) []byte {
	return []byte("fact/" + scopeID + "/" + factID)
}

func ownerKey(scopeID string, owner types.OwnerRef) []byte {
	return []byte("owner/" + scopeID + "/" + owner.String())
}

// Initialize implements FactStore. Badger needs no schema.
func (s *BadgerStore) Initialize(ctx context.Context) error {
	return nil
}

// SaveFact implements FactStore.
func (s *BadgerStore) SaveFact(ctx context.Context, fact *types.TemporalFact) error {
	if fact.ID == "" {
		return types.ErrEmptyFactID
	}
	if err := fact.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(fact)
	if err != nil {
		return fmt.Errorf("failed to encode fact %s: %w", fact.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(factKey(fact.ScopeID, fact.ID), raw); err != nil {
			return err
		}
		return txn.Set(ownerKey(fact.ScopeID, fact.Owner), []byte(fact.ID))
	})
}

func (s *BadgerStore) readFact(txn *badger.Txn, scopeID, factID string) (*types.TemporalFact, error) {
	item, err := txn.Get(factKey(scopeID, factID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	if err != nil {
		return nil, err
	}

	var fact types.TemporalFact
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &fact)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode fact %s: %w", factID, err)
	}
	return &fact, nil
}

// GetFact implements FactStore.
func (s *BadgerStore) GetFact(ctx context.Context, scopeID, factID string) (*types.TemporalFact, error) {
	var fact *types.TemporalFact
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		fact, err = s.readFact(txn, scopeID, factID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fact, nil
}

// GetFactByOwner implements FactStore.
func (s *BadgerStore) GetFactByOwner(ctx context.Context, scopeID string, owner types.OwnerRef) (*types.TemporalFact, error) {
	var fact *types.TemporalFact
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(scopeID, owner))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &types.NotFoundError{ScopeID: scopeID, Owner: owner}
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		fact, err = s.readFact(txn, scopeID, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return fact, nil
}

func (s *BadgerStore) listScope(txn *badger.Txn, scopeID string, keep func(*types.TemporalFact) bool) ([]*types.TemporalFact, error) {
	prefix := []byte("fact/" + scopeID + "/")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*types.TemporalFact
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var fact types.TemporalFact
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &fact)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decode fact under %s: %w", it.Item().Key(), err)
		}
		if keep == nil || keep(&fact) {
			f := fact
			out = append(out, &f)
		}
	}
	return out, nil
}

// ListFacts implements FactStore.
func (s *BadgerStore) ListFacts(ctx context.Context, scopeID string) ([]*types.TemporalFact, error) {
	var out []*types.TemporalFact
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = s.listScope(txn, scopeID, nil)
		return err
	})
	return out, err
}

// ListFactsInRange implements FactStore.
func (s *BadgerStore) ListFactsInRange(ctx context.Context, scopeID string, start, end time.Time) ([]*types.TemporalFact, error) {
	var out []*types.TemporalFact
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = s.listScope(txn, scopeID, func(f *types.TemporalFact) bool {
			return inRange(f, start, end)
		})
		return err
	})
	return out, err
}

// SaveRelation implements FactStore.
func (s *BadgerStore) SaveRelation(ctx context.Context, scopeID, factID string, rel *types.Relation) error {
	return s.db.Update(func(txn *badger.Txn) error {
		fact, err := s.readFact(txn, scopeID, factID)
		if err != nil {
			return err
		}
		if rel == nil {
			fact.Relation = nil
		} else {
			r := *rel
			fact.Relation = &r
		}
		fact.UpdatedAt = time.Now().UTC()

		raw, err := json.Marshal(fact)
		if err != nil {
			return err
		}
		return txn.Set(factKey(scopeID, factID), raw)
	})
}

// SaveTimelineOrder implements FactStore.
func (s *BadgerStore) SaveTimelineOrder(ctx context.Context, scopeID string, order map[string]int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for id, pos := range order {
			fact, err := s.readFact(txn, scopeID, id)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return err
			}
			fact.TimelineOrder = pos

			raw, err := json.Marshal(fact)
			if err != nil {
				return err
			}
			if err := txn.Set(factKey(scopeID, id), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteScope implements FactStore.
func (s *BadgerStore) DeleteScope(ctx context.Context, scopeID string) error {
	// Collect keys under a read transaction first; deleting while
	// iterating invalidates the iterator.
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{
			[]byte("fact/" + scopeID + "/"),
			[]byte("owner/" + scopeID + "/"),
		} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("failed to delete scope %s: %w", scopeID, err)
		}
	}
	return wb.Flush()
}

// Stats implements FactStore.
func (s *BadgerStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	scopes := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("fact/")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			// fact/<scope>/<id>
			rest := key[len("fact/"):]
			for i := 0; i < len(rest); i++ {
				if rest[i] == '/' {
					scopes[rest[:i]] = struct{}{}
					break
				}
			}
			stats.FactCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.ScopeCount = int64(len(scopes))
	return stats, nil
}

// Close implements FactStore.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
