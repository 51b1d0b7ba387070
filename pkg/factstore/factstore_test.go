package factstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/soundprediction/chronicle/pkg/types"
)

func openStores(t *testing.T) map[string]FactStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "facts.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	badgerStore, err := NewBadgerStore(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatalf("failed to open badger store: %v", err)
	}

	stores := map[string]FactStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
		"badger": badgerStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func testFact(scopeID, id string, owner types.OwnerRef, start time.Time, end *time.Time) *types.TemporalFact {
	region := types.RegionInstant
	if end != nil {
		region = types.RegionInterval
	}
	now := time.Now().UTC()
	return &types.TemporalFact{
		ID: id, ScopeID: scopeID, Owner: owner,
		Region: region, Start: start, End: end,
		Granularity: types.GranularityMinutes, Confidence: 1.0,
		TimelineOrder: -1, CreatedAt: now, UpdatedAt: now,
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return at
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			end := mustParse(t, "2024-03-01T10:00:00Z")
			owner := types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-1"}
			fact := testFact("case-1", "f-1", owner, mustParse(t, "2024-03-01T09:00:00Z"), &end)
			fact.Relation = &types.Relation{Type: types.RelationPrecedes, TargetID: "f-2", Confidence: 1.0}

			if err := store.SaveFact(ctx, fact); err != nil {
				t.Fatalf("SaveFact() error = %v", err)
			}

			got, err := store.GetFact(ctx, "case-1", "f-1")
			if err != nil {
				t.Fatalf("GetFact() error = %v", err)
			}
			if got.Owner != owner || got.Region != types.RegionInterval {
				t.Errorf("round trip mismatch: %+v", got)
			}
			if got.End == nil || !got.End.Equal(end) {
				t.Errorf("End = %v, want %v", got.End, end)
			}
			if got.Relation == nil || got.Relation.Type != types.RelationPrecedes || got.Relation.TargetID != "f-2" {
				t.Errorf("Relation = %+v", got.Relation)
			}

			byOwner, err := store.GetFactByOwner(ctx, "case-1", owner)
			if err != nil {
				t.Fatalf("GetFactByOwner() error = %v", err)
			}
			if byOwner.ID != "f-1" {
				t.Errorf("GetFactByOwner() id = %s, want f-1", byOwner.ID)
			}

			_, err = store.GetFact(ctx, "case-1", "missing")
			if !errors.Is(err, types.ErrNotFound) {
				t.Errorf("GetFact(missing) error = %v, want ErrNotFound", err)
			}
			_, err = store.GetFact(ctx, "other-scope", "f-1")
			if !errors.Is(err, types.ErrNotFound) {
				t.Errorf("cross-scope GetFact error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSaveFactReplacesByID(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			owner := types.OwnerRef{Kind: types.EntityKindAction, ID: "a-1"}
			fact := testFact("case-1", "f-1", owner, mustParse(t, "2024-03-01T09:00:00Z"), nil)
			if err := store.SaveFact(ctx, fact); err != nil {
				t.Fatal(err)
			}

			fact.Start = mustParse(t, "2024-03-01T09:30:00Z")
			fact.Granularity = types.GranularityHours
			if err := store.SaveFact(ctx, fact); err != nil {
				t.Fatal(err)
			}

			facts, err := store.ListFacts(ctx, "case-1")
			if err != nil {
				t.Fatal(err)
			}
			if len(facts) != 1 {
				t.Fatalf("expected 1 fact after replace, got %d", len(facts))
			}
			if !facts[0].Start.Equal(mustParse(t, "2024-03-01T09:30:00Z")) {
				t.Errorf("Start not replaced: %v", facts[0].Start)
			}
		})
	}
}

func TestListFactsInRange(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			end1 := mustParse(t, "2024-03-01T10:00:00Z")
			seed := []*types.TemporalFact{
				testFact("case-1", "f-instant-in", types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-1"},
					mustParse(t, "2024-03-01T09:30:00Z"), nil),
				testFact("case-1", "f-instant-out", types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-2"},
					mustParse(t, "2024-03-01T12:00:00Z"), nil),
				testFact("case-1", "f-interval", types.OwnerRef{Kind: types.EntityKindAction, ID: "a-1"},
					mustParse(t, "2024-03-01T08:00:00Z"), &end1),
				testFact("case-1", "f-open", types.OwnerRef{Kind: types.EntityKindAction, ID: "a-2"},
					mustParse(t, "2024-03-01T07:00:00Z"), nil),
			}
			seed[3].Region = types.RegionInterval // open-ended
			for _, f := range seed {
				if err := store.SaveFact(ctx, f); err != nil {
					t.Fatal(err)
				}
			}

			got, err := store.ListFactsInRange(ctx, "case-1",
				mustParse(t, "2024-03-01T09:00:00Z"), mustParse(t, "2024-03-01T11:00:00Z"))
			if err != nil {
				t.Fatal(err)
			}

			ids := make(map[string]bool)
			for _, f := range got {
				ids[f.ID] = true
			}
			for _, want := range []string{"f-instant-in", "f-interval", "f-open"} {
				if !ids[want] {
					t.Errorf("expected %s in range results, got %v", want, ids)
				}
			}
			if ids["f-instant-out"] {
				t.Error("instant outside the frame should not match")
			}
		})
	}
}

func TestSaveRelationAndOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			a := testFact("case-1", "f-a", types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-1"},
				mustParse(t, "2024-03-01T09:00:00Z"), nil)
			b := testFact("case-1", "f-b", types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-2"},
				mustParse(t, "2024-03-01T10:00:00Z"), nil)
			for _, f := range []*types.TemporalFact{a, b} {
				if err := store.SaveFact(ctx, f); err != nil {
					t.Fatal(err)
				}
			}

			rel := &types.Relation{Type: types.RelationPrecedes, TargetID: "f-b", Confidence: 0.8}
			if err := store.SaveRelation(ctx, "case-1", "f-a", rel); err != nil {
				t.Fatalf("SaveRelation() error = %v", err)
			}
			err := store.SaveRelation(ctx, "case-1", "missing", rel)
			if !errors.Is(err, types.ErrNotFound) {
				t.Errorf("SaveRelation(missing) error = %v, want ErrNotFound", err)
			}

			if err := store.SaveTimelineOrder(ctx, "case-1", map[string]int{"f-a": 0, "f-b": 1}); err != nil {
				t.Fatalf("SaveTimelineOrder() error = %v", err)
			}

			got, err := store.GetFact(ctx, "case-1", "f-a")
			if err != nil {
				t.Fatal(err)
			}
			if got.Relation == nil || got.Relation.Confidence != 0.8 {
				t.Errorf("relation not persisted: %+v", got.Relation)
			}
			if got.TimelineOrder != 0 {
				t.Errorf("TimelineOrder = %d, want 0", got.TimelineOrder)
			}
		})
	}
}

func TestDeleteScopeCascades(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			owner := types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-1"}
			if err := store.SaveFact(ctx, testFact("case-1", "f-1", owner, mustParse(t, "2024-03-01T09:00:00Z"), nil)); err != nil {
				t.Fatal(err)
			}
			if err := store.SaveFact(ctx, testFact("case-2", "f-2", owner, mustParse(t, "2024-03-01T09:00:00Z"), nil)); err != nil {
				t.Fatal(err)
			}

			if err := store.DeleteScope(ctx, "case-1"); err != nil {
				t.Fatalf("DeleteScope() error = %v", err)
			}

			if _, err := store.GetFact(ctx, "case-1", "f-1"); !errors.Is(err, types.ErrNotFound) {
				t.Errorf("fact survived scope deletion: %v", err)
			}
			if _, err := store.GetFactByOwner(ctx, "case-1", owner); !errors.Is(err, types.ErrNotFound) {
				t.Errorf("owner index survived scope deletion: %v", err)
			}
			if _, err := store.GetFact(ctx, "case-2", "f-2"); err != nil {
				t.Errorf("unrelated scope affected: %v", err)
			}

			// Idempotent.
			if err := store.DeleteScope(ctx, "case-1"); err != nil {
				t.Errorf("repeat DeleteScope() error = %v", err)
			}
		})
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, scope := range []string{"case-1", "case-1", "case-2"} {
				owner := types.OwnerRef{Kind: types.EntityKindEvent, ID: "e-" + string(rune('a'+i))}
				f := testFact(scope, "f-"+string(rune('a'+i)), owner, mustParse(t, "2024-03-01T09:00:00Z"), nil)
				if err := store.SaveFact(ctx, f); err != nil {
					t.Fatal(err)
				}
			}

			stats, err := store.Stats(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if stats.FactCount != 3 || stats.ScopeCount != 2 {
				t.Errorf("Stats = %+v, want 3 facts in 2 scopes", stats)
			}
		})
	}
}

func TestFactoryBackendSelection(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"nil defaults to memory", nil, false},
		{"memory", &Config{Type: StoreTypeMemory}, false},
		{"sqlite without path", &Config{Type: StoreTypeSQLite}, true},
		{"neo4j without uri", &Config{Type: StoreTypeNeo4j}, true},
		{"unknown backend", &Config{Type: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if store != nil {
				store.Close()
			}
		})
	}

	store, err := New(&Config{Type: StoreTypeSQLite, Path: filepath.Join(t.TempDir(), "f.db")})
	if err != nil {
		t.Fatalf("sqlite factory error = %v", err)
	}
	store.Close()
}
