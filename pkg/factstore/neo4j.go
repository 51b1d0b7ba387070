package factstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/chronicle/pkg/types"
)

// Neo4jStore is a FactStore on a Neo4j server. Facts are :TemporalFact
// nodes merged on id; the single outgoing relation is kept inline as node
// properties, mirroring the one-relation-per-fact model instead of native
// graph edges.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to a Neo4j server over Bolt.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) run(ctx context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
}

// Initialize implements FactStore: uniqueness constraints on the fact id
// and the (scope, owner) natural key.
func (s *Neo4jStore) Initialize(ctx context.Context) error {
	constraints := []string{
		`CREATE CONSTRAINT temporal_fact_id IF NOT EXISTS
		 FOR (f:TemporalFact) REQUIRE f.id IS UNIQUE`,
		`CREATE CONSTRAINT temporal_fact_owner IF NOT EXISTS
		 FOR (f:TemporalFact) REQUIRE (f.scope_id, f.entity_kind, f.entity_id) IS UNIQUE`,
	}
	for _, c := range constraints {
		if _, err := s.run(ctx, c, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

func factParams(fact *types.TemporalFact) map[string]any {
	props := map[string]any{
		"id":             fact.ID,
		"scope_id":       fact.ScopeID,
		"entity_kind":    string(fact.Owner.Kind),
		"entity_id":      fact.Owner.ID,
		"region_type":    string(fact.Region),
		"start_ns":       fact.Start.UTC().UnixNano(),
		"granularity":    string(fact.Granularity),
		"confidence":     fact.Confidence,
		"timeline_order": int64(fact.TimelineOrder),
		"created_ns":     fact.CreatedAt.UTC().UnixNano(),
		"updated_ns":     fact.UpdatedAt.UTC().UnixNano(),
	}
	if fact.End != nil {
		props["end_ns"] = fact.End.UTC().UnixNano()
	} else {
		props["end_ns"] = nil
	}
	if fact.Relation != nil {
		props["relation_type"] = string(fact.Relation.Type)
		props["relation_target"] = fact.Relation.TargetID
		props["relation_confidence"] = fact.Relation.Confidence
	} else {
		props["relation_type"] = nil
		props["relation_target"] = nil
		props["relation_confidence"] = nil
	}
	return map[string]any{"props": props, "id": fact.ID}
}

// SaveFact implements FactStore.
func (s *Neo4jStore) SaveFact(ctx context.Context, fact *types.TemporalFact) error {
	if fact.ID == "" {
		return types.ErrEmptyFactID
	}
	if err := fact.Validate(); err != nil {
		return err
	}

	_, err := s.run(ctx, `
		MERGE (f:TemporalFact {id: $id})
		SET f = $props`, factParams(fact))
	if err != nil {
		return fmt.Errorf("failed to save fact %s in scope %s: %w", fact.ID, fact.ScopeID, err)
	}
	return nil
}

func factFromRecord(rec *neo4j.Record) (*types.TemporalFact, error) {
	raw, ok := rec.Get("f")
	if !ok {
		return nil, fmt.Errorf("record missing fact node")
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected record value %T", raw)
	}
	props := node.Props

	str := func(key string) string {
		v, _ := props[key].(string)
		return v
	}
	num := func(key string) (int64, bool) {
		v, ok := props[key].(int64)
		return v, ok
	}

	f := &types.TemporalFact{
		ID:          str("id"),
		ScopeID:     str("scope_id"),
		Owner:       types.OwnerRef{Kind: types.EntityKind(str("entity_kind")), ID: str("entity_id")},
		Region:      types.RegionType(str("region_type")),
		Granularity: types.Granularity(str("granularity")),
	}
	if v, ok := props["confidence"].(float64); ok {
		f.Confidence = v
	}
	if ns, ok := num("start_ns"); ok {
		f.Start = time.Unix(0, ns).UTC()
	}
	if ns, ok := num("end_ns"); ok {
		t := time.Unix(0, ns).UTC()
		f.End = &t
	}
	if ns, ok := num("created_ns"); ok {
		f.CreatedAt = time.Unix(0, ns).UTC()
	}
	if ns, ok := num("updated_ns"); ok {
		f.UpdatedAt = time.Unix(0, ns).UTC()
	}
	if pos, ok := num("timeline_order"); ok {
		f.TimelineOrder = int(pos)
	}
	if rt := str("relation_type"); rt != "" {
		rel := &types.Relation{Type: types.RelationType(rt), TargetID: str("relation_target")}
		if v, ok := props["relation_confidence"].(float64); ok {
			rel.Confidence = v
		}
		f.Relation = rel
	}
	return f, nil
}

func (s *Neo4jStore) queryFacts(ctx context.Context, cypher string, params map[string]any) ([]*types.TemporalFact, error) {
	result, err := s.run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	facts := make([]*types.TemporalFact, 0, len(result.Records))
	for _, rec := range result.Records {
		f, err := factFromRecord(rec)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// GetFact implements FactStore.
func (s *Neo4jStore) GetFact(ctx context.Context, scopeID, factID string) (*types.TemporalFact, error) {
	facts, err := s.queryFacts(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id, id: $id})
		RETURN f`, map[string]any{"scope_id": scopeID, "id": factID})
	if err != nil {
		return nil, fmt.Errorf("failed to read fact %s: %w", factID, err)
	}
	if len(facts) == 0 {
		return nil, &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	return facts[0], nil
}

// GetFactByOwner implements FactStore.
func (s *Neo4jStore) GetFactByOwner(ctx context.Context, scopeID string, owner types.OwnerRef) (*types.TemporalFact, error) {
	facts, err := s.queryFacts(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id, entity_kind: $kind, entity_id: $entity_id})
		RETURN f`, map[string]any{
		"scope_id": scopeID, "kind": string(owner.Kind), "entity_id": owner.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read fact for owner %s: %w", owner, err)
	}
	if len(facts) == 0 {
		return nil, &types.NotFoundError{ScopeID: scopeID, Owner: owner}
	}
	return facts[0], nil
}

// ListFacts implements FactStore.
func (s *Neo4jStore) ListFacts(ctx context.Context, scopeID string) ([]*types.TemporalFact, error) {
	return s.queryFacts(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id})
		RETURN f`, map[string]any{"scope_id": scopeID})
}

// ListFactsInRange implements FactStore.
func (s *Neo4jStore) ListFactsInRange(ctx context.Context, scopeID string, start, end time.Time) ([]*types.TemporalFact, error) {
	return s.queryFacts(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id})
		WHERE (f.region_type = 'instant' AND f.start_ns >= $start_ns AND f.start_ns <= $end_ns)
		   OR (f.region_type = 'interval' AND f.start_ns <= $end_ns
		       AND (f.end_ns IS NULL OR f.end_ns >= $start_ns))
		RETURN f`, map[string]any{
		"scope_id": scopeID,
		"start_ns": start.UTC().UnixNano(),
		"end_ns":   end.UTC().UnixNano(),
	})
}

// SaveRelation implements FactStore.
func (s *Neo4jStore) SaveRelation(ctx context.Context, scopeID, factID string, rel *types.Relation) error {
	params := map[string]any{
		"scope_id": scopeID, "id": factID,
		"rel_type": nil, "rel_target": nil, "rel_confidence": nil,
		"updated_ns": time.Now().UTC().UnixNano(),
	}
	if rel != nil {
		params["rel_type"] = string(rel.Type)
		params["rel_target"] = rel.TargetID
		params["rel_confidence"] = rel.Confidence
	}

	result, err := s.run(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id, id: $id})
		SET f.relation_type = $rel_type,
		    f.relation_target = $rel_target,
		    f.relation_confidence = $rel_confidence,
		    f.updated_ns = $updated_ns
		RETURN f.id`, params)
	if err != nil {
		return fmt.Errorf("failed to save relation on fact %s: %w", factID, err)
	}
	if len(result.Records) == 0 {
		return &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	return nil
}

// SaveTimelineOrder implements FactStore.
func (s *Neo4jStore) SaveTimelineOrder(ctx context.Context, scopeID string, order map[string]int) error {
	rows := make([]map[string]any, 0, len(order))
	for id, pos := range order {
		rows = append(rows, map[string]any{"id": id, "pos": int64(pos)})
	}

	_, err := s.run(ctx, `
		UNWIND $rows AS row
		MATCH (f:TemporalFact {scope_id: $scope_id, id: row.id})
		SET f.timeline_order = row.pos`, map[string]any{
		"scope_id": scopeID, "rows": rows,
	})
	if err != nil {
		return fmt.Errorf("failed to save timeline order in scope %s: %w", scopeID, err)
	}
	return nil
}

// DeleteScope implements FactStore.
func (s *Neo4jStore) DeleteScope(ctx context.Context, scopeID string) error {
	_, err := s.run(ctx, `
		MATCH (f:TemporalFact {scope_id: $scope_id})
		DETACH DELETE f`, map[string]any{"scope_id": scopeID})
	if err != nil {
		return fmt.Errorf("failed to delete scope %s: %w", scopeID, err)
	}
	return nil
}

// Stats implements FactStore.
func (s *Neo4jStore) Stats(ctx context.Context) (*Stats, error) {
	result, err := s.run(ctx, `
		MATCH (f:TemporalFact)
		RETURN count(f) AS facts, count(DISTINCT f.scope_id) AS scopes`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	stats := &Stats{}
	if len(result.Records) > 0 {
		if v, ok := result.Records[0].Get("facts"); ok {
			if n, ok := v.(int64); ok {
				stats.FactCount = n
			}
		}
		if v, ok := result.Records[0].Get("scopes"); ok {
			if n, ok := v.(int64); ok {
				stats.ScopeCount = n
			}
		}
	}
	return stats, nil
}

// Close implements FactStore.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}
