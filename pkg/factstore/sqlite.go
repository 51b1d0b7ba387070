package factstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soundprediction/chronicle/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a FactStore backed by a single-file SQLite database.
// The driver is pure Go, so the store embeds without cgo.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS temporal_facts (
	id                  TEXT PRIMARY KEY,
	scope_id            TEXT NOT NULL,
	entity_kind         TEXT NOT NULL,
	entity_id           TEXT NOT NULL,
	region_type         TEXT NOT NULL,
	start_at            INTEGER NOT NULL,
	end_at              INTEGER,
	granularity         TEXT NOT NULL,
	confidence          REAL NOT NULL DEFAULT 1.0,
	relation_type       TEXT,
	relation_target     TEXT,
	relation_confidence REAL,
	timeline_order      INTEGER NOT NULL DEFAULT -1,
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL,
	UNIQUE (scope_id, entity_kind, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_temporal_facts_scope_start
	ON temporal_facts (scope_id, start_at);
`

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent scopes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Initialize implements FactStore.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveFact implements FactStore.
func (s *SQLiteStore) SaveFact(ctx context.Context, fact *types.TemporalFact) error {
	if fact.ID == "" {
		return types.ErrEmptyFactID
	}
	if err := fact.Validate(); err != nil {
		return err
	}

	var end sql.NullInt64
	if fact.End != nil {
		end = sql.NullInt64{Int64: fact.End.UTC().UnixNano(), Valid: true}
	}
	var relType, relTarget sql.NullString
	var relConf sql.NullFloat64
	if fact.Relation != nil {
		relType = sql.NullString{String: string(fact.Relation.Type), Valid: true}
		relTarget = sql.NullString{String: fact.Relation.TargetID, Valid: true}
		relConf = sql.NullFloat64{Float64: fact.Relation.Confidence, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO temporal_facts (
			id, scope_id, entity_kind, entity_id, region_type,
			start_at, end_at, granularity, confidence,
			relation_type, relation_target, relation_confidence,
			timeline_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			region_type = excluded.region_type,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			granularity = excluded.granularity,
			confidence = excluded.confidence,
			relation_type = excluded.relation_type,
			relation_target = excluded.relation_target,
			relation_confidence = excluded.relation_confidence,
			timeline_order = excluded.timeline_order,
			updated_at = excluded.updated_at`,
		fact.ID, fact.ScopeID, string(fact.Owner.Kind), fact.Owner.ID, string(fact.Region),
		fact.Start.UTC().UnixNano(), end, string(fact.Granularity), fact.Confidence,
		relType, relTarget, relConf,
		fact.TimelineOrder, fact.CreatedAt.UTC().UnixNano(), fact.UpdatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save fact %s in scope %s: %w", fact.ID, fact.ScopeID, err)
	}
	return nil
}

const sqliteFactColumns = `
	id, scope_id, entity_kind, entity_id, region_type,
	start_at, end_at, granularity, confidence,
	relation_type, relation_target, relation_confidence,
	timeline_order, created_at, updated_at`

func scanFact(row interface{ Scan(...any) error }) (*types.TemporalFact, error) {
	var f types.TemporalFact
	var kind, region, gran string
	var startNs, createdNs, updatedNs int64
	var end sql.NullInt64
	var relType, relTarget sql.NullString
	var relConf sql.NullFloat64

	err := row.Scan(&f.ID, &f.ScopeID, &kind, &f.Owner.ID, &region,
		&startNs, &end, &gran, &f.Confidence,
		&relType, &relTarget, &relConf,
		&f.TimelineOrder, &createdNs, &updatedNs)
	if err != nil {
		return nil, err
	}

	f.Owner.Kind = types.EntityKind(kind)
	f.Region = types.RegionType(region)
	f.Granularity = types.Granularity(gran)
	f.Start = time.Unix(0, startNs).UTC()
	if end.Valid {
		t := time.Unix(0, end.Int64).UTC()
		f.End = &t
	}
	if relType.Valid {
		f.Relation = &types.Relation{
			Type:       types.RelationType(relType.String),
			TargetID:   relTarget.String,
			Confidence: relConf.Float64,
		}
	}
	f.CreatedAt = time.Unix(0, createdNs).UTC()
	f.UpdatedAt = time.Unix(0, updatedNs).UTC()
	return &f, nil
}

// GetFact implements FactStore.
func (s *SQLiteStore) GetFact(ctx context.Context, scopeID, factID string) (*types.TemporalFact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteFactColumns+` FROM temporal_facts WHERE scope_id = ? AND id = ?`,
		scopeID, factID)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fact %s: %w", factID, err)
	}
	return f, nil
}

// GetFactByOwner implements FactStore.
func (s *SQLiteStore) GetFactByOwner(ctx context.Context, scopeID string, owner types.OwnerRef) (*types.TemporalFact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteFactColumns+` FROM temporal_facts
		 WHERE scope_id = ? AND entity_kind = ? AND entity_id = ?`,
		scopeID, string(owner.Kind), owner.ID)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{ScopeID: scopeID, Owner: owner}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fact for owner %s: %w", owner, err)
	}
	return f, nil
}

func (s *SQLiteStore) queryFacts(ctx context.Context, query string, args ...any) ([]*types.TemporalFact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.TemporalFact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListFacts implements FactStore.
func (s *SQLiteStore) ListFacts(ctx context.Context, scopeID string) ([]*types.TemporalFact, error) {
	facts, err := s.queryFacts(ctx,
		`SELECT `+sqliteFactColumns+` FROM temporal_facts WHERE scope_id = ?`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts in scope %s: %w", scopeID, err)
	}
	return facts, nil
}

// ListFactsInRange implements FactStore. The timeframe predicate is pushed
// down to SQL: intervals overlap when they start before the frame ends and
// end (or stay open) after it starts; instants must fall inside the frame.
func (s *SQLiteStore) ListFactsInRange(ctx context.Context, scopeID string, start, end time.Time) ([]*types.TemporalFact, error) {
	startNs, endNs := start.UTC().UnixNano(), end.UTC().UnixNano()
	facts, err := s.queryFacts(ctx,
		`SELECT `+sqliteFactColumns+` FROM temporal_facts
		 WHERE scope_id = ?
		   AND ((region_type = 'instant' AND start_at >= ? AND start_at <= ?)
		     OR (region_type = 'interval' AND start_at <= ? AND (end_at IS NULL OR end_at >= ?)))`,
		scopeID, startNs, endNs, endNs, startNs)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeframe in scope %s: %w", scopeID, err)
	}
	return facts, nil
}

// SaveRelation implements FactStore.
func (s *SQLiteStore) SaveRelation(ctx context.Context, scopeID, factID string, rel *types.Relation) error {
	var relType, relTarget sql.NullString
	var relConf sql.NullFloat64
	if rel != nil {
		relType = sql.NullString{String: string(rel.Type), Valid: true}
		relTarget = sql.NullString{String: rel.TargetID, Valid: true}
		relConf = sql.NullFloat64{Float64: rel.Confidence, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE temporal_facts
		SET relation_type = ?, relation_target = ?, relation_confidence = ?, updated_at = ?
		WHERE scope_id = ? AND id = ?`,
		relType, relTarget, relConf, time.Now().UTC().UnixNano(), scopeID, factID)
	if err != nil {
		return fmt.Errorf("failed to save relation on fact %s: %w", factID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.NotFoundError{ScopeID: scopeID, FactID: factID}
	}
	return nil
}

// SaveTimelineOrder implements FactStore. The whole assignment is applied
// in one transaction so a concurrent reader never observes a half-written
// order.
func (s *SQLiteStore) SaveTimelineOrder(ctx context.Context, scopeID string, order map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE temporal_facts SET timeline_order = ? WHERE scope_id = ? AND id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, pos := range order {
		if _, err := stmt.ExecContext(ctx, pos, scopeID, id); err != nil {
			return fmt.Errorf("failed to set order on fact %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeleteScope implements FactStore.
func (s *SQLiteStore) DeleteScope(ctx context.Context, scopeID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM temporal_facts WHERE scope_id = ?`, scopeID); err != nil {
		return fmt.Errorf("failed to delete scope %s: %w", scopeID, err)
	}
	return nil
}

// Stats implements FactStore.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT scope_id) FROM temporal_facts`)
	if err := row.Scan(&stats.FactCount, &stats.ScopeCount); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return stats, nil
}

// Close implements FactStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
