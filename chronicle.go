package chronicle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/timeline"
	"github.com/soundprediction/chronicle/pkg/types"
)

// Config holds configuration for the Chronicle client.
type Config struct {
	// TimeZone for rendering and bucket calculations. Defaults to UTC.
	TimeZone *time.Location
	// DefaultGranularity applies when an upsert does not set one.
	DefaultGranularity types.Granularity
	// GapThreshold is the default by_gap segmentation boundary.
	GapThreshold time.Duration
	// BatchSize is the default auto segmentation batch length.
	BatchSize int
}

// DefaultConfig returns the standard client configuration.
func DefaultConfig() *Config {
	return &Config{
		TimeZone:           time.UTC,
		DefaultGranularity: types.GranularitySeconds,
		GapThreshold:       timeline.DefaultGapThreshold,
		BatchSize:          timeline.DefaultBatchSize,
	}
}

// Client is the main implementation of the Chronicle interface. It owns
// the engine components and serializes mutating passes per scope, so
// overlapping calls for the same case cannot interleave their walks.
type Client struct {
	facts     factstore.FactStore
	resolver  resolver.Resolver
	store     *timeline.Store
	graph     *timeline.RelationGraph
	engine    *timeline.InferenceEngine
	segmenter *timeline.Segmenter
	narrator  *timeline.Narrator
	config    *Config
	logger    *slog.Logger

	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

// NewClient creates a Chronicle client over the given fact store and
// entity resolver.
func NewClient(facts factstore.FactStore, res resolver.Resolver, config *Config, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TimeZone == nil {
		config.TimeZone = time.UTC
	}
	if config.DefaultGranularity == "" {
		config.DefaultGranularity = types.GranularitySeconds
	}
	if logger == nil {
		logger = slog.Default()
	}

	segmenter := timeline.NewSegmenter(facts, res, logger)
	return &Client{
		facts:     facts,
		resolver:  res,
		store:     timeline.NewStore(facts, res, logger),
		graph:     timeline.NewRelationGraph(facts, logger),
		engine:    timeline.NewInferenceEngine(facts, logger),
		segmenter: segmenter,
		narrator:  timeline.NewNarrator(facts, res, segmenter, logger),
		config:    config,
		logger:    logger,
		scopes:    make(map[string]*sync.Mutex),
	}, nil
}

// scopeLock returns the mutex guarding mutating passes over scopeID.
func (c *Client) scopeLock(scopeID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.scopes[scopeID]
	if !ok {
		l = &sync.Mutex{}
		c.scopes[scopeID] = l
	}
	return l
}

// UpsertFact creates or replaces the temporal fact for the input's owner
// within its scope, returning the fact id.
func (c *Client) UpsertFact(ctx context.Context, in timeline.UpsertInput) (string, error) {
	if in.Granularity == "" {
		in.Granularity = c.config.DefaultGranularity
	}

	l := c.scopeLock(in.ScopeID)
	l.Lock()
	defer l.Unlock()
	return c.store.UpsertFact(ctx, in)
}

// FindInTimeframe returns the scope's facts intersecting [start, end],
// optionally filtered by entity kind, in chronological order.
func (c *Client) FindInTimeframe(ctx context.Context, scopeID string, start, end time.Time, kind types.EntityKind) ([]*types.TemporalFact, error) {
	return c.store.FindInTimeframe(ctx, scopeID, start, end, kind)
}

// FindSequence returns the scope's dated facts in chronological order,
// optionally filtered by kind and truncated to limit.
func (c *Client) FindSequence(ctx context.Context, scopeID string, kind types.EntityKind, limit int) ([]*types.TemporalFact, error) {
	return c.store.FindSequence(ctx, scopeID, kind, limit)
}

// CreateRelation asserts a typed relation from one fact to another,
// maintaining the inverse edge on the target when the type has one.
func (c *Client) CreateRelation(ctx context.Context, scopeID, fromID, toID string, relType types.RelationType) error {
	l := c.scopeLock(scopeID)
	l.Lock()
	defer l.Unlock()
	return c.graph.CreateRelation(ctx, scopeID, fromID, toID, relType)
}

// FindRelated returns the facts whose relation of the given type targets
// factID.
func (c *Client) FindRelated(ctx context.Context, scopeID, factID string, relType types.RelationType) ([]*types.TemporalFact, error) {
	return c.graph.FindRelated(ctx, scopeID, factID, relType)
}

// InferRelations derives relations between chronologically adjacent facts
// that have none, returning how many were written.
func (c *Client) InferRelations(ctx context.Context, scopeID string) (int, error) {
	l := c.scopeLock(scopeID)
	l.Lock()
	defer l.Unlock()
	return c.engine.InferRelations(ctx, scopeID)
}

// RecomputeTimelineOrder assigns dense chronological positions to every
// fact in the scope.
func (c *Client) RecomputeTimelineOrder(ctx context.Context, scopeID string) (map[string]int, error) {
	l := c.scopeLock(scopeID)
	l.Lock()
	defer l.Unlock()
	return c.engine.RecomputeTimelineOrder(ctx, scopeID)
}

// Group partitions the scope's facts under the given strategy. A nil
// params falls back to the client defaults.
func (c *Client) Group(ctx context.Context, scopeID string, strategy timeline.Strategy, params *timeline.GroupParams) ([]timeline.Segment, error) {
	if params == nil {
		params = &timeline.GroupParams{
			GapThreshold: c.config.GapThreshold,
			BatchSize:    c.config.BatchSize,
		}
	}
	return c.segmenter.Group(ctx, scopeID, strategy, params)
}

// BuildTimeline joins the scope's facts with their entities, bucketed by
// kind.
func (c *Client) BuildTimeline(ctx context.Context, scopeID string) (*timeline.Timeline, error) {
	return c.narrator.BuildTimeline(ctx, scopeID)
}

// RenderContext renders the scope's facts and relations as text.
func (c *Client) RenderContext(ctx context.Context, scopeID string, opts timeline.ContextOptions) (string, error) {
	return c.narrator.RenderContext(ctx, scopeID, opts)
}

// RenderGroupedContext renders the scope segmented under the given
// strategy.
func (c *Client) RenderGroupedContext(ctx context.Context, scopeID string, strategy timeline.Strategy, params *timeline.GroupParams) (string, error) {
	if params == nil {
		params = &timeline.GroupParams{
			GapThreshold: c.config.GapThreshold,
			BatchSize:    c.config.BatchSize,
		}
	}
	return c.narrator.RenderGroupedContext(ctx, scopeID, strategy, params)
}

// DeleteScope removes every fact in the scope.
func (c *Client) DeleteScope(ctx context.Context, scopeID string) error {
	l := c.scopeLock(scopeID)
	l.Lock()
	defer l.Unlock()
	return c.facts.DeleteScope(ctx, scopeID)
}

// Stats reports store-wide counts.
func (c *Client) Stats(ctx context.Context) (*factstore.Stats, error) {
	return c.facts.Stats(ctx)
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.facts.Close()
}

// Store exposes the fact lifecycle component.
func (c *Client) Store() *timeline.Store { return c.store }

// Graph exposes the relation component.
func (c *Client) Graph() *timeline.RelationGraph { return c.graph }

// Resolver exposes the entity resolver the client was built with.
func (c *Client) Resolver() resolver.Resolver { return c.resolver }
