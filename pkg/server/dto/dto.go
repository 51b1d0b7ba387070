// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/soundprediction/chronicle/pkg/types"
)

// UpsertFactRequest creates or replaces the temporal fact for an entity.
type UpsertFactRequest struct {
	ScopeID     string     `json:"scope_id" binding:"required"`
	EntityKind  string     `json:"entity_kind" binding:"required"`
	EntityID    string     `json:"entity_id" binding:"required"`
	Region      string     `json:"region" binding:"required"`
	Start       time.Time  `json:"start" binding:"required"`
	End         *time.Time `json:"end,omitempty"`
	Granularity string     `json:"granularity,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty"`
}

// Validate performs validation beyond the binding tags.
func (r *UpsertFactRequest) Validate() error {
	if strings.TrimSpace(r.ScopeID) == "" {
		return errors.New("scope_id cannot be empty")
	}
	kind := types.EntityKind(r.EntityKind)
	if kind != types.EntityKindEvent && kind != types.EntityKindAction && kind != types.EntityKindDecision {
		return errors.New("entity_kind must be event, action, or decision")
	}
	region := types.RegionType(r.Region)
	if region != types.RegionInstant && region != types.RegionInterval {
		return errors.New("region must be instant or interval")
	}
	return nil
}

// OptionRequest is one choice attached to a decision entity.
type OptionRequest struct {
	Label       string `json:"label" binding:"required"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
}

// RegisterEntityRequest registers an entity with the server's resolver.
type RegisterEntityRequest struct {
	EntityKind        string          `json:"entity_kind" binding:"required"`
	EntityID          string          `json:"entity_id" binding:"required"`
	Description       string          `json:"description" binding:"required"`
	ActorID           string          `json:"actor_id,omitempty"`
	Options           []OptionRequest `json:"options,omitempty"`
	EthicalPrinciples []string        `json:"ethical_principles,omitempty"`
}

// Validate performs validation beyond the binding tags.
func (r *RegisterEntityRequest) Validate() error {
	kind := types.EntityKind(r.EntityKind)
	if kind != types.EntityKindEvent && kind != types.EntityKindAction && kind != types.EntityKindDecision {
		return errors.New("entity_kind must be event, action, or decision")
	}
	return nil
}

// CreateRelationRequest asserts a typed relation between two facts.
type CreateRelationRequest struct {
	ScopeID      string `json:"scope_id" binding:"required"`
	FromID       string `json:"from_id" binding:"required"`
	ToID         string `json:"to_id" binding:"required"`
	RelationType string `json:"relation_type" binding:"required"`
}

// EventsInTimeframeRequest queries facts intersecting a window.
type EventsInTimeframeRequest struct {
	ScopeID    string    `json:"scope_id" binding:"required"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	EntityKind string    `json:"entity_kind,omitempty"`
}

// FactResponse is the wire form of a temporal fact.
type FactResponse struct {
	ID            string          `json:"id"`
	ScopeID       string          `json:"scope_id"`
	EntityKind    string          `json:"entity_kind"`
	EntityID      string          `json:"entity_id"`
	Region        string          `json:"region"`
	Start         time.Time       `json:"start"`
	End           *time.Time      `json:"end,omitempty"`
	Granularity   string          `json:"granularity"`
	Confidence    float64         `json:"confidence"`
	Relation      *types.Relation `json:"relation,omitempty"`
	TimelineOrder int             `json:"timeline_order"`
}

// FactFromTemporal converts a fact to its wire form.
func FactFromTemporal(f *types.TemporalFact) FactResponse {
	return FactResponse{
		ID:            f.ID,
		ScopeID:       f.ScopeID,
		EntityKind:    string(f.Owner.Kind),
		EntityID:      f.Owner.ID,
		Region:        string(f.Region),
		Start:         f.Start,
		End:           f.End,
		Granularity:   string(f.Granularity),
		Confidence:    f.Confidence,
		Relation:      f.Relation,
		TimelineOrder: f.TimelineOrder,
	}
}

// FactsFromTemporal converts a slice of facts to wire form.
func FactsFromTemporal(facts []*types.TemporalFact) []FactResponse {
	out := make([]FactResponse, len(facts))
	for i, f := range facts {
		out[i] = FactFromTemporal(f)
	}
	return out
}

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
