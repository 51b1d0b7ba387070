package types

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors
var (
	ErrEmptyScopeID       = errors.New("scope_id cannot be empty")
	ErrEmptyOwnerID       = errors.New("entity_id cannot be empty")
	ErrEmptyFactID        = errors.New("fact id cannot be empty")
	ErrMissingStart       = errors.New("start timestamp is required")
	ErrUnknownEntityKind  = errors.New("unknown entity kind")
	ErrUnknownRegionType  = errors.New("unknown region type")
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrInvalidConfidence  = errors.New("confidence must be in [0,1]")
)

// Sentinels for the engine error taxonomy. The typed errors below unwrap to
// these so callers can match with errors.Is while the error message still
// carries the scope and the offending owner or fact id.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrInvalidRegion       = errors.New("invalid region")
	ErrInvalidRelationType = errors.New("invalid relation type")
)

// NotFoundError reports a missing owner, fact, or relation target.
type NotFoundError struct {
	ScopeID string
	Owner   OwnerRef
	FactID  string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.FactID != "":
		return fmt.Sprintf("fact %s not found in scope %s", e.FactID, e.ScopeID)
	case !e.Owner.IsZero():
		return fmt.Sprintf("owner %s not found in scope %s", e.Owner, e.ScopeID)
	default:
		return fmt.Sprintf("scope %s: not found", e.ScopeID)
	}
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IntervalError reports a closed interval whose end precedes its start.
type IntervalError struct {
	ScopeID string
	Owner   OwnerRef
	Start   time.Time
	End     time.Time
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("invalid interval for %s in scope %s: end %s before start %s",
		e.Owner, e.ScopeID, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }

// RegionError reports a non-null end supplied for an instant fact.
type RegionError struct {
	ScopeID string
	Owner   OwnerRef
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("invalid region for %s in scope %s: instant facts cannot carry an end timestamp",
		e.Owner, e.ScopeID)
}

func (e *RegionError) Unwrap() error { return ErrInvalidRegion }

// RelationTypeError reports a relation type outside the allowed vocabulary.
type RelationTypeError struct {
	ScopeID string
	FactID  string
	Type    RelationType
}

func (e *RelationTypeError) Error() string {
	return fmt.Sprintf("invalid relation type %q on fact %s in scope %s", e.Type, e.FactID, e.ScopeID)
}

func (e *RelationTypeError) Unwrap() error { return ErrInvalidRelationType }
