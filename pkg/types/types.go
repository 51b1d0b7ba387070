package types

import (
	"fmt"
	"time"
)

// EntityKind identifies the category of a fact's owning entity.
type EntityKind string

const (
	// EntityKindEvent for things that happened.
	EntityKindEvent EntityKind = "event"
	// EntityKindAction for things an actor did.
	EntityKindAction EntityKind = "action"
	// EntityKindDecision for choices made between options.
	EntityKindDecision EntityKind = "decision"
)

// Valid reports whether k is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindEvent, EntityKindAction, EntityKindDecision:
		return true
	}
	return false
}

// OwnerRef identifies the domain object a temporal fact describes.
type OwnerRef struct {
	Kind EntityKind `json:"entity_kind"`
	ID   string     `json:"entity_id"`
}

// Validate checks that the OwnerRef has a known kind and a non-empty id.
func (r OwnerRef) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntityKind, r.Kind)
	}
	if r.ID == "" {
		return ErrEmptyOwnerID
	}
	return nil
}

// IsZero reports whether the ref is unset.
func (r OwnerRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

func (r OwnerRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// RegionType is whether a fact represents a durationless instant or an
// interval with extent.
type RegionType string

const (
	// RegionInstant represents a point in time; End is always nil.
	RegionInstant RegionType = "instant"
	// RegionInterval represents an extent; a nil End means the interval
	// is open-ended (ongoing).
	RegionInterval RegionType = "interval"
)

// Valid reports whether t is a known region type.
func (t RegionType) Valid() bool {
	return t == RegionInstant || t == RegionInterval
}

// Granularity is the temporal resolution a fact's timestamps carry.
type Granularity string

const (
	GranularitySeconds Granularity = "seconds"
	GranularityMinutes Granularity = "minutes"
	GranularityHours   Granularity = "hours"
	GranularityDays    Granularity = "days"
	GranularityWeeks   Granularity = "weeks"
	GranularityMonths  Granularity = "months"
	GranularityYears   Granularity = "years"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularitySeconds, GranularityMinutes, GranularityHours,
		GranularityDays, GranularityWeeks, GranularityMonths, GranularityYears:
		return true
	}
	return false
}

// Bucket truncates t to the start of the bucket g defines. Two timestamps
// fall in the same bucket when their truncations are equal.
func (g Granularity) Bucket(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularitySeconds:
		return t.Truncate(time.Second)
	case GranularityMinutes:
		return t.Truncate(time.Minute)
	case GranularityHours:
		return t.Truncate(time.Hour)
	case GranularityDays:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityWeeks:
		// Start of the ISO week (Monday).
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonths:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GranularityYears:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// SameBucket reports whether a and b fall in the same bucket at this
// granularity.
func (g Granularity) SameBucket(a, b time.Time) bool {
	return g.Bucket(a).Equal(g.Bucket(b))
}

// Format renders t at the resolution g describes.
func (g Granularity) Format(t time.Time) string {
	t = t.UTC()
	switch g {
	case GranularityYears:
		return t.Format("2006")
	case GranularityMonths:
		return t.Format("2006-01")
	case GranularityWeeks, GranularityDays:
		return t.Format("2006-01-02")
	case GranularityHours, GranularityMinutes:
		return t.Format("2006-01-02 15:04")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}

// TemporalFact is a single temporal claim about one owning entity.
//
// Each fact holds at most one outgoing relation. Creating a second relation
// on the same fact overwrites the first (documented last-write-wins); callers
// that need multi-edge facts must model them as separate facts.
type TemporalFact struct {
	// ID is assigned on creation and immutable thereafter.
	ID string `json:"id"`
	// Owner is the domain object this fact describes. Together with
	// ScopeID it is the natural upsert key: re-enhancing an owner
	// replaces the prior fact's temporal fields in place.
	Owner OwnerRef `json:"owner_ref"`
	// ScopeID is the case this fact belongs to. All queries are
	// scope-filtered.
	ScopeID string `json:"scope_id"`

	Region      RegionType  `json:"region_type"`
	Start       time.Time   `json:"start"`
	End         *time.Time  `json:"end,omitempty"`
	Granularity Granularity `json:"granularity"`

	// Confidence is 1.0 for asserted facts; inference assigns lower
	// values. Always in [0,1].
	Confidence float64 `json:"confidence"`

	// Relation is the single outgoing relation, if any.
	Relation *Relation `json:"relation,omitempty"`

	// TimelineOrder is the dense zero-based chronological index assigned
	// by RecomputeTimelineOrder. -1 until first assignment.
	TimelineOrder int `json:"timeline_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate enforces the region and interval invariants.
func (f *TemporalFact) Validate() error {
	if f.ScopeID == "" {
		return ErrEmptyScopeID
	}
	if err := f.Owner.Validate(); err != nil {
		return err
	}
	if !f.Region.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRegionType, f.Region)
	}
	if f.Start.IsZero() {
		return ErrMissingStart
	}
	if !f.Granularity.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGranularity, f.Granularity)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, f.Confidence)
	}
	if f.Region == RegionInstant && f.End != nil {
		return &RegionError{ScopeID: f.ScopeID, Owner: f.Owner}
	}
	if f.Region == RegionInterval && f.End != nil && f.End.Before(f.Start) {
		return &IntervalError{ScopeID: f.ScopeID, Owner: f.Owner, Start: f.Start, End: *f.End}
	}
	return nil
}

// IsInstant reports whether the fact is a durationless instant.
func (f *TemporalFact) IsInstant() bool {
	return f.Region == RegionInstant
}

// IsOpen reports whether the fact is an ongoing interval.
func (f *TemporalFact) IsOpen() bool {
	return f.Region == RegionInterval && f.End == nil
}

// Clone returns a deep copy of the fact. Stores hand out clones so callers
// never share mutable state with the store.
func (f *TemporalFact) Clone() *TemporalFact {
	if f == nil {
		return nil
	}
	c := *f
	if f.End != nil {
		end := *f.End
		c.End = &end
	}
	if f.Relation != nil {
		rel := *f.Relation
		c.Relation = &rel
	}
	return &c
}
