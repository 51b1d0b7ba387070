package types

import (
	"errors"
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tp(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestTemporalFactValidate(t *testing.T) {
	owner := OwnerRef{Kind: EntityKindEvent, ID: "e-1"}

	tests := []struct {
		name    string
		fact    TemporalFact
		wantErr error
	}{
		{
			name: "valid instant",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: nil,
		},
		{
			name: "valid closed interval",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInterval,
				Start: ts("2024-03-01T09:00:00Z"), End: tp("2024-03-01T10:00:00Z"),
				Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: nil,
		},
		{
			name: "valid open interval",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInterval,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: nil,
		},
		{
			name: "instant with end",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), End: tp("2024-03-01T10:00:00Z"),
				Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: ErrInvalidRegion,
		},
		{
			name: "interval end before start",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInterval,
				Start: ts("2024-03-01T10:00:00Z"), End: tp("2024-03-01T09:00:00Z"),
				Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: ErrInvalidInterval,
		},
		{
			name: "empty scope",
			fact: TemporalFact{
				Owner: owner, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: ErrEmptyScopeID,
		},
		{
			name: "missing start",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInstant,
				Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: ErrMissingStart,
		},
		{
			name: "bad granularity",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: "fortnights", Confidence: 1.0,
			},
			wantErr: ErrUnknownGranularity,
		},
		{
			name: "confidence out of range",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: owner, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: GranularityMinutes, Confidence: 1.5,
			},
			wantErr: ErrInvalidConfidence,
		},
		{
			name: "unknown entity kind",
			fact: TemporalFact{
				ScopeID: "case-1", Owner: OwnerRef{Kind: "widget", ID: "w-1"}, Region: RegionInstant,
				Start: ts("2024-03-01T09:00:00Z"), Granularity: GranularityMinutes, Confidence: 1.0,
			},
			wantErr: ErrUnknownEntityKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fact.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelationTypeInverse(t *testing.T) {
	tests := []struct {
		typ     RelationType
		inverse RelationType
		defined bool
	}{
		{RelationPrecedes, RelationFollows, true},
		{RelationFollows, RelationPrecedes, true},
		{RelationCoincidesWith, RelationCoincidesWith, true},
		{RelationOverlaps, RelationOverlaps, true},
		{RelationNecessitates, RelationIsNecessitatedBy, true},
		{RelationIsNecessitatedBy, RelationNecessitates, true},
		{RelationHasConsequence, RelationIsConsequenceOf, true},
		{RelationIsConsequenceOf, RelationHasConsequence, true},
		{RelationCausedBy, "", false},
		{RelationEnabledBy, "", false},
		{RelationPreventedBy, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if !tt.typ.Valid() {
				t.Fatalf("expected %q to be a valid relation type", tt.typ)
			}
			inv, ok := tt.typ.Inverse()
			if ok != tt.defined {
				t.Errorf("Inverse() defined = %v, want %v", ok, tt.defined)
			}
			if ok && inv != tt.inverse {
				t.Errorf("Inverse() = %q, want %q", inv, tt.inverse)
			}
		})
	}

	if RelationType("relatedTo").Valid() {
		t.Error("expected unknown relation type to be invalid")
	}
}

func TestRelationTypeCausal(t *testing.T) {
	causal := map[RelationType]bool{
		RelationCausedBy:       true,
		RelationEnabledBy:      true,
		RelationPreventedBy:    true,
		RelationHasConsequence: true,
	}
	for _, typ := range AllRelationTypes() {
		if typ.Causal() != causal[typ] {
			t.Errorf("%q Causal() = %v, want %v", typ, typ.Causal(), causal[typ])
		}
	}
}

func TestGranularityBuckets(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		a, b time.Time
		same bool
	}{
		{"same minute", GranularityMinutes, ts("2024-03-01T09:00:10Z"), ts("2024-03-01T09:00:50Z"), true},
		{"different minute", GranularityMinutes, ts("2024-03-01T09:00:10Z"), ts("2024-03-01T09:01:10Z"), false},
		{"same hour", GranularityHours, ts("2024-03-01T09:01:00Z"), ts("2024-03-01T09:59:00Z"), true},
		{"same day", GranularityDays, ts("2024-03-01T00:10:00Z"), ts("2024-03-01T23:50:00Z"), true},
		{"different day", GranularityDays, ts("2024-03-01T23:50:00Z"), ts("2024-03-02T00:10:00Z"), false},
		{"same iso week", GranularityWeeks, ts("2024-03-04T09:00:00Z"), ts("2024-03-10T09:00:00Z"), true},
		{"different iso week", GranularityWeeks, ts("2024-03-03T09:00:00Z"), ts("2024-03-04T09:00:00Z"), false},
		{"same month", GranularityMonths, ts("2024-03-01T09:00:00Z"), ts("2024-03-31T09:00:00Z"), true},
		{"same year", GranularityYears, ts("2024-01-01T09:00:00Z"), ts("2024-12-31T09:00:00Z"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.SameBucket(tt.a, tt.b); got != tt.same {
				t.Errorf("SameBucket(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestGranularityFormat(t *testing.T) {
	at := ts("2024-03-01T09:05:30Z")
	tests := []struct {
		g    Granularity
		want string
	}{
		{GranularitySeconds, "2024-03-01 09:05:30"},
		{GranularityMinutes, "2024-03-01 09:05"},
		{GranularityHours, "2024-03-01 09:05"},
		{GranularityDays, "2024-03-01"},
		{GranularityWeeks, "2024-03-01"},
		{GranularityMonths, "2024-03"},
		{GranularityYears, "2024"},
	}
	for _, tt := range tests {
		if got := tt.g.Format(at); got != tt.want {
			t.Errorf("%s Format() = %q, want %q", tt.g, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	end := ts("2024-03-01T10:00:00Z")
	f := &TemporalFact{
		ID: "f-1", ScopeID: "case-1",
		Owner:  OwnerRef{Kind: EntityKindAction, ID: "a-1"},
		Region: RegionInterval, Start: ts("2024-03-01T09:00:00Z"), End: &end,
		Granularity: GranularityMinutes, Confidence: 1.0,
		Relation: &Relation{Type: RelationPrecedes, TargetID: "f-2", Confidence: 1.0},
	}

	c := f.Clone()
	*c.End = ts("2024-03-01T11:00:00Z")
	c.Relation.TargetID = "f-3"

	if !f.End.Equal(end) {
		t.Error("clone shares End with original")
	}
	if f.Relation.TargetID != "f-2" {
		t.Error("clone shares Relation with original")
	}
}
