package types

// RelationType is a typed directed (or symmetric) link between two facts.
type RelationType string

const (
	RelationPrecedes         RelationType = "precedes"
	RelationFollows          RelationType = "follows"
	RelationCoincidesWith    RelationType = "coincidesWith"
	RelationOverlaps         RelationType = "overlaps"
	RelationNecessitates     RelationType = "necessitates"
	RelationIsNecessitatedBy RelationType = "isNecessitatedBy"
	RelationHasConsequence   RelationType = "hasConsequence"
	RelationIsConsequenceOf  RelationType = "isConsequenceOf"
	RelationCausedBy         RelationType = "causedBy"
	RelationEnabledBy        RelationType = "enabledBy"
	RelationPreventedBy      RelationType = "preventedBy"
)

// inverses maps each relation type to its inverse. Symmetric types map to
// themselves. causedBy, enabledBy and preventedBy are one-directional
// annotations and have no entry: creating one must not attempt an inverse.
var inverses = map[RelationType]RelationType{
	RelationPrecedes:         RelationFollows,
	RelationFollows:          RelationPrecedes,
	RelationCoincidesWith:    RelationCoincidesWith,
	RelationOverlaps:         RelationOverlaps,
	RelationNecessitates:     RelationIsNecessitatedBy,
	RelationIsNecessitatedBy: RelationNecessitates,
	RelationHasConsequence:   RelationIsConsequenceOf,
	RelationIsConsequenceOf:  RelationHasConsequence,
}

// oneDirectional holds the relation types with no defined inverse.
var oneDirectional = map[RelationType]bool{
	RelationCausedBy:    true,
	RelationEnabledBy:   true,
	RelationPreventedBy: true,
}

// Valid reports whether t belongs to the allowed relation vocabulary.
func (t RelationType) Valid() bool {
	_, ok := inverses[t]
	return ok || oneDirectional[t]
}

// Inverse returns the inverse relation type and whether one is defined.
func (t RelationType) Inverse() (RelationType, bool) {
	inv, ok := inverses[t]
	return inv, ok
}

// Causal reports whether t is rendered in the causal relationships section.
func (t RelationType) Causal() bool {
	switch t {
	case RelationCausedBy, RelationEnabledBy, RelationPreventedBy, RelationHasConsequence:
		return true
	}
	return false
}

// AllRelationTypes returns the allowed relation vocabulary in a fixed order.
func AllRelationTypes() []RelationType {
	return []RelationType{
		RelationPrecedes, RelationFollows,
		RelationCoincidesWith, RelationOverlaps,
		RelationNecessitates, RelationIsNecessitatedBy,
		RelationHasConsequence, RelationIsConsequenceOf,
		RelationCausedBy, RelationEnabledBy, RelationPreventedBy,
	}
}

// Relation is the single outgoing edge a fact may hold.
type Relation struct {
	Type     RelationType `json:"relation_type"`
	TargetID string       `json:"target_fact_id"`
	// Confidence is 1.0 for manually asserted relations; the inference
	// engine assigns a fixed lower value to distinguish its output.
	Confidence float64 `json:"confidence"`
}

// Inferred reports whether the relation was produced by inference rather
// than asserted by a caller.
func (r Relation) Inferred() bool {
	return r.Confidence < 1.0
}
