package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/types"
)

// TimelineEntry is one fact joined with its owning entity, ready for
// presentation.
type TimelineEntry struct {
	ID              string     `json:"id"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	Description     string     `json:"description"`
	ActorID         string     `json:"actor_id,omitempty"`
	RelationSummary string     `json:"relation_summary,omitempty"`
}

// Timeline is a scope's facts bucketed by entity kind, each bucket in
// chronological order.
type Timeline struct {
	Events    []TimelineEntry `json:"events"`
	Actions   []TimelineEntry `json:"actions"`
	Decisions []TimelineEntry `json:"decisions"`
}

// ContextOptions controls RenderContext output.
type ContextOptions struct {
	IncludeConfidence bool
	IncludeCausal     bool
}

// Narrator renders a scope's facts and relations as deterministic text.
// Rendering never aborts: a relation whose endpoint cannot be resolved
// is logged and skipped.
type Narrator struct {
	facts     factstore.FactStore
	resolver  resolver.Resolver
	segmenter *Segmenter
	logger    *slog.Logger
}

// NewNarrator creates a Narrator.
func NewNarrator(facts factstore.FactStore, res resolver.Resolver, segmenter *Segmenter, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{facts: facts, resolver: res, segmenter: segmenter, logger: logger}
}

// BuildTimeline joins the scope's facts with their owning entities and
// buckets them by kind.
func (n *Narrator) BuildTimeline(ctx context.Context, scopeID string) (*Timeline, error) {
	facts, err := n.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	sortChronological(facts)

	tl := &Timeline{
		Events:    []TimelineEntry{},
		Actions:   []TimelineEntry{},
		Decisions: []TimelineEntry{},
	}
	for _, f := range facts {
		entry := TimelineEntry{ID: f.ID, Start: f.Start, End: f.End}
		if ent, err := n.resolver.Resolve(ctx, f.Owner); err == nil {
			entry.Description = ent.Description
			entry.ActorID = ent.ActorID
		} else {
			n.logger.Warn("owner did not resolve while building timeline",
				"scope_id", scopeID, "owner", f.Owner.String(), "error", err)
			entry.Description = f.Owner.String()
		}
		if f.Relation != nil {
			entry.RelationSummary = fmt.Sprintf("%s %s", f.Relation.Type, f.Relation.TargetID)
		}

		switch f.Owner.Kind {
		case types.EntityKindEvent:
			tl.Events = append(tl.Events, entry)
		case types.EntityKindAction:
			tl.Actions = append(tl.Actions, entry)
		case types.EntityKindDecision:
			tl.Decisions = append(tl.Decisions, entry)
		}
	}
	return tl, nil
}

// RenderContext renders the scope as text: a TIMELINE section with one
// block per fact in chronological order, a TEMPORAL RELATIONSHIPS
// section with one sentence per relation, and, when opts.IncludeCausal
// is set, a CAUSAL RELATIONSHIPS section restricted to causal edges.
func (n *Narrator) RenderContext(ctx context.Context, scopeID string, opts ContextOptions) (string, error) {
	facts, err := n.facts.ListFacts(ctx, scopeID)
	if err != nil {
		return "", err
	}
	sortChronological(facts)

	var b strings.Builder
	b.WriteString("TIMELINE:\n\n")
	for _, f := range facts {
		n.writeFactBlock(ctx, &b, f)
	}

	b.WriteString("TEMPORAL RELATIONSHIPS:\n\n")
	byID := indexByID(facts)
	for _, f := range facts {
		n.writeRelationLine(ctx, &b, f, byID, opts.IncludeConfidence, false)
	}

	if opts.IncludeCausal {
		b.WriteString("\nCAUSAL RELATIONSHIPS:\n\n")
		for _, f := range facts {
			n.writeRelationLine(ctx, &b, f, byID, opts.IncludeConfidence, true)
		}
	}
	return b.String(), nil
}

// RenderGroupedContext renders the scope segmented under the given
// strategy, one titled block per segment.
func (n *Narrator) RenderGroupedContext(ctx context.Context, scopeID string, strategy Strategy, params *GroupParams) (string, error) {
	if n.segmenter == nil {
		return "", fmt.Errorf("no segmenter configured")
	}
	segments, err := n.segmenter.Group(ctx, scopeID, strategy, params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(seg.Key))
		b.WriteString(":\n\n")
		for _, f := range seg.Facts {
			n.writeFactBlock(ctx, &b, f)
		}
	}
	return b.String(), nil
}

func (n *Narrator) writeFactBlock(ctx context.Context, b *strings.Builder, f *types.TemporalFact) {
	ent, err := n.resolver.Resolve(ctx, f.Owner)
	if err != nil {
		n.logger.Warn("owner did not resolve while rendering, skipping fact",
			"scope_id", f.ScopeID, "owner", f.Owner.String(), "error", err)
		return
	}

	fmt.Fprintf(b, "%s [%s]: %s\n", strings.ToUpper(string(f.Owner.Kind)), formatSpan(f), ent.Description)

	if f.Owner.Kind == types.EntityKindDecision {
		if len(ent.Options) > 0 {
			b.WriteString("  Options:\n")
			for _, opt := range ent.Options {
				line := "    - " + opt.Label
				if opt.Selected {
					line += " (SELECTED)"
				}
				if opt.Description != "" {
					line += ": " + opt.Description
				}
				b.WriteString(line + "\n")
			}
		}
		if len(ent.EthicalPrinciples) > 0 {
			fmt.Fprintf(b, "  Ethical principles: %s\n", strings.Join(ent.EthicalPrinciples, ", "))
		}
	}
	b.WriteString("\n")
}

func (n *Narrator) writeRelationLine(ctx context.Context, b *strings.Builder, f *types.TemporalFact, byID map[string]*types.TemporalFact, includeConfidence, causalOnly bool) {
	rel := f.Relation
	if rel == nil {
		return
	}
	if causalOnly && !rel.Type.Causal() {
		return
	}

	target, ok := byID[rel.TargetID]
	if !ok {
		n.logger.Warn("relation target missing from scope, skipping line",
			"scope_id", f.ScopeID, "fact_id", f.ID, "target_id", rel.TargetID)
		return
	}
	from, err := n.entityLabel(ctx, f)
	if err != nil {
		n.logger.Warn("relation source did not resolve, skipping line",
			"scope_id", f.ScopeID, "fact_id", f.ID, "error", err)
		return
	}
	to, err := n.entityLabel(ctx, target)
	if err != nil {
		n.logger.Warn("relation target did not resolve, skipping line",
			"scope_id", f.ScopeID, "fact_id", target.ID, "error", err)
		return
	}

	verb, ok := relationSentences[rel.Type]
	if !ok {
		n.logger.Warn("no sentence template for relation type, skipping line",
			"scope_id", f.ScopeID, "fact_id", f.ID, "relation_type", rel.Type)
		return
	}

	line := fmt.Sprintf("- %s %s %s", from, verb, to)
	if includeConfidence && rel.Inferred() {
		line += fmt.Sprintf(" (confidence: %.2f)", rel.Confidence)
	}
	b.WriteString(line + "\n")
}

func (n *Narrator) entityLabel(ctx context.Context, f *types.TemporalFact) (string, error) {
	ent, err := n.resolver.Resolve(ctx, f.Owner)
	if err != nil {
		return "", err
	}
	kind := strings.ToUpper(string(f.Owner.Kind)[:1]) + string(f.Owner.Kind)[1:]
	return fmt.Sprintf("%s '%s'", kind, ent.Description), nil
}

var relationSentences = map[types.RelationType]string{
	types.RelationPrecedes:         "happens before",
	types.RelationFollows:          "happens after",
	types.RelationCoincidesWith:    "happens at the same time as",
	types.RelationOverlaps:         "overlaps in time with",
	types.RelationNecessitates:     "necessitates",
	types.RelationIsNecessitatedBy: "is necessitated by",
	types.RelationHasConsequence:   "leads to",
	types.RelationIsConsequenceOf:  "is a consequence of",
	types.RelationCausedBy:         "was caused by",
	types.RelationEnabledBy:        "was enabled by",
	types.RelationPreventedBy:      "was prevented by",
}

func formatSpan(f *types.TemporalFact) string {
	start := f.Granularity.Format(f.Start)
	if f.IsInstant() {
		return start
	}
	if f.End == nil {
		return start + " - ongoing"
	}
	return start + " - " + f.Granularity.Format(*f.End)
}

func indexByID(facts []*types.TemporalFact) map[string]*types.TemporalFact {
	m := make(map[string]*types.TemporalFact, len(facts))
	for _, f := range facts {
		m[f.ID] = f
	}
	return m
}
