package chronicle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/factstore"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/timeline"
	"github.com/soundprediction/chronicle/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render <case-file>",
	Short: "Render a case file as narrative context",
	Long: `Render loads a YAML case file describing entities, temporal facts, and
relations, then prints the rendered narrative context.

A case file looks like:

  scope_id: case-17
  entities:
    - entity_kind: event
      entity_id: e1
      description: Risk discovered
  facts:
    - entity_kind: event
      entity_id: e1
      region: instant
      start: 2024-03-14T09:00:00Z
      granularity: minutes
  relations:
    - from: event/e1
      to: decision/d1
      relation_type: precedes`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderConfidence bool
	renderCausal     bool
	renderInfer      bool
	renderStrategy   string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderConfidence, "confidence", false, "Annotate inferred relations with confidence")
	renderCmd.Flags().BoolVar(&renderCausal, "causal", false, "Include the causal relationships section")
	renderCmd.Flags().BoolVar(&renderInfer, "infer", false, "Infer relations from timestamps before rendering")
	renderCmd.Flags().StringVar(&renderStrategy, "strategy", "", "Render grouped by strategy (by_actor, by_gap, by_kind, auto)")
}

// caseFile is the YAML shape the render command consumes.
type caseFile struct {
	ScopeID  string `yaml:"scope_id"`
	Entities []struct {
		EntityKind  string `yaml:"entity_kind"`
		EntityID    string `yaml:"entity_id"`
		Description string `yaml:"description"`
		ActorID     string `yaml:"actor_id"`
		Options     []struct {
			Label       string `yaml:"label"`
			Description string `yaml:"description"`
			Selected    bool   `yaml:"selected"`
		} `yaml:"options"`
		EthicalPrinciples []string `yaml:"ethical_principles"`
	} `yaml:"entities"`
	Facts []struct {
		EntityKind  string     `yaml:"entity_kind"`
		EntityID    string     `yaml:"entity_id"`
		Region      string     `yaml:"region"`
		Start       time.Time  `yaml:"start"`
		End         *time.Time `yaml:"end"`
		Granularity string     `yaml:"granularity"`
		Confidence  *float64   `yaml:"confidence"`
	} `yaml:"facts"`
	Relations []struct {
		From         string `yaml:"from"`
		To           string `yaml:"to"`
		RelationType string `yaml:"relation_type"`
	} `yaml:"relations"`
}

func runRender(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read case file: %w", err)
	}

	var cf caseFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("failed to parse case file: %w", err)
	}
	if cf.ScopeID == "" {
		return fmt.Errorf("case file is missing scope_id")
	}

	registry := resolver.NewStatic()
	client, err := chronicle.NewClient(factstore.NewMemoryStore(), registry, nil, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := types.WithRequestSource(context.Background(), "cli")

	for _, e := range cf.Entities {
		options := make([]resolver.Option, len(e.Options))
		for i, o := range e.Options {
			options[i] = resolver.Option{Label: o.Label, Description: o.Description, Selected: o.Selected}
		}
		registry.Register(types.OwnerRef{Kind: types.EntityKind(e.EntityKind), ID: e.EntityID}, &resolver.Entity{
			Description:       e.Description,
			ActorID:           e.ActorID,
			Options:           options,
			EthicalPrinciples: e.EthicalPrinciples,
		})
	}

	// Fact ids by owner string, for relation wiring below.
	ids := make(map[string]string)
	for _, f := range cf.Facts {
		owner := types.OwnerRef{Kind: types.EntityKind(f.EntityKind), ID: f.EntityID}
		id, err := client.UpsertFact(ctx, timeline.UpsertInput{
			Owner:       owner,
			ScopeID:     cf.ScopeID,
			Region:      types.RegionType(f.Region),
			Start:       f.Start,
			End:         f.End,
			Granularity: types.Granularity(f.Granularity),
			Confidence:  f.Confidence,
		})
		if err != nil {
			return fmt.Errorf("failed to record fact for %s: %w", owner.String(), err)
		}
		ids[owner.String()] = id
	}

	for _, r := range cf.Relations {
		fromID, ok := ids[r.From]
		if !ok {
			return fmt.Errorf("relation references unknown fact %q", r.From)
		}
		toID, ok := ids[r.To]
		if !ok {
			return fmt.Errorf("relation references unknown fact %q", r.To)
		}
		if err := client.CreateRelation(ctx, cf.ScopeID, fromID, toID, types.RelationType(r.RelationType)); err != nil {
			return fmt.Errorf("failed to create relation %s -> %s: %w", r.From, r.To, err)
		}
	}

	if renderInfer {
		count, err := client.InferRelations(ctx, cf.ScopeID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Inferred %d relations\n", count)
	}

	var text string
	if renderStrategy != "" {
		text, err = client.RenderGroupedContext(ctx, cf.ScopeID, timeline.Strategy(renderStrategy), nil)
	} else {
		text, err = client.RenderContext(ctx, cf.ScopeID, timeline.ContextOptions{
			IncludeConfidence: renderConfidence,
			IncludeCausal:     renderCausal,
		})
	}
	if err != nil {
		return err
	}

	fmt.Print(text)
	return nil
}
