// Package resolver maps an owner reference to the human-readable entity it
// names. Resolution is the engine's only outward dependency besides the
// fact store: the narrator needs descriptions and actors, decision
// rendering needs the options that were on the table.
package resolver

import (
	"context"

	"github.com/soundprediction/chronicle/pkg/types"
)

// Entity is the resolved view of a fact's owning domain object.
type Entity struct {
	// Description is the short human-readable label used in narratives.
	Description string `json:"description"`
	// ActorID identifies the actor the entity belongs to, if any.
	ActorID string `json:"actor_id,omitempty"`
	// Options are the alternatives considered; present on decisions.
	Options []Option `json:"options,omitempty"`
	// EthicalPrinciples are the principles bearing on a decision.
	EthicalPrinciples []string `json:"ethical_principles,omitempty"`
}

// Option is one alternative considered for a decision.
type Option struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
}

// Resolver resolves owner references. Implementations return an error
// matching types.ErrNotFound when the reference names nothing.
type Resolver interface {
	Resolve(ctx context.Context, ref types.OwnerRef) (*Entity, error)
}
