package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/server/dto"
	"github.com/soundprediction/chronicle/pkg/types"
)

// EntitiesHandler registers entities into the server's resolver so facts
// can be recorded against them.
type EntitiesHandler struct {
	registry *resolver.Static
}

// NewEntitiesHandler creates a new entities handler
func NewEntitiesHandler(registry *resolver.Static) *EntitiesHandler {
	return &EntitiesHandler{registry: registry}
}

// RegisterEntity handles POST /entity
func (h *EntitiesHandler) RegisterEntity(c *gin.Context) {
	var req dto.RegisterEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	options := make([]resolver.Option, len(req.Options))
	for i, o := range req.Options {
		options[i] = resolver.Option{
			Label:       o.Label,
			Description: o.Description,
			Selected:    o.Selected,
		}
	}

	ref := types.OwnerRef{Kind: types.EntityKind(req.EntityKind), ID: req.EntityID}
	h.registry.Register(ref, &resolver.Entity{
		Description:       req.Description,
		ActorID:           req.ActorID,
		Options:           options,
		EthicalPrinciples: req.EthicalPrinciples,
	})

	c.JSON(http.StatusOK, gin.H{"status": "registered", "owner": ref.String()})
}
