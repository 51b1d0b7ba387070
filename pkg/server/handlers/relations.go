package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/server/dto"
	"github.com/soundprediction/chronicle/pkg/types"
)

var (
	errInvalidLimit        = errors.New("limit must be a non-negative integer")
	errMissingScope        = errors.New("scope query parameter is required")
	errMissingRelType      = errors.New("relation_type query parameter is required")
	errInvalidGapThreshold = errors.New("gap_threshold_seconds must be a positive integer")
	errInvalidBatchSize    = errors.New("batch_size must be a positive integer")
)

// RelationsHandler handles relation requests.
type RelationsHandler struct {
	client chronicle.Chronicle
}

// NewRelationsHandler creates a new relations handler
func NewRelationsHandler(client chronicle.Chronicle) *RelationsHandler {
	return &RelationsHandler{client: client}
}

// CreateRelation handles POST /create_temporal_relation
func (h *RelationsHandler) CreateRelation(c *gin.Context) {
	var req dto.CreateRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.client.CreateRelation(c.Request.Context(), req.ScopeID,
		req.FromID, req.ToID, types.RelationType(req.RelationType))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FindRelated handles GET /temporal_relation/:fact_id
func (h *RelationsHandler) FindRelated(c *gin.Context) {
	scopeID := c.Query("scope")
	if scopeID == "" {
		badRequest(c, errMissingScope)
		return
	}
	relType := c.Query("relation_type")
	if relType == "" {
		badRequest(c, errMissingRelType)
		return
	}

	facts, err := h.client.FindRelated(c.Request.Context(), scopeID,
		c.Param("fact_id"), types.RelationType(relType))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"facts": dto.FactsFromTemporal(facts)})
}

// InferRelations handles POST /infer_relations/:scope
func (h *RelationsHandler) InferRelations(c *gin.Context) {
	count, err := h.client.InferRelations(c.Request.Context(), c.Param("scope"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inferred": count})
}

// RecomputeOrder handles POST /recompute_order/:scope
func (h *RelationsHandler) RecomputeOrder(c *gin.Context) {
	order, err := h.client.RecomputeTimelineOrder(c.Request.Context(), c.Param("scope"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
