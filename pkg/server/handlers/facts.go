package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/server/dto"
	"github.com/soundprediction/chronicle/pkg/timeline"
	"github.com/soundprediction/chronicle/pkg/types"
)

// FactsHandler handles fact lifecycle requests.
type FactsHandler struct {
	client chronicle.Chronicle
}

// NewFactsHandler creates a new facts handler
func NewFactsHandler(client chronicle.Chronicle) *FactsHandler {
	return &FactsHandler{client: client}
}

// UpsertFact handles POST /temporal_fact
func (h *FactsHandler) UpsertFact(c *gin.Context) {
	var req dto.UpsertFactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.client.UpsertFact(c.Request.Context(), timeline.UpsertInput{
		Owner:       types.OwnerRef{Kind: types.EntityKind(req.EntityKind), ID: req.EntityID},
		ScopeID:     req.ScopeID,
		Region:      types.RegionType(req.Region),
		Start:       req.Start,
		End:         req.End,
		Granularity: types.Granularity(req.Granularity),
		Confidence:  req.Confidence,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fact_id": id})
}

// EventsInTimeframe handles POST /events_in_timeframe
func (h *FactsHandler) EventsInTimeframe(c *gin.Context) {
	var req dto.EventsInTimeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	facts, err := h.client.FindInTimeframe(c.Request.Context(), req.ScopeID,
		req.Start, req.End, types.EntityKind(req.EntityKind))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"facts": dto.FactsFromTemporal(facts)})
}

// TemporalSequence handles GET /temporal_sequence/:scope
func (h *FactsHandler) TemporalSequence(c *gin.Context) {
	scopeID := c.Param("scope")
	kind := types.EntityKind(c.Query("entity_kind"))

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, errInvalidLimit)
			return
		}
		limit = n
	}

	facts, err := h.client.FindSequence(c.Request.Context(), scopeID, kind, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"facts": dto.FactsFromTemporal(facts)})
}

// DeleteScope handles DELETE /scope/:scope
func (h *FactsHandler) DeleteScope(c *gin.Context) {
	if err := h.client.DeleteScope(c.Request.Context(), c.Param("scope")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
