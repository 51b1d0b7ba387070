package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/timeline"
)

// ContextHandler handles timeline and narrative requests.
type ContextHandler struct {
	client chronicle.Chronicle
}

// NewContextHandler creates a new context handler
func NewContextHandler(client chronicle.Chronicle) *ContextHandler {
	return &ContextHandler{client: client}
}

// Timeline handles GET /timeline/:scope
func (h *ContextHandler) Timeline(c *gin.Context) {
	tl, err := h.client.BuildTimeline(c.Request.Context(), c.Param("scope"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tl)
}

// TemporalContext handles GET /temporal_context/:scope
func (h *ContextHandler) TemporalContext(c *gin.Context) {
	opts := timeline.ContextOptions{
		IncludeConfidence: c.Query("confidence") == "true",
		IncludeCausal:     c.Query("causal") == "true",
	}

	text, err := h.client.RenderContext(c.Request.Context(), c.Param("scope"), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.String(http.StatusOK, text)
}

// Segments handles GET /segments/:scope
func (h *ContextHandler) Segments(c *gin.Context) {
	strategy := timeline.Strategy(c.DefaultQuery("strategy", string(timeline.StrategyAuto)))

	var params *timeline.GroupParams
	if c.Query("gap_threshold_seconds") != "" || c.Query("batch_size") != "" {
		params = &timeline.GroupParams{}
		if raw := c.Query("gap_threshold_seconds"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs <= 0 {
				badRequest(c, errInvalidGapThreshold)
				return
			}
			params.GapThreshold = time.Duration(secs) * time.Second
		}
		if raw := c.Query("batch_size"); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil || size <= 0 {
				badRequest(c, errInvalidBatchSize)
				return
			}
			params.BatchSize = size
		}
	}

	segments, err := h.client.Group(c.Request.Context(), c.Param("scope"), strategy, params)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"segments": segments})
}
