package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/chronicle/pkg/types"
)

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidInterval),
		errors.Is(err, types.ErrInvalidRegion),
		errors.Is(err, types.ErrInvalidRelationType),
		errors.Is(err, types.ErrInvalidConfidence),
		errors.Is(err, types.ErrUnknownGranularity),
		errors.Is(err, types.ErrEmptyScopeID),
		errors.Is(err, types.ErrEmptyOwnerID):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest reports a request that failed binding or local validation.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
