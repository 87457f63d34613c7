package handlers

import (
	"net/http"
	"strconv"

	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// ListPerformances handles GET /api/performances.
func (h *Handlers) ListPerformances(c *gin.Context) {
	items, err := h.services.Shows.ListPerformances(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.ListPerformancesResponseItem{}
	}

	c.JSON(http.StatusOK, items)
}

// ListSeats handles GET /api/performances/:id/seats.
func (h *Handlers) ListSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	perf, err := h.services.Shows.GetPerformance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if perf == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Performance not found"})
		return
	}

	seats, err := h.services.Shows.ListSeatMap(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if seats == nil {
		seats = []models.ListSeatsResponseItem{}
	}

	c.JSON(http.StatusOK, seats)
}
