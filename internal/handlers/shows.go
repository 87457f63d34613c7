package handlers

import (
	"net/http"
	"strconv"

	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// SearchShows handles GET /api/shows.
func (h *Handlers) SearchShows(c *gin.Context) {
	query := c.Query("query")
	genre := c.Query("genre")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	shows, err := h.services.Shows.Search(c.Request.Context(), query, genre, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if shows == nil {
		shows = []models.ShowSearchResponseItem{}
	}

	c.JSON(http.StatusOK, shows)
}
