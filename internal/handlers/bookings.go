package handlers

import (
	"net/http"
	"strconv"

	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking handles POST /api/bookings.
func (h *Handlers) CreateBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.services.Bookings.Create(c.Request.Context(), uid, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ListBookings handles GET /api/bookings.
func (h *Handlers) ListBookings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	items, err := h.services.Bookings.ListByUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.ListBookingsResponseItem{}
	}

	c.JSON(http.StatusOK, items)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handlers) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	receipt, err := h.services.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// GetBookingByReference handles GET /api/bookings/reference/:ref.
func (h *Handlers) GetBookingByReference(c *gin.Context) {
	receipt, err := h.services.Bookings.GetByReference(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// CancelBooking handles PATCH /api/bookings/cancel.
func (h *Handlers) CancelBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Bookings.Cancel(c.Request.Context(), uid, req.BookingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.BookingCancelled})
}

// SweepExpired handles POST /api/sweep.
func (h *Handlers) SweepExpired(c *gin.Context) {
	reclaimed, err := h.services.Bookings.SweepExpired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SweepResponse{Reclaimed: reclaimed})
}
