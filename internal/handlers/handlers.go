package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/service"

	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP layer's dependencies.
type Handlers struct {
	services *service.Services
}

func New(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// respondError maps domain errors to HTTP statuses. Seat contention is 409 so
// clients can refresh the seat map and retry; declined or mismatched payments
// are 402; a missing price row is a server-side configuration fault.
func respondError(c *gin.Context, err error) {
	var conflict *apperrors.SeatConflictError

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   conflict.Error(),
			"seat_id": conflict.SeatID,
		})
	case errors.Is(err, apperrors.ErrSeatConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrNoCompletedPayment):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAmountMismatch),
		errors.Is(err, apperrors.ErrGatewayDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPricingNotConfigured):
		slog.Error("Pricing not configured", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pricing not configured"})
	default:
		slog.Error("Internal error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// userID pulls the authenticated user set by the BasicAuth middleware.
func userID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	id, ok := v.(int64)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}
