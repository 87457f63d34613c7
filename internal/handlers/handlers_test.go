package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagedoor/internal/external"
	"stagedoor/internal/middleware"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	mem    *repository.Memory
}

// testAuth stands in for BasicAuth and pins the caller to user 1.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", int64(1))
		c.Request = c.Request.WithContext(middleware.ContextWithUserID(c.Request.Context(), 1))
		c.Next()
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := repository.NewMemory()
	mem.AddUser(models.User{UserID: 1, Email: "alice@example.com", IsActive: true})
	mem.AddShow(models.Show{ShowID: 1, Title: "Twelfth Night", Genre: "comedy", DurationMinutes: 135})
	mem.AddVenue(models.Venue{VenueID: 1, VenueName: "Grand Majestic", AddressLine1: "12 Curtain Lane", City: "London"})
	for i := int64(1); i <= 5; i++ {
		mem.AddSeat(models.Seat{
			SeatID: i, VenueID: 1, RowNumber: "A", SeatNumber: fmt.Sprintf("%d", i),
			Category: "standard", IsActive: true,
		})
	}
	mem.AddPerformance(models.Performance{
		PerformanceID: 1, ShowID: 1, VenueID: 1,
		StartsAt:   time.Now().Add(48 * time.Hour),
		TotalSeats: 5, AvailableSeats: 5,
		Status: models.PerformanceScheduled,
	})
	mem.SetPrice(1, "standard", 7500)

	services := service.NewServices(service.Deps{
		Repos:       repository.NewMemoryRepositories(mem),
		Gateway:     external.NewMockGateway(&external.MockGatewayConfig{SuccessRate: 1.0}),
		GraceWindow: 15 * time.Minute,
	})

	h := New(services)

	router := gin.New()
	api := router.Group("/api")
	api.Use(testAuth())
	{
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.GET("/bookings/reference/:ref", h.GetBookingByReference)
		api.PATCH("/bookings/cancel", h.CancelBooking)
		api.POST("/payments", h.SettlePayment)
		api.POST("/payments/refund", h.RefundPayment)
		api.GET("/payments/booking/:id", h.PaymentHistory)
		api.GET("/performances", h.ListPerformances)
		api.GET("/performances/:id/seats", h.ListSeats)
		api.POST("/sweep", h.SweepExpired)
	}

	return &fixture{router: router, mem: mem}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) createBooking(t *testing.T, seatIDs ...int64) models.BookingReceipt {
	t.Helper()

	w := f.do(t, "POST", "/api/bookings", models.CreateBookingRequest{
		PerformanceID: 1,
		SeatIDs:       seatIDs,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt models.BookingReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	return receipt
}

func TestCreateBookingEndpoint(t *testing.T) {
	f := newFixture(t)

	receipt := f.createBooking(t, 1, 2)
	assert.Equal(t, models.BookingPending, receipt.Status)
	assert.Len(t, receipt.Seats, 2)
	assert.Equal(t, "Twelfth Night", receipt.ShowTitle)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/bookings", map[string]interface{}{"performance_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing seat ids")

	w = f.do(t, "POST", "/api/bookings", models.CreateBookingRequest{PerformanceID: 42, SeatIDs: []int64{1}})
	assert.Equal(t, http.StatusNotFound, w.Code, "unknown performance")
}

func TestSeatConflictEndpoint(t *testing.T) {
	f := newFixture(t)

	f.createBooking(t, 3)

	w := f.do(t, "POST", "/api/bookings", models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{3}})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		SeatID int64 `json:"seat_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.SeatID)
}

func TestGetBookingEndpoints(t *testing.T) {
	f := newFixture(t)

	receipt := f.createBooking(t, 1)

	w := f.do(t, "GET", fmt.Sprintf("/api/bookings/%d", receipt.BookingID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/api/bookings/reference/"+receipt.Reference, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/api/bookings/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "GET", "/api/bookings/notanumber", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "GET", "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.ListBookingsResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCancelEndpoint(t *testing.T) {
	f := newFixture(t)

	receipt := f.createBooking(t, 1)

	w := f.do(t, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: receipt.BookingID})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: receipt.BookingID})
	assert.Equal(t, http.StatusBadRequest, w.Code, "second cancel is rejected")
}

func TestSettleAndRefundEndpoints(t *testing.T) {
	f := newFixture(t)

	receipt := f.createBooking(t, 1, 2)

	w := f.do(t, "POST", "/api/payments", models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var settled models.SettlePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settled))
	assert.Equal(t, models.PaymentCompleted, settled.Status)

	w = f.do(t, "GET", fmt.Sprintf("/api/payments/booking/%d", receipt.BookingID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	w = f.do(t, "POST", "/api/payments/refund", models.RefundRequest{BookingID: receipt.BookingID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var refunded models.RefundResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refunded))
	assert.Equal(t, receipt.TotalAmount, refunded.RefundAmount)
}

func TestSettleEndpointPaymentErrors(t *testing.T) {
	f := newFixture(t)

	receipt := f.createBooking(t, 1)

	w := f.do(t, "POST", "/api/payments", models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount + 5000,
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code, "amount mismatch")

	w = f.do(t, "POST", "/api/payments", models.SettlePaymentRequest{
		BookingID: 99999,
		Method:    "card",
		Amount:    100,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPerformanceEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/api/performances", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var performances []models.ListPerformancesResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &performances))
	require.Len(t, performances, 1)
	assert.Equal(t, 5, performances[0].AvailableSeats)

	f.createBooking(t, 4)

	w = f.do(t, "GET", "/api/performances/1/seats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seats []models.ListSeatsResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seats))
	require.Len(t, seats, 5)

	occupied := 0
	for _, seat := range seats {
		if seat.Occupied {
			occupied++
			assert.Equal(t, int64(4), seat.SeatID)
		}
	}
	assert.Equal(t, 1, occupied)

	w = f.do(t, "GET", "/api/performances/99/seats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SweepResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Reclaimed, "nothing expired yet")
}
