// Package validation is a smoke checker run against a live instance
// (`stagedoor-api validate`). It walks the read endpoints and a full
// book-then-cancel cycle using credentials from the environment.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"stagedoor/internal/models"
)

type SmokeValidator struct {
	baseURL  string
	email    string
	password string
}

func NewSmokeValidator(baseURL, email, password string) *SmokeValidator {
	return &SmokeValidator{baseURL: baseURL, email: email, password: password}
}

func (v *SmokeValidator) ValidateAll() error {
	log.Println("Validating API endpoints...")

	if err := v.validateHealth(); err != nil {
		return fmt.Errorf("health validation failed: %w", err)
	}

	performanceID, err := v.validatePerformances()
	if err != nil {
		return fmt.Errorf("performances validation failed: %w", err)
	}

	seatIDs, err := v.validateSeats(performanceID)
	if err != nil {
		return fmt.Errorf("seats validation failed: %w", err)
	}

	if err := v.validateBookingCycle(performanceID, seatIDs); err != nil {
		return fmt.Errorf("booking cycle validation failed: %w", err)
	}

	log.Println("All endpoints validated successfully")
	return nil
}

func (v *SmokeValidator) validateHealth() error {
	resp, err := http.Get(v.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /health: expected 200, got %d", resp.StatusCode)
	}
	return nil
}

func (v *SmokeValidator) validatePerformances() (int64, error) {
	resp, err := v.makeRequest("GET", "/api/performances", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/performances: expected 200, got %d", resp.StatusCode)
	}

	var performances []models.ListPerformancesResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&performances); err != nil {
		return 0, fmt.Errorf("GET /api/performances: failed to decode response: %w", err)
	}

	for _, p := range performances {
		if p.Status == models.PerformanceScheduled && p.AvailableSeats > 0 {
			return p.PerformanceID, nil
		}
	}
	return 0, fmt.Errorf("GET /api/performances: no scheduled performance with availability")
}

func (v *SmokeValidator) validateSeats(performanceID int64) ([]int64, error) {
	path := fmt.Sprintf("/api/performances/%d/seats", performanceID)
	resp, err := v.makeRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}

	var seats []models.ListSeatsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&seats); err != nil {
		return nil, fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}

	var free []int64
	for _, seat := range seats {
		if !seat.Occupied && seat.Price != nil {
			free = append(free, seat.SeatID)
		}
		if len(free) == 2 {
			break
		}
	}
	if len(free) == 0 {
		return nil, fmt.Errorf("GET %s: no free priced seats", path)
	}
	return free, nil
}

func (v *SmokeValidator) validateBookingCycle(performanceID int64, seatIDs []int64) error {
	createReq := models.CreateBookingRequest{
		PerformanceID: performanceID,
		SeatIDs:       seatIDs,
	}

	resp, err := v.makeRequest("POST", "/api/bookings", createReq)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		return fmt.Errorf("POST /api/bookings: expected 201, got %d", resp.StatusCode)
	}

	var receipt models.BookingReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		resp.Body.Close()
		return fmt.Errorf("POST /api/bookings: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if receipt.BookingID == 0 || receipt.Reference == "" {
		return fmt.Errorf("POST /api/bookings: missing booking id or reference")
	}
	if receipt.Status != models.BookingPending {
		return fmt.Errorf("POST /api/bookings: expected Pending status, got %s", receipt.Status)
	}

	cancelReq := models.CancelBookingRequest{BookingID: receipt.BookingID}
	resp, err = v.makeRequest("PATCH", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PATCH /api/bookings/cancel: expected 200, got %d", resp.StatusCode)
	}

	// Cancelling again must be rejected, the booking is terminal now.
	resp, err = v.makeRequest("PATCH", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("PATCH /api/bookings/cancel (repeat): expected 400, got %d", resp.StatusCode)
	}

	return nil
}

func (v *SmokeValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	req.SetBasicAuth(v.email, v.password)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// RunValidation runs the smoke check against a running instance.
func RunValidation() {
	baseURL := os.Getenv("VALIDATE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	validator := NewSmokeValidator(baseURL,
		os.Getenv("VALIDATE_EMAIL"), os.Getenv("VALIDATE_PASSWORD"))
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Validation failed: %v", err)
	}
}
