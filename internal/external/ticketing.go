package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type TicketingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IssueTicketRequest notifies the ticket fulfilment provider that a booking
// was paid, so e-tickets can be generated and mailed out.
type IssueTicketRequest struct {
	BookingReference string `json:"booking_reference"`
	QRPayload        string `json:"qr_payload"`
	Email            string `json:"email"`
}

// TicketingClient talks to the external ticket fulfilment service. Callers
// invoke it after confirmation and tolerate failure; ticket delivery is
// retried out of band, never rolled into the booking transaction.
type TicketingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTicketingClient(cfg TicketingConfig) *TicketingClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &TicketingClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (tc *TicketingClient) IssueTicket(ctx context.Context, req *IssueTicketRequest) error {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tc.baseURL+"/api/v1/tickets", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := tc.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to issue ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
