package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	UseMock bool
}

// ChargeRequest is one settlement attempt sent to the gateway. TransactionID
// is assigned by the caller and doubles as the idempotency key.
type ChargeRequest struct {
	TransactionID    string `json:"transactionId"`
	BookingReference string `json:"bookingReference"`
	Amount           int64  `json:"amount"`
	Method           string `json:"method"`
}

// ChargeResult reports the gateway's decision. A decline is a normal result,
// not an error; errors mean the gateway could not be reached or answered
// garbage.
type ChargeResult struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failureReason,omitempty"`
}

// RefundRequest reverses a completed charge, in full or in part.
type RefundRequest struct {
	TransactionID string `json:"transactionId"`
	OriginalTxnID string `json:"originalTransactionId"`
	Amount        int64  `json:"amount"`
}

// PaymentGateway is the charge/refund boundary. The HTTP client talks to the
// real processor; the mock stands in for load tests and local runs.
type PaymentGateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req *RefundRequest) error
}

type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GatewayClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateToken signs a request: parameter values concatenated in key order
// plus the API key, hashed with SHA-256.
func (gc *GatewayClient) generateToken(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}
	tokenString += gc.apiKey

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

func (gc *GatewayClient) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	token := gc.generateToken(map[string]string{
		"Amount":        strconv.FormatInt(req.Amount, 10),
		"TransactionId": req.TransactionID,
	})

	body := map[string]interface{}{
		"token":            token,
		"transactionId":    req.TransactionID,
		"bookingReference": req.BookingReference,
		"amount":           req.Amount,
		"method":           req.Method,
	}

	var result ChargeResult
	if err := gc.post(ctx, "/api/v1/charges", body, &result); err != nil {
		return nil, fmt.Errorf("failed to charge: %w", err)
	}

	return &result, nil
}

func (gc *GatewayClient) Refund(ctx context.Context, req *RefundRequest) error {
	token := gc.generateToken(map[string]string{
		"Amount":        strconv.FormatInt(req.Amount, 10),
		"TransactionId": req.TransactionID,
	})

	body := map[string]interface{}{
		"token":                 token,
		"transactionId":         req.TransactionID,
		"originalTransactionId": req.OriginalTxnID,
		"amount":                req.Amount,
	}

	var result ChargeResult
	if err := gc.post(ctx, "/api/v1/refunds", body, &result); err != nil {
		return fmt.Errorf("failed to refund: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("refund rejected: %s", result.FailureReason)
	}

	return nil
}

func (gc *GatewayClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, gc.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
