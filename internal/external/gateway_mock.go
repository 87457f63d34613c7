package external

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockGatewayConfig tunes the simulated processor.
type MockGatewayConfig struct {
	// SuccessRate is the probability of a successful charge (0.0 to 1.0).
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds.
	DelayMs int

	FailureReasons []string
}

func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		SuccessRate: 0.95,
		DelayMs:     0,
		FailureReasons: []string{
			"insufficient_funds",
			"card_declined",
			"expired_card",
			"processing_error",
		},
	}
}

// MockGateway is an in-process PaymentGateway for tests and local runs.
// Charges succeed with the configured probability; refunds only succeed for
// transaction ids it has seen complete.
type MockGateway struct {
	mu           sync.Mutex
	config       *MockGatewayConfig
	transactions map[string]int64
}

func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}

	return &MockGateway{
		config:       config,
		transactions: make(map[string]int64),
	}
}

func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if rand.Float64() >= g.config.SuccessRate {
		reason := "payment_failed"
		if len(g.config.FailureReasons) > 0 {
			reason = g.config.FailureReasons[rand.Intn(len(g.config.FailureReasons))]
		}
		return &ChargeResult{Success: false, FailureReason: reason}, nil
	}

	g.transactions[req.TransactionID] = req.Amount
	return &ChargeResult{Success: true}, nil
}

func (g *MockGateway) Refund(ctx context.Context, req *RefundRequest) error {
	if err := g.delay(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	charged, ok := g.transactions[req.OriginalTxnID]
	if !ok {
		return fmt.Errorf("transaction not found: %s", req.OriginalTxnID)
	}
	if req.Amount > charged {
		return fmt.Errorf("refund of %d exceeds charged %d", req.Amount, charged)
	}

	delete(g.transactions, req.OriginalTxnID)
	return nil
}

// SetSuccessRate updates the success rate, for tests.
func (g *MockGateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.config.SuccessRate = rate
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}
