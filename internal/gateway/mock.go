package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/shopspring/decimal"
)

// MockClient simulates a provider for local development and tests.
// With the zero config it answers every submit with CodePending, so purchases
// wait for a callback or the status poller.
type MockClient struct {
	// ResponseCode is returned by Submit. Empty means CodePending.
	ResponseCode string
	// FailureRate is the probability (0.0 to 1.0) that Submit answers with a
	// provider failure code instead of ResponseCode.
	FailureRate float64
	// Delay is slept before Submit answers. Cancellation of ctx during the
	// delay surfaces as a *TransportError.
	Delay time.Duration
	// Err, when set, is returned by Submit as a transport failure.
	Err error
	// Status is returned by QueryStatus. Empty means "Paid".
	Status string

	mu       sync.Mutex
	requests []SubmitRequest
}

// NewMockClient creates a MockClient with default settings.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Submitted returns a copy of every request Submit received.
func (g *MockClient) Submitted() []SubmitRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SubmitRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

func (g *MockClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return nil, &TransportError{Op: "submit", Err: fmt.Errorf("gateway call canceled: %w", ctx.Err())}
		}
	}
	if g.Err != nil {
		return nil, &TransportError{Op: "submit", Err: g.Err}
	}

	code := g.ResponseCode
	if code == "" {
		code = CodePending
	}
	if g.FailureRate > 0 && rand.Float64() < g.FailureRate {
		code = "2001"
	}

	// Format: MOCK-YYYYMMDD-HHMMSS-XXXXX
	ref := fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000))
	raw, _ := json.Marshal(map[string]any{
		"ResponseCode": code,
		"Message":      "mock provider",
		"Data": map[string]any{
			"TransactionId":   ref,
			"ClientReference": req.ClientReference,
			"Amount":          json.Number(decimal.NewFromInt(req.Amount).Shift(-6).StringFixed(2)),
		},
	})
	return &SubmitResult{
		ProviderTransactionID: ref,
		ResponseCode:          code,
		Message:               "mock provider",
		Raw:                   raw,
	}, nil
}

func (g *MockClient) QueryStatus(ctx context.Context, q StatusQuery) (*StatusResult, error) {
	if q.Empty() {
		return nil, fmt.Errorf("a client reference or transaction id is required")
	}
	status := g.Status
	if status == "" {
		status = "Paid"
	}
	raw, _ := json.Marshal(map[string]any{
		"responseCode": CodeSuccess,
		"data": map[string]any{
			"status":          status,
			"clientReference": q.ClientReference,
			"transactionId":   q.ProviderTransactionID,
		},
	})
	return &StatusResult{
		ProviderStatus:        status,
		ProviderTransactionID: q.ProviderTransactionID,
		ResponseCode:          CodeSuccess,
		Raw:                   raw,
	}, nil
}

func (g *MockClient) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	options := []models.LookupOption{
		{Display: "1GB", Value: "DATA1GB", Amount: decimal.NewFromInt(10)},
		{Display: "5GB", Value: "DATA5GB", Amount: decimal.NewFromInt(40)},
	}
	raw, _ := json.Marshal(map[string]any{
		"ResponseCode": CodeSuccess,
		"Message":      "mock lookup for " + req.Destination,
		"Data":         options,
	})
	return &LookupResult{
		ResponseCode: CodeSuccess,
		Message:      "mock lookup for " + req.Destination,
		Options:      options,
		Raw:          raw,
	}, nil
}
