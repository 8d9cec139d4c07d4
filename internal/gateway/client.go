package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
)

const (
	// CodeSuccess means the provider settled immediately.
	CodeSuccess = "0000"
	// CodePending means the provider accepted and will settle via callback.
	CodePending = "0001"
)

// Client is the settlement surface the purchase engine depends on.
type Client interface {
	// Submit sends a purchase to the provider. A non-nil error is either a
	// *TransportError or a local request-building failure.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	// QueryStatus asks the provider for the settlement state of a transaction.
	QueryStatus(ctx context.Context, q StatusQuery) (*StatusResult, error)
	// Lookup runs a pre-purchase query (bundle list, meter info, bill account).
	Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error)
}

type SubmitRequest struct {
	ServiceID       string
	Destination     string
	Amount          int64 // micros
	CallbackURL     string
	ClientReference string
	ExtraData       map[string]string
}

type SubmitResult struct {
	ProviderTransactionID string
	ResponseCode          string
	Message               string
	Raw                   json.RawMessage
}

// StatusQuery needs at least one identifier.
type StatusQuery struct {
	ClientReference       string
	ProviderTransactionID string
	NetworkTransactionID  string
}

func (q StatusQuery) Empty() bool {
	return strings.TrimSpace(q.ClientReference) == "" &&
		strings.TrimSpace(q.ProviderTransactionID) == "" &&
		strings.TrimSpace(q.NetworkTransactionID) == ""
}

type StatusResult struct {
	// ProviderStatus is the provider's own wording, e.g. "Paid".
	ProviderStatus        string
	ProviderTransactionID string
	ResponseCode          string
	Message               string
	Raw                   json.RawMessage
}

type LookupRequest struct {
	ServiceID   string
	Destination string
	Params      map[string]string
}

type LookupResult struct {
	ResponseCode string
	Message      string
	Options      []models.LookupOption
	Raw          json.RawMessage
}

// TransportError is a failure to get a usable answer from the provider:
// timeouts, connection errors and 5xx responses.
type TransportError struct {
	Op         string
	StatusCode int
	Raw        json.RawMessage
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MapResponseCode converts a provider response code to an internal status.
// An empty code is still pending.
func MapResponseCode(code string) string {
	switch strings.TrimSpace(code) {
	case CodeSuccess:
		return domain.StatusSuccess
	case CodePending, "":
		return domain.StatusProcessing
	default:
		return domain.StatusFailed
	}
}

// MapCallbackCode converts a settlement callback's response code to a
// terminal status. Callbacks are final: anything but CodeSuccess is a failure.
func MapCallbackCode(code string) string {
	if strings.TrimSpace(code) == CodeSuccess {
		return domain.StatusSuccess
	}
	return domain.StatusFailed
}

// MapProviderStatus converts a status-query answer to an internal status.
// Unknown wording stays pending.
func MapProviderStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "success", "successful", "completed":
		return domain.StatusSuccess
	case "failed", "refunded", "cancelled", "canceled", "reversed":
		return domain.StatusFailed
	default:
		return domain.StatusProcessing
	}
}
