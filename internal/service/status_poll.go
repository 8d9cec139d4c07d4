package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const (
	defaultStaleAfter     = 5 * time.Minute
	defaultPollBatchSize  = 50
	settlementSourcePoll  = "status_poll"
	settlementSourceAdmin = "manual"
)

// StatusPollService asks providers about purchases that never got a callback.
type StatusPollService struct {
	store      QueryStore
	purchases  *PurchaseService
	resolver   *ProviderResolver
	registry   *gateway.Registry
	audit      *AuditService
	timeout    time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewStatusPollService(store QueryStore, purchases *PurchaseService, resolver *ProviderResolver, registry *gateway.Registry, timeout, staleAfter time.Duration) *StatusPollService {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &StatusPollService{
		store:      store,
		purchases:  purchases,
		resolver:   resolver,
		registry:   registry,
		audit:      NewAuditService(store),
		timeout:    timeout,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// ProviderStatus is the provider's view of a purchase next to ours.
type ProviderStatus struct {
	Reference      string          `json:"reference"`
	LocalStatus    string          `json:"local_status"`
	ProviderStatus string          `json:"provider_status"`
	MappedStatus   string          `json:"mapped_status"`
	ResponseCode   string          `json:"response_code"`
	Message        string          `json:"message,omitempty"`
	ProviderRef    string          `json:"provider_ref,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// ReconcileResult reports the effect of a reconciliation attempt.
type ReconcileResult struct {
	ProviderStatus
	Status   string `json:"status"`
	Applied  bool   `json:"applied"`
	Conflict bool   `json:"conflict"`
}

// QueryProviderStatus fetches the provider's status without changing state.
func (s *StatusPollService) QueryProviderStatus(ctx context.Context, reference string) (*ProviderStatus, error) {
	purchase, err := s.loadPurchase(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, purchase)
}

func (s *StatusPollService) loadPurchase(ctx context.Context, reference string) (repository.PurchaseRequest, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return repository.PurchaseRequest{}, domain.New(domain.KindValidation, "reference is required")
	}
	purchase, err := s.store.Queries().GetPurchaseRequestByReference(ctx, reference)
	if err != nil {
		if repository.IsNotFound(err) {
			return repository.PurchaseRequest{}, domain.New(domain.KindNotFound, "purchase not found")
		}
		return repository.PurchaseRequest{}, fmt.Errorf("get purchase: %w", err)
	}
	return purchase, nil
}

func (s *StatusPollService) query(ctx context.Context, purchase repository.PurchaseRequest) (*ProviderStatus, error) {
	provider, err := s.resolver.providerByID(ctx, repository.FromPgUUID(purchase.ProviderID))
	if err != nil {
		return nil, err
	}
	client, err := s.registry.ClientFor(provider)
	if err != nil {
		return nil, domain.Wrap(domain.KindProvider, err, "provider client unavailable")
	}

	q := gateway.StatusQuery{ClientReference: purchase.Reference}
	if purchase.ProviderRef != nil {
		q.ProviderTransactionID = *purchase.ProviderRef
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	result, err := client.QueryStatus(callCtx, q)

	logEntry := ProviderResponse{
		AggregateType: domain.AggregateQuery,
		AggregateID:   repository.FromPgUUID(purchase.ID),
		ProviderName:  provider.Code,
		CorrelationID: purchase.Reference,
	}
	if err != nil {
		var transportErr *gateway.TransportError
		logEntry.Status = domain.ResponseStatusTransportError
		if errors.As(err, &transportErr) {
			logEntry.Raw = transportErr.Raw
		}
		s.logResponse(ctx, logEntry)
		observability.ObserveProviderCall(provider.Code, "status", "transport_error", time.Since(started))
		return nil, domain.Wrap(domain.KindProvider, err, "provider status query failed")
	}

	logEntry.Status = result.ResponseCode
	if logEntry.Status == "" {
		logEntry.Status = domain.StatusPending
	}
	logEntry.Raw = result.Raw
	s.logResponse(ctx, logEntry)

	status := &ProviderStatus{
		Reference:      purchase.Reference,
		LocalStatus:    purchase.Status,
		ProviderStatus: result.ProviderStatus,
		MappedStatus:   domain.StatusProcessing,
		ResponseCode:   result.ResponseCode,
		Message:        result.Message,
		ProviderRef:    result.ProviderTransactionID,
		Raw:            result.Raw,
	}
	// A non-success code means the query itself failed, not the purchase.
	if result.ResponseCode == gateway.CodeSuccess {
		status.MappedStatus = gateway.MapProviderStatus(result.ProviderStatus)
	}
	observability.ObserveProviderCall(provider.Code, "status", strings.ToLower(status.MappedStatus), time.Since(started))
	return status, nil
}

func (s *StatusPollService) logResponse(ctx context.Context, entry ProviderResponse) {
	if err := s.audit.LogProviderResponse(ctx, nil, entry); err != nil {
		zap.L().Error("failed to record provider status response",
			zap.String("reference", entry.CorrelationID),
			zap.Error(err))
	}
}

// Reconcile queries the provider and settles the purchase when the provider
// reports a terminal outcome. actorID is nil for automatic sweeps.
func (s *StatusPollService) Reconcile(ctx context.Context, reference string, actorID *uuid.UUID) (*ReconcileResult, error) {
	purchase, err := s.loadPurchase(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, purchase, actorID)
}

func (s *StatusPollService) reconcile(ctx context.Context, purchase repository.PurchaseRequest, actorID *uuid.UUID) (*ReconcileResult, error) {
	status, err := s.query(ctx, purchase)
	if err != nil {
		return nil, err
	}

	out := &ReconcileResult{ProviderStatus: *status, Status: purchase.Status}
	if !domain.IsTerminal(status.MappedStatus) {
		return out, nil
	}

	source := settlementSourcePoll
	if actorID != nil {
		source = settlementSourceAdmin
	}
	res, err := s.purchases.settle(ctx, repository.FromPgUUID(purchase.ID), settlement{
		Outcome:     status.MappedStatus,
		ProviderRef: status.ProviderRef,
		Reason:      status.Message,
		Source:      source,
		ActorID:     actorID,
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		observability.IncrementPurchase(purchase.Product, res.Status)
	}
	out.Status = res.Status
	out.Applied = res.Applied
	out.Conflict = res.Conflict
	return out, nil
}

// SweepStale reconciles up to batchSize purchases that have been non-terminal
// for longer than the stale window. It returns how many were settled.
func (s *StatusPollService) SweepStale(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultPollBatchSize
	}
	stale, err := s.store.Queries().ListStalePurchases(ctx, repository.ListStalePurchasesParams{
		Before: pgtype.Timestamptz{Time: s.now().Add(-s.staleAfter), Valid: true},
		Limit:  int32(batchSize),
	})
	if err != nil {
		return 0, fmt.Errorf("list stale purchases: %w", err)
	}

	settled := 0
	for _, purchase := range stale {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		res, err := s.reconcile(ctx, purchase, nil)
		if err != nil {
			zap.L().Warn("status poll failed",
				zap.String("reference", purchase.Reference),
				zap.Error(err))
			continue
		}
		if res.Applied {
			settled++
		}
	}
	return settled, nil
}
