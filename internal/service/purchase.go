package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/idempotency"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultProviderTimeout = 15 * time.Second

// PurchaseConfig holds the orchestrator's deployment settings.
type PurchaseConfig struct {
	// CallbackURL is sent to providers as CallbackUrl.
	CallbackURL          string
	ProviderTimeout      time.Duration
	DisbursementsEnabled bool
	Currency             string
}

// PurchaseService runs the purchase saga: debit, submit, then settle or refund.
type PurchaseService struct {
	store    QueryStore
	guard    *idempotency.Guard
	resolver *ProviderResolver
	registry *gateway.Registry
	ledger   *Ledger
	audit    *AuditService
	cfg      PurchaseConfig
	now      func() time.Time
}

func NewPurchaseService(store QueryStore, guard *idempotency.Guard, resolver *ProviderResolver, registry *gateway.Registry, cfg PurchaseConfig) *PurchaseService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.DefaultCurrency
	}
	audit := NewAuditService(store)
	return &PurchaseService{
		store:    store,
		guard:    guard,
		resolver: resolver,
		registry: registry,
		ledger:   NewLedger(audit),
		audit:    audit,
		cfg:      cfg,
		now:      time.Now,
	}
}

// PurchaseCommand is one customer purchase attempt.
type PurchaseCommand struct {
	OwnerID        string
	Product        string
	Amount         int64 // micros
	Destination    string
	Provider       ProviderRef
	Fields         map[string]string
	IdempotencyKey string
}

// PurchaseResult is returned for new and replayed purchases alike.
type PurchaseResult struct {
	TransactionReference string          `json:"transaction_reference"`
	Status               string          `json:"status"`
	ProviderPayload      json.RawMessage `json:"provider_payload,omitempty"`
	PurchaseID           uuid.UUID       `json:"purchase_id"`
	TransactionID        uuid.UUID       `json:"transaction_id"`
	Duplicate            bool            `json:"duplicate"`
}

// Purchase validates, debits, submits and settles one purchase. Errors before
// the debit have no side effects. Failures after the debit are refunded and
// reported as a FAILED result, not as an error.
func (s *PurchaseService) Purchase(ctx context.Context, cmd PurchaseCommand) (*PurchaseResult, error) {
	descriptor, err := s.validate(&cmd)
	if err != nil {
		return nil, err
	}

	key, err := idempotency.NormalizeKey(cmd.IdempotencyKey)
	if err != nil {
		return nil, domain.Wrap(domain.KindValidation, err, "invalid idempotency key")
	}
	fingerprint := requestFingerprint(cmd, descriptor)
	if key != "" {
		if res, err := s.replay(ctx, key, fingerprint); err == nil {
			return res, nil
		} else if !errors.Is(err, idempotency.ErrNotFound) {
			return nil, err
		}
	} else {
		key = idempotency.NewKey(descriptor.ReferencePrefix)
	}

	executed := false
	v, err, _ := s.guard.Do(key, func() (interface{}, error) {
		executed = true
		return s.execute(ctx, cmd, descriptor, key, fingerprint)
	})
	if err != nil {
		return nil, err
	}
	res := *(v.(*PurchaseResult))
	if !executed {
		observability.IncrementIdempotencyEvent("collapsed")
		res.Duplicate = true
	}
	return &res, nil
}

func (s *PurchaseService) validate(cmd *PurchaseCommand) (domain.ProductDescriptor, error) {
	descriptor, ok := domain.LookupProduct(cmd.Product)
	if !ok {
		return domain.ProductDescriptor{}, domain.Newf(domain.KindValidation, "unknown product %q", cmd.Product)
	}
	cmd.Product = string(descriptor.Key)
	cmd.OwnerID = strings.TrimSpace(cmd.OwnerID)
	cmd.Destination = strings.TrimSpace(cmd.Destination)

	if cmd.Amount <= 0 {
		return descriptor, domain.New(domain.KindValidation, "amount must be greater than zero")
	}
	if !domain.IsWholeCents(cmd.Amount) {
		return descriptor, domain.New(domain.KindValidation, "amount must not have more than two decimal places")
	}
	if cmd.OwnerID == "" {
		return descriptor, domain.New(domain.KindValidation, "owner is required")
	}
	if cmd.Destination == "" {
		return descriptor, domain.New(domain.KindValidation, "destination is required")
	}
	if cmd.Provider.Empty() {
		return descriptor, domain.New(domain.KindValidation, "provider_id or provider_code is required")
	}
	if missing := descriptor.MissingFields(cmd.Fields); len(missing) > 0 {
		return descriptor, domain.Newf(domain.KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return descriptor, nil
}

func requestFingerprint(cmd PurchaseCommand, d domain.ProductDescriptor) string {
	fields := make(map[string]string, len(d.RequiredFields))
	for _, name := range d.RequiredFields {
		fields[name] = strings.TrimSpace(cmd.Fields[name])
	}
	return idempotency.Fingerprint(map[string]interface{}{
		"owner":       cmd.OwnerID,
		"product":     cmd.Product,
		"amount":      cmd.Amount,
		"destination": cmd.Destination,
		"provider":    cmd.Provider.String(),
		"fields":      fields,
	})
}

// replay returns the stored outcome for key, or idempotency.ErrNotFound.
func (s *PurchaseService) replay(ctx context.Context, key, fingerprint string) (*PurchaseResult, error) {
	tx, err := s.guard.Lookup(ctx, key, fingerprint)
	if err != nil {
		if errors.Is(err, idempotency.ErrFingerprintMismatch) {
			observability.IncrementIdempotencyEvent("mismatch")
			return nil, domain.Wrap(domain.KindIdempotencyMismatch, err, "idempotency key was already used for a different request")
		}
		return nil, err
	}
	observability.IncrementIdempotencyEvent("replay")
	return s.resultFor(ctx, tx, true)
}

func (s *PurchaseService) resultFor(ctx context.Context, tx repository.Transaction, duplicate bool) (*PurchaseResult, error) {
	res := &PurchaseResult{
		TransactionReference: tx.Reference,
		Status:               tx.Status,
		TransactionID:        repository.FromPgUUID(tx.ID),
		Duplicate:            duplicate,
	}
	if !tx.RelatedPurchaseID.Valid {
		return res, nil
	}
	purchaseID := repository.FromPgUUID(tx.RelatedPurchaseID)
	res.PurchaseID = purchaseID

	queries := s.store.Queries()
	purchase, err := queries.GetPurchaseRequest(ctx, tx.RelatedPurchaseID)
	if err != nil {
		return nil, fmt.Errorf("load purchase for replay: %w", err)
	}
	res.Status = purchase.Status
	res.ProviderPayload = s.latestProviderPayload(ctx, purchaseID)
	return res, nil
}

func (s *PurchaseService) latestProviderPayload(ctx context.Context, purchaseID uuid.UUID) json.RawMessage {
	aggregateID := purchaseID
	if d, err := s.store.Queries().GetDisbursementByPurchase(ctx, repository.ToPgUUID(purchaseID)); err == nil {
		aggregateID = repository.FromPgUUID(d.ID)
	}
	logs, err := s.audit.ResponseLogs(ctx, aggregateID)
	if err != nil || len(logs) == 0 {
		return nil
	}
	return logs[len(logs)-1].RawResponse
}

type pendingPurchase struct {
	purchase       repository.PurchaseRequest
	debit          repository.Transaction
	disbursementID *uuid.UUID
}

func (s *PurchaseService) execute(ctx context.Context, cmd PurchaseCommand, descriptor domain.ProductDescriptor, key, fingerprint string) (*PurchaseResult, error) {
	provider, err := s.resolver.Resolve(ctx, cmd.Provider, descriptor.Channel)
	if err != nil {
		return nil, err
	}
	client, err := s.registry.ClientFor(provider)
	if err != nil {
		return nil, domain.Wrap(domain.KindProvider, err, "provider client unavailable")
	}

	wallet, err := s.store.Queries().GetWalletByOwner(ctx, repository.GetWalletByOwnerParams{
		OwnerID:   cmd.OwnerID,
		OwnerType: domain.OwnerTypeCustomer,
		Currency:  s.cfg.Currency,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.New(domain.KindNotFound, "wallet not found")
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	details := models.PurchaseDetails{
		Product:      cmd.Product,
		ServiceID:    descriptor.ServiceID(provider.Config.ServiceIDs()),
		ProviderCode: provider.Code,
		Channel:      string(descriptor.Channel),
		Fields:       cmd.Fields,
		ExtraData:    descriptor.ExtraData(cmd.Fields),
	}
	reference := domain.NewReference(descriptor.ReferencePrefix, s.now())

	pending, err := s.debitAndRecord(ctx, cmd, descriptor, repository.FromPgUUID(wallet.ID), provider, details, reference, key, fingerprint)
	if err != nil {
		if idempotency.IsKeyConflict(err) {
			observability.IncrementIdempotencyEvent("conflict")
			tx, lookupErr := s.guard.Lookup(ctx, key, fingerprint)
			if lookupErr != nil {
				if errors.Is(lookupErr, idempotency.ErrFingerprintMismatch) {
					return nil, domain.Wrap(domain.KindIdempotencyMismatch, lookupErr, "idempotency key was already used for a different request")
				}
				return nil, fmt.Errorf("fetch existing purchase after key conflict: %w", lookupErr)
			}
			return s.resultFor(ctx, tx, true)
		}
		return nil, err
	}
	s.guard.Remember(ctx, key, fingerprint, repository.FromPgUUID(pending.debit.ID))

	// The debit is committed; the rest must finish even if the caller goes away.
	bg := context.WithoutCancel(ctx)
	res, payload := s.submit(bg, client, provider, pending, details, cmd)

	final, err := s.settle(bg, repository.FromPgUUID(pending.purchase.ID), res)
	if err != nil {
		zap.L().Error("purchase settlement failed",
			zap.String("reference", reference),
			zap.String("outcome", res.Outcome),
			zap.Error(err))
		return nil, fmt.Errorf("settle purchase %s: %w", reference, err)
	}
	observability.IncrementPurchase(cmd.Product, final.Status)

	return &PurchaseResult{
		TransactionReference: reference,
		Status:               final.Status,
		ProviderPayload:      payload,
		PurchaseID:           repository.FromPgUUID(pending.purchase.ID),
		TransactionID:        repository.FromPgUUID(pending.debit.ID),
	}, nil
}

// debitAndRecord commits the purchase, its debit and the optional
// disbursement together. The wallet is locked first.
func (s *PurchaseService) debitAndRecord(ctx context.Context, cmd PurchaseCommand, descriptor domain.ProductDescriptor, walletID uuid.UUID, provider models.Provider, details models.PurchaseDetails, reference, key, fingerprint string) (*pendingPurchase, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode purchase details: %w", err)
	}

	purchaseID := uuid.New()
	out := &pendingPurchase{}
	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if _, err := qtx.GetWalletForUpdate(ctx, repository.ToPgUUID(walletID)); err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		purchase, err := qtx.CreatePurchaseRequest(ctx, repository.CreatePurchaseRequestParams{
			ID:             repository.ToPgUUID(purchaseID),
			OwnerID:        cmd.OwnerID,
			WalletID:       repository.ToPgUUID(walletID),
			Amount:         cmd.Amount,
			Currency:       s.cfg.Currency,
			ProviderID:     repository.ToPgUUID(provider.ID),
			Product:        cmd.Product,
			Destination:    cmd.Destination,
			Reference:      reference,
			CallbackUrl:    s.cfg.CallbackURL,
			RequestDetails: detailsJSON,
			Status:         domain.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("create purchase request: %w", err)
		}
		if err := s.audit.Write(ctx, qtx, "purchase", purchaseID, nil, "created", "", domain.StatusPending,
			marshalMetadata(map[string]string{"product": cmd.Product, "provider": provider.Code})); err != nil {
			return err
		}

		debit, err := s.ledger.Debit(ctx, qtx, walletID, cmd.Amount, LedgerEntry{
			OwnerID:           cmd.OwnerID,
			Reference:         reference,
			IdempotencyKey:    key,
			Fingerprint:       fingerprint,
			Status:            domain.StatusPending,
			RelatedPurchaseID: &purchaseID,
			ServiceType:       descriptor.ServiceType,
			Description:       descriptor.DescribeFor(cmd.Destination),
		})
		if err != nil {
			return err
		}

		out.purchase = purchase
		out.debit = debit

		if s.cfg.DisbursementsEnabled {
			disbursementID := uuid.New()
			if _, err := qtx.CreateDisbursement(ctx, repository.CreateDisbursementParams{
				ID:            repository.ToPgUUID(disbursementID),
				Reference:     reference,
				TransactionID: debit.ID,
				PurchaseID:    purchase.ID,
				ProviderID:    repository.ToPgUUID(provider.ID),
				Amount:        cmd.Amount,
				Currency:      s.cfg.Currency,
				Status:        domain.StatusPending,
			}); err != nil {
				return fmt.Errorf("create disbursement: %w", err)
			}
			out.disbursementID = &disbursementID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// submit calls the provider and appends the raw exchange to the response log.
func (s *PurchaseService) submit(ctx context.Context, client gateway.Client, provider models.Provider, pending *pendingPurchase, details models.PurchaseDetails, cmd PurchaseCommand) (settlement, json.RawMessage) {
	reference := pending.purchase.Reference
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	started := time.Now()
	result, err := client.Submit(callCtx, gateway.SubmitRequest{
		ServiceID:       details.ServiceID,
		Destination:     cmd.Destination,
		Amount:          cmd.Amount,
		CallbackURL:     s.cfg.CallbackURL,
		ClientReference: reference,
		ExtraData:       details.ExtraData,
	})

	logEntry := ProviderResponse{
		AggregateType: domain.AggregatePurchase,
		AggregateID:   repository.FromPgUUID(pending.purchase.ID),
		ProviderName:  provider.Code,
		CorrelationID: reference,
	}
	if pending.disbursementID != nil {
		logEntry.AggregateType = domain.AggregateDisbursement
		logEntry.AggregateID = *pending.disbursementID
	}

	var st settlement
	if err != nil {
		var transportErr *gateway.TransportError
		logEntry.Status = domain.ResponseStatusTransportError
		if errors.As(err, &transportErr) && len(transportErr.Raw) > 0 {
			logEntry.Raw = transportErr.Raw
		} else {
			logEntry.Raw, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		observability.ObserveProviderCall(provider.Code, "submit", "transport_error", time.Since(started))
		zap.L().Warn("provider submit failed",
			zap.String("reference", reference),
			zap.String("provider", provider.Code),
			zap.Error(err))
		st = settlement{Outcome: domain.StatusFailed, Reason: err.Error(), Source: "purchase"}
	} else {
		logEntry.Status = result.ResponseCode
		if logEntry.Status == "" {
			logEntry.Status = domain.StatusPending
		}
		logEntry.Raw = result.Raw
		if result.ProviderTransactionID != "" {
			logEntry.CorrelationID = result.ProviderTransactionID
		}
		outcome := gateway.MapResponseCode(result.ResponseCode)
		observability.ObserveProviderCall(provider.Code, "submit", strings.ToLower(outcome), time.Since(started))
		st = settlement{
			Outcome:     outcome,
			ProviderRef: result.ProviderTransactionID,
			Reason:      result.Message,
			Source:      "purchase",
		}
	}

	if err := s.audit.LogProviderResponse(ctx, nil, logEntry); err != nil {
		zap.L().Error("failed to record provider response",
			zap.String("reference", reference),
			zap.Error(err))
	}
	return st, logEntry.Raw
}

// settlement is an outcome to apply to a purchase.
type settlement struct {
	// Outcome is PROCESSING, SUCCESS or FAILED.
	Outcome     string
	ProviderRef string
	Reason      string
	// Source names the path that produced the outcome: purchase, callback or status_poll.
	Source  string
	ActorID *uuid.UUID
}

type settleResult struct {
	Status     string
	Applied    bool
	Compensate bool
	Conflict   bool
}

// settle drives a purchase to st.Outcome under a row lock on the purchase.
// A terminal purchase is never changed: a matching outcome is a no-op and a
// disagreeing one is recorded as a reconciliation conflict.
func (s *PurchaseService) settle(ctx context.Context, purchaseID uuid.UUID, st settlement) (settleResult, error) {
	var res settleResult
	var purchase repository.PurchaseRequest
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		var err error
		purchase, err = qtx.GetPurchaseRequestForUpdate(ctx, repository.ToPgUUID(purchaseID))
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.New(domain.KindNotFound, "purchase not found")
			}
			return fmt.Errorf("lock purchase: %w", err)
		}
		res.Status = purchase.Status

		if domain.IsTerminal(purchase.Status) {
			if domain.IsTerminal(st.Outcome) && st.Outcome != purchase.Status {
				res.Conflict = true
				metadata := marshalMetadata(map[string]string{
					"reference":        purchase.Reference,
					"source":           st.Source,
					"reported_outcome": st.Outcome,
					"provider_ref":     st.ProviderRef,
					"reason":           st.Reason,
				})
				return s.audit.Write(ctx, qtx, "purchase", purchaseID, st.ActorID, ActionReconciliationConflict, purchase.Status, st.Outcome, metadata)
			}
			return nil
		}

		switch st.Outcome {
		case domain.StatusProcessing:
			if purchase.Status == domain.StatusProcessing {
				return nil
			}
			res.Applied = true
			res.Status = domain.StatusProcessing
			return s.moveAll(ctx, qtx, purchase, domain.StatusProcessing, st)
		case domain.StatusSuccess:
			res.Applied = true
			res.Status = domain.StatusSuccess
			return s.moveAll(ctx, qtx, purchase, domain.StatusSuccess, st)
		case domain.StatusFailed:
			res.Applied = true
			res.Compensate = true
			res.Status = domain.StatusFailed
			if err := s.compensate(ctx, qtx, purchase, st); err != nil {
				return err
			}
			return s.moveAll(ctx, qtx, purchase, domain.StatusFailed, st)
		default:
			return fmt.Errorf("unknown settlement outcome %q", st.Outcome)
		}
	})
	if err != nil {
		return settleResult{}, err
	}

	switch {
	case res.Conflict:
		observability.IncrementReconciliationConflict(st.Source)
		zap.L().Error("reconciliation conflict: provider outcome disagrees with terminal purchase",
			zap.String("reference", purchase.Reference),
			zap.String("purchase_id", purchaseID.String()),
			zap.String("local_status", purchase.Status),
			zap.String("reported_outcome", st.Outcome),
			zap.String("source", st.Source),
			zap.String("provider_ref", st.ProviderRef))
	case res.Compensate:
		observability.IncrementCompensation(st.Source)
		zap.L().Info("purchase refunded",
			zap.String("reference", purchase.Reference),
			zap.String("purchase_id", purchaseID.String()),
			zap.String("source", st.Source),
			zap.String("reason", st.Reason))
	case res.Applied:
		zap.L().Info("purchase settled",
			zap.String("reference", purchase.Reference),
			zap.String("status", res.Status),
			zap.String("source", st.Source))
	}
	return res, nil
}

// compensate credits the full purchase amount back to the wallet as a
// REFUND-<reference> transaction.
func (s *PurchaseService) compensate(ctx context.Context, qtx *repository.Queries, purchase repository.PurchaseRequest, st settlement) error {
	purchaseID := repository.FromPgUUID(purchase.ID)
	descriptor, _ := domain.LookupProduct(purchase.Product)
	_, err := s.ledger.Credit(ctx, qtx, repository.FromPgUUID(purchase.WalletID), purchase.Amount, LedgerEntry{
		OwnerID:           purchase.OwnerID,
		Reference:         domain.RefundReference(purchase.Reference),
		Status:            domain.StatusSuccess,
		RelatedPurchaseID: &purchaseID,
		ServiceType:       descriptor.ServiceType,
		Description:       "Refund for " + purchase.Reference,
	})
	if err != nil {
		return fmt.Errorf("refund purchase %s: %w", purchase.Reference, err)
	}
	return nil
}

// moveAll transitions the purchase, its debit and its disbursement together.
func (s *PurchaseService) moveAll(ctx context.Context, qtx *repository.Queries, purchase repository.PurchaseRequest, next string, st settlement) error {
	action := strings.ToLower(st.Source + "_" + next)
	metadata := marshalMetadata(map[string]string{"reason": st.Reason, "provider_ref": st.ProviderRef})
	providerRef := textParam(st.ProviderRef)

	if err := transitionPurchaseState(ctx, qtx, s.audit, purchase, next, providerRef, st.ActorID, action, metadata); err != nil {
		return err
	}

	debit, err := qtx.GetDebitByPurchase(ctx, purchase.ID)
	if err != nil {
		return fmt.Errorf("get purchase debit: %w", err)
	}
	if err := transitionTransactionState(ctx, qtx, s.audit, repository.FromPgUUID(debit.ID), next, st.ActorID, action, metadata); err != nil {
		return err
	}

	disbursement, err := qtx.GetDisbursementByPurchase(ctx, purchase.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("get disbursement: %w", err)
	}
	var errorMessage *string
	if next == domain.StatusFailed {
		errorMessage = textParam(st.Reason)
	}
	return transitionDisbursementState(ctx, qtx, s.audit, disbursement, next, providerRef, errorMessage, st.ActorID, action)
}

// PurchaseView is a purchase with its ledger rows.
type PurchaseView struct {
	Purchase     models.Purchase              `json:"purchase"`
	Transactions []models.Transaction         `json:"transactions"`
	Disbursement *models.Disbursement         `json:"disbursement,omitempty"`
	Responses    []models.ProviderResponseLog `json:"provider_responses,omitempty"`
}

// GetPurchase loads a purchase by reference. Non-admin callers only see
// their own purchases.
func (s *PurchaseService) GetPurchase(ctx context.Context, reference, ownerID string, admin bool) (*PurchaseView, error) {
	queries := s.store.Queries()
	row, err := queries.GetPurchaseRequestByReference(ctx, strings.TrimSpace(reference))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.New(domain.KindNotFound, "purchase not found")
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	if !admin && row.OwnerID != ownerID {
		return nil, domain.New(domain.KindNotFound, "purchase not found")
	}

	purchase, err := repository.PurchaseModel(row)
	if err != nil {
		return nil, err
	}
	view := &PurchaseView{Purchase: purchase}

	txs, err := queries.ListTransactionsByPurchase(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list purchase transactions: %w", err)
	}
	for _, tx := range txs {
		view.Transactions = append(view.Transactions, repository.TransactionModel(tx))
	}
	sort.SliceStable(view.Transactions, func(i, j int) bool {
		return view.Transactions[i].CreatedAt.Before(view.Transactions[j].CreatedAt)
	})

	aggregateID := purchase.ID
	if d, err := queries.GetDisbursementByPurchase(ctx, row.ID); err == nil {
		m := repository.DisbursementModel(d)
		view.Disbursement = &m
		aggregateID = m.ID
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("get disbursement: %w", err)
	}

	if admin {
		view.Responses, err = s.audit.ResponseLogs(ctx, aggregateID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}
