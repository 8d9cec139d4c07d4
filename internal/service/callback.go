package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidSignature = errors.New("invalid signature")

// CallbackService applies asynchronous provider results to purchases.
type CallbackService struct {
	store     QueryStore
	purchases *PurchaseService
	audit     *AuditService
	hmacKey   []byte
	skipSig   bool
}

func NewCallbackService(store QueryStore, purchases *PurchaseService, hmacKey string, skipSignature bool) *CallbackService {
	return &CallbackService{
		store:     store,
		purchases: purchases,
		audit:     NewAuditService(store),
		hmacKey:   []byte(hmacKey),
		skipSig:   skipSignature,
	}
}

// CallbackPayload is the provider's result notification. Keys match case-insensitively.
type CallbackPayload struct {
	ResponseCode string       `json:"ResponseCode"`
	Message      string       `json:"Message"`
	Data         CallbackData `json:"Data"`
}

type CallbackData struct {
	TransactionID         string          `json:"TransactionId"`
	ClientReference       string          `json:"ClientReference"`
	Amount                decimal.Decimal `json:"Amount"`
	Charges               decimal.Decimal `json:"Charges"`
	ExternalTransactionID string          `json:"ExternalTransactionId"`
	Description           string          `json:"Description"`
}

func (p *CallbackPayload) normalize() {
	p.ResponseCode = strings.TrimSpace(p.ResponseCode)
	p.Data.TransactionID = strings.TrimSpace(p.Data.TransactionID)
	p.Data.ClientReference = strings.TrimSpace(p.Data.ClientReference)
	p.Data.ExternalTransactionID = strings.TrimSpace(p.Data.ExternalTransactionID)
	p.Data.Description = strings.TrimSpace(p.Data.Description)
}

// CallbackOutcome reports what a callback did to its purchase.
type CallbackOutcome struct {
	Reference string
	Status    string
	Applied   bool
	Conflict  bool
}

// Reasons recorded when a callback is rejected.
const (
	RejectInvalidSignature = "invalid_signature"
	RejectMalformed        = "malformed"
	RejectMissingReference = "missing_reference"
	RejectMissingCode      = "missing_response_code"
	RejectUnknownReference = "unknown_reference"
	RejectSettleError      = "error"
)

const entityCallback = "callback"

// HandleCallback verifies, records and applies one callback. Callbacks for
// terminal purchases never change state. Every rejected callback leaves a
// callback_rejected audit row.
func (s *CallbackService) HandleCallback(ctx context.Context, body []byte, signature string) (*CallbackOutcome, error) {
	if !s.verifyHMAC(body, signature) {
		return nil, s.reject(ctx, RejectInvalidSignature, uuid.Nil, "", body, ErrInvalidSignature)
	}

	var payload CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, s.reject(ctx, RejectMalformed, uuid.Nil, "", body,
			domain.Wrap(domain.KindValidation, err, "invalid callback payload"))
	}
	payload.normalize()
	if payload.Data.ClientReference == "" {
		return nil, s.reject(ctx, RejectMissingReference, uuid.Nil, "", body,
			domain.New(domain.KindValidation, "callback is missing ClientReference"))
	}

	queries := s.store.Queries()
	purchase, err := queries.GetPurchaseRequestByReference(ctx, payload.Data.ClientReference)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, s.reject(ctx, RejectUnknownReference, uuid.Nil, payload.Data.ClientReference, body,
				domain.Newf(domain.KindNotFound, "no purchase for reference %s", payload.Data.ClientReference))
		}
		return nil, s.reject(ctx, RejectSettleError, uuid.Nil, payload.Data.ClientReference, body,
			fmt.Errorf("get purchase by reference: %w", err))
	}
	purchaseID := repository.FromPgUUID(purchase.ID)

	if err := s.logCallback(ctx, purchase, payload, body); err != nil {
		zap.L().Error("failed to record callback",
			zap.String("reference", purchase.Reference),
			zap.Error(err))
	}

	if payload.ResponseCode == "" {
		return nil, s.reject(ctx, RejectMissingCode, purchaseID, purchase.Reference, body,
			domain.New(domain.KindValidation, "callback is missing ResponseCode"))
	}

	if !payload.Data.Amount.IsZero() {
		reported, err := domain.FromDecimal(payload.Data.Amount)
		if err != nil || reported != purchase.Amount {
			zap.L().Warn("callback amount differs from purchase amount",
				zap.String("reference", purchase.Reference),
				zap.String("reported", payload.Data.Amount.String()),
				zap.String("expected", domain.NewMoney(purchase.Amount, purchase.Currency).String()))
		}
	}

	outcome := gateway.MapCallbackCode(payload.ResponseCode)
	reason := payload.Data.Description
	if reason == "" {
		reason = payload.Message
	}
	providerRef := payload.Data.TransactionID
	if providerRef == "" {
		providerRef = payload.Data.ExternalTransactionID
	}

	res, err := s.purchases.settle(ctx, purchaseID, settlement{
		Outcome:     outcome,
		ProviderRef: providerRef,
		Reason:      reason,
		Source:      "callback",
	})
	if err != nil {
		return nil, s.reject(ctx, RejectSettleError, purchaseID, purchase.Reference, body, err)
	}

	switch {
	case res.Conflict:
		observability.IncrementCallback("conflict")
	case res.Applied:
		observability.IncrementCallback("applied")
		observability.IncrementPurchase(purchase.Product, res.Status)
	default:
		observability.IncrementCallback("ignored")
	}

	return &CallbackOutcome{
		Reference: purchase.Reference,
		Status:    res.Status,
		Applied:   res.Applied,
		Conflict:  res.Conflict,
	}, nil
}

// reject counts and audits a callback that was not applied, then returns err.
// entityID is the purchase when one was found, uuid.Nil otherwise.
func (s *CallbackService) reject(ctx context.Context, reason string, entityID uuid.UUID, reference string, body []byte, err error) error {
	observability.IncrementCallback(reason)

	sum := sha256.Sum256(body)
	metadata := marshalMetadata(map[string]string{
		"reason":      reason,
		"reference":   reference,
		"body_sha256": hex.EncodeToString(sum[:]),
		"error":       err.Error(),
	})
	if werr := s.audit.Write(ctx, s.store.Queries(), entityCallback, entityID, nil, ActionCallbackRejected, "", "", metadata); werr != nil {
		zap.L().Error("failed to audit rejected callback",
			zap.String("reason", reason),
			zap.String("reference", reference),
			zap.Error(werr))
	}
	return err
}

func (s *CallbackService) logCallback(ctx context.Context, purchase repository.PurchaseRequest, payload CallbackPayload, body []byte) error {
	entry := ProviderResponse{
		AggregateType: domain.AggregatePurchase,
		AggregateID:   repository.FromPgUUID(purchase.ID),
		CorrelationID: payload.Data.TransactionID,
		Status:        payload.ResponseCode,
		Raw:           body,
	}
	if entry.Status == "" {
		entry.Status = domain.ResponseStatusMalformed
	}
	if entry.CorrelationID == "" {
		entry.CorrelationID = purchase.Reference
	}

	queries := s.store.Queries()
	if d, err := queries.GetDisbursementByPurchase(ctx, purchase.ID); err == nil {
		entry.AggregateType = domain.AggregateDisbursement
		entry.AggregateID = repository.FromPgUUID(d.ID)
	} else if !repository.IsNotFound(err) {
		return fmt.Errorf("get disbursement: %w", err)
	}

	entry.ProviderName = providerCodeFor(ctx, queries, purchase.ProviderID)
	return s.audit.LogProviderResponse(ctx, queries, entry)
}

func providerCodeFor(ctx context.Context, queries *repository.Queries, providerID pgtype.UUID) string {
	p, err := queries.GetProvider(ctx, providerID)
	if err != nil {
		return "unknown"
	}
	return p.Code
}

// verifyHMAC checks a "sha256=<hex>" signature over the raw body. Without a
// configured key callbacks are accepted unsigned.
func (s *CallbackService) verifyHMAC(payload []byte, signature string) bool {
	if s.skipSig || len(s.hmacKey) == 0 {
		return true
	}

	h := hmac.New(sha256.New, s.hmacKey)
	h.Write(payload)
	expectedSig := "sha256=" + hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(strings.TrimSpace(signature)), []byte(expectedSig))
}
