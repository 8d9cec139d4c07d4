package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned for moves the lifecycle does not allow,
// including any move out of SUCCESS or FAILED.
var ErrInvalidTransition = errors.New("invalid state transition")

// Purchases, their debit transaction and their disbursement share one lifecycle.
var statusTransitions = map[string]map[string]struct{}{
	domain.StatusPending: {
		domain.StatusProcessing: {},
		domain.StatusSuccess:    {},
		domain.StatusFailed:     {},
	},
	domain.StatusProcessing: {
		domain.StatusSuccess: {},
		domain.StatusFailed:  {},
	},
	domain.StatusSuccess: {},
	domain.StatusFailed:  {},
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func canTransition(current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := statusTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

func checkTransition(entity, current, next string) error {
	if !canTransition(current, next) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, current, next)
	}
	return nil
}

func transitionTransactionState(ctx context.Context, qtx *repository.Queries, audit *AuditService, transactionID uuid.UUID, nextState string, actorID *uuid.UUID, action string, metadata []byte) error {
	currentState, err := qtx.GetTransactionStatusForUpdate(ctx, repository.ToPgUUID(transactionID))
	if err != nil {
		return fmt.Errorf("get current transaction state: %w", err)
	}

	if normalizeState(currentState) == normalizeState(nextState) {
		return nil
	}
	if err := checkTransition("transaction", currentState, nextState); err != nil {
		return err
	}

	rows, err := qtx.UpdateTransactionStatus(ctx, repository.UpdateTransactionStatusParams{
		Status: nextState,
		ID:     repository.ToPgUUID(transactionID),
	})
	if err != nil {
		return fmt.Errorf("update transaction state: %w", err)
	}
	if err := requireExactlyOne(rows, "update transaction state"); err != nil {
		return err
	}

	return audit.Write(ctx, qtx, "transaction", transactionID, actorID, action, currentState, nextState, metadata)
}

// transitionPurchaseState expects the purchase row to be locked by the caller.
func transitionPurchaseState(ctx context.Context, qtx *repository.Queries, audit *AuditService, purchase repository.PurchaseRequest, nextState string, providerRef *string, actorID *uuid.UUID, action string, metadata []byte) error {
	if normalizeState(purchase.Status) == normalizeState(nextState) {
		return nil
	}
	if err := checkTransition("purchase", purchase.Status, nextState); err != nil {
		return err
	}

	rows, err := qtx.UpdatePurchaseRequestStatus(ctx, repository.UpdatePurchaseRequestStatusParams{
		ID:          purchase.ID,
		Status:      nextState,
		ProviderRef: providerRef,
	})
	if err != nil {
		return fmt.Errorf("update purchase state: %w", err)
	}
	if err := requireExactlyOne(rows, "update purchase state"); err != nil {
		return err
	}

	return audit.Write(ctx, qtx, "purchase", repository.FromPgUUID(purchase.ID), actorID, action, purchase.Status, nextState, metadata)
}

func transitionDisbursementState(ctx context.Context, qtx *repository.Queries, audit *AuditService, disbursement repository.Disbursement, nextState string, providerRef, errorMessage *string, actorID *uuid.UUID, action string) error {
	if normalizeState(disbursement.Status) == normalizeState(nextState) {
		return nil
	}
	if err := checkTransition("disbursement", disbursement.Status, nextState); err != nil {
		return err
	}

	rows, err := qtx.UpdateDisbursementStatus(ctx, repository.UpdateDisbursementStatusParams{
		ID:           disbursement.ID,
		Status:       nextState,
		ProviderRef:  providerRef,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		return fmt.Errorf("update disbursement state: %w", err)
	}
	if err := requireExactlyOne(rows, "update disbursement state"); err != nil {
		return err
	}

	return audit.Write(ctx, qtx, "disbursement", repository.FromPgUUID(disbursement.ID), actorID, action, disbursement.Status, nextState, nil)
}
