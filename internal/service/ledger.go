package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// LedgerEntry describes the transaction row written with a balance change.
type LedgerEntry struct {
	OwnerID           string
	Reference         string
	IdempotencyKey    string
	Fingerprint       string
	Status            string
	RelatedPurchaseID *uuid.UUID
	ServiceType       string
	Description       string
}

// Ledger is the only writer of wallets.balance. Every change is paired with a
// transactions row in the caller's database transaction.
type Ledger struct {
	audit *AuditService
}

func NewLedger(audit *AuditService) *Ledger {
	return &Ledger{audit: audit}
}

// Debit removes amount from the wallet. It fails with ErrInsufficientFunds
// before any write when the balance is too low.
func (l *Ledger) Debit(ctx context.Context, qtx *repository.Queries, walletID uuid.UUID, amount int64, entry LedgerEntry) (repository.Transaction, error) {
	return l.apply(ctx, qtx, walletID, domain.TxTypeDebit, amount, entry)
}

// Credit adds amount to the wallet.
func (l *Ledger) Credit(ctx context.Context, qtx *repository.Queries, walletID uuid.UUID, amount int64, entry LedgerEntry) (repository.Transaction, error) {
	return l.apply(ctx, qtx, walletID, domain.TxTypeCredit, amount, entry)
}

func (l *Ledger) apply(ctx context.Context, qtx *repository.Queries, walletID uuid.UUID, txType string, amount int64, entry LedgerEntry) (repository.Transaction, error) {
	if amount <= 0 {
		return repository.Transaction{}, domain.Newf(domain.KindValidation, "amount must be positive, got %d", amount)
	}
	if entry.Reference == "" {
		return repository.Transaction{}, domain.New(domain.KindValidation, "ledger reference is required")
	}

	wallet, err := qtx.GetWalletForUpdate(ctx, repository.ToPgUUID(walletID))
	if err != nil {
		if repository.IsNotFound(err) {
			return repository.Transaction{}, domain.Wrap(domain.KindNotFound, err, "wallet not found")
		}
		return repository.Transaction{}, fmt.Errorf("lock wallet: %w", err)
	}

	before := wallet.Balance
	after := before + amount
	if txType == domain.TxTypeDebit {
		if before < amount {
			return repository.Transaction{}, domain.Newf(domain.KindInsufficientFunds,
				"insufficient funds: balance %s, required %s",
				domain.NewMoney(before, wallet.Currency), domain.NewMoney(amount, wallet.Currency))
		}
		after = before - amount
	}

	if _, err := qtx.UpdateWalletBalance(ctx, repository.UpdateWalletBalanceParams{
		ID:      wallet.ID,
		Balance: after,
	}); err != nil {
		return repository.Transaction{}, fmt.Errorf("update wallet balance: %w", err)
	}

	status := entry.Status
	if status == "" {
		status = domain.StatusSuccess
	}
	ownerID := entry.OwnerID
	if ownerID == "" {
		ownerID = wallet.OwnerID
	}
	var related pgtype.UUID
	if entry.RelatedPurchaseID != nil {
		related = repository.ToPgUUID(*entry.RelatedPurchaseID)
	}

	txID := uuid.New()
	tx, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
		ID:                 repository.ToPgUUID(txID),
		OwnerID:            ownerID,
		WalletID:           wallet.ID,
		Type:               txType,
		Reference:          entry.Reference,
		IdempotencyKey:     textParam(entry.IdempotencyKey),
		RequestFingerprint: textParam(entry.Fingerprint),
		Amount:             amount,
		Currency:           wallet.Currency,
		Status:             status,
		BalanceBefore:      before,
		BalanceAfter:       after,
		RelatedPurchaseID:  related,
		ServiceType:        entry.ServiceType,
		Description:        entry.Description,
	})
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("create %s transaction: %w", txType, err)
	}

	metadata := marshalMetadata(map[string]string{
		"type":      txType,
		"reference": entry.Reference,
		"amount":    domain.NewMoney(amount, wallet.Currency).String(),
	})
	if err := l.audit.Write(ctx, qtx, "transaction", txID, nil, "created", "", status, metadata); err != nil {
		return repository.Transaction{}, err
	}
	return tx, nil
}
