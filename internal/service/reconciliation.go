package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletDrift is a wallet whose balance disagrees with its ledger.
type WalletDrift struct {
	WalletID      uuid.UUID `json:"wallet_id"`
	OwnerID       string    `json:"owner_id"`
	Currency      string    `json:"currency"`
	Balance       int64     `json:"balance"`
	LedgerBalance int64     `json:"ledger_balance"`
}

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run checks that every wallet balance equals its opening balance plus
// credits minus debits, and returns the wallets that do not.
func (s *ReconciliationService) Run(ctx context.Context) ([]WalletDrift, error) {
	rows, err := s.store.Queries().ListWalletDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("run wallet drift query: %w", err)
	}
	observability.SetLedgerDrift(len(rows))

	drift := make([]WalletDrift, 0, len(rows))
	for _, row := range rows {
		d := WalletDrift{
			WalletID:      repository.FromPgUUID(row.ID),
			OwnerID:       row.OwnerID,
			Currency:      row.Currency,
			Balance:       row.Balance,
			LedgerBalance: row.LedgerBalance,
		}
		drift = append(drift, d)
		zap.L().Error("CRITICAL: wallet balance does not match ledger",
			zap.String("wallet_id", d.WalletID.String()),
			zap.String("owner_id", d.OwnerID),
			zap.Int64("balance", d.Balance),
			zap.Int64("ledger_balance", d.LedgerBalance))
	}

	if len(drift) == 0 {
		zap.L().Info("Ledger Balanced")
	}
	return drift, nil
}
