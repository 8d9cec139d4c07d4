package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
)

type WalletService struct {
	repo     *repository.Repository
	store    QueryStore
	audit    *AuditService
	currency string
}

func NewWalletService(repo *repository.Repository, store QueryStore, currency string) *WalletService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &WalletService{
		repo:     repo,
		store:    store,
		audit:    NewAuditService(store),
		currency: currency,
	}
}

func (s *WalletService) GetWallet(ctx context.Context, ownerID string) (*models.Wallet, error) {
	w, err := s.repo.GetWalletByOwner(ctx, ownerID, domain.OwnerTypeCustomer, s.currency)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.New(domain.KindNotFound, "wallet not found")
		}
		return nil, err
	}
	return w, nil
}

// Statement pages the owner's wallet transactions, newest first.
func (s *WalletService) Statement(ctx context.Context, ownerID string, page, pageSize int) ([]models.Transaction, error) {
	w, err := s.GetWallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	limit, offset := pageBounds(page, pageSize)
	return s.repo.ListWalletTransactions(ctx, w.ID, limit, offset)
}

// OpenWallet creates a customer wallet. The opening balance is the base of the
// balance replay check and is not a ledger transaction.
func (s *WalletService) OpenWallet(ctx context.Context, ownerID, currency string, openingBalance int64, actorID *uuid.UUID) (*models.Wallet, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.New(domain.KindValidation, "owner_id is required")
	}
	if openingBalance < 0 {
		return nil, domain.New(domain.KindValidation, "opening balance cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.currency
	}

	id := uuid.New()
	var created repository.Wallet
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		var err error
		created, err = qtx.CreateWallet(ctx, repository.CreateWalletParams{
			ID:            repository.ToPgUUID(id),
			OwnerID:       ownerID,
			OwnerType:     domain.OwnerTypeCustomer,
			Balance:       openingBalance,
			Currency:      currency,
			WalletAddress: walletAddress(id),
		})
		if err != nil {
			if repository.IsUniqueViolation(err, "wallets_owner_currency_key") {
				return domain.Newf(domain.KindConflict, "owner %s already has a %s wallet", ownerID, currency)
			}
			return fmt.Errorf("create wallet: %w", err)
		}
		metadata := marshalMetadata(map[string]string{
			"owner_id":        ownerID,
			"opening_balance": domain.NewMoney(openingBalance, currency).String(),
		})
		return s.audit.Write(ctx, qtx, "wallet", id, actorID, "created", "", "", metadata)
	})
	if err != nil {
		return nil, err
	}
	w := repository.WalletModel(created)
	return &w, nil
}

func walletAddress(id uuid.UUID) string {
	return "WAL-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:16])
}
