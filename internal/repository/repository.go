package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository serves read models for the HTTP layer.
type Repository struct {
	q *Queries
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{q: New(db)}
}

func (r *Repository) GetWalletByOwner(ctx context.Context, ownerID, ownerType, currency string) (*models.Wallet, error) {
	row, err := r.q.GetWalletByOwner(ctx, GetWalletByOwnerParams{
		OwnerID:   ownerID,
		OwnerType: ownerType,
		Currency:  currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	w := WalletModel(row)
	return &w, nil
}

func (r *Repository) ListWalletTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	rows, err := r.q.ListTransactionsByWallet(ctx, ListTransactionsByWalletParams{
		WalletID: ToPgUUID(walletID),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, TransactionModel(row))
	}
	return out, nil
}

func (r *Repository) GetPurchaseByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	row, err := r.q.GetPurchaseRequestByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	p, err := PurchaseModel(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func micros(v int64) domain.Money {
	return domain.NewMoney(v, "")
}

func WalletModel(w Wallet) models.Wallet {
	return models.Wallet{
		ID:            FromPgUUID(w.ID),
		OwnerID:       w.OwnerID,
		OwnerType:     w.OwnerType,
		Balance:       micros(w.Balance).ToDecimal(),
		Currency:      w.Currency,
		WalletAddress: w.WalletAddress,
		CreatedAt:     w.CreatedAt.Time,
		UpdatedAt:     w.UpdatedAt.Time,
	}
}

func TransactionModel(t Transaction) models.Transaction {
	return models.Transaction{
		ID:                FromPgUUID(t.ID),
		OwnerID:           t.OwnerID,
		WalletID:          FromPgUUID(t.WalletID),
		Type:              t.Type,
		Reference:         t.Reference,
		IdempotencyKey:    t.IdempotencyKey,
		Amount:            micros(t.Amount).ToDecimal(),
		Currency:          t.Currency,
		Status:            t.Status,
		BalanceBefore:     micros(t.BalanceBefore).ToDecimal(),
		BalanceAfter:      micros(t.BalanceAfter).ToDecimal(),
		RelatedPurchaseID: NullableUUID(t.RelatedPurchaseID),
		ServiceType:       t.ServiceType,
		Description:       t.Description,
		CreatedAt:         t.CreatedAt.Time,
		UpdatedAt:         t.UpdatedAt.Time,
	}
}

func PurchaseModel(p PurchaseRequest) (models.Purchase, error) {
	var details models.PurchaseDetails
	if len(p.RequestDetails) > 0 {
		if err := json.Unmarshal(p.RequestDetails, &details); err != nil {
			return models.Purchase{}, fmt.Errorf("decode purchase details: %w", err)
		}
	}
	return models.Purchase{
		ID:             FromPgUUID(p.ID),
		OwnerID:        p.OwnerID,
		WalletID:       FromPgUUID(p.WalletID),
		Amount:         micros(p.Amount).ToDecimal(),
		Currency:       p.Currency,
		ProviderID:     FromPgUUID(p.ProviderID),
		Product:        p.Product,
		Destination:    p.Destination,
		Reference:      p.Reference,
		CallbackURL:    p.CallbackUrl,
		RequestDetails: details,
		Status:         p.Status,
		ProviderRef:    p.ProviderRef,
		CreatedAt:      p.CreatedAt.Time,
		UpdatedAt:      p.UpdatedAt.Time,
	}, nil
}

func DisbursementModel(d Disbursement) models.Disbursement {
	return models.Disbursement{
		ID:            FromPgUUID(d.ID),
		Reference:     d.Reference,
		TransactionID: FromPgUUID(d.TransactionID),
		PurchaseID:    FromPgUUID(d.PurchaseID),
		ProviderID:    FromPgUUID(d.ProviderID),
		Amount:        micros(d.Amount).ToDecimal(),
		Currency:      d.Currency,
		Status:        d.Status,
		ProviderRef:   d.ProviderRef,
		ErrorMessage:  d.ErrorMessage,
		CreatedAt:     d.CreatedAt.Time,
		UpdatedAt:     d.UpdatedAt.Time,
	}
}

func ProviderModel(p Provider) (models.Provider, error) {
	cfg, err := models.ParseProviderConfig(p.Config)
	if err != nil {
		return models.Provider{}, fmt.Errorf("decode provider %s config: %w", p.Code, err)
	}
	return models.Provider{
		ID:        FromPgUUID(p.ID),
		Code:      p.Code,
		Name:      p.Name,
		Channel:   p.Channel,
		Active:    p.Active,
		Config:    cfg,
		CreatedAt: p.CreatedAt.Time,
	}, nil
}

func ProviderResponseLogModel(l ProviderResponseLog) models.ProviderResponseLog {
	return models.ProviderResponseLog{
		ID:            l.ID,
		AggregateType: l.AggregateType,
		AggregateID:   FromPgUUID(l.AggregateID),
		ProviderName:  l.ProviderName,
		CorrelationID: l.CorrelationID,
		Status:        l.Status,
		RawResponse:   l.RawResponse,
		CreatedAt:     l.CreatedAt.Time,
	}
}

func AuditEntryModel(a AuditLog) models.AuditEntry {
	return models.AuditEntry{
		ID:         a.ID,
		EntityType: a.EntityType,
		EntityID:   FromPgUUID(a.EntityID),
		ActorID:    NullableUUID(a.ActorID),
		Action:     a.Action,
		PrevState:  a.PrevState,
		NextState:  a.NextState,
		Metadata:   a.Metadata,
		CreatedAt:  a.CreatedAt.Time,
	}
}
