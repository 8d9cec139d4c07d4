package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Wallet struct {
	ID             pgtype.UUID
	OwnerID        string
	OwnerType      string
	Balance        int64
	OpeningBalance int64
	Currency       string
	WalletAddress  string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type Transaction struct {
	ID                 pgtype.UUID
	OwnerID            string
	WalletID           pgtype.UUID
	Type               string
	Reference          string
	IdempotencyKey     *string
	RequestFingerprint *string
	Amount             int64
	Currency           string
	Status             string
	BalanceBefore      int64
	BalanceAfter       int64
	RelatedPurchaseID  pgtype.UUID
	ServiceType        string
	Description        string
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

type PurchaseRequest struct {
	ID             pgtype.UUID
	OwnerID        string
	WalletID       pgtype.UUID
	Amount         int64
	Currency       string
	ProviderID     pgtype.UUID
	Product        string
	Destination    string
	Reference      string
	CallbackUrl    string
	RequestDetails []byte
	Status         string
	ProviderRef    *string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type Disbursement struct {
	ID            pgtype.UUID
	Reference     string
	TransactionID pgtype.UUID
	PurchaseID    pgtype.UUID
	ProviderID    pgtype.UUID
	Amount        int64
	Currency      string
	Status        string
	ProviderRef   *string
	ErrorMessage  *string
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type Provider struct {
	ID        pgtype.UUID
	Code      string
	Name      string
	Channel   string
	Active    bool
	Config    []byte
	CreatedAt pgtype.Timestamptz
}

type ProviderResponseLog struct {
	ID            int64
	AggregateType string
	AggregateID   pgtype.UUID
	ProviderName  string
	CorrelationID *string
	Status        string
	RawResponse   []byte
	CreatedAt     pgtype.Timestamptz
}

type AuditLog struct {
	ID         int64
	EntityType string
	EntityID   pgtype.UUID
	ActorID    pgtype.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
	CreatedAt  pgtype.Timestamptz
}
