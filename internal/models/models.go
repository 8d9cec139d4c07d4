package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       string          `json:"owner_id"`
	OwnerType     string          `json:"owner_type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	WalletAddress string          `json:"wallet_address"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           string          `json:"owner_id"`
	WalletID          uuid.UUID       `json:"wallet_id"`
	Type              string          `json:"type"` // DEBIT or CREDIT
	Reference         string          `json:"reference"`
	IdempotencyKey    *string         `json:"idempotency_key,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	BalanceBefore     decimal.Decimal `json:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	RelatedPurchaseID *uuid.UUID      `json:"related_purchase_id,omitempty"`
	ServiceType       string          `json:"service_type"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type Purchase struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        string          `json:"owner_id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ProviderID     uuid.UUID       `json:"provider_id"`
	Product        string          `json:"product"`
	Destination    string          `json:"destination"`
	Reference      string          `json:"reference"`
	CallbackURL    string          `json:"callback_url"`
	RequestDetails PurchaseDetails `json:"request_details"`
	Status         string          `json:"status"`
	ProviderRef    *string         `json:"provider_ref,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PurchaseDetails is the typed record stored with each purchase request.
type PurchaseDetails struct {
	Product      string            `json:"product"`
	ServiceID    string            `json:"service_id"`
	ProviderCode string            `json:"provider_code"`
	Channel      string            `json:"channel"`
	Fields       map[string]string `json:"fields,omitempty"`
	ExtraData    map[string]string `json:"extra_data,omitempty"`
}

type Disbursement struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	PurchaseID    uuid.UUID       `json:"purchase_id"`
	ProviderID    uuid.UUID       `json:"provider_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	ProviderRef   *string         `json:"provider_ref,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Provider is a settlement integration. Config is excluded from JSON output
// because it carries credentials.
type Provider struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Channel   string         `json:"channel"`
	Active    bool           `json:"active"`
	Config    ProviderConfig `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// ProviderConfig is the typed form of providers.config.
type ProviderConfig struct {
	BaseURL          string                     `json:"baseUrl"`
	StatusBaseURL    string                     `json:"statusBaseUrl,omitempty"`
	ClientID         string                     `json:"clientId"`
	ClientSecret     string                     `json:"clientSecret"`
	PrepaidDepositID string                     `json:"prepaidDepositId"`
	PosSalesID       string                     `json:"posSalesId,omitempty"`
	Services         map[string]ProviderService `json:"services,omitempty"`
	Bundles          []LookupOption             `json:"bundles,omitempty"`
}

type ProviderService struct {
	ServiceID string `json:"serviceId"`
}

// ServiceIDs flattens Services into a key to service id map.
func (c ProviderConfig) ServiceIDs() map[string]string {
	out := make(map[string]string, len(c.Services))
	for k, v := range c.Services {
		out[k] = v.ServiceID
	}
	return out
}

// ParseProviderConfig decodes a providers.config blob. An empty blob yields a zero config.
func ParseProviderConfig(raw []byte) (ProviderConfig, error) {
	var cfg ProviderConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	err := json.Unmarshal(raw, &cfg)
	return cfg, err
}

// LookupOption is one selectable item returned by a pre-purchase lookup.
type LookupOption struct {
	Display string          `json:"display"`
	Value   string          `json:"value"`
	Amount  decimal.Decimal `json:"amount"`
}

type ProviderResponseLog struct {
	ID            int64           `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	ProviderName  string          `json:"provider_name"`
	CorrelationID *string         `json:"correlation_id,omitempty"`
	Status        string          `json:"status"`
	RawResponse   json.RawMessage `json:"raw_response"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AuditEntry struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	PrevState  *string         `json:"prev_state,omitempty"`
	NextState  *string         `json:"next_state,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
