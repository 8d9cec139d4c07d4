package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/db"
	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/idempotency"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testHMACKey = "secret"

// setupTestDB connects to DATABASE_URL, applies migrations and empties every table.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, connString, db.PoolOptions{MaxConns: 20})
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(ctx, pool, "up"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, table := range []string{"audit_log", "provider_response_logs", "disbursements", "purchase_requests", "transactions", "wallets", "providers"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
	t.Cleanup(pool.Close)
	return pool
}

type fixture struct {
	pool      *pgxpool.Pool
	store     *repository.Store
	client    *gateway.MockClient
	registry  *gateway.Registry
	resolver  *ProviderResolver
	purchases *PurchaseService
	callbacks *CallbackService
	wallets   *WalletService
	provider  models.Provider
}

func newFixture(t *testing.T, cfg PurchaseConfig) *fixture {
	t.Helper()
	pool := setupTestDB(t)
	store := repository.NewStore(pool)

	client := gateway.NewMockClient()
	registry := gateway.NewRegistry(gateway.StaticFactory(client))
	resolver := NewProviderResolver(store)
	guard := idempotency.NewGuard(nil, pool, time.Hour)
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = "http://localhost:8080/v1/webhooks/provider/callback"
	}
	purchases := NewPurchaseService(store, guard, resolver, registry, cfg)

	return &fixture{
		pool:      pool,
		store:     store,
		client:    client,
		registry:  registry,
		resolver:  resolver,
		purchases: purchases,
		callbacks: NewCallbackService(store, purchases, testHMACKey, false),
		wallets:   NewWalletService(repository.NewRepository(pool), store, domain.DefaultCurrency),
		provider:  seedProvider(t, store, "hubtel", domain.ChannelMomo, true),
	}
}

func seedProvider(t *testing.T, store *repository.Store, code string, channel domain.Channel, active bool) models.Provider {
	t.Helper()
	config, err := json.Marshal(models.ProviderConfig{
		BaseURL:          "http://provider.invalid",
		ClientID:         "client",
		ClientSecret:     "secret",
		PrepaidDepositID: "11684",
		PosSalesID:       "2020",
	})
	require.NoError(t, err)

	row, err := store.Queries().CreateProvider(context.Background(), repository.CreateProviderParams{
		ID:      repository.ToPgUUID(uuid.New()),
		Code:    code,
		Name:    code,
		Channel: string(channel),
		Active:  active,
		Config:  config,
	})
	require.NoError(t, err)
	p, err := repository.ProviderModel(row)
	require.NoError(t, err)
	return p
}

func (f *fixture) openWallet(t *testing.T, owner string, balance int64) *models.Wallet {
	t.Helper()
	w, err := f.wallets.OpenWallet(context.Background(), owner, "", balance, nil)
	require.NoError(t, err)
	return w
}

func (f *fixture) balance(t *testing.T, walletID uuid.UUID) int64 {
	t.Helper()
	w, err := f.store.Queries().GetWallet(context.Background(), repository.ToPgUUID(walletID))
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func (f *fixture) airtime(owner string, amount int64) PurchaseCommand {
	return PurchaseCommand{
		OwnerID:     owner,
		Product:     string(domain.ProductAirtimeMTN),
		Amount:      amount,
		Destination: "0241234567",
		Provider:    ProviderRef{Code: f.provider.Code},
	}
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func callbackBody(t *testing.T, code, reference string, amount string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"ResponseCode": code,
		"Data": map[string]any{
			"TransactionId":   "HUB-" + reference,
			"ClientReference": reference,
			"Amount":          json.Number(amount),
			"Description":     "callback " + code,
		},
	})
	require.NoError(t, err)
	return body
}
