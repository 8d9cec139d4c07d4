package api_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/api"
	"github.com/ayo6706/utility-payments/internal/api/middleware"
	"github.com/ayo6706/utility-payments/internal/config"
	"github.com/ayo6706/utility-payments/internal/db"
	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/idempotency"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/ayo6706/utility-payments/internal/testutil/dblock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDB *pgxpool.Pool

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "utility-payments-test"
	testJWTAudience = "utility-payments-api-test"
	testHMACKey     = "test"
)

func TestMain(m *testing.M) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		os.Exit(m.Run())
	}

	release := dblock.Acquire()
	ctx := context.Background()
	var err error
	testDB, err = db.Connect(ctx, connStr, db.PoolOptions{MaxConns: 10})
	if err != nil {
		release()
		fmt.Printf("Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx, testDB, "up"); err != nil {
		testDB.Close()
		release()
		fmt.Printf("Unable to migrate database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close()
	release()
	os.Exit(code)
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPPort:             "0",
		JWTSecret:            testJWTSecret,
		JWTIssuer:            testJWTIssuer,
		JWTAudience:          testJWTAudience,
		WebhookHMACKey:       testHMACKey,
		PublicRateLimitRPS:   1000,
		AuthRateLimitRPS:     1000,
		IdempotencyTTL:       time.Hour,
		ProviderTimeout:      5 * time.Second,
		ProviderMode:         config.ProviderModeMock,
		PublicBaseURL:        "http://localhost:8080",
		DisbursementsEnabled: true,
		DefaultCurrency:      domain.DefaultCurrency,
	}
}

// bareRouter serves requests that are rejected before reaching a service.
func bareRouter() http.Handler {
	return api.NewRouter(testConfig(), zap.NewNop(), nil, nil, api.Services{}).Routes()
}

type testAPI struct {
	handler http.Handler
	client  *gateway.MockClient
	store   *repository.Store
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	if testDB == nil {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
	cleanupDB(t)

	cfg := testConfig()
	store := repository.NewStore(testDB)
	client := gateway.NewMockClient()
	client.ResponseCode = gateway.CodeSuccess
	registry := gateway.NewRegistry(gateway.StaticFactory(client))
	resolver := service.NewProviderResolver(store)
	guard := idempotency.NewGuard(nil, testDB, cfg.IdempotencyTTL)
	purchases := service.NewPurchaseService(store, guard, resolver, registry, service.PurchaseConfig{
		CallbackURL:          cfg.CallbackURL(),
		ProviderTimeout:      cfg.ProviderTimeout,
		DisbursementsEnabled: cfg.DisbursementsEnabled,
		Currency:             cfg.DefaultCurrency,
	})
	svcs := api.Services{
		Purchases:   purchases,
		Callbacks:   service.NewCallbackService(store, purchases, cfg.WebhookHMACKey, false),
		Wallets:     service.NewWalletService(repository.NewRepository(testDB), store, cfg.DefaultCurrency),
		Lookups:     service.NewLookupService(store, resolver, registry, cfg.ProviderTimeout),
		Resolver:    resolver,
		StatusPolls: service.NewStatusPollService(store, purchases, resolver, registry, cfg.ProviderTimeout, time.Minute),
		Audit:       service.NewAuditService(store),
		Ledger:      service.NewReconciliationService(store),
	}
	seedProvider(t, store, "hubtel", domain.ChannelMomo)

	return &testAPI{
		handler: api.NewRouter(cfg, zap.NewNop(), testDB, nil, svcs).Routes(),
		client:  client,
		store:   store,
	}
}

func cleanupDB(t *testing.T) {
	_, err := testDB.Exec(context.Background(), "TRUNCATE TABLE audit_log, provider_response_logs, disbursements, purchase_requests, transactions, wallets, providers CASCADE")
	require.NoError(t, err)
}

func seedProvider(t *testing.T, store *repository.Store, code string, channel domain.Channel) {
	t.Helper()
	cfg, err := json.Marshal(models.ProviderConfig{
		BaseURL:          "http://provider.invalid",
		ClientID:         "client",
		ClientSecret:     "secret",
		PrepaidDepositID: "11684",
		PosSalesID:       "2020",
	})
	require.NoError(t, err)
	_, err = store.Queries().CreateProvider(context.Background(), repository.CreateProviderParams{
		ID:      repository.ToPgUUID(uuid.New()),
		Code:    code,
		Name:    code,
		Channel: string(channel),
		Active:  true,
		Config:  cfg,
	})
	require.NoError(t, err)
}

func generateTestToken(userID string) string {
	return generateTokenWithRole(userID, "user")
}

func generateTokenWithRole(userID, role string) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iss":     testJWTIssuer,
		"aud":     testJWTAudience,
		"sub":     userID,
		"iat":     now.Unix(),
		"nbf":     now.Add(-30 * time.Second).Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString(middleware.JWTSecret())
	return tokenString
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func openWallet(t *testing.T, h http.Handler, owner, balance string) {
	t.Helper()
	admin := generateTokenWithRole(uuid.NewString(), "admin")
	w := doJSON(t, h, http.MethodPost, "/v1/admin/wallets", admin, map[string]string{
		"owner_id":        owner,
		"opening_balance": balance,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRFC7807ProblemDetails(t *testing.T) {
	router := bareRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["type"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.NotEmpty(t, body["title"])
	assert.NotEmpty(t, body["detail"])
	assert.Equal(t, "/v1/wallet", body["instance"])
	assert.NotEmpty(t, body["request_id"])
}

func TestHealthAndDocs(t *testing.T) {
	router := bareRouter()

	w := doJSON(t, router, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/openapi.yaml", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/v1/products/{product}/purchases")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := bareRouter()
	token := generateTestToken(uuid.NewString())

	w := doJSON(t, router, http.MethodGet, "/v1/admin/conflicts", token, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/admin/wallets", token, map[string]string{"owner_id": "x"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPurchaseRequestValidation(t *testing.T) {
	router := bareRouter()
	token := generateTestToken(uuid.NewString())

	cases := []struct {
		name    string
		body    any
		headers map[string]string
		want    int
	}{
		{name: "missing_amount", body: map[string]any{"destination": "0241234567", "provider_code": "hubtel"}, want: http.StatusBadRequest},
		{name: "missing_destination", body: map[string]any{"amount": "5", "provider_code": "hubtel"}, want: http.StatusBadRequest},
		{name: "unknown_field", body: map[string]any{"amount": "5", "destination": "0241234567", "colour": "red"}, want: http.StatusBadRequest},
		{name: "bad_provider_id", body: map[string]any{"amount": "5", "destination": "0241234567", "provider_id": "nope"}, want: http.StatusBadRequest},
		{name: "too_precise_amount", body: map[string]any{"amount": "1.005", "destination": "0241234567", "provider_code": "hubtel"}, want: http.StatusBadRequest},
		{name: "overflowing_amount", body: map[string]any{"amount": "18446744073709.561616", "destination": "0241234567", "provider_code": "hubtel"}, want: http.StatusBadRequest},
		{name: "malformed_json", body: []byte(`{"amount":`), want: http.StatusBadRequest},
		{
			name:    "oversized_idempotency_key",
			body:    map[string]any{"amount": "5", "destination": "0241234567", "provider_code": "hubtel"},
			headers: map[string]string{middleware.IdempotencyKeyHeader: strings.Repeat("k", 101)},
			want:    http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/v1/products/airtime_mtn/purchases", token, tc.body, tc.headers)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestPurchaseEndToEnd(t *testing.T) {
	a := setupAPI(t)
	owner := uuid.NewString()
	token := generateTestToken(owner)
	openWallet(t, a.handler, owner, "100")

	body := map[string]any{"amount": "10.50", "destination": "0241234567", "provider_code": "hubtel"}
	headers := map[string]string{middleware.IdempotencyKeyHeader: "order-1"}

	w := doJSON(t, a.handler, http.MethodPost, "/v1/products/airtime_mtn/purchases", token, body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first service.PurchaseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, domain.StatusSuccess, first.Status)
	assert.False(t, first.Duplicate)
	assert.True(t, strings.HasPrefix(first.TransactionReference, "AIR-"))

	w = doJSON(t, a.handler, http.MethodPost, "/v1/products/airtime_mtn/purchases", token, body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replay service.PurchaseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replay))
	assert.True(t, replay.Duplicate)
	assert.Equal(t, first.TransactionReference, replay.TransactionReference)
	assert.Equal(t, "true", w.Header().Get("X-Idempotent-Replay"))
	assert.Len(t, a.client.Submitted(), 1)

	body["amount"] = "11"
	w = doJSON(t, a.handler, http.MethodPost, "/v1/products/airtime_mtn/purchases", token, body, headers)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, a.handler, http.MethodGet, "/v1/wallet", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet struct {
		Balance json.Number `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	assert.Equal(t, "89.5", wallet.Balance.String())

	w = doJSON(t, a.handler, http.MethodGet, "/v1/purchases/"+first.TransactionReference, token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	stranger := generateTestToken(uuid.NewString())
	w = doJSON(t, a.handler, http.MethodGet, "/v1/purchases/"+first.TransactionReference, stranger, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, a.handler, http.MethodGet, "/v1/wallet/transactions", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statement []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statement))
	assert.Len(t, statement, 1)
}

func TestPurchaseErrorsMapToProblems(t *testing.T) {
	a := setupAPI(t)
	owner := uuid.NewString()
	token := generateTestToken(owner)
	openWallet(t, a.handler, owner, "1")

	cases := []struct {
		name    string
		product string
		body    map[string]any
		want    int
	}{
		{name: "insufficient_funds", product: "airtime_mtn", body: map[string]any{"amount": "5", "destination": "0241234567", "provider_code": "hubtel"}, want: http.StatusUnprocessableEntity},
		{name: "unknown_product", product: "lottery", body: map[string]any{"amount": "1", "destination": "0241234567", "provider_code": "hubtel"}, want: http.StatusBadRequest},
		{name: "unknown_provider", product: "airtime_mtn", body: map[string]any{"amount": "1", "destination": "0241234567", "provider_code": "nobody"}, want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, a.handler, http.MethodPost, "/v1/products/"+tc.product+"/purchases", token, tc.body, nil)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, a.client.Submitted())
}

func TestProviderCallbackAlwaysAcknowledges(t *testing.T) {
	a := setupAPI(t)

	body := []byte(`{"ResponseCode":"0000","Data":{"ClientReference":"AIR-` + uuid.NewString() + `"}}`)
	w := doJSON(t, a.handler, http.MethodPost, "/v1/webhooks/provider/callback", "", body, map[string]string{
		"X-Webhook-Signature": "sha256=deadbeef",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	sum := sha256.Sum256(body)
	var rejected int
	require.NoError(t, testDB.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM audit_log WHERE action = $1 AND metadata->>'reason' = $2 AND metadata->>'body_sha256' = $3",
		service.ActionCallbackRejected, service.RejectInvalidSignature, hex.EncodeToString(sum[:])).Scan(&rejected))
	assert.Equal(t, 1, rejected)

	cfg := testConfig()
	cfg.WebhookHMACKey = ""
	store := repository.NewStore(testDB)
	purchases := service.NewPurchaseService(store, idempotency.NewGuard(nil, testDB, time.Hour), service.NewProviderResolver(store), gateway.NewRegistry(nil), service.PurchaseConfig{})
	unsigned := api.NewRouter(cfg, zap.NewNop(), testDB, nil, api.Services{
		Callbacks: service.NewCallbackService(store, purchases, "", false),
	}).Routes()

	for _, payload := range [][]byte{body, []byte(`{not json`)} {
		w = doJSON(t, unsigned, http.MethodPost, "/v1/webhooks/provider/callback", "", payload, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}
}

func TestOpenWalletConflict(t *testing.T) {
	a := setupAPI(t)
	owner := uuid.NewString()
	openWallet(t, a.handler, owner, "5")

	admin := generateTokenWithRole(uuid.NewString(), "admin")
	w := doJSON(t, a.handler, http.MethodPost, "/v1/admin/wallets", admin, map[string]string{"owner_id": owner}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, a.handler, http.MethodPost, "/v1/admin/wallets", admin, map[string]string{"owner_id": uuid.NewString(), "opening_balance": "-1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	a := setupAPI(t)
	token := generateTestToken(uuid.NewString())

	w := doJSON(t, a.handler, http.MethodGet, "/v1/products", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []domain.ProductDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, len(domain.Products()))

	w = doJSON(t, a.handler, http.MethodGet, "/v1/providers?channel=momo", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var providers []models.Provider
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &providers))
	require.Len(t, providers, 1)
	assert.Equal(t, "hubtel", providers[0].Code)

	w = doJSON(t, a.handler, http.MethodGet, "/v1/providers?channel=carrier", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminReconcileAndConflicts(t *testing.T) {
	a := setupAPI(t)
	owner := uuid.NewString()
	openWallet(t, a.handler, owner, "50")
	a.client.ResponseCode = gateway.CodePending

	w := doJSON(t, a.handler, http.MethodPost, "/v1/products/airtime_mtn/purchases", generateTestToken(owner), map[string]any{
		"amount": "5", "destination": "0241234567", "provider_code": "hubtel",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.PurchaseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.False(t, domain.IsTerminal(res.Status))

	admin := generateTokenWithRole(uuid.NewString(), "admin")
	w = doJSON(t, a.handler, http.MethodGet, "/v1/admin/purchases/"+res.TransactionReference+"/provider-status", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, a.handler, http.MethodPost, "/v1/admin/purchases/"+res.TransactionReference+"/reconcile", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec service.ReconcileResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, domain.StatusSuccess, rec.Status)
	assert.True(t, rec.Applied)

	w = doJSON(t, a.handler, http.MethodGet, "/v1/admin/conflicts", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, a.handler, http.MethodGet, "/v1/admin/ledger/drift", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var drift struct {
		Drifted int `json:"drifted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drift))
	assert.Zero(t, drift.Drifted)
}
