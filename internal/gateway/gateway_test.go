package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapResponseCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"0000", domain.StatusSuccess},
		{"0001", domain.StatusProcessing},
		{"", domain.StatusProcessing},
		{"2001", domain.StatusFailed},
		{"HTTP_400", domain.StatusFailed},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MapResponseCode(tc.code), "code %q", tc.code)
	}
}

func TestMapCallbackCode(t *testing.T) {
	assert.Equal(t, domain.StatusSuccess, MapCallbackCode("0000"))
	assert.Equal(t, domain.StatusSuccess, MapCallbackCode(" 0000 "))
	assert.Equal(t, domain.StatusFailed, MapCallbackCode("0001"))
	assert.Equal(t, domain.StatusFailed, MapCallbackCode("2050"))
	assert.Equal(t, domain.StatusFailed, MapCallbackCode("HTTP_500"))
}

func TestMapProviderStatus(t *testing.T) {
	assert.Equal(t, domain.StatusSuccess, MapProviderStatus("Paid"))
	assert.Equal(t, domain.StatusFailed, MapProviderStatus("Refunded"))
	assert.Equal(t, domain.StatusFailed, MapProviderStatus("failed"))
	assert.Equal(t, domain.StatusProcessing, MapProviderStatus("Unpaid"))
}

func newTestHubtel(t *testing.T, h http.HandlerFunc) *HubtelClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewHubtelClient(models.ProviderConfig{
		BaseURL:          srv.URL + "/",
		StatusBaseURL:    srv.URL,
		ClientID:         "id",
		ClientSecret:     "secret",
		PrepaidDepositID: "dep-1",
		PosSalesID:       "pos-9",
	})
	require.NoError(t, err)
	return c
}

func TestHubtelSubmit(t *testing.T) {
	var gotBody map[string]any
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/commissionservices/dep-1/svc-ecg", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		_, _ = w.Write([]byte(`{"ResponseCode":"0001","Message":"Pending","Data":{"TransactionId":"htx-1","ClientReference":"ELE-1"}}`))
	})

	res, err := c.Submit(context.Background(), SubmitRequest{
		ServiceID:       "svc-ecg",
		Destination:     "0240000000",
		Amount:          12_500_000,
		CallbackURL:     "https://example.test/cb",
		ClientReference: "ELE-1",
		ExtraData:       map[string]string{"Bundle": "METER-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "0001", res.ResponseCode)
	assert.Equal(t, "htx-1", res.ProviderTransactionID)
	assert.Equal(t, 12.5, gotBody["Amount"])
	assert.Equal(t, "ELE-1", gotBody["ClientReference"])
	assert.Equal(t, "https://example.test/cb", gotBody["CallbackUrl"])
	assert.Equal(t, map[string]any{"Bundle": "METER-1"}, gotBody["Extradata"])
}

func TestHubtelSubmitOmitsEmptyExtradata(t *testing.T) {
	var gotBody map[string]any
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"ResponseCode":"0000"}`))
	})
	_, err := c.Submit(context.Background(), SubmitRequest{ServiceID: "svc", Amount: 1_000_000, ClientReference: "R"})
	require.NoError(t, err)
	_, present := gotBody["Extradata"]
	assert.False(t, present)
}

func TestHubtelServerErrorIsTransportError(t *testing.T) {
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	})
	_, err := c.Submit(context.Background(), SubmitRequest{ServiceID: "svc", Amount: 1, ClientReference: "R"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.JSONEq(t, `{"body":"upstream down"}`, string(te.Raw))
}

func TestHubtelClientErrorIsProviderCode(t *testing.T) {
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	res, err := c.Submit(context.Background(), SubmitRequest{ServiceID: "svc", Amount: 1, ClientReference: "R"})
	require.NoError(t, err)
	assert.Equal(t, "HTTP_400", res.ResponseCode)
	assert.Equal(t, domain.StatusFailed, MapResponseCode(res.ResponseCode))
}

func TestHubtelTimeoutIsTransportError(t *testing.T) {
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Submit(ctx, SubmitRequest{ServiceID: "svc", Amount: 1, ClientReference: "R"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHubtelQueryStatus(t *testing.T) {
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/pos-9/status", r.URL.Path)
		assert.Equal(t, "ELE-1", r.URL.Query().Get("clientReference"))
		assert.Equal(t, "", r.URL.Query().Get("networkTransactionId"))
		_, _ = w.Write([]byte(`{"message":"Successful","responseCode":"0000","data":{"status":"Paid","transactionId":"htx-1"}}`))
	})
	res, err := c.QueryStatus(context.Background(), StatusQuery{ClientReference: "ELE-1"})
	require.NoError(t, err)
	assert.Equal(t, "Paid", res.ProviderStatus)
	assert.Equal(t, "htx-1", res.ProviderTransactionID)

	_, err = c.QueryStatus(context.Background(), StatusQuery{})
	assert.Error(t, err)
}

func TestHubtelLookup(t *testing.T) {
	c := newTestHubtel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "0240000000", r.URL.Query().Get("destination"))
		assert.Equal(t, "0200000000", r.URL.Query().Get("mobile"))
		_, _ = w.Write([]byte(`{"ResponseCode":"0000","Message":"ok","Data":[{"Display":"1GB","Value":"D1","Amount":10.5}]}`))
	})
	res, err := c.Lookup(context.Background(), LookupRequest{
		ServiceID:   "svc-data",
		Destination: "0240000000",
		Params:      map[string]string{"mobile": "0200000000"},
	})
	require.NoError(t, err)
	require.Len(t, res.Options, 1)
	assert.Equal(t, "D1", res.Options[0].Value)
	assert.Equal(t, "10.5", res.Options[0].Amount.String())
}

func TestNewHubtelClientRequiresBaseURL(t *testing.T) {
	_, err := NewHubtelClient(models.ProviderConfig{})
	assert.Error(t, err)
}

func TestRegistryCachesPerProvider(t *testing.T) {
	builds := 0
	r := NewRegistry(nil)
	r.Register("HUBTEL", func(p models.Provider) (Client, error) {
		builds++
		return NewMockClient(), nil
	})

	p := models.Provider{ID: uuid.New(), Code: "hubtel"}
	c1, err := r.ClientFor(p)
	require.NoError(t, err)
	c2, err := r.ClientFor(p)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, builds)

	r.Forget(p.ID)
	_, err = r.ClientFor(p)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)

	_, err = r.ClientFor(models.Provider{ID: uuid.New(), Code: "unknown"})
	assert.Error(t, err)
}

func TestRegistryFallback(t *testing.T) {
	mock := NewMockClient()
	r := NewRegistry(StaticFactory(mock))
	c, err := r.ClientFor(models.Provider{ID: uuid.New(), Code: "anything"})
	require.NoError(t, err)
	assert.Same(t, mock, c)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	res, err := m.Submit(context.Background(), SubmitRequest{ClientReference: "R", Amount: 2_000_000})
	require.NoError(t, err)
	assert.Equal(t, CodePending, res.ResponseCode)
	assert.Len(t, m.Submitted(), 1)

	m.Err = errors.New("boom")
	_, err = m.Submit(context.Background(), SubmitRequest{ClientReference: "R2"})
	var te *TransportError
	assert.True(t, errors.As(err, &te))
}
