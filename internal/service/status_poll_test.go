package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusPollReconcileSettlesPaid(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	ctx := context.Background()
	wallet := f.openWallet(t, "cust-sp", 10_000_000)
	poller := NewStatusPollService(f.store, f.purchases, f.resolver, f.registry, time.Second, time.Minute)

	res, err := f.purchases.Purchase(ctx, f.airtime("cust-sp", 4_000_000))
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, res.Status)

	status, err := poller.QueryProviderStatus(ctx, res.TransactionReference)
	require.NoError(t, err)
	assert.Equal(t, "Paid", status.ProviderStatus)
	assert.Equal(t, domain.StatusSuccess, status.MappedStatus)
	assert.Equal(t, domain.StatusProcessing, status.LocalStatus)

	admin := uuid.New()
	out, err := poller.Reconcile(ctx, res.TransactionReference, &admin)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, domain.StatusSuccess, out.Status)
	assert.Equal(t, int64(6_000_000), f.balance(t, wallet.ID))
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM provider_response_logs WHERE aggregate_type = 'QUERY' AND aggregate_id = $1", res.PurchaseID))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM audit_log WHERE entity_id = $1 AND action = 'manual_success' AND actor_id = $2", res.PurchaseID, admin))

	again, err := poller.Reconcile(ctx, res.TransactionReference, nil)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.False(t, again.Conflict)
}

func TestStatusPollLeavesUnknownStatusPending(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	f.client.Status = "Unpaid"
	ctx := context.Background()
	f.openWallet(t, "cust-sq", 10_000_000)
	poller := NewStatusPollService(f.store, f.purchases, f.resolver, f.registry, time.Second, time.Minute)

	res, err := f.purchases.Purchase(ctx, f.airtime("cust-sq", 1_000_000))
	require.NoError(t, err)

	out, err := poller.Reconcile(ctx, res.TransactionReference, nil)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, domain.StatusProcessing, out.Status)
}

func TestStatusPollSweepRefundsFailedPurchases(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	f.client.Status = "Failed"
	ctx := context.Background()
	wallet := f.openWallet(t, "cust-sw", 10_000_000)
	poller := NewStatusPollService(f.store, f.purchases, f.resolver, f.registry, time.Second, time.Minute)
	poller.now = func() time.Time { return time.Now().Add(time.Hour) }

	var refs []*PurchaseResult
	for i := 0; i < 3; i++ {
		res, err := f.purchases.Purchase(ctx, f.airtime("cust-sw", 1_000_000))
		require.NoError(t, err)
		refs = append(refs, res)
	}
	assert.Equal(t, int64(7_000_000), f.balance(t, wallet.ID))

	settled, err := poller.SweepStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, settled)
	assert.Equal(t, int64(10_000_000), f.balance(t, wallet.ID))
	for _, res := range refs {
		assertSingleRefund(t, f, res)
	}

	settled, err = poller.SweepStale(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func TestStatusPollUnknownReference(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	poller := NewStatusPollService(f.store, f.purchases, f.resolver, f.registry, time.Second, time.Minute)

	_, err := poller.Reconcile(context.Background(), "AIR-0000000000-ZZZZZZ", nil)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	_, err = poller.QueryProviderStatus(context.Background(), " ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
