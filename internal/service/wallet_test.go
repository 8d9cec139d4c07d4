package service

import (
	"context"
	"testing"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWalletAndStatement(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	f.client.ResponseCode = gateway.CodeSuccess
	ctx := context.Background()

	w := f.openWallet(t, "cust-w", 12_500_000)
	assert.True(t, decimal.RequireFromString("12.5").Equal(w.Balance))
	assert.Equal(t, domain.DefaultCurrency, w.Currency)
	assert.Regexp(t, `^WAL-[0-9A-F]{16}$`, w.WalletAddress)

	_, err := f.wallets.OpenWallet(ctx, "cust-w", "", 0, nil)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = f.wallets.OpenWallet(ctx, "cust-neg", "", -1, nil)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	for i := 0; i < 3; i++ {
		_, err := f.purchases.Purchase(ctx, f.airtime("cust-w", 1_000_000))
		require.NoError(t, err)
	}

	got, err := f.wallets.GetWallet(ctx, "cust-w")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9.5").Equal(got.Balance))

	page, err := f.wallets.Statement(ctx, "cust-w", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	rest, err := f.wallets.Statement(ctx, "cust-w", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	_, err = f.wallets.GetWallet(ctx, "nobody")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
