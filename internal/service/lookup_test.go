package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupReturnsProviderOptions(t *testing.T) {
	f := newFixture(t, PurchaseConfig{})
	seedProvider(t, f.store, "hubtel", domain.ChannelMobile, true)
	svc := NewLookupService(f.store, f.resolver, f.registry, time.Second)

	view, err := svc.Lookup(context.Background(), LookupCommand{
		Product:     "broadband",
		Destination: "0241234567",
		Provider:    ProviderRef{Code: "hubtel"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ProductBroadband), view.Product)
	require.Len(t, view.Options, 2)
	assert.Equal(t, "DATA1GB", view.Options[0].Value)
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM provider_response_logs WHERE aggregate_type = 'QUERY' AND status = '0000'"))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM transactions"))
}

func TestLookupValidation(t *testing.T) {
	svc := NewLookupService(nil, nil, nil, 0)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, LookupCommand{Product: "nope", Destination: "x"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Lookup(ctx, LookupCommand{Product: string(domain.ProductAirtimeMTN), Destination: "x"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Lookup(ctx, LookupCommand{Product: string(domain.ProductDSTV), Destination: ""})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
