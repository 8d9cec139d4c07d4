package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
)

var errProviderChannelMismatch = errors.New("provider channel mismatch")

// ProviderRef identifies a provider by id or by code. ID wins when both are set.
type ProviderRef struct {
	ID   *uuid.UUID
	Code string
}

func (r ProviderRef) Empty() bool {
	return r.ID == nil && strings.TrimSpace(r.Code) == ""
}

func (r ProviderRef) String() string {
	if r.ID != nil {
		return r.ID.String()
	}
	return r.Code
}

// ProviderResolver finds active providers on a settlement rail. It never writes.
type ProviderResolver struct {
	store QueryStore
}

func NewProviderResolver(store QueryStore) *ProviderResolver {
	return &ProviderResolver{store: store}
}

// Resolve returns the active provider matching ref on channel. Inactive
// providers and providers on another rail are reported as not found.
func (r *ProviderResolver) Resolve(ctx context.Context, ref ProviderRef, channel domain.Channel) (models.Provider, error) {
	if ref.Empty() {
		return models.Provider{}, domain.New(domain.KindValidation, "provider_id or provider_code is required")
	}
	if !channel.Valid() {
		return models.Provider{}, domain.Newf(domain.KindValidation, "unknown channel %q", channel)
	}

	queries := r.store.Queries()
	var (
		row repository.Provider
		err error
	)
	if ref.ID != nil {
		row, err = queries.GetActiveProviderByID(ctx, repository.ToPgUUID(*ref.ID))
		if err == nil && row.Channel != string(channel) {
			err = errProviderChannelMismatch
		}
	} else {
		row, err = queries.GetActiveProviderByCode(ctx, repository.GetActiveProviderByCodeParams{
			Code:    strings.TrimSpace(ref.Code),
			Channel: string(channel),
		})
	}
	if err != nil {
		if repository.IsNotFound(err) || errors.Is(err, errProviderChannelMismatch) {
			return models.Provider{}, domain.Newf(domain.KindNotFound, "no active %s provider %s", channel, ref)
		}
		return models.Provider{}, fmt.Errorf("resolve provider: %w", err)
	}
	return repository.ProviderModel(row)
}

// ListProviders returns active providers, optionally restricted to one rail.
func (r *ProviderResolver) ListProviders(ctx context.Context, channel domain.Channel) ([]models.Provider, error) {
	if channel != "" && !channel.Valid() {
		return nil, domain.Newf(domain.KindValidation, "unknown channel %q", channel)
	}
	rows, err := r.store.Queries().ListActiveProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	out := make([]models.Provider, 0, len(rows))
	for _, row := range rows {
		if channel != "" && row.Channel != string(channel) {
			continue
		}
		p, err := repository.ProviderModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// providerByID loads a provider regardless of its active flag.
func (r *ProviderResolver) providerByID(ctx context.Context, id uuid.UUID) (models.Provider, error) {
	row, err := r.store.Queries().GetProvider(ctx, repository.ToPgUUID(id))
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Provider{}, domain.Newf(domain.KindNotFound, "provider %s not found", id)
		}
		return models.Provider{}, fmt.Errorf("get provider: %w", err)
	}
	return repository.ProviderModel(row)
}
