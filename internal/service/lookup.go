package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LookupService runs pre-purchase queries such as bundle lists and meter checks.
type LookupService struct {
	resolver *ProviderResolver
	registry *gateway.Registry
	audit    *AuditService
	timeout  time.Duration
}

func NewLookupService(store QueryStore, resolver *ProviderResolver, registry *gateway.Registry, timeout time.Duration) *LookupService {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &LookupService{
		resolver: resolver,
		registry: registry,
		audit:    NewAuditService(store),
		timeout:  timeout,
	}
}

type LookupCommand struct {
	Product     string
	Destination string
	Provider    ProviderRef
	Fields      map[string]string
}

type LookupView struct {
	Product     string                `json:"product"`
	Destination string                `json:"destination"`
	Provider    string                `json:"provider"`
	Message     string                `json:"message,omitempty"`
	Options     []models.LookupOption `json:"options"`
}

// Lookup queries the provider for the options available to destination. When
// the provider returns no options the configured bundle list is used.
func (s *LookupService) Lookup(ctx context.Context, cmd LookupCommand) (*LookupView, error) {
	descriptor, ok := domain.LookupProduct(cmd.Product)
	if !ok {
		return nil, domain.Newf(domain.KindValidation, "unknown product %q", cmd.Product)
	}
	if !descriptor.Lookup {
		return nil, domain.Newf(domain.KindValidation, "product %s does not support lookup", descriptor.Key)
	}
	destination := strings.TrimSpace(cmd.Destination)
	if destination == "" {
		return nil, domain.New(domain.KindValidation, "destination is required")
	}

	provider, err := s.resolver.Resolve(ctx, cmd.Provider, descriptor.Channel)
	if err != nil {
		return nil, err
	}
	client, err := s.registry.ClientFor(provider)
	if err != nil {
		return nil, domain.Wrap(domain.KindProvider, err, "provider client unavailable")
	}

	params := make(map[string]string, len(descriptor.LookupFields))
	for field, param := range descriptor.LookupFields {
		if v := strings.TrimSpace(cmd.Fields[field]); v != "" {
			params[param] = v
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	result, err := client.Lookup(callCtx, gateway.LookupRequest{
		ServiceID:   descriptor.ServiceID(provider.Config.ServiceIDs()),
		Destination: destination,
		Params:      params,
	})

	logEntry := ProviderResponse{
		AggregateType: domain.AggregateQuery,
		AggregateID:   uuid.New(),
		ProviderName:  provider.Code,
		CorrelationID: string(descriptor.Key) + ":" + destination,
	}
	if err != nil {
		var transportErr *gateway.TransportError
		logEntry.Status = domain.ResponseStatusTransportError
		if errors.As(err, &transportErr) {
			logEntry.Raw = transportErr.Raw
		}
		s.logResponse(ctx, logEntry)
		observability.ObserveProviderCall(provider.Code, "lookup", "transport_error", time.Since(started))
		return nil, domain.Wrap(domain.KindProvider, err, "provider lookup failed")
	}

	logEntry.Status = result.ResponseCode
	if logEntry.Status == "" {
		logEntry.Status = domain.ResponseStatusMalformed
	}
	logEntry.Raw = result.Raw
	s.logResponse(ctx, logEntry)

	if result.ResponseCode != gateway.CodeSuccess {
		observability.ObserveProviderCall(provider.Code, "lookup", "rejected", time.Since(started))
		msg := result.Message
		if msg == "" {
			msg = "code " + result.ResponseCode
		}
		return nil, domain.Newf(domain.KindProvider, "provider lookup rejected: %s", msg)
	}
	observability.ObserveProviderCall(provider.Code, "lookup", "success", time.Since(started))

	options := result.Options
	if len(options) == 0 {
		options = provider.Config.Bundles
	}
	if options == nil {
		options = []models.LookupOption{}
	}
	return &LookupView{
		Product:     string(descriptor.Key),
		Destination: destination,
		Provider:    provider.Code,
		Message:     result.Message,
		Options:     options,
	}, nil
}

func (s *LookupService) logResponse(ctx context.Context, entry ProviderResponse) {
	if err := s.audit.LogProviderResponse(ctx, nil, entry); err != nil {
		zap.L().Error("failed to record provider lookup response",
			zap.String("provider", entry.ProviderName),
			zap.Error(err))
	}
}
