package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	ActionReconciliationConflict = "reconciliation_conflict"
	ActionCallbackRejected       = "callback_rejected"
)

// AuditService writes immutable audit trail entries and provider response logs.
type AuditService struct {
	store QueryStore
}

func NewAuditService(store QueryStore) *AuditService {
	return &AuditService{store: store}
}

// Write stores a single immutable audit record.
func (s *AuditService) Write(ctx context.Context, qtx *repository.Queries, entityType string, entityID uuid.UUID, actorID *uuid.UUID, action, prevState, nextState string, metadata []byte) error {
	var actor pgtype.UUID
	if actorID != nil {
		actor = repository.ToPgUUID(*actorID)
	}

	if err := qtx.InsertAuditLog(ctx, repository.InsertAuditLogParams{
		EntityType: entityType,
		EntityID:   repository.ToPgUUID(entityID),
		ActorID:    actor,
		Action:     action,
		PrevState:  textParam(prevState),
		NextState:  textParam(nextState),
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ProviderResponse is one raw exchange with a provider.
type ProviderResponse struct {
	AggregateType string
	AggregateID   uuid.UUID
	ProviderName  string
	CorrelationID string
	Status        string
	Raw           json.RawMessage
}

// LogProviderResponse appends a provider_response_logs row. Rows are never
// updated or deleted.
func (s *AuditService) LogProviderResponse(ctx context.Context, qtx *repository.Queries, resp ProviderResponse) error {
	if qtx == nil {
		qtx = s.store.Queries()
	}
	raw := resp.Raw
	if len(raw) == 0 || !json.Valid(raw) {
		raw = json.RawMessage(`{}`)
	}
	if _, err := qtx.InsertProviderResponseLog(ctx, repository.InsertProviderResponseLogParams{
		AggregateType: resp.AggregateType,
		AggregateID:   repository.ToPgUUID(resp.AggregateID),
		ProviderName:  resp.ProviderName,
		CorrelationID: textParam(resp.CorrelationID),
		Status:        resp.Status,
		RawResponse:   raw,
	}); err != nil {
		return fmt.Errorf("insert provider response log: %w", err)
	}
	return nil
}

// ListByAction pages audit entries for one action, newest first.
func (s *AuditService) ListByAction(ctx context.Context, action string, page, pageSize int) ([]models.AuditEntry, error) {
	limit, offset := pageBounds(page, pageSize)
	rows, err := s.store.Queries().ListAuditLogsByAction(ctx, repository.ListAuditLogsByActionParams{
		Action: action,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	out := make([]models.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, repository.AuditEntryModel(row))
	}
	return out, nil
}

// ResponseLogs returns the provider exchanges recorded for an aggregate.
func (s *AuditService) ResponseLogs(ctx context.Context, aggregateID uuid.UUID) ([]models.ProviderResponseLog, error) {
	rows, err := s.store.Queries().ListProviderResponseLogs(ctx, repository.ToPgUUID(aggregateID))
	if err != nil {
		return nil, fmt.Errorf("list provider response logs: %w", err)
	}
	out := make([]models.ProviderResponseLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, repository.ProviderResponseLogModel(row))
	}
	return out, nil
}

func textParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
