package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertProviderResponseLog = `-- name: InsertProviderResponseLog :one
INSERT INTO provider_response_logs (
    aggregate_type, aggregate_id, provider_name, correlation_id, status, raw_response
) VALUES (
    $1, $2, $3, $4, $5, $6
)
RETURNING id, aggregate_type, aggregate_id, provider_name, correlation_id, status, raw_response, created_at`

type InsertProviderResponseLogParams struct {
	AggregateType string
	AggregateID   pgtype.UUID
	ProviderName  string
	CorrelationID *string
	Status        string
	RawResponse   []byte
}

func (q *Queries) InsertProviderResponseLog(ctx context.Context, arg InsertProviderResponseLogParams) (ProviderResponseLog, error) {
	row := q.db.QueryRow(ctx, insertProviderResponseLog,
		arg.AggregateType,
		arg.AggregateID,
		arg.ProviderName,
		arg.CorrelationID,
		arg.Status,
		arg.RawResponse,
	)
	var i ProviderResponseLog
	err := row.Scan(
		&i.ID,
		&i.AggregateType,
		&i.AggregateID,
		&i.ProviderName,
		&i.CorrelationID,
		&i.Status,
		&i.RawResponse,
		&i.CreatedAt,
	)
	return i, err
}

const listProviderResponseLogs = `-- name: ListProviderResponseLogs :many
SELECT id, aggregate_type, aggregate_id, provider_name, correlation_id, status, raw_response, created_at
FROM provider_response_logs
WHERE aggregate_id = $1
ORDER BY created_at, id`

func (q *Queries) ListProviderResponseLogs(ctx context.Context, aggregateID pgtype.UUID) ([]ProviderResponseLog, error) {
	rows, err := q.db.Query(ctx, listProviderResponseLogs, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProviderResponseLog{}
	for rows.Next() {
		var i ProviderResponseLog
		if err := rows.Scan(
			&i.ID,
			&i.AggregateType,
			&i.AggregateID,
			&i.ProviderName,
			&i.CorrelationID,
			&i.Status,
			&i.RawResponse,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertAuditLog = `-- name: InsertAuditLog :exec
INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type InsertAuditLogParams struct {
	EntityType string
	EntityID   pgtype.UUID
	ActorID    pgtype.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.EntityType,
		arg.EntityID,
		arg.ActorID,
		arg.Action,
		arg.PrevState,
		arg.NextState,
		arg.Metadata,
	)
	return err
}

const listAuditLogsByAction = `-- name: ListAuditLogsByAction :many
SELECT id, entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at
FROM audit_log
WHERE action = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

type ListAuditLogsByActionParams struct {
	Action string
	Limit  int32
	Offset int32
}

func (q *Queries) ListAuditLogsByAction(ctx context.Context, arg ListAuditLogsByActionParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogsByAction, arg.Action, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AuditLog{}
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.EntityType,
			&i.EntityID,
			&i.ActorID,
			&i.Action,
			&i.PrevState,
			&i.NextState,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
