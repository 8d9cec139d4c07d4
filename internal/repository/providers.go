package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const providerColumns = `id, code, name, channel, active, config, created_at`

func scanProvider(row interface{ Scan(...interface{}) error }) (Provider, error) {
	var i Provider
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Name,
		&i.Channel,
		&i.Active,
		&i.Config,
		&i.CreatedAt,
	)
	return i, err
}

const createProvider = `-- name: CreateProvider :one
INSERT INTO providers (id, code, name, channel, active, config)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (code, channel) DO UPDATE
SET name = EXCLUDED.name, active = EXCLUDED.active, config = EXCLUDED.config
RETURNING ` + providerColumns

type CreateProviderParams struct {
	ID      pgtype.UUID
	Code    string
	Name    string
	Channel string
	Active  bool
	Config  []byte
}

// CreateProvider upserts on (code, channel).
func (q *Queries) CreateProvider(ctx context.Context, arg CreateProviderParams) (Provider, error) {
	row := q.db.QueryRow(ctx, createProvider,
		arg.ID,
		arg.Code,
		arg.Name,
		arg.Channel,
		arg.Active,
		arg.Config,
	)
	return scanProvider(row)
}

const getProvider = `-- name: GetProvider :one
SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

func (q *Queries) GetProvider(ctx context.Context, id pgtype.UUID) (Provider, error) {
	return scanProvider(q.db.QueryRow(ctx, getProvider, id))
}

const getActiveProviderByID = `-- name: GetActiveProviderByID :one
SELECT ` + providerColumns + ` FROM providers WHERE id = $1 AND active`

func (q *Queries) GetActiveProviderByID(ctx context.Context, id pgtype.UUID) (Provider, error) {
	return scanProvider(q.db.QueryRow(ctx, getActiveProviderByID, id))
}

const getActiveProviderByCode = `-- name: GetActiveProviderByCode :one
SELECT ` + providerColumns + ` FROM providers
WHERE code = $1 AND channel = $2 AND active`

type GetActiveProviderByCodeParams struct {
	Code    string
	Channel string
}

func (q *Queries) GetActiveProviderByCode(ctx context.Context, arg GetActiveProviderByCodeParams) (Provider, error) {
	return scanProvider(q.db.QueryRow(ctx, getActiveProviderByCode, arg.Code, arg.Channel))
}

const listActiveProviders = `-- name: ListActiveProviders :many
SELECT ` + providerColumns + ` FROM providers
WHERE active
ORDER BY channel, code`

func (q *Queries) ListActiveProviders(ctx context.Context) ([]Provider, error) {
	rows, err := q.db.Query(ctx, listActiveProviders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Provider{}
	for rows.Next() {
		i, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
