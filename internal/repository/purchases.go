package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const purchaseColumns = `id, owner_id, wallet_id, amount, currency, provider_id, product, destination, reference, callback_url, request_details, status, provider_ref, created_at, updated_at`

func scanPurchase(row interface{ Scan(...interface{}) error }) (PurchaseRequest, error) {
	var i PurchaseRequest
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.WalletID,
		&i.Amount,
		&i.Currency,
		&i.ProviderID,
		&i.Product,
		&i.Destination,
		&i.Reference,
		&i.CallbackUrl,
		&i.RequestDetails,
		&i.Status,
		&i.ProviderRef,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPurchaseRequest = `-- name: CreatePurchaseRequest :one
INSERT INTO purchase_requests (
    id, owner_id, wallet_id, amount, currency, provider_id, product,
    destination, reference, callback_url, request_details, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
RETURNING ` + purchaseColumns

type CreatePurchaseRequestParams struct {
	ID             pgtype.UUID
	OwnerID        string
	WalletID       pgtype.UUID
	Amount         int64
	Currency       string
	ProviderID     pgtype.UUID
	Product        string
	Destination    string
	Reference      string
	CallbackUrl    string
	RequestDetails []byte
	Status         string
}

func (q *Queries) CreatePurchaseRequest(ctx context.Context, arg CreatePurchaseRequestParams) (PurchaseRequest, error) {
	row := q.db.QueryRow(ctx, createPurchaseRequest,
		arg.ID,
		arg.OwnerID,
		arg.WalletID,
		arg.Amount,
		arg.Currency,
		arg.ProviderID,
		arg.Product,
		arg.Destination,
		arg.Reference,
		arg.CallbackUrl,
		arg.RequestDetails,
		arg.Status,
	)
	return scanPurchase(row)
}

const getPurchaseRequest = `-- name: GetPurchaseRequest :one
SELECT ` + purchaseColumns + ` FROM purchase_requests WHERE id = $1`

func (q *Queries) GetPurchaseRequest(ctx context.Context, id pgtype.UUID) (PurchaseRequest, error) {
	return scanPurchase(q.db.QueryRow(ctx, getPurchaseRequest, id))
}

const getPurchaseRequestByReference = `-- name: GetPurchaseRequestByReference :one
SELECT ` + purchaseColumns + ` FROM purchase_requests WHERE reference = $1`

func (q *Queries) GetPurchaseRequestByReference(ctx context.Context, reference string) (PurchaseRequest, error) {
	return scanPurchase(q.db.QueryRow(ctx, getPurchaseRequestByReference, reference))
}

const getPurchaseRequestForUpdate = `-- name: GetPurchaseRequestForUpdate :one
SELECT ` + purchaseColumns + ` FROM purchase_requests WHERE id = $1 FOR UPDATE`

func (q *Queries) GetPurchaseRequestForUpdate(ctx context.Context, id pgtype.UUID) (PurchaseRequest, error) {
	return scanPurchase(q.db.QueryRow(ctx, getPurchaseRequestForUpdate, id))
}

const updatePurchaseRequestStatus = `-- name: UpdatePurchaseRequestStatus :execrows
UPDATE purchase_requests
SET status = $2,
    provider_ref = COALESCE($3, provider_ref),
    updated_at = NOW()
WHERE id = $1`

type UpdatePurchaseRequestStatusParams struct {
	ID          pgtype.UUID
	Status      string
	ProviderRef *string
}

func (q *Queries) UpdatePurchaseRequestStatus(ctx context.Context, arg UpdatePurchaseRequestStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updatePurchaseRequestStatus, arg.ID, arg.Status, arg.ProviderRef)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listStalePurchases = `-- name: ListStalePurchases :many
SELECT ` + purchaseColumns + ` FROM purchase_requests
WHERE status IN ('PENDING', 'PROCESSING') AND updated_at < $1
ORDER BY updated_at
LIMIT $2`

type ListStalePurchasesParams struct {
	Before pgtype.Timestamptz
	Limit  int32
}

// ListStalePurchases returns non-terminal purchases not touched since Before.
func (q *Queries) ListStalePurchases(ctx context.Context, arg ListStalePurchasesParams) ([]PurchaseRequest, error) {
	rows, err := q.db.Query(ctx, listStalePurchases, arg.Before, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PurchaseRequest{}
	for rows.Next() {
		i, err := scanPurchase(rows)
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

const listPurchasesByOwner = `-- name: ListPurchasesByOwner :many
SELECT ` + purchaseColumns + ` FROM purchase_requests
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListPurchasesByOwnerParams struct {
	OwnerID string
	Limit   int32
	Offset  int32
}

func (q *Queries) ListPurchasesByOwner(ctx context.Context, arg ListPurchasesByOwnerParams) ([]PurchaseRequest, error) {
	rows, err := q.db.Query(ctx, listPurchasesByOwner, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PurchaseRequest{}
	for rows.Next() {
		i, err := scanPurchase(rows)
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
