package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const disbursementColumns = `id, reference, transaction_id, purchase_id, provider_id, amount, currency, status, provider_ref, error_message, created_at, updated_at`

func scanDisbursement(row interface{ Scan(...interface{}) error }) (Disbursement, error) {
	var i Disbursement
	err := row.Scan(
		&i.ID,
		&i.Reference,
		&i.TransactionID,
		&i.PurchaseID,
		&i.ProviderID,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.ProviderRef,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createDisbursement = `-- name: CreateDisbursement :one
INSERT INTO disbursements (
    id, reference, transaction_id, purchase_id, provider_id, amount, currency, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING ` + disbursementColumns

type CreateDisbursementParams struct {
	ID            pgtype.UUID
	Reference     string
	TransactionID pgtype.UUID
	PurchaseID    pgtype.UUID
	ProviderID    pgtype.UUID
	Amount        int64
	Currency      string
	Status        string
}

func (q *Queries) CreateDisbursement(ctx context.Context, arg CreateDisbursementParams) (Disbursement, error) {
	row := q.db.QueryRow(ctx, createDisbursement,
		arg.ID,
		arg.Reference,
		arg.TransactionID,
		arg.PurchaseID,
		arg.ProviderID,
		arg.Amount,
		arg.Currency,
		arg.Status,
	)
	return scanDisbursement(row)
}

const getDisbursementByPurchase = `-- name: GetDisbursementByPurchase :one
SELECT ` + disbursementColumns + ` FROM disbursements WHERE purchase_id = $1`

func (q *Queries) GetDisbursementByPurchase(ctx context.Context, purchaseID pgtype.UUID) (Disbursement, error) {
	return scanDisbursement(q.db.QueryRow(ctx, getDisbursementByPurchase, purchaseID))
}

const getDisbursementByReference = `-- name: GetDisbursementByReference :one
SELECT ` + disbursementColumns + ` FROM disbursements WHERE reference = $1`

func (q *Queries) GetDisbursementByReference(ctx context.Context, reference string) (Disbursement, error) {
	return scanDisbursement(q.db.QueryRow(ctx, getDisbursementByReference, reference))
}

const updateDisbursementStatus = `-- name: UpdateDisbursementStatus :execrows
UPDATE disbursements
SET status = $2,
    provider_ref = COALESCE($3, provider_ref),
    error_message = $4,
    updated_at = NOW()
WHERE id = $1`

type UpdateDisbursementStatusParams struct {
	ID           pgtype.UUID
	Status       string
	ProviderRef  *string
	ErrorMessage *string
}

func (q *Queries) UpdateDisbursementStatus(ctx context.Context, arg UpdateDisbursementStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateDisbursementStatus, arg.ID, arg.Status, arg.ProviderRef, arg.ErrorMessage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
