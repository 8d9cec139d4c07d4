package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = `id, owner_id, wallet_id, type, reference, idempotency_key, request_fingerprint, amount, currency, status, balance_before, balance_after, related_purchase_id, service_type, description, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.WalletID,
		&i.Type,
		&i.Reference,
		&i.IdempotencyKey,
		&i.RequestFingerprint,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.RelatedPurchaseID,
		&i.ServiceType,
		&i.Description,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectTransactions(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}) ([]Transaction, error) {
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
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

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
    id, owner_id, wallet_id, type, reference, idempotency_key, request_fingerprint,
    amount, currency, status, balance_before, balance_after, related_purchase_id,
    service_type, description
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	ID                 pgtype.UUID
	OwnerID            string
	WalletID           pgtype.UUID
	Type               string
	Reference          string
	IdempotencyKey     *string
	RequestFingerprint *string
	Amount             int64
	Currency           string
	Status             string
	BalanceBefore      int64
	BalanceAfter       int64
	RelatedPurchaseID  pgtype.UUID
	ServiceType        string
	Description        string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.ID,
		arg.OwnerID,
		arg.WalletID,
		arg.Type,
		arg.Reference,
		arg.IdempotencyKey,
		arg.RequestFingerprint,
		arg.Amount,
		arg.Currency,
		arg.Status,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.RelatedPurchaseID,
		arg.ServiceType,
		arg.Description,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

func (q *Queries) GetTransaction(ctx context.Context, id pgtype.UUID) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransaction, id))
}

const getTransactionByReference = `-- name: GetTransactionByReference :one
SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

func (q *Queries) GetTransactionByReference(ctx context.Context, reference string) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransactionByReference, reference))
}

const getTransactionByIdempotencyKey = `-- name: GetTransactionByIdempotencyKey :one
SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

func (q *Queries) GetTransactionByIdempotencyKey(ctx context.Context, key string) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransactionByIdempotencyKey, key))
}

const getTransactionForUpdate = `-- name: GetTransactionForUpdate :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

func (q *Queries) GetTransactionForUpdate(ctx context.Context, id pgtype.UUID) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransactionForUpdate, id))
}

const getTransactionStatusForUpdate = `-- name: GetTransactionStatusForUpdate :one
SELECT status FROM transactions WHERE id = $1 FOR UPDATE`

func (q *Queries) GetTransactionStatusForUpdate(ctx context.Context, id pgtype.UUID) (string, error) {
	var status string
	err := q.db.QueryRow(ctx, getTransactionStatusForUpdate, id).Scan(&status)
	return status, err
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :execrows
UPDATE transactions
SET status = $2, updated_at = NOW()
WHERE id = $1`

type UpdateTransactionStatusParams struct {
	ID     pgtype.UUID
	Status string
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransactionStatus, arg.ID, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listTransactionsByWallet = `-- name: ListTransactionsByWallet :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE wallet_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

type ListTransactionsByWalletParams struct {
	WalletID pgtype.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListTransactionsByWallet(ctx context.Context, arg ListTransactionsByWalletParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByWallet, arg.WalletID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const listTransactionsByPurchase = `-- name: ListTransactionsByPurchase :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE related_purchase_id = $1
ORDER BY created_at, id`

func (q *Queries) ListTransactionsByPurchase(ctx context.Context, purchaseID pgtype.UUID) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByPurchase, purchaseID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const countTransactionsByWallet = `-- name: CountTransactionsByWallet :one
SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`

func (q *Queries) CountTransactionsByWallet(ctx context.Context, walletID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countTransactionsByWallet, walletID).Scan(&count)
	return count, err
}

const getDebitByPurchase = `-- name: GetDebitByPurchase :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE related_purchase_id = $1 AND type = 'DEBIT'
ORDER BY created_at
LIMIT 1`

func (q *Queries) GetDebitByPurchase(ctx context.Context, purchaseID pgtype.UUID) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getDebitByPurchase, purchaseID))
}
