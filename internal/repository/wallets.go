package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const walletColumns = `id, owner_id, owner_type, balance, opening_balance, currency, wallet_address, created_at, updated_at`

func scanWallet(row interface{ Scan(...interface{}) error }) (Wallet, error) {
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.OwnerType,
		&i.Balance,
		&i.OpeningBalance,
		&i.Currency,
		&i.WalletAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createWallet = `-- name: CreateWallet :one
INSERT INTO wallets (id, owner_id, owner_type, balance, opening_balance, currency, wallet_address)
VALUES ($1, $2, $3, $4, $4, $5, $6)
RETURNING ` + walletColumns

type CreateWalletParams struct {
	ID            pgtype.UUID
	OwnerID       string
	OwnerType     string
	Balance       int64
	Currency      string
	WalletAddress string
}

// CreateWallet inserts a wallet whose opening balance equals its initial balance.
func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, createWallet,
		arg.ID,
		arg.OwnerID,
		arg.OwnerType,
		arg.Balance,
		arg.Currency,
		arg.WalletAddress,
	)
	return scanWallet(row)
}

const getWallet = `-- name: GetWallet :one
SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

func (q *Queries) GetWallet(ctx context.Context, id pgtype.UUID) (Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWallet, id))
}

const getWalletForUpdate = `-- name: GetWalletForUpdate :one
SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

func (q *Queries) GetWalletForUpdate(ctx context.Context, id pgtype.UUID) (Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletForUpdate, id))
}

const getWalletByOwner = `-- name: GetWalletByOwner :one
SELECT ` + walletColumns + ` FROM wallets
WHERE owner_id = $1 AND owner_type = $2 AND currency = $3`

type GetWalletByOwnerParams struct {
	OwnerID   string
	OwnerType string
	Currency  string
}

func (q *Queries) GetWalletByOwner(ctx context.Context, arg GetWalletByOwnerParams) (Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletByOwner, arg.OwnerID, arg.OwnerType, arg.Currency))
}

const getWalletByOwnerForUpdate = `-- name: GetWalletByOwnerForUpdate :one
SELECT ` + walletColumns + ` FROM wallets
WHERE owner_id = $1 AND owner_type = $2 AND currency = $3
FOR UPDATE`

func (q *Queries) GetWalletByOwnerForUpdate(ctx context.Context, arg GetWalletByOwnerParams) (Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletByOwnerForUpdate, arg.OwnerID, arg.OwnerType, arg.Currency))
}

const updateWalletBalance = `-- name: UpdateWalletBalance :one
UPDATE wallets
SET balance = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + walletColumns

type UpdateWalletBalanceParams struct {
	ID      pgtype.UUID
	Balance int64
}

func (q *Queries) UpdateWalletBalance(ctx context.Context, arg UpdateWalletBalanceParams) (Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, updateWalletBalance, arg.ID, arg.Balance))
}

const listWallets = `-- name: ListWallets :many
SELECT ` + walletColumns + ` FROM wallets
ORDER BY created_at
LIMIT $1 OFFSET $2`

type ListWalletsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error) {
	rows, err := q.db.Query(ctx, listWallets, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Wallet{}
	for rows.Next() {
		i, err := scanWallet(rows)
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

const listWalletDrift = `-- name: ListWalletDrift :many
SELECT
    w.id,
    w.owner_id,
    w.currency,
    w.balance,
    (w.opening_balance
        + COALESCE(SUM(CASE WHEN t.type = 'CREDIT' THEN t.amount ELSE 0 END), 0)
        - COALESCE(SUM(CASE WHEN t.type = 'DEBIT' THEN t.amount ELSE 0 END), 0))::BIGINT AS ledger_balance
FROM wallets w
LEFT JOIN transactions t ON t.wallet_id = w.id
GROUP BY w.id, w.owner_id, w.currency, w.balance, w.opening_balance
HAVING w.balance <> (w.opening_balance
        + COALESCE(SUM(CASE WHEN t.type = 'CREDIT' THEN t.amount ELSE 0 END), 0)
        - COALESCE(SUM(CASE WHEN t.type = 'DEBIT' THEN t.amount ELSE 0 END), 0))
ORDER BY w.id`

type ListWalletDriftRow struct {
	ID            pgtype.UUID
	OwnerID       string
	Currency      string
	Balance       int64
	LedgerBalance int64
}

// ListWalletDrift returns wallets whose stored balance disagrees with the
// opening balance plus the signed sum of their ledger rows.
func (q *Queries) ListWalletDrift(ctx context.Context) ([]ListWalletDriftRow, error) {
	rows, err := q.db.Query(ctx, listWalletDrift)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListWalletDriftRow{}
	for rows.Next() {
		var i ListWalletDriftRow
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Currency,
			&i.Balance,
			&i.LedgerBalance,
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
