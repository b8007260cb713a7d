package capital

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository encapsulates DB access for capital accounts and ledger entries.
type Repository interface {
	GetAccount(ctx context.Context, vendorID int64) (Account, error)
	ListEntries(ctx context.Context, vendorID int64, limit int) ([]LedgerEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside one transaction.
// GetAccountForUpdate takes the per-vendor row lock that serializes
// concurrent postings for the same vendor.
type TxRepository interface {
	CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (Account, error)
	GetAccountForUpdate(ctx context.Context, vendorID int64) (Account, error)
	UpdateBalance(ctx context.Context, vendorID int64, balance decimal.Decimal) error
	InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	ReferencePosted(ctx context.Context, vendorID int64, kind EntryKind, referenceID string) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetAccount(ctx context.Context, vendorID int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT vendor_id, initial_capital, current_balance, created_at, updated_at
FROM vendor_capital_accounts WHERE vendor_id=$1`, vendorID).
		Scan(&a.VendorID, &a.InitialCapital, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// ListEntries returns the ledger ascending by id. A non-positive limit means
// no limit: reconciliation must replay the full chain.
func (r *repository) ListEntries(ctx context.Context, vendorID int64, limit int) ([]LedgerEntry, error) {
	query := `SELECT id, vendor_id, kind, amount, balance_before, balance_after, description, reference_type, reference_id, created_at
FROM capital_ledger_entries WHERE vendor_id=$1 ORDER BY id ASC`
	args := []any{vendorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.VendorID, &e.Kind, &e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.Description, &e.ReferenceType, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (Account, error) {
	var a Account
	err := r.tx.QueryRow(ctx, `INSERT INTO vendor_capital_accounts (vendor_id, initial_capital, current_balance)
VALUES ($1, $2, $2) RETURNING vendor_id, initial_capital, current_balance, created_at, updated_at`, vendorID, initialCapital).
		Scan(&a.VendorID, &a.InitialCapital, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrAccountExists
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, vendorID int64) (Account, error) {
	var a Account
	err := r.tx.QueryRow(ctx, `SELECT vendor_id, initial_capital, current_balance, created_at, updated_at
FROM vendor_capital_accounts WHERE vendor_id=$1 FOR UPDATE`, vendorID).
		Scan(&a.VendorID, &a.InitialCapital, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateBalance(ctx context.Context, vendorID int64, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE vendor_capital_accounts SET current_balance=$2, updated_at=NOW() WHERE vendor_id=$1`, vendorID, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO capital_ledger_entries (vendor_id, kind, amount, balance_before, balance_after, description, reference_type, reference_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		entry.VendorID, entry.Kind, entry.Amount, entry.BalanceBefore, entry.BalanceAfter, entry.Description, nullStr(entry.ReferenceType), nullStr(entry.ReferenceID)).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return LedgerEntry{}, ErrDuplicateReference
		}
		return LedgerEntry{}, err
	}
	return entry, nil
}

// ReferencePosted is the in-transaction dedup check; the partial unique index
// uq_ledger_reference (vendor_id, kind, reference_id) backs it against races.
func (r *txRepository) ReferencePosted(ctx context.Context, vendorID int64, kind EntryKind, referenceID string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM capital_ledger_entries WHERE vendor_id=$1 AND kind=$2 AND reference_id=$3)`,
		vendorID, kind, referenceID).Scan(&exists)
	return exists, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
