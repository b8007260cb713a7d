package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB access for vendor products.
type Repository interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Get(ctx context.Context, vendorID, productID int64) (Product, error)
	List(ctx context.Context, vendorID int64) ([]Product, error)
	SoftDelete(ctx context.Context, vendorID, productID int64) error
	// Remove hard-deletes a row that never reached the ledger; it exists only
	// to compensate a failed purchase posting.
	Remove(ctx context.Context, productID int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes stock movements inside one transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, vendorID, productID int64) (Product, error)
	AdjustQuantities(ctx context.Context, productID, onHandDelta, soldDelta int64) error
}

const productColumns = `id, vendor_id, public_id::text, name, source_type, unit_cost, quantity_on_hand, quantity_sold, created_at, updated_at, deleted_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.VendorID, &p.PublicID, &p.Name, &p.SourceType, &p.UnitCost, &p.QuantityOnHand, &p.QuantitySold, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Insert(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO vendor_products (vendor_id, public_id, name, source_type, unit_cost, quantity_on_hand)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+productColumns,
		p.VendorID, p.PublicID, p.Name, p.SourceType, p.UnitCost, p.QuantityOnHand)
	return scanProduct(row)
}

func (r *repository) Get(ctx context.Context, vendorID, productID int64) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM vendor_products
WHERE vendor_id=$1 AND id=$2 AND deleted_at IS NULL`, vendorID, productID)
	return scanProduct(row)
}

func (r *repository) List(ctx context.Context, vendorID int64) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM vendor_products
WHERE vendor_id=$1 AND deleted_at IS NULL ORDER BY id ASC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SoftDelete keeps the row so valuation and reconciliation retain the sold
// history of deleted products.
func (r *repository) SoftDelete(ctx context.Context, vendorID, productID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE vendor_products SET deleted_at=NOW(), updated_at=NOW()
WHERE vendor_id=$1 AND id=$2 AND deleted_at IS NULL`, vendorID, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, productID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vendor_products WHERE id=$1`, productID)
	return err
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

func (r *txRepository) GetForUpdate(ctx context.Context, vendorID, productID int64) (Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM vendor_products
WHERE vendor_id=$1 AND id=$2 AND deleted_at IS NULL FOR UPDATE`, vendorID, productID)
	return scanProduct(row)
}

func (r *txRepository) AdjustQuantities(ctx context.Context, productID, onHandDelta, soldDelta int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE vendor_products
SET quantity_on_hand = quantity_on_hand + $2, quantity_sold = quantity_sold + $3, updated_at = NOW()
WHERE id=$1 AND deleted_at IS NULL`, productID, onHandDelta, soldDelta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
