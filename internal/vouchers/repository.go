package vouchers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tajirhub/tajir/internal/platform/db"
)

// Repository stores vouchers and their settlement allocations.
type Repository interface {
	Insert(ctx context.Context, v Voucher, allocations []Allocation) (Voucher, error)
	List(ctx context.Context, vendorID int64) ([]Voucher, error)
	// Remove hard-deletes a voucher whose capital posting failed. Allocations
	// cascade with the voucher row.
	Remove(ctx context.Context, voucherID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, v Voucher, allocations []Allocation) (Voucher, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO supplier_vouchers (vendor_id, public_id, kind, amount, note)
VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
			v.VendorID, v.PublicID, v.Kind, v.Amount, v.Note)
		if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
			return err
		}
		for _, a := range allocations {
			if _, err := tx.Exec(ctx, `INSERT INTO supplier_voucher_allocations (voucher_id, product_id, amount)
VALUES ($1, $2, $3)`, v.ID, a.ProductID, a.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, vendorID int64) ([]Voucher, error) {
	rows, err := r.db.Query(ctx, `SELECT id, vendor_id, public_id::text, kind, amount, note, created_at
FROM supplier_vouchers WHERE vendor_id=$1 ORDER BY id ASC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		var v Voucher
		if err := rows.Scan(&v.ID, &v.VendorID, &v.PublicID, &v.Kind, &v.Amount, &v.Note, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) Remove(ctx context.Context, voucherID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM supplier_vouchers WHERE id=$1`, voucherID)
	return err
}
