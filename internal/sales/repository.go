package sales

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores sale records.
type Repository interface {
	Insert(ctx context.Context, s Sale) (Sale, error)
	List(ctx context.Context, vendorID int64) ([]Sale, error)
	// Remove hard-deletes a sale whose capital posting failed.
	Remove(ctx context.Context, saleID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, s Sale) (Sale, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO vendor_sales (vendor_id, product_id, public_id, quantity, selling_price, unit_cost, profit)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`,
		s.VendorID, s.ProductID, s.PublicID, s.Quantity, s.SellingPrice, s.UnitCost, s.Profit)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, vendorID int64) ([]Sale, error) {
	rows, err := r.db.Query(ctx, `SELECT id, vendor_id, product_id, public_id::text, quantity, selling_price, unit_cost, profit, created_at
FROM vendor_sales WHERE vendor_id=$1 ORDER BY id ASC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.VendorID, &s.ProductID, &s.PublicID, &s.Quantity, &s.SellingPrice, &s.UnitCost, &s.Profit, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Remove(ctx context.Context, saleID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vendor_sales WHERE id=$1`, saleID)
	return err
}
