package valuation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads inventory positions. Snapshot consistency is the whole
// point: all rows come from a single RepeatableRead transaction so a
// concurrent purchase commit cannot be half-visible.
type Repository interface {
	ListPositions(ctx context.Context, vendorID int64) ([]Position, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListPositions(ctx context.Context, vendorID int64) ([]Position, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `SELECT p.id, p.source_type, p.unit_cost, p.quantity_on_hand, p.quantity_sold,
COALESCE(SUM(a.amount), 0), p.deleted_at IS NOT NULL
FROM vendor_products p
LEFT JOIN supplier_voucher_allocations a ON a.product_id = p.id
WHERE p.vendor_id = $1
GROUP BY p.id
ORDER BY p.id ASC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ProductID, &p.SourceType, &p.UnitCost, &p.QuantityOnHand, &p.QuantitySold, &p.SettledValue, &p.Deleted); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return positions, tx.Commit(ctx)
}
