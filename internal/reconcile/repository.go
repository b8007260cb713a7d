package reconcile

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tajirhub/tajir/internal/valuation"
)

// Repository resolves ledger references back to product source types so the
// engine can tell a legitimate owned-stock profit from an erroneous
// consignment one. Profit entries reference either a product directly or a
// sale, so both public ids map to the underlying product's source.
type Repository interface {
	SourceByReference(ctx context.Context, vendorID int64) (map[string]valuation.SourceType, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SourceByReference(ctx context.Context, vendorID int64) (map[string]valuation.SourceType, error) {
	rows, err := r.db.Query(ctx, `SELECT public_id::text, source_type FROM vendor_products WHERE vendor_id=$1
UNION ALL
SELECT s.public_id::text, p.source_type FROM vendor_sales s
JOIN vendor_products p ON p.id = s.product_id
WHERE s.vendor_id=$1`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sources := make(map[string]valuation.SourceType)
	for rows.Next() {
		var ref string
		var src valuation.SourceType
		if err := rows.Scan(&ref, &src); err != nil {
			return nil, err
		}
		sources[ref] = src
	}
	return sources, rows.Err()
}
