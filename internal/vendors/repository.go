package vendors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores vendor rows.
type Repository interface {
	Insert(ctx context.Context, v Vendor) (Vendor, error)
	Get(ctx context.Context, vendorID int64) (Vendor, error)
	ListIDs(ctx context.Context) ([]int64, error)
	// Remove hard-deletes a vendor whose account provisioning failed.
	Remove(ctx context.Context, vendorID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, v Vendor) (Vendor, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO vendors (name, email) VALUES ($1, $2)
RETURNING id, created_at`, v.Name, v.Email)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Vendor{}, ErrEmailTaken
		}
		return Vendor{}, err
	}
	return v, nil
}

func (r *repository) Get(ctx context.Context, vendorID int64) (Vendor, error) {
	var v Vendor
	row := r.db.QueryRow(ctx, `SELECT id, name, email, created_at FROM vendors WHERE id=$1`, vendorID)
	if err := row.Scan(&v.ID, &v.Name, &v.Email, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

// ListIDs returns every vendor id ascending; the reconciliation sweep walks
// this list.
func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM vendors ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repository) Remove(ctx context.Context, vendorID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vendors WHERE id=$1`, vendorID)
	return err
}
