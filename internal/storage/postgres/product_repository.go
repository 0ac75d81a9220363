package postgres

import (
	"context"
	"fmt"

	"github.com/Esraa-27/flash-sale-api/internal/dberr"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository is the plain (non-locking) read path for the catalog.
// It never appends FOR UPDATE and never touches the cache.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	const query = `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = $1`

	var p domain.Product
	err := r.queryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", dberr.Classify(err))
	}
	return p, nil
}

// AvailableStock sums quantities of active holds against the product's
// fixed stock ceiling. The bool return reports whether the product
// exists; a false with a nil error means the caller should return
// NotFound.
func (r *ProductRepository) AvailableStock(ctx context.Context, productID string) (int, bool, error) {
	const query = `
SELECT p.stock - COALESCE((
	SELECT SUM(h.quantity)
	FROM holds h
	WHERE h.product_id = p.id AND h.is_used = false AND h.expires_at > NOW()
), 0)
FROM products p
WHERE p.id = $1`

	var available int
	err := r.queryRow(ctx, query, productID).Scan(&available)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return 0, false, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("available stock: %w", dberr.Classify(err))
	}
	if available < 0 {
		available = 0
	}
	return available, true, nil
}

func (r *ProductRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
