package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/dberr"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetProductForUpdate locks the product row so a concurrent hold creation
// against the same product serializes behind this transaction.
func (r *HoldRepository) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	const query = `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = $1 FOR UPDATE`

	var p domain.Product
	err := r.queryRow(ctx, query, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product for update: %w", dberr.Classify(err))
	}
	return p, nil
}

// SumActiveHoldQuantity sums quantities of holds still counted against
// available stock: unused and not yet expired.
func (r *HoldRepository) SumActiveHoldQuantity(ctx context.Context, productID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM holds
WHERE product_id = $1 AND is_used = false AND expires_at > $2`

	var total int
	if err := r.queryRow(ctx, query, productID, now).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active hold quantity: %w", dberr.Classify(err))
	}
	return total, nil
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, product_id, quantity, expires_at, is_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, hold.ID, hold.ProductID, hold.Quantity, hold.ExpiresAt, hold.IsUsed, hold.CreatedAt)
	if err != nil {
		return fmt.Errorf("create hold: %w", dberr.Classify(err))
	}
	return nil
}

// GetHoldForUpdate locks the hold row ahead of a release or order derivation.
func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const query = `
SELECT id, product_id, quantity, expires_at, is_used, created_at
FROM holds
WHERE id = $1
FOR UPDATE`

	var h domain.Hold
	err := r.queryRow(ctx, query, holdID).
		Scan(&h.ID, &h.ProductID, &h.Quantity, &h.ExpiresAt, &h.IsUsed, &h.CreatedAt)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold for update: %w", dberr.Classify(err))
	}
	return h, nil
}

// SetHoldUsed flips a hold's is_used flag; used both when an order
// consumes a hold and, with used=false, when a failed payment releases it.
func (r *HoldRepository) SetHoldUsed(ctx context.Context, holdID string, used bool) error {
	const stmt = `UPDATE holds SET is_used = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, holdID, used)
	if err != nil {
		return fmt.Errorf("set hold used: %w", dberr.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// MarkExpiredHoldsUsed sweeps holds whose expiry has passed and which are
// still unused, marking them used so they permanently drop out of
// available-stock sums, and returns which products were touched.
func (r *HoldRepository) MarkExpiredHoldsUsed(ctx context.Context, now time.Time) ([]string, error) {
	const stmt = `
UPDATE holds
SET is_used = true
WHERE is_used = false AND expires_at <= $1
RETURNING product_id`

	rows, err := r.query(ctx, stmt, now)
	if err != nil {
		return nil, fmt.Errorf("mark expired holds used: %w", dberr.Classify(err))
	}
	defer rows.Close()

	var productIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired hold: %w", err)
		}
		productIDs = append(productIDs, id)
	}
	return productIDs, rows.Err()
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
