package postgres

import (
	"context"
	"fmt"

	"github.com/Esraa-27/flash-sale-api/internal/dberr"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository backs the webhook processor. idempotency_key carries a
// UNIQUE constraint that is the hard safeguard against duplicate effects
// from a retried delivery; the in-app probes are an optimization on top.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// FindByIdempotencyKey returns the payment previously recorded for this key
// (its OrderID names the order that delivery applied to), or nil if the key
// has never been seen.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	const query = `
SELECT id, order_id, idempotency_key, status, created_at
FROM payments
WHERE idempotency_key = $1`

	var p domain.Payment
	var status string
	err := r.queryRow(ctx, query, key).Scan(&p.ID, &p.OrderID, &p.IdempotencyKey, &status, &p.CreatedAt)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find payment by idempotency key: %w", dberr.Classify(err))
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

// CreatePayment inserts the payment record. A unique-violation on
// idempotency_key surfaces as domain.ErrIdempotencyConflict so the caller
// can re-probe and treat the delivery as a duplicate.
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, order_id, idempotency_key, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, payment.ID, payment.OrderID, payment.IdempotencyKey, payment.Status, payment.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		if dberr.IsForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("create payment: %w", dberr.Classify(err))
	}
	return nil
}

func (r *PaymentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PaymentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
