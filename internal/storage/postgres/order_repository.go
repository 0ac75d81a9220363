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

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `INSERT INTO orders (id, hold_id, status, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, order.ID, order.HoldID, order.Status, order.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return domain.ErrHoldAlreadyUsed
		}
		return fmt.Errorf("create order: %w", dberr.Classify(err))
	}
	return nil
}

// GetOrder reads an order without locking it, used for the duplicate-
// webhook fast path where no transaction is needed.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `SELECT id, hold_id, status, created_at FROM orders WHERE id = $1`

	var o domain.Order
	var status string
	err := r.queryRow(ctx, query, orderID).Scan(&o.ID, &o.HoldID, &status, &o.CreatedAt)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", dberr.Classify(err))
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

// GetOrderForUpdate locks the order row ahead of a status transition.
func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `SELECT id, hold_id, status, created_at FROM orders WHERE id = $1 FOR UPDATE`

	var o domain.Order
	var status string
	err := r.queryRow(ctx, query, orderID).Scan(&o.ID, &o.HoldID, &status, &o.CreatedAt)
	if err != nil {
		if dberr.IsInvalidID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if dberr.IsNoRows(err) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order for update: %w", dberr.Classify(err))
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (r *OrderRepository) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status)
	if err != nil {
		return fmt.Errorf("set order status: %w", dberr.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
