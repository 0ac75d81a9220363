package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/Esraa-27/flash-sale-api/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateOrder persists and GetOrder returns it", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Widget", 9.99, 100)
		holdID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			Quantity:  1,
			ExpiresAt: time.Now().Add(2 * time.Minute),
			IsUsed:    false,
		})

		order := domain.Order{
			ID:        "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			HoldID:    holdID,
			Status:    domain.OrderStatusPending,
			CreatedAt: time.Now().UTC(),
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.CreateOrder(txCtx, order)
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.HoldID != order.HoldID || got.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected order: %+v", got)
		}

		_, err = repo.GetOrder(ctx, "00000000-0000-0000-0000-000000000001")
		if err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("CreateOrder rejects a second order against an already-used hold", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Widget", 9.99, 100)
		holdID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			Quantity:  1,
			ExpiresAt: time.Now().Add(2 * time.Minute),
			IsUsed:    false,
		})

		first := domain.Order{ID: "cccccccccccccccccccccccccccccc1", HoldID: holdID, Status: domain.OrderStatusPending, CreatedAt: time.Now().UTC()}
		if err := repo.CreateOrder(ctx, first); err != nil {
			t.Fatalf("create first order: %v", err)
		}

		second := domain.Order{ID: "cccccccccccccccccccccccccccccc2", HoldID: holdID, Status: domain.OrderStatusPending, CreatedAt: time.Now().UTC()}
		if err := repo.CreateOrder(ctx, second); err != domain.ErrHoldAlreadyUsed {
			t.Fatalf("expected ErrHoldAlreadyUsed, got %v", err)
		}
	})

	t.Run("GetOrderForUpdate locks the row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Widget", 9.99, 100)
		holdID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			Quantity:  1,
			ExpiresAt: time.Now().Add(2 * time.Minute),
			IsUsed:    false,
		})
		order := domain.Order{ID: "dddddddddddddddddddddddddddddd1", HoldID: holdID, Status: domain.OrderStatusPending, CreatedAt: time.Now().UTC()}
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			got, err := repo.GetOrderForUpdate(txCtx, order.ID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.ID != order.ID {
				t.Fatalf("unexpected order: %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
	})

	t.Run("SetOrderStatus updates status and errors on missing order", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, "Widget", 9.99, 100)
		holdID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			Quantity:  1,
			ExpiresAt: time.Now().Add(2 * time.Minute),
			IsUsed:    false,
		})
		order := domain.Order{ID: "fffffffffffffffffffffffffffffff", HoldID: holdID, Status: domain.OrderStatusPending, CreatedAt: time.Now().UTC()}
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		if err := repo.SetOrderStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
			t.Fatalf("set order status: %v", err)
		}

		var status string
		if err := pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, order.ID).Scan(&status); err != nil {
			t.Fatalf("query status: %v", err)
		}
		if status != string(domain.OrderStatusPaid) {
			t.Fatalf("expected status paid, got %s", status)
		}

		if err := repo.SetOrderStatus(ctx, "00000000-0000-0000-0000-000000000001", domain.OrderStatusPaid); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}
