package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/app"
	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/clock"
	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/storage/postgres"
	"github.com/Esraa-27/flash-sale-api/internal/testutil"
)

func TestCreateHold_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := postgres.NewHoldRepository(pool)
	now := time.Date(2025, 1, 4, 10, 0, 0, 0, time.UTC)
	reg := metrics.NewRegistry()
	svc := app.NewHoldService(repo, clock.NewFixed(now), cache.NewMemoryStore(), reg)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	productID := testutil.InsertProduct(t, ctx, pool, "Concert Ticket", 49.99, 100)

	body := []byte(`{"product_id":"` + productID + `","qty":3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/holds", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	HandleCreateHold(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp createHoldResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ExpiresAt != now.Add(120*time.Second) {
		t.Fatalf("expected expires_at %v, got %v", now.Add(120*time.Second), resp.ExpiresAt)
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM holds WHERE product_id = $1 AND quantity = 3`,
		productID,
	).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 hold, got %d", count)
	}
}

func TestCreateOrderAndWebhook_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	holdRepo := postgres.NewHoldRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)

	now := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
	reg := metrics.NewRegistry()
	cch := cache.NewMemoryStore()
	holdSvc := app.NewHoldService(holdRepo, clock.NewFixed(now), cch, reg)
	orderSvc := app.NewOrderService(postgres.NewOrderHoldRepository(orderRepo, holdRepo), clock.NewFixed(now.Add(time.Minute)), cch, reg)
	webhookSvc := app.NewWebhookService(orderRepo, orderSvc, paymentRepo, holdRepo, clock.NewFixed(now.Add(2*time.Minute)), cch, reg, reg)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	productID := testutil.InsertProduct(t, ctx, pool, "Concert Ticket", 49.99, 100)

	mux := http.NewServeMux()
	mux.Handle("/api/holds", HandleCreateHold(holdSvc))
	mux.Handle("/api/orders", HandleCreateOrder(orderSvc))
	mux.Handle("/api/payments/webhook", HandleWebhook(webhookSvc))

	holdBody := []byte(`{"product_id":"` + productID + `","qty":2}`)
	holdReq := httptest.NewRequest(http.MethodPost, "/api/holds", bytes.NewBuffer(holdBody))
	holdRec := httptest.NewRecorder()
	mux.ServeHTTP(holdRec, holdReq)

	if holdRec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", holdRec.Code)
	}

	var createdHold createHoldResponse
	if err := json.NewDecoder(holdRec.Body).Decode(&createdHold); err != nil {
		t.Fatalf("decode hold response: %v", err)
	}

	orderBody := []byte(`{"hold_id":"` + createdHold.HoldID + `"}`)
	orderReq := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBuffer(orderBody))
	orderRec := httptest.NewRecorder()
	mux.ServeHTTP(orderRec, orderReq)

	if orderRec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", orderRec.Code)
	}

	var createdOrder createOrderResponse
	if err := json.NewDecoder(orderRec.Body).Decode(&createdOrder); err != nil {
		t.Fatalf("decode order response: %v", err)
	}
	if createdOrder.Status != "pending" {
		t.Fatalf("expected status pending, got %s", createdOrder.Status)
	}

	webhookBody := []byte(`{"order_id":"` + createdOrder.OrderID + `","idempotency_key":"wh-1","status":"success"}`)
	webhookReq := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBuffer(webhookBody))
	webhookRec := httptest.NewRecorder()
	mux.ServeHTTP(webhookRec, webhookReq)

	if webhookRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", webhookRec.Code)
	}

	var webhookResp webhookResponse
	if err := json.NewDecoder(webhookRec.Body).Decode(&webhookResp); err != nil {
		t.Fatalf("decode webhook response: %v", err)
	}
	if webhookResp.Status != "paid" {
		t.Fatalf("expected status paid, got %s", webhookResp.Status)
	}

	webhookRetryRec := httptest.NewRecorder()
	mux.ServeHTTP(webhookRetryRec, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBuffer(webhookBody)))
	if webhookRetryRec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on retried delivery, got %d", webhookRetryRec.Code)
	}

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, createdOrder.OrderID).Scan(&status); err != nil {
		t.Fatalf("query status: %v", err)
	}
	if status != "paid" {
		t.Fatalf("expected order status paid, got %s", status)
	}
}
