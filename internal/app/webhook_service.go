package app

import (
	"context"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/apperr"
	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/clock"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/Esraa-27/flash-sale-api/internal/retry"
)

// WebhookOrderRepository is the order-side persistence surface the webhook
// processor needs for reading an order; applying the outcome of a
// delivery goes through OrderStatusUpdater instead.
type WebhookOrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
}

// OrderStatusUpdater is the order manager's transition surface, satisfied
// by *OrderService in production. Routing the webhook processor's status
// changes through it keeps mark_paid/cancel implemented once.
type OrderStatusUpdater interface {
	MarkPaid(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID string) error
}

// WebhookPaymentRepository is the payment-side persistence surface.
type WebhookPaymentRepository interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	CreatePayment(ctx context.Context, payment domain.Payment) error
}

// WebhookHoldRepository lets the processor release a hold whose order's
// payment failed, in the same transaction as the status transition.
type WebhookHoldRepository interface {
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	SetHoldUsed(ctx context.Context, holdID string, used bool) error
}

// DuplicateCounter is the minimal metrics surface for recording an
// absorbed duplicate webhook delivery.
type DuplicateCounter interface {
	IncWebhookDuplicate()
}

// WebhookMetrics is the metrics surface WebhookService needs: the
// deadlock-retry counter plus the webhook-processing latency ring.
type WebhookMetrics interface {
	retry.Counter
	RecordWebhookLatency(d time.Duration)
}

// WebhookService is the payment webhook processor: it reconciles a
// provider's delivery against exactly one order, exactly once, no matter
// how many times the provider retries it.
type WebhookService struct {
	orders     WebhookOrderRepository
	orderMgr   OrderStatusUpdater
	payments   WebhookPaymentRepository
	holds      WebhookHoldRepository
	clock      clock.Clock
	cache      cache.Store
	metrics    WebhookMetrics
	duplicates DuplicateCounter
}

func NewWebhookService(
	orders WebhookOrderRepository,
	orderMgr OrderStatusUpdater,
	payments WebhookPaymentRepository,
	holds WebhookHoldRepository,
	clk clock.Clock,
	cch cache.Store,
	metrics WebhookMetrics,
	duplicates DuplicateCounter,
) *WebhookService {
	return &WebhookService{
		orders:     orders,
		orderMgr:   orderMgr,
		payments:   payments,
		holds:      holds,
		clock:      clk,
		cache:      cch,
		metrics:    metrics,
		duplicates: duplicates,
	}
}

// ProcessWebhookInput is one reported payment outcome for one order.
type ProcessWebhookInput struct {
	OrderID        string
	IdempotencyKey string
	Status         string
}

// WebhookResult is the order this delivery resolved to and its resulting
// status, which may belong to a different order than the one requested
// when idempotency_key was already claimed by an earlier delivery.
type WebhookResult struct {
	OrderID string
	Status  string
}

// Process implements the five-step webhook protocol: a pre-transaction
// idempotency probe ahead of status validation, so a retried delivery with
// a mangled status still replays the original result instead of failing
// validation, followed by a single retryable transaction that re-probes,
// records the payment, and applies its effect.
func (s *WebhookService) Process(ctx context.Context, in ProcessWebhookInput) (WebhookResult, error) {
	if in.IdempotencyKey == "" {
		return WebhookResult{}, domain.ErrIdempotencyRequired
	}

	if existing, err := s.payments.FindByIdempotencyKey(ctx, in.IdempotencyKey); err != nil {
		return WebhookResult{}, mapDomainErr(err)
	} else if existing != nil {
		s.duplicates.IncWebhookDuplicate()
		order, err := s.orders.GetOrder(ctx, existing.OrderID)
		if err != nil {
			return WebhookResult{}, mapDomainErr(err)
		}
		return WebhookResult{OrderID: order.ID, Status: string(order.Status)}, nil
	}

	status, err := parsePaymentStatus(in.Status)
	if err != nil {
		return WebhookResult{}, apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
	}

	now := s.clock.Now()
	var result WebhookResult
	var releasedHoldProductID string
	start := time.Now()

	err = retry.OnContention(ctx, s.metrics, "process_webhook", func(ctx context.Context) error {
		return s.orders.WithTx(ctx, func(txCtx context.Context) error {
			order, err := s.orders.GetOrderForUpdate(txCtx, in.OrderID)
			if err != nil {
				return err
			}

			if existing, err := s.payments.FindByIdempotencyKey(txCtx, in.IdempotencyKey); err != nil {
				return err
			} else if existing != nil {
				existingOrder, err := s.orders.GetOrderForUpdate(txCtx, existing.OrderID)
				if err != nil {
					return err
				}
				result = WebhookResult{OrderID: existingOrder.ID, Status: string(existingOrder.Status)}
				return nil
			}

			payment := domain.Payment{
				ID:             newUUID(),
				OrderID:        order.ID,
				IdempotencyKey: in.IdempotencyKey,
				Status:         status,
				CreatedAt:      now,
			}
			if err := s.payments.CreatePayment(txCtx, payment); err != nil {
				if err == domain.ErrIdempotencyConflict {
					s.duplicates.IncWebhookDuplicate()
					existing, err := s.payments.FindByIdempotencyKey(txCtx, in.IdempotencyKey)
					if err != nil {
						return err
					}
					if existing != nil {
						existingOrder, err := s.orders.GetOrderForUpdate(txCtx, existing.OrderID)
						if err != nil {
							return err
						}
						result = WebhookResult{OrderID: existingOrder.ID, Status: string(existingOrder.Status)}
						return nil
					}
				}
				return err
			}

			var newStatus domain.OrderStatus
			switch status {
			case domain.PaymentStatusSuccess:
				newStatus = domain.OrderStatusPaid
				if err := s.orderMgr.MarkPaid(txCtx, order.ID); err != nil {
					return err
				}
			case domain.PaymentStatusFailed:
				newStatus = domain.OrderStatusCancelled
				if err := s.orderMgr.Cancel(txCtx, order.ID); err != nil {
					return err
				}
				hold, err := s.holds.GetHoldForUpdate(txCtx, order.HoldID)
				if err != nil {
					return err
				}
				if err := s.holds.SetHoldUsed(txCtx, order.HoldID, false); err != nil {
					return err
				}
				releasedHoldProductID = hold.ProductID
			}

			result = WebhookResult{OrderID: order.ID, Status: string(newStatus)}
			return nil
		})
	})
	s.metrics.RecordWebhookLatency(time.Since(start))
	if err != nil {
		return WebhookResult{}, mapDomainErr(err)
	}

	if releasedHoldProductID != "" {
		s.cache.Forget(ctx, cache.AvailableStockKey(releasedHoldProductID))
	}

	return result, nil
}

func parsePaymentStatus(raw string) (domain.PaymentStatus, error) {
	switch domain.PaymentStatus(raw) {
	case domain.PaymentStatusSuccess, domain.PaymentStatusFailed:
		return domain.PaymentStatus(raw), nil
	default:
		return "", domain.ErrInvalidStatus
	}
}
