package app

import (
	"context"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/clock"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/Esraa-27/flash-sale-api/internal/retry"
)

// OrderRepository is the persistence surface OrderService needs.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	SetHoldUsed(ctx context.Context, holdID string, used bool) error
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// OrderService is the order manager: it derives orders from holds and
// carries them through payment resolution.
type OrderService struct {
	repo    OrderRepository
	clock   clock.Clock
	cache   cache.Store
	metrics retry.Counter
}

func NewOrderService(repo OrderRepository, clk clock.Clock, cch cache.Store, metrics retry.Counter) *OrderService {
	return &OrderService{
		repo:    repo,
		clock:   clk,
		cache:   cch,
		metrics: metrics,
	}
}

// CreateFromHold derives a pending order from an unused, unexpired hold and
// consumes the hold in the same transaction.
func (s *OrderService) CreateFromHold(ctx context.Context, holdID string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order
	var productID string

	err := retry.OnContention(ctx, s.metrics, "create_from_hold", func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
			if err != nil {
				return err
			}
			if !hold.ExpiresAt.After(now) {
				return domain.ErrHoldExpired
			}
			if hold.IsUsed {
				return domain.ErrHoldAlreadyUsed
			}

			order := domain.Order{
				ID:        newUUID(),
				HoldID:    holdID,
				Status:    domain.OrderStatusPending,
				CreatedAt: now,
			}
			if err := s.repo.CreateOrder(txCtx, order); err != nil {
				return err
			}
			if err := s.repo.SetHoldUsed(txCtx, holdID, true); err != nil {
				return err
			}

			result = order
			productID = hold.ProductID
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, mapDomainErr(err)
	}

	s.cache.Forget(ctx, cache.AvailableStockKey(productID))
	return result, nil
}

// MarkPaid transitions a pending order to paid and invalidates the cached
// available-stock entry for the product backing its hold. Called from the
// webhook processor's transaction.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) error {
	order, err := s.repo.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	hold, err := s.repo.GetHoldForUpdate(ctx, order.HoldID)
	if err != nil {
		return err
	}
	if err := s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusPaid); err != nil {
		return err
	}
	s.cache.Forget(ctx, cache.AvailableStockKey(hold.ProductID))
	return nil
}

// Cancel transitions a pending order to cancelled. Called from the webhook
// processor's transaction ahead of releasing the underlying hold.
func (s *OrderService) Cancel(ctx context.Context, orderID string) error {
	return s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
}
