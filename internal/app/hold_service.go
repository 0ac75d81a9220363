package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/apperr"
	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/clock"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
	"github.com/Esraa-27/flash-sale-api/internal/retry"
)

// HoldRepository is the persistence surface HoldService needs, satisfied by
// internal/storage/postgres.HoldRepository in production.
type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	SumActiveHoldQuantity(ctx context.Context, productID string, now time.Time) (int, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	SetHoldUsed(ctx context.Context, holdID string, used bool) error
	MarkExpiredHoldsUsed(ctx context.Context, now time.Time) ([]string, error)
}

// HoldMetrics is the metrics surface HoldService needs: the deadlock-retry
// counter plus the hold-creation latency ring.
type HoldMetrics interface {
	retry.Counter
	RecordHoldLatency(d time.Duration)
}

// HoldService is the hold manager: it owns the reservation lifecycle and is
// the only writer of a product's active-hold set.
type HoldService struct {
	repo    HoldRepository
	clock   clock.Clock
	cache   cache.Store
	metrics HoldMetrics
	holdTTL time.Duration
}

const defaultHoldTTL = 120 * time.Second

func NewHoldService(repo HoldRepository, clk clock.Clock, cch cache.Store, metrics HoldMetrics, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		clock:   clk,
		cache:   cch,
		metrics: metrics,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// CreateWithValidation reserves quantity units of productID under an
// exclusive lock on the product row, failing if the reservation would
// exceed available stock.
func (s *HoldService) CreateWithValidation(ctx context.Context, productID string, quantity int) (domain.Hold, error) {
	if quantity < 1 {
		return domain.Hold{}, apperr.Validation(map[string][]string{"quantity": {"quantity must be at least 1"}})
	}

	now := s.clock.Now()
	var result domain.Hold
	start := time.Now()

	err := retry.OnContention(ctx, s.metrics, "create_with_validation", func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			product, err := s.repo.GetProductForUpdate(txCtx, productID)
			if err != nil {
				return err
			}

			activeQty, err := s.repo.SumActiveHoldQuantity(txCtx, productID, now)
			if err != nil {
				return err
			}

			available := product.Stock - activeQty
			if available < 0 {
				available = 0
			}
			if quantity > available {
				return domain.ErrInsufficientStock
			}

			hold := domain.Hold{
				ID:        newUUID(),
				ProductID: productID,
				Quantity:  quantity,
				ExpiresAt: now.Add(s.holdTTL),
				IsUsed:    false,
				CreatedAt: now,
			}
			if err := s.repo.CreateHold(txCtx, hold); err != nil {
				return err
			}

			result = hold
			return nil
		})
	})
	s.metrics.RecordHoldLatency(time.Since(start))
	if err != nil {
		return domain.Hold{}, mapDomainErr(err)
	}

	s.cache.Forget(ctx, cache.AvailableStockKey(productID))
	return result, nil
}

// Release reverts a hold to unused, e.g. when the order derived from it
// failed payment. It does not delete the hold.
func (s *HoldService) Release(ctx context.Context, holdID string) error {
	var productID string

	err := retry.OnContention(ctx, s.metrics, "release_hold", func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
			if err != nil {
				return err
			}
			if err := s.repo.SetHoldUsed(txCtx, holdID, false); err != nil {
				return err
			}
			productID = hold.ProductID
			return nil
		})
	})
	if err != nil {
		return mapDomainErr(err)
	}

	s.cache.Forget(ctx, cache.AvailableStockKey(productID))
	return nil
}

// SweepResult reports how many holds an expiry sweep transitioned and
// which products need their cached available-stock invalidated.
type SweepResult struct {
	Count      int
	ProductIDs []string
}

// ExpirySweep marks every hold whose expiry has passed and which is still
// unused as used, removing it from future available-stock sums. It runs
// outside any caller transaction and is itself retried on contention,
// since it can lock the same hold rows a concurrent CreateFromHold locks.
func (s *HoldService) ExpirySweep(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	var touched []string

	err := retry.OnContention(ctx, s.metrics, "expiry_sweep", func(ctx context.Context) error {
		ids, err := s.repo.MarkExpiredHoldsUsed(ctx, now)
		if err != nil {
			return err
		}
		touched = ids
		return nil
	})
	if err != nil {
		return SweepResult{}, mapDomainErr(err)
	}

	seen := make(map[string]struct{}, len(touched))
	unique := make([]string, 0, len(touched))
	for _, id := range touched {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	for _, id := range unique {
		s.cache.Forget(ctx, cache.AvailableStockKey(id))
	}

	return SweepResult{Count: len(touched), ProductIDs: unique}, nil
}

// mapDomainErr converts a domain sentinel error into the sum-typed
// apperr.Error the HTTP edge understands, leaving apperr/contention errors
// produced deeper in the stack untouched.
func mapDomainErr(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch err {
	case domain.ErrProductNotFound, domain.ErrHoldNotFound, domain.ErrOrderNotFound, domain.ErrInvalidID:
		return apperr.Wrap(apperr.KindNotFound, err.Error(), err)
	case domain.ErrInsufficientStock, domain.ErrHoldExpired, domain.ErrHoldAlreadyUsed,
		domain.ErrInvalidStatus, domain.ErrIdempotencyRequired:
		return apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
	default:
		return fmt.Errorf("%w", err)
	}
}
