package postgres

import "context"

// OrderHoldRepository composes OrderRepository and HoldRepository, both
// backed by the same pool and transaction mechanism, into the combined
// surface app.OrderService needs to derive orders from holds within one
// transaction.
type OrderHoldRepository struct {
	*OrderRepository
	*HoldRepository
}

// NewOrderHoldRepository wraps an existing order and hold repository pair.
func NewOrderHoldRepository(orderRepo *OrderRepository, holdRepo *HoldRepository) OrderHoldRepository {
	return OrderHoldRepository{OrderRepository: orderRepo, HoldRepository: holdRepo}
}

func (r OrderHoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.OrderRepository.WithTx(ctx, fn)
}
