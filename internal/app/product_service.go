package app

import (
	"context"
	"strconv"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
)

// ProductRepository is the read-only persistence surface ProductService
// needs; it never appends FOR UPDATE.
type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	AvailableStock(ctx context.Context, productID string) (int, bool, error)
}

// CacheCounter is the minimal metrics surface for recording cache hits and
// misses on the available-stock read path.
type CacheCounter interface {
	IncCacheHit()
	IncCacheMiss()
}

// ProductService serves the catalog read used at the HTTP edge. It is the
// only place a request handler consults the cache; every write path
// invalidates through cache.Store directly instead of going through here.
type ProductService struct {
	repo    ProductRepository
	cache   cache.Store
	metrics CacheCounter
}

func NewProductService(repo ProductRepository, cch cache.Store, metrics CacheCounter) *ProductService {
	return &ProductService{repo: repo, cache: cch, metrics: metrics}
}

// ProductView is the resource this service returns: the product's static
// fields plus its current available stock.
type ProductView struct {
	Product        domain.Product
	AvailableStock int
}

// Get resolves a product and its available stock, reading the latter
// through the cache when possible.
func (s *ProductService) Get(ctx context.Context, id string) (ProductView, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return ProductView{}, mapDomainErr(err)
	}

	key := cache.AvailableStockKey(id)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if available, err := strconv.Atoi(cached); err == nil {
			s.metrics.IncCacheHit()
			return ProductView{Product: product, AvailableStock: available}, nil
		}
	}

	s.metrics.IncCacheMiss()
	available, exists, err := s.repo.AvailableStock(ctx, id)
	if err != nil {
		return ProductView{}, mapDomainErr(err)
	}
	if !exists {
		return ProductView{}, mapDomainErr(domain.ErrProductNotFound)
	}

	s.cache.Put(ctx, key, strconv.Itoa(available), cache.AvailableStockTTL)
	return ProductView{Product: product, AvailableStock: available}, nil
}
