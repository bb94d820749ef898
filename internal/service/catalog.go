package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cart-service/internal/repository"

	"github.com/shopspring/decimal"
)

type CatalogService interface {
	FindPrice(ctx context.Context, sku string) (decimal.Decimal, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
	cache       repository.PriceCache
	logger      *slog.Logger
}

// NewCatalogService builds the price lookup. cache may be nil.
func NewCatalogService(
	productRepo repository.ProductRepository,
	cache repository.PriceCache,
	logger *slog.Logger,
) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *catalogServiceImpl) FindPrice(ctx context.Context, sku string) (decimal.Decimal, error) {
	if s.cache != nil {
		price, ok, err := s.cache.Get(ctx, sku)
		if err != nil {
			// fall through to the table
			s.logger.WarnContext(ctx, "price cache read failed", "sku", sku, "error", err)
		} else if ok {
			return s.confirmCached(ctx, sku, price)
		}
	}

	product, err := s.productRepo.FindBySku(ctx, sku)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("find product: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sku, product.Price); err != nil {
			s.logger.WarnContext(ctx, "price cache write failed", "sku", sku, "error", err)
		}
	}

	return product.Price, nil
}

// confirmCached checks a cached price against the catalog table so a sku
// removed from the catalog stops resolving before its cache entry expires.
func (s *catalogServiceImpl) confirmCached(ctx context.Context, sku string, price decimal.Decimal) (decimal.Decimal, error) {
	exists, err := s.productRepo.Exists(ctx, sku)
	if err != nil {
		return decimal.Zero, fmt.Errorf("check product: %w", err)
	}
	if exists {
		return price, nil
	}

	if err := s.cache.Delete(ctx, sku); err != nil {
		s.logger.WarnContext(ctx, "price cache evict failed", "sku", sku, "error", err)
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
}
