package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PriceCache holds catalog prices keyed by sku.
type PriceCache interface {
	Get(ctx context.Context, sku string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, sku string, price decimal.Decimal) error
	Delete(ctx context.Context, sku string) error
}

type redisPriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPriceCache(rdb *redis.Client, ttl time.Duration) PriceCache {
	return &redisPriceCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func priceKey(sku string) string {
	return fmt.Sprintf("price:%s", sku)
}

func (c *redisPriceCache) Get(ctx context.Context, sku string) (decimal.Decimal, bool, error) {
	val, err := c.rdb.Get(ctx, priceKey(sku)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis get price: %w", err)
	}

	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("decode cached price %q: %w", val, err)
	}

	return price, true, nil
}

func (c *redisPriceCache) Set(ctx context.Context, sku string, price decimal.Decimal) error {
	if err := c.rdb.Set(ctx, priceKey(sku), price.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set price: %w", err)
	}
	return nil
}

func (c *redisPriceCache) Delete(ctx context.Context, sku string) error {
	if err := c.rdb.Del(ctx, priceKey(sku)).Err(); err != nil {
		return fmt.Errorf("redis del price: %w", err)
	}
	return nil
}
