package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-register/internal/pricing"
)

const keyPrefix = "catalog:sku:"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Cached is a read-through Redis cache in front of another Catalog. Cache
// failures fall back to the source; unknown SKUs are never cached.
type Cached struct {
	Source  Catalog
	Cache   *Cache
	OnError func(error)
}

// Lookup implements Catalog.
func (c Cached) Lookup(ctx context.Context, sku string) (pricing.Item, error) {
	key := keyPrefix + Key(sku)
	var item pricing.Item
	hit, err := c.Cache.GetJSON(ctx, key, &item)
	if err != nil {
		c.report(err)
	} else if hit {
		return item, nil
	}
	if c.Source == nil {
		return pricing.Item{}, ErrUnknownSKU
	}
	item, err = c.Source.Lookup(ctx, sku)
	if err != nil {
		return pricing.Item{}, err
	}
	if err := c.Cache.SetJSON(ctx, key, item); err != nil {
		c.report(err)
	}
	return item, nil
}

func (c Cached) report(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}
