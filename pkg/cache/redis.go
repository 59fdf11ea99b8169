// Package cache provides a Redis-backed read-through cache for products.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"storefront/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "product:"
	maxWatchAttempts = 5
	tombstoneVersion = math.MaxInt64
)

// ProductCache stores product snapshots keyed by product ID. Each entry
// carries the product version so an older snapshot never replaces a newer one.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

type entry struct {
	Version int64           `json:"version"`
	Deleted bool            `json:"deleted,omitempty"`
	Product *models.Product `json:"product,omitempty"`
}

// Connect dials Redis at addr and verifies the connection with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewProductCache wraps rdb; entries expire after ttl.
func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(id string) string {
	return productKeyPrefix + id
}

// Get returns the cached product, or ok=false on a miss. A deleted product
// reads as a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*models.Product, bool, error) {
	e, err := c.load(ctx, c.rdb, id)
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", id, err)
	}
	if e == nil || e.Deleted || e.Product == nil {
		return nil, false, nil
	}

	p := e.Product
	p.Version = e.Version
	if p.Reviews == nil {
		p.Reviews = models.ReviewList{}
	}
	return p, true, nil
}

// Set stores product unless the cache already holds the same or a newer version.
func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	next := entry{Version: product.Version, Product: product}
	if err := c.put(ctx, product.ID, next); err != nil {
		return fmt.Errorf("redis set %s: %w", product.ID, err)
	}
	return nil
}

// Delete marks id as deleted for the cache TTL so in-flight fills are dropped.
func (c *ProductCache) Delete(ctx context.Context, id string) error {
	if err := c.put(ctx, id, entry{Version: tombstoneVersion, Deleted: true}); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

func (c *ProductCache) load(ctx context.Context, cmd redis.Cmdable, id string) (*entry, error) {
	raw, err := cmd.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// unreadable entries are overwritten
		return nil, nil
	}
	return &e, nil
}

func (c *ProductCache) put(ctx context.Context, id string, next entry) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	key := productKey(id)
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := c.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if cur != nil && cur.Version >= next.Version {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, c.ttl)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
