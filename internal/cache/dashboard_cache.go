package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mundamarket/stock-engine/internal/config"
	"github.com/mundamarket/stock-engine/internal/domain"
)

const (
	dashboardKeyPrefix  = "inventory:dashboard"
	scanBatchSize       = 100
	defaultDashboardTTL = time.Minute
)

// DashboardCache caches per-buyer dashboard aggregates.
type DashboardCache interface {
	Get(ctx context.Context, buyerID int64) (*domain.DashboardMetrics, bool, error)
	Set(ctx context.Context, buyerID int64, metrics *domain.DashboardMetrics) error
	Invalidate(ctx context.Context, buyerID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache returns a redis-backed cache when caching is enabled,
// otherwise a noop implementation so callers never branch.
func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.DashboardTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, buyerID int64) (*domain.DashboardMetrics, bool, error) {
	payload, err := c.client.Get(ctx, dashboardKey(buyerID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var metrics domain.DashboardMetrics
	if err := json.Unmarshal(payload, &metrics); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &metrics, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, buyerID int64, metrics *domain.DashboardMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, dashboardKey(buyerID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, buyerID int64) error {
	if err := c.client.Del(ctx, dashboardKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) Get(ctx context.Context, buyerID int64) (*domain.DashboardMetrics, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, buyerID int64, metrics *domain.DashboardMetrics) error {
	return nil
}

func (n *noopDashboardCache) Invalidate(ctx context.Context, buyerID int64) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func dashboardKey(buyerID int64) string {
	return fmt.Sprintf("%s:%d", dashboardKeyPrefix, buyerID)
}
