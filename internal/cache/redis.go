package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pam-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Stock status cache keys, one entry per site.
const stockStatusKeyFmt = "stock:status:%d"

const stockStatusTTL = 10 * time.Minute

var client *redis.Client

// Init initializes the Redis connection. A failed connection leaves the
// cache disabled; every accessor degrades to a miss.
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis"
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// StockStatusCache caches the per-site stock status report. Every ledger
// write invalidates the site's entry, so a cached report is never staler
// than the last movement.
type StockStatusCache struct{}

func NewStockStatusCache() *StockStatusCache {
	return &StockStatusCache{}
}

func (c *StockStatusCache) GetStockStatus(ctx context.Context, siteID int) ([]*models.StockStatus, bool) {
	data, ok := GetCached(ctx, fmt.Sprintf(stockStatusKeyFmt, siteID))
	if !ok {
		return nil, false
	}
	var rows []*models.StockStatus
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *StockStatusCache) SetStockStatus(ctx context.Context, siteID int, rows []*models.StockStatus) {
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	SetCached(ctx, fmt.Sprintf(stockStatusKeyFmt, siteID), data, stockStatusTTL)
}

// InvalidateStockStatus drops the cached report for a site.
func (c *StockStatusCache) InvalidateStockStatus(ctx context.Context, siteID int) {
	InvalidateKeys(ctx, fmt.Sprintf(stockStatusKeyFmt, siteID))
}
