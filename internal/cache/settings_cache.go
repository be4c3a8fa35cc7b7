package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"timesheet-service/internal/models"
)

// SettingsCache caches per-project approval settings in Redis. Settings are
// read on every sheet transition, so the cache keeps the hot path off
// postgres. A nil cache, or one whose Redis was unreachable at startup,
// degrades to a no-op.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSettingsCache creates a new settings cache instance
func NewSettingsCache(host string, port int, password string, db int, ttlSeconds int) (*SettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Gracefully degrade to no caching
		return &SettingsCache{
			client: nil,
			ttl:    time.Duration(ttlSeconds) * time.Second,
		}, nil
	}

	return &SettingsCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *SettingsCache) cacheKey(tenantID string, projectID uuid.UUID) string {
	return fmt.Sprintf("approval-settings:%s:%s", tenantID, projectID.String())
}

// Get retrieves cached settings for a project. Returns (nil, nil) on a miss
// or when the cache is unavailable.
func (c *SettingsCache) Get(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.cacheKey(tenantID, projectID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var settings models.ProjectApprovalSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set caches settings for a project
func (c *SettingsCache) Set(ctx context.Context, settings *models.ProjectApprovalSettings) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cacheKey(settings.TenantID, settings.ProjectID), data, c.ttl).Err()
}

// Invalidate removes cached settings for a project. Called on every
// settings write so stale policy never outlives an admin change.
func (c *SettingsCache) Invalidate(ctx context.Context, tenantID string, projectID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.cacheKey(tenantID, projectID)).Err()
}

// Close closes the Redis connection
func (c *SettingsCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable returns true if the cache is available
func (c *SettingsCache) IsAvailable() bool {
	return c != nil && c.client != nil
}
