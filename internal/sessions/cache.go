package sessions

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
)

// Cache holds participant-facing lookup-by-code reads in Redis for a short
// TTL. Many participants poll the same session at once; the cache keeps that
// load off Postgres. Entries are invalidated on session update so status
// changes surface on the next poll. All methods are nil-safe: a nil *Cache
// disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a lookup cache. Returns nil if client is nil.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached quiz view for a code, or nil on miss or error.
func (c *Cache) Get(ctx context.Context, code string) *models.SessionWithTemplate {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err != nil {
		return nil
	}
	var view models.SessionWithTemplate
	if err := json.Unmarshal(raw, &view); err != nil {
		c.logger.Warn("quiz cache decode failed", zap.Error(err), zap.String("code", code))
		return nil
	}
	return &view
}

// Set stores the quiz view for a code. Best effort.
func (c *Cache) Set(ctx context.Context, view *models.SessionWithTemplate) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(view.Code), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("quiz cache set failed", zap.Error(err), zap.String("code", view.Code))
	}
}

// Invalidate drops the cached view for a code.
func (c *Cache) Invalidate(ctx context.Context, code string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		c.logger.Warn("quiz cache invalidate failed", zap.Error(err), zap.String("code", code))
	}
}

func (c *Cache) key(code string) string {
	return "quiz:code:" + strings.ToUpper(code)
}
