package render

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TemplateSource is the read side of the template store.
type TemplateSource interface {
	GetByKind(ctx context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error)
}

// TemplateCache caches read-mostly templates per process, with a Redis layer
// so multiple instances see administrative updates. Redis being down degrades
// to the process map plus the store; it never fails a lookup.
type TemplateCache struct {
	source TemplateSource
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.RWMutex
	local map[domain.TemplateKind]*domain.MessageTemplate
}

// NewTemplateCache constructs the cache. redisClient may be nil.
func NewTemplateCache(source TemplateSource, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *TemplateCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateCache{
		source: source,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		local:  make(map[domain.TemplateKind]*domain.MessageTemplate),
	}
}

// GetByKind returns the template for kind, consulting the process map, then
// Redis, then the underlying store.
func (c *TemplateCache) GetByKind(ctx context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error) {
	c.mu.RLock()
	cached, ok := c.local[kind]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if tmpl := c.fromRedis(ctx, kind); tmpl != nil {
		c.store(kind, tmpl)
		return tmpl, nil
	}

	tmpl, err := c.source.GetByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	c.store(kind, tmpl)
	c.toRedis(ctx, kind, tmpl)
	return tmpl, nil
}

// Invalidate drops the cached entry after an administrative template update.
func (c *TemplateCache) Invalidate(ctx context.Context, kind domain.TemplateKind) {
	c.mu.Lock()
	delete(c.local, kind)
	c.mu.Unlock()
	if c.redis != nil {
		if err := c.redis.Del(ctx, redisKey(kind)).Err(); err != nil {
			c.logger.Warn("template cache redis invalidate failed",
				zap.String("kind", string(kind)), zap.Error(err))
		}
	}
}

func (c *TemplateCache) store(kind domain.TemplateKind, tmpl *domain.MessageTemplate) {
	c.mu.Lock()
	c.local[kind] = tmpl
	c.mu.Unlock()
}

func (c *TemplateCache) fromRedis(ctx context.Context, kind domain.TemplateKind) *domain.MessageTemplate {
	if c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, redisKey(kind)).Bytes()
	if err != nil {
		return nil
	}
	var tmpl domain.MessageTemplate
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil
	}
	return &tmpl
}

func (c *TemplateCache) toRedis(ctx context.Context, kind domain.TemplateKind, tmpl *domain.MessageTemplate) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(tmpl)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, redisKey(kind), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("template cache redis set failed",
			zap.String("kind", string(kind)), zap.Error(err))
	}
}

func redisKey(kind domain.TemplateKind) string {
	return "support-portal:template:" + string(kind)
}
