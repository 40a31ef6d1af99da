// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"voces_backend/internal/feature/tags/domain/entity"
	"voces_backend/internal/feature/tags/usecase"
)

// CachingTagRepository decorates a TagRepository with Redis caching.
// Reads (List, FindByID) are served cache-first; every write invalidates
// the affected keys after the inner repository succeeds.
type CachingTagRepository struct {
	inner     usecase.TagRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.TagRepository = (*CachingTagRepository)(nil)

// NewCachingTagRepository decorates a TagRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "tags".
// A nil rdb disables caching entirely.
func NewCachingTagRepository(rdb *redis.Client, ttl time.Duration, inner usecase.TagRepository, namespace string) *CachingTagRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "tags"
	}
	return &CachingTagRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// List returns all tags, checking the cache first.
func (c *CachingTagRepository) List(ctx context.Context) ([]entity.Tag, error) {
	var out []entity.Tag
	err := c.readThrough(ctx, c.listKey(), &out, func() (any, error) {
		tags, err := c.inner.List(ctx)
		out = tags
		return tags, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns a tag by ID, checking the cache first. Misses are not cached.
func (c *CachingTagRepository) FindByID(ctx context.Context, id string) (*entity.Tag, error) {
	var out *entity.Tag
	err := c.readThrough(ctx, c.idKey(id), &out, func() (any, error) {
		tag, err := c.inner.FindByID(ctx, id)
		out = tag
		return tag, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores the tag and invalidates the list entry.
func (c *CachingTagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	if err := c.inner.Create(ctx, tag); err != nil {
		return err
	}
	c.del(ctx, c.listKey())
	return nil
}

// Rename updates the tag and invalidates every entry in the namespace.
func (c *CachingTagRepository) Rename(ctx context.Context, id, name string) (*entity.Tag, error) {
	tag, err := c.inner.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	c.invalidateAll(ctx)
	return tag, nil
}

// Delete removes the tag and invalidates every entry in the namespace.
func (c *CachingTagRepository) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidateAll(ctx)
	return nil
}

// EnsureByNames may create tags, so the list entry is invalidated.
func (c *CachingTagRepository) EnsureByNames(ctx context.Context, names []string) ([]entity.Tag, error) {
	tags, err := c.inner.EnsureByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		c.del(ctx, c.listKey())
	}
	return tags, nil
}

// readThrough decodes the cached value for key into dst. On a miss it calls
// load (which must also populate dst) and stores the result best effort.
func (c *CachingTagRepository) readThrough(ctx context.Context, key string, dst any, load func() (any, error)) error {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		_, err := load()
		return err
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, dst); err == nil {
			return nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	v, err := load()
	if err != nil {
		return err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return nil
}

func (c *CachingTagRepository) listKey() string {
	return c.namespace + ":all"
}

func (c *CachingTagRepository) idKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, safe(id))
}

func (c *CachingTagRepository) del(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, key).Err() // best effort
}

func (c *CachingTagRepository) invalidateAll(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.namespace+":*") // best effort
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingTagRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
