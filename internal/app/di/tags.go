package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	tagadapters "voces_backend/internal/feature/tags/adapters"
	tagusecase "voces_backend/internal/feature/tags/usecase"
	"voces_backend/internal/platform/cache"
)

// tagCacheTTL はタグ一覧キャッシュの有効期間です。
const tagCacheTTL = 5 * time.Minute

// NewTagRepository creates a TagRepository implementation.
// If Redis is available, the GORM repository is wrapped with a read-through cache.
// Otherwise, the GORM repository is used directly.
func NewTagRepository(rdb *redis.Client, db *gorm.DB) tagusecase.TagRepository {
	repo := tagadapters.NewTagGorm(db)
	if rdb != nil {
		return cache.NewCachingTagRepository(rdb, tagCacheTTL, repo, "tags")
	}
	return repo
}
