package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nictjader/siren-backend/internal/domain/model"
)

const catalogCachePrefix = "catalog:"

// CatalogCacheRepo holds the assembled representative-story projection per
// subgenre, so offset-mode paging does not re-assemble the whole catalog on
// every request. Entries are invalidated on story publish and price change.
type CatalogCacheRepo struct {
	client *goredis.Client
}

func NewCatalogCacheRepo(client *goredis.Client) *CatalogCacheRepo {
	return &CatalogCacheRepo{client: client}
}

func (r *CatalogCacheRepo) Get(ctx context.Context, subgenre string) ([]model.Story, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, catalogKey(subgenre)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get catalog cache: %w", err)
	}

	var stories []model.Story
	if err := json.Unmarshal(raw, &stories); err != nil {
		// Treat a stale or corrupted entry as a miss.
		return nil, false, nil
	}

	return stories, true, nil
}

func (r *CatalogCacheRepo) Set(ctx context.Context, subgenre string, stories []model.Story, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	raw, err := json.Marshal(stories)
	if err != nil {
		return fmt.Errorf("marshal catalog cache: %w", err)
	}

	if err := r.client.Set(ctx, catalogKey(subgenre), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set catalog cache: %w", err)
	}

	return nil
}

// InvalidateAll drops every cached projection. Publishing touches both the
// story's own subgenre and the unfiltered view, so a full sweep is simplest.
func (r *CatalogCacheRepo) InvalidateAll(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	iter := r.client.Scan(ctx, 0, catalogCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete catalog cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog cache keys: %w", err)
	}

	return nil
}

func catalogKey(subgenre string) string {
	subgenre = strings.TrimSpace(strings.ToLower(subgenre))
	if subgenre == "" {
		subgenre = "all"
	}
	return catalogCachePrefix + subgenre
}
