package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shortify/shortify/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for the
// redirect hot path. Only GetByCode is served from cache; every write path
// keeps the cache coherent (write-through on insert, invalidation on
// deactivate). Click counters are cached as-written and may lag until the
// TTL expires.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// GetByCode retrieves a link by its code, checking the cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortLink, error) {
	return r.store.GetByHash(ctx, hash)
}

func (r *RedisCacheRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	return r.store.Exists(ctx, code)
}

// Insert stores the link and write-through populates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, link *shortener.ShortLink) error {
	if err := r.store.Insert(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// Deactivate soft-deletes the link and invalidates its cache entry so the
// next redirect sees the deactivation immediately.
func (r *RedisCacheRepository) Deactivate(ctx context.Context, code shortener.Code) error {
	if err := r.store.Deactivate(ctx, code); err != nil {
		return err
	}

	r.client.Del(ctx, r.prefix+string(code))

	return nil
}

func (r *RedisCacheRepository) List(ctx context.Context, filter shortener.ListFilter) ([]*shortener.ShortLink, error) {
	return r.store.List(ctx, filter)
}

func (r *RedisCacheRepository) IncrementClicks(ctx context.Context, code shortener.Code) error {
	return r.store.IncrementClicks(ctx, code)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	clicks, _ := strconv.ParseInt(result["click_count"], 10, 64)

	return &shortener.ShortLink{
		Code:           shortener.Code(result["code"]),
		DestinationURL: result["destination_url"],
		URLHash:        shortener.URLHash(result["url_hash"]),
		CreatedAt:      createdAt,
		Active:         result["active"] == "1",
		ClickCount:     clicks,
	}, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.ShortLink) {
	active := "0"
	if link.Active {
		active = "1"
	}

	pipe := r.client.Pipeline()
	key := r.prefix + string(link.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"code":            string(link.Code),
		"destination_url": link.DestinationURL,
		"url_hash":        string(link.URLHash),
		"created_at":      link.CreatedAt.UnixNano(),
		"active":          active,
		"click_count":     link.ClickCount,
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
