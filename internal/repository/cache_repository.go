package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss ключа нет в кэше
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository кэш ссылок по короткому коду
type CacheRepository interface {
	Get(ctx context.Context, code string) (*models.Link, error)
	Set(ctx context.Context, code string, link *models.Link, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// GeoCache кэш результатов геолокации по IP
type GeoCache interface {
	GetGeo(ctx context.Context, ip string) (*models.GeoInfo, error)
	SetGeo(ctx context.Context, ip string, info *models.GeoInfo, ttl time.Duration) error
}

// RedisCache реализует CacheRepository и GeoCache поверх Redis
type RedisCache struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) *RedisCache {
	return &RedisCache{redis: redis}
}

func (r *RedisCache) Get(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	if err := r.getJSON(ctx, "link:"+code, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *RedisCache) Set(ctx context.Context, code string, link *models.Link, ttl time.Duration) error {
	return r.setJSON(ctx, "link:"+code, link, ttl)
}

func (r *RedisCache) Delete(ctx context.Context, code string) error {
	return r.redis.Client.Del(ctx, "link:"+code).Err()
}

func (r *RedisCache) GetGeo(ctx context.Context, ip string) (*models.GeoInfo, error) {
	var info models.GeoInfo
	if err := r.getJSON(ctx, "geo:"+ip, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *RedisCache) SetGeo(ctx context.Context, ip string, info *models.GeoInfo, ttl time.Duration) error {
	return r.setJSON(ctx, "geo:"+ip, info, ttl)
}

func (r *RedisCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := r.redis.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return r.redis.Client.Set(ctx, key, data, ttl).Err()
}
