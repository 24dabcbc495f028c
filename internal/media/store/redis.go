package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type RedisConfig struct {
	Addr   string
	Prefix string
	TTL    time.Duration
}

type redisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore keeps media blobs in redis hashes that expire after cfg.TTL.
func NewRedisStore(ctx context.Context, log *logger.Logger, cfg RedisConfig) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "coursecast:media:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 6 * time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log:    log.With("service", "RedisMediaStore"),
		rdb:    rdb,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (r *redisStore) Put(ctx context.Context, mimeType string, data []byte) (Handle, error) {
	key := "media-" + uuid.NewString()
	rk := r.prefix + key

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, rk, "mime", mimeType, "data", data)
	pipe.Expire(ctx, rk, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return Handle{}, fmt.Errorf("redis put media: %w", err)
	}
	return Handle{Key: key, MimeType: mimeType, Size: len(data)}, nil
}

func (r *redisStore) Open(ctx context.Context, key string) ([]byte, string, error) {
	vals, err := r.rdb.HMGet(ctx, r.prefix+key, "mime", "data").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("redis open media: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, "", ErrNotFound
	}
	mime, _ := vals[0].(string)
	data, _ := vals[1].(string)
	return []byte(data), mime, nil
}

func (r *redisStore) Revoke(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis revoke media: %w", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.rdb.Close()
}
