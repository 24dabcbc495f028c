package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

const (
	MediaStoreMemory = "memory"
	MediaStoreRedis  = "redis"
	MediaStoreMinio  = "minio"
)

var (
	newRedisStore = store.NewRedisStore
	newMinioStore = store.NewMinioStore
)

type MediaStoreBootstrapErrorCode string

const (
	MediaStoreBootstrapErrorInvalidMode     MediaStoreBootstrapErrorCode = "invalid_mode"
	MediaStoreBootstrapErrorMissingAddr     MediaStoreBootstrapErrorCode = "missing_redis_addr"
	MediaStoreBootstrapErrorMissingEndpoint MediaStoreBootstrapErrorCode = "missing_minio_endpoint"
	MediaStoreBootstrapErrorConnectFailed   MediaStoreBootstrapErrorCode = "connect_failed"
)

type MediaStoreBootstrapError struct {
	Code  MediaStoreBootstrapErrorCode
	Mode  string
	Addr  string
	Cause error
}

func (e *MediaStoreBootstrapError) Error() string {
	if e == nil {
		return "media store bootstrap failed"
	}
	return fmt.Sprintf("media store bootstrap failed (code=%s mode=%q addr=%q): %v", e.Code, e.Mode, e.Addr, e.Cause)
}

func (e *MediaStoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveMediaStore(ctx context.Context, log *logger.Logger, cfg Config) (store.Store, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.MediaStore))
	if mode == "" {
		mode = MediaStoreMemory
	}

	var (
		addr    string
		missing MediaStoreBootstrapErrorCode
		open    func() (store.Store, error)
	)
	switch mode {
	case MediaStoreMemory:
		log.Info("Selecting media store", "mode", mode)
		return store.NewMemoryStore(), nil
	case MediaStoreRedis:
		addr = strings.TrimSpace(cfg.RedisAddr)
		missing = MediaStoreBootstrapErrorMissingAddr
		open = func() (store.Store, error) {
			return newRedisStore(ctx, log, store.RedisConfig{Addr: addr, Prefix: cfg.RedisPrefix, TTL: cfg.MediaTTL})
		}
	case MediaStoreMinio:
		addr = strings.TrimSpace(cfg.MinioEndpoint)
		missing = MediaStoreBootstrapErrorMissingEndpoint
		open = func() (store.Store, error) {
			return newMinioStore(ctx, log, store.MinioConfig{
				Endpoint:  addr,
				AccessKey: cfg.MinioAccessKey,
				SecretKey: cfg.MinioSecretKey,
				Bucket:    cfg.MinioBucket,
				UseSSL:    cfg.MinioUseSSL,
			})
		}
	default:
		err := &MediaStoreBootstrapError{Code: MediaStoreBootstrapErrorInvalidMode, Mode: mode, Cause: fmt.Errorf("unsupported media store %q", mode)}
		log.Error("Media store selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}

	if addr == "" {
		err := &MediaStoreBootstrapError{Code: missing, Mode: mode, Cause: errors.New("media store address is required")}
		log.Error("Media store selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting media store", "mode", mode, "addr", addr, "ttl", cfg.MediaTTL)
	s, err := open()
	if err != nil {
		classified := &MediaStoreBootstrapError{Code: MediaStoreBootstrapErrorConnectFailed, Mode: mode, Addr: addr, Cause: err}
		log.Error("Media store bootstrap failed", "mode", mode, "addr", addr, "error_code", classified.Code, "error", err)
		return nil, classified
	}
	return s, nil
}
