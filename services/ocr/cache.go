package ocrsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trezcool/attendo/core"
)

const cacheKeyPrefix = "ocr:"

// CachedEngine remembers recognized texts in redis, keyed by the image checksum.
// Cache failures are logged and fall through to the wrapped engine.
type CachedEngine struct {
	engine Engine
	rdb    redis.Cmdable
	ttl    time.Duration
	logger core.Logger
}

var _ Engine = (*CachedEngine)(nil)

func NewCachedEngine(engine Engine, rdb redis.Cmdable, ttl time.Duration, logger core.Logger) *CachedEngine {
	return &CachedEngine{engine: engine, rdb: rdb, ttl: ttl, logger: logger}
}

// NewRedisClient connects to the configured redis server.
func NewRedisClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func (e *CachedEngine) Name() string { return e.engine.Name() }

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (e *CachedEngine) Recognize(ctx context.Context, img Image) (string, error) {
	key := cacheKey(img.Data)

	text, err := e.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return text, nil
	case err != redis.Nil:
		e.logger.Warn(fmt.Sprintf("reading OCR cache: %v", err), err)
	}

	text, err = e.engine.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if err = e.rdb.Set(ctx, key, text, e.ttl).Err(); err != nil {
		e.logger.Warn(fmt.Sprintf("writing OCR cache: %v", err), err)
	}
	return text, nil
}
