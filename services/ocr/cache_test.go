package ocrsvc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendo/tests"
)

type fakeEngine struct {
	calls int
	text  string
	err   error
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(context.Context, Image) (string, error) {
	e.calls++
	return e.text, e.err
}

func TestCacheKey(t *testing.T) {
	k1 := cacheKey([]byte("a"))
	assert.True(t, strings.HasPrefix(k1, "ocr:"))
	assert.Len(t, k1, len("ocr:")+64)
	assert.Equal(t, k1, cacheKey([]byte("a")))
	assert.NotEqual(t, k1, cacheKey([]byte("b")))
}

func TestCachedEngine_unreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	engine := &fakeEngine{text: "31 Jan 2026"}
	logger := testutil.NewLogger()
	cached := NewCachedEngine(engine, rdb, time.Minute, logger)

	for i := 0; i < 2; i++ {
		got, err := cached.Recognize(context.Background(), Image{Data: pngData})
		require.NoError(t, err)
		assert.Equal(t, "31 Jan 2026", got)
	}
	assert.Equal(t, 2, engine.calls)
	assert.Equal(t, "fake", cached.Name())
	assert.Len(t, logger.Entries("warn"), 4) // read & write, twice
}

func TestCachedEngine_engineError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()

	engine := &fakeEngine{err: ErrNoText}
	cached := NewCachedEngine(engine, rdb, time.Minute, testutil.NewLogger())

	_, err := cached.Recognize(context.Background(), Image{Data: pngData})
	assert.Equal(t, ErrNoText, err)
}
