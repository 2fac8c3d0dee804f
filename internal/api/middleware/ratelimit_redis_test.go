package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hugh/go-contacts/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLimiter_Allow(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, "test:", 2, time.Minute)
	ctx := context.Background()

	start := time.Now()

	res, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, res.Limit)
	assert.False(t, res.ResetAt.Before(start.Add(time.Minute).Truncate(time.Millisecond)))
	assert.True(t, res.ResetAt.Before(time.Now().Add(time.Minute+time.Second)))

	res, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	for i := 0; i < 2; i++ {
		res, err = limiter.Allow(ctx, "a")
		require.NoError(t, err)
		assert.False(t, res.Allowed, "request %d over the limit", i+1)
		assert.Equal(t, 0, res.Remaining)
		assert.True(t, res.ResetAt.After(start))
	}

	res, err = limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestRedisLimiter_KeysArePrefixed(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, "ratelimit:ip:", 5, time.Minute)

	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	assert.True(t, mr.Exists("ratelimit:ip:10.0.0.1"))
	assert.Greater(t, mr.TTL("ratelimit:ip:10.0.0.1"), time.Duration(0))
}

func TestRateLimit_RedisBackend(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, "test:", 1, time.Minute)

	handler := RateLimit(limiter, testutil.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234").Code)

	rec := do("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234").Code)
}
