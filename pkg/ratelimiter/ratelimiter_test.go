package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientAlwaysAllows(t *testing.T) {
	ctx := context.Background()

	allowed, err := CheckAndSetRateLimit(ctx, nil, "admin@school.edu", "login", time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := GetRateLimitTTL(ctx, nil, "admin@school.edu", "login")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	locked, err := RecordFailure(ctx, nil, "admin@school.edu", "login", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked)

	assert.NoError(t, ClearRateLimit(ctx, nil, "admin@school.edu", "login"))
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{Message: "too many sign-in attempts", RetryAfter: 3 * time.Second}
	assert.Equal(t, "too many sign-in attempts", err.Error())
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, "rate_limit:login:admin@school.edu", key("admin@school.edu", "login"))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRecordFailure_LocksAfterLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	const subject = "student@school.edu"

	for i := 0; i < 2; i++ {
		locked, err := RecordFailure(ctx, rdb, subject, "login", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, locked, "failure %d stays under the limit", i+1)
	}
	ttl, err := GetRateLimitTTL(ctx, rdb, subject, "login")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	locked, err := RecordFailure(ctx, rdb, subject, "login", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	ttl, err = GetRateLimitTTL(ctx, rdb, subject, "login")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
	assert.False(t, mr.Exists(failuresKey(subject, "login")), "count starts over once locked")

	mr.FastForward(time.Minute)
	ttl, err = GetRateLimitTTL(ctx, rdb, subject, "login")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestRecordFailure_CountExpires(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := RecordFailure(ctx, rdb, "a@school.edu", "login", 3, time.Minute)
		require.NoError(t, err)
	}
	mr.FastForward(time.Minute)

	locked, err := RecordFailure(ctx, rdb, "a@school.edu", "login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked, "earlier failures fell out of the window")
}

func TestClearRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	_, err := RecordFailure(ctx, rdb, "a@school.edu", "login", 1, time.Minute)
	require.NoError(t, err)
	_, err = RecordFailure(ctx, rdb, "b@school.edu", "login", 5, time.Minute)
	require.NoError(t, err)

	require.NoError(t, ClearRateLimit(ctx, rdb, "a@school.edu", "login"))
	require.NoError(t, ClearRateLimit(ctx, rdb, "b@school.edu", "login"))
	assert.Empty(t, mr.Keys())
}
