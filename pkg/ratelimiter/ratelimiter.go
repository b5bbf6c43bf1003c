package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

// RateLimitError tells the caller how long to wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(subject, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, subject)
}

func failuresKey(subject, action string) string {
	return fmt.Sprintf("rate_limit_failures:%s:%s", action, subject)
}

// CheckAndSetRateLimit takes the lock for subject/action for the given window. It
// reports false when the lock is already held. A nil client always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, subject, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(subject, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

// GetRateLimitTTL returns the remaining lock time, zero when unlocked.
func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, subject, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	ttl, err := rdb.TTL(ctx, key(subject, action)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// RecordFailure counts a failed attempt for subject/action. Failures are counted over
// window; once maxFailures are reached the lock is taken for window and the count
// starts over. It reports whether the lock was taken. A nil client never locks.
func RecordFailure(ctx context.Context, rdb *redis.Client, subject, action string, maxFailures int, window time.Duration) (bool, error) {
	if rdb == nil || maxFailures <= 0 || window <= 0 {
		return false, nil
	}

	k := failuresKey(subject, action)
	count, err := rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count failure in redis: %w", err)
	}
	if count == 1 {
		if err := rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to expire failure count in redis: %w", err)
		}
	}
	if count < int64(maxFailures) {
		return false, nil
	}

	if _, err := CheckAndSetRateLimit(ctx, rdb, subject, action, window); err != nil {
		return false, err
	}
	if err := rdb.Del(ctx, k).Err(); err != nil {
		return true, fmt.Errorf("failed to reset failure count in redis: %w", err)
	}
	return true, nil
}

// ClearRateLimit drops both the lock and the failure count.
func ClearRateLimit(ctx context.Context, rdb *redis.Client, subject, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(subject, action), failuresKey(subject, action)).Result()
	return err
}
