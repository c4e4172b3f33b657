package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"vlocr/internal/config"
)

// Client wraps Redis for the three concerns the service shares it for:
// the OCR result cache, the request rate limiter, and the job status mirror.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// ResultKey derives the cache key for an OCR result from the file content
// and the canonicalized processing parameters.
func ResultKey(fileContent []byte, params any) string {
	h := sha256.New()
	h.Write(fileContent)
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			h.Write(b)
		}
	}
	return "ocr:" + hex.EncodeToString(h.Sum(nil))
}

// GetResult returns the cached JSON value for key, or redis.Nil via err when
// absent.
func (c *Client) GetResult(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

// SetResult stores a JSON value under key with the given TTL.
func (c *Client) SetResult(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// IsMiss reports whether err is a cache miss rather than a Redis failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// SetJob mirrors a job snapshot for cheap status reads. Jobs expire after
// 24 hours; PostgreSQL remains the source of truth.
func (c *Client) SetJob(ctx context.Context, jobID string, data []byte) error {
	return c.rdb.Set(ctx, "job:"+jobID, data, 24*time.Hour).Err()
}

// GetJob returns the mirrored job snapshot, or a miss.
func (c *Client) GetJob(ctx context.Context, jobID string) ([]byte, error) {
	return c.rdb.Get(ctx, "job:"+jobID).Bytes()
}

// LimitResult is the outcome of a rate limit check, carrying what the
// X-RateLimit-* response headers need. Reset is the unix time at which the
// current window expires.
type LimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      int64
	RetryAfter int
}

// Allow applies a fixed-window limiter keyed by the caller identity (API key
// or client IP). The INCR and TTL read run in one pipeline round trip; the
// window TTL is set only on the first hit, so hammering the key does not
// push the reset out indefinitely.
func (c *Client) Allow(ctx context.Context, identity string, limit int, window time.Duration) (LimitResult, error) {
	key := "ratelimit:" + identity

	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open so a Redis outage does not take the API down with it.
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit}, err
	}

	count := int(incr.Val())
	ttl := ttlCmd.Val()
	if count == 1 || ttl < 0 {
		// First hit of the window, or a counter left without an expiry.
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return LimitResult{Allowed: true, Limit: limit, Remaining: limit}, err
		}
		ttl = window
	}

	res := LimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: limit - count,
		Reset:     time.Now().Add(ttl).Unix(),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = int(ttl.Seconds()) + 1
	}
	return res, nil
}

// Ping checks connectivity for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
