// Package cache holds the Redis-backed caches: LLM answers, job listings
// and the set of recently enriched source URLs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"fizetesi-info/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL     = 600 * time.Second
	defaultLockTTL = 30 * time.Second
)

var ErrUnavailable = errors.New("redis unavailable")

// Redis wraps a client that may be absent. When Redis cannot be reached
// every read misses and every write is a no-op. Keys are namespaced by
// prefix.
type Redis struct {
	client *redis.Client
	logger *log.Logger
	ttl    time.Duration
	prefix string

	warned atomic.Bool
}

func NewRedis(cfg config.RedisConfig, logger *log.Logger) *Redis {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		r := Unavailable(logger)
		r.observe(err)
		return r
	}

	r := NewRedisFromClient(client, cfg.TTL, logger)
	r.prefix = cfg.Prefix
	if logger != nil {
		logger.Printf("[Cache] Redis connected addr=%s db=%d prefix=%q", client.Options().Addr, cfg.DB, cfg.Prefix)
	}
	return r
}

// NewRedisFromClient wraps an existing client without pinging it.
func NewRedisFromClient(client *redis.Client, ttl time.Duration, logger *log.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, logger: logger, ttl: ttl}
}

// Unavailable returns a cache that bypasses every call.
func Unavailable(logger *log.Logger) *Redis {
	return &Redis{logger: logger, ttl: defaultTTL}
}

func (r *Redis) Available() bool {
	return r != nil && r.client != nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// observe logs the first connectivity failure. redis.Nil is a miss, not a
// failure.
func (r *Redis) observe(err error) {
	if r == nil || r.logger == nil || err == nil || errors.Is(err, redis.Nil) {
		return
	}
	if r.warned.CompareAndSwap(false, true) {
		r.logger.Printf("[Cache] Redis unavailable, bypassing cache: %v", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if !r.Available() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if !r.Available() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) || (err == nil && len(b) == 0) {
		return false, nil
	}
	if err != nil {
		r.observe(err)
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value for ttl, or the configured TTL when ttl <= 0.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !r.Available() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	err = r.client.Set(ctx, r.key(key), b, ttl).Err()
	r.observe(err)
	return err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if !r.Available() {
		return nil
	}
	err := r.client.Del(ctx, r.key(key)).Err()
	r.observe(err)
	return err
}

// SetIfNotExists reports whether key was created. Without Redis it never is.
func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	ok, err := r.client.SetNX(ctx, r.key(key), value, ttl).Result()
	if err != nil {
		r.observe(err)
		return false, err
	}
	return ok, nil
}
