package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

const seenKeyPrefix = "seen:url:"

// SeenSet remembers source URLs for a while. Without Redis nothing is
// ever considered seen.
type SeenSet struct {
	redis *Redis
	ttl   time.Duration
}

func NewSeenSet(r *Redis, ttl time.Duration) *SeenSet {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SeenSet{redis: r, ttl: ttl}
}

// MarkIfNew records url and reports whether it was absent. Errors and an
// unavailable Redis count as new.
func (s *SeenSet) MarkIfNew(ctx context.Context, url string) bool {
	url = strings.TrimSpace(url)
	if s == nil || url == "" || !s.redis.Available() {
		return true
	}
	ok, err := s.redis.SetIfNotExists(ctx, seenKey(url), "1", s.ttl)
	if err != nil {
		return true
	}
	return ok
}

// Forget drops url so the next MarkIfNew reports it as new.
func (s *SeenSet) Forget(ctx context.Context, url string) {
	if s == nil || strings.TrimSpace(url) == "" {
		return
	}
	_ = s.redis.Delete(ctx, seenKey(strings.TrimSpace(url)))
}

func seenKey(url string) string {
	h := sha1.Sum([]byte(url))
	return seenKeyPrefix + hex.EncodeToString(h[:])
}
