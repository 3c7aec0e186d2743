package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"
)

// Cache is the subset of the Redis wrapper the response cache needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedClient serves repeated requests from a cache. Cache failures fall
// through to the wrapped client.
type CachedClient struct {
	next   Client
	cache  Cache
	model  string
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedClient(next Client, cache Cache, model string, ttl time.Duration, logger *log.Logger) *CachedClient {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedClient{next: next, cache: cache, model: model, ttl: ttl, logger: logger}
}

type cachedResponse struct {
	Text string `json:"text"`
}

func (c *CachedClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cache == nil {
		return c.next.Generate(ctx, req)
	}
	key := c.key(req)

	var hit cachedResponse
	found, err := c.cache.GetJSON(ctx, key, &hit)
	if err != nil {
		c.logger.Printf("[Cache] llm get error key=%s err=%v", key, err)
	}
	if found {
		return hit.Text, nil
	}

	text, err := c.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := c.cache.SetJSON(ctx, key, cachedResponse{Text: text}, c.ttl); err != nil {
		c.logger.Printf("[Cache] llm set error key=%s err=%v", key, err)
	}
	return text, nil
}

func (c *CachedClient) key(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%.3f\x00%d", c.model, req.System, req.User, req.Temperature, req.MaxTokens)
	return "llm:resp:" + hex.EncodeToString(h.Sum(nil))
}
