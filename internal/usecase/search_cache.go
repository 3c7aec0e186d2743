package usecase

import (
	"context"
	"time"
)

// SearchCache is satisfied by cache.Redis.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
