package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsEveryTaskWithIndex(t *testing.T) {
	pool := NewWorkerPool(4, 8)
	results := pool.Run(context.Background())

	var ran atomic.Int32
	go func() {
		defer pool.Close()
		for i := 0; i < 20; i++ {
			err := pool.Submit(context.Background(), i, func(ctx context.Context) error {
				ran.Add(1)
				if i%5 == 0 {
					return errors.New("boom")
				}
				return nil
			})
			assert.NoError(t, err)
		}
	}()

	seen := map[int]bool{}
	failed := 0
	for r := range results {
		seen[r.Index] = true
		if r.Err != nil {
			failed++
		}
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, 4, failed)
	assert.Equal(t, int32(20), ran.Load())
}

func TestWorkerPool_SubmitStopsOnCancel(t *testing.T) {
	pool := NewWorkerPool(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Submit(ctx, 0, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	pool.Close()
}

func TestWorkerPool_RateLimit(t *testing.T) {
	pool := NewWorkerPool(2, 4)
	pool.SetRateLimit(50)
	results := pool.Run(context.Background())

	start := time.Now()
	go func() {
		defer pool.Close()
		for i := 0; i < 4; i++ {
			_ = pool.Submit(context.Background(), i, func(context.Context) error { return nil })
		}
	}()
	n := 0
	for range results {
		n++
	}
	assert.Equal(t, 4, n)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestWorkerPool_Nil(t *testing.T) {
	var pool *WorkerPool
	for range pool.Run(context.Background()) {
		t.Fatal("nil pool produced a result")
	}
	assert.NoError(t, pool.Submit(context.Background(), 0, func(context.Context) error { return nil }))
	pool.Close()
}
