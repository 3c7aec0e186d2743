// Package scheduler triggers periodic pipeline runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fizetesi-info/internal/pipeline"

	"github.com/robfig/cron/v3"
)

type Runner interface {
	Run(ctx context.Context, params pipeline.Params) (pipeline.Summary, error)
}

// Scheduler wraps robfig/cron. Overlapping ticks are skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	params pipeline.Params
	spec   string
	logger *log.Logger

	wg sync.WaitGroup
}

// New creates a Scheduler that fires every interval, rounded down to whole
// seconds.
func New(runner Runner, interval time.Duration, params pipeline.Params, logger *log.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler: nil runner")
	}
	interval = interval.Truncate(time.Second)
	if interval < time.Second {
		return nil, fmt.Errorf("scheduler: interval must be at least 1s, got %s", interval)
	}
	if logger == nil {
		logger = log.Default()
	}
	cl := cron.VerbosePrintfLogger(logger)
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		params: params,
		spec:   fmt.Sprintf("@every %s", interval),
		logger: logger,
	}, nil
}

func (s *Scheduler) Spec() string { return s.spec }

// Start registers the job and starts the cron loop. With runNow it also
// runs one pass immediately in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Printf("scheduler=cron status=started spec=%q", s.spec)

	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runOnce(ctx)
		}()
	}
	return nil
}

// Stop halts the cron loop and waits for running passes to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Printf("scheduler=cron status=stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Printf("scheduler=cron status=tick")
	sum, err := s.runner.Run(ctx, s.params)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			s.logger.Printf("scheduler=cron status=skipped reason=already_running")
			return
		}
		s.logger.Printf("scheduler=cron level=error status=failed err=%v", err)
		return
	}
	s.logger.Printf("scheduler=cron status=done total=%d saved=%d", sum.Total, sum.Saved)
}
