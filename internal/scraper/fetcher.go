package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

var ErrPageUnavailable = errors.New("page unavailable")

// FetchError reports a page that could not be retrieved.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %d attempt(s)", e.URL, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Cause }

type FetcherConfig struct {
	DelayMin   time.Duration
	DelayMax   time.Duration
	BackoffMin time.Duration
	BackoffMax time.Duration
	Timeout    time.Duration
	MaxRetries int
	UserAgents []string
}

func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		DelayMin:   1 * time.Second,
		DelayMax:   3 * time.Second,
		BackoffMin: 3 * time.Second,
		BackoffMax: 5 * time.Second,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		UserAgents: DefaultUserAgents(),
	}
}

// DefaultUserAgents is the desktop browser pool rotated per attempt.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}
}

func browserHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "hu-HU,hu;q=0.9,en;q=0.8",
		"Accept-Encoding": "gzip",
		"Connection":      "keep-alive",
	}
}

// Fetcher retrieves pages politely: a randomized pause before every
// attempt, a rotated User-Agent, a fixed timeout and bounded retries.
// A Fetcher is owned by one portal and is not meant to be shared.
type Fetcher struct {
	name   string
	cfg    FetcherConfig
	logger *log.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
	pickUA func(pool []string) string
}

func NewFetcher(name string, cfg FetcherConfig, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultFetcherConfig()
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}
	return &Fetcher{
		name:   name,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
		jitter: randomBetween,
		pickUA: func(pool []string) string { return pool[rand.IntN(len(pool))] },
	}
}

// FetchPage fetches with the configured retry count.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	return f.Fetch(ctx, pageURL, f.cfg.MaxRetries)
}

// Fetch returns the body of a 2xx response. After maxRetries failed
// attempts it returns a *FetchError wrapping ErrPageUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, maxRetries int) (string, error) {
	if err := validateURL(pageURL); err != nil {
		f.logger.Printf("fetcher=%s url=%s status=invalid err=%v", f.name, pageURL, err)
		return "", &FetchError{URL: pageURL, Cause: err}
	}
	if maxRetries < 1 {
		maxRetries = f.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			if err := f.sleep(ctx, f.jitter(f.cfg.BackoffMin, f.cfg.BackoffMax)); err != nil {
				return "", &FetchError{URL: pageURL, Attempts: attempt - 1, Cause: err}
			}
		}
		if err := f.sleep(ctx, f.jitter(f.cfg.DelayMin, f.cfg.DelayMax)); err != nil {
			return "", &FetchError{URL: pageURL, Attempts: attempt - 1, Cause: err}
		}

		body, err := f.attempt(ctx, pageURL)
		if err == nil {
			f.logger.Printf("fetcher=%s url=%s attempt=%d/%d status=ok bytes=%d", f.name, pageURL, attempt, maxRetries, len(body))
			return body, nil
		}
		lastErr = err
		f.logger.Printf("fetcher=%s url=%s attempt=%d/%d status=retry err=%v", f.name, pageURL, attempt, maxRetries, err)
		if ctx.Err() != nil {
			return "", &FetchError{URL: pageURL, Attempts: attempt, Cause: ctx.Err()}
		}
	}

	f.logger.Printf("fetcher=%s url=%s level=error status=unavailable attempts=%d err=%v", f.name, pageURL, maxRetries, lastErr)
	return "", &FetchError{URL: pageURL, Attempts: maxRetries, Cause: fmt.Errorf("%w: %v", ErrPageUnavailable, lastErr)}
}

func (f *Fetcher) attempt(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector()
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(f.cfg.Timeout)
	if len(f.cfg.UserAgents) > 0 {
		c.UserAgent = f.pickUA(f.cfg.UserAgents)
	} else {
		extensions.RandomUserAgent(c)
	}

	var body string
	var reqErr error
	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders() {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode > 299 {
			reqErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return "", err
	}
	c.Wait()
	if reqErr != nil {
		return "", reqErr
	}
	return body, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url is not absolute: %q", raw)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
