// Package fetch issues polite HTTP GETs for the crawler: one request at a
// time, a minimum delay between requests, and exponential backoff on
// transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultUserAgent identifies the crawler to the sites it visits.
	DefaultUserAgent = "Mozilla/5.0 (compatible; ProgrammeSearch/1.0; +https://ntu.edu.sg)"

	// DefaultDelay is the minimum interval between requests.
	DefaultDelay = 1500 * time.Millisecond

	// DefaultMaxRetries is the number of backoff retries after the initial
	// attempt, so a request is tried at most DefaultMaxRetries+1 times.
	DefaultMaxRetries = 3

	// DefaultTimeout bounds each individual request.
	DefaultTimeout = 30 * time.Second

	backoffBase = 2.0
)

// ErrRetriesExhausted wraps the last transient failure once every retry has
// been spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is a terminal, non-retryable HTTP error status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// Result is a successful response, fully read into memory.
type Result struct {
	StatusCode  int
	FinalURL    string // URL after redirects
	Body        []byte
	ContentType string
}

// Fetcher performs rate-limited GETs with retry on transient failures. The
// cadence is global to the Fetcher instance, not per host; independent crawls
// wanting independent cadences use separate Fetchers.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	delay      time.Duration
	maxRetries int

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)

	mu   sync.Mutex
	last time.Time // completion time of the previous request

	log *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDelay sets the minimum interval between requests.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.delay = d }
}

// WithMaxRetries sets the number of backoff retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithHTTPClient swaps the underlying client (tests, custom transports).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithClock injects time sources, letting tests observe waits without
// sleeping.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(f *Fetcher) {
		f.now = now
		f.sleep = sleep
	}
}

// New builds a Fetcher with the default politeness settings.
func New(log *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		delay:      DefaultDelay,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
		sleep:      time.Sleep,
		log:        log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs the URL, retrying transient failures (429/500/502/503 and
// timeouts) with base^attempt second backoff. Non-transient 4xx statuses are
// terminal immediately. On retry exhaustion the returned error wraps
// ErrRetriesExhausted together with the last seen reason.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		f.rateLimit()

		res, err := f.doOnce(ctx, url)
		f.last = f.now()

		if err == nil {
			return res, nil
		}
		if !isTransient(err) {
			f.log.Error("fetch failed", zap.String("url", url), zap.Error(err))
			return nil, err
		}

		lastErr = err
		if attempt < f.maxRetries {
			wait := time.Duration(math.Pow(backoffBase, float64(attempt)) * float64(time.Second))
			f.log.Warn("transient failure, backing off",
				zap.String("url", url),
				zap.Error(err),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", f.maxRetries+1))
			f.sleep(wait)
		}
	}

	f.log.Error("all retries exhausted", zap.String("url", url), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

// rateLimit blocks until the minimum delay since the previous request
// completed has elapsed. Callers hold f.mu.
func (f *Fetcher) rateLimit() {
	if f.last.IsZero() {
		return
	}
	elapsed := f.now().Sub(f.last)
	if elapsed < f.delay {
		f.sleep(f.delay - elapsed)
	}
}

// doOnce performs a single attempt. Errors it returns are classified by
// isTransient.
func (f *Fetcher) doOnce(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// transientStatuses are server conditions expected to clear on retry.
var transientStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
}

func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return transientStatuses[se.Code]
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
