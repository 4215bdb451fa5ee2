// Package fetch performs rate-limited, retried HTTP GETs for the crawl
// pipeline. The per-host rate limiter is shared across all sources and
// workers: two sources targeting the same host share one interval.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/sitegraph"
)

// Status codes handled specially in classifyStatus.
const (
	statusOK           = 200
	statusNotModified  = 304
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// Client issues HTTP requests. *http.Client satisfies it; a headless-render
// collaborator can substitute without changing route discovery.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is a successful fetch.
type Result struct {
	StatusCode  int
	Body        []byte
	ContentHash string
	Header      http.Header
	// Truncated marks bodies cut at the configured byte ceiling.
	Truncated bool
	// NotModified marks 304 responses to conditional requests.
	NotModified bool
}

// Options tune a single fetch.
type Options struct {
	// ETag and LastModified enable a conditional request when cached.
	ETag         string
	LastModified string
	// HostInterval, when longer than the configured minimum, widens the
	// politeness interval for this URL's host. The stricter value sticks.
	HostInterval time.Duration
}

// Fetcher performs polite HTTP fetching with retries and backoff.
type Fetcher struct {
	client Client
	cfg    Config
	log    logger.Interface

	// The limiter map is the single shared mutable resource of the crawl;
	// access is serialized under mu regardless of which worker fetches.
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	intervals map[string]time.Duration
	uaNext    int
}

// New creates a fetcher. A nil client falls back to a plain http.Client
// with the configured request timeout.
func New(client Client, cfg Config, log logger.Interface) *Fetcher {
	cfg = cfg.WithDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Fetcher{
		client:    client,
		cfg:       cfg,
		log:       log.WithComponent("fetch"),
		limiters:  make(map[string]*rate.Limiter),
		intervals: make(map[string]time.Duration),
	}
}

// ComputeHash returns the hex-encoded SHA-256 of content.
func ComputeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Fetch GETs the URL, honoring the per-host interval and retrying transient
// failures with exponential backoff. 429 responses honor Retry-After.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	host, err := sitegraph.Host(rawURL)
	if err != nil {
		return nil, permanentErr(0, err)
	}
	limiter := f.limiterFor(host, opts.HostInterval)

	var lastErr *Error
	delay := f.cfg.BackoffBase

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := delay
			if lastErr != nil && lastErr.RetryAfter > 0 {
				wait = lastErr.RetryAfter
			}
			f.log.Debug("retrying fetch",
				"url", rawURL, "attempt", attempt, "wait", wait)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return nil, transientErr(0, sleepErr)
			}
			delay = minDuration(delay*2, f.cfg.BackoffCap)
		}

		if waitErr := limiter.Wait(ctx); waitErr != nil {
			return nil, transientErr(0, waitErr)
		}

		result, fetchErr := f.doRequest(ctx, rawURL, opts)
		if fetchErr == nil {
			return result, nil
		}
		if !fetchErr.Retryable() || ctx.Err() != nil {
			return nil, fetchErr
		}
		lastErr = fetchErr
	}

	return nil, lastErr
}

// limiterFor returns the shared limiter for a host, creating it on first
// use. A wider requested interval tightens the existing limiter.
func (f *Fetcher) limiterFor(host string, requested time.Duration) *rate.Limiter {
	interval := f.cfg.MinHostInterval
	if requested > interval {
		interval = requested
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
		f.limiters[host] = limiter
		f.intervals[host] = interval
		return limiter
	}
	if interval > f.intervals[host] {
		limiter.SetLimit(rate.Every(interval))
		f.intervals[host] = interval
	}
	return limiter
}

// nextUserAgent rotates through the configured pool.
func (f *Fetcher) nextUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua := f.cfg.UserAgents[f.uaNext%len(f.cfg.UserAgents)]
	f.uaNext++
	return ua
}

// doRequest performs a single attempt and classifies the outcome.
func (f *Fetcher) doRequest(ctx context.Context, rawURL string, opts Options) (*Result, *Error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return nil, permanentErr(0, fmt.Errorf("create request: %w", reqErr))
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if opts.ETag != "" {
		req.Header.Set("If-None-Match", opts.ETag)
	}
	if opts.LastModified != "" {
		req.Header.Set("If-Modified-Since", opts.LastModified)
	}

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, classifyNetworkError(doErr)
	}
	defer resp.Body.Close()

	return f.classifyStatus(resp)
}

// classifyStatus routes the response by status code.
func (f *Fetcher) classifyStatus(resp *http.Response) (*Result, *Error) {
	switch {
	case resp.StatusCode >= statusOK && resp.StatusCode < 300:
		return f.readBody(resp)
	case resp.StatusCode == statusNotModified:
		return &Result{
			StatusCode:  resp.StatusCode,
			Header:      resp.Header,
			NotModified: true,
		}, nil
	case resp.StatusCode == statusTooManyReqs:
		ferr := transientErr(resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode))
		ferr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, ferr
	case resp.StatusCode >= statusServerErrLow:
		return nil, transientErr(resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode))
	default:
		return nil, permanentErr(resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode))
	}
}

// readBody reads up to the byte ceiling. Oversize bodies are truncated and
// flagged, never dropped.
func (f *Fetcher) readBody(resp *http.Response) (*Result, *Error) {
	limited := io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1)
	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, transientErr(resp.StatusCode, fmt.Errorf("read response body: %w", readErr))
	}

	truncated := false
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		body = body[:f.cfg.MaxBodyBytes]
		truncated = true
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentHash: ComputeHash(body),
		Header:      resp.Header,
		Truncated:   truncated,
	}, nil
}

// classifyNetworkError maps transport errors onto the taxonomy: DNS
// failures are permanent, timeouts and resets transient.
func classifyNetworkError(err error) *Error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return permanentErr(0, err)
	}
	return transientErr(0, err)
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
