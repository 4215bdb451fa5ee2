package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/fetch"
	"github.com/jonesrussell/goinsight/internal/logger"
)

// fastConfig keeps intervals and backoff near zero so tests run quickly.
func fastConfig() fetch.Config {
	return fetch.Config{
		MinHostInterval: time.Millisecond,
		RequestTimeout:  5 * time.Second,
		MaxAttempts:     3,
		BackoffBase:     time.Millisecond,
		BackoffCap:      5 * time.Millisecond,
	}
}

func TestFetch_ReturnsBodyAndHash(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>hello</html>")
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	result, err := f.Fetch(context.Background(), server.URL+"/page", fetch.Options{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, []byte("<html>hello</html>"), result.Body)
	assert.Equal(t, fetch.ComputeHash(result.Body), result.ContentHash)
	assert.False(t, result.Truncated)
}

func TestFetch_RetriesTransientServerError(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	result, err := f.Fetch(context.Background(), server.URL+"/flaky", fetch.Options{})
	require.NoError(t, err)

	assert.Equal(t, []byte("recovered"), result.Body)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetch_DoesNotRetryPermanentClientError(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	_, err := f.Fetch(context.Background(), server.URL+"/missing", fetch.Options{})
	require.Error(t, err)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.ErrorKindPermanent, fetchErr.Kind)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "permanent failures are not retried")
}

func TestFetch_ExhaustsAttemptsOnPersistentServerError(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	_, err := f.Fetch(context.Background(), server.URL+"/down", fetch.Options{})
	require.Error(t, err)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.ErrorKindTransient, fetchErr.Kind)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetch_HonorsRetryAfterOn429(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var times []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		first := len(times) == 1
		mu.Unlock()
		if first {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	result, err := f.Fetch(context.Background(), server.URL+"/limited", fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), result.Body)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 2)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), time.Second,
		"retry waits at least the advertised Retry-After")
}

func TestFetch_TruncatesOversizeBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 100 {
			fmt.Fprint(w, "0123456789")
		}
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MaxBodyBytes = 64
	f := fetch.New(nil, cfg, logger.NewNoop())

	result, err := f.Fetch(context.Background(), server.URL+"/big", fetch.Options{})
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Len(t, result.Body, 64)
	assert.Equal(t, fetch.ComputeHash(result.Body), result.ContentHash,
		"hash covers the truncated prefix")
}

func TestFetch_ConditionalRequestReturnsNotModified(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, "content")
	}))
	defer server.Close()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())

	first, err := f.Fetch(context.Background(), server.URL+"/doc", fetch.Options{})
	require.NoError(t, err)
	require.Equal(t, `"v1"`, first.Header.Get("ETag"))

	second, err := f.Fetch(context.Background(), server.URL+"/doc", fetch.Options{ETag: `"v1"`})
	require.NoError(t, err)
	assert.True(t, second.NotModified)
	assert.Empty(t, second.Body)
}

func TestFetch_EnforcesHostIntervalAcrossGoroutines(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var times []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MinHostInterval = 150 * time.Millisecond
	f := fetch.New(nil, cfg, logger.NewNoop())

	var wg sync.WaitGroup
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Fetch(context.Background(),
				fmt.Sprintf("%s/p%d", server.URL, i), fetch.Options{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[2].Sub(times[0]), 200*time.Millisecond,
		"requests against one host are spaced by the shared limiter")
}

func TestFetch_ClassifiesDNSFailureAsPermanent(t *testing.T) {
	t.Parallel()

	f := fetch.New(nil, fastConfig(), logger.NewNoop())
	_, err := f.Fetch(context.Background(),
		"https://definitely-not-a-real-host.invalid/page", fetch.Options{})
	require.Error(t, err)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.ErrorKindPermanent, fetchErr.Kind)
}

func TestFetch_CancelledContextStopsRetryLoop(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.BackoffBase = time.Minute
	f := fetch.New(nil, cfg, logger.NewNoop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, server.URL+"/down", fetch.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
