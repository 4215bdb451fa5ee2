package fetch

import (
	"fmt"
	"time"

	"github.com/jonesrussell/goinsight/internal/domain"
)

// Error is a typed fetch failure. Kind distinguishes transient failures
// (timeouts, 5xx, 429, connection resets), which are retried, from permanent
// ones (other 4xx, DNS failures), which are not.
type Error struct {
	Kind       string
	StatusCode int
	// RetryAfter carries a server-provided retry hint (429 Retry-After).
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure may succeed on retry.
func (e *Error) Retryable() bool { return e.Kind == domain.ErrorKindTransient }

func transientErr(statusCode int, err error) *Error {
	return &Error{Kind: domain.ErrorKindTransient, StatusCode: statusCode, Err: err}
}

func permanentErr(statusCode int, err error) *Error {
	return &Error{Kind: domain.ErrorKindPermanent, StatusCode: statusCode, Err: err}
}
