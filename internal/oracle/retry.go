package oracle

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// httpStatusError lets a backend report the HTTP status it observed
// without the retry policy needing to know that backend's own error
// type.
type httpStatusError struct {
	status int
	err    error
}

func (e *httpStatusError) Error() string { return e.err.Error() }
func (e *httpStatusError) Unwrap() error { return e.err }

// NewHTTPStatusError wraps err with the HTTP status code a backend
// observed, for classification by runWithRetry.
func NewHTTPStatusError(status int, err error) error {
	return &httpStatusError{status: status, err: err}
}

// schemaViolationError marks an answer that didn't parse into the
// requested OutputSchema.
type schemaViolationError struct{ err error }

func (e *schemaViolationError) Error() string { return e.err.Error() }
func (e *schemaViolationError) Unwrap() error { return e.err }

// NewSchemaViolationError marks err as a malformed-output condition.
func NewSchemaViolationError(err error) error {
	return &schemaViolationError{err: err}
}

const defaultRetries = 3

// runWithRetry calls attempt up to retries times (retries<=0 means
// defaultRetries), sleeping per the shared backoff policy between
// attempts: schema violation backs off ~1s, HTTP 429/500 back off
// ~5s, anything else surfaces immediately.
func runWithRetry(ctx context.Context, retries int, attempt func(ctx context.Context) (any, error)) (any, error) {
	if retries <= 0 {
		retries = defaultRetries
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		wait, retryable := classifyRetry(err)
		if !retryable {
			return nil, err
		}
		if i == retries-1 {
			break
		}
		log.Printf("[oracle] attempt %d/%d failed: %v, retrying in %s", i+1, retries, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func classifyRetry(err error) (time.Duration, bool) {
	var sv *schemaViolationError
	if errors.As(err, &sv) {
		return time.Second, true
	}
	var hse *httpStatusError
	if errors.As(err, &hse) {
		switch hse.status {
		case http.StatusTooManyRequests, http.StatusInternalServerError:
			return 5 * time.Second, true
		}
		return 0, false
	}
	return 0, false
}
