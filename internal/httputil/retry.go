// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for collaborators that source-engine
// calls, such as the authority lookup service.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff step. Tests override this to avoid
// real sleeps.
var RetryBaseDelay = 1 * time.Second

// MaxRetryDelay caps a single wait, including waits requested by Retry-After.
var MaxRetryDelay = 60 * time.Second

const defaultMaxRetries = 5

// Retryable reports whether status signals a transient overload: 429 Too
// Many Requests or 503 Service Unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries while the response status is
// Retryable. The wait before attempt n is the server's Retry-After (seconds)
// when present, otherwise RetryBaseDelay doubled n times, capped at
// MaxRetryDelay.
//
// When maxRetries is 0 the default (5) is used. The body of each retried
// response is drained and closed. If ctx is cancelled while waiting,
// ctx.Err() is returned. After the last retry the final response is returned
// unchanged so the caller can inspect the status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := Backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff returns the wait before retry number attempt (zero-based).
// retryAfter is the raw Retry-After header; only the delay-seconds form is
// honoured.
func Backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryDelay)
	}
	d := RetryBaseDelay
	for i := 0; i < attempt && d < MaxRetryDelay; i++ {
		d *= 2
	}
	return min(d, MaxRetryDelay)
}
