package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v62/github"
)

// withRetry runs one API call, retrying it identically whenever the error
// is a recognized throttling signal. The wait is the server-suggested
// duration when one is available, otherwise an exponential backoff capped
// at BackoffMax. Every wait is logged with the triggering endpoint.
// Non-throttle errors are returned to the caller untouched.
func (g *GitHubGateway) withRetry(ctx context.Context, endpoint string, call func() error) error {
	backoff := g.opts.BackoffMin
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call()
		wait, throttled := throttleWait(err, backoff)
		if !throttled {
			return err
		}
		g.logger.Printf("[rate] throttled on %s, sleeping %s", endpoint, wait)
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
		if backoff *= 2; backoff > g.opts.BackoffMax {
			backoff = g.opts.BackoffMax
		}
	}
}

// throttleWait classifies an error and, for throttling signals, picks the
// wait before the retry. Covered signals: a primary rate limit (403 with
// an exhausted quota), a secondary/abuse limit, and a plain 429. A 403
// with no rate-limit indication is a permission failure and not retryable.
func throttleWait(err error, fallback time.Duration) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		if wait := time.Until(rateErr.Rate.Reset.Time); wait > 0 {
			return wait, true
		}
		return fallback, true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil && *abuseErr.RetryAfter > 0 {
			return *abuseErr.RetryAfter, true
		}
		return fallback, true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusTooManyRequests {
		if retry := respErr.Response.Header.Get("Retry-After"); retry != "" {
			if secs, convErr := strconv.Atoi(retry); convErr == nil && secs > 0 {
				return time.Duration(secs) * time.Second, true
			}
		}
		return fallback, true
	}

	return 0, false
}

// IsPermission reports whether an error is a non-retryable permission
// failure (a 403 that was not recognized as throttling, or a 401).
func IsPermission(err error) bool {
	var respErr *github.ErrorResponse
	if !errors.As(err, &respErr) || respErr.Response == nil {
		return false
	}
	code := respErr.Response.StatusCode
	return code == http.StatusForbidden || code == http.StatusUnauthorized
}

// IsNotFound reports whether an error is a 404 from the API.
func IsNotFound(err error) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}
