package quizimages

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Retrier retries rate-limited AI calls with exponential backoff and jitter.
// Other errors are returned immediately.
type Retrier struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
	OnRetry      func(attempt int, delay time.Duration, err error)
}

// NewRetrier returns the default policy: 4 retries, 2s doubling up to 30s, 20% jitter
func NewRetrier() *Retrier {
	return &Retrier{
		MaxRetries:   4,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// Do runs op until it succeeds, fails with a non rate-limit error, or retries run out
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if !IsRateLimited(err) {
			return "", err
		}
		lastErr = err
		if attempt >= r.MaxRetries {
			break
		}

		delay := applyJitter(r.NextDelay(attempt), r.Jitter)
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, delay, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", r.MaxRetries, lastErr)
}

// NextDelay is the un-jittered delay before retry number attempt+1
func (r *Retrier) NextDelay(attempt int) time.Duration {
	delay := float64(r.InitialDelay) * math.Pow(r.Multiplier, float64(attempt))
	if delay > float64(r.MaxDelay) {
		return r.MaxDelay
	}
	return time.Duration(delay)
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor
	final := float64(delay) + (rand.Float64()-0.5)*2*jitter
	if final < 0 {
		return 0
	}
	return time.Duration(final)
}

// tooManyRequests matches a 429 status in error text, not any number containing 429
var tooManyRequests = regexp.MustCompile(`\b(status|statuscode|code|error|http/\d(\.\d)?)[\s:=]*429\b|\b429 too many requests\b`)

// IsRateLimited reports whether err is a rate-limit class failure from any backend
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return tooManyRequests.MatchString(msg) ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource exhausted")
}
