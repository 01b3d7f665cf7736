package quizimages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastRetrier() *Retrier {
	return &Retrier{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{"googleapi 500", &googleapi.Error{Code: 500, Message: "internal"}, false},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc denied", status.Error(codes.PermissionDenied, "denied"), false},
		{"openai api 429", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, true},
		{"openai request 429", &openai.RequestError{HTTPStatusCode: 429, Err: errors.New("too many")}, true},
		{"wrapped", fmt.Errorf("briefs: %w", &googleapi.Error{Code: 429}), true},
		{"message", errors.New("Error 429: Resource has been exhausted"), true},
		{"status text", errors.New("unexpected status 429 from upstream"), true},
		{"status line", errors.New("HTTP/1.1 429 Too Many Requests"), true},
		{"429 inside a url", errors.New(`Post "https://api.example/v1/jobs/14290": dial tcp: connection refused`), false},
		{"429 as an id", errors.New("document 429 not found"), false},
		{"plain", errors.New("invalid argument"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetrierRecovers(t *testing.T) {
	r := fastRetrier()
	var retries []int
	r.OnRetry = func(attempt int, _ time.Duration, _ error) {
		retries = append(retries, attempt)
	}

	calls := 0
	out, err := r.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limit exceeded")
		}
		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("Do = %q, %v", out, err)
	}
	if calls != 3 || len(retries) != 2 || retries[1] != 2 {
		t.Errorf("calls = %d, retries = %v", calls, retries)
	}
}

func TestRetrierNonRateLimitImmediate(t *testing.T) {
	calls := 0
	_, err := fastRetrier().Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("permission denied")
	})
	if err == nil || calls != 1 {
		t.Errorf("calls = %d, err = %v", calls, err)
	}
}

func TestRetrierGivesUp(t *testing.T) {
	calls := 0
	_, err := fastRetrier().Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", &googleapi.Error{Code: 429}
	})
	if calls != 4 {
		t.Errorf("calls = %d, want 1 + 3 retries", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "max retries (3) exceeded") {
		t.Errorf("err = %v", err)
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Error("last error should be wrapped")
	}
}

func TestRetrierCancelled(t *testing.T) {
	r := &Retrier{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())
	_, err := r.Do(ctx, func(context.Context) (string, error) {
		cancel()
		return "", &googleapi.Error{Code: 429}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNextDelay(t *testing.T) {
	r := NewRetrier()
	if got := r.NextDelay(0); got != 2*time.Second {
		t.Errorf("first delay = %s", got)
	}
	if got := r.NextDelay(2); got != 8*time.Second {
		t.Errorf("third delay = %s", got)
	}
	if got := r.NextDelay(10); got != 30*time.Second {
		t.Errorf("delay should cap at MaxDelay, got %s", got)
	}
	for i := 0; i < 20; i++ {
		d := applyJitter(10*time.Second, 0.2)
		if d < 8*time.Second || d > 12*time.Second {
			t.Fatalf("jittered delay %s outside ±20%%", d)
		}
	}
}
