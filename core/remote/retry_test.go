package remote

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func zeroPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"RateLimited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"ServerError", &googleapi.Error{Code: http.StatusBadGateway}, true},
		{"UserRateLimit", &googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}}, true},
		{"Forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"NotFound", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"Canceled", context.Canceled, false},
		{"Network", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestTokenRejected(t *testing.T) {
	assert.True(t, tokenRejected(&googleapi.Error{Code: http.StatusGone}))
	assert.True(t, tokenRejected(&googleapi.Error{Code: http.StatusBadRequest, Errors: []googleapi.ErrorItem{{Reason: "invalid"}}}))
	assert.False(t, tokenRejected(&googleapi.Error{Code: http.StatusBadRequest}))
	assert.False(t, tokenRejected(errors.New("boom")))
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("RetriesTransient", func(t *testing.T) {
		calls := 0
		v, err := withRetry(ctx, zeroPolicy, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, &googleapi.Error{Code: http.StatusServiceUnavailable}
			}
			return 7, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("StopsOnPermanent", func(t *testing.T) {
		calls := 0
		_, err := withRetry(ctx, zeroPolicy, func() (int, error) {
			calls++
			return 0, &googleapi.Error{Code: http.StatusNotFound}
		})
		assert.Error(t, err)
		assert.True(t, notFound(err))
		assert.Equal(t, 1, calls)
	})
}
