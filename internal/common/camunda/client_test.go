package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stayflow-workers/internal/common/errors"
)

func testClient() *Client {
	return &Client{
		config: &ClientConfig{
			RetryConfig: &RetryConfig{
				MaxRetries: 2,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadline exceeded", errors.New("rpc error: deadline exceeded"), true},
		{"unavailable", errors.New("rpc error: code = Unavailable"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"invalid argument", errors.New("rpc error: code = InvalidArgument"), false},
		{"not found", errors.New("process definition not found"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, isRetryableZeebeError(tc.err))
		})
	}
}

func TestExecuteWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	c := testClient()

	calls := 0
	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("connection refused")
		}
		return "ok", nil
	}, "complete-job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	c := testClient()

	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("invalid argument")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	c := testClient()

	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("unavailable")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestMapZeebeError(t *testing.T) {
	c := testClient()

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unavailable", errors.New("code = Unavailable"), "EXTERNAL_SERVICE_ERROR"},
		{"timeout", errors.New("context deadline exceeded"), "TIMEOUT_ERROR"},
		{"not found", errors.New("element not found"), "RESOURCE_NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := c.mapZeebeError(tc.err, "test-op", 0)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(mapped, &stdErr), fmt.Sprintf("expected StandardError, got %T", mapped))
			assert.Equal(t, tc.wantCode, string(stdErr.Code))
		})
	}
}
