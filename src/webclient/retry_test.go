package webclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoWithRetrySingleAttempt(t *testing.T) {
	calls := 0
	status, _, err := DoWithRetry(context.Background(), 1, time.Millisecond, func() (int, []byte, error) {
		calls++
		return 503, nil, errors.New("unavailable")
	})
	require.Error(t, err)
	require.Equal(t, 503, status)
	require.Equal(t, 1, calls)
}

func TestDoWithRetryRecovers(t *testing.T) {
	calls := 0
	status, body, err := DoWithRetry(context.Background(), 3, time.Millisecond, func() (int, []byte, error) {
		calls++
		if calls < 3 {
			return 429, nil, nil
		}
		return 200, []byte("ok"), nil
	})
	require.NoError(t, err)
	require.Equal(t, 200, status)
	require.Equal(t, "ok", string(body))
	require.Equal(t, 3, calls)
}

func TestDoWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := DoWithRetry(ctx, 5, time.Hour, func() (int, []byte, error) {
		return 500, nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewDefaultTimeout(t *testing.T) {
	require.Equal(t, 60*time.Second, NewDefault(0).Timeout)
	require.Equal(t, time.Second, NewDefault(time.Second).Timeout)
}
