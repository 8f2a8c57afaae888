package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), "op", func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransient(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), "op", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("upstream 503"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Do(context.Background(), fastConfig(2), "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("still down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, fastConfig(5), "op", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(eris.New("down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 503)))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
