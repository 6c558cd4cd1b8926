package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/zerox/internal/logging"
)

func TestRun_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Run(context.Background(), logging.NewLogger("test"), "op", 3, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Run(context.Background(), logging.NewLogger("test"), "op", 3, func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRun_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	calls := 0
	cause := errors.New("permanent failure")
	err := Run(context.Background(), logging.NewLogger("test"), "op", 2, func(ctx context.Context, attempt int) error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
	assert.ErrorIs(t, err, cause)
}

func TestRun_StopsImmediatelyWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Run(ctx, logging.NewLogger("test"), "op", 3, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}
