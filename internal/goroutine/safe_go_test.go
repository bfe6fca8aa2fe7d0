package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("best-effort operation did not finish")
		return Result{}
	}
}

func TestBestEffort_ReportsError(t *testing.T) {
	res := waitResult(t, BestEffort(context.Background(), "send_email", func(ctx context.Context) error {
		return errors.New("smtp down")
	}))

	assert.Equal(t, "send_email", res.Op)
	assert.EqualError(t, res.Err, "smtp down")
}

func TestBestEffort_SurvivesCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := waitResult(t, BestEffort(ctx, "notify", func(ctx context.Context) error {
		return ctx.Err()
	}))

	assert.NoError(t, res.Err)
}

func TestBestEffort_RecoversPanic(t *testing.T) {
	res := waitResult(t, BestEffort(context.Background(), "invoice", func(ctx context.Context) error {
		panic("boom")
	}))

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "boom")
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 10)

	Every(ctx, 5*time.Millisecond, func(context.Context) {
		ticks <- struct{}{}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected at least one tick")
	}
	cancel()
}
