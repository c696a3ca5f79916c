package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/companion/internal/logging"
)

type countingTicker struct {
	calls atomic.Int32
}

func (c *countingTicker) TickAll() int {
	c.calls.Add(1)
	return 1
}

func quietLogger() *logging.Logger {
	l := logging.NewLogger(logging.LevelDebug)
	l.SetOutput(io.Discard)
	return l
}

func TestRunWithTicksOncePerValue(t *testing.T) {
	target := &countingTicker{}
	s := New(target, time.Second, quietLogger())

	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() {
		done <- s.RunWith(context.Background(), ticks)
	}()

	for i := 0; i < 3; i++ {
		ticks <- time.Now()
	}
	close(ticks)

	require.NoError(t, <-done)
	assert.Equal(t, int32(3), target.calls.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	target := &countingTicker{}
	s := New(target, time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&countingTicker{}, 0, quietLogger())
	assert.Equal(t, time.Second, s.interval)
}
