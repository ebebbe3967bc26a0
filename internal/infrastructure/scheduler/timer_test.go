package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain"
	"campus_auction/internal/infrastructure/scheduler"
	"campus_auction/pkg/errcodes"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTimer(t *testing.T, finalizer *fakeFinalizer) *scheduler.TimerScheduler {
	t.Helper()

	s := scheduler.NewTimerScheduler(finalizer, scheduler.TimerOptions{
		InitialRetry: 5 * time.Millisecond,
		MaxRetry:     20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
	})

	return s
}

func TestTimerSchedulerFires(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{}
	s := newTimer(t, finalizer)

	rq.NoError(s.Schedule(context.Background(), 1, time.Now().Add(10*time.Millisecond)))
	rq.NoError(s.Schedule(context.Background(), 2, time.Now().Add(-time.Second)))

	rq.Eventually(func() bool { return len(finalizer.Calls()) == 2 }, waitFor, tick)
	rq.Eventually(func() bool { return s.Pending() == 0 }, waitFor, tick)
	rq.ElementsMatch([]int64{1, 2}, finalizer.Calls())
}

func TestTimerSchedulerRescheduleReplaces(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{}
	s := newTimer(t, finalizer)

	ctx := context.Background()

	rq.NoError(s.Schedule(ctx, 1, time.Now().Add(time.Hour)))
	rq.NoError(s.Schedule(ctx, 1, time.Now()))

	rq.Eventually(func() bool { return len(finalizer.Calls()) == 1 }, waitFor, tick)
	rq.Eventually(func() bool { return s.Pending() == 0 }, waitFor, tick)
}

func TestTimerSchedulerCancel(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{}
	s := newTimer(t, finalizer)

	ctx := context.Background()

	rq.NoError(s.Schedule(ctx, 1, time.Now().Add(30*time.Millisecond)))
	rq.NoError(s.Cancel(ctx, 1))
	rq.Zero(s.Pending())

	time.Sleep(60 * time.Millisecond)
	rq.Empty(finalizer.Calls())
}

func TestTimerSchedulerRetriesTransientFailures(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{replies: []reply{
		failed(domain.WrapInternal(errors.New("db down"), "lock item")),
		failed(errors.New("connection reset")),
		sold(),
	}}
	s := newTimer(t, finalizer)

	rq.NoError(s.Schedule(context.Background(), 3, time.Now()))

	rq.Eventually(func() bool { return len(finalizer.Calls()) == 3 }, waitFor, tick)
	rq.Eventually(func() bool { return s.Pending() == 0 }, waitFor, tick)
}

func TestTimerSchedulerDropsPermanentFailures(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{replies: []reply{
		failed(domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")),
	}}
	s := newTimer(t, finalizer)

	rq.NoError(s.Schedule(context.Background(), 4, time.Now()))

	rq.Eventually(func() bool { return len(finalizer.Calls()) == 1 }, waitFor, tick)
	rq.Eventually(func() bool { return s.Pending() == 0 }, waitFor, tick)

	time.Sleep(30 * time.Millisecond)
	rq.Len(finalizer.Calls(), 1)
}

func TestTimerSchedulerRearmsWhenNotDue(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{replies: []reply{
		notDue(time.Now().Add(20 * time.Millisecond)),
		sold(),
	}}
	s := newTimer(t, finalizer)

	rq.NoError(s.Schedule(context.Background(), 5, time.Now()))

	rq.Eventually(func() bool { return len(finalizer.Calls()) == 2 }, waitFor, tick)
	rq.Eventually(func() bool { return s.Pending() == 0 }, waitFor, tick)
}

func TestTimerSchedulerStop(t *testing.T) {
	rq := require.New(t)
	finalizer := &fakeFinalizer{}
	s := scheduler.NewTimerScheduler(finalizer, scheduler.TimerOptions{})

	ctx := context.Background()

	rq.NoError(s.Schedule(ctx, 1, time.Now().Add(20*time.Millisecond)))
	s.Stop()
	rq.Zero(s.Pending())

	// После остановки новые дедлайны игнорируются.
	rq.NoError(s.Schedule(ctx, 2, time.Now()))
	rq.Zero(s.Pending())

	time.Sleep(40 * time.Millisecond)
	rq.Empty(finalizer.Calls())
}
