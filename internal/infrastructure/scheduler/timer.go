package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/value"
	"campus_auction/pkg/logx"
)

type TimerOptions struct {
	InitialRetry time.Duration
	MaxRetry     time.Duration
}

type timerEntry struct {
	timer *time.Timer
	retry *backoff.ExponentialBackOff
	gen   uint64
}

// TimerScheduler держит по таймеру на открытый лот в памяти процесса.
// Дедлайны не переживают рестарт: их восстанавливает сверка при старте.
type TimerScheduler struct {
	finalizer Finalizer
	opts      TimerOptions

	mu      sync.Mutex
	ctx     context.Context //nolint:containedctx
	entries map[int64]*timerEntry
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

func NewTimerScheduler(finalizer Finalizer, opts TimerOptions) *TimerScheduler {
	if opts.InitialRetry <= 0 {
		opts.InitialRetry = time.Second
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = time.Minute
	}

	return &TimerScheduler{
		finalizer: finalizer,
		opts:      opts,
		ctx:       context.Background(),
		entries:   make(map[int64]*timerEntry),
	}
}

// Start задаёт контекст, в котором срабатывают таймеры, и останавливает их при его отмене.
func (s *TimerScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop останавливает все таймеры и ждёт завершения уже начатых финализаций.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Schedule ставит или переставляет таймер лота.
func (s *TimerScheduler) Schedule(ctx context.Context, itemID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}

	if e, ok := s.entries[itemID]; ok {
		e.timer.Stop()
	}

	s.arm(itemID, time.Until(at), nil)

	logger(ctx).Debug("finalization timer armed",
		slog.Int64(logx.FieldItemID, itemID),
		slog.Time("at", at),
	)

	return nil
}

func (s *TimerScheduler) Cancel(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[itemID]; ok {
		e.timer.Stop()
		delete(s.entries, itemID)
		logger(ctx).Debug("finalization timer cancelled", slog.Int64(logx.FieldItemID, itemID))
	}

	return nil
}

// Pending возвращает число взведённых таймеров.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// arm вызывается под s.mu.
func (s *TimerScheduler) arm(itemID int64, delay time.Duration, retry *backoff.ExponentialBackOff) {
	s.gen++
	gen := s.gen

	e := &timerEntry{retry: retry, gen: gen}
	e.timer = time.AfterFunc(max(delay, 0), func() {
		s.fire(itemID, gen)
	})

	s.entries[itemID] = e
}

func (s *TimerScheduler) fire(itemID int64, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[itemID]
	if !ok || e.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	result, err := s.finalizer.Finalize(ctx, itemID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Пока шла финализация, лот могли переставить или отменить.
	if cur, ok := s.entries[itemID]; !ok || cur.gen != gen || s.stopped {
		return
	}

	switch {
	case err != nil && domain.IsRetryable(err):
		retry := e.retry
		if retry == nil {
			retry = s.newBackOff()
		}

		delay := retry.NextBackOff()
		logger(ctx).Warn("finalization failed, retrying",
			slog.Int64(logx.FieldItemID, itemID),
			slog.Duration("delay", delay),
			logx.Error(err),
		)
		s.arm(itemID, delay, retry)

	case err != nil:
		logger(ctx).Error("finalization dropped",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
		delete(s.entries, itemID)

	case result.Outcome == value.OutcomeNotDue:
		s.arm(itemID, time.Until(result.EndTime), nil)

	default:
		delete(s.entries, itemID)
	}
}

// newBackOff повторяет без ограничения числа попыток: лот нельзя оставить открытым навсегда.
func (s *TimerScheduler) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialRetry
	b.MaxInterval = s.opts.MaxRetry
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}
