package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"campus_auction/pkg/contextx"
	"campus_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// AuctionSweeper описывает операции движка, на которых держится сверка.
type AuctionSweeper interface {
	RegisterOpenAuctions(ctx context.Context, batch int) (int, error)
	FinalizeDue(ctx context.Context, limit int) (int, error)
}

// Reconciler периодически восстанавливает дедлайны открытых лотов и закрывает
// просроченные по сохранённому состоянию. Первая сверка выполняется сразу при старте.
type Reconciler struct {
	sweeper  AuctionSweeper
	interval time.Duration
	batch    int

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewReconciler(sweeper AuctionSweeper) *Reconciler {
	return &Reconciler{
		sweeper:  sweeper,
		interval: 30 * time.Second, //nolint:mnd
		batch:    100,              //nolint:mnd
	}
}

func (w *Reconciler) WithInterval(interval time.Duration) *Reconciler {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *Reconciler) WithBatch(batch int) *Reconciler {
	if batch > 0 {
		w.batch = batch
	}
	return w
}

func (w *Reconciler) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("reconciler is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("reconciler stopped", logx.Error(err))
		}
	}()

	return nil
}

func (w *Reconciler) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

// IsRunning возвращает текущий статус
func (w *Reconciler) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Reconciler) Run(ctx context.Context) error {
	logger(ctx).Info("reconciler started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)

		select {
		case <-ctx.Done():
			logger(ctx).Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep выполняет один проход сверки. Ошибки пишутся в лог: следующий проход повторит.
func (w *Reconciler) Sweep(ctx context.Context) {
	registered, err := w.sweeper.RegisterOpenAuctions(ctx, w.batch)
	if err != nil {
		logger(ctx).Error("register open auctions", logx.Error(err))
	}

	// Закрываем пачками, пока просроченные не кончатся.
	var finalized int
	for ctx.Err() == nil {
		n, err := w.sweeper.FinalizeDue(ctx, w.batch)
		finalized += n
		if err != nil {
			logger(ctx).Error("finalize due auctions", logx.Error(err))
			break
		}
		if n < w.batch {
			break
		}
	}

	if finalized > 0 {
		logger(ctx).Info("sweep completed",
			slog.Int("registered", registered),
			slog.Int("finalized", finalized),
		)
	}
}
