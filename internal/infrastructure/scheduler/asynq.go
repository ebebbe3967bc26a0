package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/value"
	"campus_auction/pkg/application/modules"
	"campus_auction/pkg/logx"
)

// TaskFinalize — тип задачи финализации лота.
const TaskFinalize = "auction:finalize"

var errNotDue = errors.New("auction is not due yet")

type finalizePayload struct {
	ItemID int64 `json:"item_id"`
}

// Enqueuer покрывает часть asynq.Client, нужную планировщику.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter покрывает часть asynq.Inspector, нужную для отмены.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

type AsynqOptions struct {
	Queue    string
	MaxRetry int
	// DedupTTL — сколько помнить уже поставленную задачу, чтобы сверка
	// не ходила в Redis за каждым открытым лотом.
	DedupTTL time.Duration
}

// AsynqScheduler хранит дедлайны как отложенные задачи asynq в Redis. Задача
// на лот одна: её ID выводится из ID лота, повторная постановка — no-op.
type AsynqScheduler struct {
	client    Enqueuer
	inspector TaskDeleter
	opts      AsynqOptions
	enqueued  *cache.Cache
}

func NewAsynqScheduler(client Enqueuer, inspector TaskDeleter, opts AsynqOptions) *AsynqScheduler {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 10 * time.Minute //nolint:mnd
	}

	return &AsynqScheduler{
		client:    client,
		inspector: inspector,
		opts:      opts,
		enqueued:  cache.New(opts.DedupTTL, 2*opts.DedupTTL),
	}
}

func (s *AsynqScheduler) Schedule(ctx context.Context, itemID int64, at time.Time) error {
	key := strconv.FormatInt(itemID, 10)

	if v, ok := s.enqueued.Get(key); ok {
		if prev, ok := v.(time.Time); ok && prev.Equal(at) {
			return nil
		}
	}

	payload, err := jsoniter.Marshal(finalizePayload{ItemID: itemID})
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	_, err = s.client.EnqueueContext(ctx,
		asynq.NewTask(TaskFinalize, payload),
		asynq.TaskID(taskID(itemID)),
		asynq.ProcessAt(at),
		asynq.Queue(s.opts.Queue),
		asynq.MaxRetry(s.opts.MaxRetry),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	s.enqueued.SetDefault(key, at)

	logger(ctx).Debug("finalization scheduled",
		slog.Int64(logx.FieldItemID, itemID),
		slog.Time("at", at),
	)

	return nil
}

func (s *AsynqScheduler) Cancel(ctx context.Context, itemID int64) error {
	s.enqueued.Delete(strconv.FormatInt(itemID, 10))

	err := s.inspector.DeleteTask(s.opts.Queue, taskID(itemID))
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
		return fmt.Errorf("inspector.DeleteTask: %w", err)
	}

	logger(ctx).Debug("finalization cancelled", slog.Int64(logx.FieldItemID, itemID))

	return nil
}

// Handler возвращает обработчик задач финализации для asynq-сервера.
// Инфраструктурные ошибки возвращаются как есть: asynq повторит задачу с backoff.
func (s *AsynqScheduler) Handler(finalizer Finalizer) modules.AsynqHandler {
	return modules.AsynqHandler{
		Pattern: TaskFinalize,
		Handle: func(ctx context.Context, task *asynq.Task) error {
			var payload finalizePayload
			if err := jsoniter.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("jsoniter.Unmarshal: %w: %w", err, asynq.SkipRetry)
			}

			key := strconv.FormatInt(payload.ItemID, 10)

			result, err := finalizer.Finalize(ctx, payload.ItemID)
			if err != nil {
				if !domain.IsRetryable(err) {
					s.enqueued.Delete(key)
					logger(ctx).Error("finalize task dropped",
						slog.Int64(logx.FieldItemID, payload.ItemID),
						logx.Error(err),
					)
					return fmt.Errorf("finalizer.Finalize: %w: %w", err, asynq.SkipRetry)
				}

				logger(ctx).Warn("finalize task failed",
					slog.Int64(logx.FieldItemID, payload.ItemID),
					logx.Error(err),
				)
				return fmt.Errorf("finalizer.Finalize: %w", err)
			}

			if result.Outcome == value.OutcomeNotDue {
				// Задача сработала раньше дедлайна: повтор через retry, сверка подстрахует.
				s.enqueued.Delete(key)
				return fmt.Errorf("item %d: %w", payload.ItemID, errNotDue)
			}

			s.enqueued.Delete(key)

			return nil
		},
	}
}

func taskID(itemID int64) string {
	return "finalize:" + strconv.FormatInt(itemID, 10)
}
