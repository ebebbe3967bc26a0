// Package scheduler доставляет дедлайны финализации лотов до движка аукциона.
package scheduler

import (
	"context"

	"campus_auction/internal/domain/service/auction"
	"campus_auction/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Finalizer закрывает лот, время которого вышло.
type Finalizer interface {
	Finalize(ctx context.Context, itemID int64) (auction.FinalizeResult, error)
}

var (
	_ auction.Scheduler = (*AsynqScheduler)(nil)
	_ auction.Scheduler = (*TimerScheduler)(nil)
)
