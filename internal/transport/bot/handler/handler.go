package handler

import (
	"context"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
)

type auctionService interface {
	GetItem(ctx context.Context, itemID int64) (*entity.Item, error)
	GetHighestBid(ctx context.Context, itemID int64) (*entity.Bid, error)
	ListBids(ctx context.Context, itemID int64) ([]entity.Bid, error)
	ListOpenItems(ctx context.Context, afterID int64, limit int) ([]entity.Item, error)
	Finalize(ctx context.Context, itemID int64) (auction.FinalizeResult, error)
}

type reconciler interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	Sweep(ctx context.Context)
}

type Handler struct {
	// baseCtx живёт дольше отдельного апдейта: в нём запускается фоновая сверка
	baseCtx    context.Context //nolint:containedctx
	svc        auctionService
	reconciler reconciler
}

func New(baseCtx context.Context, svc auctionService, reconciler reconciler) *Handler {
	return &Handler{
		baseCtx:    baseCtx,
		svc:        svc,
		reconciler: reconciler,
	}
}
