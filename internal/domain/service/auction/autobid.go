package auction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/metrics"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/logx"
)

// UpsertAutobid создаёт или заменяет поручение пользователя по лоту и сразу
// даёт ему ответить на текущую лучшую ставку.
func (s *Service) UpsertAutobid(
	ctx context.Context,
	userID, itemID int64,
	maxBid, increment decimal.Decimal,
) (*entity.AutobidAgreement, []entity.Bid, error) {
	if !maxBid.IsPositive() || !isMoney(maxBid) {
		return nil, nil, domain.NewValidationError(errcodes.InvalidAmount, "max bid must be a positive amount with at most 2 decimals")
	}
	if !increment.IsPositive() || !isMoney(increment) {
		return nil, nil, domain.NewValidationError(errcodes.InvalidIncrement, "increment must be a positive amount with at most 2 decimals")
	}

	agreement := &entity.AutobidAgreement{
		UserID:    userID,
		ItemID:    itemID,
		MaxBid:    maxBid,
		Increment: increment,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.LockItem: %w", err)
		}

		now := s.now()

		if !item.IsActive || !now.Before(item.EndTime) {
			return domain.NewConflictError(errcodes.AuctionClosed, "auction is closed")
		}
		if item.OwnerID == userID {
			return domain.NewConflictError(errcodes.SellerCannotBid, "seller cannot bid on own item")
		}

		agreement.UpdatedAt = now.UTC()

		if err := tx.UpsertAutobid(ctx, agreement); err != nil {
			return fmt.Errorf("tx.UpsertAutobid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger(ctx).Info("autobid saved",
		slog.Int64(logx.FieldItemID, itemID),
		slog.Int64(logx.FieldUserID, userID),
		slog.String("max_bid", maxBid.String()),
		slog.String("increment", increment.String()),
	)

	highest, err := s.store.GetHighestBid(ctx, itemID)
	if err != nil {
		// Поручение уже сохранено, ответит на следующую ставку.
		logger(ctx).Warn("store.GetHighestBid",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
		return agreement, nil, nil
	}
	if highest == nil {
		return agreement, nil, nil
	}

	return agreement, s.OnBidAccepted(ctx, itemID, *highest), nil
}

// OnBidAccepted разрешает каскад автоставок, вызванный ставкой trigger.
//
// Поручения обходятся проходами по возрастанию user_id, лучшая ставка
// перечитывается перед каждой автоставкой, поэтому за лидера (в том числе за
// автора trigger) никто не ставит. Следующий проход начинается, только если
// предыдущий поставил хотя бы одну автоставку; число проходов не больше числа
// поручений. Ошибка отдельной автоставки пишется в лог и пропускается.
func (s *Service) OnBidAccepted(ctx context.Context, itemID int64, trigger entity.Bid) []entity.Bid {
	agreements, err := s.store.ListAutobids(ctx, itemID)
	if err != nil {
		metrics.CascadeFailed()
		logger(ctx).Error("store.ListAutobids",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
		return nil
	}

	var placed []entity.Bid

	for pass := 0; pass < len(agreements); pass++ {
		progressed := false

		for _, agreement := range agreements {
			bid, stop := s.proxyBid(ctx, itemID, agreement)
			if stop {
				return placed
			}
			if bid == nil {
				continue
			}

			placed = append(placed, *bid)
			progressed = true
		}

		if !progressed {
			return placed
		}
	}

	if len(placed) > 0 {
		logger(ctx).Debug("autobid cascade reached pass limit",
			slog.Int64(logx.FieldItemID, itemID),
			slog.Int64(logx.FieldBidID, trigger.ID),
			slog.Int("passes", len(agreements)),
		)
	}

	return placed
}

// proxyBid ставит за владельца поручения, если он не лидирует и потолок позволяет.
// stop сообщает, что продолжать каскад бессмысленно: лот закрыт или исчез.
func (s *Service) proxyBid(ctx context.Context, itemID int64, agreement entity.AutobidAgreement) (*entity.Bid, bool) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		metrics.CascadeFailed()
		logger(ctx).Error("store.GetItem",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
		return nil, true
	}
	if !item.AcceptsBidsAt(s.now()) {
		return nil, true
	}

	highest, err := s.store.GetHighestBid(ctx, itemID)
	if err != nil {
		metrics.CascadeFailed()
		logger(ctx).Error("store.GetHighestBid",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
		return nil, false
	}
	if highest == nil || highest.BidderID == agreement.UserID {
		return nil, false
	}

	amount, ok := agreement.NextBid(highest.Amount)
	if !ok {
		return nil, false
	}

	bid, err := s.acceptBid(ctx, itemID, agreement.UserID, amount, true)
	if err != nil {
		metrics.CascadeFailed()
		logger(ctx).Warn("proxy bid skipped",
			slog.Int64(logx.FieldItemID, itemID),
			slog.Int64(logx.FieldUserID, agreement.UserID),
			slog.String("amount", amount.String()),
			logx.Error(err),
		)
		return nil, domain.HasCode(err, errcodes.AuctionClosed) || domain.HasCode(err, errcodes.ItemNotFound)
	}

	return bid, false
}
