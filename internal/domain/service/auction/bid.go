package auction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/value"
	"campus_auction/internal/metrics"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/logx"
)

// BidResult — принятая прямая ставка и автоставки, которые она вызвала.
type BidResult struct {
	Bid       entity.Bid
	ProxyBids []entity.Bid
}

// Highest возвращает последнюю ставку, принятую в рамках запроса.
func (r BidResult) Highest() entity.Bid {
	if len(r.ProxyBids) > 0 {
		return r.ProxyBids[len(r.ProxyBids)-1]
	}
	return r.Bid
}

// PlaceBid атомарно принимает ставку и синхронно разрешает каскад автоставок.
func (s *Service) PlaceBid(ctx context.Context, itemID, bidderID int64, amount decimal.Decimal) (BidResult, error) {
	if !amount.IsPositive() || !isMoney(amount) {
		metrics.BidRejected(string(errcodes.InvalidAmount))
		return BidResult{}, domain.NewValidationError(errcodes.InvalidAmount, "bid amount must be a positive amount with at most 2 decimals")
	}

	bid, err := s.acceptBid(ctx, itemID, bidderID, amount, false)
	if err != nil {
		return BidResult{}, err
	}

	return BidResult{
		Bid:       *bid,
		ProxyBids: s.OnBidAccepted(ctx, itemID, *bid),
	}, nil
}

// acceptBid фиксирует ставку. Прямые и автоставки проходят только через него.
func (s *Service) acceptBid(
	ctx context.Context,
	itemID, bidderID int64,
	amount decimal.Decimal,
	proxy bool,
) (*entity.Bid, error) {
	var (
		bid           *entity.Bid
		previousPrice decimal.Decimal
	)

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.LockItem: %w", err)
		}

		now := s.now()

		if err := checkBiddable(item, bidderID, now); err != nil {
			return err
		}

		highest, err := tx.HighestBid(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.HighestBid: %w", err)
		}

		if highest != nil && highest.BidderID == bidderID {
			return domain.NewConflictError(errcodes.SelfOutbid, "you already hold the highest bid")
		}

		if !amount.GreaterThan(item.CurrentPrice) {
			return domain.NewConflictError(errcodes.AmountTooLow,
				fmt.Sprintf("bid must exceed current price %s", item.CurrentPrice.StringFixed(moneyScale)))
		}

		bid = &entity.Bid{
			ItemID:   itemID,
			BidderID: bidderID,
			Amount:   amount,
			IsProxy:  proxy,
			PlacedAt: now.UTC(),
		}

		if err := tx.InsertBid(ctx, bid); err != nil {
			return fmt.Errorf("tx.InsertBid: %w", err)
		}

		if err := tx.UpdateCurrentPrice(ctx, itemID, amount); err != nil {
			return fmt.Errorf("tx.UpdateCurrentPrice: %w", err)
		}

		previousPrice = item.CurrentPrice

		return nil
	})
	if err != nil {
		if code, ok := domain.GetCode(err); ok {
			metrics.BidRejected(string(code))
		}
		return nil, err
	}

	metrics.BidAccepted(proxy)

	logger(ctx).Info("bid accepted",
		slog.Int64(logx.FieldItemID, itemID),
		slog.Int64(logx.FieldBidID, bid.ID),
		slog.Int64(logx.FieldUserID, bidderID),
		slog.String("amount", bid.Amount.String()),
		slog.Bool("proxy", proxy),
	)

	s.publish(ctx, entity.AuctionEvent{
		Type:          value.EventBidPlaced,
		ItemID:        itemID,
		BidID:         bid.ID,
		UserID:        bidderID,
		Amount:        bid.Amount,
		PreviousPrice: previousPrice,
		IsProxy:       proxy,
		OccurredAt:    bid.PlacedAt,
	})

	return bid, nil
}

func checkBiddable(item *entity.Item, bidderID int64, now time.Time) error {
	if !item.IsActive || !now.Before(item.EndTime) {
		return domain.NewConflictError(errcodes.AuctionClosed, "auction is closed")
	}
	if now.Before(item.StartTime) {
		return domain.NewConflictError(errcodes.AuctionNotStarted, "auction has not started yet")
	}
	if item.OwnerID == bidderID {
		return domain.NewConflictError(errcodes.SellerCannotBid, "seller cannot bid on own item")
	}
	return nil
}

// Buyout атомарно закрывает лот по цене выкупа. Исключает одновременные ставки
// и финализацию того же лота через блокировку лота.
func (s *Service) Buyout(ctx context.Context, itemID, buyerID int64) (*entity.Transaction, error) {
	var txn *entity.Transaction

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.LockItem: %w", err)
		}

		now := s.now()

		switch {
		case !item.IsActive || !now.Before(item.EndTime):
			return domain.NewConflictError(errcodes.AuctionClosed, "auction is closed")
		case now.Before(item.StartTime):
			return domain.NewConflictError(errcodes.AuctionNotStarted, "auction has not started yet")
		case !item.HasBuyout():
			return domain.NewConflictError(errcodes.BuyoutUnavailable, "item has no buyout price")
		case !item.CurrentPrice.LessThan(item.BuyoutPrice):
			// Ставки догнали цену выкупа: лот уходит по торгам.
			return domain.NewConflictError(errcodes.BuyoutUnavailable, "bidding has reached the buyout price")
		case item.OwnerID == buyerID:
			return domain.NewConflictError(errcodes.SellerCannotBuy, "seller cannot buy own item")
		}

		closed, err := tx.CloseItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.CloseItem: %w", err)
		}
		if !closed {
			return domain.NewConflictError(errcodes.AuctionClosed, "auction is closed")
		}

		txn = &entity.Transaction{
			ItemID:     itemID,
			BuyerID:    buyerID,
			SellerID:   item.OwnerID,
			Price:      item.BuyoutPrice,
			Kind:       value.SaleKindBuyout,
			OccurredAt: now.UTC(),
		}

		return settle(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	metrics.BuyoutCommitted()

	// Отмена best-effort: сработавший таймер увидит закрытый лот и ничего не сделает.
	if err := s.scheduler.Cancel(ctx, itemID); err != nil {
		logger(ctx).Warn("scheduler.Cancel",
			slog.Int64(logx.FieldItemID, itemID),
			logx.Error(err),
		)
	}

	logger(ctx).Info("item bought out",
		slog.Int64(logx.FieldItemID, itemID),
		slog.Int64(logx.FieldTransactionID, txn.ID),
		slog.Int64(logx.FieldUserID, buyerID),
	)

	s.publish(ctx, entity.AuctionEvent{
		Type:        value.EventAuctionClosed,
		ItemID:      itemID,
		UserID:      buyerID,
		Amount:      txn.Price,
		Outcome:     value.OutcomeSold,
		Transaction: txn,
		OccurredAt:  txn.OccurredAt,
	})

	return txn, nil
}

// settle фиксирует продажу: сделка, зачисление продавцу, снятие автоставок.
func settle(ctx context.Context, tx Tx, txn *entity.Transaction) error {
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return fmt.Errorf("tx.InsertTransaction: %w", err)
	}

	if err := tx.Credit(ctx, txn.SellerID, txn.Price); err != nil {
		return fmt.Errorf("tx.Credit: %w", err)
	}

	if err := tx.DeleteAutobids(ctx, txn.ItemID); err != nil {
		return fmt.Errorf("tx.DeleteAutobids: %w", err)
	}

	return nil
}
