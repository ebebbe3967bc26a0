package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/value"
	"campus_auction/internal/metrics"
	"campus_auction/pkg/logx"
)

const defaultBatch = 100

// FinalizeResult — итог одной попытки финализации.
type FinalizeResult struct {
	ItemID      int64
	Outcome     value.Outcome
	Transaction *entity.Transaction
	EndTime     time.Time
}

// Finalize закрывает лот, если его время вышло. Повторный вызов для закрытого лота
// безопасен и возвращает OutcomeAlreadyClosed. Любая ошибка откатывает всё,
// включая снятие флага активности, поэтому попытку можно повторить.
func (s *Service) Finalize(ctx context.Context, itemID int64) (FinalizeResult, error) {
	started := time.Now()
	result := FinalizeResult{ItemID: itemID}

	var highest *entity.Bid

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.LockItem: %w", err)
		}

		now := s.now()
		result.EndTime = item.EndTime

		if !item.IsActive {
			result.Outcome = value.OutcomeAlreadyClosed
			return nil
		}
		if now.Before(item.EndTime) {
			result.Outcome = value.OutcomeNotDue
			return nil
		}

		highest, err = tx.HighestBid(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.HighestBid: %w", err)
		}

		closed, err := tx.CloseItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("tx.CloseItem: %w", err)
		}
		if !closed {
			result.Outcome = value.OutcomeAlreadyClosed
			return nil
		}

		if highest == nil {
			result.Outcome = value.OutcomeNoSale
			if err := tx.DeleteAutobids(ctx, itemID); err != nil {
				return fmt.Errorf("tx.DeleteAutobids: %w", err)
			}
			return nil
		}

		txn := &entity.Transaction{
			ItemID:     itemID,
			BuyerID:    highest.BidderID,
			SellerID:   item.OwnerID,
			Price:      item.CurrentPrice,
			Kind:       value.SaleKindAuction,
			OccurredAt: now.UTC(),
		}

		if err := settle(ctx, tx, txn); err != nil {
			return err
		}

		result.Outcome = value.OutcomeSold
		result.Transaction = txn

		return nil
	})
	if err != nil {
		metrics.FinalizationFailed()
		return FinalizeResult{ItemID: itemID}, err
	}

	metrics.Finalized(result.Outcome.String(), started)

	if result.Outcome != value.OutcomeSold && result.Outcome != value.OutcomeNoSale {
		return result, nil
	}

	attrs := []any{
		slog.Int64(logx.FieldItemID, itemID),
		logx.Stringer("outcome", result.Outcome),
	}
	event := entity.AuctionEvent{
		Type:    value.EventAuctionClosed,
		ItemID:  itemID,
		Outcome: result.Outcome,
	}

	if result.Transaction != nil {
		attrs = append(attrs, slog.Int64(logx.FieldTransactionID, result.Transaction.ID))
		event.UserID = result.Transaction.BuyerID
		event.Amount = result.Transaction.Price
		event.Transaction = result.Transaction
		event.OccurredAt = result.Transaction.OccurredAt
	}

	logger(ctx).Info("auction finalized", attrs...)

	s.publish(ctx, event)

	return result, nil
}

// FinalizeDue финализирует до limit лотов, чьё время вышло по сохранённому состоянию.
// Безопасна при параллельном запуске: лишние попытки завершатся OutcomeAlreadyClosed.
func (s *Service) FinalizeDue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultBatch
	}

	ids, err := s.store.ListDueItemIDs(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("store.ListDueItemIDs: %w", err)
	}

	var (
		finalized int
		errs      []error
	)

	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		result, err := s.Finalize(ctx, id)
		if err != nil {
			logger(ctx).Error("finalize due item",
				slog.Int64(logx.FieldItemID, id),
				logx.Error(err),
			)
			errs = append(errs, fmt.Errorf("item %d: %w", id, err))
			continue
		}

		if result.Outcome == value.OutcomeSold || result.Outcome == value.OutcomeNoSale {
			finalized++
		}
	}

	return finalized, errors.Join(errs...)
}

// RegisterOpenAuctions заново регистрирует дедлайны всех активных лотов.
// Вызывается при старте и при каждой сверке; планировщик обязан быть идемпотентным.
func (s *Service) RegisterOpenAuctions(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = defaultBatch
	}

	var (
		afterID    int64
		registered int
	)

	for {
		items, err := s.store.ListOpenItems(ctx, afterID, batch)
		if err != nil {
			return registered, fmt.Errorf("store.ListOpenItems: %w", err)
		}

		for _, item := range items {
			if err := s.scheduler.Schedule(ctx, item.ID, item.EndTime); err != nil {
				return registered, fmt.Errorf("scheduler.Schedule: %w", err)
			}
			registered++
		}

		if len(items) < batch {
			return registered, nil
		}

		afterID = items[len(items)-1].ID
	}
}
