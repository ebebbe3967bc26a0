package auction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/pkg/contextx"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const moneyScale = 2

// Service ведёт жизненный цикл аукциона от первой ставки до закрытия лота.
type Service struct {
	store     Store
	scheduler Scheduler
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

func NewService(store Store) *Service {
	return &Service{
		store:     store,
		scheduler: nopScheduler{},
		publisher: nopPublisher{},
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

func (s *Service) WithScheduler(scheduler Scheduler) *Service {
	s.scheduler = scheduler
	return s
}

func (s *Service) WithPublisher(publisher Publisher) *Service {
	s.publisher = publisher
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NewItem — параметры нового лота.
type NewItem struct {
	OwnerID       int64
	Title         string
	Description   string
	Category      string
	Condition     string
	ImageURL      string
	StartingPrice decimal.Decimal
	BuyoutPrice   decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
}

// CreateItem выставляет лот и регистрирует дедлайн его финализации.
func (s *Service) CreateItem(ctx context.Context, params NewItem) (*entity.Item, error) {
	if err := validateNewItem(params); err != nil {
		return nil, err
	}

	startTime := params.StartTime
	if startTime.IsZero() {
		startTime = s.now()
	}

	if !params.EndTime.After(startTime) {
		return nil, domain.NewValidationError(errcodes.InvalidSchedule, "end time must be after start time")
	}

	item := &entity.Item{
		OwnerID:       params.OwnerID,
		Title:         params.Title,
		Description:   params.Description,
		Category:      params.Category,
		Condition:     params.Condition,
		ImageURL:      params.ImageURL,
		StartingPrice: params.StartingPrice,
		CurrentPrice:  params.StartingPrice,
		BuyoutPrice:   params.BuyoutPrice,
		StartTime:     startTime.UTC(),
		EndTime:       params.EndTime.UTC(),
		IsActive:      true,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("store.CreateItem: %w", err)
	}

	// Сбой регистрации не теряет лот: его подберёт сверка.
	if err := s.scheduler.Schedule(ctx, item.ID, item.EndTime); err != nil {
		logger(ctx).Error("scheduler.Schedule",
			slog.Int64(logx.FieldItemID, item.ID),
			logx.Error(err),
		)
	}

	logger(ctx).Info("item listed",
		slog.Int64(logx.FieldItemID, item.ID),
		slog.Time("end_time", item.EndTime),
	)

	return item, nil
}

func validateNewItem(params NewItem) error {
	if params.OwnerID <= 0 {
		return domain.NewValidationError(errcodes.InvalidUserID, "owner id must be positive")
	}
	if !params.StartingPrice.IsPositive() || !isMoney(params.StartingPrice) {
		return domain.NewValidationError(errcodes.InvalidPrice, "starting price must be a positive amount with at most 2 decimals")
	}
	if params.BuyoutPrice.IsNegative() || !isMoney(params.BuyoutPrice) {
		return domain.NewValidationError(errcodes.InvalidPrice, "buyout price must be zero or a positive amount")
	}
	if params.BuyoutPrice.IsPositive() && !params.BuyoutPrice.GreaterThan(params.StartingPrice) {
		return domain.NewValidationError(errcodes.InvalidPrice, "buyout price must exceed starting price")
	}
	if params.EndTime.IsZero() {
		return domain.NewValidationError(errcodes.InvalidSchedule, "end time is required")
	}
	return nil
}

func isMoney(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(moneyScale))
}

func (s *Service) GetItem(ctx context.Context, itemID int64) (*entity.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("store.GetItem: %w", err)
	}
	return item, nil
}

// ListOpenItems отдаёт страницу активных лотов с ID больше afterID.
func (s *Service) ListOpenItems(ctx context.Context, afterID int64, limit int) ([]entity.Item, error) {
	if limit <= 0 {
		limit = defaultBatch
	}

	items, err := s.store.ListOpenItems(ctx, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("store.ListOpenItems: %w", err)
	}
	return items, nil
}

// GetHighestBid возвращает лучшую ставку по лоту или nil, если ставок ещё нет.
func (s *Service) GetHighestBid(ctx context.Context, itemID int64) (*entity.Bid, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("store.GetItem: %w", err)
	}

	bid, err := s.store.GetHighestBid(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("store.GetHighestBid: %w", err)
	}
	return bid, nil
}

// ListBids возвращает историю ставок от большей к меньшей.
func (s *Service) ListBids(ctx context.Context, itemID int64) ([]entity.Bid, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("store.GetItem: %w", err)
	}

	bids, err := s.store.ListBids(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("store.ListBids: %w", err)
	}
	return bids, nil
}

func (s *Service) ListAutobids(ctx context.Context, itemID int64) ([]entity.AutobidAgreement, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("store.GetItem: %w", err)
	}

	agreements, err := s.store.ListAutobids(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("store.ListAutobids: %w", err)
	}
	return agreements, nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("store.GetTransaction: %w", err)
	}
	return txn, nil
}

func (s *Service) GetTransactionByItem(ctx context.Context, itemID int64) (*entity.Transaction, error) {
	txn, err := s.store.GetTransactionByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("store.GetTransactionByItem: %w", err)
	}
	return txn, nil
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (*entity.Balance, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("store.GetBalance: %w", err)
	}
	return balance, nil
}

// publish доставляет событие; ошибка доставки не влияет на уже зафиксированное изменение.
func (s *Service) publish(ctx context.Context, event entity.AuctionEvent) {
	event.ID = s.newID()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger(ctx).Warn("publisher.Publish",
			slog.String("event", event.Type.String()),
			slog.Int64(logx.FieldItemID, event.ItemID),
			logx.Error(err),
		)
	}
}
