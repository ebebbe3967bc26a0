package rating

import (
	"context"
	"fmt"
	"log/slog"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/value"
	"campus_auction/internal/metrics"
	"campus_auction/pkg/contextx"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Tx interface {
	// LockTransaction блокирует сделку до конца транзакции.
	LockTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error)
	// SetRating записывает оценку, только если она ещё не выставлена.
	SetRating(ctx context.Context, transactionID int64, rating int) (bool, error)
	// AddSellerRating увеличивает сумму оценок продавца и их количество одним изменением.
	AddSellerRating(ctx context.Context, sellerID int64, rating int) (*entity.SellerRating, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetSellerRating(ctx context.Context, userID int64) (*entity.SellerRating, error)
}

// Result — итог оценки сделки.
type Result struct {
	TransactionID int64               `json:"transaction_id"`
	Rating        int                 `json:"rating"`
	Seller        entity.SellerRating `json:"seller"`
}

// Service принимает одну оценку на сделку и вместе с ней меняет агрегаты продавца.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// RateTransaction выставляет оценку продавцу. Оценивать может только покупатель.
func (s *Service) RateTransaction(ctx context.Context, transactionID, raterID int64, rating int) (Result, error) {
	r, err := value.ParseRating(rating)
	if err != nil {
		return Result{}, domain.NewValidationError(errcodes.InvalidRating, err.Error())
	}

	var seller *entity.SellerRating

	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		txn, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("tx.LockTransaction: %w", err)
		}

		if txn.BuyerID != raterID {
			return domain.NewForbiddenError(errcodes.NotTransactionBuyer, "only the buyer can rate the transaction")
		}

		if txn.IsRated() {
			return domain.NewConflictError(errcodes.AlreadyRated, "transaction has already been rated")
		}

		ok, err := tx.SetRating(ctx, transactionID, r.Int())
		if err != nil {
			return fmt.Errorf("tx.SetRating: %w", err)
		}
		if !ok {
			return domain.NewConflictError(errcodes.AlreadyRated, "transaction has already been rated")
		}

		seller, err = tx.AddSellerRating(ctx, txn.SellerID, r.Int())
		if err != nil {
			return fmt.Errorf("tx.AddSellerRating: %w", err)
		}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// Агрегаты продавца читаются после фиксации.
	result := Result{TransactionID: transactionID, Rating: r.Int(), Seller: *seller}

	metrics.RatingAccepted()

	logger(ctx).Info("transaction rated",
		slog.Int64(logx.FieldTransactionID, transactionID),
		slog.Int64(logx.FieldUserID, result.Seller.UserID),
		slog.Int("rating", result.Rating),
	)

	return result, nil
}

func (s *Service) GetSellerRating(ctx context.Context, userID int64) (*entity.SellerRating, error) {
	rating, err := s.store.GetSellerRating(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("store.GetSellerRating: %w", err)
	}
	return rating, nil
}
