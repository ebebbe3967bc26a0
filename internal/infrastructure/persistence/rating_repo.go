package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/pkg/errcodes"
)

var _ rating.Store = (*RatingRepository)(nil)

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx rating.Tx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &ratingTx{tx: tx})
	})
}

func (r *RatingRepository) GetSellerRating(ctx context.Context, userID int64) (*entity.SellerRating, error) {
	query := `SELECT id, rating_total, rating_count FROM users WHERE id = $1`

	var sr entity.SellerRating
	if err := r.db.GetContext(ctx, &sr, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.UserNotFound, "user not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get seller rating")
	}

	return &sr, nil
}

type ratingTx struct {
	tx *sqlx.Tx
}

func (t *ratingTx) LockTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return getTransaction(ctx, t.tx, query, transactionID)
}

func (t *ratingTx) SetRating(ctx context.Context, transactionID int64, rating int) (bool, error) {
	query := `UPDATE transactions SET rating = $1 WHERE id = $2 AND rating IS NULL`

	res, err := t.tx.ExecContext(ctx, query, rating, transactionID)
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to set rating")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to get affected rows")
	}

	return n == 1, nil
}

func (t *ratingTx) AddSellerRating(ctx context.Context, sellerID int64, rating int) (*entity.SellerRating, error) {
	query := `
		UPDATE users
		SET rating_total = rating_total + $1, rating_count = rating_count + 1
		WHERE id = $2
		RETURNING id, rating_total, rating_count`

	var sr entity.SellerRating
	if err := t.tx.GetContext(ctx, &sr, query, rating, sellerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.UserNotFound, "seller not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to update seller rating")
	}

	return &sr, nil
}
