package memstore

import (
	"context"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/pkg/errcodes"
)

var _ rating.Store = (*RatingStore)(nil)

// RatingStore — представление Store для шлюза оценок.
type RatingStore struct {
	s *Store
}

func (s *Store) Ratings() *RatingStore {
	return &RatingStore{s: s}
}

func (r *RatingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx rating.Tx) error) error {
	t := &ratingTx{s: r.s, txns: make(map[int64]entity.Transaction)}
	defer t.release()

	if err := fn(ctx, t); err != nil {
		return err
	}

	t.commit()

	return nil
}

func (r *RatingStore) GetSellerRating(_ context.Context, userID int64) (*entity.SellerRating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sr, ok := r.s.ratings[userID]
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.UserNotFound, "user not found")
	}

	return &sr, nil
}

type ratingTx struct {
	s    *Store
	held []int64
	txns map[int64]entity.Transaction
	ops  []func()
}

func (t *ratingTx) LockTransaction(_ context.Context, transactionID int64) (*entity.Transaction, error) {
	if _, ok := t.txns[transactionID]; !ok {
		t.s.txnLocks.lock(transactionID)
		t.held = append(t.held, transactionID)

		t.s.mu.RLock()
		txn, ok := t.s.transactions[transactionID]
		t.s.mu.RUnlock()

		if !ok {
			return nil, domain.NewNotFoundError(errcodes.TransactionNotFound, "transaction not found")
		}

		t.txns[transactionID] = *cloneTransaction(txn)
	}

	txn := t.txns[transactionID]
	return cloneTransaction(txn), nil
}

func (t *ratingTx) SetRating(_ context.Context, transactionID int64, rating int) (bool, error) {
	txn, ok := t.txns[transactionID]
	if !ok {
		return false, domain.NewNotFoundError(errcodes.TransactionNotFound, "transaction not found")
	}
	if txn.IsRated() {
		return false, nil
	}

	txn.Rating = &rating
	t.txns[transactionID] = txn

	return true, nil
}

// AddSellerRating применяет прирост при фиксации; возвращаемая структура
// заполняется итоговыми значениями в момент фиксации.
func (t *ratingTx) AddSellerRating(_ context.Context, sellerID int64, rating int) (*entity.SellerRating, error) {
	t.s.mu.RLock()
	_, ok := t.s.ratings[sellerID]
	t.s.mu.RUnlock()

	if !ok {
		return nil, domain.NewNotFoundError(errcodes.UserNotFound, "seller not found")
	}

	result := &entity.SellerRating{UserID: sellerID}
	t.ops = append(t.ops, func() {
		sr := t.s.ratings[sellerID]
		sr.Total += rating
		sr.Count++
		t.s.ratings[sellerID] = sr
		*result = sr
	})

	return result, nil
}

func (t *ratingTx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, txn := range t.txns {
		t.s.transactions[id] = txn
	}
	for _, op := range t.ops {
		op()
	}
}

func (t *ratingTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.txnLocks.unlock(t.held[i])
	}
	t.held = nil
}
