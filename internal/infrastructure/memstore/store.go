// Package memstore реализует хранилище в памяти процесса с теми же гарантиями
// атомарности и блокировок, что и PostgreSQL-реализация. Используется в тестах
// и при AUCTION_STORAGE=memory.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/pkg/errcodes"
)

var _ auction.Store = (*Store)(nil)

// CreditFault позволяет тестам сымитировать сбой зачисления.
type CreditFault func(userID int64, amount decimal.Decimal) error

type Store struct {
	mu        sync.RWMutex
	itemLocks *keyLocks
	txnLocks  *keyLocks

	items            map[int64]entity.Item
	bids             map[int64][]entity.Bid
	autobids         map[int64]map[int64]entity.AutobidAgreement
	transactions     map[int64]entity.Transaction
	itemTransactions map[int64]int64
	balances         map[int64]decimal.Decimal
	ratings          map[int64]entity.SellerRating
	favourites       map[int64][]entity.Favourite

	itemSeq atomic.Int64
	bidSeq  atomic.Int64
	txnSeq  atomic.Int64

	creditFault CreditFault
}

func New() *Store {
	return &Store{
		itemLocks:        newKeyLocks(),
		txnLocks:         newKeyLocks(),
		items:            make(map[int64]entity.Item),
		bids:             make(map[int64][]entity.Bid),
		autobids:         make(map[int64]map[int64]entity.AutobidAgreement),
		transactions:     make(map[int64]entity.Transaction),
		itemTransactions: make(map[int64]int64),
		balances:         make(map[int64]decimal.Decimal),
		ratings:          make(map[int64]entity.SellerRating),
		favourites:       make(map[int64][]entity.Favourite),
	}
}

// WithCreditFault подменяет зачисление: ненулевая ошибка откатывает транзакцию.
func (s *Store) WithCreditFault(fault CreditFault) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditFault = fault
	return s
}

// AddUser регистрирует пользователя с пустым рейтингом.
func (s *Store) AddUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureUser(userID)
}

// ensureUser вызывается под s.mu.
func (s *Store) ensureUser(userID int64) {
	if _, ok := s.ratings[userID]; !ok {
		s.ratings[userID] = entity.SellerRating{UserID: userID}
	}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx auction.Tx) error) error {
	t := &auctionTx{
		s:     s,
		items: make(map[int64]entity.Item),
	}
	defer t.release()

	if err := fn(ctx, t); err != nil {
		return err
	}

	t.commit()

	return nil
}

func (s *Store) CreateItem(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.itemSeq.Add(1)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.items[item.ID] = *item
	s.ensureUser(item.OwnerID)

	return nil
}

func (s *Store) GetItem(_ context.Context, itemID int64) (*entity.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
	}

	return &item, nil
}

func (s *Store) ListOpenItems(_ context.Context, afterID int64, limit int) ([]entity.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := lo.Filter(lo.Values(s.items), func(item entity.Item, _ int) bool {
		return item.IsActive && item.ID > afterID
	})

	slices.SortFunc(items, func(a, b entity.Item) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return items[:min(limit, len(items))], nil
}

func (s *Store) ListDueItemIDs(_ context.Context, now time.Time, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := lo.Filter(lo.Values(s.items), func(item entity.Item, _ int) bool {
		return item.IsDueAt(now)
	})

	slices.SortFunc(due, func(a, b entity.Item) int {
		if c := a.EndTime.Compare(b.EndTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	due = due[:min(limit, len(due))]

	return lo.Map(due, func(item entity.Item, _ int) int64 { return item.ID }), nil
}

func (s *Store) GetHighestBid(_ context.Context, itemID int64) (*entity.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return highest(s.bids[itemID]), nil
}

func (s *Store) ListBids(_ context.Context, itemID int64) ([]entity.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := slices.Clone(s.bids[itemID])
	slices.SortFunc(bids, func(a, b entity.Bid) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return bids, nil
}

func (s *Store) ListAutobids(_ context.Context, itemID int64) ([]entity.AutobidAgreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agreements := lo.Values(s.autobids[itemID])
	slices.SortFunc(agreements, func(a, b entity.AutobidAgreement) int {
		return cmp.Compare(a.UserID, b.UserID)
	})

	return agreements, nil
}

func (s *Store) GetTransaction(_ context.Context, transactionID int64) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.TransactionNotFound, "transaction not found")
	}

	return cloneTransaction(txn), nil
}

func (s *Store) GetTransactionByItem(_ context.Context, itemID int64) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.itemTransactions[itemID]
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.TransactionNotFound, "transaction not found")
	}

	return cloneTransaction(s.transactions[id]), nil
}

func (s *Store) GetBalance(_ context.Context, userID int64) (*entity.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, ok := s.balances[userID]
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.BalanceNotFound, "balance not found")
	}

	return &entity.Balance{UserID: userID, Amount: amount}, nil
}

// highest возвращает ставку с наибольшей суммой, при равенстве — более позднюю.
func highest(bids []entity.Bid) *entity.Bid {
	if len(bids) == 0 {
		return nil
	}

	best := bids[0]
	for _, bid := range bids[1:] {
		if bid.Amount.GreaterThanOrEqual(best.Amount) {
			best = bid
		}
	}

	return &best
}

func cloneTransaction(txn entity.Transaction) *entity.Transaction {
	if txn.Rating != nil {
		r := *txn.Rating
		txn.Rating = &r
	}
	return &txn
}
