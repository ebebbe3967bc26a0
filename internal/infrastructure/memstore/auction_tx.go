package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/pkg/errcodes"
)

// auctionTx накапливает изменения и применяет их разом при фиксации.
// Блокировки лотов держатся до release.
type auctionTx struct {
	s     *Store
	held  []int64
	items map[int64]entity.Item
	bids  []entity.Bid
	txns  map[int64]bool
	ops   []func()
}

func (t *auctionTx) LockItem(_ context.Context, itemID int64) (*entity.Item, error) {
	if !t.holds(itemID) {
		t.s.itemLocks.lock(itemID)
		t.held = append(t.held, itemID)
	}

	item, ok := t.item(itemID)
	if !ok {
		return nil, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
	}

	return &item, nil
}

func (t *auctionTx) HighestBid(_ context.Context, itemID int64) (*entity.Bid, error) {
	t.s.mu.RLock()
	bids := append([]entity.Bid(nil), t.s.bids[itemID]...)
	t.s.mu.RUnlock()

	for _, bid := range t.bids {
		if bid.ItemID == itemID {
			bids = append(bids, bid)
		}
	}

	return highest(bids), nil
}

func (t *auctionTx) InsertBid(_ context.Context, bid *entity.Bid) error {
	bid.ID = t.s.bidSeq.Add(1)

	staged := *bid
	t.bids = append(t.bids, staged)
	t.ops = append(t.ops, func() {
		t.s.bids[staged.ItemID] = append(t.s.bids[staged.ItemID], staged)
		t.s.ensureUser(staged.BidderID)
	})

	return nil
}

func (t *auctionTx) UpdateCurrentPrice(_ context.Context, itemID int64, price decimal.Decimal) error {
	item, ok := t.lockedItem(itemID)
	if !ok {
		return domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
	}

	item.CurrentPrice = price
	t.items[itemID] = item

	return nil
}

func (t *auctionTx) CloseItem(_ context.Context, itemID int64) (bool, error) {
	item, ok := t.lockedItem(itemID)
	if !ok {
		return false, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
	}
	if !item.IsActive {
		return false, nil
	}

	item.IsActive = false
	t.items[itemID] = item

	return true, nil
}

func (t *auctionTx) InsertTransaction(_ context.Context, txn *entity.Transaction) error {
	t.s.mu.RLock()
	_, exists := t.s.itemTransactions[txn.ItemID]
	t.s.mu.RUnlock()

	if exists || t.txns[txn.ItemID] {
		return domain.NewConflictError(errcodes.AuctionClosed, "item already has a transaction")
	}

	if t.txns == nil {
		t.txns = make(map[int64]bool)
	}
	t.txns[txn.ItemID] = true

	txn.ID = t.s.txnSeq.Add(1)

	staged := *txn
	t.ops = append(t.ops, func() {
		t.s.transactions[staged.ID] = staged
		t.s.itemTransactions[staged.ItemID] = staged.ID
		t.s.ensureUser(staged.BuyerID)
		t.s.ensureUser(staged.SellerID)
	})

	return nil
}

func (t *auctionTx) Credit(_ context.Context, userID int64, amount decimal.Decimal) error {
	t.s.mu.RLock()
	fault := t.s.creditFault
	t.s.mu.RUnlock()

	if fault != nil {
		if err := fault(userID, amount); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to credit balance")
		}
	}

	t.ops = append(t.ops, func() {
		t.s.balances[userID] = t.s.balances[userID].Add(amount)
	})

	return nil
}

func (t *auctionTx) UpsertAutobid(_ context.Context, agreement *entity.AutobidAgreement) error {
	staged := *agreement
	t.ops = append(t.ops, func() {
		if t.s.autobids[staged.ItemID] == nil {
			t.s.autobids[staged.ItemID] = make(map[int64]entity.AutobidAgreement)
		}
		t.s.autobids[staged.ItemID][staged.UserID] = staged
		t.s.ensureUser(staged.UserID)
	})

	return nil
}

func (t *auctionTx) DeleteAutobids(_ context.Context, itemID int64) error {
	t.ops = append(t.ops, func() {
		delete(t.s.autobids, itemID)
	})

	return nil
}

func (t *auctionTx) holds(itemID int64) bool {
	for _, id := range t.held {
		if id == itemID {
			return true
		}
	}
	return false
}

// item возвращает лот с учётом изменений этой транзакции.
func (t *auctionTx) item(itemID int64) (entity.Item, bool) {
	if item, ok := t.items[itemID]; ok {
		return item, true
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	item, ok := t.s.items[itemID]
	return item, ok
}

// lockedItem работает как item, но отдаёт только заблокированный лот.
func (t *auctionTx) lockedItem(itemID int64) (entity.Item, bool) {
	if !t.holds(itemID) {
		return entity.Item{}, false
	}
	return t.item(itemID)
}

func (t *auctionTx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, item := range t.items {
		t.s.items[id] = item
	}
	for _, op := range t.ops {
		op()
	}
}

func (t *auctionTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.itemLocks.unlock(t.held[i])
	}
	t.held = nil
}
