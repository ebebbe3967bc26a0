package auction_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/domain/value"
	"campus_auction/pkg/errcodes"
)

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("not due", func(t *testing.T) {
		rq := require.New(t)
		f := newFixture()
		item := f.createItem(t, "100", "")

		result, err := f.svc.Finalize(ctx, item.ID)
		rq.NoError(err)
		rq.Equal(value.OutcomeNotDue, result.Outcome)
		rq.Equal(item.EndTime, result.EndTime)

		stored, err := f.svc.GetItem(ctx, item.ID)
		rq.NoError(err)
		rq.True(stored.IsActive)
	})

	t.Run("no sale", func(t *testing.T) {
		rq := require.New(t)
		f := newFixture()
		item := f.createItem(t, "100", "")

		_, _, err := f.svc.UpsertAutobid(ctx, userA, item.ID, d("200"), d("10"))
		rq.NoError(err)

		f.clock.Set(t0.Add(time.Hour))

		result, err := f.svc.Finalize(ctx, item.ID)
		rq.NoError(err)
		rq.Equal(value.OutcomeNoSale, result.Outcome)
		rq.Nil(result.Transaction)

		stored, err := f.svc.GetItem(ctx, item.ID)
		rq.NoError(err)
		rq.False(stored.IsActive)

		_, err = f.svc.GetTransactionByItem(ctx, item.ID)
		requireCode(t, err, errcodes.TransactionNotFound)

		agreements, err := f.svc.ListAutobids(ctx, item.ID)
		rq.NoError(err)
		rq.Empty(agreements)

		events := f.events.Events()
		rq.Len(events, 1)
		rq.Equal(value.EventAuctionClosed, events[0].Type)
		rq.Equal(value.OutcomeNoSale, events[0].Outcome)
	})

	t.Run("sold to highest bidder", func(t *testing.T) {
		rq := require.New(t)
		f := newFixture()
		item := f.createItem(t, "100", "")

		_, err := f.svc.PlaceBid(ctx, item.ID, userA, d("110"))
		rq.NoError(err)
		_, err = f.svc.PlaceBid(ctx, item.ID, userB, d("120.50"))
		rq.NoError(err)

		f.clock.Set(t0.Add(time.Hour))

		result, err := f.svc.Finalize(ctx, item.ID)
		rq.NoError(err)
		rq.Equal(value.OutcomeSold, result.Outcome)
		rq.NotNil(result.Transaction)
		rq.Equal(userB, result.Transaction.BuyerID)
		rq.Equal(sellerID, result.Transaction.SellerID)
		rq.Equal(value.SaleKindAuction, result.Transaction.Kind)
		rq.True(result.Transaction.Price.Equal(d("120.50")))
		rq.Nil(result.Transaction.Rating)

		balance, err := f.svc.GetBalance(ctx, sellerID)
		rq.NoError(err)
		rq.True(balance.Amount.Equal(d("120.50")))

		again, err := f.svc.Finalize(ctx, item.ID)
		rq.NoError(err)
		rq.Equal(value.OutcomeAlreadyClosed, again.Outcome)

		balance, err = f.svc.GetBalance(ctx, sellerID)
		rq.NoError(err)
		rq.True(balance.Amount.Equal(d("120.50")))

		closed := 0
		for _, event := range f.events.Events() {
			if event.Type == value.EventAuctionClosed {
				closed++
			}
		}
		rq.Equal(1, closed)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Finalize(ctx, 999)
		requireCode(t, err, errcodes.ItemNotFound)
	})
}

func TestFinalizeRetriesAfterCreditFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()
	item := f.createItem(t, "100", "")

	_, err := f.svc.PlaceBid(ctx, item.ID, userA, d("110"))
	rq.NoError(err)

	f.clock.Set(t0.Add(time.Hour))
	f.store.WithCreditFault(func(int64, decimal.Decimal) error {
		return errors.New("ledger unavailable")
	})

	_, err = f.svc.Finalize(ctx, item.ID)
	rq.Error(err)
	rq.True(domain.IsRetryable(err))

	stored, err := f.svc.GetItem(ctx, item.ID)
	rq.NoError(err)
	rq.True(stored.IsActive)

	f.store.WithCreditFault(nil)

	result, err := f.svc.Finalize(ctx, item.ID)
	rq.NoError(err)
	rq.Equal(value.OutcomeSold, result.Outcome)
}

func TestFinalizeDueConcurrentSweeps(t *testing.T) {
	const (
		items   = 20
		sweeps  = 8
		perCall = 5
	)

	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()

	ids := make([]int64, 0, items)
	for range items {
		item := f.createItem(t, "100", "")
		_, err := f.svc.PlaceBid(ctx, item.ID, userA, d("110"))
		rq.NoError(err)
		ids = append(ids, item.ID)
	}

	f.clock.Set(t0.Add(time.Hour))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)

	for range sweeps {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				n, err := f.svc.FinalizeDue(ctx, perCall)
				if err != nil {
					t.Errorf("FinalizeDue: %v", err)
					return
				}

				mu.Lock()
				total += n
				mu.Unlock()

				if n == 0 {
					return
				}
			}
		}()
	}

	wg.Wait()

	rq.Equal(items, total)

	n, err := f.svc.FinalizeDue(ctx, perCall)
	rq.NoError(err)
	rq.Zero(n)

	for _, id := range ids {
		txn, err := f.svc.GetTransactionByItem(ctx, id)
		rq.NoError(err)
		rq.Equal(userA, txn.BuyerID)
	}

	balance, err := f.svc.GetBalance(ctx, sellerID)
	rq.NoError(err)
	rq.True(balance.Amount.Equal(d("2200")))
}

// Выкуп за миллисекунду до конца и финализация в момент конца гонятся за один лот.
func TestBuyoutFinalizeRace(t *testing.T) {
	for range 20 {
		rq := require.New(t)
		ctx := context.Background()
		f := newFixture()
		item := f.createItem(t, "100", "500")

		_, err := f.svc.PlaceBid(ctx, item.ID, userA, d("110"))
		rq.NoError(err)

		f.clock.Set(item.EndTime)
		early := auction.NewService(f.store).
			WithClock(func() time.Time { return item.EndTime.Add(-time.Millisecond) }).
			WithScheduler(f.sched).
			WithPublisher(f.events)

		var (
			wg          sync.WaitGroup
			buyoutErr   error
			finalizeRes auction.FinalizeResult
			finalizeErr error
		)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, buyoutErr = early.Buyout(ctx, item.ID, userB)
		}()
		go func() {
			defer wg.Done()
			finalizeRes, finalizeErr = f.svc.Finalize(ctx, item.ID)
		}()
		wg.Wait()

		rq.NoError(finalizeErr)

		txn, err := f.svc.GetTransactionByItem(ctx, item.ID)
		rq.NoError(err)

		if buyoutErr == nil {
			rq.Equal(value.OutcomeAlreadyClosed, finalizeRes.Outcome)
			rq.Equal(value.SaleKindBuyout, txn.Kind)
			rq.Equal(userB, txn.BuyerID)
		} else {
			requireCode(t, buyoutErr, errcodes.AuctionClosed)
			rq.Equal(value.OutcomeSold, finalizeRes.Outcome)
			rq.Equal(value.SaleKindAuction, txn.Kind)
			rq.Equal(userA, txn.BuyerID)
		}

		balance, err := f.svc.GetBalance(ctx, sellerID)
		rq.NoError(err)
		rq.True(balance.Amount.Equal(txn.Price))
	}
}

func TestRegisterOpenAuctions(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()

	var ids []int64
	for range 5 {
		ids = append(ids, f.createItem(t, "100", "500").ID)
	}

	_, err := f.svc.Buyout(ctx, ids[2], userA)
	rq.NoError(err)

	rq.Equal(5, f.sched.calls)

	registered, err := f.svc.RegisterOpenAuctions(ctx, 2)
	rq.NoError(err)
	rq.Equal(4, registered)
	rq.Equal(9, f.sched.calls)
	rq.Len(f.sched.scheduled, 4)
	rq.NotContains(f.sched.scheduled, ids[2])

	for _, id := range []int64{ids[0], ids[1], ids[3], ids[4]} {
		rq.Equal(t0.Add(time.Hour), f.sched.scheduled[id])
	}
}
