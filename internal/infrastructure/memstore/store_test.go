package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/infrastructure/memstore"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func addItem(t *testing.T, s *memstore.Store, end time.Time) *entity.Item {
	t.Helper()

	item := &entity.Item{
		OwnerID:       1,
		Title:         "Lamp",
		StartingPrice: decimal.NewFromInt(10),
		CurrentPrice:  decimal.NewFromInt(10),
		StartTime:     t0,
		EndTime:       end,
		IsActive:      true,
	}
	require.NoError(t, s.CreateItem(context.Background(), item))

	return item
}

func TestInTxRollsBackOnError(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()
	item := addItem(t, s, t0.Add(time.Hour))

	errBoom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx auction.Tx) error {
		_, err := tx.LockItem(ctx, item.ID)
		rq.NoError(err)

		rq.NoError(tx.InsertBid(ctx, &entity.Bid{ItemID: item.ID, BidderID: 2, Amount: decimal.NewFromInt(20)}))
		rq.NoError(tx.UpdateCurrentPrice(ctx, item.ID, decimal.NewFromInt(20)))

		// Внутри транзакции изменения уже видны.
		highest, err := tx.HighestBid(ctx, item.ID)
		rq.NoError(err)
		rq.True(highest.Amount.Equal(decimal.NewFromInt(20)))

		closed, err := tx.CloseItem(ctx, item.ID)
		rq.NoError(err)
		rq.True(closed)

		return errBoom
	})
	rq.ErrorIs(err, errBoom)

	stored, err := s.GetItem(ctx, item.ID)
	rq.NoError(err)
	rq.True(stored.IsActive)
	rq.True(stored.CurrentPrice.Equal(decimal.NewFromInt(10)))

	highest, err := s.GetHighestBid(ctx, item.ID)
	rq.NoError(err)
	rq.Nil(highest)
}

func TestCloseItemIsConditional(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()
	item := addItem(t, s, t0.Add(time.Hour))

	for _, want := range []bool{true, false} {
		err := s.InTx(ctx, func(ctx context.Context, tx auction.Tx) error {
			_, err := tx.LockItem(ctx, item.ID)
			rq.NoError(err)

			closed, err := tx.CloseItem(ctx, item.ID)
			rq.NoError(err)
			rq.Equal(want, closed)

			return nil
		})
		rq.NoError(err)
	}
}

func TestLockItemSerializesTransactions(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()
	item := addItem(t, s, t0.Add(time.Hour))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		order []string
	)

	locked := make(chan struct{})
	release := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.InTx(ctx, func(ctx context.Context, tx auction.Tx) error {
			_, _ = tx.LockItem(ctx, item.ID)
			close(locked)
			<-release

			mu.Lock()
			order = append(order, "first")
			mu.Unlock()

			return nil
		})
	}()

	<-locked

	go func() {
		defer wg.Done()
		_ = s.InTx(ctx, func(ctx context.Context, tx auction.Tx) error {
			_, _ = tx.LockItem(ctx, item.ID)

			mu.Lock()
			order = append(order, "second")
			mu.Unlock()

			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	rq.Equal([]string{"first", "second"}, order)
}

func TestListDueItemIDs(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()

	late := addItem(t, s, t0.Add(2*time.Hour))
	early := addItem(t, s, t0.Add(time.Hour))
	sameEnd := addItem(t, s, t0.Add(time.Hour))
	addItem(t, s, t0.Add(3*time.Hour))

	ids, err := s.ListDueItemIDs(ctx, t0.Add(2*time.Hour), 10)
	rq.NoError(err)
	rq.Equal([]int64{early.ID, sameEnd.ID, late.ID}, ids)

	ids, err = s.ListDueItemIDs(ctx, t0.Add(2*time.Hour), 2)
	rq.NoError(err)
	rq.Equal([]int64{early.ID, sameEnd.ID}, ids)

	ids, err = s.ListDueItemIDs(ctx, t0, 10)
	rq.NoError(err)
	rq.Empty(ids)
}

func TestListOpenItemsPages(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()

	var ids []int64
	for range 5 {
		ids = append(ids, addItem(t, s, t0.Add(time.Hour)).ID)
	}

	page, err := s.ListOpenItems(ctx, 0, 2)
	rq.NoError(err)
	rq.Len(page, 2)
	rq.Equal(ids[0], page[0].ID)

	page, err = s.ListOpenItems(ctx, page[1].ID, 10)
	rq.NoError(err)
	rq.Len(page, 3)
	rq.Equal(ids[4], page[2].ID)
}
