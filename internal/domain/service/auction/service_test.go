package auction_test

import (
	"context"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain/service/auction"
	"campus_auction/pkg/errcodes"
)

func TestCreateItem(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()

	item, err := f.svc.CreateItem(ctx, auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Desk lamp",
		StartingPrice: d("15.50"),
		BuyoutPrice:   d("40"),
		EndTime:       t0.Add(2 * time.Hour),
	})
	rq.NoError(err)

	rq.Positive(item.ID)
	rq.True(item.IsActive)
	rq.True(item.CurrentPrice.Equal(d("15.50")))
	rq.Equal(t0, item.StartTime)
	rq.Equal(t0.Add(2*time.Hour), f.sched.scheduled[item.ID])

	stored, err := f.svc.GetItem(ctx, item.ID)
	rq.NoError(err)
	rq.Equal(item.Title, stored.Title)
	rq.True(stored.HasBuyout())
}

func TestCreateItemValidation(t *testing.T) {
	valid := func() auction.NewItem {
		return auction.NewItem{
			OwnerID:       sellerID,
			Title:         "Bike",
			StartingPrice: d("100"),
			EndTime:       t0.Add(time.Hour),
		}
	}

	testCases := []struct {
		name   string
		modify func(p *auction.NewItem)
		code   failure.ErrorCode
	}{
		{
			name:   "no owner",
			modify: func(p *auction.NewItem) { p.OwnerID = 0 },
			code:   errcodes.InvalidUserID,
		},
		{
			name:   "zero starting price",
			modify: func(p *auction.NewItem) { p.StartingPrice = d("0") },
			code:   errcodes.InvalidPrice,
		},
		{
			name:   "sub-cent starting price",
			modify: func(p *auction.NewItem) { p.StartingPrice = d("10.001") },
			code:   errcodes.InvalidPrice,
		},
		{
			name:   "negative buyout",
			modify: func(p *auction.NewItem) { p.BuyoutPrice = d("-1") },
			code:   errcodes.InvalidPrice,
		},
		{
			name:   "buyout below starting price",
			modify: func(p *auction.NewItem) { p.BuyoutPrice = d("100") },
			code:   errcodes.InvalidPrice,
		},
		{
			name:   "no end time",
			modify: func(p *auction.NewItem) { p.EndTime = time.Time{} },
			code:   errcodes.InvalidSchedule,
		},
		{
			name:   "end before start",
			modify: func(p *auction.NewItem) { p.StartTime = t0.Add(2 * time.Hour) },
			code:   errcodes.InvalidSchedule,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			params := valid()
			tc.modify(&params)

			_, err := f.svc.CreateItem(context.Background(), params)
			requireCode(t, err, tc.code)
			require.Zero(t, f.sched.calls)
		})
	}
}

func TestReadsOfUnknownEntities(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.GetItem(ctx, 42)
	requireCode(t, err, errcodes.ItemNotFound)

	_, err = f.svc.ListBids(ctx, 42)
	requireCode(t, err, errcodes.ItemNotFound)

	_, err = f.svc.GetHighestBid(ctx, 42)
	requireCode(t, err, errcodes.ItemNotFound)

	_, err = f.svc.GetTransaction(ctx, 42)
	requireCode(t, err, errcodes.TransactionNotFound)

	_, err = f.svc.GetBalance(ctx, userA)
	requireCode(t, err, errcodes.BalanceNotFound)

	item := f.createItem(t, "100", "")

	bid, err := f.svc.GetHighestBid(ctx, item.ID)
	rq.NoError(err)
	rq.Nil(bid)

	_, err = f.svc.GetTransactionByItem(ctx, item.ID)
	requireCode(t, err, errcodes.TransactionNotFound)
}

func TestListOpenItems(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()

	first := f.createItem(t, "10", "50")
	second := f.createItem(t, "10", "")
	third := f.createItem(t, "10", "")

	_, err := f.svc.Buyout(ctx, first.ID, userA)
	rq.NoError(err)

	items, err := f.svc.ListOpenItems(ctx, 0, 10)
	rq.NoError(err)
	rq.Len(items, 2)
	rq.Equal(second.ID, items[0].ID)
	rq.Equal(third.ID, items[1].ID)

	items, err = f.svc.ListOpenItems(ctx, second.ID, 10)
	rq.NoError(err)
	rq.Len(items, 1)
	rq.Equal(third.ID, items[0].ID)
}
