package auction_test

import (
	"context"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain/entity"
	"campus_auction/pkg/errcodes"
)

func amounts(bids []entity.Bid) []string {
	return lo.Map(bids, func(bid entity.Bid, _ int) string {
		return bid.Amount.StringFixed(2)
	})
}

func bidders(bids []entity.Bid) []int64 {
	return lo.Map(bids, func(bid entity.Bid, _ int) int64 {
		return bid.BidderID
	})
}

func TestAutobidCascade(t *testing.T) {
	type agreement struct {
		userID    int64
		maxBid    string
		increment string
	}

	testCases := []struct {
		name         string
		agreements   []agreement
		bid          string
		wantAmounts  []string
		wantBidders  []int64
		currentPrice string
	}{
		{
			name:         "single agreement outbids",
			agreements:   []agreement{{userA, "200", "10"}},
			bid:          "150",
			wantAmounts:  []string{"160.00"},
			wantBidders:  []int64{userA},
			currentPrice: "160",
		},
		{
			name:         "ceiling not reached",
			agreements:   []agreement{{userA, "115", "10"}},
			bid:          "110",
			wantAmounts:  []string{},
			wantBidders:  []int64{},
			currentPrice: "110",
		},
		{
			name:         "ceiling hit exactly",
			agreements:   []agreement{{userA, "120", "10"}},
			bid:          "110",
			wantAmounts:  []string{"120.00"},
			wantBidders:  []int64{userA},
			currentPrice: "120",
		},
		{
			name: "competing agreements",
			agreements: []agreement{
				{userA, "200", "10"},
				{userC, "170", "5"},
			},
			bid:          "150",
			wantAmounts:  []string{"160.00", "165.00", "175.00"},
			wantBidders:  []int64{userA, userC, userA},
			currentPrice: "175",
		},
		{
			name: "pass limit stops bidding war",
			agreements: []agreement{
				{userA, "1000", "1"},
				{userC, "1000", "1"},
			},
			bid:          "110",
			wantAmounts:  []string{"111.00", "112.00", "113.00", "114.00"},
			wantBidders:  []int64{userA, userC, userA, userC},
			currentPrice: "114",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			f := newFixture()
			item := f.createItem(t, "100", "")

			for _, a := range tc.agreements {
				_, proxies, err := f.svc.UpsertAutobid(ctx, a.userID, item.ID, d(a.maxBid), d(a.increment))
				rq.NoError(err)
				rq.Empty(proxies)
			}

			result, err := f.svc.PlaceBid(ctx, item.ID, userB, d(tc.bid))
			rq.NoError(err)
			rq.Equal(tc.wantAmounts, amounts(result.ProxyBids))
			rq.Equal(tc.wantBidders, bidders(result.ProxyBids))

			for _, bid := range result.ProxyBids {
				rq.True(bid.IsProxy)
			}

			stored, err := f.svc.GetItem(ctx, item.ID)
			rq.NoError(err)
			rq.True(stored.CurrentPrice.Equal(d(tc.currentPrice)))
			rq.True(result.Highest().Amount.Equal(d(tc.currentPrice)))
		})
	}
}

func TestUpsertAutobidRespondsToHighestBid(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()
	item := f.createItem(t, "100", "")

	_, err := f.svc.PlaceBid(ctx, item.ID, userB, d("110"))
	rq.NoError(err)

	agreement, proxies, err := f.svc.UpsertAutobid(ctx, userA, item.ID, d("200"), d("10"))
	rq.NoError(err)
	rq.Equal(userA, agreement.UserID)
	rq.Equal(t0, agreement.UpdatedAt)
	rq.Equal([]string{"120.00"}, amounts(proxies))

	highest, err := f.svc.GetHighestBid(ctx, item.ID)
	rq.NoError(err)
	rq.Equal(userA, highest.BidderID)
	rq.True(highest.IsProxy)
}

func TestUpsertAutobidLeaderDoesNotRaise(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()
	item := f.createItem(t, "100", "")

	_, err := f.svc.PlaceBid(ctx, item.ID, userA, d("110"))
	rq.NoError(err)

	_, proxies, err := f.svc.UpsertAutobid(ctx, userA, item.ID, d("200"), d("10"))
	rq.NoError(err)
	rq.Empty(proxies)

	stored, err := f.svc.GetItem(ctx, item.ID)
	rq.NoError(err)
	rq.True(stored.CurrentPrice.Equal(d("110")))
}

func TestUpsertAutobidReplacesAgreement(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture()
	item := f.createItem(t, "100", "")

	_, _, err := f.svc.UpsertAutobid(ctx, userA, item.ID, d("200"), d("10"))
	rq.NoError(err)

	f.clock.Set(t0.Add(time.Minute))

	_, _, err = f.svc.UpsertAutobid(ctx, userA, item.ID, d("300"), d("20"))
	rq.NoError(err)

	agreements, err := f.svc.ListAutobids(ctx, item.ID)
	rq.NoError(err)
	rq.Len(agreements, 1)
	rq.True(agreements[0].MaxBid.Equal(d("300")))
	rq.True(agreements[0].Increment.Equal(d("20")))
	rq.Equal(t0.Add(time.Minute), agreements[0].UpdatedAt)

	result, err := f.svc.PlaceBid(ctx, item.ID, userB, d("150"))
	rq.NoError(err)
	rq.Equal([]string{"170.00"}, amounts(result.ProxyBids))
}

func TestUpsertAutobidRejections(t *testing.T) {
	testCases := []struct {
		name      string
		userID    int64
		maxBid    string
		increment string
		at        time.Time
		itemID    int64
		code      failure.ErrorCode
	}{
		{
			name:      "zero max bid",
			userID:    userA,
			maxBid:    "0",
			increment: "10",
			at:        t0,
			code:      errcodes.InvalidAmount,
		},
		{
			name:      "negative increment",
			userID:    userA,
			maxBid:    "200",
			increment: "-1",
			at:        t0,
			code:      errcodes.InvalidIncrement,
		},
		{
			name:      "sub-cent increment",
			userID:    userA,
			maxBid:    "200",
			increment: "0.005",
			at:        t0,
			code:      errcodes.InvalidIncrement,
		},
		{
			name:      "seller",
			userID:    sellerID,
			maxBid:    "200",
			increment: "10",
			at:        t0,
			code:      errcodes.SellerCannotBid,
		},
		{
			name:      "auction ended",
			userID:    userA,
			maxBid:    "200",
			increment: "10",
			at:        t0.Add(2 * time.Hour),
			code:      errcodes.AuctionClosed,
		},
		{
			name:      "unknown item",
			userID:    userA,
			maxBid:    "200",
			increment: "10",
			at:        t0,
			itemID:    999,
			code:      errcodes.ItemNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			item := f.createItem(t, "100", "")

			itemID := item.ID
			if tc.itemID != 0 {
				itemID = tc.itemID
			}

			f.clock.Set(tc.at)

			_, _, err := f.svc.UpsertAutobid(ctx, tc.userID, itemID, d(tc.maxBid), d(tc.increment))
			requireCode(t, err, tc.code)

			agreements, err := f.store.ListAutobids(ctx, item.ID)
			require.NoError(t, err)
			require.Empty(t, agreements)
		})
	}
}
