package persistence_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/domain/service/favourite"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/internal/domain/value"
	"campus_auction/internal/infrastructure/persistence"
	"campus_auction/pkg/dbtest"
	"campus_auction/pkg/errcodes"
)

const (
	sellerID int64 = 1
	userA    int64 = 2
	userB    int64 = 3
)

// newTestDB поднимает схему в базе из PG_TEST_DSN; без неё тесты пропускаются.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN is not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`DROP TABLE IF EXISTS favourites, transactions, autobids, bids, items, balances, users CASCADE`)
	require.NoError(t, err)
	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/0001_init.sql"))

	return db
}

func TestAuctionRepositoryLifecycle(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	svc := auction.NewService(persistence.NewAuctionRepository(db)).
		WithClock(func() time.Time { return now })

	item, err := svc.CreateItem(ctx, auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Monitor",
		StartingPrice: decimal.NewFromInt(100),
		EndTime:       now.Add(time.Hour),
	})
	rq.NoError(err)
	rq.NotZero(item.ID)

	_, _, err = svc.UpsertAutobid(ctx, userA, item.ID, decimal.NewFromInt(200), decimal.NewFromInt(10))
	rq.NoError(err)

	result, err := svc.PlaceBid(ctx, item.ID, userB, decimal.NewFromInt(150))
	rq.NoError(err)
	rq.Len(result.ProxyBids, 1)
	rq.True(result.ProxyBids[0].Amount.Equal(decimal.NewFromInt(160)))

	_, err = svc.PlaceBid(ctx, item.ID, userB, decimal.NewFromInt(155))
	rq.True(domain.HasCode(err, errcodes.AmountTooLow))

	bids, err := svc.ListBids(ctx, item.ID)
	rq.NoError(err)
	rq.Len(bids, 2)
	rq.Equal(userA, bids[0].BidderID)

	open, err := svc.ListOpenItems(ctx, 0, 10)
	rq.NoError(err)
	rq.Len(open, 1)

	now = now.Add(time.Hour)

	finalized, err := svc.FinalizeDue(ctx, 10)
	rq.NoError(err)
	rq.Equal(1, finalized)

	again, err := svc.Finalize(ctx, item.ID)
	rq.NoError(err)
	rq.Equal(value.OutcomeAlreadyClosed, again.Outcome)

	txn, err := svc.GetTransactionByItem(ctx, item.ID)
	rq.NoError(err)
	rq.Equal(userA, txn.BuyerID)
	rq.Equal(value.SaleKindAuction, txn.Kind)

	balance, err := svc.GetBalance(ctx, sellerID)
	rq.NoError(err)
	rq.True(balance.Amount.Equal(decimal.NewFromInt(160)))

	agreements, err := svc.ListAutobids(ctx, item.ID)
	rq.NoError(err)
	rq.Empty(agreements)

	ratings := rating.NewService(persistence.NewRatingRepository(db))

	rated, err := ratings.RateTransaction(ctx, txn.ID, txn.BuyerID, 5)
	rq.NoError(err)
	rq.Equal(1, rated.Seller.Count)

	_, err = ratings.RateTransaction(ctx, txn.ID, txn.BuyerID, 4)
	rq.True(domain.HasCode(err, errcodes.AlreadyRated))

	// Строки users заведены первыми обращениями продавца и покупателей.
	var users int
	rq.NoError(db.GetContext(ctx, &users, `SELECT count(*) FROM users`))
	rq.Equal(3, users)

	bidder, err := ratings.GetSellerRating(ctx, userB)
	rq.NoError(err)
	rq.Zero(bidder.Count)
}

func TestFavouriteRepository(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	clock := func() time.Time { return now }
	auctions := auction.NewService(persistence.NewAuctionRepository(db)).WithClock(clock)
	favourites := favourite.NewService(persistence.NewFavouriteRepository(db)).WithClock(clock)

	lamp, err := auctions.CreateItem(ctx, auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Lamp",
		StartingPrice: decimal.NewFromInt(10),
		EndTime:       now.Add(time.Hour),
	})
	rq.NoError(err)

	desk, err := auctions.CreateItem(ctx, auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Desk",
		StartingPrice: decimal.NewFromInt(10),
		EndTime:       now.Add(time.Hour),
	})
	rq.NoError(err)

	// userA ещё не обращался к сервису: строка users заводится при добавлении.
	_, err = favourites.Add(ctx, userA, desk.ID)
	rq.NoError(err)

	now = now.Add(time.Second)

	_, err = favourites.Add(ctx, userA, lamp.ID)
	rq.NoError(err)

	_, err = favourites.Add(ctx, userA, lamp.ID)
	rq.True(domain.HasCode(err, errcodes.AlreadyFavourite))

	_, err = favourites.Add(ctx, userA, 999)
	rq.True(domain.HasCode(err, errcodes.ItemNotFound))

	items, err := favourites.List(ctx, userA)
	rq.NoError(err)
	rq.Len(items, 2)
	rq.Equal(desk.ID, items[0].ID)
	rq.Equal(lamp.ID, items[1].ID)

	rq.NoError(favourites.Remove(ctx, userA, desk.ID))

	err = favourites.Remove(ctx, userA, desk.ID)
	rq.True(domain.HasCode(err, errcodes.FavouriteNotFound))

	items, err = favourites.List(ctx, userA)
	rq.NoError(err)
	rq.Len(items, 1)
	rq.Equal("Lamp", items[0].Title)
}

func TestAuctionRepositoryConcurrentFinalize(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)

	start := time.Now().UTC().Truncate(time.Microsecond)
	clock := start
	svc := auction.NewService(persistence.NewAuctionRepository(db)).
		WithClock(func() time.Time { return clock })

	item, err := svc.CreateItem(ctx, auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Kettle",
		StartingPrice: decimal.NewFromInt(10),
		EndTime:       start.Add(time.Minute),
	})
	rq.NoError(err)

	_, err = svc.PlaceBid(ctx, item.ID, userA, decimal.NewFromInt(20))
	rq.NoError(err)

	clock = start.Add(time.Minute)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)

	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := svc.Finalize(ctx, item.ID)
			if err != nil {
				t.Errorf("Finalize: %v", err)
				return
			}

			if result.Outcome == value.OutcomeSold {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	rq.Equal(1, sold)

	balance, err := svc.GetBalance(ctx, sellerID)
	rq.NoError(err)
	rq.True(balance.Amount.Equal(decimal.NewFromInt(20)))
}
