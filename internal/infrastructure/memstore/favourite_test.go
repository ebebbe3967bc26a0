package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/infrastructure/memstore"
	"campus_auction/pkg/errcodes"
)

func TestFavourites(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()
	favs := s.Favourites()

	first := addItem(t, s, t0.Add(time.Hour))
	second := addItem(t, s, t0.Add(2*time.Hour))

	const userID = 7

	// Порядок добавления сохраняется, а не порядок ID.
	added, err := favs.AddFavourite(ctx, entity.Favourite{UserID: userID, ItemID: second.ID, AddedAt: t0})
	rq.NoError(err)
	rq.True(added)

	added, err = favs.AddFavourite(ctx, entity.Favourite{UserID: userID, ItemID: first.ID, AddedAt: t0.Add(time.Minute)})
	rq.NoError(err)
	rq.True(added)

	added, err = favs.AddFavourite(ctx, entity.Favourite{UserID: userID, ItemID: first.ID, AddedAt: t0.Add(2 * time.Minute)})
	rq.NoError(err)
	rq.False(added)

	_, err = favs.AddFavourite(ctx, entity.Favourite{UserID: userID, ItemID: 999, AddedAt: t0})
	rq.True(domain.HasCode(err, errcodes.ItemNotFound))

	items, err := favs.ListFavourites(ctx, userID)
	rq.NoError(err)
	rq.Len(items, 2)
	rq.Equal(second.ID, items[0].ID)
	rq.Equal(first.ID, items[1].ID)

	// Чужое избранное не видно.
	items, err = favs.ListFavourites(ctx, userID+1)
	rq.NoError(err)
	rq.Empty(items)

	removed, err := favs.RemoveFavourite(ctx, userID, second.ID)
	rq.NoError(err)
	rq.True(removed)

	removed, err = favs.RemoveFavourite(ctx, userID, second.ID)
	rq.NoError(err)
	rq.False(removed)

	items, err = favs.ListFavourites(ctx, userID)
	rq.NoError(err)
	rq.Len(items, 1)
	rq.Equal(first.ID, items[0].ID)
}

func TestFavouriteRegistersUser(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := memstore.New()
	item := addItem(t, s, t0.Add(time.Hour))

	added, err := s.Favourites().AddFavourite(ctx, entity.Favourite{UserID: 42, ItemID: item.ID, AddedAt: t0})
	rq.NoError(err)
	rq.True(added)

	sr, err := s.Ratings().GetSellerRating(ctx, 42)
	rq.NoError(err)
	rq.Equal(int64(42), sr.UserID)
	rq.Zero(sr.Count)
}
