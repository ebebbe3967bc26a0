package memstore

import (
	"context"
	"slices"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/favourite"
	"campus_auction/pkg/errcodes"
)

var _ favourite.Store = (*FavouriteStore)(nil)

// FavouriteStore даёт доступ к избранному пользователей.
type FavouriteStore struct {
	s *Store
}

func (s *Store) Favourites() *FavouriteStore {
	return &FavouriteStore{s: s}
}

func (f *FavouriteStore) AddFavourite(_ context.Context, fav entity.Favourite) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, ok := f.s.items[fav.ItemID]; !ok {
		return false, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
	}

	list := f.s.favourites[fav.UserID]
	if slices.ContainsFunc(list, func(e entity.Favourite) bool { return e.ItemID == fav.ItemID }) {
		return false, nil
	}

	f.s.favourites[fav.UserID] = append(list, fav)
	f.s.ensureUser(fav.UserID)

	return true, nil
}

func (f *FavouriteStore) RemoveFavourite(_ context.Context, userID, itemID int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	list := f.s.favourites[userID]
	i := slices.IndexFunc(list, func(e entity.Favourite) bool { return e.ItemID == itemID })
	if i < 0 {
		return false, nil
	}

	f.s.favourites[userID] = slices.Delete(slices.Clone(list), i, i+1)

	return true, nil
}

func (f *FavouriteStore) ListFavourites(_ context.Context, userID int64) ([]entity.Item, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()

	list := f.s.favourites[userID]
	items := make([]entity.Item, 0, len(list))
	for _, fav := range list {
		items = append(items, f.s.items[fav.ItemID])
	}

	return items, nil
}
