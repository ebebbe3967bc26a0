package favourite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/pkg/contextx"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Store interface {
	// AddFavourite возвращает false, если лот уже в избранном.
	// Для неизвестного лота возвращает ItemNotFound.
	AddFavourite(ctx context.Context, favourite entity.Favourite) (bool, error)
	// RemoveFavourite возвращает false, если лота в избранном не было.
	RemoveFavourite(ctx context.Context, userID, itemID int64) (bool, error)
	// ListFavourites отдаёт лоты в порядке добавления.
	ListFavourites(ctx context.Context, userID int64) ([]entity.Item, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Add(ctx context.Context, userID, itemID int64) (*entity.Favourite, error) {
	favourite := entity.Favourite{
		UserID:  userID,
		ItemID:  itemID,
		AddedAt: s.now().UTC(),
	}

	added, err := s.store.AddFavourite(ctx, favourite)
	if err != nil {
		return nil, fmt.Errorf("store.AddFavourite: %w", err)
	}
	if !added {
		return nil, domain.NewConflictError(errcodes.AlreadyFavourite, "item is already in favourites")
	}

	logger(ctx).Debug("favourite added",
		slog.Int64(logx.FieldUserID, userID),
		slog.Int64(logx.FieldItemID, itemID),
	)

	return &favourite, nil
}

func (s *Service) Remove(ctx context.Context, userID, itemID int64) error {
	removed, err := s.store.RemoveFavourite(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("store.RemoveFavourite: %w", err)
	}
	if !removed {
		return domain.NewNotFoundError(errcodes.FavouriteNotFound, "favourite not found")
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]entity.Item, error) {
	items, err := s.store.ListFavourites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("store.ListFavourites: %w", err)
	}
	return items, nil
}
