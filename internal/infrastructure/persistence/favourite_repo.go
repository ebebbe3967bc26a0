package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/favourite"
	"campus_auction/pkg/errcodes"
)

var _ favourite.Store = (*FavouriteRepository)(nil)

type FavouriteRepository struct {
	db *sqlx.DB
}

func NewFavouriteRepository(db *sqlx.DB) *FavouriteRepository {
	return &FavouriteRepository{db: db}
}

func (r *FavouriteRepository) AddFavourite(ctx context.Context, fav entity.Favourite) (bool, error) {
	var added bool

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureUsers(ctx, tx, fav.UserID); err != nil {
			return err
		}

		query := `
			INSERT INTO favourites (user_id, item_id, added_at)
			VALUES (:user_id, :item_id, :added_at)
			ON CONFLICT (user_id, item_id) DO NOTHING`

		res, err := tx.NamedExecContext(ctx, query, fav)
		if err != nil {
			if pgCode(err) == pgForeignKeyViolation {
				return domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to add favourite")
		}

		n, err := res.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to get affected rows")
		}
		added = n == 1

		return nil
	})
	if err != nil {
		return false, err
	}

	return added, nil
}

func (r *FavouriteRepository) RemoveFavourite(ctx context.Context, userID, itemID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favourites WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to remove favourite")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to get affected rows")
	}

	return n == 1, nil
}

func (r *FavouriteRepository) ListFavourites(ctx context.Context, userID int64) ([]entity.Item, error) {
	// Колонки items и favourites не пересекаются, поэтому itemColumns без префикса.
	query := `
		SELECT ` + itemColumns + `
		FROM favourites
		JOIN items ON items.id = favourites.item_id
		WHERE favourites.user_id = $1
		ORDER BY favourites.added_at, favourites.item_id`

	var schemas []itemSchema
	if err := r.db.SelectContext(ctx, &schemas, query, userID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list favourites")
	}

	items := make([]entity.Item, 0, len(schemas))
	for i := range schemas {
		items = append(items, *schemas[i].toDomain())
	}

	return items, nil
}
