package server

import (
	"context"
	"fmt"
	"net/http"

	"campus_auction/internal/domain/entity"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/httpx/reply"
	"campus_auction/pkg/httpx/req"
	"campus_auction/pkg/rest"
)

type favouriteService interface {
	Add(ctx context.Context, userID, itemID int64) (*entity.Favourite, error)
	Remove(ctx context.Context, userID, itemID int64) error
	List(ctx context.Context, userID int64) ([]entity.Item, error)
}

// FavouriteServer обслуживает избранное. Пользователь видит и меняет только своё избранное.
type FavouriteServer struct {
	favouriteService favouriteService
}

func NewFavouriteServer(favouriteService favouriteService) FavouriteServer {
	return FavouriteServer{
		favouriteService: favouriteService,
	}
}

func (s FavouriteServer) getV1UserFavourites(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := sameUser(r)
	if err != nil {
		return err
	}

	items, err := s.favouriteService.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("favouriteService.List: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItems(items))

	return nil
}

func (s FavouriteServer) postV1UserFavourite(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := sameUser(r)
	if err != nil {
		return err
	}

	var request rest.AddFavouriteRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	fav, err := s.favouriteService.Add(ctx, userID, request.ItemID)
	if err != nil {
		return fmt.Errorf("favouriteService.Add: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTFavourite(*fav))

	return nil
}

func (s FavouriteServer) deleteV1UserFavourite(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := sameUser(r)
	if err != nil {
		return err
	}

	itemID, err := pathParamID(r, "itemId", errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	if err := s.favouriteService.Remove(ctx, userID, itemID); err != nil {
		return fmt.Errorf("favouriteService.Remove: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
