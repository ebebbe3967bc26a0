package server

import (
	"context"
	"fmt"
	"net/http"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/httpx/reply"
	"campus_auction/pkg/httpx/req"
	"campus_auction/pkg/rest"
)

type ratingService interface {
	RateTransaction(ctx context.Context, transactionID, raterID int64, rating int) (rating.Result, error)
	GetSellerRating(ctx context.Context, userID int64) (*entity.SellerRating, error)
}

type RatingServer struct {
	ratingService ratingService
}

func NewRatingServer(ratingService ratingService) RatingServer {
	return RatingServer{
		ratingService: ratingService,
	}
}

func (s RatingServer) postV1TransactionRating(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	transactionID, err := pathID(r, errcodes.ValidationError)
	if err != nil {
		return err
	}

	raterID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var request rest.RateTransactionRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.ratingService.RateTransaction(ctx, transactionID, raterID, request.Rating)
	if err != nil {
		return fmt.Errorf("ratingService.RateTransaction: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTRatingResult(result))

	return nil
}

func (s RatingServer) getV1UserRating(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := pathID(r, errcodes.InvalidUserID)
	if err != nil {
		return err
	}

	sr, err := s.ratingService.GetSellerRating(ctx, userID)
	if err != nil {
		return fmt.Errorf("ratingService.GetSellerRating: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSellerRating(*sr))

	return nil
}
