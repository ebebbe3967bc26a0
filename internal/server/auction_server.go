package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/pkg/errcodes"
	"campus_auction/pkg/httpx/reply"
	"campus_auction/pkg/httpx/req"
	"campus_auction/pkg/lox"
	"campus_auction/pkg/rest"
)

type auctionService interface {
	CreateItem(ctx context.Context, params auction.NewItem) (*entity.Item, error)
	GetItem(ctx context.Context, itemID int64) (*entity.Item, error)
	ListOpenItems(ctx context.Context, afterID int64, limit int) ([]entity.Item, error)
	PlaceBid(ctx context.Context, itemID, bidderID int64, amount decimal.Decimal) (auction.BidResult, error)
	Buyout(ctx context.Context, itemID, buyerID int64) (*entity.Transaction, error)
	UpsertAutobid(ctx context.Context, userID, itemID int64, maxBid, increment decimal.Decimal) (*entity.AutobidAgreement, []entity.Bid, error)
	GetHighestBid(ctx context.Context, itemID int64) (*entity.Bid, error)
	ListBids(ctx context.Context, itemID int64) ([]entity.Bid, error)
	ListAutobids(ctx context.Context, itemID int64) ([]entity.AutobidAgreement, error)
	GetTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error)
	GetTransactionByItem(ctx context.Context, itemID int64) (*entity.Transaction, error)
	GetBalance(ctx context.Context, userID int64) (*entity.Balance, error)
}

type AuctionServer struct {
	auctionService auctionService
}

func NewAuctionServer(auctionService auctionService) AuctionServer {
	return AuctionServer{
		auctionService: auctionService,
	}
}

func (s AuctionServer) postV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	ownerID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var request rest.CreateItemRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	params := auction.NewItem{
		OwnerID:       ownerID,
		Title:         request.Title,
		Description:   request.Description,
		Category:      request.Category,
		Condition:     request.Condition,
		ImageURL:      request.ImageURL,
		StartingPrice: request.StartingPrice,
		BuyoutPrice:   request.BuyoutPrice,
		EndTime:       request.EndTime,
	}
	if request.StartTime != nil {
		params.StartTime = *request.StartTime
	}

	item, err := s.auctionService.CreateItem(ctx, params)
	if err != nil {
		return fmt.Errorf("auctionService.CreateItem: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTItem(*item))

	return nil
}

// maxItemsPage ограничивает размер страницы GET /v1/items.
const maxItemsPage = 100

func (s AuctionServer) getV1Items(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	afterID, err := queryInt(r, "afterId", 0)
	if err != nil {
		return err
	}

	limit, err := queryInt(r, "limit", maxItemsPage)
	if err != nil {
		return err
	}

	items, err := s.auctionService.ListOpenItems(ctx, afterID, int(min(limit, maxItemsPage)))
	if err != nil {
		return fmt.Errorf("auctionService.ListOpenItems: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItems(items))

	return nil
}

func (s AuctionServer) getV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	item, err := s.auctionService.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("auctionService.GetItem: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItem(*item))

	return nil
}

func (s AuctionServer) getV1ItemBids(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	bids, err := s.auctionService.ListBids(ctx, itemID)
	if err != nil {
		return fmt.Errorf("auctionService.ListBids: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTBids(bids))

	return nil
}

// getV1ItemHighestBid отвечает 204, если ставок ещё нет.
func (s AuctionServer) getV1ItemHighestBid(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	bid, err := s.auctionService.GetHighestBid(ctx, itemID)
	if err != nil {
		return fmt.Errorf("auctionService.GetHighestBid: %w", err)
	}

	if bid == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTBid(*bid))

	return nil
}

func (s AuctionServer) postV1ItemBid(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	bidderID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var request rest.PlaceBidRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.auctionService.PlaceBid(ctx, itemID, bidderID, request.Amount)
	if err != nil {
		return fmt.Errorf("auctionService.PlaceBid: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, rest.PlaceBidResponse{
		Bid:          newRESTBid(result.Bid),
		ProxyBids:    newRESTBids(result.ProxyBids),
		CurrentPrice: result.Highest().Amount,
	})

	return nil
}

func (s AuctionServer) postV1ItemBuyout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	buyerID, err := currentUserID(r)
	if err != nil {
		return err
	}

	txn, err := s.auctionService.Buyout(ctx, itemID, buyerID)
	if err != nil {
		return fmt.Errorf("auctionService.Buyout: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTTransaction(*txn))

	return nil
}

func (s AuctionServer) putV1ItemAutobid(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var request rest.UpsertAutobidRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	agreement, proxyBids, err := s.auctionService.UpsertAutobid(ctx, userID, itemID, request.MaxBid, request.Increment)
	if err != nil {
		return fmt.Errorf("auctionService.UpsertAutobid: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.UpsertAutobidResponse{
		Autobid:   newRESTAutobid(*agreement),
		ProxyBids: newRESTBids(proxyBids),
	})

	return nil
}

func (s AuctionServer) getV1ItemAutobids(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	agreements, err := s.auctionService.ListAutobids(ctx, itemID)
	if err != nil {
		return fmt.Errorf("auctionService.ListAutobids: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(agreements, newRESTAutobid))

	return nil
}

func (s AuctionServer) getV1ItemTransaction(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID, err := pathID(r, errcodes.InvalidItemID)
	if err != nil {
		return err
	}

	txn, err := s.auctionService.GetTransactionByItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("auctionService.GetTransactionByItem: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTTransaction(*txn))

	return nil
}

func (s AuctionServer) getV1Transaction(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	transactionID, err := pathID(r, errcodes.ValidationError)
	if err != nil {
		return err
	}

	txn, err := s.auctionService.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("auctionService.GetTransaction: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTTransaction(*txn))

	return nil
}

func (s AuctionServer) getV1UserBalance(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := pathID(r, errcodes.InvalidUserID)
	if err != nil {
		return err
	}

	balance, err := s.auctionService.GetBalance(ctx, userID)
	if err != nil {
		return fmt.Errorf("auctionService.GetBalance: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTBalance(*balance))

	return nil
}
