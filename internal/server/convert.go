package server

import (
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/pkg/lox"
	"campus_auction/pkg/rest"
)

func newRESTItem(item entity.Item) rest.Item {
	r := rest.Item{
		ID:            item.ID,
		OwnerID:       item.OwnerID,
		Title:         item.Title,
		Description:   item.Description,
		Category:      item.Category,
		Condition:     item.Condition,
		ImageURL:      item.ImageURL,
		StartingPrice: item.StartingPrice,
		CurrentPrice:  item.CurrentPrice,
		StartTime:     item.StartTime,
		EndTime:       item.EndTime,
		IsActive:      item.IsActive,
	}

	if item.HasBuyout() {
		buyout := item.BuyoutPrice
		r.BuyoutPrice = &buyout
	}

	return r
}

func newRESTBid(bid entity.Bid) rest.Bid {
	return rest.Bid{
		ID:       bid.ID,
		ItemID:   bid.ItemID,
		BidderID: bid.BidderID,
		Amount:   bid.Amount,
		IsProxy:  bid.IsProxy,
		PlacedAt: bid.PlacedAt,
	}
}

func newRESTBids(bids []entity.Bid) []rest.Bid {
	return lox.Map(bids, newRESTBid)
}

func newRESTAutobid(agreement entity.AutobidAgreement) rest.Autobid {
	return rest.Autobid{
		UserID:    agreement.UserID,
		ItemID:    agreement.ItemID,
		MaxBid:    agreement.MaxBid,
		Increment: agreement.Increment,
		UpdatedAt: agreement.UpdatedAt,
	}
}

func newRESTTransaction(txn entity.Transaction) rest.Transaction {
	return rest.Transaction{
		ID:         txn.ID,
		ItemID:     txn.ItemID,
		BuyerID:    txn.BuyerID,
		SellerID:   txn.SellerID,
		Price:      txn.Price,
		Kind:       txn.Kind.String(),
		OccurredAt: txn.OccurredAt,
		Rating:     txn.Rating,
	}
}

func newRESTSellerRating(sr entity.SellerRating) rest.SellerRating {
	return rest.SellerRating{
		UserID:        sr.UserID,
		RatingTotal:   sr.Total,
		RatingCount:   sr.Count,
		AverageRating: sr.Average(),
	}
}

func newRESTRatingResult(result rating.Result) rest.RateTransactionResponse {
	return rest.RateTransactionResponse{
		TransactionID: result.TransactionID,
		Rating:        result.Rating,
		Seller:        newRESTSellerRating(result.Seller),
	}
}

func newRESTBalance(balance entity.Balance) rest.Balance {
	return rest.Balance{
		UserID: balance.UserID,
		Amount: balance.Amount,
	}
}

func newRESTItems(items []entity.Item) []rest.Item {
	return lox.Map(items, newRESTItem)
}

func newRESTFavourite(fav entity.Favourite) rest.Favourite {
	return rest.Favourite{
		UserID:  fav.UserID,
		ItemID:  fav.ItemID,
		AddedAt: fav.AddedAt,
	}
}
