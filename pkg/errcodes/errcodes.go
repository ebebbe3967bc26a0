package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidUserID       failure.ErrorCode = "InvalidUserID"
	InvalidItemID       failure.ErrorCode = "InvalidItemID"

	// Аукцион
	ItemNotFound      failure.ErrorCode = "ItemNotFound"
	AuctionClosed     failure.ErrorCode = "AuctionClosed"
	AuctionNotStarted failure.ErrorCode = "AuctionNotStarted"
	AmountTooLow      failure.ErrorCode = "AmountTooLow"
	SelfOutbid        failure.ErrorCode = "SelfOutbid"
	SellerCannotBid   failure.ErrorCode = "SellerCannotBid"
	SellerCannotBuy   failure.ErrorCode = "SellerCannotBuy"
	BuyoutUnavailable failure.ErrorCode = "BuyoutUnavailable"
	InvalidAmount     failure.ErrorCode = "InvalidAmount"
	InvalidIncrement  failure.ErrorCode = "InvalidIncrement"
	InvalidSchedule   failure.ErrorCode = "InvalidSchedule"
	InvalidPrice      failure.ErrorCode = "InvalidPrice"

	// Сделки и рейтинг
	TransactionNotFound failure.ErrorCode = "TransactionNotFound"
	AlreadyRated        failure.ErrorCode = "AlreadyRated"
	NotTransactionBuyer failure.ErrorCode = "NotTransactionBuyer"
	InvalidRating       failure.ErrorCode = "InvalidRating"
	UserNotFound        failure.ErrorCode = "UserNotFound"
	BalanceNotFound     failure.ErrorCode = "BalanceNotFound"

	// Избранное
	AlreadyFavourite  failure.ErrorCode = "AlreadyFavourite"
	FavouriteNotFound failure.ErrorCode = "FavouriteNotFound"
)
