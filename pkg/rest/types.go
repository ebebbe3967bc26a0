// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest Выставление лота. Нулевая BuyoutPrice отключает выкуп
type CreateItemRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=5000"`
	Category      string          `json:"category" validate:"max=100"`
	Condition     string          `json:"condition" validate:"max=100"`
	ImageURL      string          `json:"imageUrl" validate:"omitempty,url"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	BuyoutPrice   decimal.Decimal `json:"buyoutPrice"`
	StartTime     *time.Time      `json:"startTime,omitempty"`
	EndTime       time.Time       `json:"endTime" validate:"required"`
}

type Item struct {
	ID            int64            `json:"id"`
	OwnerID       int64            `json:"ownerId"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Condition     string           `json:"condition"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	StartingPrice decimal.Decimal  `json:"startingPrice"`
	CurrentPrice  decimal.Decimal  `json:"currentPrice"`
	BuyoutPrice   *decimal.Decimal `json:"buyoutPrice,omitempty"`
	StartTime     time.Time        `json:"startTime"`
	EndTime       time.Time        `json:"endTime"`
	IsActive      bool             `json:"isActive"`
}

// PlaceBidRequest Ставка
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type Bid struct {
	ID       int64           `json:"id"`
	ItemID   int64           `json:"itemId"`
	BidderID int64           `json:"bidderId"`
	Amount   decimal.Decimal `json:"amount"`
	IsProxy  bool            `json:"isProxy"`
	PlacedAt time.Time       `json:"placedAt"`
}

// PlaceBidResponse Принятая ставка и автоставки, которые она вызвала
type PlaceBidResponse struct {
	Bid          Bid             `json:"bid"`
	ProxyBids    []Bid           `json:"proxyBids"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// UpsertAutobidRequest Поручение на автоставки
type UpsertAutobidRequest struct {
	MaxBid    decimal.Decimal `json:"maxBid"`
	Increment decimal.Decimal `json:"increment"`
}

type Autobid struct {
	UserID    int64           `json:"userId"`
	ItemID    int64           `json:"itemId"`
	MaxBid    decimal.Decimal `json:"maxBid"`
	Increment decimal.Decimal `json:"increment"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type UpsertAutobidResponse struct {
	Autobid   Autobid `json:"autobid"`
	ProxyBids []Bid   `json:"proxyBids"`
}

type Transaction struct {
	ID         int64           `json:"id"`
	ItemID     int64           `json:"itemId"`
	BuyerID    int64           `json:"buyerId"`
	SellerID   int64           `json:"sellerId"`
	Price      decimal.Decimal `json:"price"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurredAt"`
	Rating     *int            `json:"rating,omitempty"`
}

// RateTransactionRequest Оценка сделки, 1..5
type RateTransactionRequest struct {
	Rating int `json:"rating"`
}

type SellerRating struct {
	UserID        int64   `json:"userId"`
	RatingTotal   int     `json:"ratingTotal"`
	RatingCount   int     `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

type RateTransactionResponse struct {
	TransactionID int64        `json:"transactionId"`
	Rating        int          `json:"rating"`
	Seller        SellerRating `json:"seller"`
}

type Balance struct {
	UserID int64           `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

// AddFavouriteRequest Добавление лота в избранное
type AddFavouriteRequest struct {
	ItemID int64 `json:"itemId" validate:"required,gt=0"`
}

type Favourite struct {
	UserID  int64     `json:"userId"`
	ItemID  int64     `json:"itemId"`
	AddedAt time.Time `json:"addedAt"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`

	SupportID string `json:"supportId"`
}

// ErrorCode Код ошибки
type ErrorCode string
