package persistence

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/value"
)

const itemColumns = `id, owner_id, title, description, category, condition, image_url,
	starting_price, current_price, buyout_price, start_time, end_time, is_active, created_at`

const bidColumns = `id, item_id, bidder_id, amount, is_proxy, placed_at`

const transactionColumns = `id, item_id, buyer_id, seller_id, price, kind, occurred_at, rating`

// itemSchema описывает строку таблицы items. Отсутствие выкупа хранится как NULL.
type itemSchema struct {
	ID            int64               `db:"id"`
	OwnerID       int64               `db:"owner_id"`
	Title         string              `db:"title"`
	Description   string              `db:"description"`
	Category      string              `db:"category"`
	Condition     string              `db:"condition"`
	ImageURL      string              `db:"image_url"`
	StartingPrice decimal.Decimal     `db:"starting_price"`
	CurrentPrice  decimal.Decimal     `db:"current_price"`
	BuyoutPrice   decimal.NullDecimal `db:"buyout_price"`
	StartTime     time.Time           `db:"start_time"`
	EndTime       time.Time           `db:"end_time"`
	IsActive      bool                `db:"is_active"`
	CreatedAt     time.Time           `db:"created_at"`
}

func fromItem(e *entity.Item) *itemSchema {
	s := &itemSchema{
		ID:            e.ID,
		OwnerID:       e.OwnerID,
		Title:         e.Title,
		Description:   e.Description,
		Category:      e.Category,
		Condition:     e.Condition,
		ImageURL:      e.ImageURL,
		StartingPrice: e.StartingPrice,
		CurrentPrice:  e.CurrentPrice,
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
		IsActive:      e.IsActive,
		CreatedAt:     e.CreatedAt,
	}
	if e.HasBuyout() {
		s.BuyoutPrice = decimal.NewNullDecimal(e.BuyoutPrice)
	}
	return s
}

func (s *itemSchema) toDomain() *entity.Item {
	return &entity.Item{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		Title:         s.Title,
		Description:   s.Description,
		Category:      s.Category,
		Condition:     s.Condition,
		ImageURL:      s.ImageURL,
		StartingPrice: s.StartingPrice,
		CurrentPrice:  s.CurrentPrice,
		BuyoutPrice:   s.BuyoutPrice.Decimal,
		StartTime:     s.StartTime.UTC(),
		EndTime:       s.EndTime.UTC(),
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.UTC(),
	}
}

type bidSchema struct {
	ID       int64           `db:"id"`
	ItemID   int64           `db:"item_id"`
	BidderID int64           `db:"bidder_id"`
	Amount   decimal.Decimal `db:"amount"`
	IsProxy  bool            `db:"is_proxy"`
	PlacedAt time.Time       `db:"placed_at"`
}

func (s *bidSchema) toDomain() entity.Bid {
	return entity.Bid{
		ID:       s.ID,
		ItemID:   s.ItemID,
		BidderID: s.BidderID,
		Amount:   s.Amount,
		IsProxy:  s.IsProxy,
		PlacedAt: s.PlacedAt.UTC(),
	}
}

type transactionSchema struct {
	ID         int64           `db:"id"`
	ItemID     int64           `db:"item_id"`
	BuyerID    int64           `db:"buyer_id"`
	SellerID   int64           `db:"seller_id"`
	Price      decimal.Decimal `db:"price"`
	Kind       string          `db:"kind"`
	OccurredAt time.Time       `db:"occurred_at"`
	Rating     sql.NullInt16   `db:"rating"`
}

func (s *transactionSchema) toDomain() *entity.Transaction {
	t := &entity.Transaction{
		ID:         s.ID,
		ItemID:     s.ItemID,
		BuyerID:    s.BuyerID,
		SellerID:   s.SellerID,
		Price:      s.Price,
		Kind:       value.SaleKind(s.Kind),
		OccurredAt: s.OccurredAt.UTC(),
	}
	if s.Rating.Valid {
		r := int(s.Rating.Int16)
		t.Rating = &r
	}
	return t
}
