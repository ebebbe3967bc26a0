package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item — лот аукциона. Цена и флаг активности меняются только движком ставок
// и финализацией.
type Item struct {
	ID            int64           `json:"id" db:"id"`
	OwnerID       int64           `json:"owner_id" db:"owner_id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Category      string          `json:"category" db:"category"`
	Condition     string          `json:"condition" db:"condition"`
	ImageURL      string          `json:"image_url,omitempty" db:"image_url"`
	StartingPrice decimal.Decimal `json:"starting_price" db:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	BuyoutPrice   decimal.Decimal `json:"buyout_price" db:"buyout_price"` // 0 — выкуп отключён
	StartTime     time.Time       `json:"start_time" db:"start_time"`
	EndTime       time.Time       `json:"end_time" db:"end_time"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// HasBuyout сообщает, доступна ли покупка по фиксированной цене.
func (i Item) HasBuyout() bool {
	return i.BuyoutPrice.IsPositive()
}

// AcceptsBidsAt сообщает, открыт ли лот для ставок в момент now.
func (i Item) AcceptsBidsAt(now time.Time) bool {
	return i.IsActive && !now.Before(i.StartTime) && now.Before(i.EndTime)
}

// IsDueAt сообщает, пора ли закрывать лот.
func (i Item) IsDueAt(now time.Time) bool {
	return i.IsActive && !now.Before(i.EndTime)
}
