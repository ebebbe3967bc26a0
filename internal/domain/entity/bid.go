package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid — принятая ставка. Неизменяема, никогда не удаляется.
type Bid struct {
	ID       int64           `json:"id" db:"id"`
	ItemID   int64           `json:"item_id" db:"item_id"`
	BidderID int64           `json:"bidder_id" db:"bidder_id"`
	Amount   decimal.Decimal `json:"amount" db:"amount"`
	IsProxy  bool            `json:"is_proxy" db:"is_proxy"`
	PlacedAt time.Time       `json:"placed_at" db:"placed_at"`
}
