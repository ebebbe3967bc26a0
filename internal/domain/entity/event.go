package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain/value"
)

// AuctionEvent публикуется после фиксации изменения состояния лота.
type AuctionEvent struct {
	ID            string          `json:"id"`
	Type          value.EventType `json:"type"`
	ItemID        int64           `json:"item_id"`
	BidID         int64           `json:"bid_id,omitempty"`
	UserID        int64           `json:"user_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	IsProxy       bool            `json:"is_proxy,omitempty"`
	Outcome       value.Outcome   `json:"outcome,omitempty"`
	Transaction   *Transaction    `json:"transaction,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
