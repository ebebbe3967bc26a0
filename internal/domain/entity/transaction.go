package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain/value"
)

// Transaction — запись о продаже. Создаётся ровно один раз на закрытый лот с победителем.
type Transaction struct {
	ID         int64           `json:"id" db:"id"`
	ItemID     int64           `json:"item_id" db:"item_id"`
	BuyerID    int64           `json:"buyer_id" db:"buyer_id"`
	SellerID   int64           `json:"seller_id" db:"seller_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Kind       value.SaleKind  `json:"kind" db:"kind"`
	OccurredAt time.Time       `json:"occurred_at" db:"occurred_at"`
	Rating     *int            `json:"rating,omitempty" db:"rating"` // write-once
}

// IsRated сообщает, выставлена ли уже оценка.
func (t Transaction) IsRated() bool {
	return t.Rating != nil
}
