package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AutobidAgreement — поручение ставить за пользователя с шагом Increment до MaxBid.
// Одно на пару (UserID, ItemID).
type AutobidAgreement struct {
	UserID    int64           `json:"user_id" db:"user_id"`
	ItemID    int64           `json:"item_id" db:"item_id"`
	MaxBid    decimal.Decimal `json:"max_bid" db:"max_bid"`
	Increment decimal.Decimal `json:"increment" db:"increment"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NextBid возвращает ставку поверх current и признак того, что она укладывается в потолок.
func (a AutobidAgreement) NextBid(current decimal.Decimal) (decimal.Decimal, bool) {
	next := current.Add(a.Increment)
	return next, next.LessThanOrEqual(a.MaxBid)
}
