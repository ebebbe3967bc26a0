package entity

import "github.com/shopspring/decimal"

// SellerRating — накопленные оценки продавца. Среднее всегда вычисляется.
type SellerRating struct {
	UserID int64 `json:"user_id" db:"id"`
	Total  int   `json:"total" db:"rating_total"`
	Count  int   `json:"count" db:"rating_count"`
}

// Average возвращает среднюю оценку, 0 при отсутствии оценок.
func (r SellerRating) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Total) / float64(r.Count)
}

// Balance — остаток виртуальной валюты пользователя.
type Balance struct {
	UserID int64           `json:"user_id" db:"user_id"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
}
