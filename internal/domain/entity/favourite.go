package entity

import "time"

// Favourite отмечает лот, за которым следит пользователь.
type Favourite struct {
	UserID  int64     `json:"user_id" db:"user_id"`
	ItemID  int64     `json:"item_id" db:"item_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}
