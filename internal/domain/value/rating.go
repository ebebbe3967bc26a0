package value

import "fmt"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating — оценка сделки по шкале 1..5.
type Rating int

// ParseRating проверяет, что оценка попадает в допустимый диапазон.
func ParseRating(v int) (Rating, error) {
	if v < MinRating || v > MaxRating {
		return 0, fmt.Errorf("rating %d out of range [%d, %d]", v, MinRating, MaxRating)
	}
	return Rating(v), nil
}

func (r Rating) Int() int {
	return int(r)
}
