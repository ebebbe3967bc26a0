package contextx

import (
	"context"
	"fmt"
	"strconv"
)

// UserID — идентификатор пользователя из заголовка X-User-Id, проверенный шлюзом.
type UserID string

type contextKeyUserID struct{}

func (u UserID) String() string {
	return string(u)
}

// Int64 разбирает идентификатор; допускаются только положительные числа.
func (u UserID) Int64() (int64, error) {
	id, err := strconv.ParseInt(string(u), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("strconv.ParseInt: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("user id %d is not positive", id)
	}

	return id, nil
}

func WithUserID(ctx context.Context, userID UserID) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}

func UserIDFromContext(ctx context.Context) (UserID, error) {
	userID, ok := ctx.Value(contextKeyUserID{}).(UserID)
	if !ok {
		return "", fmt.Errorf("user id: %w", ErrNoValue)
	}

	return userID, nil
}
