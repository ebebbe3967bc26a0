package persistence

import (
	"context"
	"slices"

	"github.com/jmoiron/sqlx"

	"campus_auction/internal/domain"
	"campus_auction/pkg/errcodes"
)

// ensureUsers заводит строки users при первом обращении пользователя.
// Учётные записи ведёт внешний сервис идентификации, здесь хранятся только агрегаты рейтинга.
// ID вставляются по возрастанию, чтобы встречные транзакции не блокировали друг друга крест-накрест.
func ensureUsers(ctx context.Context, db sqlx.ExecerContext, userIDs ...int64) error {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)

	for _, id := range slices.Compact(ids) {
		if _, err := db.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to register user")
		}
	}

	return nil
}
