package middlewarex

import (
	"net/http"

	"campus_auction/pkg/contextx"
)

const headerNameUserID = "X-User-Id"

// UserID переносит идентификатор пользователя, проверенный шлюзом авторизации, в контекст.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerNameUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := contextx.WithUserID(r.Context(), contextx.UserID(userID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
