package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"campus_auction/internal/domain"
	"campus_auction/pkg/contextx"
	"campus_auction/pkg/errcodes"
)

// httpError переводит доменную ошибку в failure-ошибку, по которой reply выбирает статус.
// Инфраструктурные ошибки уходят как есть и отдаются клиенту как 500.
func httpError(err error) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Kind {
	case domain.KindValidation:
		return failure.NewInvalidArgumentErrorFromError(err,
			failure.WithCode(appErr.Code),
			failure.WithDescription(appErr.Message),
		)
	case domain.KindNotFound:
		return failure.NewNotFoundError(err.Error(),
			failure.WithCode(appErr.Code),
			failure.WithDescription(appErr.Message),
		)
	case domain.KindConflict:
		return failure.NewConflictError(err.Error(),
			failure.WithCode(appErr.Code),
			failure.WithDescription(appErr.Message),
		)
	case domain.KindForbidden:
		return failure.NewForbiddenError(err.Error(),
			failure.WithCode(appErr.Code),
			failure.WithDescription(appErr.Message),
		)
	default:
		return err
	}
}

func pathID(r *http.Request, code failure.ErrorCode) (int64, error) {
	return pathParamID(r, "id", code)
}

func pathParamID(r *http.Request, name string, code failure.ErrorCode) (int64, error) {
	raw := r.PathValue(name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid id %q", raw),
			failure.WithCode(code),
			failure.WithDescription("id must be a positive integer"),
		)
	}

	return id, nil
}

// currentUserID возвращает пользователя, от имени которого выполняется запрос.
func currentUserID(r *http.Request) (int64, error) {
	userID, err := contextx.UserIDFromContext(r.Context())
	if err != nil {
		return 0, failure.NewInvalidArgumentError(
			err.Error(),
			failure.WithCode(errcodes.InvalidUserID),
			failure.WithDescription("X-User-Id header is required"),
		)
	}

	id, err := userID.Int64()
	if err != nil {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid user id %q", userID),
			failure.WithCode(errcodes.InvalidUserID),
			failure.WithDescription("X-User-Id must be a positive integer"),
		)
	}

	return id, nil
}

// sameUser пропускает запрос, только если пользователь из пути совпадает с автором запроса.
func sameUser(r *http.Request) (int64, error) {
	userID, err := pathID(r, errcodes.InvalidUserID)
	if err != nil {
		return 0, err
	}

	callerID, err := currentUserID(r)
	if err != nil {
		return 0, err
	}

	if userID != callerID {
		return 0, failure.NewForbiddenError(
			fmt.Sprintf("user %d cannot access user %d", callerID, userID),
			failure.WithCode(errcodes.Forbidden),
			failure.WithDescription("access to another user's data is forbidden"),
		)
	}

	return userID, nil
}

// queryInt читает необязательный неотрицательный параметр запроса.
func queryInt(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid %s %q", name, raw),
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(name+" must be a non-negative integer"),
		)
	}

	return v, nil
}
