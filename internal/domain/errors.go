package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"campus_auction/pkg/errcodes"
)

// Kind классифицирует доменную ошибку для транспорта и планировщика.
type Kind int

const (
	// KindInternal — инфраструктурный сбой, операцию можно повторить.
	KindInternal Kind = iota
	// KindValidation — некорректный ввод, состояние не затронуто.
	KindValidation
	// KindNotFound — неизвестный идентификатор.
	KindNotFound
	// KindConflict — ввод корректен, но текущее состояние его отвергает.
	KindConflict
	// KindForbidden — операция не разрешена этому пользователю.
	KindForbidden
)

// AppError представляет доменную ошибку приложения.
type AppError struct {
	Kind    Kind
	Code    failure.ErrorCode
	Message string
	cause   error
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap возвращает обёрнутую ошибку для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.cause
}

func NewValidationError(code failure.ErrorCode, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func NewNotFoundError(code failure.ErrorCode, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflictError(code failure.ErrorCode, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func NewForbiddenError(code failure.ErrorCode, message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: code, Message: message}
}

// WrapError оборачивает инфраструктурную ошибку с доменным контекстом.
func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    code,
		Message: message,
		cause:   err,
	}
}

// WrapInternal вызывает WrapError с кодом InternalServerError.
func WrapInternal(err error, message string) *AppError {
	return WrapError(err, errcodes.InternalServerError, message)
}

// IsAppError проверяет, является ли ошибка доменной.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode извлекает код ошибки, если это AppError.
func GetCode(err error) (failure.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// HasCode сообщает, несёт ли ошибка указанный код.
func HasCode(err error, code failure.ErrorCode) bool {
	got, ok := GetCode(err)
	return ok && got == code
}

// IsRetryable сообщает, имеет ли смысл повторять операцию без изменения ввода.
// Ошибки без доменной классификации считаются инфраструктурными.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == KindInternal
	}
	return true
}
