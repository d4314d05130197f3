package helper

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindValidation
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// AppError is the error every service returns to its controller.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindForbidden:
		return fiber.StatusForbidden
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause is logged, never shown.
func Internal(err error, format string, args ...any) *AppError {
	return &AppError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is an AppError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == k
}

// IsUniqueViolation detects duplicate-key errors from both the translated
// gorm error and the raw Postgres code.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AsAppError normalises any error coming out of a service or transaction.
func AsAppError(err error, fallback string) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &AppError{Kind: kindFromStatus(fe.Code), Message: fe.Message, Err: err}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &AppError{Kind: KindNotFound, Message: "record not found", Err: err}
	case IsUniqueViolation(err):
		return &AppError{Kind: KindConflict, Message: "duplicate record", Err: err}
	}
	return Internal(err, "%s", fallback)
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusConflict:
		return KindConflict
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindInternal
	}
}
