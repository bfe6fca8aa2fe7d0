package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал
// и для сентинелов, обёрнутых через Wrap.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// WithCause возвращает копию сентинела с причиной.
func WithCause(sentinel *AppError, cause error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		HTTPStatus: sentinel.HTTPStatus,
		Cause:      cause,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

func IsNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeValidation
}

func IsConflict(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeConflict
}

var (
	ErrBookingNotFound      = New(ErrCodeNotFound, "booking not found")
	ErrBlockNotFound        = New(ErrCodeNotFound, "calendar block not found")
	ErrRequestNotFound      = New(ErrCodeNotFound, "availability request not found")
	ErrOfferNotFound        = New(ErrCodeNotFound, "job offer not found")
	ErrJobNotFound          = New(ErrCodeNotFound, "job posting not found")
	ErrApplicationNotFound  = New(ErrCodeNotFound, "job application not found")
	ErrInvoiceNotFound      = New(ErrCodeNotFound, "invoice not found")
	ErrProfileNotFound      = New(ErrCodeNotFound, "profile not found")
	ErrConversationNotFound = New(ErrCodeNotFound, "conversation not found")
	ErrMessageNotFound      = New(ErrCodeNotFound, "message not found")

	ErrDatesNotAvailable = New(ErrCodeConflict, "These dates are not available. Please choose different dates.")
	ErrBlockOverlap      = New(ErrCodeConflict, "Cannot create block: dates overlap with existing block")
	ErrAlreadyConverted  = New(ErrCodeConflict, "offer already converted to a booking")
	ErrDuplicateRequest  = New(ErrCodeConflict, "you already have a pending availability request for this date")
	ErrAlreadyAnswered   = New(ErrCodeConflict, "availability request has already been answered")
	ErrRequestExpired    = New(ErrCodeConflict, "availability request has expired")
	ErrOfferExpired      = New(ErrCodeConflict, "job offer has expired")
	ErrAlreadyApplied    = New(ErrCodeConflict, "you have already applied to this job")

	ErrUnauthorized = New(ErrCodeUnauthorized, "authentication required")
	ErrForbidden    = New(ErrCodeForbidden, "insufficient permissions")
	ErrNotParty     = New(ErrCodeForbidden, "Unauthorized: You are not part of this booking")
)
