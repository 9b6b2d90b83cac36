package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// Negotiation error codes. Every rejected operation carries the code of the
// invariant it violated, so callers never see a bare "operation failed".

func Unauthenticated(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func InvalidParticipants(message string) *AppError {
	return &AppError{
		Code:    "INVALID_PARTICIPANTS",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NotAParticipant(userID, chatID string) *AppError {
	return &AppError{
		Code:    "NOT_A_PARTICIPANT",
		Message: fmt.Sprintf("user %s is not a participant of chat %s", userID, chatID),
		Status:  http.StatusForbidden,
	}
}

func EmptyMessage() *AppError {
	return &AppError{
		Code:    "EMPTY_MESSAGE",
		Message: "message requires text content or an attachment",
		Status:  http.StatusBadRequest,
	}
}

func ActiveDealExists(chatID string) *AppError {
	return &AppError{
		Code:    "ACTIVE_DEAL_EXISTS",
		Message: fmt.Sprintf("chat %s already has a deal awaiting resolution", chatID),
		Status:  http.StatusConflict,
	}
}

func InvalidTransition(current, requested string) *AppError {
	return &AppError{
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("deal is %s, cannot move to %s", current, requested),
		Status:  http.StatusConflict,
	}
}

func NotCounterparty() *AppError {
	return &AppError{
		Code:    "NOT_COUNTERPARTY",
		Message: "a party cannot respond to its own proposal",
		Status:  http.StatusForbidden,
	}
}

func NotBuyer() *AppError {
	return &AppError{
		Code:    "NOT_BUYER",
		Message: "only the buyer of the deal can mark it as paid",
		Status:  http.StatusForbidden,
	}
}

func InvalidAmount(message string) *AppError {
	return &AppError{
		Code:    "INVALID_AMOUNT",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func SelfBid() *AppError {
	return &AppError{
		Code:    "SELF_BID",
		Message: "a listing owner cannot bid on their own listing",
		Status:  http.StatusBadRequest,
	}
}

func UploadFailed(message string, err error) *AppError {
	return &AppError{
		Code:    "UPLOAD_FAILED",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func StorageUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
