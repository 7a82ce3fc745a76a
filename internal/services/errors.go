package services

import (
	"errors"
	"net/http"

	studio_errors "uniform-studio/pkg/errors"
)

// HTTPStatus maps a service error to the status handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, studio_errors.ErrInvalidInput),
		errors.Is(err, studio_errors.ErrPaymentCeiling):
		return http.StatusBadRequest
	case errors.Is(err, studio_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, studio_errors.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, studio_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, studio_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio_errors.ErrAlreadyExists),
		errors.Is(err, studio_errors.ErrConflict),
		errors.Is(err, studio_errors.ErrAlreadyFinal),
		errors.Is(err, studio_errors.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, studio_errors.ErrInvalidTransition),
		errors.Is(err, studio_errors.ErrQuotaExhausted),
		errors.Is(err, studio_errors.ErrQuotaAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, studio_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, studio_errors.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, studio_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode is the machine readable code sent alongside HTTPStatus.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, studio_errors.ErrPaymentCeiling):
		return "PAYMENT_CEILING"
	case errors.Is(err, studio_errors.ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, studio_errors.ErrReadOnly):
		return "READ_ONLY"
	case errors.Is(err, studio_errors.ErrAlreadyFinal):
		return "ALREADY_FINAL"
	case errors.Is(err, studio_errors.ErrQuotaExhausted):
		return "QUOTA_EXHAUSTED"
	case errors.Is(err, studio_errors.ErrQuotaAvailable):
		return "QUOTA_AVAILABLE"
	case errors.Is(err, studio_errors.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, studio_errors.ErrGateway):
		return "GATEWAY_ERROR"
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "REQUEST_FAILED"
	}
}
