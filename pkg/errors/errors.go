package studio_errors

import (
	"errors"
)

// Common errors
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")
)

// Workflow and payment errors
var (
	ErrReadOnly            = errors.New("design request is read-only")
	ErrQuotaExhausted      = errors.New("no revisions left")
	ErrQuotaAvailable      = errors.New("revisions still available")
	ErrAlreadyFinal        = errors.New("a final delivery is already selected")
	ErrPaymentCeiling      = errors.New("payment total exceeds the allowed maximum")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrGateway             = errors.New("payment gateway error")
)
