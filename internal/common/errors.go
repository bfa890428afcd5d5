package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Code is a stable, machine-readable error code returned to callers.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidTransition Code = "INVALID_STATE_TRANSITION"
	CodeIntegrity         Code = "INTEGRITY_VIOLATION"
	CodeConflict          Code = "CONFLICT"
	CodeForbidden         Code = "FORBIDDEN"
	CodeQuotaExceeded     Code = "QUOTA_EXCEEDED"
	CodeLicenseNotFound   Code = "LICENSE_NOT_FOUND"
	CodeLicenseInactive   Code = "LICENSE_INACTIVE"
	CodeLicenseExpired    Code = "LICENSE_EXPIRED"
	CodeLicenseRestricted Code = "LICENSE_RESTRICTED"
	CodeOtpExpired        Code = "OTP_EXPIRED"
	CodeOtpInvalid        Code = "OTP_INVALID"
	CodeStorage           Code = "STORAGE_UNAVAILABLE"
)

// DomainError carries a stable code plus a human-readable message. Domain
// errors are terminal for the current request and are never retried by
// this core.
type DomainError struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is matches on code so sentinel comparisons with errors.Is work across
// independently constructed instances.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

func newError(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// ErrValidation builds a validation failure with per-field detail.
func ErrValidation(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed",
		Details: map[string]string{field: message},
	}
}

// ErrNotFound reports a missing tenant-scoped resource.
func ErrNotFound(resource string) *DomainError {
	return newError(CodeNotFound, resource+" not found")
}

// ErrInvalidTransition reports an out-of-table lifecycle move. The voucher
// is left untouched by the caller.
func ErrInvalidTransition(from, event string) *DomainError {
	return newError(CodeInvalidTransition, fmt.Sprintf("cannot %s a voucher in state %q", event, from))
}

// ErrIntegrity reports a signature mismatch. This is a security event, not
// a routine user error; the expected signature value is never included.
func ErrIntegrity(voucherNumber string) *DomainError {
	return newError(CodeIntegrity, fmt.Sprintf("voucher %s failed integrity verification", voucherNumber))
}

// ErrConflict reports a lost optimistic-concurrency race on a voucher.
func ErrConflict(resource string) *DomainError {
	return newError(CodeConflict, resource+" was modified concurrently, reload and retry")
}

// ErrForbidden reports an actor whose role does not cover the action.
func ErrForbidden(action string) *DomainError {
	return newError(CodeForbidden, "role does not permit "+action)
}

// ErrQuotaExceeded names the exhausted counter and the plan so the caller
// knows what limit was hit. The refusal is definitive, not retryable.
func ErrQuotaExceeded(counter, plan string, limit int) *DomainError {
	return newError(CodeQuotaExceeded,
		fmt.Sprintf("monthly %s limit of %d reached on plan %q", counter, limit, plan))
}

func ErrLicenseNotFound() *DomainError {
	return newError(CodeLicenseNotFound, "no license found for tenant")
}

// ErrLicenseInactive carries the actual license status.
func ErrLicenseInactive(status string) *DomainError {
	return newError(CodeLicenseInactive, "license is "+status+", not active")
}

func ErrLicenseExpired() *DomainError {
	return newError(CodeLicenseExpired, "license has expired")
}

func ErrLicenseRestricted(reason string) *DomainError {
	return newError(CodeLicenseRestricted, "license restriction: "+reason)
}

func ErrOtpExpired() *DomainError {
	return newError(CodeOtpExpired, "one-time code has expired, request a new one")
}

func ErrOtpInvalid() *DomainError {
	return newError(CodeOtpInvalid, "one-time code is invalid")
}

// ErrStorage wraps an infrastructure failure. Fatal to the current request;
// retries with backoff belong to the storage layer, not to callers of it.
func ErrStorage(err error) *DomainError {
	return &DomainError{Code: CodeStorage, Message: "storage unavailable", cause: err}
}

// CodeOf extracts the stable code from any error chain.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeStorage
}

var httpStatusByCode = map[Code]int{
	CodeValidation:        http.StatusBadRequest,
	CodeNotFound:          http.StatusNotFound,
	CodeInvalidTransition: http.StatusConflict,
	CodeIntegrity:         http.StatusConflict,
	CodeConflict:          http.StatusConflict,
	CodeForbidden:         http.StatusForbidden,
	CodeQuotaExceeded:     http.StatusPaymentRequired,
	CodeLicenseNotFound:   http.StatusPaymentRequired,
	CodeLicenseInactive:   http.StatusPaymentRequired,
	CodeLicenseExpired:    http.StatusPaymentRequired,
	CodeLicenseRestricted: http.StatusForbidden,
	CodeOtpExpired:        http.StatusGone,
	CodeOtpInvalid:        http.StatusBadRequest,
	CodeStorage:           http.StatusServiceUnavailable,
}

// SendDomainError maps a domain error to the standard JSON error envelope.
func SendDomainError(c echo.Context, err error) error {
	var de *DomainError
	if !errors.As(err, &de) {
		return SendServerError(c, "operation could not be completed")
	}
	status, ok := httpStatusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, CreateErrorResponse(string(de.Code), de.Message, de.Details))
}
