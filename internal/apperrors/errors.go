package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrEligibility indicates that a purchase is not allowed for the buyer/project pair.
var ErrEligibility = errors.New("purchase not eligible")

// ErrSignature indicates that a gateway proof did not verify.
var ErrSignature = errors.New("signature verification failed")

// ErrGateway indicates an upstream payment gateway failure. Callers may retry.
var ErrGateway = errors.New("payment gateway error")

// ErrConflict indicates a state conflict, such as a lost race at a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrRefund indicates that a refund could not be issued.
var ErrRefund = errors.New("refund error")

// ErrUnauthorized indicates a missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish code, a message safe to show callers, the error kind
// (one of the sentinels above) and the underlying cause.
type AppError struct {
	Code    int
	Message string
	Kind    error
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewAppError builds an AppError whose kind is derived from the code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Kind: kindForCode(code), Err: err}
}

func newKind(code int, kind error, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: kind}
}

func NewValidationFailedError(message string) *AppError {
	return newKind(http.StatusBadRequest, ErrValidation, message)
}

func NewEligibilityError(message string) *AppError {
	return newKind(http.StatusUnprocessableEntity, ErrEligibility, message)
}

func NewSignatureError(message string) *AppError {
	return newKind(http.StatusBadRequest, ErrSignature, message)
}

func NewNotFoundError(message string) *AppError {
	return newKind(http.StatusNotFound, ErrNotFound, message)
}

func NewConflictError(message string) *AppError {
	return newKind(http.StatusConflict, ErrConflict, message)
}

func NewRefundError(message string) *AppError {
	return newKind(http.StatusUnprocessableEntity, ErrRefund, message)
}

// NewGatewayError wraps an upstream failure.
func NewGatewayError(message string, err error) *AppError {
	return &AppError{Code: http.StatusBadGateway, Message: message, Kind: ErrGateway, Err: err}
}

func kindForCode(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return ErrGateway
	default:
		return ErrInternal
	}
}

// HTTPStatus maps any error produced by this module onto a response status code.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 && appErr.Kind != ErrInternal {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, ErrEligibility), errors.Is(err, ErrRefund):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
