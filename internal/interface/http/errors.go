package handlers

import (
	"errors"
	"net/http"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// statusFor maps an error kind to an HTTP status and user-facing message.
// Kind-preserving propagation in the lower layers makes this the single place
// status codes are chosen.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidID),
		errors.Is(err, apperr.ErrUnderage), errors.Is(err, apperr.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, apperr.ErrEmailExists):
		return http.StatusConflict, "email already exists"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, apperr.ErrAccountDeactivated):
		return http.StatusUnauthorized, "account is deactivated"
	case errors.Is(err, helpers.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, helpers.ErrTokenNotYetValid),
		errors.Is(err, helpers.ErrTokenSignatureInvalid),
		errors.Is(err, helpers.ErrTokenMalformed):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
