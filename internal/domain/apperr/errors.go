package apperr

import "errors"

// Sentinel errors shared by every layer. Services and repositories either
// resolve an error completely or return one of these unchanged, so the HTTP
// layer can pick a status code with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("resource not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrUnderage           = errors.New("user must be at least 13 years old")
	ErrInvalidID          = errors.New("invalid user id")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
