// Package common defines shared constants and sentinel errors used across
// RunReward components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Account errors.
	ErrorDuplicateEmail = errors.New("an account with this email already exists")
	ErrorNoSession      = errors.New("no current session")

	// Validation errors (bad course field definitions, malformed input).
	ErrorValidation = errors.New("validation error")

	// Session token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Rate limiter rejection.
	ErrorRateLimited = errors.New("too many attempts, try again later")
)
