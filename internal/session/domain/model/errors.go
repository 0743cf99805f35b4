package model

import "errors"

var (
	ErrTabIDRequired = errors.New("tab id is required")
	ErrInvalidTabID  = errors.New("tab id is invalid")

	// Token decoding failures. All of them leave the session unauthenticated.
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenNotYetValid = errors.New("token is not valid yet")
	ErrTokenSignature   = errors.New("token signature is invalid")
	ErrMissingRoleClaim = errors.New("token has no role claim")
	ErrLegacyRoleClaim  = errors.New("token uses the legacy Role claim")
)

// IsDecodeError reports whether err is one of the token decoding failures.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenNotYetValid) ||
		errors.Is(err, ErrTokenSignature) ||
		errors.Is(err, ErrMissingRoleClaim) ||
		errors.Is(err, ErrLegacyRoleClaim)
}
