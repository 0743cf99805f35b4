package model

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPayload is the typed claim set carried by a session token.
//
// The canonical role claim is "role". Some issuers send "Role"; it is kept in
// a separate field so the caller can tell which one was present.
type TokenPayload struct {
	Role       string `json:"role,omitempty"`
	LegacyRole string `json:"Role,omitempty"`
	jwt.RegisteredClaims
}

// ResolveRole returns the effective role. legacy is true when the value came
// from the "Role" claim. A token without any usable role claim is rejected
// with ErrMissingRoleClaim.
func (p *TokenPayload) ResolveRole(acceptLegacy bool) (role string, legacy bool, err error) {
	if r := strings.TrimSpace(p.Role); r != "" {
		return r, false, nil
	}
	if r := strings.TrimSpace(p.LegacyRole); r != "" {
		if !acceptLegacy {
			return "", true, ErrLegacyRoleClaim
		}
		return r, true, nil
	}
	return "", false, ErrMissingRoleClaim
}
