package repository

import (
	"context"

	"melodiapp-web/internal/session/domain/model"
)

// TokenDecoder turns a raw token into typed claims. Any returned error means
// the token must not authenticate the session.
type TokenDecoder interface {
	Decode(ctx context.Context, token string) (*model.TokenPayload, error)
}
