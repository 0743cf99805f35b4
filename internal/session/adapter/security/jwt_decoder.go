package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// JWTDecoder decodes session tokens into model.TokenPayload.
//
// Without a secret it only decodes the payload and checks the time claims,
// which is what a browser holding a token it cannot verify is able to do.
// With a secret the HMAC signature is verified as well.
type JWTDecoder struct {
	secretKey        []byte
	issuer           string
	leeway           time.Duration
	acceptLegacyRole bool
	log              logger.Logger
}

// NewJWTDecoder creates a decoder from the session configuration.
func NewJWTDecoder(cfg *config.Config, log logger.Logger) (*JWTDecoder, error) {
	if cfg == nil {
		return nil, errors.New("session config cannot be nil")
	}
	if cfg.JWTLeeway < 0 {
		return nil, errors.New("jwt leeway must not be negative")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &JWTDecoder{
		secretKey:        []byte(cfg.JWTSecretKey),
		issuer:           cfg.JWTIssuer,
		leeway:           cfg.JWTLeeway,
		acceptLegacyRole: cfg.AcceptLegacyRoleClaim,
		log:              log.WithComponent("jwt_decoder"),
	}, nil
}

// Verifies reports whether signatures are checked.
func (d *JWTDecoder) Verifies() bool {
	return len(d.secretKey) > 0
}

// Decode parses token and resolves its role. The returned payload always has
// a non-empty Role.
func (d *JWTDecoder) Decode(ctx context.Context, token string) (*model.TokenPayload, error) {
	if token == "" {
		return nil, model.ErrTokenMalformed
	}

	payload := &model.TokenPayload{}
	opts := d.parserOptions()

	if d.Verifies() {
		parsed, err := jwt.ParseWithClaims(token, payload, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, model.ErrTokenSignature
			}
			return d.secretKey, nil
		}, append(opts, jwt.WithValidMethods(hmacMethods))...)
		if err != nil {
			return nil, mapJWTError(err)
		}
		if !parsed.Valid {
			return nil, model.ErrTokenMalformed
		}
	} else {
		if _, _, err := jwt.NewParser(opts...).ParseUnverified(token, payload); err != nil {
			return nil, mapJWTError(err)
		}
		if err := jwt.NewValidator(opts...).Validate(payload); err != nil {
			return nil, mapJWTError(err)
		}
	}

	role, legacy, err := payload.ResolveRole(d.acceptLegacyRole)
	if err != nil {
		return nil, err
	}
	if legacy {
		d.log.WithContext(ctx).Warn("Token carries the legacy Role claim",
			zap.String("subject", payload.Subject),
			zap.String("issuer", payload.Issuer))
	}
	payload.Role = role

	return payload, nil
}

func (d *JWTDecoder) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithIssuedAt(),
		jwt.WithLeeway(d.leeway),
	}
	if d.issuer != "" {
		opts = append(opts, jwt.WithIssuer(d.issuer))
	}
	return opts
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, model.ErrTokenSignature):
		return model.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return model.ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return model.ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
}
