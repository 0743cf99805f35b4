package testutil

import (
	"time"

	"melodiapp-web/internal/session/config"

	"github.com/golang-jwt/jwt/v5"
)

// TestSecret signs tokens in tests that run the decoder in verified mode.
const TestSecret = "test-secret-key-32-characters-long-12345"

// TokenFixture builds JWTs for tests.
type TokenFixture struct {
	Secret string
}

// NewTokenFixture creates a TokenFixture signing with TestSecret.
func NewTokenFixture() *TokenFixture {
	return &TokenFixture{Secret: TestSecret}
}

// Claims returns a claim set with the given role, issued now and valid for an hour.
func (f *TokenFixture) Claims(role string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  "42",
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

// Sign returns claims signed with HS256.
func (f *TokenFixture) Sign(claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(f.Secret))
	if err != nil {
		panic(err)
	}
	return token
}

// WithRole returns a signed, valid token carrying role.
func (f *TokenFixture) WithRole(role string) string {
	return f.Sign(f.Claims(role))
}

// AdminToken returns a valid admin token.
func (f *TokenFixture) AdminToken() string {
	return f.WithRole("admin")
}

// MemberToken returns a valid non-admin token.
func (f *TokenFixture) MemberToken() string {
	return f.WithRole("member")
}

// LegacyRoleToken returns a valid token whose role sits in the "Role" claim.
func (f *TokenFixture) LegacyRoleToken(role string) string {
	claims := f.Claims("")
	delete(claims, "role")
	claims["Role"] = role
	return f.Sign(claims)
}

// ExpiredToken returns an admin token that expired an hour ago.
func (f *TokenFixture) ExpiredToken() string {
	claims := f.Claims("admin")
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	return f.Sign(claims)
}

// NoRoleToken returns a valid token without any role claim.
func (f *TokenFixture) NoRoleToken() string {
	claims := f.Claims("")
	delete(claims, "role")
	return f.Sign(claims)
}

// MalformedToken is not a JWT.
func (f *TokenFixture) MalformedToken() string {
	return "not-a-jwt"
}

// SessionConfig returns a valid session config with in-memory storage in decode-only mode.
func SessionConfig() *config.Config {
	return &config.Config{
		StorageDriver:         config.StorageDriverMemory,
		TabTTL:                time.Hour,
		StoreIdleTimeout:      30 * time.Minute,
		SweepInterval:         time.Minute,
		AcceptLegacyRoleClaim: true,
		LoginRoute:            "auth",
		LandingRoute:          "programations",
		TabHeaderName:         "X-Tab-ID",
		TabCookieName:         "tab_id",
		TabQueryParam:         "tab",
		CookiePath:            "/",
		CookieSameSite:        "Lax",
		AllowOrigins:          "*",
		Redis: config.RedisConfig{
			Host:      "localhost",
			Port:      "6379",
			PoolSize:  10,
			KeyPrefix: "tab:",
		},
		Mongo: config.MongoConfig{
			URI:          "mongodb://localhost:27017",
			DatabaseName: "melodiapp_web_test",
			Collection:   "tab_storage",
		},
	}
}
