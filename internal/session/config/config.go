package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Storage drivers accepted by SESSION_STORAGE_DRIVER.
const (
	StorageDriverMemory  = "memory"
	StorageDriverRedis   = "redis"
	StorageDriverMongoDB = "mongodb"
)

// Config holds all configuration for the session module.
type Config struct {
	// Tab storage
	StorageDriver string        `env:"SESSION_STORAGE_DRIVER" envDefault:"memory"`
	TabTTL        time.Duration `env:"SESSION_TAB_TTL" envDefault:"12h"`
	// Idle tab stores are dropped from memory after this long; the token stays in storage.
	StoreIdleTimeout time.Duration `env:"SESSION_STORE_IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval    time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	// Token decoding. An empty secret means decode-only mode.
	JWTSecretKey          string        `env:"SESSION_JWT_SECRET"`
	JWTIssuer             string        `env:"SESSION_JWT_ISSUER"`
	JWTLeeway             time.Duration `env:"SESSION_JWT_LEEWAY" envDefault:"0s"`
	AcceptLegacyRoleClaim bool          `env:"SESSION_ACCEPT_LEGACY_ROLE_CLAIM" envDefault:"true"`

	// Navigation
	LoginRoute   string `env:"SESSION_LOGIN_ROUTE" envDefault:"auth"`
	LandingRoute string `env:"SESSION_LANDING_ROUTE" envDefault:"programations"`

	// Tab identification
	TabHeaderName  string `env:"TAB_HEADER_NAME" envDefault:"X-Tab-ID"`
	TabCookieName  string `env:"TAB_COOKIE_NAME" envDefault:"tab_id"`
	TabQueryParam  string `env:"TAB_QUERY_PARAM" envDefault:"tab"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"` // Set to true in production
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	// CORS
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173"`

	// Session API rate limit per tab; 0 disables it
	RateLimitMax    int           `env:"SESSION_RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindow time.Duration `env:"SESSION_RATE_LIMIT_WINDOW" envDefault:"1m"`

	Redis RedisConfig
	Mongo MongoConfig
}

// RedisConfig configures the redis tab storage.
type RedisConfig struct {
	Host            string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string        `env:"REDIS_PORT" envDefault:"6379"`
	Password        string        `env:"REDIS_PASSWORD"`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
	KeyPrefix       string        `env:"REDIS_KEY_PREFIX" envDefault:"tab:"`
}

// GetAddr returns host:port.
func (c RedisConfig) GetAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MongoConfig configures the mongodb tab storage.
type MongoConfig struct {
	URI          string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"melodiapp_web"`
	Collection   string `env:"MONGODB_TAB_COLLECTION" envDefault:"tab_storage"`
}

// LoadConfig loads configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load session configuration from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parsed values and normalizes the ones with a canonical casing.
func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageDriverMemory, StorageDriverRedis, StorageDriverMongoDB:
	default:
		return fmt.Errorf("session_storage_driver must be one of %q, %q or %q, got %q",
			StorageDriverMemory, StorageDriverRedis, StorageDriverMongoDB, c.StorageDriver)
	}

	if c.TabTTL <= 0 {
		return errors.New("session_tab_ttl must be positive")
	}
	if c.JWTLeeway < 0 {
		return errors.New("session_jwt_leeway must not be negative")
	}
	if c.LoginRoute == "" || c.LandingRoute == "" {
		return errors.New("session_login_route and session_landing_route are required")
	}
	if c.LoginRoute == c.LandingRoute {
		return errors.New("session_login_route and session_landing_route must differ")
	}
	if c.RateLimitMax < 0 {
		return errors.New("session_rate_limit_max must not be negative")
	}
	if c.RateLimitMax > 0 && c.RateLimitWindow <= 0 {
		return errors.New("session_rate_limit_window must be positive")
	}
	if c.TabHeaderName == "" || c.TabCookieName == "" {
		return errors.New("tab_header_name and tab_cookie_name are required")
	}

	switch strings.ToLower(c.CookieSameSite) {
	case "lax":
		c.CookieSameSite = "Lax"
	case "strict":
		c.CookieSameSite = "Strict"
	case "none":
		c.CookieSameSite = "None"
	default:
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if c.StorageDriver == StorageDriverMongoDB && c.Mongo.URI == "" {
		return errors.New("mongodb_uri is required for the mongodb storage driver")
	}
	return nil
}

// DecodeOnly reports whether tokens are decoded without signature verification.
func (c *Config) DecodeOnly() bool {
	return c.JWTSecretKey == ""
}
