package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 12*time.Hour, cfg.TabTTL)
	assert.True(t, cfg.AcceptLegacyRoleClaim)
	assert.True(t, cfg.DecodeOnly())
	assert.Equal(t, "auth", cfg.LoginRoute)
	assert.Equal(t, "programations", cfg.LandingRoute)
	assert.Equal(t, "X-Tab-ID", cfg.TabHeaderName)
	assert.Equal(t, "tab_id", cfg.TabCookieName)
	assert.Equal(t, "localhost:6379", cfg.Redis.GetAddr())
	assert.Equal(t, "tab_storage", cfg.Mongo.Collection)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SESSION_STORAGE_DRIVER", "Redis")
	t.Setenv("SESSION_TAB_TTL", "2h")
	t.Setenv("SESSION_JWT_SECRET", "a-secret")
	t.Setenv("SESSION_ACCEPT_LEGACY_ROLE_CLAIM", "false")
	t.Setenv("COOKIE_SAME_SITE", "strict")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverRedis, cfg.StorageDriver)
	assert.Equal(t, 2*time.Hour, cfg.TabTTL)
	assert.False(t, cfg.DecodeOnly())
	assert.False(t, cfg.AcceptLegacyRoleClaim)
	assert.Equal(t, "Strict", cfg.CookieSameSite)
	assert.Equal(t, "cache:6380", cfg.Redis.GetAddr())
}

func TestValidate_Rejects(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorageDriver:  StorageDriverMemory,
			TabTTL:         time.Hour,
			LoginRoute:     "auth",
			LandingRoute:   "programations",
			TabHeaderName:  "X-Tab-ID",
			TabCookieName:  "tab_id",
			CookieSameSite: "Lax",
			Mongo:          MongoConfig{URI: "mongodb://localhost:27017"},
		}
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "etcd" }},
		{name: "zero ttl", mutate: func(c *Config) { c.TabTTL = 0 }},
		{name: "negative leeway", mutate: func(c *Config) { c.JWTLeeway = -time.Second }},
		{name: "missing login route", mutate: func(c *Config) { c.LoginRoute = "" }},
		{name: "same login and landing", mutate: func(c *Config) { c.LandingRoute = "auth" }},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimitMax = -1 }},
		{name: "rate limit without window", mutate: func(c *Config) {
			c.RateLimitMax = 10
			c.RateLimitWindow = 0
		}},
		{name: "bad same site", mutate: func(c *Config) { c.CookieSameSite = "sometimes" }},
		{name: "mongo without uri", mutate: func(c *Config) {
			c.StorageDriver = StorageDriverMongoDB
			c.Mongo.URI = ""
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
