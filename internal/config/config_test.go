package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("CODE_LENGTH", 6)
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("CACHE_TTL", 24*time.Hour)
	v.SetDefault("TRUSTED_PROXIES", "0.0.0.0/0,::/0")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	cfg := fromViper(v)

	assert.Equal(t, []string{"0.0.0.0/0", "::/0"}, cfg.App.TrustedProxies)
	assert.Equal(t, []string{"*"}, cfg.App.CORSAllowedOrigins)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, 6, cfg.App.CodeLength)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("APP_PORT", "3000")
	v.Set("BASE_URL", "https://sho.rt/")
	v.Set("CODE_LENGTH", 0)
	v.Set("DB_DRIVER", " SQLite ")
	v.Set("SQLITE_DSN", "file:test.db")
	v.Set("TRUSTED_PROXIES", "")
	v.Set("CORS_ALLOWED_ORIGINS", "https://app.sho.rt, http://localhost:5173,")
	v.Set("DB_SSLMODE", "require")
	v.Set("REDIS_HOST", "cache")
	v.Set("REDIS_PASSWORD", "secret")
	v.Set("REDIS_DB", "2")
	v.Set("CACHE_TTL", "1h")

	cfg := fromViper(v)

	assert.Equal(t, "https://sho.rt", cfg.App.BaseURL)
	assert.Equal(t, 6, cfg.App.CodeLength)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "file:test.db", cfg.DB.SQLiteDSN)
	assert.Empty(t, cfg.App.TrustedProxies)
	assert.Equal(t, []string{"https://app.sho.rt", "http://localhost:5173"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, "require", cfg.DB.SSLMode)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL)
}
