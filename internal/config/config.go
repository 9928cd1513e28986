package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	GeoIP GeoIPConfig
}

type AppConfig struct {
	Port       string
	BaseURL    string
	CodeLength int
	LogLevel   string
	// TrustedProxies сети, которым доверяем X-Forwarded-For / X-Real-IP
	TrustedProxies []string
	// CORSAllowedOrigins "*" разрешает любой origin
	CORSAllowedOrigins []string
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// SQLiteDSN используется при Driver == "sqlite" (file:... или libsql://...)
	SQLiteDSN string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled сообщает, настроен ли Redis
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type GeoIPConfig struct {
	DBPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("CODE_LENGTH", 6)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TRUSTED_PROXIES", "0.0.0.0/0,::/0")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_DSN", "file:shortener.db")
	v.SetDefault("CACHE_TTL", 24*time.Hour)

	// .env не обязателен: в контейнере всё приходит через окружение
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.BaseURL = normalizeBaseURL(v.GetString("BASE_URL"), cfg.App.Port)
	cfg.App.CodeLength = v.GetInt("CODE_LENGTH")
	if cfg.App.CodeLength <= 0 {
		cfg.App.CodeLength = 6
	}
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")
	cfg.App.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))
	cfg.App.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER")))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")
	cfg.DB.SQLiteDSN = v.GetString("SQLITE_DSN")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	if cfg.Redis.Port == "" {
		cfg.Redis.Port = "6379"
	}
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.CacheTTL = v.GetDuration("CACHE_TTL")

	cfg.GeoIP.DBPath = v.GetString("GEOIP_DB_PATH")

	return &cfg
}

// normalizeBaseURL убирает завершающий слэш, пустое значение заменяет на localhost
func normalizeBaseURL(raw, port string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "http://localhost:" + port
	}
	return raw
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
